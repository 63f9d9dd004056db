// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/cite-engine/internal/synth"
)

// ErrInvalidInput classifies every client-side input error.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoSentences is returned when a request carries no sentences.
var ErrNoSentences error = &inputError{msg: "No sentences provided"}

// inputError carries a message that is safe to return to the client. It
// matches ErrInvalidInput under errors.Is.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput returns an input error whose message is shown to the client.
func InvalidInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a pipeline error to a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, synth.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err. Input errors
// are returned verbatim; everything else is replaced by a generic message
// and only the server log keeps the detail.
func PublicMessage(err error) string {
	var ie *inputError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ie):
		return ie.msg
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request"
	case errors.Is(err, context.DeadlineExceeded):
		return "Citation request timed out"
	case errors.Is(err, synth.ErrMalformedResponse):
		return "Citation analysis returned an invalid response"
	case errors.Is(err, synth.ErrMissingAPIKey):
		return "Citation service is not configured"
	default:
		return "Internal server error"
	}
}
