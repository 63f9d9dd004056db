// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/cite"
	"github.com/pdiddy/cite-engine/pkg/types"
)

type citeRequest struct {
	Sentences []types.EssaySentence `json:"sentences"`
}

type citeResponse struct {
	Results []types.ResultItem `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCite(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", RequestIDFrom(r.Context())))

	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	var req citeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return
		}
		writeError(w, cite.InvalidInput("Request body is not valid JSON"))
		return
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	items, report, err := s.runner.RunWithReport(ctx, req.Sentences)
	if s.metrics != nil {
		s.metrics.ObserveRun(report, err)
	}
	if err != nil {
		fields := append(report.LogFields(), zap.Error(err))
		if cite.HTTPStatus(err) < http.StatusInternalServerError {
			logger.Info("citation request rejected", fields...)
		} else {
			logger.Error("citation request failed", fields...)
		}
		writeError(w, err)
		return
	}

	logger.Info("citation request completed", report.LogFields()...)
	writeJSON(w, http.StatusOK, citeResponse{Results: items})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, cite.HTTPStatus(err), errorResponse{Error: cite.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
