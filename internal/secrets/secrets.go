// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the API credentials used by the pipeline. Keys
// come from three places, highest precedence first: the process
// environment, env files (.env.local, .env) loaded into the environment with
// godotenv, and a directory of plain-text files where the filename is the
// key name and the trimmed contents are the value.
//
// Supported key files: openai-api-key, anthropic-api-key,
// semantic-scholar-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secret file names understood by Resolve.
const (
	FileOpenAI          = "openai-api-key"
	FileAnthropic       = "anthropic-api-key"
	FileSemanticScholar = "semantic-scholar-api-key"
)

// Environment variables understood by Resolve, in lookup order.
var (
	envOpenAI          = []string{"OPENAI_KEY", "OPENAI_API_KEY"}
	envAnthropic       = []string{"ANTHROPIC_API_KEY"}
	envSemanticScholar = []string{"SEMANTIC_SCHOLAR_API_KEY"}
)

// DefaultEnvFiles are the env files loaded at startup when present.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Credentials holds the provider API keys. Any may be empty; absence is
// reported by the component that needs the key, when it is used.
type Credentials struct {
	OpenAIKey          string
	AnthropicKey       string
	SemanticScholarKey string
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFiles loads the given env files into the process environment
// without overriding variables that are already set. Missing files are
// skipped. It returns the files that were loaded.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat env file %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("loading env file %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Resolve picks each credential from the environment first and falls back
// to the secrets map. getenv is usually os.Getenv.
func Resolve(files map[string]string, getenv func(string) string) Credentials {
	return Credentials{
		OpenAIKey:          lookup(files, FileOpenAI, envOpenAI, getenv),
		AnthropicKey:       lookup(files, FileAnthropic, envAnthropic, getenv),
		SemanticScholarKey: lookup(files, FileSemanticScholar, envSemanticScholar, getenv),
	}
}

func lookup(files map[string]string, file string, envKeys []string, getenv func(string) string) string {
	for _, k := range envKeys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return files[file]
}
