// Package qdrant implements db.Store over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/version"
)

var (
	_ db.Store        = (*Store)(nil)
	_ db.FieldIndexer = (*Store)(nil)
)

// Config holds connection parameters for a Qdrant store.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store talks to Qdrant over HTTP. Index names map to collection names.
type Store struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks that the service is ready to serve requests.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.doJSON(ctx, http.MethodGet, "/readyz", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	s.httpClient.CloseIdleConnections()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for qdrant: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// apiError is the error envelope Qdrant returns on failed requests.
type apiError struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("status %d: %s", e.code, e.msg)
	}
	return fmt.Sprintf("status %d", e.code)
}

// doJSON sends body as JSON and decodes a 2xx response into out.
// Non-2xx responses come back as *statusError.
func (s *Store) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var envelope apiError
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &envelope) == nil && envelope.Status.Error != "" {
			msg = envelope.Status.Error
		}
		return &statusError{code: resp.StatusCode, msg: msg}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// call wraps doJSON errors with the operation name and maps client errors to db sentinels.
func (s *Store) call(ctx context.Context, op, method, path string, body, out any) error {
	err := s.doJSON(ctx, method, path, body, out)
	if err == nil {
		return nil
	}
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusNotFound:
			err = fmt.Errorf("%w: %w", db.ErrIndexNotFound, err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			err = fmt.Errorf("%w: %w", db.ErrBadRequest, err)
		}
	}
	return &db.Error{Op: op, Err: err}
}

func statusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
