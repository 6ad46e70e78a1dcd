package logging

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestIDHeader correlates a request with its log records.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that logs every outgoing request.
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration", duration.String(),
		"request_id", req.Header.Get(RequestIDHeader),
	}
	if err != nil {
		slog.Log(req.Context(), slog.LevelWarn, "request failed", append(attrs, "err", err)...)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelError
	} else if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	slog.Log(req.Context(), level, "request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
