package slogx

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, levelFor(tc.in), "level %q", tc.in)
	}
}

func TestFromContext(t *testing.T) {
	t.Run("returns the stashed logger", func(t *testing.T) {
		l := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
		ctx := NewContext(context.Background(), l)
		require.Same(t, l, FromContext(ctx))
	})

	t.Run("falls back to the default", func(t *testing.T) {
		require.Same(t, slog.Default(), FromContext(context.Background()))
	})
}

func TestRequestLogger(t *testing.T) {
	newStack := func(buf *bytes.Buffer, next http.HandlerFunc) http.Handler {
		base := slog.New(slog.NewJSONHandler(buf, nil))
		return RequestLogger(base)(next)
	}

	t.Run("assigns a request id and logs the outcome", func(t *testing.T) {
		var buf bytes.Buffer
		var ctxLogger *slog.Logger
		h := newStack(&buf, func(w http.ResponseWriter, r *http.Request) {
			ctxLogger = FromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.NotEmpty(t, rec.Header().Get(requestIDHeader))
		require.NotSame(t, slog.Default(), ctxLogger)
		require.Contains(t, buf.String(), `"status":418`)
		require.Contains(t, buf.String(), `"path":"/ping"`)
	})

	t.Run("honors a caller-provided request id", func(t *testing.T) {
		var buf bytes.Buffer
		h := newStack(&buf, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "req-abc123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "req-abc123", rec.Header().Get(requestIDHeader))
		require.Contains(t, buf.String(), `"req_id":"req-abc123"`)
	})

	t.Run("silent handler reports 200", func(t *testing.T) {
		var buf bytes.Buffer
		h := newStack(&buf, func(w http.ResponseWriter, r *http.Request) {})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Contains(t, buf.String(), `"status":200`)
	})
}
