package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/owtlabs/owt/pkg/idx"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger assigns each request an id (honoring one supplied by the
// caller), echoes it back in the response, puts a request-scoped logger
// into the context and emits one line per request once it finishes.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = idx.New().String()
			}
			w.Header().Set(requestIDHeader, reqID)

			log := base.With(slog.String("req_id", reqID))
			sr := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(sr, r.WithContext(NewContext(r.Context(), log)))

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", sr.Status()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Status reports the written status, defaulting to 200 when the handler
// never called WriteHeader.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
