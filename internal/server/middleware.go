package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

// requestID returns the caller's id when it is a valid UUID, otherwise a
// fresh one.
func requestID(r *http.Request) string {
	if incoming := r.Header.Get(constants.RequestIDHeader); incoming != "" {
		if parsed, err := uuid.Parse(incoming); err == nil {
			return parsed.String()
		}
	}
	return uuid.NewString()
}

// withRequestLogging tags every response with a request id and writes one
// access log line per request.
func withRequestLogging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r)
		w.Header().Set(constants.RequestIDHeader, id)

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		if recorder.status == 0 {
			recorder.status = http.StatusOK
		}

		logger.Info("request served",
			zap.String("op", "server.access"),
			zap.String("requestId", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Int("bytes", recorder.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
