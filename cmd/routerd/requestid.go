package main

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// withRequestID assigns every request a UUID, echoes it back on the
// response header, and logs it at Debug alongside the method and host.
// The ID is not added to the request itself, and next's own log lines do
// not carry it.
func withRequestID(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIDHeader, id)

		reqLogger := logger.With(zap.String("request_id", id), zap.String("method", req.Method), zap.String("host", req.Host))
		reqLogger.Debug("request received")

		next.ServeHTTP(w, req)
	})
}
