package middleware

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/metrics"
)

// LoggingInterceptor logs every call with its duration and records it in
// the command metrics. Run it after the metadata extractor so the request
// id is available.
func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	metrics.Observe("grpc", methodName(info.FullMethod), start, err)

	client := GetClientInfoFromContext(ctx)
	entry := log.WithFields(log.Fields{
		"method":     info.FullMethod,
		"duration":   time.Since(start),
		"request_id": client.RequestID,
		"ip":         client.IPAddress,
	})
	switch {
	case err == nil:
		entry.Info("request completed")
	case errs.IsValidation(err) || errs.IsNotFound(err):
		entry.WithError(err).Warn("request rejected")
	default:
		entry.WithError(err).Error("request failed")
	}
	return resp, err
}

// methodName strips the service prefix from "/pkg.Service/Method".
func methodName(full string) string {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			return full[i+1:]
		}
	}
	return full
}
