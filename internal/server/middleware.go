package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/parley-chat/parley-go/internal/metrics"
)

// maxQueryLogLen is the maximum length for logged queries before truncation.
const maxQueryLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 100 * time.Millisecond

// LoggingMiddleware returns middleware that logs all operations with
// timing and records them into the metrics collector. Slow requests
// (>100ms) are logged at WARN level. Queries are truncated to 200
// characters.
func LoggingMiddleware(logger *slog.Logger, collector *metrics.Collector) graphql.OperationMiddleware {
	return func(ctx context.Context, next graphql.OperationHandler) graphql.ResponseHandler {
		start := time.Now()
		oc := graphql.GetOperationContext(ctx)

		name := oc.OperationName
		if name == "" && oc.Operation != nil {
			name = string(oc.Operation.Operation)
		}

		handler := next(ctx)

		return func(ctx context.Context) *graphql.Response {
			resp := handler(ctx)
			duration := time.Since(start)

			collector.RecordTiming(name, duration)

			attrs := []any{
				"operation", name,
				"duration_ms", duration.Milliseconds(),
				"query", truncate(oc.RawQuery, maxQueryLogLen),
			}

			switch {
			case resp != nil && len(resp.Errors) > 0:
				attrs = append(attrs, "error", resp.Errors[0].Message)
				logger.Error("request failed", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return resp
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
