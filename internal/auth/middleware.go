package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/99designs/gqlgen/graphql/handler/transport"
)

// Middleware extracts the bearer token from the Authorization header
// and attaches the session to the request context. Requests without a
// valid token proceed unauthenticated; the resolvers decide whether
// that is acceptable per operation.
func Middleware(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			session, err := ParseToken(secret, token)
			if err != nil {
				logger.Debug("rejected bearer token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WebsocketInit reads the token from the graphql-transport-ws
// connection_init payload ("authorization" key) and attaches the
// session to the subscription's context. Connections without a valid
// token stay unauthenticated and are rejected per subscription.
func WebsocketInit(secret string, logger *slog.Logger) transport.WebsocketInitFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, initPayload transport.InitPayload) (context.Context, *transport.InitPayload, error) {
		token, ok := bearerToken(initPayload.Authorization())
		if !ok {
			return ctx, &initPayload, nil
		}

		session, err := ParseToken(secret, token)
		if err != nil {
			logger.Debug("rejected websocket token", "error", err)
			return ctx, &initPayload, nil
		}

		return WithSession(ctx, session), &initPayload, nil
	}
}

// bearerToken strips an optional "Bearer " prefix. A bare token is
// accepted too.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:]), true
	}
	return header, true
}
