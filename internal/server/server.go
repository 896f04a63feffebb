// Package server assembles the GraphQL HTTP server with lifecycle
// management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gorilla/websocket"
	"github.com/parley-chat/parley-go/internal/auth"
	"github.com/parley-chat/parley-go/internal/graph"
	"github.com/vektah/gqlparser/v2/ast"
)

// Server wraps the HTTP server exposing the GraphQL API, the
// playground, and the health endpoint.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New assembles the GraphQL server around the root resolver. jwtSecret
// is used to verify bearer tokens on HTTP requests and websocket
// connection_init payloads.
func New(port string, resolver *graph.Resolver, jwtSecret string, logger *slog.Logger) *Server {
	srv := handler.New(graph.NewExecutableSchema(graph.Config{
		Resolvers: resolver,
	}))

	// Add transports - order matters: WebSocket first for subscription upgrades
	srv.AddTransport(transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		InitFunc:              auth.WebsocketInit(jwtSecret, logger),
		KeepAlivePingInterval: 10 * time.Second,
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	// Add standard extensions
	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.Introspection{})
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})

	// Request logging and timing
	srv.AroundOperations(LoggingMiddleware(logger, resolver.Metrics()))

	// Setup routes
	mux := http.NewServeMux()
	mux.Handle("/playground", playground.Handler("Parley GraphQL", "/query"))
	mux.Handle("/query", auth.Middleware(jwtSecret, logger)(srv))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &Server{
		http: &http.Server{
			Addr:         ":" + port,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second, // Long for open subscriptions
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe starts serving and blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("GraphQL endpoint available", "url", fmt.Sprintf("http://localhost%s/query", s.http.Addr))
	s.logger.Info("GraphQL playground available", "url", fmt.Sprintf("http://localhost%s/playground", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server...")
	return s.http.Shutdown(ctx)
}
