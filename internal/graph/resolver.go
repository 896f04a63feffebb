// Package graph provides GraphQL resolvers for Parley.
// This file will not be regenerated automatically.
// It serves as dependency injection for your app.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parley-chat/parley-go/internal/bus"
	"github.com/parley-chat/parley-go/internal/config"
	"github.com/parley-chat/parley-go/internal/db"
	"github.com/parley-chat/parley-go/internal/metrics"
	"github.com/parley-chat/parley-go/internal/service"
)

// Resolver is the root resolver with all dependencies.
type Resolver struct {
	db            *db.Client
	bus           bus.Bus
	conversations *service.ConversationService
	messages      *service.MessageService
	users         *service.UserService
	cfg           config.Config
	metrics       *metrics.Collector
	logger        *slog.Logger
}

// NewResolver creates a new resolver with all dependencies.
func NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Create metrics collector for runtime statistics
	mc := metrics.NewCollector()

	// Connect to database
	dbClient, err := db.NewClient(ctx, db.Config{URL: cfg.DatabaseURL}, logger)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if err := dbClient.InitSchema(ctx); err != nil {
		dbClient.Close(ctx)
		return nil, err
	}

	// Select the event bus implementation
	var eventBus bus.Bus
	switch cfg.EventBus {
	case config.EventBusNATS:
		natsBus, err := bus.NewNATSBus(cfg.NATSURL, logger)
		if err != nil {
			dbClient.Close(ctx)
			return nil, err
		}
		eventBus = natsBus
	case config.EventBusMemory, "":
		eventBus = bus.NewMemoryBus(logger)
	default:
		dbClient.Close(ctx)
		return nil, fmt.Errorf("unknown event bus %q", cfg.EventBus)
	}

	return &Resolver{
		db:            dbClient,
		bus:           eventBus,
		conversations: service.NewConversationService(dbClient, eventBus, logger),
		messages:      service.NewMessageService(dbClient, eventBus, logger),
		users:         service.NewUserService(dbClient, logger),
		cfg:           cfg,
		metrics:       mc,
		logger:        logger,
	}, nil
}

// Metrics returns the collector so the server can record request
// timings into the same snapshot serverStats reports.
func (r *Resolver) Metrics() *metrics.Collector {
	return r.metrics
}

// Close closes all connections.
func (r *Resolver) Close(ctx context.Context) error {
	if natsBus, ok := r.bus.(*bus.NATSBus); ok {
		natsBus.Close()
	}
	if r.db != nil {
		return r.db.Close(ctx)
	}
	return nil
}

// WipeData deletes all data from the database. Use for testing only.
func (r *Resolver) WipeData(ctx context.Context) error {
	return r.db.WipeData(ctx)
}
