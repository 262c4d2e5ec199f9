package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/config"
	"github.com/orgchartd/orgchart-service/internal/events"
	"github.com/orgchartd/orgchart-service/internal/idgen"
	"github.com/orgchartd/orgchart-service/internal/persistence"
	"github.com/orgchartd/orgchart-service/internal/service"
	"github.com/orgchartd/orgchart-service/internal/store"
)

// Runtime is the wired store plus everything it owns.
type Runtime struct {
	Gateway    persistence.Gateway
	Dispatcher events.Dispatcher
	Store      *store.Store

	resources *persistence.Resources
	logger    *zap.Logger
}

// Open connects the configured storage backend, registers the notification
// sinks and loads the org chart. A load failure leaves a usable CEO-only
// store; it is logged and reported, not returned.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	gateway, resources, err := persistence.NewGateway(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, resources.Redis.ClientHandle())
	notifications.RegisterHandlers()

	s, err := store.New(store.Dependencies{
		Gateway:    gateway,
		IDs:        idgen.NewUUID(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		resources.Close()
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		logger.Warn("starting with an empty org chart", zap.Error(err))
	}

	logger.Info("org chart ready",
		zap.String("storage", gateway.Name()),
		zap.String("slot", cfg.Storage.Slot),
		zap.Int("departments", s.Stats().Departments))

	return &Runtime{
		Gateway:    gateway,
		Dispatcher: dispatcher,
		Store:      s,
		resources:  resources,
		logger:     logger,
	}, nil
}

// Close writes any unsaved mutations and releases connections.
func (r *Runtime) Close(ctx context.Context) {
	if r.Store.Dirty() {
		r.logger.Info("writing unsaved org chart changes", zap.String("storage", r.Gateway.Name()))
	}
	if err := r.Store.Close(ctx); err != nil {
		r.logger.Error("final save failed", zap.Error(err))
	}
	r.resources.Close()
}
