package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/config"
)

// ErrSlotNotFound is returned by Load when nothing has been saved yet.
var ErrSlotNotFound = errors.New("persistence: slot not found")

// Gateway reads and writes the serialized org chart in one named slot.
type Gateway interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Ping(ctx context.Context) error
	Name() string
}

// Resources owns the connections opened for a gateway.
type Resources struct {
	Postgres *Postgres
	Redis    *Redis
}

// Close releases every connection.
func (r *Resources) Close() {
	if r == nil {
		return
	}
	r.Postgres.Close()
	r.Redis.Close()
}

// NewGateway builds the backend selected by cfg.Storage.Backend. The Redis
// client is opened whenever the backend or the notification channel needs it.
func NewGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Gateway, *Resources, error) {
	res := &Resources{}
	if cfg.Storage.Backend == config.StorageBackendRedis || cfg.Notification.RedisChannel != "" {
		res.Redis = NewRedis(cfg.Redis, logger)
	}

	switch cfg.Storage.Backend {
	case config.StorageBackendFile:
		gw, err := NewFileGateway(cfg.Storage.DataDir, cfg.Storage.Slot)
		if err != nil {
			res.Close()
			return nil, nil, err
		}
		return gw, res, nil
	case config.StorageBackendMemory:
		return NewMemoryGateway(cfg.Storage.Slot), res, nil
	case config.StorageBackendRedis:
		return NewRedisGateway(res.Redis.Client, cfg.Storage.RedisKeyPrefix, cfg.Storage.Slot), res, nil
	case config.StorageBackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			res.Close()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		res.Postgres = pg
		if pg.PoolHandle() == nil {
			res.Close()
			return nil, nil, errors.New("postgres storage requires POSTGRES_DSN")
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				res.Close()
				return nil, nil, err
			}
		}
		return NewPostgresGateway(pg.PoolHandle(), cfg.Storage.Slot), res, nil
	default:
		res.Close()
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
