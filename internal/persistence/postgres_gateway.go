package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGateway keeps the slot as one row of org_chart_slots.
type PostgresGateway struct {
	pool *pgxpool.Pool
	slot string
}

// NewPostgresGateway builds the gateway on an open pool.
func NewPostgresGateway(pool *pgxpool.Pool, slot string) *PostgresGateway {
	return &PostgresGateway{pool: pool, slot: slot}
}

// Name implements Gateway.
func (g *PostgresGateway) Name() string { return "postgres" }

// Load implements Gateway.
func (g *PostgresGateway) Load(ctx context.Context) ([]byte, error) {
	const query = `SELECT payload FROM org_chart_slots WHERE slot=$1`
	var payload []byte
	if err := g.pool.QueryRow(ctx, query, g.slot).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load slot %s: %w", g.slot, err)
	}
	return payload, nil
}

// Save implements Gateway.
func (g *PostgresGateway) Save(ctx context.Context, payload []byte) error {
	const query = `
        INSERT INTO org_chart_slots (slot, payload, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	if _, err := g.pool.Exec(ctx, query, g.slot, string(payload)); err != nil {
		return fmt.Errorf("save slot %s: %w", g.slot, err)
	}
	return nil
}

// Ping implements Gateway.
func (g *PostgresGateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}
