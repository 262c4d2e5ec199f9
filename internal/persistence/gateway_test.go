package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/config"
)

func exerciseGateway(t *testing.T, gw Gateway) {
	t.Helper()
	ctx := context.Background()

	_, err := gw.Load(ctx)
	require.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, gw.Save(ctx, []byte(`[{"id":"a"}]`)))
	got, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, gw.Save(ctx, []byte(`[{"id":"b"}]`)))
	got, err = gw.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(got))

	require.NoError(t, gw.Ping(ctx))
}

func TestFileGateway(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	gw, err := NewFileGateway(dir, "organograma-dados")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "organograma-dados.json"), gw.Path())

	exerciseGateway(t, gw)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileGatewayRejectsBadSlot(t *testing.T) {
	_, err := NewFileGateway(t.TempDir(), "../escape")
	require.Error(t, err)
	_, err = NewFileGateway(t.TempDir(), " ")
	require.Error(t, err)
}

func TestMemoryGateway(t *testing.T) {
	gw := NewMemoryGateway("slot")
	exerciseGateway(t, gw)
	assert.Equal(t, 2, gw.Saves())

	boom := errors.New("quota exceeded")
	gw.FailSaves(boom)
	require.ErrorIs(t, gw.Save(context.Background(), []byte("[]")), boom)
	assert.JSONEq(t, `[{"id":"b"}]`, string(gw.Payload()))

	gw.FailLoads(boom)
	_, err := gw.Load(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRedisGateway(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gw := NewRedisGateway(client, "orgchart:", "organograma-dados")
	assert.Equal(t, "orgchart:organograma-dados", gw.Key())
	exerciseGateway(t, gw)

	raw, err := mr.Get("orgchart:organograma-dados")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, raw)
}

func TestRedisGatewayUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	gw := NewRedisGateway(client, "", "slot")
	_, err = gw.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotNotFound)
}

func TestNewGatewaySelectsBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Backend: config.StorageBackendFile,
		Slot:    "chart",
		DataDir: t.TempDir(),
	}}
	gw, res, err := NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, "file", gw.Name())

	cfg.Storage.Backend = config.StorageBackendMemory
	gw, res, err = NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, "memory", gw.Name())

	mr := miniredis.RunT(t)
	cfg.Storage.Backend = config.StorageBackendRedis
	cfg.Redis.Addr = mr.Addr()
	gw, res, err = NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, "redis", gw.Name())
	require.NotNil(t, res.Redis)
}

func TestNewGatewayPostgresRequiresDSN(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendPostgres, Slot: "chart"}}
	_, _, err := NewGateway(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestPostgresGatewayIntegration(t *testing.T) {
	dsn := os.Getenv("ORGCHART_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ORGCHART_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	defer pg.Close()

	_, err = pg.PoolHandle().Exec(ctx, `
        CREATE TABLE IF NOT EXISTS org_chart_slots (
            slot TEXT PRIMARY KEY, payload JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`)
	require.NoError(t, err)
	_, err = pg.PoolHandle().Exec(ctx, `DELETE FROM org_chart_slots WHERE slot=$1`, "gateway-test")
	require.NoError(t, err)

	exerciseGateway(t, NewPostgresGateway(pg.PoolHandle(), "gateway-test"))
}
