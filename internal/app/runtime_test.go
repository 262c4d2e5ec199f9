package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/config"
	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/store"
)

func fileConfig(dir string) *config.Config {
	return &config.Config{Storage: config.StorageConfig{
		Backend: config.StorageBackendFile,
		Slot:    "organograma-dados",
		DataDir: dir,
	}}
}

func TestOpenPersistsAcrossRuntimes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	rt, err := Open(ctx, fileConfig(dir), zap.NewNop())
	require.NoError(t, err)
	id, err := rt.Store.AddDepartment(ctx, store.DepartmentInput{Name: "Fin", Type: domain.DepartmentTypeDirectorate}, "")
	require.NoError(t, err)
	rt.Close(ctx)

	_, err = os.Stat(filepath.Join(dir, "organograma-dados.json"))
	require.NoError(t, err)

	rt, err = Open(ctx, fileConfig(dir), zap.NewNop())
	require.NoError(t, err)
	defer rt.Close(ctx)
	dept, ok := rt.Store.FindDepartmentByID(id)
	require.True(t, ok)
	assert.Equal(t, "Fin", dept.Name)
}

func TestOpenSurvivesCorruptSlot(t *testing.T) {
	dir := t.TempDir()
	slot := filepath.Join(dir, "organograma-dados.json")
	require.NoError(t, os.WriteFile(slot, []byte("garbage"), 0o644))

	rt, err := Open(context.Background(), fileConfig(dir), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, rt.Store.ListAllDepartments(), 1)
	rt.Close(context.Background())

	raw, err := os.ReadFile(slot)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(raw))
}
