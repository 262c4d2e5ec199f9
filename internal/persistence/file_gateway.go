package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileGateway stores the slot as <dir>/<slot>.json.
type FileGateway struct {
	path string
}

// NewFileGateway creates the data directory if needed.
func NewFileGateway(dir, slot string) (*FileGateway, error) {
	if strings.TrimSpace(slot) == "" {
		return nil, errors.New("file gateway: empty slot name")
	}
	if strings.ContainsAny(slot, `/\`) {
		return nil, fmt.Errorf("file gateway: invalid slot name %q", slot)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileGateway{path: filepath.Join(dir, slot+".json")}, nil
}

// Name implements Gateway.
func (g *FileGateway) Name() string { return "file" }

// Path returns the file backing the slot.
func (g *FileGateway) Path() string { return g.path }

// Load implements Gateway.
func (g *FileGateway) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g.path, err)
	}
	return payload, nil
}

// Save writes to a temp file and renames it over the slot so readers never
// see a half-written document.
func (g *FileGateway) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", g.path, err)
	}
	return nil
}

// Ping checks that the data directory is still there.
func (g *FileGateway) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(filepath.Dir(g.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(g.path))
	}
	return nil
}
