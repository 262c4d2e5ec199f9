package persistence

import (
	"context"
	"sync"
)

// MemoryGateway keeps the slot in process memory. Failures can be injected
// to exercise error paths.
type MemoryGateway struct {
	mu      sync.Mutex
	slot    string
	payload []byte
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryGateway returns an empty in-memory slot.
func NewMemoryGateway(slot string) *MemoryGateway {
	return &MemoryGateway{slot: slot}
}

// Name implements Gateway.
func (g *MemoryGateway) Name() string { return "memory" }

// Load implements Gateway.
func (g *MemoryGateway) Load(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if g.payload == nil {
		return nil, ErrSlotNotFound
	}
	return append([]byte(nil), g.payload...), nil
}

// Save implements Gateway.
func (g *MemoryGateway) Save(ctx context.Context, payload []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.payload = append([]byte(nil), payload...)
	g.saves++
	return nil
}

// Ping implements Gateway.
func (g *MemoryGateway) Ping(context.Context) error { return nil }

// Payload returns the last saved document.
func (g *MemoryGateway) Payload() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]byte(nil), g.payload...)
}

// Put replaces the stored document directly.
func (g *MemoryGateway) Put(payload []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payload = append([]byte(nil), payload...)
}

// Saves counts successful writes.
func (g *MemoryGateway) Saves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// FailLoads makes every Load return err until cleared with nil.
func (g *MemoryGateway) FailLoads(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadErr = err
}

// FailSaves makes every Save return err until cleared with nil.
func (g *MemoryGateway) FailSaves(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveErr = err
}
