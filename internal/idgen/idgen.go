package idgen

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Generator produces identifiers that are unique within a store.
type Generator interface {
	NewID() string
}

// UUID generates random v4 UUIDs.
type UUID struct{}

// NewUUID returns the default generator.
func NewUUID() UUID {
	return UUID{}
}

// NewID implements Generator.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence hands out prefix-1, prefix-2, ... and is mostly useful in tests.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence creates a sequence generator.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID implements Generator.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.prefix + "-" + strconv.Itoa(s.next)
}
