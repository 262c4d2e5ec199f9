// Package store holds the canonical org chart tree.
//
// The tree is never mutated in place. Mutations copy the ancestor chain of
// the node they touch and swap the new root slice in under a write lock, so a
// reader holding an older snapshot keeps seeing a consistent tree. Every
// successful mutation is followed by a save through the persistence gateway;
// a failed save is reported to the notification sink and leaves the in-memory
// tree authoritative. Only unsaved mutations are written on Close, so a
// read-only session never touches the slot.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/events"
	"github.com/orgchartd/orgchart-service/internal/idgen"
	"github.com/orgchartd/orgchart-service/internal/persistence"
)

var (
	ErrMissingDependency  = errors.New("store: missing dependency")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrInvalidType        = errors.New("invalid department type")
	ErrInvalidParent      = errors.New("invalid parent department")
	ErrIDCollision        = errors.New("could not generate a unique id")
	ErrClosed             = errors.New("store closed")
)

// Dependencies bundles collaborators for the store.
type Dependencies struct {
	Gateway    persistence.Gateway
	IDs        idgen.Generator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// Store owns the org chart and serves queries and mutations on it.
type Store struct {
	mu     sync.RWMutex
	roots  []*domain.Department
	closed bool
	// version counts mutations; saved is the highest version the gateway holds.
	version uint64
	saved   uint64

	// saveMu orders writes to the gateway; each write snapshots the latest tree.
	saveMu sync.Mutex

	gateway    persistence.Gateway
	ids        idgen.Generator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// New validates deps and returns a store holding only the CEO root.
func New(deps Dependencies) (*Store, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("%w: persistence gateway", ErrMissingDependency)
	}
	if deps.IDs == nil {
		return nil, fmt.Errorf("%w: id generator", ErrMissingDependency)
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.NopDispatcher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Store{
		roots:      []*domain.Department{domain.NewRoot()},
		gateway:    deps.Gateway,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.Named("store"),
	}, nil
}

// Open constructs the store and loads the persisted tree. A load failure is
// not fatal: the store falls back to a CEO-only tree and the error is returned
// alongside it.
func Open(ctx context.Context, deps Dependencies) (*Store, error) {
	s, err := New(deps)
	if err != nil {
		return nil, err
	}
	return s, s.Load(ctx)
}

// Close writes mutations that have not reached the gateway yet. Later
// mutations fail with ErrClosed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	dirty := s.version != s.saved
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.Save(ctx)
}

// Dirty reports whether a mutation has not been written yet.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version != s.saved
}

// Departments returns the root-level departments. The result is a snapshot
// and must not be modified.
func (s *Store) Departments() []*domain.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roots
}

// Root returns the CEO node, appending a fresh one if the tree lacks it.
func (s *Store) Root() *domain.Department {
	s.mu.RLock()
	root := findRoot(s.roots)
	s.mu.RUnlock()
	if root != nil {
		return root
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if root := findRoot(s.roots); root != nil {
		return root
	}
	root = domain.NewRoot()
	s.roots = withRoot(s.roots, root)
	s.logger.Warn("ceo root missing; synthesized a new one")
	return root
}

func (s *Store) snapshot() []*domain.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roots
}

func findRoot(roots []*domain.Department) *domain.Department {
	for _, d := range roots {
		if d.IsRoot() {
			return d
		}
	}
	return nil
}

// withRoot adds root to roots. It goes first when another node already
// carries the root id, so depth-first lookups of that id reach the CEO.
func withRoot(roots []*domain.Department, root *domain.Department) []*domain.Department {
	out := make([]*domain.Department, 0, len(roots)+1)
	if containsID(roots, root.ID) {
		out = append(out, root)
		return append(out, roots...)
	}
	out = append(out, roots...)
	return append(out, root)
}
