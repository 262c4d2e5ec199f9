package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/events"
	"github.com/orgchartd/orgchart-service/internal/persistence"
)

// Load replaces the in-memory tree with the persisted one. An empty slot
// yields a CEO-only tree. Unreadable or malformed data also yields a CEO-only
// tree, but the failure is reported and returned.
func (s *Store) Load(ctx context.Context) error {
	payload, err := s.gateway.Load(ctx)
	if errors.Is(err, persistence.ErrSlotNotFound) {
		s.replace([]*domain.Department{domain.NewRoot()})
		s.logger.Info("no saved org chart; starting with the ceo root", zap.String("gateway", s.gateway.Name()))
		return nil
	}
	if err == nil {
		var roots []*domain.Department
		roots, err = Decode(payload)
		if err == nil {
			s.replace(roots)
			s.logger.Info("org chart loaded", zap.String("gateway", s.gateway.Name()), zap.Int("bytes", len(payload)))
			s.publish(ctx, events.Event{
				Type:    events.EventTreeLoaded,
				Level:   events.LevelInfo,
				Title:   "Data loaded",
				Message: "The org chart data was loaded successfully.",
			})
			return nil
		}
	}

	s.replace([]*domain.Department{domain.NewRoot()})
	s.logger.Error("load org chart", zap.String("gateway", s.gateway.Name()), zap.Error(err))
	s.publish(ctx, events.Event{
		Type:    events.EventTreeLoadFailed,
		Level:   events.LevelError,
		Title:   "Error loading data",
		Message: "An error occurred while loading the org chart data.",
		Error:   err.Error(),
	})
	return fmt.Errorf("load org chart: %w", err)
}

// Save writes the whole tree through the gateway. On failure the in-memory
// tree is left untouched.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	err := s.write(ctx)
	if err != nil {
		s.logger.Error("save org chart", zap.String("gateway", s.gateway.Name()), zap.Error(err))
		s.publish(ctx, events.Event{
			Type:    events.EventTreeSaveFailed,
			Level:   events.LevelError,
			Title:   "Error saving data",
			Message: "An error occurred while saving the org chart data.",
			Error:   err.Error(),
		})
		return fmt.Errorf("save org chart: %w", err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventTreeSaved,
		Level:   events.LevelInfo,
		Title:   "Data saved",
		Message: "The org chart data was saved successfully.",
	})
	return nil
}

// autoSave runs after a mutation; its failure is already reported by Save.
func (s *Store) autoSave(ctx context.Context) {
	_ = s.Save(ctx)
}

func (s *Store) write(ctx context.Context) error {
	s.mu.RLock()
	roots, version := s.roots, s.version
	s.mu.RUnlock()

	payload, err := json.Marshal(roots)
	if err != nil {
		return fmt.Errorf("encode org chart: %w", err)
	}
	if err := s.gateway.Save(ctx, payload); err != nil {
		return err
	}

	s.mu.Lock()
	if version > s.saved {
		s.saved = version
	}
	s.mu.Unlock()
	return nil
}

// Export writes the whole tree as indented JSON.
func (s *Store) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.snapshot())
}

// Decode parses a persisted document. Missing slices become empty ones and a
// CEO root is added when the document has none.
func Decode(payload []byte) ([]*domain.Department, error) {
	var roots []*domain.Department
	if err := json.Unmarshal(payload, &roots); err != nil {
		return nil, fmt.Errorf("decode org chart: %w", err)
	}
	out := make([]*domain.Department, 0, len(roots)+1)
	for _, d := range roots {
		if d == nil {
			continue
		}
		normalize(d)
		out = append(out, d)
	}
	if findRoot(out) == nil {
		out = withRoot(out, domain.NewRoot())
	}
	return out, nil
}

func normalize(d *domain.Department) {
	if d.Activities == nil {
		d.Activities = []domain.Activity{}
	}
	children := make([]*domain.Department, 0, len(d.Children))
	for _, c := range d.Children {
		if c == nil {
			continue
		}
		normalize(c)
		children = append(children, c)
	}
	d.Children = children
}

// replace swaps in a loaded tree. It counts as clean: a fallback tree from a
// failed load is only written once a mutation follows.
func (s *Store) replace(roots []*domain.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = roots
	s.saved = s.version
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("notification handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
