package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/events"
)

const (
	defaultDepartmentName = "New Department"
	defaultActivityName   = "New Activity"

	maxIDAttempts = 8
)

// DepartmentInput carries the caller-supplied fields of a new department.
type DepartmentInput struct {
	Name        string
	Description string
	Type        domain.DepartmentType
}

// ActivityInput carries the caller-supplied fields of a new activity.
type ActivityInput struct {
	Name         string
	Description  string
	FlowchartURL string
}

// AddDepartment appends a new department below parentID and returns its id.
//
// A blank name gets a placeholder and a blank type means SECTOR. A
// DIRECTORATE without parentID hangs off the CEO root. The parent must exist
// and be of the kind directly above the new department; CEO nodes cannot be
// added.
func (s *Store) AddDepartment(ctx context.Context, input DepartmentInput, parentID string) (string, error) {
	kind := input.Type
	if kind == "" {
		kind = domain.DepartmentTypeSector
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, input.Type)
	}
	wantParent, hasParent := kind.ParentType()
	if !hasParent {
		return "", fmt.Errorf("%w: the %s root already exists", ErrInvalidParent, kind.Label())
	}

	parentID = strings.TrimSpace(parentID)
	if parentID == "" && kind == domain.DepartmentTypeDirectorate {
		parentID = domain.RootID
	}
	if parentID == "" {
		return "", fmt.Errorf("%w: a %s must be linked to a %s", ErrInvalidParent, kind.Label(), wantParent.Label())
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultDepartmentName
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	parent, ok := findDepartment(s.roots, parentID)
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: parent %s", ErrDepartmentNotFound, parentID)
	}
	if parent.Type != wantParent {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: a %s must be linked to a %s, %s is a %s",
			ErrInvalidParent, kind.Label(), wantParent.Label(), parentID, parent.Type.Label())
	}
	id, err := s.freshIDLocked()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	owner := parentID
	dept := &domain.Department{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Type:        kind,
		Activities:  []domain.Activity{},
		Children:    []*domain.Department{},
		ParentID:    &owner,
	}
	next, _ := replaceOnPath(s.roots, parentID, func(p *domain.Department) {
		p.Children = append(p.Children, dept)
	})
	s.roots = next
	s.version++
	s.mu.Unlock()

	s.logger.Debug("department added",
		zap.String("department_id", id),
		zap.String("parent_id", parentID),
		zap.String("type", string(kind)))
	s.publish(ctx, events.Event{
		Type:         events.EventDepartmentAdded,
		Level:        events.LevelInfo,
		Title:        "Item added",
		Message:      fmt.Sprintf("%s: %q was added successfully.", kind.Label(), name),
		DepartmentID: id,
	})
	s.autoSave(ctx)
	return id, nil
}

// AddActivity appends a new activity to departmentID and returns its id. An
// unknown department yields ErrDepartmentNotFound and leaves the tree as is.
func (s *Store) AddActivity(ctx context.Context, departmentID string, input ActivityInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultActivityName
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if _, ok := findDepartment(s.roots, departmentID); !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDepartmentNotFound, departmentID)
	}
	id, err := s.freshIDLocked()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	activity := domain.Activity{
		ID:           id,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		FlowchartURL: strings.TrimSpace(input.FlowchartURL),
	}
	next, _ := replaceOnPath(s.roots, departmentID, func(d *domain.Department) {
		d.Activities = append(d.Activities, activity)
	})
	s.roots = next
	s.version++
	s.mu.Unlock()

	s.logger.Debug("activity added",
		zap.String("activity_id", id),
		zap.String("department_id", departmentID))
	s.publish(ctx, events.Event{
		Type:         events.EventActivityAdded,
		Level:        events.LevelInfo,
		Title:        "Activity added",
		Message:      fmt.Sprintf("The activity %q was added successfully.", name),
		DepartmentID: departmentID,
		ActivityID:   id,
	})
	s.autoSave(ctx)
	return id, nil
}

// freshIDLocked asks the generator for an id nobody in the tree uses yet.
func (s *Store) freshIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.ids.NewID()
		if id == "" || id == domain.RootID || containsID(s.roots, id) {
			s.logger.Warn("id generator returned a used id", zap.String("id", id))
			continue
		}
		return id, nil
	}
	return "", ErrIDCollision
}

// replaceOnPath returns a copy of nodes in which the first department with
// targetID (depth-first) has been cloned and passed to apply. Every ancestor
// of the target is cloned too; all other subtrees are shared with nodes.
func replaceOnPath(nodes []*domain.Department, targetID string, apply func(*domain.Department)) ([]*domain.Department, bool) {
	for i, dept := range nodes {
		if dept.ID == targetID {
			cp := dept.Clone()
			apply(cp)
			return withReplaced(nodes, i, cp), true
		}
		if children, ok := replaceOnPath(dept.Children, targetID, apply); ok {
			cp := dept.Clone()
			cp.Children = children
			return withReplaced(nodes, i, cp), true
		}
	}
	return nodes, false
}

func withReplaced(nodes []*domain.Department, i int, dept *domain.Department) []*domain.Department {
	out := make([]*domain.Department, len(nodes), len(nodes)+1)
	copy(out, nodes)
	out[i] = dept
	return out
}
