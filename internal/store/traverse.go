package store

import "github.com/orgchartd/orgchart-service/internal/domain"

// visitFunc is called for every department in depth-first order. path runs
// from the top-level ancestor to dept inclusive and is only valid during the
// call. Returning true stops the walk.
type visitFunc func(dept *domain.Department, depth int, path []*domain.Department) bool

// walk visits a node before its children and earlier siblings before later
// ones. It reports whether visit stopped the walk.
func walk(nodes []*domain.Department, visit visitFunc) bool {
	path := make([]*domain.Department, 0, 8)
	return walkLevel(nodes, 0, path, visit)
}

func walkLevel(nodes []*domain.Department, depth int, path []*domain.Department, visit visitFunc) bool {
	for _, dept := range nodes {
		path = append(path[:depth], dept)
		if visit(dept, depth, path) {
			return true
		}
		if walkLevel(dept.Children, depth+1, path, visit) {
			return true
		}
	}
	return false
}

func findDepartment(nodes []*domain.Department, id string) (*domain.Department, bool) {
	var found *domain.Department
	walk(nodes, func(dept *domain.Department, _ int, _ []*domain.Department) bool {
		if dept.ID == id {
			found = dept
			return true
		}
		return false
	})
	return found, found != nil
}

func findActivity(nodes []*domain.Department, activityID string) (*domain.Department, domain.Activity, bool) {
	var (
		owner    *domain.Department
		activity domain.Activity
	)
	walk(nodes, func(dept *domain.Department, _ int, _ []*domain.Department) bool {
		for _, a := range dept.Activities {
			if a.ID == activityID {
				owner, activity = dept, a
				return true
			}
		}
		return false
	})
	return owner, activity, owner != nil
}

// containsID reports whether any department or activity already uses id.
func containsID(nodes []*domain.Department, id string) bool {
	return walk(nodes, func(dept *domain.Department, _ int, _ []*domain.Department) bool {
		if dept.ID == id {
			return true
		}
		for _, a := range dept.Activities {
			if a.ID == id {
				return true
			}
		}
		return false
	})
}

// FindDepartmentByID searches the whole tree for id.
func (s *Store) FindDepartmentByID(id string) (*domain.Department, bool) {
	return findDepartment(s.snapshot(), id)
}

// FindActivityByID searches every department's activities for id.
func (s *Store) FindActivityByID(id string) (domain.Activity, bool) {
	_, activity, ok := findActivity(s.snapshot(), id)
	return activity, ok
}

// FindDepartmentByActivityID returns the department that owns the activity.
func (s *Store) FindDepartmentByActivityID(activityID string) (*domain.Department, bool) {
	owner, _, ok := findActivity(s.snapshot(), activityID)
	return owner, ok
}

// FindPathToDepartment returns the departments from the root down to id,
// inclusive. The slice is empty when id is unknown.
func (s *Store) FindPathToDepartment(id string) []*domain.Department {
	result := []*domain.Department{}
	walk(s.snapshot(), func(dept *domain.Department, _ int, path []*domain.Department) bool {
		if dept.ID != id {
			return false
		}
		result = append(result, path...)
		return true
	})
	return result
}

// ListAllDepartments flattens the tree depth-first. The root has depth 0.
func (s *Store) ListAllDepartments() []domain.DepartmentEntry {
	return listDepartments(s.snapshot(), func(*domain.Department) bool { return true })
}

// ListDepartmentsByType flattens the tree keeping only departments of kind t.
func (s *Store) ListDepartmentsByType(t domain.DepartmentType) []domain.DepartmentEntry {
	return listDepartments(s.snapshot(), func(d *domain.Department) bool { return d.Type == t })
}

func listDepartments(nodes []*domain.Department, keep func(*domain.Department) bool) []domain.DepartmentEntry {
	entries := []domain.DepartmentEntry{}
	walk(nodes, func(dept *domain.Department, depth int, _ []*domain.Department) bool {
		if keep(dept) {
			entries = append(entries, domain.DepartmentEntry{
				ID:    dept.ID,
				Name:  dept.Name,
				Type:  dept.Type,
				Depth: depth,
			})
		}
		return false
	})
	return entries
}

// Stats counts the nodes of the tree.
type Stats struct {
	Departments int                           `json:"departments"`
	Activities  int                           `json:"activities"`
	ByType      map[domain.DepartmentType]int `json:"by_type"`
	MaxDepth    int                           `json:"max_depth"`
}

// Stats walks the tree once and counts departments per kind and activities.
func (s *Store) Stats() Stats {
	stats := Stats{ByType: make(map[domain.DepartmentType]int, len(domain.DepartmentTypes))}
	for _, t := range domain.DepartmentTypes {
		stats.ByType[t] = 0
	}
	walk(s.snapshot(), func(dept *domain.Department, depth int, _ []*domain.Department) bool {
		stats.Departments++
		stats.Activities += len(dept.Activities)
		stats.ByType[dept.Type]++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		return false
	})
	return stats
}
