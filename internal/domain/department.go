package domain

import "strings"

// RootID is the fixed identifier of the CEO node so it can be located without search.
const RootID = "ceo-root-node"

// DepartmentType enumerates the levels of the hierarchy.
type DepartmentType string

const (
	DepartmentTypeCEO         DepartmentType = "CEO"
	DepartmentTypeDirectorate DepartmentType = "DIRECTORATE"
	DepartmentTypeManagement  DepartmentType = "MANAGEMENT"
	DepartmentTypeSector      DepartmentType = "SECTOR"
)

// DepartmentTypes lists every kind from the top of the hierarchy down.
var DepartmentTypes = []DepartmentType{
	DepartmentTypeCEO,
	DepartmentTypeDirectorate,
	DepartmentTypeManagement,
	DepartmentTypeSector,
}

var departmentTypeLabels = map[DepartmentType]string{
	DepartmentTypeCEO:         "CEO",
	DepartmentTypeDirectorate: "Directorate",
	DepartmentTypeManagement:  "Management",
	DepartmentTypeSector:      "Sector",
}

var departmentParentTypes = map[DepartmentType]DepartmentType{
	DepartmentTypeDirectorate: DepartmentTypeCEO,
	DepartmentTypeManagement:  DepartmentTypeDirectorate,
	DepartmentTypeSector:      DepartmentTypeManagement,
}

// ParseDepartmentType resolves a kind case-insensitively.
func ParseDepartmentType(raw string) (DepartmentType, bool) {
	t := DepartmentType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// Valid reports whether t is one of the four known kinds.
func (t DepartmentType) Valid() bool {
	_, ok := departmentTypeLabels[t]
	return ok
}

// Label returns the display label of the kind.
func (t DepartmentType) Label() string {
	if label, ok := departmentTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// ParentType returns the kind a parent must have. CEO has none.
func (t DepartmentType) ParentType() (DepartmentType, bool) {
	parent, ok := departmentParentTypes[t]
	return parent, ok
}

// ChildTypes returns the kinds allowed directly below t.
func (t DepartmentType) ChildTypes() []DepartmentType {
	var out []DepartmentType
	for _, candidate := range DepartmentTypes {
		if parent, ok := candidate.ParentType(); ok && parent == t {
			out = append(out, candidate)
		}
	}
	return out
}

// Department is a node of the org chart. A department owns its children and
// activities; ParentID is only a lookup key back to the owner.
//
// Nodes reachable from a published tree are shared between snapshots and must
// be treated as read-only.
type Department struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        DepartmentType `json:"type"`
	Activities  []Activity     `json:"activities"`
	Children    []*Department  `json:"children"`
	ParentID    *string        `json:"parentId"`
}

// NewRoot builds an empty CEO root.
func NewRoot() *Department {
	return &Department{
		ID:         RootID,
		Name:       "CEO",
		Type:       DepartmentTypeCEO,
		Activities: []Activity{},
		Children:   []*Department{},
	}
}

// IsRoot reports whether d is the CEO root.
func (d *Department) IsRoot() bool {
	return d != nil && d.ID == RootID && d.Type == DepartmentTypeCEO
}

// ParentIDValue returns the parent id or an empty string for root-level nodes.
func (d *Department) ParentIDValue() string {
	if d == nil || d.ParentID == nil {
		return ""
	}
	return *d.ParentID
}

// Clone returns a shallow copy: the slices are copied, the children they
// point to are shared.
func (d *Department) Clone() *Department {
	cp := *d
	cp.Activities = append(make([]Activity, 0, len(d.Activities)+1), d.Activities...)
	cp.Children = append(make([]*Department, 0, len(d.Children)+1), d.Children...)
	if d.ParentID != nil {
		parent := *d.ParentID
		cp.ParentID = &parent
	}
	return &cp
}

// DepartmentEntry is a flattened view of a department with its distance from the root.
type DepartmentEntry struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Type  DepartmentType `json:"type"`
	Depth int            `json:"depth"`
}
