package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/orgchartd/orgchart-service/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("department_type", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseDepartmentType(fl.Field().String())
		return ok
	})
}

// CreateDepartmentRequest payload. parentId is accepted as an alias of
// parent_id for clients that post the export document's field names.
type CreateDepartmentRequest struct {
	Name          string `json:"name" validate:"notblank,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	Type          string `json:"type" validate:"department_type"`
	ParentID      string `json:"parent_id" validate:"max=128"`
	ParentIDAlias string `json:"parentId" validate:"max=128"`
}

// Parent returns the requested parent id, preferring parent_id.
func (r CreateDepartmentRequest) Parent() string {
	if r.ParentID != "" {
		return r.ParentID
	}
	return r.ParentIDAlias
}

// CreateActivityRequest payload. flowchartURL is accepted as an alias of
// flowchart_url.
type CreateActivityRequest struct {
	Name              string `json:"name" validate:"notblank,max=200"`
	Description       string `json:"description" validate:"max=2000"`
	FlowchartURL      string `json:"flowchart_url" validate:"omitempty,url"`
	FlowchartURLAlias string `json:"flowchartURL" validate:"omitempty,url"`
}

// Flowchart returns the flowchart image URL, preferring flowchart_url.
func (r CreateActivityRequest) Flowchart() string {
	if r.FlowchartURL != "" {
		return r.FlowchartURL
	}
	return r.FlowchartURLAlias
}

// Validate checks the request against its struct tags and returns the
// offending fields keyed by JSON name.
func Validate(req any) (map[string]any, bool) {
	err := validate.Struct(req)
	if err == nil {
		return nil, true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]any{"request": err.Error()}, false
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[jsonName(fe.Field())] = fe.Tag()
	}
	return details, false
}

func jsonName(field string) string {
	switch field {
	case "ParentID":
		return "parent_id"
	case "ParentIDAlias":
		return "parentId"
	case "FlowchartURL":
		return "flowchart_url"
	case "FlowchartURLAlias":
		return "flowchartURL"
	}
	return strings.ToLower(field)
}

// CreatedResponse is returned by create endpoints.
type CreatedResponse struct {
	ID string `json:"id"`
}

// DepartmentRef is a compact department reference.
type DepartmentRef struct {
	ID   string                `json:"id"`
	Name string                `json:"name"`
	Type domain.DepartmentType `json:"type"`
}

// ActivityResponse response.
type ActivityResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	FlowchartURL string `json:"flowchart_url"`
}

// DepartmentResponse response.
type DepartmentResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Type        domain.DepartmentType `json:"type"`
	Label       string                `json:"label"`
	ParentID    *string               `json:"parent_id"`
	Activities  []ActivityResponse    `json:"activities"`
	Children    []DepartmentRef       `json:"children"`
}

// DepartmentNodeResponse is one node of the nested tree response.
type DepartmentNodeResponse struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Type        domain.DepartmentType    `json:"type"`
	ParentID    *string                  `json:"parent_id"`
	Activities  []ActivityResponse       `json:"activities"`
	Children    []DepartmentNodeResponse `json:"children"`
}

// ActivityDetailResponse pairs an activity with its owner and breadcrumb.
type ActivityDetailResponse struct {
	Activity   ActivityResponse `json:"activity"`
	Department DepartmentRef    `json:"department"`
	Path       []DepartmentRef  `json:"path"`
}

// NewDepartmentRef builds a reference.
func NewDepartmentRef(d *domain.Department) DepartmentRef {
	return DepartmentRef{ID: d.ID, Name: d.Name, Type: d.Type}
}

// NewDepartmentRefs converts a slice, never returning nil.
func NewDepartmentRefs(depts []*domain.Department) []DepartmentRef {
	out := make([]DepartmentRef, 0, len(depts))
	for _, d := range depts {
		out = append(out, NewDepartmentRef(d))
	}
	return out
}

// NewActivityResponse builds an activity response.
func NewActivityResponse(a domain.Activity) ActivityResponse {
	return ActivityResponse{ID: a.ID, Name: a.Name, Description: a.Description, FlowchartURL: a.FlowchartURL}
}

func newActivityResponses(activities []domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, NewActivityResponse(a))
	}
	return out
}

// NewTreeResponse converts the whole hierarchy, never returning nil slices.
func NewTreeResponse(depts []*domain.Department) []DepartmentNodeResponse {
	out := make([]DepartmentNodeResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, DepartmentNodeResponse{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Type:        d.Type,
			ParentID:    d.ParentID,
			Activities:  newActivityResponses(d.Activities),
			Children:    NewTreeResponse(d.Children),
		})
	}
	return out
}

// NewDepartmentResponse builds a department response.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	activities := newActivityResponses(d.Activities)
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Label:       d.Type.Label(),
		ParentID:    d.ParentID,
		Activities:  activities,
		Children:    NewDepartmentRefs(d.Children),
	}
}
