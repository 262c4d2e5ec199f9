package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/orgchartd/orgchart-service/internal/api/dto"
	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/store"
	apperrors "github.com/orgchartd/orgchart-service/pkg/util/errorutil"
)

const exportFileName = "org-chart.json"

// OrgChartHandler exposes the hierarchy store over HTTP.
type OrgChartHandler struct {
	store *store.Store
}

// NewOrgChartHandler constructs handler.
func NewOrgChartHandler(s *store.Store) *OrgChartHandler {
	return &OrgChartHandler{store: s}
}

// Tree GET /api/v1/org-chart.
func (h *OrgChartHandler) Tree(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewTreeResponse(h.store.Departments())})
}

// Root GET /api/v1/org-chart/root.
func (h *OrgChartHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(h.store.Root())})
}

// Export GET /api/v1/org-chart/export.
func (h *OrgChartHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.store.Export(&buf); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Attachment(exportFileName)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(buf.Bytes())
}

// Load POST /api/v1/org-chart/load.
func (h *OrgChartHandler) Load(c *fiber.Ctx) error {
	if err := h.store.Load(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "loaded"}})
}

// Save POST /api/v1/org-chart/save.
func (h *OrgChartHandler) Save(c *fiber.Ctx) error {
	if err := h.store.Save(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "saved"}})
}

// Stats GET /api/v1/stats.
func (h *OrgChartHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.store.Stats()})
}

// ListDepartments GET /api/v1/departments?type=SECTOR.
func (h *OrgChartHandler) ListDepartments(c *fiber.Ctx) error {
	raw := c.Query("type")
	if raw == "" {
		return c.JSON(fiber.Map{"data": h.store.ListAllDepartments()})
	}
	kind, ok := domain.ParseDepartmentType(raw)
	if !ok {
		return apperrors.NewValidationError("unknown department type", map[string]any{"type": raw})
	}
	return c.JSON(fiber.Map{"data": h.store.ListDepartmentsByType(kind)})
}

// CreateDepartment POST /api/v1/departments.
func (h *OrgChartHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details, ok := dto.Validate(req); !ok {
		return apperrors.NewValidationError("invalid department", details)
	}
	kind, _ := domain.ParseDepartmentType(req.Type)

	id, err := h.store.AddDepartment(c.UserContext(), store.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        kind,
	}, req.Parent())
	if err != nil {
		return mapStoreError(err, map[string]any{"parent_id": req.Parent()})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreatedResponse{ID: id}})
}

// GetDepartment GET /api/v1/departments/:id.
func (h *OrgChartHandler) GetDepartment(c *fiber.Ctx) error {
	id := c.Params("id")
	dept, ok := h.store.FindDepartmentByID(id)
	if !ok {
		return apperrors.NewNotFound("department", map[string]any{"department_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// DepartmentPath GET /api/v1/departments/:id/path.
func (h *OrgChartHandler) DepartmentPath(c *fiber.Ctx) error {
	id := c.Params("id")
	path := h.store.FindPathToDepartment(id)
	if len(path) == 0 {
		return apperrors.NewNotFound("department", map[string]any{"department_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentRefs(path)})
}

// CreateActivity POST /api/v1/departments/:id/activities.
func (h *OrgChartHandler) CreateActivity(c *fiber.Ctx) error {
	departmentID := c.Params("id")
	var req dto.CreateActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details, ok := dto.Validate(req); !ok {
		return apperrors.NewValidationError("invalid activity", details)
	}

	id, err := h.store.AddActivity(c.UserContext(), departmentID, store.ActivityInput{
		Name:         req.Name,
		Description:  req.Description,
		FlowchartURL: req.Flowchart(),
	})
	if err != nil {
		return mapStoreError(err, map[string]any{"department_id": departmentID})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreatedResponse{ID: id}})
}

// GetActivity GET /api/v1/activities/:id.
func (h *OrgChartHandler) GetActivity(c *fiber.Ctx) error {
	id := c.Params("id")
	activity, ok := h.store.FindActivityByID(id)
	if !ok {
		return apperrors.NewNotFound("activity", map[string]any{"activity_id": id})
	}
	owner, ok := h.store.FindDepartmentByActivityID(id)
	if !ok {
		return apperrors.NewNotFound("activity", map[string]any{"activity_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.ActivityDetailResponse{
		Activity:   dto.NewActivityResponse(activity),
		Department: dto.NewDepartmentRef(owner),
		Path:       dto.NewDepartmentRefs(h.store.FindPathToDepartment(owner.ID)),
	}})
}

// mapStoreError attaches request details to caller mistakes. Other errors
// pass through to the error middleware.
func mapStoreError(err error, details map[string]any) error {
	switch {
	case errors.Is(err, store.ErrDepartmentNotFound):
		return apperrors.NewNotFound("department", details)
	case errors.Is(err, store.ErrInvalidParent), errors.Is(err, store.ErrInvalidType):
		return apperrors.NewValidationError(err.Error(), details)
	default:
		return err
	}
}
