package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/api/http/handlers"
	"github.com/orgchartd/orgchart-service/internal/domain"
	"github.com/orgchartd/orgchart-service/internal/idgen"
	"github.com/orgchartd/orgchart-service/internal/observability"
	"github.com/orgchartd/orgchart-service/internal/persistence"
	"github.com/orgchartd/orgchart-service/internal/store"
	apperrors "github.com/orgchartd/orgchart-service/pkg/util/errorutil"
)

type testServer struct {
	app     *fiber.App
	store   *store.Store
	gw      *persistence.MemoryGateway
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gw := persistence.NewMemoryGateway("test")
	s, err := store.Open(context.Background(), store.Dependencies{Gateway: gw, IDs: idgen.NewSequence("id")})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("orgchart-service", "test", gw, metrics),
		OrgChart: handlers.NewOrgChartHandler(s),
	})
	return testServer{app: app, store: s, gw: gw, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (ts testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (ts testServer) create(t *testing.T, path string, body any) string {
	t.Helper()
	status, env := ts.do(t, nethttp.MethodPost, path, body)
	require.Equal(t, nethttp.StatusCreated, status, "%+v", env.Error)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, nethttp.MethodGet, "/health/live", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	status, _ = ts.do(t, nethttp.MethodGet, "/health/ready", nil)
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestDepartmentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	dirID := ts.create(t, "/api/v1/departments", map[string]any{"name": "Fin", "type": "DIRECTORATE"})
	mgmtID := ts.create(t, "/api/v1/departments", map[string]any{"name": "TI", "type": "management", "parent_id": dirID})
	sectorID := ts.create(t, "/api/v1/departments", map[string]any{"name": "Suporte", "type": "SECTOR", "parent_id": mgmtID})
	activityID := ts.create(t, "/api/v1/departments/"+sectorID+"/activities", map[string]any{
		"name": "Backup", "flowchart_url": "https://img.example/backup.png",
	})

	status, env := ts.do(t, nethttp.MethodGet, "/api/v1/departments/"+sectorID+"/path", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var path []struct{ Name string }
	require.NoError(t, json.Unmarshal(env.Data, &path))
	require.Len(t, path, 4)
	assert.Equal(t, "CEO", path[0].Name)
	assert.Equal(t, "Suporte", path[3].Name)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/activities/"+activityID, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var detail struct {
		Activity struct {
			Name         string `json:"name"`
			FlowchartURL string `json:"flowchart_url"`
		} `json:"activity"`
		Department struct {
			ID string `json:"id"`
		} `json:"department"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Backup", detail.Activity.Name)
	assert.Equal(t, "https://img.example/backup.png", detail.Activity.FlowchartURL)
	assert.Equal(t, sectorID, detail.Department.ID)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/departments?type=sector", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var entries []domain.DepartmentEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Equal(t, []domain.DepartmentEntry{{ID: sectorID, Name: "Suporte", Type: domain.DepartmentTypeSector, Depth: 3}}, entries)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/departments/"+dirID, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var dept struct {
		ParentID string `json:"parent_id"`
		Children []struct{ ID string }
	}
	require.NoError(t, json.Unmarshal(env.Data, &dept))
	assert.Equal(t, domain.RootID, dept.ParentID)
	require.Len(t, dept.Children, 1)
	assert.Equal(t, mgmtID, dept.Children[0].ID)
}

func TestCreateDepartmentErrors(t *testing.T) {
	ts := newTestServer(t)
	dirID := ts.create(t, "/api/v1/departments", map[string]any{"name": "Fin", "type": "DIRECTORATE"})

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"blank name", map[string]any{"name": " ", "type": "DIRECTORATE"}, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown type", map[string]any{"name": "X", "type": "DIVISION"}, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing parent", map[string]any{"name": "X", "type": "SECTOR"}, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"wrong parent kind", map[string]any{"name": "X", "type": "SECTOR", "parent_id": dirID}, nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown parent", map[string]any{"name": "X", "type": "SECTOR", "parent_id": "nope"}, nethttp.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := ts.do(t, nethttp.MethodPost, "/api/v1/departments", tc.body)
			assert.Equal(t, tc.status, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
	assert.NotEmpty(t, ts.metrics.Snapshot().Errors)
}

func TestNotFoundLookups(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{
		"/api/v1/departments/nonexistent",
		"/api/v1/departments/nonexistent/path",
		"/api/v1/activities/nonexistent",
	} {
		status, env := ts.do(t, nethttp.MethodGet, path, nil)
		assert.Equal(t, nethttp.StatusNotFound, status, path)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	}

	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/departments/nonexistent/activities", map[string]any{"name": "X"})
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSaveFailureReported(t *testing.T) {
	ts := newTestServer(t)
	ts.gw.FailSaves(errors.New("disk full"))

	// the mutation itself still succeeds
	ts.create(t, "/api/v1/departments", map[string]any{"name": "Fin", "type": "DIRECTORATE"})

	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/org-chart/save", nil)
	assert.Equal(t, nethttp.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/departments?type=DIRECTORATE", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var entries []domain.DepartmentEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)
}

func TestExportAndReload(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, "/api/v1/departments", map[string]any{"name": "Fin", "type": "DIRECTORATE"})

	resp, err := ts.app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/org-chart/export", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "org-chart.json")

	var roots []*domain.Department
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roots))
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "Fin", roots[0].Children[0].Name)

	ts.gw.Put([]byte(`[]`))
	status, _ := ts.do(t, nethttp.MethodPost, "/api/v1/org-chart/load", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Empty(t, ts.store.Root().Children)

	status, env := ts.do(t, nethttp.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var stats struct{ Departments int }
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Departments)
}

func TestCreateDepartmentWithCamelCaseParent(t *testing.T) {
	ts := newTestServer(t)
	dirID := ts.create(t, "/api/v1/departments", map[string]any{"name": "Fin", "type": "DIRECTORATE"})
	mgmtID := ts.create(t, "/api/v1/departments", map[string]any{"name": "TI", "type": "MANAGEMENT", "parentId": dirID})

	dept, ok := ts.store.FindDepartmentByID(mgmtID)
	require.True(t, ok)
	assert.Equal(t, dirID, dept.ParentIDValue())

	status, env := ts.do(t, nethttp.MethodGet, "/api/v1/org-chart", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var tree []struct {
		ID       string  `json:"id"`
		ParentID *string `json:"parent_id"`
		Children []struct {
			ID       string `json:"id"`
			ParentID string `json:"parent_id"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	require.Len(t, tree, 1)
	assert.Nil(t, tree[0].ParentID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, domain.RootID, tree[0].Children[0].ParentID)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.Close(context.Background()))

	raw, err := json.Marshal(map[string]any{"name": "Fin", "type": "DIRECTORATE"})
	require.NoError(t, err)
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/departments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, retryAfterSeconds, resp.Header.Get("Retry-After"))
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAVAILABLE", env.Error.Code)
}

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"closed", fmt.Errorf("add: %w", store.ErrClosed), "UNAVAILABLE", nethttp.StatusServiceUnavailable},
		{"id collision", store.ErrIDCollision, "CONFLICT", nethttp.StatusConflict},
		{"save timeout", fmt.Errorf("save org chart: %w", context.DeadlineExceeded), "TIMEOUT", nethttp.StatusGatewayTimeout},
		{"domain error", apperrors.NewNotFound("department", nil), "NOT_FOUND", nethttp.StatusNotFound},
		{"anything else", errors.New("disk full"), "INTERNAL_ERROR", nethttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := toDomainError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, nethttp.MethodGet, "/api/v1/stats", nil)
	ts.do(t, nethttp.MethodGet, "/api/v1/departments/missing", nil)

	status, env := ts.do(t, nethttp.MethodGet, "/health/metrics", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var snap observability.MetricsSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.NotEmpty(t, snap.Requests)
	assert.NotEmpty(t, snap.Errors)
	assert.Len(t, snap.MeanLatencyMS, len(snap.Requests))
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	status, env := ts.do(t, nethttp.MethodGet, "/nope", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
