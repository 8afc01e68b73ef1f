package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konbini-planner/internal/auth"
	"konbini-planner/internal/catalog"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/planner"
)

var today = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p := planner.NewPlanner(catalog.Default(), planner.WithClock(func() time.Time { return today }))
	return NewServer(p, opts...)
}

func planBody(t *testing.T, budget int) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"age":          33,
		"sex":          "male",
		"height_cm":    173,
		"weight_now":   78.0,
		"weight_goal":  70.0,
		"deadline":     today.AddDate(0, 0, 60).Format(planner.DateLayout),
		"activity":     "medium",
		"daily_budget": budget,
		"store":        "seven",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandlePlan(t *testing.T) {
	s := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodPost, "/plan", planBody(t, 1000)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res planner.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1313, res.Estimate.Intake)
	assert.LessOrEqual(t, res.Plan.Price, 1000)
	assert.NotEmpty(t, res.Plan.Breakfast.Items)
	assert.NotEmpty(t, res.Plan.Lunch.Items)
	assert.NotEmpty(t, res.Plan.Dinner.Items)
}

func TestHandlePlanErrors(t *testing.T) {
	s := newTestServer(t)

	t.Run("OutOfRange", func(t *testing.T) {
		w := do(s, httptest.NewRequest(http.MethodPost, "/plan", planBody(t, 100)))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "daily_budget", body["field"])
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		w := do(s, httptest.NewRequest(http.MethodPost, "/plan", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPlanErrorMapping(t *testing.T) {
	status, _ := planError(planner.ErrNoFeasiblePlan)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = planError(planner.ErrInfeasibleCatalog)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = planError(&planner.ValidationError{Field: "age", Reason: "too young"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuth(t *testing.T) {
	issuer, err := auth.NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	s := newTestServer(t, WithAuth(issuer))

	t.Run("MissingToken", func(t *testing.T) {
		w := do(s, httptest.NewRequest(http.MethodPost, "/plan", planBody(t, 1000)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("BadToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/plan", planBody(t, 1000))
		req.Header.Set("Authorization", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, do(s, req).Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, err := issuer.Issue("42")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/plan", planBody(t, 1000))
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, do(s, req).Code)
	})

	t.Run("PublicRoutesStayOpen", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)).Code)
	})
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var stores map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stores))
	assert.Equal(t, []string{"familymart", "hottomotto", "seven"}, stores["stores"])

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/catalog?store=hottomotto", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var items map[string][]catalog.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items["items"], 7)

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/catalog?store=lawson", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePlansWithoutHistory(t *testing.T) {
	s := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/plans?user_id=42&limit=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"plans":[]}`, w.Body.String())

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/plans?user_id=42&limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleProgress(t *testing.T) {
	s := newTestServer(t)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/progress?start=80&goal=70&current=74", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Percent float64 `json:"percent"`
		Level   int     `json:"level"`
		Caption string  `json:"caption"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 0.6, body.Percent, 1e-9)
	assert.Equal(t, 2, body.Level)
	assert.NotEmpty(t, body.Caption)

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/progress?start=80&goal=70", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, WithCollector(metrics.NewCollector()), WithDataPath(t.TempDir()))

	w := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"system"`)

	w = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
