package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ak/griddle/internal/domain/models"
	domainrepos "github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/infrastructure/config"
	"github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/infrastructure/repositories/memory"
	"github.com/ak/griddle/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	return newTestApplicationWithProvider(t, memory.NewProvider())
}

func newTestApplicationWithProvider(t *testing.T, provider *repositories.Provider) *Application {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Name: "griddle", Env: "test"},
		Engine: config.EngineConfig{
			MinCookTime:   models.DefaultMinCookTime,
			MaxCookTime:   models.DefaultMaxCookTime,
			DisableJitter: true,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
	}

	log, err := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	app, err := New(cfg, log, nil, provider)
	require.NoError(t, err)
	return app
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func doRequest(t *testing.T, app *Application, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)

	var parsed testResponse
	if len(w.Body.Bytes()) > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApplication(t)

	w, _ := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// No MongoDB wired: readiness skips the ping.
	w, _ = doRequest(t, app, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestCurrentRecipeBootstrapsDefault(t *testing.T) {
	app := newTestApplication(t)

	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/recipes/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)

	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(resp.Data, &recipe))
	assert.Equal(t, "Basic Pancakes", recipe.Name)
	assert.True(t, recipe.IsDefault)
}

func TestRecipeLifecycleOverHTTP(t *testing.T) {
	app := newTestApplication(t)

	w, resp := doRequest(t, app, http.MethodPost, "/api/v1/recipes", gin.H{
		"name":             "Buckwheat",
		"batter_thickness": "thin",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(resp.Data, &recipe))
	assert.Equal(t, models.BatterThin, recipe.BatterThickness)
	id := recipe.ID.Hex()

	// Creating made it current.
	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/recipes/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.Recipe
	require.NoError(t, json.Unmarshal(resp.Data, &current))
	assert.Equal(t, id, current.ID.Hex())

	// The whole dial was seeded.
	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/recipes/"+id+"/recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(resp.Data, &recs))
	assert.Len(t, recs, 9)

	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/recipes/"+id+"/recommendations/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(resp.Data, &rec))
	assert.Equal(t, models.ThinBaseTime, rec.FirstSideTime)

	w, _ = doRequest(t, app, http.MethodPut, "/api/v1/recipes/"+id, gin.H{"description": "nutty"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, app, http.MethodDelete, "/api/v1/recipes/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/recipes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestRecipeBadRequests(t *testing.T) {
	app := newTestApplication(t)

	w, _ := doRequest(t, app, http.MethodGet, "/api/v1/recipes/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, app, http.MethodPost, "/api/v1/recipes", gin.H{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/recipes/000000000000000000000001/recommendations/99", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestRecordCookAndStatisticsOverHTTP(t *testing.T) {
	app := newTestApplication(t)

	// Bootstrap the default recipe.
	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/recipes/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(resp.Data, &recipe))

	// recipe_id omitted: the current recipe is used.
	w, resp = doRequest(t, app, http.MethodPost, "/api/v1/history", gin.H{
		"temperature":      5,
		"first_side_time":  88,
		"second_side_time": 70,
		"rating":           "good",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var record models.HistoryRecord
	require.NoError(t, json.Unmarshal(resp.Data, &record))
	assert.Equal(t, recipe.ID, record.RecipeID)

	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.HistoryRecord
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	assert.Len(t, records, 1)

	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/statistics?recipe_id="+recipe.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.Statistics
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 1, stats.TotalPancakes)
	assert.Equal(t, 1, stats.GoodPancakes)

	w, _ = doRequest(t, app, http.MethodDelete, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, app, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	records = nil
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	assert.Empty(t, records)
}

func TestSessionOverHTTP(t *testing.T) {
	app := newTestApplication(t)

	w, resp := doRequest(t, app, http.MethodPost, "/api/v1/sessions", gin.H{"temperature": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	var status struct {
		ID    string `json:"id"`
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, string(models.PhaseFirstSide), status.Phase)
	require.NotEmpty(t, status.ID)

	w, _ = doRequest(t, app, http.MethodGet, "/api/v1/sessions/"+status.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Rating before the cook is done is a state error.
	w, resp = doRequest(t, app, http.MethodPost, "/api/v1/sessions/"+status.ID+"/rate", gin.H{"rating": "good"})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONSTRAINT_VIOLATION", resp.Error.Code)

	w, _ = doRequest(t, app, http.MethodDelete, "/api/v1/sessions/"+status.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, app, http.MethodGet, "/api/v1/sessions/"+status.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// brokenRecipeRepository fails every read the way a disconnected store would.
type brokenRecipeRepository struct {
	domainrepos.RecipeRepository
}

func (brokenRecipeRepository) List(_ context.Context) ([]*models.Recipe, error) {
	return nil, errors.New("connection reset by peer")
}

func TestStoreFailureSurfacesAsStoreUnavailable(t *testing.T) {
	provider := memory.NewProvider()
	provider.Recipe = brokenRecipeRepository{provider.Recipe}
	app := newTestApplicationWithProvider(t, provider)

	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/recipes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STORE_UNAVAILABLE", resp.Error.Code)
}

func TestPreferencesOverHTTP(t *testing.T) {
	app := newTestApplication(t)

	w, _ := doRequest(t, app, http.MethodGet, "/api/v1/preferences/theme", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, app, http.MethodPut, "/api/v1/preferences/theme", gin.H{"value": "dark"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doRequest(t, app, http.MethodGet, "/api/v1/preferences/theme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pref models.Preference
	require.NoError(t, json.Unmarshal(resp.Data, &pref))
	assert.Equal(t, "dark", pref.Value)
}
