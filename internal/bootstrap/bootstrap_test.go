package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/bootstrap"
)

const modelYAML = `
version: bootstrap-test
intercept: -1
features:
  - {name: TITLE, mean: 0, scale: 1, weight: 2}
`

func writeConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.yml")
	require.NoError(t, os.WriteFile(modelPath, []byte(modelYAML), 0o600))

	cfg := `
geocoding:
  base_url: http://127.0.0.1:1
classifier:
  backend: linear
  model_path: ` + modelPath + `
batch:
  max_events: 10
`
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := bootstrap.LoadConfig(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "linear", cfg.Classifier.Backend)
	assert.Equal(t, 8901, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Batch.MaxEvents)
}

func TestLoadConfig_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("GEOCODING_BASE_URL", "http://geo")
	t.Setenv("CLASSIFIER_URL", "http://model")

	cfg, err := bootstrap.LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "http://geo", cfg.Geocoding.BaseURL)
	assert.Equal(t, "sidecar", cfg.Classifier.Backend)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := bootstrap.LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestPipelineServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg, err := bootstrap.LoadConfig(writeConfig(t))
	require.NoError(t, err)

	log := logger.NewNop()
	p, err := bootstrap.NewPipeline(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	assert.Nil(t, p.Audit)
	assert.Nil(t, p.Sidecar)
	assert.Nil(t, p.PingDatabase())
	assert.Nil(t, p.PingRedis())

	router := bootstrap.SetupHTTPServer(cfg, p, log).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reference/same-name/Springfield", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var same struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &same))
	assert.Positive(t, same.Total)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "geotagger_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
