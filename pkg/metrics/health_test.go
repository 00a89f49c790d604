package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func resetRegistry() {
	registry = &Status{
		components: make(map[string]componentState),
		startedAt:  time.Now(),
	}
}

func TestRegisterComponentStoresHealthAndMessage(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", true, "running")

	assert.Len(t, registry.components, 1)
	comp := registry.components["pool"]
	assert.True(t, comp.healthy)
	assert.Equal(t, "running", comp.message)
}

func TestUpdateComponentOverwritesPriorState(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", true, "ok")
	UpdateComponent("pool", false, "shard failures")

	comp := registry.components["pool"]
	assert.False(t, comp.healthy)
	assert.Equal(t, "shard failures", comp.message)
}

func TestGetHealthAllHealthy(t *testing.T) {
	resetRegistry()
	registry.version = "1.0.0"
	RegisterComponent("pool", true, "")

	health := GetHealth()
	assert.Equal(t, "healthy", health.Status)
	assert.Len(t, health.Components, 1)
	assert.Equal(t, "1.0.0", health.Version)
}

func TestGetHealthOneUnhealthy(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", false, "shard 2 failed")

	health := GetHealth()
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy: shard 2 failed", health.Components["pool"])
}

func TestGetReadinessReadyWhenPoolRegisteredHealthy(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", true, "")

	readiness := GetReadiness()
	assert.Equal(t, "ready", readiness.Status)
}

func TestGetReadinessNotReadyWhenPoolUnregistered(t *testing.T) {
	resetRegistry()

	readiness := GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.NotEmpty(t, readiness.Message)
	assert.Equal(t, "not registered", readiness.Components["pool"])
}

func TestGetReadinessNotReadyWhenPoolUnhealthy(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", false, "no runners")

	readiness := GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
}

func TestHealthHandlerReturns200WhenHealthy(t *testing.T) {
	resetRegistry()
	registry.version = "test"
	RegisterComponent("pool", true, "")

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var report Report
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "test", report.Version)
}

func TestHealthHandlerReturns503WhenUnhealthy(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", false, "broken")

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var report Report
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, "unhealthy", report.Status)
}

func TestReadyHandlerReturns200WhenReady(t *testing.T) {
	resetRegistry()
	RegisterComponent("pool", true, "")

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var readiness Report
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&readiness))
	assert.Equal(t, "ready", readiness.Status)
}

func TestReadyHandlerReturns503WhenNotReady(t *testing.T) {
	resetRegistry()
	// pool never registered

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var readiness Report
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&readiness))
	assert.Equal(t, "not_ready", readiness.Status)
}

func TestLivenessHandlerAlwaysReturns200(t *testing.T) {
	resetRegistry()

	req := httptest.NewRequest("GET", "/live", nil)
	w := httptest.NewRecorder()
	LivenessHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "alive", response["status"])
	assert.NotEmpty(t, response["uptime"])
}
