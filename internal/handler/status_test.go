package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/handler"
	"github.com/sakif/exam-ide/internal/service"
)

func newStatusHandler(engine *MockEngine) *handler.StatusHandler {
	svc := service.NewExecutionService(engine, 0, testLogger())
	return handler.NewStatusHandler(svc, testLogger())
}

func TestStatusHandler_HandleHealth(t *testing.T) {
	h := newStatusHandler(&MockEngine{Running: 2})

	rr := httptest.NewRecorder()
	h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body handler.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, int64(2), body.InFlight)
	assert.WithinDuration(t, time.Now(), body.Timestamp, time.Minute)
}

func TestStatusHandler_HandleLanguages(t *testing.T) {
	h := newStatusHandler(&MockEngine{})

	rr := httptest.NewRecorder()
	h.HandleLanguages(rr, httptest.NewRequest(http.MethodGet, "/api/languages", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body service.Catalog
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, []executor.Language{executor.Python, executor.JavaScript}, body.Languages)
	assert.Equal(t, executor.JavaScript, body.Synonyms["js"])
}
