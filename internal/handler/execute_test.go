package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/handler"
	"github.com/sakif/exam-ide/internal/service"
)

// MockEngine is a fast stand-in for the process executor.
type MockEngine struct {
	CapturedReq executor.ExecutionRequest
	Calls       int
	ReturnRes   executor.Result
	Running     int64
}

func (m *MockEngine) Execute(_ context.Context, req executor.ExecutionRequest) executor.Result {
	m.CapturedReq = req
	m.Calls++
	return m.ReturnRes
}

func (m *MockEngine) Languages() []executor.Language {
	return []executor.Language{executor.Python, executor.JavaScript}
}

func (m *MockEngine) InFlight() int64 { return m.Running }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newExecuteHandler(engine *MockEngine, maxCodeLength int) *handler.ExecuteHandler {
	svc := service.NewExecutionService(engine, maxCodeLength, testLogger())
	return handler.NewExecuteHandler(svc, testLogger())
}

func postExecute(h *handler.ExecuteHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.HandleExecute(rr, req)
	return rr
}

func TestExecuteHandler_HandleExecute(t *testing.T) {
	t.Run("successful execution", func(t *testing.T) {
		engine := &MockEngine{ReturnRes: executor.Succeeded("Hello World\n")}
		h := newExecuteHandler(engine, 0)

		rr := postExecute(h, `{"code":"print('Hello World')","language":"python"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"success":true,"output":"Hello World\n","error":null}`, rr.Body.String())
		assert.Equal(t, "print('Hello World')", engine.CapturedReq.Code)
		assert.Equal(t, "python", engine.CapturedReq.Language)
	})

	t.Run("failed execution is still 200", func(t *testing.T) {
		engine := &MockEngine{ReturnRes: executor.Unsupported("cobol")}
		h := newExecuteHandler(engine, 0)

		rr := postExecute(h, `{"code":"DISPLAY 'HI'.","language":"cobol"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res executor.Result
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.False(t, res.Success)
		assert.Equal(t, "Unsupported language: cobol", res.Error)
	})

	t.Run("missing language defaults to python", func(t *testing.T) {
		engine := &MockEngine{ReturnRes: executor.Succeeded("1\n")}
		h := newExecuteHandler(engine, 0)

		rr := postExecute(h, `{"code":"print(1)"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "python", engine.CapturedReq.Language)
	})

	tests := []struct {
		name       string
		maxCode    int
		body       string
		wantStatus int
		wantType   string
	}{
		{"invalid request body", 0, `{"invalid_json":`, http.StatusBadRequest, "validation_error"},
		{"language is not a string", 0, `{"code":"print(1)","language":5}`, http.StatusBadRequest, "validation_error"},
		{"empty code", 0, `{"code":"","language":"python"}`, http.StatusBadRequest, "validation_error"},
		{"code too long", 4, `{"code":"print(1)","language":"python"}`, http.StatusRequestEntityTooLarge, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{}
			h := newExecuteHandler(engine, tt.maxCode)

			rr := postExecute(h, tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.Zero(t, engine.Calls, "engine must not run for a rejected request")
		})
	}

	t.Run("oversized body", func(t *testing.T) {
		engine := &MockEngine{}
		h := newExecuteHandler(engine, 0)

		body := `{"code":"` + strings.Repeat("x", 9<<20) + `"}`
		rr := postExecute(h, body)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Zero(t, engine.Calls)
	})
}
