package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/exam-ide/internal/apperror"
	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/service"
)

// maxBodyBytes bounds the request body before JSON decoding. JSON escaping can
// inflate source several times, so this is well above the code length limit,
// which the service enforces precisely.
const maxBodyBytes = 8 << 20

// ExecuteHandler handles code execution requests.
type ExecuteHandler struct {
	svc    *service.ExecutionService
	logger *slog.Logger
}

// NewExecuteHandler creates a new ExecuteHandler.
func NewExecuteHandler(svc *service.ExecutionService, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleExecute runs one submission.
//
// HTTP: POST /api/execute
// REQUEST BODY:  {"code": "print('hi')", "language": "python"}
// RESPONSE BODY: {"success": true, "output": "hi\n", "error": null, ...}
//
// A failed execution is still a 200; the body says what went wrong.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req executor.ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteError(w, apperror.TooLarge("body", maxBodyBytes))
			return
		}
		WriteError(w, apperror.ValidationFailed("body", "request body must be a JSON object with string fields code and language"))
		return
	}

	result, err := h.svc.Run(r.Context(), req.Code, req.Language)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
