// Package service contains the transport-independent layer between the
// HTTP, NATS, MCP and CLI front ends and the execution engine.
//
// THE DEPENDENCY CHAIN:
//
//	Handler / Worker / Tool / CLI → ExecutionService → Engine (process.Executor)
//
// Front ends only parse their wire format and render results. Validation that
// must hold whatever the transport (code present, code not too large, a
// default language) lives here, so it is written and tested once.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/exam-ide/internal/apperror"
	"github.com/sakif/exam-ide/internal/auth"
	"github.com/sakif/exam-ide/internal/executor"
)

const (
	// DefaultMaxCodeLength caps submissions at ~100KB of source.
	DefaultMaxCodeLength = 100000
	// DefaultLanguage is used when a request leaves the language empty.
	DefaultLanguage = executor.Python
)

// Engine is an executor that can also describe itself.
// *process.Executor satisfies it; tests use a hand-written mock.
type Engine interface {
	executor.Executor
	Languages() []executor.Language
	InFlight() int64
}

// Catalog is what GET /api/languages reports.
type Catalog struct {
	Languages []executor.Language          `json:"languages"`
	Synonyms  map[string]executor.Language `json:"synonyms"`
}

// ExecutionService validates requests and forwards them to the engine.
type ExecutionService struct {
	engine        Engine
	maxCodeLength int
	logger        *slog.Logger
}

// NewExecutionService creates an ExecutionService. A maxCodeLength of zero or
// less means DefaultMaxCodeLength.
func NewExecutionService(engine Engine, maxCodeLength int, logger *slog.Logger) *ExecutionService {
	if maxCodeLength <= 0 {
		maxCodeLength = DefaultMaxCodeLength
	}
	return &ExecutionService{
		engine:        engine,
		maxCodeLength: maxCodeLength,
		logger:        logger,
	}
}

// Run executes code in language.
//
// The error is non-nil only for a request that never reached the engine, and
// is then always an *apperror.AppError. Every engine outcome, including an
// unsupported language, comes back as a Result.
func (s *ExecutionService) Run(ctx context.Context, code, language string) (executor.Result, error) {
	if code == "" {
		return executor.Result{}, apperror.ValidationFailed("code", "code is required")
	}
	if len(code) > s.maxCodeLength {
		return executor.Result{}, apperror.TooLarge("code", s.maxCodeLength)
	}
	if language == "" {
		language = string(DefaultLanguage)
	}

	start := time.Now()
	res := s.engine.Execute(ctx, executor.ExecutionRequest{Code: code, Language: language})

	attrs := []any{
		slog.String("language", language),
		slog.Bool("success", res.Success),
		slog.Duration("duration", time.Since(start)),
	}
	if subject, ok := auth.SubjectFromContext(ctx); ok {
		attrs = append(attrs, slog.String("participant", subject))
	}
	if res.Kind == executor.KindInternal {
		s.logger.Error("execution failed internally", append(attrs, slog.String("error", res.Error))...)
	} else {
		s.logger.Debug("execution served", attrs...)
	}

	return res, nil
}

// Catalog lists the enabled languages and the accepted synonyms.
func (s *ExecutionService) Catalog() Catalog {
	return Catalog{
		Languages: s.engine.Languages(),
		Synonyms:  executor.Synonyms(),
	}
}

// InFlight returns how many executions the engine is running right now.
func (s *ExecutionService) InFlight() int64 {
	return s.engine.InFlight()
}
