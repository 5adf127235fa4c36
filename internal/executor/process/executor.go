// Package process implements executor.Executor by running each submission as
// a child process of the server, one process per phase.
//
// ISOLATION MODEL:
// Every subprocess gets Config.Timeout and its whole process group is
// SIGKILLed when the deadline passes. Captured stdout and stderr are each
// capped at Config.MaxOutputBytes; a program that prints more is killed the
// same way. Compiled languages additionally get a private temporary directory
// that is removed before Execute returns. The child itself has no memory, CPU
// or network limits.
//
// CONCURRENCY:
// Executions share nothing except an atomic in-flight counter, so Execute can
// be called from any number of goroutines without locking.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/xid"

	"github.com/sakif/exam-ide/internal/executor"
)

// COMPILE-TIME INTERFACE CHECK: *Executor must satisfy executor.Executor.
var _ executor.Executor = (*Executor)(nil)

// Executor dispatches requests to per-language runners.
type Executor struct {
	config    Config
	logger    *slog.Logger
	runners   map[executor.Language]runner
	languages []executor.Language
	inflight  *xsync.Counter
}

// New validates cfg and builds one runner per served language.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.New("process executor: timeout must be positive")
	}
	if cfg.MaxOutputBytes < 0 {
		return nil, errors.New("process executor: output limit must not be negative")
	}
	if cfg.MaxOutputBytes == 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	lim := limits{timeout: cfg.Timeout, maxOutput: cfg.MaxOutputBytes}

	all := mapset.NewSet(executor.Languages...)
	enabled := mapset.NewSet(cfg.Languages...)
	if enabled.Cardinality() == 0 {
		enabled = all
	}
	if unknown := enabled.Difference(all); unknown.Cardinality() > 0 {
		return nil, fmt.Errorf("process executor: unknown languages %v", unknown.ToSlice())
	}

	e := &Executor{
		config:   cfg,
		logger:   logger,
		runners:  make(map[executor.Language]runner, enabled.Cardinality()),
		inflight: xsync.NewCounter(),
	}

	// Walk the canonical list so Languages() has a stable order.
	for _, lang := range executor.Languages {
		if !enabled.Contains(lang) {
			continue
		}
		tc, ok := cfg.Toolchains[lang]
		if !ok {
			return nil, fmt.Errorf("process executor: no toolchain configured for %s", lang)
		}
		if len(tc.Run) == 0 {
			return nil, fmt.Errorf("process executor: %s toolchain has no run command", lang)
		}

		if tc.Interpreted() {
			e.runners[lang] = &interpretedRunner{toolchain: tc, limits: lim}
		} else {
			if tc.SourceFile == "" {
				return nil, fmt.Errorf("process executor: %s toolchain has no source file name", lang)
			}
			e.runners[lang] = &compiledRunner{
				toolchain: tc,
				limits:    lim,
				workDir:   cfg.WorkDir,
				logger:    logger,
			}
		}
		e.languages = append(e.languages, lang)
	}

	return e, nil
}

// Execute runs req and always returns exactly one result.
//
// An unsupported language is rejected before anything is spawned. Everything
// else (missing toolchain, compile error, crash, timeout, filesystem trouble)
// comes back as a failure result.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (res executor.Result) {
	lang := executor.NormalizeLanguage(req.Language)
	r, ok := e.runners[lang]
	if !ok {
		e.logger.Debug("rejected unsupported language", slog.String("language", string(lang)))
		return executor.Unsupported(string(lang))
	}

	id := xid.New().String()
	start := time.Now()
	e.inflight.Inc()

	defer func() {
		e.inflight.Dec()
		if p := recover(); p != nil {
			res = executor.Failed(executor.KindInternal, res.Phase, fmt.Sprintf("internal error: %v", p))
		}
		e.logger.Info("execution finished",
			slog.String("id", id),
			slog.String("language", string(lang)),
			slog.Bool("success", res.Success),
			slog.String("kind", string(res.Kind)),
			slog.String("phase", string(res.Phase)),
			slog.Duration("duration", time.Since(start)),
		)
	}()

	return r.execute(ctx, req.Code, id)
}

// Languages returns the served languages in canonical order.
func (e *Executor) Languages() []executor.Language {
	out := make([]executor.Language, len(e.languages))
	copy(out, e.languages)
	return out
}

// InFlight returns the number of executions currently running.
func (e *Executor) InFlight() int64 {
	return e.inflight.Value()
}

// Timeout returns the per-subprocess budget.
func (e *Executor) Timeout() time.Duration {
	return e.config.Timeout
}
