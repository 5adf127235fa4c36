package process

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sakif/exam-ide/internal/executor"
)

// runner executes code for one language family.
type runner interface {
	execute(ctx context.Context, code, id string) executor.Result
}

// phase describes how the outcome of one subprocess is classified.
type phase struct {
	name executor.Phase
	// kind is reported when the subprocess exits nonzero.
	kind executor.FailureKind
	// fallback replaces an empty stderr on a nonzero exit.
	fallback string
	// missing is reported when the binary cannot be found. Empty means a
	// missing binary is an internal error (e.g. a vanished build artifact).
	missing string
}

// classify folds a subprocess outcome into a failure, or reports ok when the
// process exited 0.
func (p phase) classify(out outcome, lim limits) (executor.Result, bool) {
	switch {
	case out.overflowed:
		return executor.Failed(executor.KindOutputLimit, p.name, outputLimitMessage(lim.maxOutput)), false
	case out.timedOut:
		return executor.Failed(executor.KindTimeout, p.name, timeoutMessage(lim.timeout)), false
	case out.notFound && p.missing != "":
		return executor.Failed(executor.KindToolchainMissing, p.name, p.missing), false
	case out.err != nil:
		return executor.Failed(executor.KindInternal, p.name, out.err.Error()), false
	case out.exitCode != 0:
		msg := out.stderr
		if msg == "" {
			msg = p.fallback
		}
		return executor.Failed(p.kind, p.name, msg), false
	}
	return executor.Result{}, true
}

func timeoutMessage(timeout time.Duration) string {
	secs := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("Code execution timeout (>%ss)", secs)
}

func outputLimitMessage(limit int64) string {
	return fmt.Sprintf("Output limit exceeded (>%s)", humanize.IBytes(uint64(limit)))
}

// interpretedRunner passes the whole program inline to an interpreter, e.g.
// `python3 -c <code>`. No file is written.
type interpretedRunner struct {
	toolchain Toolchain
	limits    limits
}

func (r *interpretedRunner) execute(ctx context.Context, code, _ string) executor.Result {
	run := phase{
		name:     executor.PhaseRun,
		kind:     executor.KindRuntime,
		fallback: "Unknown error",
		missing:  r.toolchain.Missing,
	}

	out := runCommand(ctx, r.limits, "", expand(r.toolchain.Run, code, "", "", ""))
	if res, ok := run.classify(out, r.limits); !ok {
		return res
	}
	return executor.Succeeded(out.stdout)
}

// compiledRunner writes the source into a private workspace, compiles it and
// runs the artifact. Each of the two subprocesses gets a full timeout.
//
// PIPELINE:
//
//	workspace → write source → compile ─(exit 0)→ run → result
//	                              └─(otherwise)→ compile failure, run never starts
//
// The workspace is destroyed by defer whichever step returns.
type compiledRunner struct {
	toolchain Toolchain
	limits    limits
	workDir   string
	logger    *slog.Logger
}

func (r *compiledRunner) execute(ctx context.Context, code, id string) executor.Result {
	ws, err := newWorkspace(r.workDir, id)
	if err != nil {
		return executor.Failed(executor.KindInternal, executor.PhaseWorkspace, err.Error())
	}
	defer func() {
		if err := ws.destroy(); err != nil {
			r.logger.Warn("failed to remove workspace",
				slog.String("id", id),
				slog.String("dir", ws.dir),
				slog.String("error", err.Error()),
			)
		}
	}()

	src, err := ws.write(r.toolchain.SourceFile, code)
	if err != nil {
		return executor.Failed(executor.KindInternal, executor.PhaseWorkspace, err.Error())
	}
	artifact := ws.path(r.toolchain.ArtifactFile)

	compile := phase{
		name:     executor.PhaseCompile,
		kind:     executor.KindCompile,
		fallback: "Compilation error",
		missing:  r.toolchain.Missing,
	}
	out := runCommand(ctx, r.limits, ws.dir, expand(r.toolchain.Compile, code, src, artifact, ws.dir))
	if res, ok := compile.classify(out, r.limits); !ok {
		return res
	}

	run := phase{
		name:     executor.PhaseRun,
		kind:     executor.KindRuntime,
		fallback: "Runtime error",
		missing:  r.toolchain.Missing,
	}
	if runsArtifact(r.toolchain.Run) {
		run.missing = ""
	}
	out = runCommand(ctx, r.limits, ws.dir, expand(r.toolchain.Run, code, src, artifact, ws.dir))
	if res, ok := run.classify(out, r.limits); !ok {
		return res
	}
	return executor.Succeeded(out.stdout)
}

// runsArtifact reports whether the run command executes the build output
// directly rather than a host toolchain binary.
func runsArtifact(run []string) bool {
	return len(run) > 0 && strings.Contains(run[0], PlaceholderOut)
}
