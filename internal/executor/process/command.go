package process

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// killGrace is how long Wait keeps reading output after the child was killed
// or exited while descendants still hold its pipes.
const killGrace = 500 * time.Millisecond

// errOutputLimit cancels a command whose output outgrew its cap.
var errOutputLimit = errors.New("output limit exceeded")

// limits bounds one subprocess.
type limits struct {
	timeout time.Duration
	// maxOutput caps stdout and stderr separately, in bytes.
	maxOutput int64
}

// outcome is what one subprocess left behind.
type outcome struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	notFound bool
	// overflowed means a stream hit limits.maxOutput and the group was killed.
	overflowed bool
	// err is set for failures that are neither a nonzero exit nor one of the
	// flags above: a cancelled caller, a failed fork, unreadable pipes.
	err error
}

// runCommand spawns argv in dir, captures both streams and waits at most
// lim.timeout. On deadline or output overflow the whole process group is
// killed, not just abandoned.
func runCommand(ctx context.Context, lim limits, dir string, argv []string) outcome {
	if len(argv) == 0 || argv[0] == "" {
		return outcome{err: errors.New("empty command line")}
	}

	runCtx, cancel := context.WithTimeout(ctx, lim.timeout)
	defer cancel()
	procCtx, abort := context.WithCancelCause(runCtx)
	defer abort(nil)

	cmd := exec.CommandContext(procCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	overflow := func() { abort(errOutputLimit) }
	stdout := &cappedBuffer{limit: lim.maxOutput, overflow: overflow}
	stderr := &cappedBuffer{limit: lim.maxOutput, overflow: overflow}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = killGrace
	isolateProcessGroup(cmd)

	err := runAndKillGroup(cmd)

	out := outcome{stdout: stdout.String(), stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case stdout.exceeded || stderr.exceeded:
		out.overflowed = true
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		// ErrWaitDelay means the program exited cleanly but left a
		// descendant holding its output pipes.
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		out.timedOut = true
	case ctx.Err() != nil:
		out.err = ctx.Err()
	case errors.As(err, &exitErr):
		out.exitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		out.notFound = true
		out.err = err
	default:
		out.err = err
	}
	return out
}

// cappedBuffer keeps at most limit bytes. The first write past the limit
// calls overflow; that write and every later one are discarded.
//
// exec.Cmd copies each stream on its own goroutine, so a cappedBuffer is
// only written from one goroutine and read after Wait returns.
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	exceeded bool
	overflow func()
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.exceeded {
		return len(p), nil
	}
	if room := b.limit - int64(b.buf.Len()); int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.exceeded = true
		b.overflow()
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

// expand substitutes placeholders in every argument of a command template.
// Substituted text is never rescanned, so source code containing "{src}"
// reaches the interpreter unchanged.
func expand(template []string, code, src, out, dir string) []string {
	r := strings.NewReplacer(
		PlaceholderCode, code,
		PlaceholderSrc, src,
		PlaceholderOut, out,
		PlaceholderDir, dir,
	)
	argv := make([]string, len(template))
	for i, arg := range template {
		argv[i] = r.Replace(arg)
	}
	return argv
}
