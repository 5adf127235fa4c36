//go:build linux

package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exam-ide/internal/executor"
)

// alive reports whether pid still runs. Zombies count as dead: inside a
// container nothing may reap an orphaned grandchild.
func alive(pid int) bool {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	// Format: pid (comm) state ...; comm may contain spaces.
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return false
	}
	return stat[i+2] != 'Z'
}

func readPID(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	return pid
}

func TestExecute_TimeoutKillsWholeProcessGroup(t *testing.T) {
	exec, _ := newTestExecutor(t, func(c *Config) {
		c.Timeout = 300 * time.Millisecond
	})

	dir := t.TempDir()
	childFile := filepath.Join(dir, "child.pid")
	grandchildFile := filepath.Join(dir, "grandchild.pid")
	code := fmt.Sprintf("echo $$ > %q; sleep 30 & echo $! > %q; wait", childFile, grandchildFile)

	res := run(exec, "python", code)
	require.Equal(t, executor.KindTimeout, res.Kind)

	child := readPID(t, childFile)
	grandchild := readPID(t, grandchildFile)
	assert.Eventually(t, func() bool { return !alive(child) && !alive(grandchild) },
		2*time.Second, 20*time.Millisecond, "subprocesses survived the timeout")
}

func TestExecute_BackgroundChildDoesNotOutliveSuccess(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	pidFile := filepath.Join(t.TempDir(), "bg.pid")
	code := fmt.Sprintf("sleep 30 > /dev/null 2>&1 & echo $! > %q; echo done", pidFile)

	start := time.Now()
	res := run(exec, "python", code)
	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "done\n", res.Output)
	assert.Less(t, time.Since(start), 3*time.Second)

	bg := readPID(t, pidFile)
	assert.Eventually(t, func() bool { return !alive(bg) }, 2*time.Second, 20*time.Millisecond)
}

// state returns the /proc state letter of pid, or 0 when pid is gone.
func state(pid int) byte {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0
	}
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return 0
	}
	return stat[i+2]
}

func TestWaitExited_LeavesChildUnreaped(t *testing.T) {
	cmd := osexec.Command("sh", "-c", "exit 3")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	waitExited(pid)

	// Still a zombie: the pid cannot be reused before Wait.
	assert.Equal(t, byte('Z'), state(pid))

	err := cmd.Wait()
	var exitErr *osexec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, byte(0), state(pid))
}

func TestRunAndKillGroup_KillsLeftoversBeforeReaping(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "bg.pid")
	cmd := osexec.CommandContext(context.Background(), "sh", "-c", fmt.Sprintf("sleep 30 > /dev/null 2>&1 & echo $! > %q", pidFile))
	isolateProcessGroup(cmd)

	require.NoError(t, runAndKillGroup(cmd))

	bg := readPID(t, pidFile)
	assert.Eventually(t, func() bool { return !alive(bg) }, 2*time.Second, 20*time.Millisecond)
}
