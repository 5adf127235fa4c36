//go:build linux

package process

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/unix"
)

// runAndKillGroup runs cmd and kills whatever is left of its process group
// once the child has exited. The group is signalled while the child is still
// an unreaped zombie, so its pid, and with it the group id, cannot have been
// handed to another process yet.
func runAndKillGroup(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	waitExited(cmd.Process.Pid)
	_ = signalGroup(cmd)
	return cmd.Wait()
}

// waitExited blocks until pid has exited without reaping it.
func waitExited(pid int) {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			return
		}
	}
}
