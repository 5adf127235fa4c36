//go:build !unix

package process

import "os/exec"

// Without process groups the default cancellation (Process.Kill) is the best
// we can do; grandchildren may survive a timeout.
func isolateProcessGroup(cmd *exec.Cmd) {}

func runAndKillGroup(cmd *exec.Cmd) error {
	return cmd.Run()
}
