//go:build unix && !linux

package process

import "os/exec"

// runAndKillGroup runs cmd, then kills whatever is left of its process group.
// Without waitid(WNOWAIT) the group is signalled after the child was reaped,
// so a pid recycled as a new group leader in between would be hit.
func runAndKillGroup(cmd *exec.Cmd) error {
	err := cmd.Run()
	_ = signalGroup(cmd)
	return err
}
