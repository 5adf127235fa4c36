package process

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspacePrefix starts the name of every workspace directory, followed by
// the execution id. Leftovers are easy to spot with `ls /tmp/examide-*`.
const workspacePrefix = "examide-"

// workspace is a temporary directory owned by exactly one compiled execution.
//
// LIFETIME:
// Created right before the source is written and destroyed by a deferred call
// in the same function, so it is removed on success, compile failure, run
// failure, timeout and panic alike:
//
//	ws, err := newWorkspace(parent, id)
//	if err != nil { ... }
//	defer ws.destroy()
type workspace struct {
	dir string
}

// newWorkspace creates a uniquely named 0700 directory under parent.
func newWorkspace(parent, id string) (*workspace, error) {
	dir, err := os.MkdirTemp(parent, workspacePrefix+id+"-")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	// MkdirTemp may return a relative path; commands run with Dir set to it.
	abs, err := filepath.Abs(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}
	return &workspace{dir: abs}, nil
}

// path returns the absolute path of name inside the workspace.
func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

// write stores data verbatim as name and returns its absolute path.
func (w *workspace) write(name, data string) (string, error) {
	p := w.path(name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		return "", fmt.Errorf("writing source: %w", err)
	}
	return p, nil
}

// destroy removes the workspace and everything in it.
func (w *workspace) destroy() error {
	return os.RemoveAll(w.dir)
}
