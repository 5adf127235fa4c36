// Package executor defines the contract between the exam IDE and the code
// execution engine.
//
// THE ONE OPERATION:
// Everything outside this package (HTTP handlers, the NATS worker, the MCP tool,
// the CLI) sees code execution as a single call:
//
//	result := exec.Execute(ctx, ExecutionRequest{Code: src, Language: "py"})
//
// Execute never returns an error. Missing toolchains, syntax errors, crashes and
// timeouts are all folded into a Failure result so callers only have one shape
// to deal with.
package executor

import (
	"context"
)

// ExecutionRequest is a request to run one piece of untrusted source code.
type ExecutionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Executor runs code in an isolated environment and reports a normalized result.
//
// Implementations must be safe for concurrent use and must never panic or block
// past their configured timeout (plus the time to kill the child process).
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) Result
}
