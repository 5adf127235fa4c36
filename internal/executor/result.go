package executor

import (
	"encoding/json"
	"fmt"
)

// NoOutput replaces an empty stdout on success, so a program that printed
// nothing can be told apart from one that never ran.
const NoOutput = "(No output)"

// FailureKind classifies why an execution did not succeed.
type FailureKind string

const (
	KindNone             FailureKind = ""
	KindValidation       FailureKind = "validation"
	KindToolchainMissing FailureKind = "toolchain_missing"
	KindCompile          FailureKind = "compile_error"
	KindRuntime          FailureKind = "runtime_error"
	KindTimeout          FailureKind = "timeout"
	KindOutputLimit      FailureKind = "output_limit"
	KindInternal         FailureKind = "internal"
)

// Phase names the step of an execution that produced the result.
type Phase string

const (
	PhaseDispatch  Phase = "dispatch"
	PhaseWorkspace Phase = "workspace"
	PhaseCompile   Phase = "compile"
	PhaseRun       Phase = "run"
)

// Result is the outcome of one execution: either a success carrying the program's
// stdout or a failure carrying a human-readable error.
//
// Kind and Phase never leave the process. On the wire a Result is always
//
//	{"success": true,  "output": "...", "error": null}
//	{"success": false, "output": null,  "error": "..."}
type Result struct {
	Success bool
	Output  string
	Error   string
	Kind    FailureKind
	Phase   Phase
}

// Succeeded builds a success result. An empty stdout becomes NoOutput.
func Succeeded(stdout string) Result {
	if stdout == "" {
		stdout = NoOutput
	}
	return Result{Success: true, Output: stdout, Phase: PhaseRun}
}

// Failed builds a failure result.
func Failed(kind FailureKind, phase Phase, message string) Result {
	return Result{Kind: kind, Phase: phase, Error: message}
}

// Unsupported is the validation failure for a language with no runner.
func Unsupported(language string) Result {
	return Failed(KindValidation, PhaseDispatch, fmt.Sprintf("Unsupported language: %s", language))
}

// wireResult is the JSON shape shared by every transport. Pointers give us the
// explicit nulls callers rely on to sniff which field is populated.
type wireResult struct {
	Success bool    `json:"success"`
	Output  *string `json:"output"`
	Error   *string `json:"error"`
}

// MarshalJSON encodes the boundary shape with exactly one of output/error set.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{Success: r.Success}
	if r.Success {
		out := r.Output
		w.Output = &out
	} else {
		msg := r.Error
		w.Error = &msg
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the boundary shape. Kind and Phase are not transmitted,
// so a decoded failure has an empty Kind.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{Success: w.Success}
	if w.Output != nil {
		r.Output = *w.Output
	}
	if w.Error != nil {
		r.Error = *w.Error
	}
	return nil
}
