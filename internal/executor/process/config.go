package process

import (
	"time"

	"github.com/sakif/exam-ide/internal/executor"
)

// Argument placeholders understood in Toolchain command templates.
//
//	{code} the submitted source text (interpreted languages pass it inline)
//	{src}  absolute path of the source file inside the workspace
//	{out}  absolute path of the build artifact inside the workspace
//	{dir}  absolute path of the workspace itself
const (
	PlaceholderCode = "{code}"
	PlaceholderSrc  = "{src}"
	PlaceholderOut  = "{out}"
	PlaceholderDir  = "{dir}"
)

// Toolchain describes how one language is executed on the host.
//
// A toolchain with an empty Compile command is interpreted: the source is
// handed to Run inline and no workspace is created. Otherwise the source is
// written to SourceFile in a fresh workspace, compiled, then run.
type Toolchain struct {
	// Missing is reported verbatim when a toolchain binary is not on the host.
	Missing string
	// SourceFile is the fixed name the source is written to (compiled only).
	SourceFile string
	// ArtifactFile is the name {out} expands to (compiled only).
	ArtifactFile string
	Compile      []string
	Run          []string
}

// Interpreted reports whether the toolchain skips the compile phase.
func (t Toolchain) Interpreted() bool {
	return len(t.Compile) == 0
}

// DefaultMaxOutputBytes caps each captured stream when Config leaves it zero.
const DefaultMaxOutputBytes = 4 << 20

// Config holds the configuration for local process execution.
type Config struct {
	// Timeout bounds every spawned subprocess independently, so a
	// compile-then-run pipeline may take up to twice this long.
	Timeout time.Duration
	// MaxOutputBytes caps stdout and stderr of every subprocess separately.
	// Zero means DefaultMaxOutputBytes.
	MaxOutputBytes int64
	// WorkDir is the parent directory for workspaces. Empty means os.TempDir().
	WorkDir string
	// Languages restricts which languages are served. Empty means all of them.
	Languages []executor.Language
	// Toolchains maps every served language to how it is executed.
	Toolchains map[executor.Language]Toolchain
}

// DefaultConfig runs each phase for at most 10 seconds, keeps at most 4 MiB
// per stream, and uses the standard host toolchains.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxOutputBytes: DefaultMaxOutputBytes,
		Toolchains:     DefaultToolchains(),
	}
}

// DefaultToolchains returns the stock command lines for every language.
func DefaultToolchains() map[executor.Language]Toolchain {
	return map[executor.Language]Toolchain{
		executor.Python: {
			Missing: "Python not installed. Install Python 3 to run Python code",
			Run:     []string{"python3", "-c", PlaceholderCode},
		},
		executor.JavaScript: {
			Missing: "Node.js not installed. Install Node.js to run JavaScript",
			Run:     []string{"node", "-e", PlaceholderCode},
		},
		executor.Java: {
			Missing: "Java not installed. Install JDK to run Java code",
			// javac derives the class file from the public class, which must be Main.
			SourceFile: "Main.java",
			Compile:    []string{"javac", PlaceholderSrc},
			Run:        []string{"java", "-cp", PlaceholderDir, "Main"},
		},
		executor.CPP: {
			Missing:      "G++ not installed. Install GCC to run C++ code",
			SourceFile:   "main.cpp",
			ArtifactFile: "main",
			Compile:      []string{"g++", PlaceholderSrc, "-o", PlaceholderOut},
			Run:          []string{PlaceholderOut},
		},
		executor.C: {
			Missing:      "GCC not installed. Install GCC to run C code",
			SourceFile:   "main.c",
			ArtifactFile: "main",
			Compile:      []string{"gcc", PlaceholderSrc, "-o", PlaceholderOut},
			Run:          []string{PlaceholderOut},
		},
	}
}
