package process

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exam-ide/internal/executor"
)

// These run the stock toolchains and skip whichever is not installed.
func TestDefaultToolchains_HelloWorld(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns real compilers")
	}

	tests := []struct {
		language executor.Language
		binaries []string
		code     string
	}{
		{executor.Python, []string{"python3"}, `print("hello")`},
		{executor.JavaScript, []string{"node"}, `console.log("hello")`},
		{executor.Java, []string{"javac", "java"},
			"public class Main {\n\tpublic static void main(String[] args) {\n\t\tSystem.out.println(\"hello\");\n\t}\n}\n"},
		{executor.CPP, []string{"g++"},
			"#include <iostream>\nint main() { std::cout << \"hello\" << std::endl; return 0; }\n"},
		{executor.C, []string{"gcc"},
			"#include <stdio.h>\nint main(void) { printf(\"hello\\n\"); return 0; }\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.language), func(t *testing.T) {
			for _, bin := range tt.binaries {
				if _, err := exec.LookPath(bin); err != nil {
					t.Skipf("%s not installed", bin)
				}
			}

			cfg := DefaultConfig()
			cfg.Timeout = 60 * time.Second
			cfg.WorkDir = t.TempDir()
			cfg.Languages = []executor.Language{tt.language}
			e, err := New(cfg, nil)
			require.NoError(t, err)

			res := e.Execute(context.Background(), executor.ExecutionRequest{Code: tt.code, Language: string(tt.language)})
			require.True(t, res.Success, "error: %s", res.Error)
			assert.Equal(t, "hello\n", res.Output)
			assertNoWorkspaces(t, cfg.WorkDir)
		})
	}
}
