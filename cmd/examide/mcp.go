package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/exam-ide/internal/transport/mcptool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the code_run tool over MCP stdio",
	Long: `Serve a single MCP tool, code_run(language, code), over stdin/stdout.

Register it with an MCP client as:
  {"command": "examide", "args": ["mcp"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		return mcptool.Serve(mcptool.NewServer(a.svc, a.cfg.Execution.Timeout, version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
