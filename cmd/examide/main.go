// Command examide is the code execution backend of the exam IDE.
//
// Subcommands:
//
//	serve   HTTP API used by the IDE
//	worker  NATS queue worker for multi-host deployments
//	mcp     MCP tool server over stdio
//	run     execute local files from the terminal
//	doctor  check which toolchains work on this host
//	token   mint a participant token
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/exam-ide/internal/config"
	"github.com/sakif/exam-ide/internal/executor/process"
	"github.com/sakif/exam-ide/internal/logging"
	"github.com/sakif/exam-ide/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "examide",
	Short: "examide - code execution backend for the exam IDE",
	Long: `examide runs participant code (python, javascript, java, cpp, c) on this host
with a per-step timeout and returns a uniform success/failure result.

Configuration is read from examide.yaml (., $HOME/.examide or --config),
.env and EXAMIDE_* environment variables.`,
	SilenceUsage: true,
	Version:      version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to examide.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every subcommand needs, built from the loaded configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *process.Executor
	svc    *service.ExecutionService
}

// setup loads configuration and builds the local engine. Logs go to stderr
// so stdout stays free for results and the MCP protocol.
func setup() (*app, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	pc, err := cfg.ProcessConfig()
	if err != nil {
		return nil, err
	}
	engine, err := process.New(pc, logger)
	if err != nil {
		return nil, fmt.Errorf("creating executor: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		svc:    service.NewExecutionService(engine, cfg.Server.MaxCodeLength, logger),
	}, nil
}
