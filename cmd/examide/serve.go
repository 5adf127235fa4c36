package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/exam-ide/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the exam IDE.

Endpoints:
  POST /api/execute    {"code": "...", "language": "python"}
  GET  /api/languages
  GET  /health

Examples:
  examide serve
  examide serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	port := a.cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	srv, err := server.New(server.Config{
		Port:      port,
		JWTSecret: a.cfg.Auth.JWTSecret,
		// Compile and run each get the full timeout, plus slack for kill and I/O.
		WriteTimeout: 2*a.cfg.Execution.Timeout + 15*time.Second,
	}, a.svc, a.logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
