package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/sakif/exam-ide/internal/transport/natsrpc"
)

var workerConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Serve executions from a NATS queue",
	Long: `Join the NATS queue group and answer execution requests.

Run one worker per host; NATS spreads requests across the group.

Examples:
  examide worker
  EXAMIDE_NATS_URL=nats://nats:4222 examide worker -j 4`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVarP(&workerConcurrency, "concurrency", "j", runtime.NumCPU(), "Executions to run at once")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name("examide-worker"))
	if err != nil {
		return fmt.Errorf("connecting to NATS at %s: %w", a.cfg.NATS.URL, err)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := natsrpc.NewWorker(nc, a.svc, a.cfg.NATS.Subject, a.cfg.NATS.Queue, workerConcurrency, a.logger)
	return w.Run(ctx)
}
