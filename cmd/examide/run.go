package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/service"
	"github.com/sakif/exam-ide/internal/transport/natsrpc"
)

var (
	runLanguage string
	runJobs     int
	runRemote   bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] FILE...",
	Short: "Execute source files and print the results",
	Long: `Execute each file the way the IDE would and print one verdict per file.
The language is taken from --language or guessed from the file extension.
Exit status is 1 if any file failed.

Examples:
  examide run hello.py
  examide run -l cpp -j 8 submissions/*.cpp
  examide run --remote Main.java`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runLanguage, "language", "l", "", "Language of every file (default: from extension)")
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", runtime.NumCPU(), "Files to execute at once")
	runCmd.Flags().BoolVar(&runRemote, "remote", false, "Submit to NATS workers instead of executing locally")
	rootCmd.AddCommand(runCmd)
}

// extensions maps file extensions to language tags.
var extensions = map[string]executor.Language{
	".py":   executor.Python,
	".js":   executor.JavaScript,
	".mjs":  executor.JavaScript,
	".java": executor.Java,
	".cpp":  executor.CPP,
	".cc":   executor.CPP,
	".cxx":  executor.CPP,
	".c":    executor.C,
}

func languageFor(path, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return string(lang), nil
	}
	return "", fmt.Errorf("%s: cannot guess the language, use --language", path)
}

// fileResult is the verdict for one input file.
type fileResult struct {
	path     string
	result   executor.Result
	err      error
	duration time.Duration
}

func (r fileResult) failed() bool {
	return r.err != nil || !r.result.Success
}

// runFunc is ExecutionService.Run, or a stand-in in tests.
type runFunc func(ctx context.Context, code, language string) (executor.Result, error)

// runFiles executes every file with at most jobs in flight and returns the
// verdicts in input order.
func runFiles(ctx context.Context, run runFunc, paths []string, override string, jobs int) []fileResult {
	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for i, path := range paths {
		g.Go(func() error {
			results[i].path = path

			lang, err := languageFor(path, override)
			if err != nil {
				results[i].err = err
				return nil
			}
			code, err := os.ReadFile(path)
			if err != nil {
				results[i].err = err
				return nil
			}

			start := time.Now()
			results[i].result, results[i].err = run(ctx, string(code), lang)
			results[i].duration = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// printResults writes one verdict block per file and returns how many failed.
func printResults(w io.Writer, results []fileResult) int {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	failed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(w, "%s %s\n", fail("FAIL"), r.path)
			fmt.Fprintf(w, "%s\n", indent(r.err.Error()))
		case !r.result.Success:
			failed++
			fmt.Fprintf(w, "%s %s %s\n", fail("FAIL"), r.path, dim(fmt.Sprintf("(%s, %s)", r.result.Kind, r.duration.Round(time.Millisecond))))
			fmt.Fprintf(w, "%s\n", indent(r.result.Error))
		default:
			fmt.Fprintf(w, "%s   %s %s\n", ok("OK"), r.path, dim(fmt.Sprintf("(%s)", r.duration.Round(time.Millisecond))))
			fmt.Fprintf(w, "%s\n", indent(r.result.Output))
		}
	}
	return failed
}

func indent(s string) string {
	s = strings.TrimRight(s, "\n")
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	svc := a.svc
	if runRemote {
		nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name("examide-run"))
		if err != nil {
			return fmt.Errorf("connecting to NATS at %s: %w", a.cfg.NATS.URL, err)
		}
		defer nc.Close()

		client := natsrpc.NewClient(nc, a.cfg.NATS.Subject, a.cfg.NATS.RequestTimeout)
		svc = service.NewExecutionService(remoteEngine{client}, a.cfg.Server.MaxCodeLength, a.logger)
	}

	results := runFiles(cmd.Context(), svc.Run, args, runLanguage, runJobs)
	if failed := printResults(cmd.OutOrStdout(), results); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// remoteEngine adapts the NATS client to service.Engine. Language support is
// decided by the workers, so every canonical language is advertised.
type remoteEngine struct {
	*natsrpc.Client
}

func (remoteEngine) Languages() []executor.Language { return executor.Languages }

func (remoteEngine) InFlight() int64 { return 0 }
