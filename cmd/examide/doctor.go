package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/exam-ide/internal/executor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which language toolchains work on this host",
	Long: `Run a hello-world program in every enabled language and report which
toolchains are usable. Exit status is 1 if any language is broken.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// helloWorld holds a program per language that prints exactly "hello\n".
var helloWorld = map[executor.Language]string{
	executor.Python:     `print("hello")`,
	executor.JavaScript: `console.log("hello")`,
	executor.Java: `public class Main {
    public static void main(String[] args) {
        System.out.println("hello");
    }
}
`,
	executor.CPP: `#include <iostream>
int main() { std::cout << "hello" << std::endl; return 0; }
`,
	executor.C: `#include <stdio.h>
int main(void) { printf("hello\n"); return 0; }
`,
}

// check is the doctor verdict for one language.
type check struct {
	language executor.Language
	result   executor.Result
	duration time.Duration
}

func (p check) ok() bool {
	return p.result.Success && p.result.Output == "hello\n"
}

// checkAll runs every hello-world concurrently, in the order of languages.
func checkAll(ctx context.Context, exec executor.Executor, languages []executor.Language) []check {
	checks := make([]check, len(languages))

	var g errgroup.Group
	for i, lang := range languages {
		g.Go(func() error {
			start := time.Now()
			res := exec.Execute(ctx, executor.ExecutionRequest{Code: helloWorld[lang], Language: string(lang)})
			checks[i] = check{language: lang, result: res, duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	return checks
}

// printChecks writes one row per language and returns how many are broken.
func printChecks(w io.Writer, checks []check) int {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	broken := 0
	for _, p := range checks {
		if p.ok() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.language, ok("OK"), p.duration.Round(time.Millisecond))
			continue
		}
		broken++
		detail := p.result.Error
		if p.result.Success {
			detail = fmt.Sprintf("unexpected output %q", p.result.Output)
		}
		first, _, _ := strings.Cut(strings.TrimSpace(detail), "\n")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.language, bad("ERROR"), first)
	}
	_ = tw.Flush()
	return broken
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	checks := checkAll(cmd.Context(), a.engine, a.engine.Languages())
	if broken := printChecks(cmd.OutOrStdout(), checks); broken > 0 {
		return fmt.Errorf("%d of %d languages are not usable", broken, len(checks))
	}
	return nil
}
