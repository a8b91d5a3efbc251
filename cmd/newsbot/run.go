package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsbot/internal/domain/entity"
	"newsbot/internal/infra/worker"
	"newsbot/internal/observability/logging"
	"newsbot/internal/observability/tracing"
	"newsbot/internal/usecase/run"

	"github.com/spf13/cobra"
)

var (
	runTopics []string
	runDryRun bool
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one relay pass and exit",
	Long: `Run one relay pass over the requested topics (all configured topics by default).

Exit status: 0 when every topic completed, 1 when some source, delivery or
watermark commit failed, 2 when the run was aborted by configuration or
watermark loading.`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringSliceVarP(&runTopics, "topic", "t", nil, "topic to run (repeatable; default all configured topics)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "log batches instead of delivering them and leave watermarks untouched")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run report as JSON on stdout")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	requested, err := parseTopicFlags(runTopics)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{DryRun: runDryRun})
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer a.Close()

	shutdown := tracing.Setup(a.logger)
	defer func() { _ = shutdown(context.Background()) }()

	report, err := a.coordinator.Run(logging.WithLogger(ctx, a.logger), requested)
	if report == nil {
		return &exitError{code: 2, err: err}
	}
	if runJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("encode report: %w", encErr)
		}
	}
	if code := report.ExitCode(); code != 0 {
		// The report is already logged; only an abort needs its cause repeated.
		return &exitError{code: code, err: err}
	}
	return nil
}

// parseTopicFlags validates --topic values; comma-separated lists are
// accepted too.
func parseTopicFlags(raw []string) ([]entity.TopicID, error) {
	out := make([]entity.TopicID, 0, len(raw))
	for _, r := range raw {
		id, err := entity.ParseTopicID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// summarize reduces a report to what the health endpoint exposes.
func summarize(r *run.Report) worker.RunSummary {
	return worker.RunSummary{
		RunID:      r.RunID,
		State:      string(r.State),
		ExitCode:   r.ExitCode(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Delivered:  r.ArticlesDelivered,
		Failures:   len(r.Failures),
	}
}
