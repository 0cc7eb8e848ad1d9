package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/recording"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay every step of a recording in order",
	Long: `Resolve and perform the steps of a recording one after another.

Examples:
  desktop-replay replay steps.json --click
  desktop-replay replay steps.json --from 3 --to 5 --click --stop-on-error`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Int("from", 0, "First step index")
	replayCmd.Flags().Int("to", -1, "Last step index (negative = last step)")
	replayCmd.Flags().Bool("stop-on-error", false, "Stop at the first failed step")
	addExecutionFlags(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	file := args[0]
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

	steps, err := recording.LoadAll(file)
	if err != nil {
		return err
	}
	if to < 0 || to >= len(steps) {
		to = len(steps) - 1
	}
	if from < 0 || from > to {
		return fmt.Errorf("invalid step range %d..%d for %d steps", from, to, len(steps))
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}
	engine, err := newEngine(provider)
	if err != nil {
		return err
	}
	opts := resolveOptions(cmd, engine)

	report := output.ReplayReport{File: file, Total: to - from + 1}
	for i := from; i <= to; i++ {
		if err := cmd.Context().Err(); err != nil {
			report.Stopped = true
			break
		}
		rec := &steps[i]
		res, err := engine.ResolveAndExecute(cmd.Context(), rec, opts)
		report.Add(replayStep(i, rec.RecordedLabel(), res, err))
		if err != nil {
			logger.Warn("step failed", slog.Int("step", i), slog.String("error", err.Error()))
			if stopOnError {
				report.Stopped = true
				break
			}
		}
	}

	if err := output.Print(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d steps failed", report.Failed, report.Total)
	}
	return nil
}

func replayStep(i int, label string, res *resolve.Result, err error) output.ReplayStep {
	s := output.ReplayStep{Index: i, Label: label}
	if res != nil {
		s.Success = res.Success && err == nil
		s.Method = res.Method
		s.Stage = string(res.Stage)
		s.Source = res.Source
		s.Attempts = res.Attempts
		s.Point = res.Point
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
