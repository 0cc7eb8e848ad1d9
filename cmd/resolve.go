package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/overlay"
	"github.com/mj1618/desktop-replay/internal/recording"
	"github.com/mj1618/desktop-replay/internal/server"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Resolve one recorded step against the live desktop",
	Long: `Find the element a recorded step refers to and optionally perform it.

Without --click the step is validated only: the pointer hovers the resolved
point and nothing is pressed.

Examples:
  desktop-replay resolve steps.json
  desktop-replay resolve steps.json --index 2 --click
  desktop-replay resolve steps.json --click --safe-click=false --retries 5
  desktop-replay resolve steps.json --diag-image resolve.png`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Int("index", -1, "Step index (negative = last step)")
	resolveCmd.Flags().Bool("hover", false, "Hover the final point and re-check the element before acting")
	resolveCmd.Flags().String("diag-image", "", "Write a PNG of the window with predicted, candidate and final points")
	addExecutionFlags(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	file := args[0]
	index, _ := cmd.Flags().GetInt("index")
	diagPath, _ := cmd.Flags().GetString("diag-image")

	step, err := recording.Load(file, index)
	if err != nil {
		return err
	}
	provider, err := newProvider()
	if err != nil {
		return err
	}
	engine, err := newEngine(provider)
	if err != nil {
		return err
	}

	res, resolveErr := engine.ResolveAndExecute(cmd.Context(), step.Signature, resolveOptions(cmd, engine))

	if diagPath != "" {
		if scene, err := diagnosticScene(step.Signature, res); err != nil {
			logger.Warn("skipping diagnostic image", "error", err)
		} else if err := overlay.WriteFile(diagPath, scene); err != nil {
			logger.Warn("writing diagnostic image failed", "path", diagPath, "error", err)
		}
	}

	resp := server.ResolveResponse{File: file, Index: step.Index, Total: step.Total, Result: res}
	if resolveErr != nil {
		resp.Error = resolveErr.Error()
	}
	if err := output.Print(resp); err != nil {
		return err
	}
	return resolveErr
}
