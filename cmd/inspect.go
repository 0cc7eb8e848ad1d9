package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/recording"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Capture the recorded signature of the element at a point",
	Long: `Hit-test a screen point and print the signature a recording would store
for the element there. With --save the signature is appended to a recording
file, which is created when missing.

Examples:
  desktop-replay inspect --x 400 --y 540
  desktop-replay inspect --x 400 --y 540 --save steps.json`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Float64("x", 0, "Screen X coordinate")
	inspectCmd.Flags().Float64("y", 0, "Screen Y coordinate")
	inspectCmd.Flags().String("save", "", "Append the signature to this recording file")
	_ = inspectCmd.MarkFlagRequired("x")
	_ = inspectCmd.MarkFlagRequired("y")
}

func runInspect(cmd *cobra.Command, args []string) error {
	x, _ := cmd.Flags().GetFloat64("x")
	y, _ := cmd.Flags().GetFloat64("y")
	savePath, _ := cmd.Flags().GetString("save")

	provider, err := newProvider()
	if err != nil {
		return err
	}
	session := resolve.NewSession(provider)
	defer session.Stop()

	sig, err := session.Inspect(cmd.Context(), x, y, savePath != "")
	if err != nil {
		return err
	}

	if savePath != "" {
		existing, err := recording.LoadAll(savePath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		sig.ClickIndex = len(existing)
		if err := recording.Save(savePath, append(existing, *sig)); err != nil {
			return err
		}
		logger.Info("saved step", "step", describe(sig), "file", savePath, "index", sig.ClickIndex)
	}
	return output.Print(sig)
}

// describe formats a signature for log lines.
func describe(sig *model.RecordedSignature) string {
	return fmt.Sprintf("%s %q in %s", sig.Role, sig.RecordedLabel(), sig.AppLabel())
}
