package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/recording"
)

var stepsCmd = &cobra.Command{
	Use:   "steps <file>",
	Short: "Summarise the steps of a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := recording.LoadAll(args[0])
		if err != nil {
			return err
		}
		return output.Print(output.Summarize(args[0], steps))
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
