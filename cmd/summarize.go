package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tipdensity/internal/pipeline"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Write only the descriptive statistics report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunFlags(cmd); err != nil {
			return err
		}
		res, err := pipeline.Summarize(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", res.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	addRenderFlags(summarizeCmd, false)
}
