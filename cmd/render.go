package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tipdensity/internal/pipeline"
)

var (
	runInput     string
	runOutputDir string
	runDPI       int
	runNoSummary bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the three density charts and the summary report",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd); err != nil {
		return err
	}
	if cmd.Flags().Changed("no-summary") && runNoSummary {
		cfg.SummaryEnabled = false
	}
	res, err := pipeline.Run(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s: group %q not plotted: %v\n", s.Chart, s.Group, s.Err)
	}
	for _, p := range res.Artifacts() {
		fmt.Fprintf(out, "✓ Wrote %s\n", p)
	}
	fmt.Fprintln(out, cfg.Labels.Done, res.OutputDir)
	return nil
}

// addRenderFlags registers the input/output overrides shared by the
// commands that run the pipeline.
func addRenderFlags(c *cobra.Command, charts bool) {
	c.Flags().StringVarP(&runInput, "input", "i", "", "input dataset (overrides input_path)")
	c.Flags().StringVarP(&runOutputDir, "output", "o", "", "output directory (overrides output_dir)")
	if charts {
		c.Flags().IntVar(&runDPI, "dpi", 0, "image resolution (overrides dpi)")
		c.Flags().BoolVar(&runNoSummary, "no-summary", false, "skip the summary report")
	}
}

func applyRunFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath = runInput
	}
	if f.Changed("output") {
		cfg.OutputDir = runOutputDir
	}
	if f.Lookup("dpi") != nil && f.Changed("dpi") {
		if runDPI <= 0 {
			return fmt.Errorf("invalid --dpi: %d", runDPI)
		}
		cfg.DPI = runDPI
	}
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd, true)
}
