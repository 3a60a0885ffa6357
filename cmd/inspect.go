package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tipdensity/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tipdensity/internal/config"
	"github.com/KaramelBytes/tipdensity/internal/table"
	"github.com/KaramelBytes/tipdensity/internal/utils"
)

var (
	insOutputDir  string
	insDelimiter  string
	insDecimal    string
	insSampleRows int
	insCorr       bool
	insOutliers   bool
	insOutlierThr float64
	insQuiet      bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <files...>",
	Short: "Show how files are recovered and profile their columns",
	Long: `inspect runs the same recovery chain as render on each file and prints a
Markdown profile: which strategy, delimiter and encoding parsed it, the
inferred kind of every column, basic statistics and a few sample rows.
Glob patterns are expanded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}

		delimSpec := cfg.DefaultDelimiter
		if insDelimiter != "" {
			delimSpec = insDelimiter
		}
		delim, err := cfgpkg.ParseDelimiter(delimSpec)
		if err != nil {
			return fmt.Errorf("unsupported --delimiter: %w", err)
		}
		decSpec := cfg.DecimalSeparator
		if insDecimal != "" {
			decSpec = insDecimal
		}
		dec, err := table.ParseDecimalSeparator(decSpec)
		if err != nil {
			return fmt.Errorf("unsupported --decimal: %w", err)
		}

		opt := analysis.DefaultProfileOptions()
		opt.Number = table.NumberFormat{DecimalSeparator: dec}
		if insSampleRows > 0 {
			opt.SampleRows = insSampleRows
		}
		opt.Correlations = insCorr
		opt.Outliers = insOutliers
		if insOutlierThr > 0 {
			opt.OutlierThreshold = insOutlierThr
		}

		loader := table.NewLoader(table.Options{DefaultDelimiter: delim, SampleBytes: cfg.SniffSampleBytes, Logger: logger})
		if insOutputDir != "" {
			if err := utils.EnsureDir(insOutputDir); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		used := map[string]int{}
		total := len(files)
		for i, path := range files {
			if total > 1 && !insQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := loader.Load(path)
			if err != nil {
				return err
			}
			md := analysis.Profile(filepath.Base(path), t, opt).Markdown()
			if !t.Usable() {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s could not be split into columns\n", path)
			}
			if insOutputDir == "" {
				fmt.Fprintln(out, md)
				continue
			}
			outFile := profilePath(insOutputDir, path, used)
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			if !insQuiet {
				fmt.Fprintf(out, "✓ Wrote profile to %s\n", outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// literal path; Load reports it if missing
			matches = []string{arg}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// profilePath picks <dir>/<base>.profile.md, adding a numeric suffix when
// an earlier file in the same batch already used the name. Files from
// earlier runs are overwritten.
func profilePath(dir, src string, used map[string]int) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := base + ".profile.md"
	if n, ok := used[name]; ok {
		for idx := n + 1; ; idx++ {
			cand := fmt.Sprintf("%s__%d.profile.md", base, idx)
			if _, taken := used[cand]; !taken {
				used[name] = idx
				name = cand
				break
			}
		}
	}
	used[name] = 1
	return filepath.Join(dir, name)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputDir, "output-dir", "o", "", "write one <name>.profile.md per file instead of printing")
	inspectCmd.Flags().StringVar(&insDelimiter, "delimiter", "", "fallback delimiter when sniffing fails: ',' | ';' | 'tab' (default from config)")
	inspectCmd.Flags().StringVar(&insDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'|'auto' (default from config)")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().BoolVar(&insCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	inspectCmd.Flags().BoolVar(&insOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	inspectCmd.Flags().Float64Var(&insOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	inspectCmd.Flags().BoolVar(&insQuiet, "quiet", false, "suppress progress and non-essential output")
}
