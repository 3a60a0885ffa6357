package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/KaramelBytes/tipdensity/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger, set before any command runs
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tipdensity",
	Short: "Tip density charts and summaries from messy restaurant datasets",
	Long: `tipdensity loads a bills/tips dataset of unknown delimiter, quoting and
encoding, then writes density charts of the tip amount by sex, party size
and day of week, plus a descriptive statistics report.

Running tipdensity without a subcommand is the same as "tipdensity render".`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runRender,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tipdensity/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addRenderFlags(rootCmd, true)
}

// setup builds the logger and loads configuration.
func setup(cmd *cobra.Command, args []string) error {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger.Debug("config loaded", zap.String("input", cfg.InputPath), zap.String("output_dir", cfg.OutputDir))
	return nil
}
