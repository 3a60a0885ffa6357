// Package pipeline runs a full chart and summary generation pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tipdensity/internal/analysis"
	"github.com/KaramelBytes/tipdensity/internal/config"
	"github.com/KaramelBytes/tipdensity/internal/render"
	"github.com/KaramelBytes/tipdensity/internal/table"
	"github.com/KaramelBytes/tipdensity/internal/utils"
)

// Chart files, one per grouping dimension.
const (
	ChartSex  = "densidade_por_sexo.png"
	ChartSize = "densidade_por_quantidade.png"
	ChartDay  = "densidade_por_dia.png"
)

// SkippedGroup is a group left out of a chart.
type SkippedGroup struct {
	Chart string
	Group string
	Err   error
}

// Result lists what a run produced.
type Result struct {
	RunID     string
	Input     string
	OutputDir string
	Rows      int
	Cols      int
	Strategy  table.Strategy
	Charts    []string
	Summary   string
	Sections  []analysis.Section
	Skipped   []SkippedGroup
}

// Artifacts returns every written file path.
func (r *Result) Artifacts() []string {
	out := append([]string(nil), r.Charts...)
	if r.Summary != "" {
		out = append(out, r.Summary)
	}
	return out
}

type dimension struct {
	column  string
	order   analysis.Order
	chart   render.Chart
	section string
}

// Run loads the configured input once, renders the three density charts
// and writes the summary report when enabled.
func Run(ctx context.Context, cfg *config.Global, log *zap.Logger) (*Result, error) {
	return run(ctx, cfg, log, true, cfg.SummaryEnabled)
}

// Summarize writes only the summary report, regardless of summary_enabled.
func Summarize(ctx context.Context, cfg *config.Global, log *zap.Logger) (*Result, error) {
	return run(ctx, cfg, log, false, true)
}

func run(ctx context.Context, cfg *config.Global, log *zap.Logger, charts, summary bool) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	res := &Result{RunID: uuid.NewString(), Input: cfg.InputPath, OutputDir: cfg.OutputDir}
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("run started", zap.String("input", cfg.InputPath), zap.String("output_dir", cfg.OutputDir))

	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return nil, err
	}
	tb, err := Prepare(cfg, log)
	if err != nil {
		return nil, err
	}
	res.Rows, res.Cols, res.Strategy = tb.NumRows(), tb.NumCols(), tb.Strategy()

	dims, err := dimensions(cfg)
	if err != nil {
		return nil, err
	}
	groupings := make([]*analysis.Grouping, len(dims))
	for i, d := range dims {
		g, err := analysis.GroupBy(tb, d.column, cfg.Columns.Tip, d.order)
		if err != nil {
			return nil, err
		}
		groupings[i] = g
		res.Sections = append(res.Sections, analysis.Section{Title: d.section, Grouping: g})
	}

	if charts {
		r, err := render.New(render.Config{
			OutputDir: cfg.OutputDir,
			DPI:       cfg.DPI,
			WidthIn:   cfg.FigureWidthIn,
			HeightIn:  cfg.FigureHeightIn,
			XLabel:    cfg.Labels.XAxis,
			YLabel:    cfg.Labels.YAxis,
			Palette:   cfg.Palette,
			Density:   analysis.DensityOptions{GridSize: cfg.GridSize, Cut: analysis.DefaultDensityOptions().Cut},
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		for i, d := range dims {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			path, skipped, err := r.Render(groupings[i], d.chart)
			if err != nil {
				return res, err
			}
			for _, s := range skipped {
				res.Skipped = append(res.Skipped, SkippedGroup{Chart: d.chart.File, Group: s.Key, Err: s.Err})
			}
			res.Charts = append(res.Charts, path)
			log.Info("chart saved", zap.String("path", path))
		}
	}

	if summary {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		delim, err := config.ParseDelimiter(cfg.ReportDelimiter)
		if err != nil {
			return res, err
		}
		path := filepath.Join(cfg.OutputDir, cfg.SummaryFile)
		if err := analysis.SaveSummary(path, res.Sections, delim); err != nil {
			return res, err
		}
		res.Summary = path
		log.Info("summary saved", zap.String("path", path))
	}
	log.Info("run finished", zap.Int("artifacts", len(res.Artifacts())), zap.Int("skipped_groups", len(res.Skipped)))
	return res, nil
}

// Prepare loads the input, coerces the numeric columns and checks that the
// grouping and value columns still hold data.
func Prepare(cfg *config.Global, log *zap.Logger) (*table.Table, error) {
	delim, err := config.ParseDelimiter(cfg.DefaultDelimiter)
	if err != nil {
		return nil, err
	}
	dec, err := table.ParseDecimalSeparator(cfg.DecimalSeparator)
	if err != nil {
		return nil, err
	}
	loader := table.NewLoader(table.Options{
		DefaultDelimiter: delim,
		SampleBytes:      cfg.SniffSampleBytes,
		Logger:           log,
	})
	raw, err := loader.LoadUsable(cfg.InputPath, cfg.Columns.Required()...)
	if err != nil {
		return nil, err
	}
	tb, err := raw.Coerce(table.NumberFormat{DecimalSeparator: dec},
		table.Target{Column: cfg.Columns.Bill, Kind: table.KindFloat},
		table.Target{Column: cfg.Columns.Tip, Kind: table.KindFloat},
		table.Target{Column: cfg.Columns.Size, Kind: table.KindInt},
	)
	if err != nil {
		return nil, err
	}
	if err := table.CheckUsable(tb, cfg.Columns.Tip, cfg.Columns.Sex, cfg.Columns.Size, cfg.Columns.Day); err != nil {
		var dfe *table.DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = cfg.InputPath
			dfe.Reason += " after numeric coercion"
		}
		return nil, err
	}
	return tb, nil
}

func dimensions(cfg *config.Global) ([]dimension, error) {
	parse := func(name, s string) (analysis.Order, error) {
		o, err := analysis.ParseOrder(s)
		if err != nil {
			return "", fmt.Errorf("order.%s: %w", name, err)
		}
		return o, nil
	}
	sexOrder, err := parse("sex", cfg.Order.Sex)
	if err != nil {
		return nil, err
	}
	sizeOrder, err := parse("size", cfg.Order.Size)
	if err != nil {
		return nil, err
	}
	dayOrder, err := parse("day", cfg.Order.Day)
	if err != nil {
		return nil, err
	}
	return []dimension{
		{
			column:  cfg.Columns.Sex,
			order:   sexOrder,
			chart:   render.Chart{File: ChartSex, Title: cfg.Labels.TitleSex, FillAlpha: 0.4, LineWidth: 2},
			section: cfg.Labels.SectionSex,
		},
		{
			column:  cfg.Columns.Size,
			order:   sizeOrder,
			chart:   render.Chart{File: ChartSize, Title: cfg.Labels.TitleSize, FillAlpha: 0.35, LineWidth: 1.2},
			section: cfg.Labels.SectionSize,
		},
		{
			column:  cfg.Columns.Day,
			order:   dayOrder,
			chart:   render.Chart{File: ChartDay, Title: cfg.Labels.TitleDay, FillAlpha: 0.35, LineWidth: 1.2},
			section: cfg.Labels.SectionDay,
		},
	}, nil
}
