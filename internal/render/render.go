// Package render draws filled density charts as PNG images.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/tipdensity/internal/analysis"
	"github.com/KaramelBytes/tipdensity/internal/utils"
)

// Config holds everything a Renderer needs; there is no package state.
type Config struct {
	OutputDir string
	DPI       int
	WidthIn   float64
	HeightIn  float64
	XLabel    string
	YLabel    string
	// Palette maps a group value to a color name or #rrggbb. Keys are
	// matched case-insensitively; unmapped groups cycle the default palette.
	Palette map[string]string
	Density analysis.DensityOptions
	Logger  *zap.Logger
}

// DefaultConfig returns a 10x6 inch, 200 DPI figure with Portuguese labels.
func DefaultConfig() Config {
	return Config{
		OutputDir: "out",
		DPI:       200,
		WidthIn:   10,
		HeightIn:  6,
		XLabel:    "Gorjeta (unidade monetária)",
		YLabel:    "Densidade",
		Palette:   map[string]string{"Homem": "blue", "Mulher": "purple"},
		Density:   analysis.DefaultDensityOptions(),
	}
}

// Chart describes one density image.
type Chart struct {
	File      string
	Title     string
	FillAlpha float64
	LineWidth float64 // points
}

// Renderer writes density charts into the configured output directory.
type Renderer struct {
	cfg Config
	log *zap.Logger
}

// New validates cfg and returns a Renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.DPI <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", cfg.DPI)
	}
	if cfg.WidthIn <= 0 || cfg.HeightIn <= 0 {
		return nil, fmt.Errorf("invalid figure size %gx%g in", cfg.WidthIn, cfg.HeightIn)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{cfg: cfg, log: log}, nil
}

// Render fits one density curve per group of g and writes the chart. It
// returns the written path and the groups that had no curve.
func (r *Renderer) Render(g *analysis.Grouping, ch Chart) (string, []analysis.Skipped, error) {
	curves, skipped := analysis.Densities(g, r.cfg.Density)
	for _, s := range skipped {
		r.log.Warn("group skipped in density chart",
			zap.String("chart", ch.File), zap.String("column", g.Column),
			zap.String("group", s.Key), zap.Error(s.Err))
	}

	p, err := r.plot(g.Column, curves, ch)
	if err != nil {
		return "", skipped, fmt.Errorf("build chart %s: %w", ch.File, err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.cfg.WidthIn)*vg.Inch, vg.Length(r.cfg.HeightIn)*vg.Inch),
		vgimg.UseDPI(r.cfg.DPI),
	)
	p.Draw(draw.New(c))

	path := filepath.Join(r.cfg.OutputDir, ch.File)
	err = utils.WriteFileWith(path, func(f *os.File) error {
		if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", skipped, fmt.Errorf("write chart %s: %w", path, err)
	}
	r.log.Debug("chart written", zap.String("path", path), zap.Int("curves", len(curves)))
	return path, skipped, nil
}

func (r *Renderer) plot(legendTitle string, curves []analysis.Curve, ch Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = ch.Title
	p.X.Label.Text = r.cfg.XLabel
	p.Y.Label.Text = r.cfg.YLabel
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	if len(curves) > 0 {
		p.Legend.Add(legendTitle)
	} else {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Max = 1
	}

	for i, c := range curves {
		line := make(plotter.XYs, len(c.X))
		for j := range c.X {
			line[j] = plotter.XY{X: c.X[j], Y: c.Y[j]}
		}
		area := make(plotter.XYs, 0, len(line)+2)
		area = append(area, line...)
		area = append(area, plotter.XY{X: c.X[len(c.X)-1]}, plotter.XY{X: c.X[0]})

		base := r.colorFor(c.Label, i)
		fill, err := plotter.NewPolygon(area)
		if err != nil {
			return nil, err
		}
		fill.Color = withAlpha(base, ch.FillAlpha)
		fill.LineStyle.Width = 0

		l, err := plotter.NewLine(line)
		if err != nil {
			return nil, err
		}
		l.Color = base
		l.LineStyle.Width = vg.Points(ch.LineWidth)

		p.Add(fill, l)
		p.Legend.Add(c.Label, fill, l)
	}
	return p, nil
}

func (r *Renderer) colorFor(label string, i int) color.Color {
	for k, v := range r.cfg.Palette {
		if !strings.EqualFold(k, label) {
			continue
		}
		if c, ok := parseColor(v); ok {
			return c
		}
		r.log.Warn("unknown palette color", zap.String("group", label), zap.String("color", v))
	}
	return plotutil.Color(i)
}

// parseColor accepts an SVG color name or #rrggbb.
func parseColor(s string) (color.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}
	if len(s) == 7 && s[0] == '#' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return nil, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
	}
	return nil, false
}

func withAlpha(c color.Color, alpha float64) color.Color {
	alpha = math.Max(0, math.Min(1, alpha))
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(alpha * 255))
	return n
}
