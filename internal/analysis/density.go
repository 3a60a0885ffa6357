package analysis

import (
	"errors"
	"math"

	"github.com/aclements/go-moremath/stats"
)

var (
	ErrTooFewValues = errors.New("density needs at least two values")
	ErrZeroVariance = errors.New("dataset has zero variance")
)

// DensityOptions controls the evaluation grid of a density curve.
type DensityOptions struct {
	// GridSize is the number of evaluation points.
	GridSize int
	// Cut extends the grid this many bandwidths past the data extremes.
	Cut float64
}

// DefaultDensityOptions returns a 200 point grid cut 3 bandwidths out.
func DefaultDensityOptions() DensityOptions {
	return DensityOptions{GridSize: 200, Cut: 3}
}

// ScottBandwidth is Scott's rule for a one-dimensional Gaussian kernel:
// sd * n^(-1/5).
func ScottBandwidth(sd float64, n int) float64 {
	return sd * math.Pow(float64(n), -0.2)
}

// Curve is a density estimate sampled on a regular grid.
type Curve struct {
	Label     string
	N         int
	Bandwidth float64
	X         []float64
	Y         []float64
}

// Density fits a Gaussian KDE to values with Scott's rule bandwidth. The
// curve is normalized over its own sample only, so curves of differently
// sized groups compare by shape.
func Density(values []float64, opt DensityOptions) (Curve, error) {
	if len(values) < 2 {
		return Curve{}, ErrTooFewValues
	}
	if opt.GridSize < 2 {
		opt.GridSize = DefaultDensityOptions().GridSize
	}
	if opt.Cut < 0 {
		opt.Cut = 0
	}
	s := stats.Sample{Xs: append([]float64(nil), values...)}
	s.Sort()
	sd := s.StdDev()
	if sd == 0 || math.IsNaN(sd) {
		return Curve{}, ErrZeroVariance
	}
	bw := ScottBandwidth(sd, len(values))
	kde := &stats.KDE{Sample: s, Kernel: stats.GaussianKernel, Bandwidth: bw}

	lo, hi := s.Bounds()
	lo -= opt.Cut * bw
	hi += opt.Cut * bw
	c := Curve{N: len(values), Bandwidth: bw, X: make([]float64, opt.GridSize), Y: make([]float64, opt.GridSize)}
	step := (hi - lo) / float64(opt.GridSize-1)
	for i := range c.X {
		x := lo + float64(i)*step
		c.X[i] = x
		c.Y[i] = kde.PDF(x)
	}
	return c, nil
}

// Area integrates the curve with the trapezoid rule.
func (c Curve) Area() float64 {
	var a float64
	for i := 1; i < len(c.X); i++ {
		a += (c.X[i] - c.X[i-1]) * (c.Y[i] + c.Y[i-1]) / 2
	}
	return a
}

// Peak returns the highest density value.
func (c Curve) Peak() float64 {
	var m float64
	for _, y := range c.Y {
		if y > m {
			m = y
		}
	}
	return m
}

// Skipped records a group that produced no curve.
type Skipped struct {
	Key string
	Err error
}

// Densities fits one curve per group, in group order. Groups that cannot
// be estimated are reported rather than failing the whole set.
func Densities(g *Grouping, opt DensityOptions) ([]Curve, []Skipped) {
	var curves []Curve
	var skipped []Skipped
	for _, gr := range g.Groups {
		c, err := Density(gr.Values, opt)
		if err != nil {
			skipped = append(skipped, Skipped{Key: gr.Key, Err: err})
			continue
		}
		c.Label = gr.Key
		curves = append(curves, c)
	}
	return curves, skipped
}
