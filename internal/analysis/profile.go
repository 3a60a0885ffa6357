package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/tipdensity/internal/table"
)

// ProfileOptions controls dataset profiling.
type ProfileOptions struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Number is used to recognize numeric values in text columns.
	Number table.NumberFormat
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
}

// DefaultProfileOptions returns reasonable defaults for dataset profiling.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		SampleRows:       5,
		Number:           table.NumberFormat{DecimalSeparator: '.'},
		Outliers:         true,
		OutlierThreshold: 3.5,
		Correlations:     true,
	}
}

// Report is a markdown-friendly profile of a loaded table.
type Report struct {
	Name      string
	Rows      int
	Strategy  table.Strategy
	Delimiter rune
	Encoding  string
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Profile summarizes every column of t. Text columns whose values all parse
// as numbers are profiled as numeric.
func Profile(name string, t *table.Table, opt ProfileOptions) *Report {
	rep := &Report{
		Name:      name,
		Rows:      t.NumRows(),
		Strategy:  t.Strategy(),
		Delimiter: t.Delimiter(),
		Encoding:  t.Encoding(),
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for i := 0; i < t.NumRows() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Row(i))
	}

	var numNames []string
	var numVals [][]float64 // row-aligned, NaN for missing
	for _, c := range t.Columns() {
		s := ColumnSummary{Name: c.Name(), NonNull: c.NonNull(), Missing: c.Len() - c.NonNull()}
		vals, numeric := numericView(c, opt.Number)
		switch {
		case s.NonNull == 0:
			s.Kind = "empty"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s has no values", c.Name()))
		case numeric:
			s.Kind = "numeric"
			summarizeNumeric(&s, vals, opt)
			numNames = append(numNames, c.Name())
			numVals = append(numVals, vals)
		default:
			summarizeText(&s, c)
		}
		rep.Cols = append(rep.Cols, s)
	}

	switch rep.Strategy {
	case table.StrategyDegenerate:
		rep.Warnings = append(rep.Warnings, "no parsing strategy produced more than one column; data kept as raw lines")
	case table.StrategyRepaired:
		rep.Warnings = append(rep.Warnings, "rows were wrapped in quotes and had to be repaired")
	}

	if opt.Correlations && len(numNames) >= 2 {
		rep.Corr = correlations(numNames, numVals)
	}
	return rep
}

// numericView returns row-aligned values with NaN for nulls. ok is false
// when a non-null value does not parse.
func numericView(c *table.Column, nf table.NumberFormat) ([]float64, bool) {
	out := make([]float64, c.Len())
	for i := range out {
		if c.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		if v, ok := c.Float(i); ok {
			out[i] = v
			continue
		}
		v, ok := nf.ParseNumber(c.Text(i))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func summarizeNumeric(s *ColumnSummary, vals []float64, opt ProfileOptions) {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	sample := stats.Sample{Xs: present}
	s.Min, s.Max = sample.Bounds()
	s.Mean = sample.Mean()
	if len(present) > 1 {
		s.Std = sample.StdDev()
	}
	if !opt.Outliers || len(present) < 8 {
		return
	}
	median, mad := medianMAD(present)
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range present {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
}

func summarizeText(s *ColumnSummary, c *table.Column) {
	cats := map[string]int{}
	var examples []string
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := strings.TrimSpace(c.Text(i))
		if len(v) <= 64 && len(cats) <= 10000 {
			cats[v]++
		}
		if len(examples) < 3 {
			examples = append(examples, v)
		}
	}
	if len(cats) == 0 {
		s.Kind = "text"
		s.ExampleTexts = examples
		return
	}
	s.Kind = "categorical"
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	s.TopValues = tops
	s.Unique = len(cats)
}

// correlations computes pairwise Pearson r over rows where both values exist.
func correlations(names []string, cols [][]float64) *CorrMatrix {
	n := len(names)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for i := range cols[a] {
				x, y := cols[a][i], cols[b][i]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				xs = append(xs, x)
				ys = append(ys, y)
			}
			r := pearson(xs, ys)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			r = math.Max(-1, math.Min(1, r))
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mx := stats.Sample{Xs: xs}.Mean()
	my := stats.Sample{Xs: ys}.Mean()
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Markdown renders a compact report for the terminal or a standalone doc.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Parsed with: %s", r.Strategy))
	if r.Delimiter != 0 {
		b.WriteString(fmt.Sprintf(", delimiter %q", r.Delimiter))
	}
	if r.Encoding != "" {
		b.WriteString(fmt.Sprintf(", encoding %s", r.Encoding))
	}
	b.WriteString("\n\n")

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				b.WriteString(safeVal(truncateCell(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

// truncateCell shortens s to at most n runes, ending in "...".
func truncateCell(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	s := stats.Sample{Xs: append([]float64(nil), vals...)}
	median = s.Sort().Quantile(0.5)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	d := stats.Sample{Xs: dev}
	mad = d.Sort().Quantile(0.5)
	return
}
