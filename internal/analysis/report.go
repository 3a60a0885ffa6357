package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/KaramelBytes/tipdensity/internal/utils"
)

// Section is one titled block of the summary report.
type Section struct {
	Title    string
	Grouping *Grouping
}

// WriteSummary writes each section as a "# Title" line followed by a
// delimited table with one row per group. Sections are separated by a blank
// line. Undefined statistics are written as empty fields.
func WriteSummary(w io.Writer, sections []Section, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	for i, s := range sections {
		if s.Grouping == nil {
			return fmt.Errorf("section %q has no grouping", s.Title)
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "# %s\n", s.Title); err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		cw.Comma = delim
		if err := cw.Write([]string{s.Grouping.Column, "count", "mean", "median", "std"}); err != nil {
			return err
		}
		for _, g := range s.Grouping.Groups {
			rec := []string{
				g.Key,
				strconv.Itoa(g.Stats.Count),
				formatStat(g.Stats.Mean),
				formatStat(g.Stats.Median),
				formatStat(g.Stats.Std),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("write section %q: %w", s.Title, err)
		}
	}
	return nil
}

// SaveSummary renders the report and replaces path atomically.
func SaveSummary(path string, sections []Section, delim rune) error {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, sections, delim); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func formatStat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
