package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Target names a column to convert and the numeric kind to convert it to.
type Target struct {
	Column string
	Kind   Kind
}

// NumberFormat controls how text is read as a number.
type NumberFormat struct {
	// DecimalSeparator is '.' or ','. If 0, auto-detect per value.
	DecimalSeparator rune
}

// ParseDecimalSeparator maps a config value to a separator: ".", "," or
// "auto" (0).
func ParseDecimalSeparator(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ".", "dot", "":
		return '.', nil
	case ",", "comma":
		return ',', nil
	case "auto":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported decimal separator %q (use '.', ',' or 'auto')", s)
}

// Coerce returns a copy of t with each target column converted. Values that
// do not parse become null; only a missing column is an error.
func (t *Table) Coerce(nf NumberFormat, targets ...Target) (*Table, error) {
	cols := t.Columns()
	for _, tg := range targets {
		i, ok := t.index[NormalizeName(tg.Column)]
		if !ok {
			return nil, &MissingColumnError{Column: tg.Column, Available: t.Names()}
		}
		cols[i] = coerceColumn(cols[i], tg.Kind, nf)
	}
	return fromColumns(cols, t.rows).withSource(t.strategy, t.delimiter, t.encoding), nil
}

func coerceColumn(src *Column, kind Kind, nf NumberFormat) *Column {
	if kind == KindText {
		vals := make([]string, src.Len())
		for i := range vals {
			vals[i] = src.Text(i)
		}
		return newTextColumn(src.name, vals)
	}
	c := &Column{name: src.name, kind: kind, nums: make([]float64, src.Len()), valid: make([]bool, src.Len())}
	for i := 0; i < src.Len(); i++ {
		v, ok := src.Float(i)
		if !ok && !src.IsNull(i) && src.kind == KindText {
			v, ok = parseNumber(src.text[i], nf.DecimalSeparator)
		}
		if ok && kind == KindInt && v != math.Trunc(v) {
			ok = false
		}
		if ok {
			c.nums[i] = v
			c.valid[i] = true
		}
	}
	return c
}

// ParseNumber parses s with the given decimal separator; 0 detects it per
// value. NaN and infinities are rejected.
func (nf NumberFormat) ParseNumber(s string) (float64, bool) {
	return parseNumber(s, nf.DecimalSeparator)
}

func parseNumber(s string, dec rune) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, false
	}
	var thou rune
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	} else if dec == ',' {
		thou = '.'
	}
	if thou != 0 {
		raw = strings.ReplaceAll(raw, string(thou), "")
		raw = strings.ReplaceAll(raw, " ", "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
