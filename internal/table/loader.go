package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Options controls how raw sources are recovered into tables.
type Options struct {
	// DefaultDelimiter is used when delimiter sniffing fails.
	DefaultDelimiter rune
	// SampleBytes is the size of the leading sample used for sniffing.
	SampleBytes int
	// Logger receives per-strategy diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the loader defaults: semicolon fallback delimiter
// and a 4 KiB sniffing sample.
func DefaultOptions() Options {
	return Options{
		DefaultDelimiter: ';',
		SampleBytes:      4096,
	}
}

// Loader turns raw delimited-text or spreadsheet sources into tables.
type Loader struct {
	opt Options
	log *zap.Logger
}

// NewLoader returns a Loader, filling zero options with defaults.
func NewLoader(opt Options) *Loader {
	def := DefaultOptions()
	if opt.DefaultDelimiter == 0 {
		opt.DefaultDelimiter = def.DefaultDelimiter
	}
	if opt.SampleBytes <= 0 {
		opt.SampleBytes = def.SampleBytes
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{opt: opt, log: log}
}

// Load reads the file at path and recovers a table from it. Read failures
// are returned as is. Format problems never fail: when every strategy is
// exhausted the result is the degenerate single-column table, which callers
// must reject (see CheckUsable).
func (l *Loader) Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	f := formatFor(path)
	l.log.Debug("loading source", zap.String("path", path), zap.String("format", f.Name()), zap.Int("bytes", len(data)))
	t, err := f.Load(l, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	l.log.Info("source loaded",
		zap.String("path", path),
		zap.String("strategy", string(t.Strategy())),
		zap.Int("rows", t.NumRows()),
		zap.Int("cols", t.NumCols()))
	return t, nil
}

// LoadUsable is Load followed by CheckUsable.
func (l *Loader) LoadUsable(path string, required ...string) (*Table, error) {
	t, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	if err := CheckUsable(t, required...); err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = path
		}
		return nil, err
	}
	return t, nil
}

// CheckUsable returns a *DataFormatError when t is the degenerate fallback
// or when a required column is missing or holds no value at all.
func CheckUsable(t *Table, required ...string) error {
	if !t.Usable() {
		return &DataFormatError{Strategy: t.Strategy(), Reason: "no strategy produced more than one column"}
	}
	for _, name := range required {
		c, err := t.MustColumn(name)
		if err != nil {
			return &DataFormatError{Strategy: t.Strategy(), Reason: "required column missing", Err: err}
		}
		if c.NonNull() == 0 {
			return &DataFormatError{Strategy: t.Strategy(), Reason: fmt.Sprintf("column %q is empty after parsing", c.Name())}
		}
	}
	return nil
}

// LoadBytes runs the delimited-text recovery chain over data.
func (l *Loader) LoadBytes(data []byte) *Table {
	// 1. comma, standard quoting
	for _, enc := range encodingList {
		if t, ok := l.attempt(data, enc, ',', StrategyDirect); ok {
			return t
		}
	}

	// 2. sniffed delimiter, or the configured fallback
	sample, truncated := leadingSample(data, l.opt.SampleBytes)
	text, _ := decodePermissive(sample)
	delim, err := SniffDelimiter(text, truncated)
	if err != nil {
		l.log.Debug("delimiter sniffing failed, using default",
			zap.String("default", string(l.opt.DefaultDelimiter)), zap.Error(err))
		delim = l.opt.DefaultDelimiter
	}
	for _, enc := range encodingList {
		if t, ok := l.attempt(data, enc, delim, StrategySniffed); ok {
			return t
		}
	}

	// 3. full-quote repair
	whole, enc := decodePermissive(data)
	repaired := RepairFullQuoted(whole)
	for _, d := range []rune{',', ';'} {
		t, err := parseDelimited(repaired, d)
		if err == nil && t.NumCols() > 1 {
			return t.withSource(StrategyRepaired, d, enc)
		}
		l.log.Debug("strategy rejected", zap.String("strategy", string(StrategyRepaired)),
			zap.String("delimiter", string(d)), zap.Error(err))
	}

	// 4. degenerate
	l.log.Warn("no strategy recovered a multi-column table")
	var vals []string
	for _, ln := range splitLines(repaired) {
		if strings.TrimSpace(ln) != "" {
			vals = append(vals, ln)
		}
	}
	return fromColumns([]*Column{newTextColumn(RawColumn, vals)}, len(vals)).
		withSource(StrategyDegenerate, 0, enc)
}

func (l *Loader) attempt(data []byte, enc string, delim rune, s Strategy) (*Table, bool) {
	text, err := decode(data, enc)
	if err == nil {
		var t *Table
		t, err = parseDelimited(text, delim)
		if err == nil {
			if t.NumCols() > 1 {
				return t.withSource(s, delim, enc), true
			}
			err = fmt.Errorf("single column")
		}
	}
	l.log.Debug("strategy rejected",
		zap.String("strategy", string(s)),
		zap.String("encoding", enc),
		zap.String("delimiter", string(delim)),
		zap.Error(err))
	return nil, false
}

var errEmptySource = errors.New("empty source")

// parseDelimited parses text with the first record as header. Blank lines
// are skipped, short records are padded with nulls and records wider than
// the header reject the parse.
func parseDelimited(text string, delim rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptySource
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		records = append(records, rec)
	}
	return newTable(header, records), nil
}
