package table

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type spreadsheetFormat struct{}

func (spreadsheetFormat) Name() string { return "spreadsheet" }

func (spreadsheetFormat) CanLoad(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Load reads the first sheet. A header row with more than one non-empty
// cell is taken as already tabular; otherwise the first column holds
// exported text lines that go through the delimited recovery chain.
func (spreadsheetFormat) Load(l *Loader, data []byte) (*Table, error) {
	rows, err := firstSheetRows(data)
	if err != nil {
		// mislabeled text exports are common; treat the bytes as text
		l.log.Warn("not a readable spreadsheet, recovering as text", zap.Error(err))
		return l.LoadBytes(data), nil
	}
	if len(rows) > 0 && nonEmptyCells(rows[0]) > 1 {
		header := rows[0]
		records := make([][]string, 0, len(rows)-1)
		for i, row := range rows[1:] {
			if nonEmptyCells(row) == 0 {
				continue
			}
			if len(row) > len(header) {
				if n := nonEmptyCells(row[len(header):]); n > 0 {
					l.log.Warn("dropping cells beyond the header",
						zap.Int("row", i+2), zap.Int("cells", n))
				}
				row = row[:len(header)]
			}
			records = append(records, row)
		}
		return newTable(header, records).withSource(StrategySpreadsheet, 0, EncodingUTF8), nil
	}

	var lines []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			lines = append(lines, v)
		}
	}
	l.log.Debug("spreadsheet is single-column, recovering as text", zap.Int("lines", len(lines)))
	return l.LoadBytes([]byte(strings.Join(lines, "\n"))), nil
}

func firstSheetRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in spreadsheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}
