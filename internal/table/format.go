package table

import (
	"path/filepath"
	"strings"
)

// Format loads one kind of source file.
type Format interface {
	Name() string
	CanLoad(filename string) bool
	Load(l *Loader, data []byte) (*Table, error)
}

var registry []Format

// Register adds a format implementation to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// formatFor selects a format by file name, falling back to delimited text.
func formatFor(path string) Format {
	for _, f := range registry {
		if f.CanLoad(path) {
			return f
		}
	}
	return delimitedFormat{}
}

type delimitedFormat struct{}

func (delimitedFormat) Name() string { return "delimited" }

func (delimitedFormat) CanLoad(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (delimitedFormat) Load(l *Loader, data []byte) (*Table, error) {
	return l.LoadBytes(data), nil
}

func init() {
	Register(delimitedFormat{})
	Register(spreadsheetFormat{})
}
