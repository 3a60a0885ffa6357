package table

import (
	"fmt"
	"strings"
)

// DataFormatError indicates that no recovery strategy produced a usable
// table from the source.
type DataFormatError struct {
	Path     string
	Strategy Strategy
	Reason   string
	Err      error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("unrecognized data format (strategy %s): %s", e.Strategy, e.Reason)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// MissingColumnError indicates an expected column is absent from the table.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}
