package table

import (
	"strings"
)

// RepairFullQuoted undoes full-row quoting: per line it drops a BOM and
// trailing whitespace, strips one outer pair of double quotes when the line
// both starts and ends with one, and collapses doubled quotes. Lines are
// rejoined with "\n".
func RepairFullQuoted(text string) string {
	lines := splitLines(text)
	for i, ln := range lines {
		lines[i] = repairLine(ln)
	}
	return strings.Join(lines, "\n")
}

func repairLine(ln string) string {
	ln = strings.Trim(ln, "\ufeff")
	ln = strings.TrimRight(ln, " \t\r\n\v\f")
	if len(ln) >= 2 && strings.HasPrefix(ln, `"`) && strings.HasSuffix(ln, `"`) {
		ln = ln[1 : len(ln)-1]
	}
	return strings.ReplaceAll(ln, `""`, `"`)
}

// splitLines splits on \n, \r\n and \r without keeping terminators. A
// trailing terminator does not produce an empty final line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
