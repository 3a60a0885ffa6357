package table

import (
	"errors"
)

// Candidate delimiters in preference order; ties go to the earlier entry.
var sniffCandidates = []rune{',', '\t', ';'}

var errSniffFailed = errors.New("could not determine delimiter")

// SniffDelimiter infers the field delimiter of a text sample from how
// consistently each candidate appears per line. When truncated is true the
// last line is assumed partial and ignored.
func SniffDelimiter(sample string, truncated bool) (rune, error) {
	lines := splitLines(sample)
	if truncated && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	nonBlank := lines[:0:0]
	for _, ln := range lines {
		if ln != "" {
			nonBlank = append(nonBlank, ln)
		}
	}
	if len(nonBlank) == 0 {
		return 0, errSniffFailed
	}

	type stat struct {
		mode  int
		share float64
	}
	stats := make(map[rune]stat, len(sniffCandidates))
	for _, d := range sniffCandidates {
		freq := map[int]int{}
		for _, ln := range nonBlank {
			freq[countOutsideQuotes(ln, d)]++
		}
		mode, best := 0, -1
		for n, cnt := range freq {
			if cnt > best || (cnt == best && n > mode) {
				mode, best = n, cnt
			}
		}
		stats[d] = stat{mode: mode, share: float64(best) / float64(len(nonBlank))}
	}

	// Relax the required share one percent at a time.
	for pct := 100; pct >= 90; pct-- {
		threshold := float64(pct) / 100
		for _, d := range sniffCandidates {
			s := stats[d]
			if s.mode > 0 && s.share >= threshold {
				return d, nil
			}
		}
	}
	return 0, errSniffFailed
}

func countOutsideQuotes(line string, d rune) int {
	n := 0
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == d && !inQuote:
			n++
		}
	}
	return n
}
