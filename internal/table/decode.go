package table

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names accepted by decode.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	encodingList = []string{EncodingUTF8, EncodingLatin1}
)

// decode converts raw bytes to a string under the named encoding. A UTF-8
// BOM is dropped first whatever the encoding. UTF-8 decoding is strict;
// Latin-1 maps every byte and never fails.
func decode(b []byte, enc string) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	switch enc {
	case EncodingUTF8:
		if !utf8.Valid(b) {
			return "", fmt.Errorf("invalid %s byte sequence", enc)
		}
		return string(b), nil
	case EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", enc, err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}
}

// decodePermissive never fails: valid UTF-8 is kept as is, anything else is
// read as Latin-1 so no byte is lost. It reports the encoding it used.
func decodePermissive(b []byte) (string, string) {
	if s, err := decode(b, EncodingUTF8); err == nil {
		return s, EncodingUTF8
	}
	s, _ := decode(b, EncodingLatin1)
	return s, EncodingLatin1
}

// leadingSample returns at most n bytes from the start of b without
// splitting a trailing multi-byte rune.
func leadingSample(b []byte, n int) (sample []byte, truncated bool) {
	if n <= 0 || len(b) <= n {
		return b, false
	}
	cut := n
	for p := n - 1; p >= 0 && p >= n-utf8.UTFMax; p-- {
		if utf8.RuneStart(b[p]) {
			if !utf8.FullRune(b[p:n]) {
				cut = p
			}
			break
		}
	}
	return b[:cut], true
}
