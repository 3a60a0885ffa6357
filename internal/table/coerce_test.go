package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInvalidValuesBecomeNull(t *testing.T) {
	src := newTable(
		[]string{"total_conta", "gorjeta", "quantidade", "sexo"},
		[][]string{
			{"16.99", "1.01", "2", "Mulher"},
			{"abc", " 3.5 ", "", "Homem"},
			{"", "n/a", "2.5", "Homem"},
			{"10", "NaN", "4", "Mulher"},
		},
	)
	got, err := src.Coerce(NumberFormat{DecimalSeparator: '.'},
		Target{Column: "total_conta", Kind: KindFloat},
		Target{Column: "gorjeta", Kind: KindFloat},
		Target{Column: "quantidade", Kind: KindInt},
	)
	require.NoError(t, err)

	bill, _ := got.Column("total_conta")
	assert.Equal(t, KindFloat, bill.Kind())
	assert.Equal(t, []float64{16.99, 10}, bill.Floats())
	assert.True(t, bill.IsNull(1))
	assert.True(t, bill.IsNull(2))

	tip, _ := got.Column("gorjeta")
	assert.Equal(t, []float64{1.01, 3.5}, tip.Floats())
	assert.True(t, tip.IsNull(3), "NaN text is not a usable value")

	size, _ := got.Column("quantidade")
	assert.Equal(t, KindInt, size.Kind())
	v, ok := size.Int(0)
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
	assert.True(t, size.IsNull(1), "empty string must be null, not zero")
	assert.True(t, size.IsNull(2), "non-integral party size must be null")
	assert.Equal(t, 2, size.NonNull())
	assert.Equal(t, "4", size.Text(3))

	sex, _ := got.Column("sexo")
	assert.Equal(t, KindText, sex.Kind())
	assert.Equal(t, "Homem", sex.Text(1))
}

func TestCoerceLeavesSourceUntouched(t *testing.T) {
	src := newTable([]string{"gorjeta", "dia"}, [][]string{{"1.5", "Dom"}})
	_, err := src.Coerce(NumberFormat{DecimalSeparator: '.'}, Target{Column: "gorjeta", Kind: KindFloat})
	require.NoError(t, err)

	c, _ := src.Column("gorjeta")
	assert.Equal(t, KindText, c.Kind())
	assert.Equal(t, "1.5", c.Text(0))
}

func TestCoerceMissingColumn(t *testing.T) {
	src := newTable([]string{"gorjeta", "dia"}, [][]string{{"1.5", "Dom"}})
	_, err := src.Coerce(NumberFormat{}, Target{Column: "quantidade", Kind: KindInt})
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "quantidade", mce.Column)
}

func TestParseNumberSeparators(t *testing.T) {
	cases := []struct {
		in   string
		dec  rune
		want float64
		ok   bool
	}{
		{"1.5", '.', 1.5, true},
		{"1,5", '.', 0, false},
		{"1,5", ',', 1.5, true},
		{"1.234,5", ',', 1234.5, true},
		{"1.234,5", 0, 1234.5, true},
		{"1,234.5", 0, 1234.5, true},
		{"2,75", 0, 2.75, true},
		{"3", 0, 3, true},
		{" 7 ", '.', 7, true},
		{"", 0, 0, false},
		{"Inf", '.', 0, false},
		{"dois", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in, tc.dec)
		assert.Equal(t, tc.ok, ok, "parseNumber(%q, %q)", tc.in, tc.dec)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "parseNumber(%q, %q)", tc.in, tc.dec)
		}
	}
}

func TestParseDecimalSeparator(t *testing.T) {
	for in, want := range map[string]rune{".": '.', "": '.', "comma": ',', ",": ',', "AUTO": 0} {
		got, err := ParseDecimalSeparator(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDecimalSeparator(";")
	assert.Error(t, err)
}
