package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "Gorjetas.csv"), c.InputPath)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, 200, c.DPI)
	assert.Equal(t, 10.0, c.FigureWidthIn)
	assert.Equal(t, 6.0, c.FigureHeightIn)
	assert.Equal(t, ";", c.DefaultDelimiter)
	assert.Equal(t, 4096, c.SniffSampleBytes)
	assert.True(t, c.SummaryEnabled)
	assert.Equal(t, "resumo_estatistico.csv", c.SummaryFile)
	assert.Equal(t, "gorjeta", c.Columns.Tip)
	assert.Equal(t, "tempo", c.Columns.Time)
	assert.Equal(t, "Densidade do valor de gorjetas por sexo", c.Labels.TitleSex)
	assert.Equal(t, "appearance", c.Order.Day)
	assert.Equal(t, "blue", c.Palette["homem"])
	assert.Len(t, c.Columns.Required(), 7)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	isolateHome(t)
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("dpi: 100\noutput_dir: saida\ncolumns:\n  tip: tip\n"), 0o644))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 100, c.DPI)
	assert.Equal(t, "saida", c.OutputDir)
	assert.Equal(t, "tip", c.Columns.Tip)
	assert.Equal(t, "sexo", c.Columns.Sex, "unset nested keys keep defaults")

	t.Setenv("TIPDENSITY_DPI", "300")
	t.Setenv("TIPDENSITY_COLUMNS_TIP", "valor_gorjeta")
	c, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, 300, c.DPI)
	assert.Equal(t, "valor_gorjeta", c.Columns.Tip)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolateHome(t)
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("decimal_separator: ';'\n"), 0o644))
	_, err := Load(p)
	assert.ErrorContains(t, err, "decimal_separator")

	require.NoError(t, os.WriteFile(p, []byte("dpi: [1, 2\n"), 0o644))
	_, err = Load(p)
	assert.ErrorContains(t, err, "read config")
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("dpi", "150"))
	require.NoError(t, c.Set("summary_enabled", "false"))
	require.NoError(t, c.Set("labels.x_axis", "Tip"))
	require.NoError(t, c.Set("palette.Sáb", "#ff8000"))
	assert.Equal(t, 150, c.DPI)
	assert.False(t, c.SummaryEnabled)

	require.NoError(t, Save(c, ""))
	path, err := DefaultPath()
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	back, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 150, back.DPI)
	assert.False(t, back.SummaryEnabled)
	assert.Equal(t, "Tip", back.Labels.XAxis)
	assert.Equal(t, "#ff8000", back.Palette["sáb"])
	assert.Equal(t, "purple", back.Palette["mulher"])
}

func TestSetRejectsBadInput(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)

	assert.ErrorContains(t, c.Set("api_key", "x"), "unknown key")
	assert.Error(t, c.Set("dpi", "alto"))
	assert.Error(t, c.Set("dpi", "0"))
	assert.Error(t, c.Set("order.day", "random"))
	assert.Equal(t, 200, c.DPI, "failed set leaves config unchanged")
	assert.Equal(t, "appearance", c.Order.Day)
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', ";": ';', "tab": '\t', "\t": '\t', "Semicolon": ';', "|": '|'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", ",,", `"`} {
		_, err := ParseDelimiter(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeysAreSorted(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "columns.tip")
	assert.Contains(t, keys, "labels.done")
	assert.IsIncreasing(t, keys)
}
