package render

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotutil"

	"github.com/KaramelBytes/tipdensity/internal/analysis"
)

func smallConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.DPI = 50
	cfg.WidthIn, cfg.HeightIn = 4, 3
	return cfg
}

func sexGrouping() *analysis.Grouping {
	return &analysis.Grouping{Column: "sexo", Value: "gorjeta", Groups: []analysis.Group{
		{Key: "Homem", Values: []float64{1.66, 3.5, 3.31, 4.71, 2, 3.12, 1.96}},
		{Key: "Mulher", Values: []float64{1.01, 3.61, 3.23}},
	}}
}

func TestRenderWritesPNGAtConfiguredSize(t *testing.T) {
	cfg := smallConfig(t)
	r, err := New(cfg)
	require.NoError(t, err)

	path, skipped, err := r.Render(sexGrouping(), Chart{
		File: "densidade_por_sexo.png", Title: "Densidade do valor de gorjetas por sexo",
		FillAlpha: 0.4, LineWidth: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "densidade_por_sexo.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Width)
	assert.Equal(t, 150, img.Height)
}

func TestRenderReportsSkippedGroups(t *testing.T) {
	r, err := New(smallConfig(t))
	require.NoError(t, err)

	g := sexGrouping()
	g.Groups = append(g.Groups, analysis.Group{Key: "Outro", Values: []float64{2}})
	_, skipped, err := r.Render(g, Chart{File: "a.png", FillAlpha: 0.35, LineWidth: 1.2})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "Outro", skipped[0].Key)
}

func TestRenderWithoutCurvesStillWritesImage(t *testing.T) {
	cfg := smallConfig(t)
	r, err := New(cfg)
	require.NoError(t, err)

	g := &analysis.Grouping{Column: "dia", Groups: []analysis.Group{{Key: "Dom", Values: []float64{1}}}}
	path, skipped, err := r.Render(g, Chart{File: "vazio.png", FillAlpha: 0.35, LineWidth: 1.2})
	require.NoError(t, err)
	assert.Len(t, skipped, 1)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRenderFailsWhenOutputDirMissing(t *testing.T) {
	cfg := smallConfig(t)
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "nao-existe")
	r, err := New(cfg)
	require.NoError(t, err)
	_, _, err = r.Render(sexGrouping(), Chart{File: "x.png"})
	assert.ErrorContains(t, err, "write chart")
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.DPI = 0
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = smallConfig(t)
	cfg.HeightIn = -1
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestPaletteLookup(t *testing.T) {
	r, err := New(smallConfig(t))
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{B: 255, A: 255}, r.colorFor("Homem", 0))
	assert.Equal(t, color.RGBA{R: 128, B: 128, A: 255}, r.colorFor("mulher", 0), "palette keys match case-insensitively")

	r.cfg.Palette["Sáb"] = "#ff8000"
	assert.Equal(t, color.RGBA{R: 255, G: 128, A: 255}, r.colorFor("Sáb", 3))
	assert.Equal(t, plotutil.Color(2), r.colorFor("Dom", 2))
}

func TestWithAlpha(t *testing.T) {
	c := withAlpha(color.RGBA{R: 255, A: 255}, 0.4).(color.NRGBA)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(102), c.A)
}
