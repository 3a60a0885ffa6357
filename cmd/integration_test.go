package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tipdensity/internal/table"
)

const tipsCSV = `total_conta,gorjeta,sexo,fumante,dia,tempo,quantidade
16.99,1.01,Mulher,Não,Dom,Jantar,2
10.34,1.66,Homem,Não,Dom,Jantar,3
21.01,3.50,Homem,Não,Sáb,Jantar,3
23.68,3.31,Homem,Não,Sáb,Jantar,2
24.59,3.61,Mulher,Não,Qui,Almoço,4
25.29,4.71,Homem,Sim,Qui,Almoço,4
8.77,2.00,Homem,Não,Sáb,Jantar,2
26.88,3.12,Homem,Não,Dom,Jantar,4
15.04,1.96,Homem,Sim,Qui,Almoço,2
14.78,3.23,Mulher,Sim,Sáb,Jantar,2
`

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestCLI_DefaultCommandRenders(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	in := writeInput(t, home, "Gorjetas.csv", tipsCSV)
	outDir := filepath.Join(home, "out")

	out := runCmd(t, "--input", in, "--output", outDir, "--dpi", "30")
	for _, name := range []string{"densidade_por_sexo.png", "densidade_por_quantidade.png", "densidade_por_dia.png", "resumo_estatistico.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, out, "Concluído! As imagens e o resumo foram salvos em: "+outDir)
}

func TestCLI_RenderNoSummary(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	in := writeInput(t, home, "Gorjetas.csv", tipsCSV)
	outDir := filepath.Join(home, "charts")

	runCmd(t, "render", "-i", in, "-o", outDir, "--dpi", "30", "--no-summary")
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCLI_Summarize(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	in := writeInput(t, home, "Gorjetas.csv", tipsCSV)
	outDir := filepath.Join(home, "resumo")

	out := runCmd(t, "summarize", "--input", in, "--output", outDir)
	assert.Contains(t, out, "✓ Wrote summary to")
	b, err := os.ReadFile(filepath.Join(outDir, "resumo_estatistico.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(b), "# Resumo"))
}

func TestCLI_InspectPrintsProfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	body := strings.ReplaceAll(tipsCSV, ",", ";")
	in := writeInput(t, home, "gorjetas_pv.csv", body)

	out := runCmd(t, "inspect", in)
	assert.Contains(t, out, "[DATASET SUMMARY]\nFile: gorjetas_pv.csv\nRows: 10")
	assert.Contains(t, out, "Parsed with: sniffed, delimiter ';'")
}

func TestCLI_InspectBatchWritesProfiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, d := range []string{"d1", "d2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(home, d), 0o755))
		writeInput(t, filepath.Join(home, d), "metrics.csv", "col1,col2\nA,1\nB,2\n")
	}
	outDir := filepath.Join(home, "profiles")

	out := runCmd(t, "inspect", filepath.Join(home, "d*", "metrics.csv"), "--output-dir", outDir)
	assert.Contains(t, out, "[1/2] Processing metrics.csv...")
	for _, name := range []string{"metrics.profile.md", "metrics__2.profile.md"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	// a second run overwrites instead of adding suffixes
	runCmd(t, "inspect", filepath.Join(home, "d*", "metrics.csv"), "--output-dir", outDir, "--quiet")
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProfilePathSuffixesWithinBatch(t *testing.T) {
	used := map[string]int{}
	assert.Equal(t, filepath.Join("out", "a.profile.md"), profilePath("out", "x/a.csv", used))
	assert.Equal(t, filepath.Join("out", "a__2.profile.md"), profilePath("out", "y/a.csv", used))
	assert.Equal(t, filepath.Join("out", "a__3.profile.md"), profilePath("out", "z/a.xlsx", used))
	assert.Equal(t, filepath.Join("out", "b.profile.md"), profilePath("out", "b.csv", used))
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "tip.yaml")

	runCmd(t, "--config", cfgPath, "config", "set", "dpi", "150")
	runCmd(t, "--config", cfgPath, "config", "set", "labels.x_axis", "Tip")
	out := runCmd(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "dpi: 150")
	assert.Contains(t, out, "x_axis: Tip")

	_, err := execCmd(t, "--config", cfgPath, "config", "set", "nope", "1")
	assert.ErrorContains(t, err, "unknown key")

	keys := runCmd(t, "config", "keys")
	assert.Contains(t, keys, "columns.tip\n")
}

func TestCLI_UnrecoverableInputFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	in := writeInput(t, home, "ruim.csv", "sem colunas aqui\nnem aqui\n")

	_, err := execCmd(t, "--input", in, "--output", filepath.Join(home, "out"))
	var dfe *table.DataFormatError
	require.ErrorAs(t, err, &dfe)
}

func TestCLI_RejectsUnknownArgs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := execCmd(t, "rendr")
	assert.Error(t, err)
}
