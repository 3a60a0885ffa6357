package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tipdensity/internal/utils"
)

func TestSafeWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "resumo.csv")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0o644))

	require.NoError(t, utils.SafeWriteFile(p, []byte("new")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteFileWithKeepsOldContentOnError(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "chart.png")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0o644))

	boom := errors.New("encode failed")
	err := utils.WriteFileWith(p, func(f *os.File) error {
		_, _ = f.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, utils.EnsureDir(p))
	require.NoError(t, utils.EnsureDir(p))
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
