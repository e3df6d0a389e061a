package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("a/../b/c.vm")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "c.vm", filepath.Base(full))
	assert.Equal(t, "b", filepath.Base(parent))
}

func TestDiscoverSourcesFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "Main.vm")
	touch(t, f)

	files, err := DiscoverSources(f)
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
}

func TestDiscoverSourcesDirectorySorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"Sys.vm", "Main.vm", "notes.txt", "Array.vm"} {
		touch(t, filepath.Join(dir, n))
	}
	touch(t, filepath.Join(dir, "sub", "Nested.vm"))

	files, err := DiscoverSources(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "Array.vm"),
		filepath.Join(dir, "Main.vm"),
		filepath.Join(dir, "Sys.vm"),
	}, files)
	assert.True(t, HasSysInit(files))
}

func TestDiscoverSourcesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := DiscoverSources(dir)
	assert.True(t, errors.Is(err, ErrNoSources))

	txt := filepath.Join(dir, "prog.asm")
	touch(t, txt)
	_, err = DiscoverSources(txt)
	assert.Error(t, err)

	_, err = DiscoverSources(filepath.Join(dir, "missing.vm"))
	assert.Error(t, err)
}

func TestOutputPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Prog.vm")
	touch(t, file)
	progDir := filepath.Join(dir, "FibonacciElement")
	touch(t, filepath.Join(progDir, "Main.vm"))

	asm, bin, err := OutputPaths(file, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Prog.asm"), asm)
	assert.Equal(t, filepath.Join(dir, "Prog.hack"), bin)

	asm, bin, err = OutputPaths(progDir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(progDir, "FibonacciElement.asm"), asm)
	assert.Equal(t, filepath.Join(progDir, "FibonacciElement.hack"), bin)

	asm, _, err = OutputPaths(progDir, "/tmp/out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/out", "FibonacciElement.asm"), asm)
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "dir/Prog.hack", ReplaceExt("dir/Prog.asm", HackExt))
	assert.Equal(t, "Prog", TrimExt("Prog.vm"))
	assert.False(t, HasSysInit([]string{"Main.vm", "MySys.vm"}))
}
