package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Diagnostics:
  - DiagnosticName: X
    DiagnosticMessage:
      Message: first
      FilePath: /src/a.cpp
      FileOffset: 4
      Replacements: []
  - DiagnosticName: Y
    DiagnosticMessage:
      Message: second
      FilePath: ''
      FileOffset: 0
      Replacements: []
  - DiagnosticName: X
    DiagnosticMessage:
      Message: third
      FilePath: /src/a.cpp
      FileOffset: 0
      Replacements: []
MainSourceFile: ''
`

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	var out bytes.Buffer
	cmd := newRootCmd(fs)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.cpp", []byte("one\ntwo\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/build/fixits.yaml", []byte(report), 0o644))
	return fs
}

func TestSplitClangTidyFixits(t *testing.T) {
	fs := newFs(t)

	out, err := execute(t, fs, "/build/fixits.yaml")
	require.NoError(t, err)
	assert.Equal(t, "X: 2 entries -> /build/X/fixits.yaml\nY: 1 entry -> /build/Y/fixits.yaml\n", out)

	x, err := afero.ReadFile(fs, "/build/X/fixits.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(x), "# FileLine: 2\n")
	assert.Contains(t, string(x), "# FileLine: 1\n")
	assert.NotContains(t, string(x), "\n  FileLine:")

	y, err := afero.ReadFile(fs, "/build/Y/fixits.yaml")
	require.NoError(t, err)
	assert.NotContains(t, string(y), "FileLine")
	assert.Contains(t, string(y), "MainSourceFile: ''")
}

func TestSplitClangTidyFixits_DryRunAndOutputDir(t *testing.T) {
	fs := newFs(t)

	out, err := execute(t, fs, "--dry-run", "--output-dir", "/out", "/build/fixits.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "X: 2 entries -> /out/X/fixits.yaml\n")
	exists, err := afero.Exists(fs, "/out/X/fixits.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSplitClangTidyFixits_Errors(t *testing.T) {
	_, err := execute(t, newFs(t))
	assert.Error(t, err)

	_, err = execute(t, newFs(t), "/build/missing.yaml")
	assert.Error(t, err)
}
