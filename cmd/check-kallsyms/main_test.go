package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckKallsyms(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	out, err := execute(t, "1000 a\n2000 b\n3000 c\n", "0x2500")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"looking for 0x2500",
		"best match sym: 2000 b diff is: 0x500",
		"next sym is: 3000 c diff is: 0xb00",
		"",
	}, "\n"), out)
}

func TestCheckKallsyms_NoMatchLinesAndMissingResults(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	out, err := execute(t, "garbage\nffffffff81000000 T start_kernel\n", "ffffffff80000000")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"looking for ffffffff80000000",
		"no match:  garbage",
		"best match sym: none (no symbol at or below 0xffffffff80000000)",
		"next sym is: ffffffff81000000 T start_kernel diff is: 0x1000000",
		"",
	}, "\n"), out)

	out, err = execute(t, "ffffffff81000000 T start_kernel\n", "0xffffffff81000010")
	require.NoError(t, err)
	assert.Contains(t, out, "best match sym: ffffffff81000000 T start_kernel diff is: 0x10\n")
	assert.Contains(t, out, "next sym is: none (no symbol above 0xffffffff81000010)\n")
}

func TestCheckKallsyms_InputFile(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	path := filepath.Join(t.TempDir(), "kallsyms")
	require.NoError(t, os.WriteFile(path, []byte("ffffffff81000000 T _text\nffffffff81001000 T do_one [mod]\n"), 0o644))

	out, err := execute(t, "", "--input", path, "ffffffff81000fff")
	require.NoError(t, err)
	assert.Contains(t, out, "best match sym: ffffffff81000000 T _text diff is: 0xfff\n")
	assert.Contains(t, out, "next sym is: ffffffff81001000 T do_one [mod] diff is: 0x1\n")
}

func TestCheckKallsyms_Errors(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	_, err := execute(t, "")
	assert.Error(t, err, "address argument is required")

	_, err = execute(t, "", "not-hex")
	assert.Error(t, err)

	_, err = execute(t, "", "--input", filepath.Join(t.TempDir(), "missing"), "0x1")
	assert.Error(t, err)
}

func TestCheckKallsyms_VerboseLogsScanCounts(t *testing.T) {
	saved := color.NoColor
	savedLogger := slog.Default()
	t.Cleanup(func() {
		color.NoColor = saved
		slog.SetDefault(savedLogger)
	})

	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("1000 a\nbad\n2000 b\n3000 c\n4000 d\n"))
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--color", "never", "-v", "0x2500"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stderr.String(), "records=3")
	assert.Contains(t, stderr.String(), "unparsed=1")
	assert.NotContains(t, out.String(), "records=")
}
