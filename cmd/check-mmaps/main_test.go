package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	"google.golang.org/protobuf/proto"
)

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(stdin)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const perfEvents = `perf 1 [000] 0.1: PERF_RECORD_COMM: perf:1/1
perf 1 [000] 0.2: PERF_RECORD_MMAP 1/1: [0x1000(0x2000) @ 0]: x /a
perf 1 [000] 0.3: PERF_RECORD_MMAP2 1/1: unparsable
perf 1 [000] 0.4: PERF_RECORD_MMAP2 1/1: [0x2000(0x1000) @ 0 00:00 0 0]: r-xp /b
`

func TestCheckMmaps_Perf(t *testing.T) {
	out, err := execute(t, strings.NewReader(perfEvents), "0x1500", "0x2800", "0x3500")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"0x1500 matched in: perf 1 [000] 0.2: PERF_RECORD_MMAP 1/1: [0x1000(0x2000) @ 0]: x /a",
		"0x2800 matched in: perf 1 [000] 0.2: PERF_RECORD_MMAP 1/1: [0x1000(0x2000) @ 0]: x /a",
		"no match:  perf 1 [000] 0.3: PERF_RECORD_MMAP2 1/1: unparsable",
		"0x2800 matched in: perf 1 [000] 0.4: PERF_RECORD_MMAP2 1/1: [0x2000(0x1000) @ 0 00:00 0 0]: r-xp /b",
		"0x3500 not matched",
		"",
	}, "\n"), out)
}

func TestCheckMmaps_ProcMapsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps")
	maps := "55d4b2000000-55d4b2021000 r--p 00000000 08:01 131073 /usr/bin/myprog\n" +
		"7f8a9b000000-7f8a9b002000 r-xp 00001000 08:01 131074 /usr/lib/libc.so.6\n"
	require.NoError(t, os.WriteFile(path, []byte(maps), 0o644))

	out, err := execute(t, strings.NewReader(""), "--format", "maps", "--input", path, "7f8a9b000100")
	require.NoError(t, err)
	assert.Equal(t, "7f8a9b000100 matched in: 7f8a9b000000-7f8a9b002000 r-xp 00001000 08:01 131074 /usr/lib/libc.so.6\n", out)
}

func TestCheckMmaps_Pprof(t *testing.T) {
	m := &profile.Mapping{ID: 1, Start: 0x400000, Limit: 0x401000, File: "/usr/bin/myprog"}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}},
		Mapping:    []*profile.Mapping{m},
	}
	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))

	out, err := execute(t, &buf, "--format", "pprof", "0x400010", "0x500000")
	require.NoError(t, err)
	assert.Equal(t, "0x400010 matched in: [0x400000-0x401000) off=0x0 /usr/bin/myprog\n0x500000 not matched\n", out)
}

func TestCheckMmaps_OTLP(t *testing.T) {
	data, err := proto.Marshal(&profilespb.ProfilesData{
		Dictionary: &profilespb.ProfilesDictionary{
			StringTable:  []string{"", "/lib/x.so"},
			MappingTable: []*profilespb.Mapping{{}, {MemoryStart: 0x1000, MemoryLimit: 0x2000, FileOffset: 0x100, FilenameStrindex: 1}},
		},
	})
	require.NoError(t, err)

	out, err := execute(t, bytes.NewReader(data), "--format", "otlp", "0x1fff")
	require.NoError(t, err)
	assert.Equal(t, "0x1fff matched in: [0x1000-0x2000) off=0x100 /lib/x.so\n", out)
}

func TestCheckMmaps_Errors(t *testing.T) {
	_, err := execute(t, strings.NewReader(""))
	assert.Error(t, err, "at least one address is required")

	_, err = execute(t, strings.NewReader(""), "zz")
	assert.Error(t, err)

	_, err = execute(t, strings.NewReader(""), "--format", "elf", "0x1")
	assert.Error(t, err)

	_, err = execute(t, strings.NewReader("not a profile"), "--format", "pprof", "0x1")
	assert.Error(t, err)

	_, err = execute(t, strings.NewReader(""), "--input", filepath.Join(t.TempDir(), "missing"), "0x1")
	assert.Error(t, err)
}
