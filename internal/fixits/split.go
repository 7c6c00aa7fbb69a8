package fixits

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const OutputFileName = "fixits.yaml"

type Options struct {
	// OutputDir defaults to the directory of the report.
	OutputDir string
	DryRun    bool
	CacheSize int
}

type WrittenGroup struct {
	Name    string
	Path    string
	Entries int
}

// Split loads the report at path, annotates line numbers and writes one
// fixits document per diagnostic name into <OutputDir>/<name>/fixits.yaml.
func Split(fs afero.Fs, path string, opts Options) ([]WrittenGroup, error) {
	report, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded fixits", "path", path, "diagnostics", len(report.Diagnostics))

	idx, err := NewLineIndex(fs, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	if err := Annotate(report, idx); err != nil {
		return nil, err
	}

	baseDir := opts.OutputDir
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	return WriteGroups(fs, baseDir, GroupByName(report.Diagnostics), opts.DryRun)
}

// WriteGroups encodes every group into its own directory below baseDir. The
// directories are created when missing and existing files are overwritten, so
// repeated runs leave identical output.
func WriteGroups(fs afero.Fs, baseDir string, groups []Group, dryRun bool) ([]WrittenGroup, error) {
	written := make([]WrittenGroup, 0, len(groups))
	for _, g := range groups {
		dirName, err := groupDirName(g.Name)
		if err != nil {
			return written, err
		}
		dir := filepath.Join(baseDir, dirName)
		out := filepath.Join(dir, OutputFileName)

		data, err := Encode(g)
		if err != nil {
			return written, err
		}
		if !dryRun {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return written, errors.Wrapf(err, "creating %s", dir)
			}
			if err := afero.WriteFile(fs, out, data, 0o644); err != nil {
				return written, errors.Wrapf(err, "writing %s", out)
			}
			slog.Info("Wrote fixits", "diagnostic", g.Name, "entries", len(g.Diagnostics), "path", out)
		}
		written = append(written, WrittenGroup{Name: g.Name, Path: out, Entries: len(g.Diagnostics)})
	}
	return written, nil
}

func groupDirName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", errors.Errorf("invalid diagnostic name %q", name)
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name), nil
}
