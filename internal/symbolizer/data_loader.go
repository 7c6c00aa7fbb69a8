package symbolizer

import (
	"bufio"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

const maxLineSize = 1024 * 1024

// DataLoader opens line-oriented input. An empty Path or "-" selects Stdin.
type DataLoader struct {
	Path  string
	Stdin io.Reader
}

func NewDataLoader(path string, stdin io.Reader) *DataLoader {
	return &DataLoader{Path: path, Stdin: stdin}
}

func (d *DataLoader) IsStdin() bool {
	return d.Path == "" || d.Path == "-"
}

func (d *DataLoader) Open() (io.ReadCloser, error) {
	if d.IsStdin() {
		slog.Debug("Reading from stdin")
		return io.NopCloser(d.Stdin), nil
	}
	slog.Debug("Loading lines from (pseudo-)file", "path", d.Path)
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", d.Path)
	}
	return f, nil
}

// ReadAll is used by binary sources (profiles) that need the whole input.
func (d *DataLoader) ReadAll() ([]byte, error) {
	rc, err := d.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	return data, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}
