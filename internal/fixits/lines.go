package fixits

import (
	"bytes"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const DefaultSourceCacheSize = 64

// LineIndex translates byte offsets in source files into 1-based line numbers.
// File contents are cached since most diagnostics of a report point into a
// handful of files.
type LineIndex struct {
	fs    afero.Fs
	cache *lru.Cache[string, []byte]
}

func NewLineIndex(fs afero.Fs, cacheSize int) (*LineIndex, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultSourceCacheSize
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &LineIndex{fs: fs, cache: cache}, nil
}

// Line counts the newlines before offset. Offsets past the end of the file
// count every newline in it.
func (l *LineIndex) Line(path string, offset int64) (int, error) {
	content, err := l.content(path)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(content)) {
		slog.Warn("File offset beyond end of file", "path", path, "offset", offset, "size", len(content))
		offset = int64(len(content))
	}
	return bytes.Count(content[:offset], []byte{'\n'}) + 1, nil
}

func (l *LineIndex) content(path string) ([]byte, error) {
	if c, ok := l.cache.Get(path); ok {
		return c, nil
	}
	c, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source file %s", path)
	}
	l.cache.Add(path, c)
	return c, nil
}
