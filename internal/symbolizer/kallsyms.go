package symbolizer

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/grafana/regexp"
	"github.com/pkg/errors"
)

// Format: "ffffffff81000000 T _text [module]". A bare "1000 name" is accepted too.
var symbolLinePattern = regexp.MustCompile(`^\s*([0-9a-fA-F]+)\s+(\S+)(?:\s+(\S+))?(?:\s+(\S+))?`)

func ParseSymbolLine(line string) (SymbolRecord, error) {
	m := symbolLinePattern.FindStringSubmatch(line)
	if m == nil {
		return SymbolRecord{}, errors.Errorf("unexpected symbol line format: %q", line)
	}
	start, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return SymbolRecord{}, errors.Wrapf(err, "invalid symbol address %q", m[1])
	}
	rec := SymbolRecord{Start: start, Raw: strings.TrimRight(line, " \t\r")}
	if m[3] == "" {
		rec.Name = m[2]
	} else {
		rec.Type, rec.Name, rec.Module = m[2], m[3], m[4]
	}
	return rec, nil
}

// Lookup scans a symbol table sorted by ascending address and returns the last
// symbol starting at or below addr and the first one starting above it. The
// scan stops at the first symbol above addr.
func Lookup(r io.Reader, addr uint64, onNoMatch NoMatchFunc) (*LookupResult, error) {
	res := &LookupResult{}
	s := newLineScanner(r)
	for s.Scan() {
		line := s.Text()
		rec, err := ParseSymbolLine(line)
		if err != nil {
			res.NoMatch++
			slog.Debug("Skipping symbol line", "error", err)
			if onNoMatch != nil {
				onNoMatch(strings.TrimRight(line, " \t\r"))
			}
			continue
		}
		res.Scanned++

		if rec.Start > addr {
			res.Next = &SymbolMatch{Record: rec, Diff: rec.Start - addr}
			break
		}
		res.Best = &SymbolMatch{Record: rec, Diff: addr - rec.Start}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading symbol table")
	}
	return res, nil
}
