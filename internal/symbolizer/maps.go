package symbolizer

import (
	"io"
	"log/slog"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/grafana/regexp"
	"github.com/pkg/errors"
)

// PerfMmapMarker identifies mmap events in perf text output. It also matches
// PERF_RECORD_MMAP2.
const PerfMmapMarker = "PERF_RECORD_MMAP"

var (
	// Example format:
	//
	//	PERF_RECORD_MMAP2 1234/1234: [0x55d4b2000000(0x21000) @ 0 08:01 131073 0]: r-xp /usr/bin/myprog
	perfMmapInterval = regexp.MustCompile(`\[(0x[0-9a-fA-F]+)\((0x[0-9a-fA-F]+)\)(?:\s+@\s+(0[xX][0-9a-fA-F]+|[0-9]+))?`)
	perfMmapTail     = regexp.MustCompile(`\]:\s+(\S+)\s+(.+?)\s*$`)
)

// ParsePerfMmapLine extracts the mapping from a perf mmap event line. The
// marker must be present and the line must embed "[<start>(<length>)".
func ParsePerfMmapLine(line string) (MapRegion, error) {
	if !strings.Contains(line, PerfMmapMarker) {
		return MapRegion{}, errors.Errorf("no %s marker in line", PerfMmapMarker)
	}
	loc := perfMmapInterval.FindStringSubmatchIndex(line)
	if loc == nil {
		return MapRegion{}, errors.Errorf("no mapping interval in line %q", line)
	}
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return line[loc[2*i]:loc[2*i+1]]
	}

	start, err1 := strconv.ParseUint(group(1)[2:], 16, 64)
	length, err2 := strconv.ParseUint(group(2)[2:], 16, 64)
	if err1 != nil || err2 != nil {
		return MapRegion{}, errors.Errorf("failed to parse numeric addresses in line %q", line)
	}
	r := MapRegion{
		Start:  start,
		Length: length,
		End:    regionEnd(start, length),
		Raw:    strings.TrimRight(line, " \t\r"),
	}
	if pgoff := group(3); pgoff != "" {
		if v, err := strconv.ParseUint(pgoff, 0, 64); err == nil {
			r.Offset = v
		}
	}
	if m := perfMmapTail.FindStringSubmatch(line[loc[1]:]); m != nil {
		r.Perms, r.Path = m[1], m[2]
	}
	return r, nil
}

func regionEnd(start, length uint64) uint64 {
	end, carry := bits.Add64(start, length, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return end
}

// ScanPerfMmaps reports every (target, mmap line) pair where the target falls
// inside the line's mapping. Lines without the marker are ignored; marker
// lines that cannot be parsed go to onNoMatch. The whole input is scanned.
func ScanPerfMmaps(r io.Reader, targets []Target, onHit func(MappingHit), onNoMatch NoMatchFunc) error {
	s := newLineScanner(r)
	for s.Scan() {
		line := s.Text()
		if !strings.Contains(line, PerfMmapMarker) {
			continue
		}
		region, err := ParsePerfMmapLine(line)
		if err != nil {
			slog.Debug("Skipping mmap line", "error", err)
			if onNoMatch != nil {
				onNoMatch(strings.TrimRight(line, " \t\r"))
			}
			continue
		}
		for _, t := range targets {
			if region.Contains(t.Addr) {
				onHit(MappingHit{Target: t, Region: region})
			}
		}
	}
	if err := s.Err(); err != nil {
		return errors.Wrap(err, "reading mmap events")
	}
	return nil
}

// ScanProcMaps is ScanPerfMmaps for /proc/<pid>/maps formatted input.
func ScanProcMaps(r io.Reader, targets []Target, onHit func(MappingHit), onNoMatch NoMatchFunc) error {
	s := newLineScanner(r)
	for s.Scan() {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		region, err := ParseProcMapsLine(line)
		if err != nil {
			slog.Warn("Failed to parse map entry", "line", line, "error", err)
			if onNoMatch != nil {
				onNoMatch(strings.TrimRight(line, " \t\r"))
			}
			continue
		}
		for _, t := range targets {
			if region.Contains(t.Addr) {
				onHit(MappingHit{Target: t, Region: region})
			}
		}
	}
	if err := s.Err(); err != nil {
		return errors.Wrap(err, "reading maps")
	}
	return nil
}

// MatchRegions applies the containment rule to an already decoded region list.
// Hits are ordered by region, then by target.
func MatchRegions(regions []MapRegion, targets []Target) []MappingHit {
	var hits []MappingHit
	for _, r := range regions {
		for _, t := range targets {
			if r.Contains(t.Addr) {
				hits = append(hits, MappingHit{Target: t, Region: r})
			}
		}
	}
	return hits
}

// Example format:
//
//	55d4b2000000-55d4b2021000 r--p 00000000 08:01 131073 /usr/bin/myprog
func ParseProcMapsLine(line string) (MapRegion, error) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return MapRegion{}, errors.Errorf("not enough fields: %d in line %q", len(parts), line)
	}
	addr := parts[0]
	perms := parts[1]
	off := parts[2]
	// pathname is optional and may be in parts[5:] - may contain spaces, mind you!
	var path string
	if len(parts) >= 6 {
		path = strings.Join(parts[5:], " ")
	}
	se := strings.SplitN(addr, "-", 2)
	if len(se) != 2 {
		return MapRegion{}, errors.Errorf("invalid address range format in line %q", line)
	}
	start, err1 := strconv.ParseUint(se[0], 16, 64)
	end, err2 := strconv.ParseUint(se[1], 16, 64)
	offv, err3 := strconv.ParseUint(off, 16, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return MapRegion{}, errors.Errorf("failed to parse numeric addresses in line %q", line)
	}
	if end < start {
		return MapRegion{}, errors.Errorf("end before start in line %q", line)
	}
	return MapRegion{
		Start:  start,
		End:    end,
		Length: end - start,
		Offset: offv,
		Perms:  perms,
		Path:   path,
		Raw:    strings.TrimRight(line, " \t\r"),
	}, nil
}
