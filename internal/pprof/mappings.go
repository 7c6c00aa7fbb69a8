package pprof

import (
	"log/slog"

	"github.com/VladMinzatu/perf-debug-tools/internal/symbolizer"
	"github.com/google/pprof/profile"
	"github.com/pkg/errors"
)

// ReadMappings parses a pprof profile, gzipped or not, and returns its mapping table.
func ReadMappings(data []byte) ([]symbolizer.MapRegion, error) {
	p, err := profile.ParseData(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing pprof profile")
	}
	return Mappings(p), nil
}

func Mappings(p *profile.Profile) []symbolizer.MapRegion {
	regions := make([]symbolizer.MapRegion, 0, len(p.Mapping))
	for _, m := range p.Mapping {
		if m.Limit <= m.Start {
			slog.Debug("Skipping empty pprof mapping", "id", m.ID, "file", m.File)
			continue
		}
		path := m.File
		if path == "" && m.BuildID != "" {
			path = "buildid:" + m.BuildID
		}
		regions = append(regions, symbolizer.MapRegion{
			Start:  m.Start,
			End:    m.Limit,
			Length: m.Limit - m.Start,
			Offset: m.Offset,
			Path:   path,
		})
	}
	return regions
}
