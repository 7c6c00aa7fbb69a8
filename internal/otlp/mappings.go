package otlp

import (
	"log/slog"

	"github.com/VladMinzatu/perf-debug-tools/internal/symbolizer"
	"github.com/pkg/errors"
	collectorpb "go.opentelemetry.io/proto/otlp/collector/profiles/v1development"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	"google.golang.org/protobuf/proto"
)

// ReadProfilesData decodes a serialized ProfilesData message and returns the
// regions of its mapping table.
func ReadProfilesData(data []byte) ([]symbolizer.MapRegion, error) {
	pd := &profilespb.ProfilesData{}
	if err := proto.Unmarshal(data, pd); err != nil {
		return nil, errors.Wrap(err, "decoding OTLP ProfilesData")
	}
	return Mappings(pd.GetDictionary()), nil
}

// ReadExportRequest is ReadProfilesData for a collector ExportProfilesServiceRequest.
func ReadExportRequest(data []byte) ([]symbolizer.MapRegion, error) {
	req := &collectorpb.ExportProfilesServiceRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, errors.Wrap(err, "decoding OTLP ExportProfilesServiceRequest")
	}
	return Mappings(req.GetDictionary()), nil
}

// Mappings converts the dictionary mapping table. Index 0 of every OTLP table
// is the zero value and is skipped along with other empty ranges.
func Mappings(dict *profilespb.ProfilesDictionary) []symbolizer.MapRegion {
	if dict == nil {
		return nil
	}
	strs := dict.GetStringTable()
	var regions []symbolizer.MapRegion
	for i, m := range dict.GetMappingTable() {
		if m.GetMemoryLimit() <= m.GetMemoryStart() {
			if i != 0 {
				slog.Debug("Skipping empty OTLP mapping", "index", i)
			}
			continue
		}
		var path string
		if idx := int(m.GetFilenameStrindex()); idx > 0 && idx < len(strs) {
			path = strs[idx]
		}
		regions = append(regions, symbolizer.MapRegion{
			Start:  m.GetMemoryStart(),
			End:    m.GetMemoryLimit(),
			Length: m.GetMemoryLimit() - m.GetMemoryStart(),
			Offset: m.GetFileOffset(),
			Path:   path,
		})
	}
	return regions
}
