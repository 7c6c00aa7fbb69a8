package symbolizer

import "fmt"

// SymbolRecord is one parsed line of a kallsyms-style symbol table.
type SymbolRecord struct {
	Start  uint64
	Type   string
	Name   string
	Module string
	Raw    string
}

// SymbolMatch is a symbol record and its distance from the looked-up address.
type SymbolMatch struct {
	Record SymbolRecord
	Diff   uint64
}

// LookupResult holds the tightest symbols around an address. A nil Best or
// Next means no such symbol was present in the scanned input.
type LookupResult struct {
	Best    *SymbolMatch
	Next    *SymbolMatch
	Scanned int
	NoMatch int
}

// MapRegion is a half-open memory interval [Start, End).
type MapRegion struct {
	Start, End uint64
	Length     uint64
	Offset     uint64
	Perms      string
	Path       string
	Raw        string
}

func (r MapRegion) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

func (r MapRegion) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	s := fmt.Sprintf("[0x%x-0x%x) off=0x%x", r.Start, r.End, r.Offset)
	if r.Perms != "" {
		s += " " + r.Perms
	}
	if r.Path != "" {
		s += " " + r.Path
	}
	return s
}

// Target is an address to look up, together with the argument it was parsed
// from so reports can echo what the user typed.
type Target struct {
	Arg  string
	Addr uint64
}

// MappingHit pairs a target with a region that contains it.
type MappingHit struct {
	Target Target
	Region MapRegion
}

// NoMatchFunc receives input lines that could not be parsed.
type NoMatchFunc func(line string)
