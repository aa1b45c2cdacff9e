package bands

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry holds the corrected identity of one spectral band.
type Entry struct {
	Index        int     `json:"band_index"`
	Name         string  `json:"band_name"`
	WavelengthNm float64 `json:"wavelength_nm"`
	FWHMNm       float64 `json:"fwhm_nm"`
	BandwidthNm  float64 `json:"bandwidth_nm"`
}

// Table maps band indices to corrected entries for one firmware
// transition. Immutable for the duration of a run.
type Table struct {
	Version string
	entries map[int]Entry
}

// Built-in table for the documented firmware band swap: the camera
// firmware reassigned rig indices 9-11, so files written before the
// update carry the pre-swap identities on those three bands.
const DefaultVersion = "v7-band-swap"

var builtin = map[string][]Entry{
	DefaultVersion: {
		{Index: 9, Name: "Red edge-740", WavelengthNm: 740, FWHMNm: 18, BandwidthNm: 18},
		{Index: 10, Name: "Red-650", WavelengthNm: 650, FWHMNm: 16, BandwidthNm: 16},
		{Index: 11, Name: "Red edge-705", WavelengthNm: 705, FWHMNm: 16, BandwidthNm: 16},
	},
}

// Load returns the built-in table for the given version.
func Load(version string) (*Table, error) {
	entries, ok := builtin[version]
	if !ok {
		return nil, fmt.Errorf("unknown correction table version: %s", version)
	}
	return build(version, entries)
}

// LoadFile reads a correction table from a JSON file holding a list of
// entries. Used for firmware transitions not compiled in.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read table file: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid table file format: %v", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("table file %s contains no entries", path)
	}
	return build(path, entries)
}

func build(version string, entries []Entry) (*Table, error) {
	t := &Table{Version: version, entries: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if e.Index <= 0 {
			return nil, fmt.Errorf("band index must be positive, got %d", e.Index)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("band %d has an empty name", e.Index)
		}
		if e.WavelengthNm <= 0 || e.FWHMNm <= 0 || e.BandwidthNm <= 0 {
			return nil, fmt.Errorf("band %d has non-positive wavelength values", e.Index)
		}
		if _, dup := t.entries[e.Index]; dup {
			return nil, fmt.Errorf("duplicate band index %d in table", e.Index)
		}
		t.entries[e.Index] = e
	}
	return t, nil
}

// Lookup returns the corrected entry for a band index, if one is
// registered.
func (t *Table) Lookup(index int) (Entry, bool) {
	e, ok := t.entries[index]
	return e, ok
}

// Len reports the number of corrected bands in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Versions lists the built-in table versions.
func Versions() []string {
	versions := make([]string, 0, len(builtin))
	for v := range builtin {
		versions = append(versions, v)
	}
	return versions
}
