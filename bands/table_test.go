package bands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	table, err := Load(DefaultVersion)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", table.Len())
	}
	e, ok := table.Lookup(9)
	if !ok || e.Name != "Red edge-740" || e.WavelengthNm != 740 || e.FWHMNm != 18 {
		t.Fatalf("unexpected band 9 entry: %+v", e)
	}
	e, ok = table.Lookup(10)
	if !ok || e.Name != "Red-650" || e.WavelengthNm != 650 {
		t.Fatalf("unexpected band 10 entry: %+v", e)
	}
	if _, ok := table.Lookup(12); ok {
		t.Fatal("band 12 should have no correction")
	}
}

func TestLoadUnknownVersion(t *testing.T) {
	if _, err := Load("v99-nonexistent"); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	content := `[{"band_index":5,"band_name":"Green-560","wavelength_nm":560,"fwhm_nm":27,"bandwidth_nm":27}]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, ok := table.Lookup(5)
	if !ok || e.Name != "Green-560" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestLoadFileRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	content := `[
		{"band_index":5,"band_name":"a","wavelength_nm":1,"fwhm_nm":1,"bandwidth_nm":1},
		{"band_index":5,"band_name":"b","wavelength_nm":1,"fwhm_nm":1,"bandwidth_nm":1}
	]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected duplicate index error")
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	content := `[{"band_index":0,"band_name":"a","wavelength_nm":1,"fwhm_nm":1,"bandwidth_nm":1}]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected invalid index error")
	}
}
