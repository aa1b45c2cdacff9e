package corrector

import (
	"testing"

	"bandfix/bands"
)

func TestTargetValues(t *testing.T) {
	table, err := bands.Load(bands.DefaultVersion)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	entry, ok := table.Lookup(9)
	if !ok {
		t.Fatal("band 9 missing from table")
	}
	want := targetValues(entry)
	if want[tagBandName] != "Red edge-740" {
		t.Fatalf("unexpected band name: %s", want[tagBandName])
	}
	if want[tagCentralWavelength] != "740" || want[tagCenterWavelength] != "740" {
		t.Fatalf("wavelength tags out of sync: %v", want)
	}
	if want[tagWavelengthFWHM] != "18" || want[tagBandwidth] != "18" {
		t.Fatalf("unexpected width tags: %v", want)
	}
	if len(want) != len(targetTags) {
		t.Fatalf("expected %d tags, got %d", len(targetTags), len(want))
	}
}

func TestAlreadyCorrect(t *testing.T) {
	want := map[string]string{
		tagBandName:          "Red-650",
		tagCentralWavelength: "650",
	}
	current := map[string]string{
		tagBandName:          "Red-650",
		tagCentralWavelength: "650.0",
	}
	if !alreadyCorrect(current, want) {
		t.Fatal("numeric-equal values should count as correct")
	}

	current[tagBandName] = "NIR"
	if alreadyCorrect(current, want) {
		t.Fatal("mismatched name should not count as correct")
	}

	delete(current, tagBandName)
	if alreadyCorrect(current, want) {
		t.Fatal("missing tag should not count as correct")
	}
}

func TestValuesEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"740", "740", true},
		{"740", "740.0", true},
		{"740.00", "740", true},
		{"740", "741", false},
		{"Red-650", "Red-650", true},
		{"Red-650", "red-650", false},
		{"740", "Red-650", false},
	}
	for _, tc := range cases {
		if got := valuesEqual(tc.a, tc.b); got != tc.want {
			t.Fatalf("valuesEqual(%q, %q) = %t, want %t", tc.a, tc.b, got, tc.want)
		}
	}
}
