package bands

import "testing"

func TestParseBandIndex(t *testing.T) {
	cases := []struct {
		path  string
		index int
		ok    bool
	}{
		{"IMG_0042_9.tif", 9, true},
		{"/data/plot1/20230514/IMG_0042_10.tif", 10, true},
		{"X_9.tif", 9, true},
		{"X_09.tif", 9, true},
		{"X_9_extra.tif", 0, false},
		{"X_11.TIF", 11, true},
		{"band.tif", 0, false},
		{"X_.tif", 0, false},
		{"X_0.tif", 0, false},
		{"X_-3.tif", 0, false},
		{"9.tif", 0, false},
	}
	for _, c := range cases {
		index, ok := ParseBandIndex(c.path)
		if ok != c.ok || index != c.index {
			t.Fatalf("%s: got (%d, %t), want (%d, %t)", c.path, index, ok, c.index, c.ok)
		}
	}
}
