package corrector

import (
	"strconv"

	"bandfix/bands"
)

// The five band-identity tags this tool is allowed to touch. Vendors
// disagree on the wavelength tag spelling, so both are kept in sync.
const (
	tagBandName          = "BandName"
	tagCentralWavelength = "CentralWavelength"
	tagCenterWavelength  = "CenterWavelength"
	tagWavelengthFWHM    = "WavelengthFWHM"
	tagBandwidth         = "WavelengthBandwidth"
)

var targetTags = []string{
	tagBandName,
	tagCentralWavelength,
	tagCenterWavelength,
	tagWavelengthFWHM,
	tagBandwidth,
}

// targetValues renders a correction entry as the tag values to write.
func targetValues(e bands.Entry) map[string]string {
	return map[string]string{
		tagBandName:          e.Name,
		tagCentralWavelength: formatNm(e.WavelengthNm),
		tagCenterWavelength:  formatNm(e.WavelengthNm),
		tagWavelengthFWHM:    formatNm(e.FWHMNm),
		tagBandwidth:         formatNm(e.BandwidthNm),
	}
}

func formatNm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// alreadyCorrect reports whether every target tag is present and equal.
// Any single-field mismatch means the full set gets rewritten: the
// correction entry is authoritative.
func alreadyCorrect(current, want map[string]string) bool {
	for tag, wantValue := range want {
		currentValue, ok := current[tag]
		if !ok {
			return false
		}
		if !valuesEqual(currentValue, wantValue) {
			return false
		}
	}
	return true
}

// valuesEqual compares tag values numerically when both sides parse as
// numbers; exiftool versions disagree on "740" vs "740.0".
func valuesEqual(a, b string) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	return fa == fb
}
