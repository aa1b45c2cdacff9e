package bands

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ParseBandIndex extracts the band index from a band-numbered image
// filename. The convention is a trailing _<digits> group immediately
// before the extension (IMG_0042_9.tif -> 9). Leading zeros are
// accepted; anything after the final underscore that is not all digits
// means the file is not a band image.
func ParseBandIndex(path string) (int, bool) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	sep := strings.LastIndex(stem, "_")
	if sep < 0 || sep == len(stem)-1 {
		return 0, false
	}
	index, err := strconv.Atoi(stem[sep+1:])
	if err != nil || index <= 0 {
		return 0, false
	}
	return index, true
}
