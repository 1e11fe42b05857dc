package tiff

import (
	"strconv"
	"strings"
)

// parseDescriptionHints looks for vendor-specific "key=value" hints in a
// free-form ImageDescription string, the way Aperio (.svs) files pack
// metadata after the leading dimensions string, e.g.:
//
//	"115920x45243 [0,100 113331x45143] (256x256) JPEG/RGB Q=30|MPP=0.2500|AppMag=20"
//
// Fields are pipe-separated; each field beyond the first is a "Key=Value"
// pair. Recognised keys are MPP (micrometres per pixel at level 0) and
// AppMag (objective magnification). Returns ok=false if neither hint could
// be parsed, in which case the caller falls back to the hard-coded 0.25
// um/pixel baseline.
func parseDescriptionHints(description string) (mppX, mppY, appMag float64, ok bool) {
	fields := strings.Split(description, "|")
	if len(fields) < 2 {
		return 0, 0, 0, false
	}

	var foundMPP, foundMag bool
	for _, field := range fields[1:] {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "MPP":
			mpp, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			mppX, mppY = mpp, mpp
			foundMPP = true
		case "AppMag":
			mag, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			appMag = mag
			foundMag = true
		}
	}

	return mppX, mppY, appMag, foundMPP || foundMag
}
