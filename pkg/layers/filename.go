package layers

import (
	"path/filepath"
	"strings"
)

// NextLinkedFileName returns the name suggested for a copy of the linked
// asset name. A trailing number in the base name is incremented keeping its
// zero padding ("img09.psb" becomes "img10.psb", "x99" becomes "x100");
// otherwise "_02" is appended before the extension.
func NextLinkedFileName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	end := len(base)
	start := end
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	if start == end {
		return base + "_02" + ext
	}
	return base[:start] + incrementDigits(base[start:]) + ext
}

// incrementDigits adds one to a decimal string, growing it only on overflow
// of every digit.
func incrementDigits(digits string) string {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
