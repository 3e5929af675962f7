package usecase

import (
	"path/filepath"
	"strings"
)

// ItemNumberFromFilename extracts the item number from a layout filename:
// the part of the base name, without extension, before the first space.
//
//	"199034 - FRYING PAN.ai" -> "199034"
//	"12345 Product Name.pdf" -> "12345"
func ItemNumberFromFilename(filename string) (string, bool) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	item, _, _ := strings.Cut(stem, " ")
	item = strings.TrimSpace(item)
	if item == "" || item == "." {
		return "", false
	}
	return item, true
}
