package storage

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const illegalFilenameChars = `<>:"/\|?*`

// SanitizeFilename makes a video title safe to use as a file name on any
// filesystem. The title is NFC-normalized first so visually identical
// names produce identical files.
func SanitizeFilename(title string) string {
	normalized := norm.NFC.String(title)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if strings.ContainsRune(illegalFilenameChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
