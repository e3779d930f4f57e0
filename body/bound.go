package body

import "unicode/utf8"

// Marker is appended to text cut by Bound.
const Marker = "..."

// Bound cuts text to maxLength code points and appends Marker when anything
// was cut. Lengths count runes, so multi-byte characters are never split.
// A negative maxLength is treated as zero.
func Bound(text string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	cut := 0
	for n := 0; n < maxLength; n++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	return text[:cut] + Marker
}
