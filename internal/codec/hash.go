package codec

import (
	"fmt"
	"unicode/utf16"
)

// IntegrityHash is the 32-bit rolling hash h = h*31 + c over the UTF-16
// code units of s, printed as signed hex ("-1a2b" for negative values). It
// only flags accidental corruption.
func IntegrityHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return fmt.Sprintf("%x", int64(h))
}
