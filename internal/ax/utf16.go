package ax

import (
	"fmt"
	"unicode/utf16"
)

// Range is a half-open interval over an element's text, measured in UTF-16
// code units because that is how the platform text APIs index strings.
type Range struct {
	Location int
	Length   int
}

// End returns the exclusive end offset.
func (r Range) End() int {
	return r.Location + r.Length
}

// IsEmpty reports whether the range selects nothing.
func (r Range) IsEmpty() bool {
	return r.Length == 0
}

// Valid reports whether both fields are non-negative.
func (r Range) Valid() bool {
	return r.Location >= 0 && r.Length >= 0
}

func (r Range) String() string {
	return fmt.Sprintf("{%d, %d}", r.Location, r.Length)
}

func runeLen16(ch rune) int {
	if n := utf16.RuneLen(ch); n > 0 {
		return n
	}
	return 1
}

// Len16 returns the length of s in UTF-16 code units.
func Len16(s string) int {
	n := 0
	for _, ch := range s {
		n += runeLen16(ch)
	}
	return n
}

// ByteOffset converts a UTF-16 offset into a byte offset of s. It fails when
// the offset is out of bounds or falls between the halves of a surrogate
// pair.
func ByteOffset(s string, unit int) (int, bool) {
	if unit < 0 {
		return 0, false
	}
	u := 0
	for i, ch := range s {
		if u == unit {
			return i, true
		}
		if u > unit {
			return 0, false
		}
		u += runeLen16(ch)
	}
	if u == unit {
		return len(s), true
	}
	return 0, false
}

func byteBounds(s string, r Range) (int, int, bool) {
	if !r.Valid() {
		return 0, 0, false
	}
	start, ok := ByteOffset(s, r.Location)
	if !ok {
		return 0, 0, false
	}
	end, ok := ByteOffset(s[start:], r.Length)
	if !ok {
		return 0, 0, false
	}
	return start, start + end, true
}

// Slice returns the part of s covered by r.
func Slice(s string, r Range) (string, bool) {
	start, end, ok := byteBounds(s, r)
	if !ok {
		return "", false
	}
	return s[start:end], true
}

// Splice returns s with the text covered by r replaced by repl.
func Splice(s string, r Range, repl string) (string, bool) {
	start, end, ok := byteBounds(s, r)
	if !ok {
		return "", false
	}
	return s[:start] + repl + s[end:], true
}
