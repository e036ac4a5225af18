package videoio

import "strings"

// Fourcc packs four codec characters into the integer code used by
// PropFourcc and WriterConfig.Fourcc. c1 is the least significant byte.
func Fourcc(c1, c2, c3, c4 byte) int32 {
	return int32(uint32(c1) | uint32(c2)<<8 | uint32(c3)<<16 | uint32(c4)<<24)
}

// FourccFromString packs the first four bytes of s, padding with spaces.
func FourccFromString(s string) int32 {
	var b [4]byte
	for i := range b {
		b[i] = ' '
		if i < len(s) {
			b[i] = s[i]
		}
	}
	return Fourcc(b[0], b[1], b[2], b[3])
}

// FourccBytes unpacks a code into the four characters passed to Fourcc,
// c1 first. Fourcc(b[0], b[1], b[2], b[3]) == code for every code.
func FourccBytes(code int32) [4]byte {
	u := uint32(code)
	return [4]byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// FourccString renders a code for display. Non-printable bytes are shown as
// '?', and trailing spaces and NULs are trimmed, so the result does not
// always convert back to code. Use FourccBytes to recover the exact bytes.
func FourccString(code int32) string {
	b := FourccBytes(code)
	for i, c := range b {
		switch {
		case c == 0:
			c = ' '
		case c < 0x20 || c > 0x7e:
			c = '?'
		}
		b[i] = c
	}
	return strings.TrimRight(string(b[:]), " ")
}
