package classfile

import (
	"errors"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var errBadMUTF8 = errors.New("invalid modified UTF-8")

// decodeMUTF8 decodes the modified UTF-8 encoding used by CONSTANT_Utf8
// entries: NUL is encoded as 0xC0 0x80, supplementary characters as
// two three-byte surrogates, and no four-byte forms are allowed.
func decodeMUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}

	var sb strings.Builder
	sb.Grow(len(b))
	var pending rune = -1 // high surrogate waiting for its pair

	flush := func() {
		if pending >= 0 {
			sb.WriteRune(utf8.RuneError)
			pending = -1
		}
	}

	for i := 0; i < len(b); {
		c := b[i]
		var r rune
		switch {
		case c == 0:
			return "", errBadMUTF8
		case c < 0x80:
			r = rune(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", errBadMUTF8
			}
			r = rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", errBadMUTF8
			}
			r = rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
		default:
			return "", errBadMUTF8
		}

		switch {
		case utf16.IsSurrogate(r) && r < 0xDC00:
			flush()
			pending = r
		case utf16.IsSurrogate(r):
			if pending < 0 {
				sb.WriteRune(utf8.RuneError)
				continue
			}
			sb.WriteRune(utf16.DecodeRune(pending, r))
			pending = -1
		default:
			flush()
			sb.WriteRune(r)
		}
	}
	flush()
	return sb.String(), nil
}
