// Package ansitext measures, strips, wraps and truncates text that may carry
// terminal escape sequences. Nothing in here can fail: every byte sequence is
// either consumed as an escape or treated as printable.
package ansitext

import (
	"strings"
	"unicode/utf8"
)

const (
	esc = '\x1b'
	bel = '\x07'
)

// StripANSI removes CSI, OSC, APC, DCS (and the rarer SOS/PM) sequences along
// with two- and three-byte escapes. A BEL outside a sequence is dropped too.
func StripANSI(s string) string {
	if strings.IndexByte(s, esc) < 0 && strings.IndexByte(s, bel) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case esc:
			i += EscapeLen(s[i:])
		case bel:
			i++
		default:
			j := i + 1
			for j < len(s) && s[j] != esc && s[j] != bel {
				j++
			}
			b.WriteString(s[i:j])
			i = j
		}
	}
	return b.String()
}

// EscapeLen returns the byte length of the escape sequence at the start of s.
// s must start with ESC. Unterminated sequences run to the end of s, so the
// result is always at least 1.
func EscapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[': // CSI: ESC [ params intermediates final(0x40-0x7e)
		for j := 2; j < len(s); j++ {
			if b := s[j]; b >= 0x40 && b <= 0x7e {
				return j + 1
			}
		}
		return len(s)
	case ']', '_', 'P', 'X', '^': // OSC, APC, DCS, SOS, PM: terminated by BEL or ST
		for j := 2; j < len(s); j++ {
			if s[j] == bel {
				return j + 1
			}
			if s[j] == esc && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2
			}
		}
		return len(s)
	}
	// nF escapes carry intermediates (0x20-0x2f) before the final byte,
	// e.g. ESC ( B. Everything else is ESC plus one byte.
	j := 1
	for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
		j++
	}
	if j < len(s) {
		_, size := utf8.DecodeRuneInString(s[j:])
		j += size
	}
	return j
}
