package ansitext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// TruncateToWidth shortens s to at most maxWidth visible columns. If s already
// fits it is returned as is. Escape sequences are copied through verbatim;
// with ellipsis set, one column of the budget goes to "…".
func TruncateToWidth(s string, maxWidth int, ellipsis bool) string {
	if VisibleWidth(s) <= maxWidth {
		return s
	}
	tail := ""
	if ellipsis {
		tail = Ellipsis
	}
	if maxWidth <= 0 {
		return tail
	}
	return ansi.Truncate(s, maxWidth, tail)
}

// TruncateToChars shortens s to at most maxChars runes, the last of which is
// "…" when anything was cut.
func TruncateToChars(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:maxChars-1]) + Ellipsis
}

// TruncateLines keeps the first maxLines lines of s and replaces the rest with
// a "[+N more lines]" marker. A single trailing newline does not count as an
// extra line.
func TruncateLines(s string, maxLines int) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) <= maxLines {
		return s
	}
	maxLines = max(0, maxLines)
	rest := len(lines) - maxLines
	noun := "lines"
	if rest == 1 {
		noun = "line"
	}
	kept := append(lines[:maxLines:maxLines], fmt.Sprintf("[+%d more %s]", rest, noun))
	return strings.Join(kept, "\n")
}

// TruncateFirstLine returns the first line of s, at most maxChars runes long.
// If s had further lines, the result ends in "…" to show that.
func TruncateFirstLine(s string, maxChars int) string {
	first, _, multi := strings.Cut(s, "\n")
	first = strings.TrimSuffix(first, "\r")
	if !multi || maxChars <= 0 {
		return TruncateToChars(first, maxChars)
	}
	if utf8.RuneCountInString(first) < maxChars {
		return first + Ellipsis
	}
	return string([]rune(first)[:maxChars-1]) + Ellipsis
}
