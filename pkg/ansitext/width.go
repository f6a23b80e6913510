package ansitext

import (
	"github.com/charmbracelet/x/ansi"
)

// VisibleWidth returns the number of terminal columns s occupies, ignoring
// escape sequences and accounting for wide and zero-width characters.
func VisibleWidth(s string) int {
	return ansi.StringWidth(StripANSI(s))
}

// VisualRows returns how many terminal rows line occupies once the terminal
// soft-wraps it at width columns. Empty lines still take one row.
func VisualRows(line string, width int) int {
	if width <= 0 {
		return 1
	}
	w := VisibleWidth(line)
	if w == 0 {
		return 1
	}
	return (w + width - 1) / width
}

// TotalVisualRows sums VisualRows over lines.
func TotalVisualRows(lines []string, width int) int {
	total := 0
	for _, l := range lines {
		total += VisualRows(l, width)
	}
	return total
}
