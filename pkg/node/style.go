package node

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/pkg/errors"
)

// Style holds the visual attributes of a run of text. The zero value renders
// as plain text.
type Style struct {
	Fg        color.Color
	Bg        color.Color
	Bold      bool
	Italic    bool
	Underline bool
	Dim       bool
	Reverse   bool
}

// IsZero reports whether s is the default style.
func (s Style) IsZero() bool {
	return s.Fg == nil && s.Bg == nil &&
		!s.Bold && !s.Italic && !s.Underline && !s.Dim && !s.Reverse
}

// Merge returns s with any attribute set in o layered on top.
func (s Style) Merge(o Style) Style {
	if o.Fg != nil {
		s.Fg = o.Fg
	}
	if o.Bg != nil {
		s.Bg = o.Bg
	}
	s.Bold = s.Bold || o.Bold
	s.Italic = s.Italic || o.Italic
	s.Underline = s.Underline || o.Underline
	s.Dim = s.Dim || o.Dim
	s.Reverse = s.Reverse || o.Reverse
	return s
}

// Lipgloss converts s to a lipgloss style. Tabs are left alone so that
// styling never changes the text it wraps.
func (s Style) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if s.Fg != nil {
		st = st.Foreground(s.Fg)
	}
	if s.Bg != nil {
		st = st.Background(s.Bg)
	}
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Dim {
		st = st.Faint(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	return st
}

// Apply wraps text in the SGR sequences for s. Each line is styled on its
// own so a style never spans a line break.
func (s Style) Apply(text string) string {
	if s.IsZero() || text == "" {
		return text
	}
	st := s.Lipgloss()
	if !strings.Contains(text, "\n") {
		return st.Render(text)
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = st.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

// Codes returns the escape sequences that open and close s. Both are empty
// for the zero style.
func (s Style) Codes() (open, close string) {
	if s.IsZero() {
		return "", ""
	}
	const probe = "x"
	rendered := s.Lipgloss().Render(probe)
	i := strings.Index(rendered, probe)
	if i < 0 {
		return "", ""
	}
	return rendered[:i], rendered[i+len(probe):]
}

var namedColors = map[string]int{
	"black":          0,
	"red":            1,
	"green":          2,
	"yellow":         3,
	"blue":           4,
	"magenta":        5,
	"cyan":           6,
	"white":          7,
	"gray":           8,
	"grey":           8,
	"bright-black":   8,
	"bright-red":     9,
	"bright-green":   10,
	"bright-yellow":  11,
	"bright-blue":    12,
	"bright-magenta": 13,
	"bright-cyan":    14,
	"bright-white":   15,
}

// Named returns one of the 16 basic terminal colors by name, or nil if the
// name is unknown. Underscores and a "bright" prefix without separator are
// accepted ("bright_red", "brightred").
func Named(name string) color.Color {
	n := normalizeColorName(name)
	idx, ok := namedColors[n]
	if !ok {
		return nil
	}
	return ANSI(idx)
}

func normalizeColorName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	if strings.HasPrefix(n, "bright") && !strings.HasPrefix(n, "bright-") {
		n = "bright-" + strings.TrimPrefix(n, "bright")
	}
	return n
}

// ANSI returns a color from the 256-color palette.
func ANSI(n int) color.Color {
	return lipgloss.Color(strconv.Itoa(n))
}

// RGB returns a truecolor value.
func RGB(r, g, b uint8) color.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// Hex returns a truecolor value from "#rgb" or "#rrggbb". Invalid input
// yields nil.
func Hex(s string) color.Color {
	c, err := parseHex(s)
	if err != nil {
		return nil
	}
	return c
}

// ParseColor accepts a color name, a palette index ("208"), a hex value
// ("#ff8800") or an rgb() triple ("rgb(255, 136, 0)").
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, errors.New("empty color")
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(strings.ToLower(s), "rgb(") && strings.HasSuffix(s, ")"):
		return parseRGB(s)
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 255 {
			return nil, errors.Errorf("color index %d out of range", n)
		}
		return ANSI(n), nil
	}
	if c := Named(s); c != nil {
		return c, nil
	}
	return nil, errors.Errorf("unknown color %q", s)
}

func parseHex(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, errors.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex color %q", s)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func parseRGB(s string) (color.Color, error) {
	inner := s[strings.Index(s, "(")+1 : len(s)-1]
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return nil, errors.Errorf("invalid rgb color %q", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return nil, errors.Errorf("invalid rgb component %q in %q", p, s)
		}
		rgb[i] = uint8(v)
	}
	return RGB(rgb[0], rgb[1], rgb[2]), nil
}
