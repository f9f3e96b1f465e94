package pkpass

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var rgbPattern = regexp.MustCompile(`(?i)^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)

// BackgroundColor reports false if backgroundColor is absent or malformed.
func (d *Document) BackgroundColor() (color.NRGBA, bool) {
	return parseColor(d.manifest.str("backgroundColor"))
}

func (d *Document) ForegroundColor() (color.NRGBA, bool) {
	return parseColor(d.manifest.str("foregroundColor"))
}

// LabelColor falls back to the foreground color.
func (d *Document) LabelColor() (color.NRGBA, bool) {
	if c, ok := parseColor(d.manifest.str("labelColor")); ok {
		return c, true
	}
	return d.ForegroundColor()
}

// parseColor accepts "rgb(r, g, b)", "#rgb", "#rrggbb", "#aarrggbb" and
// SVG color names.
func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, false
	}

	if m := rgbPattern.FindStringSubmatch(s); m != nil {
		var c [3]uint8
		for i := range c {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return color.NRGBA{}, false
			}
			c[i] = uint8(v)
		}
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xff}, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}

	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	return color.NRGBA{}, false
}

func parseHexColor(hex string) (color.NRGBA, bool) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}

	switch len(hex) {
	case 3:
		r, g, b := uint8(v>>8&0xf), uint8(v>>4&0xf), uint8(v&0xf)
		return color.NRGBA{R: r * 0x11, G: g * 0x11, B: b * 0x11, A: 0xff}, true
	case 6:
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
	case 8:
		return color.NRGBA{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
	}
	return color.NRGBA{}, false
}
