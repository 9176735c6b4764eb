package display

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB color packed as 0xRRGGBB.
type Color uint32

// RGB builds a Color from individual channels.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Hex returns the color as a six-digit uppercase hex string.
func (c Color) Hex() string {
	return fmt.Sprintf("%06X", uint32(c))
}

// ParseColor parses a hex color string like "20FF00" or "#20FF00".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	if v > 0xFFFFFF {
		return 0, fmt.Errorf("parse color %q: out of 24-bit range", s)
	}
	return Color(v), nil
}
