package imaging

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ParseColor parses a hex colour: "#RGB", "#RRGGBB" or "#RRGGBBAA".
// The leading '#' is optional.
func ParseColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if s == "" {
		return color.NRGBA{}, errors.New("empty color string")
	}

	alpha := uint8(0xff)
	switch len(s) {
	case 3, 6:
	case 8:
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, errors.Wrapf(err, "invalid alpha in color %q", hex)
		}
		alpha = uint8(a)
		s = s[:6]
	default:
		return color.NRGBA{}, errors.Errorf("invalid hex color length in %q", hex)
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "invalid color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatColor renders c as "#rrggbb", or "#rrggbbaa" when it is translucent.
func FormatColor(c color.NRGBA) string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A != 0xff {
		hex += strconv.FormatUint(uint64(c.A)|0x100, 16)[1:]
	}
	return hex
}
