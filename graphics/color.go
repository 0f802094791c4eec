package graphics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

//ErrInvalidColor 颜色格式错误
var ErrInvalidColor = errors.New("graphics: invalid color")

// ParseColor parses "#RRGGBB" and "#AARRGGBB". Alpha comes first, as in
// the theme files this renderer reads.
func ParseColor(s string) (gg.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return gg.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	a := uint64(0xff)
	if len(h) == 8 {
		a = v >> 24 & 0xff
	}
	return gg.RGBA{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: float64(a) / 255,
	}, nil
}

//FormatColor 输出 #AARRGGBB
func FormatColor(c gg.RGBA) string {
	b := func(f float64) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 0xff
		}
		return uint8(f*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", b(c.A), b(c.R), b(c.G), b(c.B))
}

//SameColor 颜色是否相同(8位精度)
func SameColor(a, b gg.RGBA) bool {
	return FormatColor(a) == FormatColor(b)
}
