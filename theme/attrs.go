package theme

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/gogpu/gg"
)

// attrs reads the attributes of one element. The first error sticks and
// is returned by done, which also rejects attributes nobody asked for.
type attrs struct {
	element string
	m       map[string]string
	used    map[string]bool
	err     error
}

func newAttrs(se xml.StartElement) *attrs {
	a := &attrs{
		element: se.Name.Local,
		m:       make(map[string]string, len(se.Attr)),
		used:    make(map[string]bool, len(se.Attr)),
	}
	for _, at := range se.Attr {
		// namespace declarations and xsi:schemaLocation
		if at.Name.Space != "" || at.Name.Local == "xmlns" {
			continue
		}
		a.m[at.Name.Local] = at.Value
	}
	return a
}

func (a *attrs) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *attrs) lookup(name string) (string, bool) {
	a.used[name] = true
	v, ok := a.m[name]
	return v, ok
}

func (a *attrs) str(name, def string) string {
	if v, ok := a.lookup(name); ok {
		return v
	}
	return def
}

func (a *attrs) required(name string) string {
	v, ok := a.lookup(name)
	if !ok || v == "" {
		a.fail(fmt.Errorf("%w: %s@%s", ErrMissingAttribute, a.element, name))
	}
	return v
}

func (a *attrs) invalid(name, v string, err error) {
	a.fail(fmt.Errorf("%w: %s@%s=%q: %v", ErrUnknownValue, a.element, name, v, err))
}

func (a *attrs) float(name string, def float64) float64 {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		a.invalid(name, v, err)
		return def
	}
	return f
}

func (a *attrs) nonNegative(name string, def float64) float64 {
	f := a.float(name, def)
	if f < 0 {
		a.invalid(name, a.m[name], fmt.Errorf("negative"))
		return def
	}
	return f
}

func (a *attrs) int(name string, def int) int {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		a.invalid(name, v, err)
		return def
	}
	return i
}

func (a *attrs) bool(name string, def bool) bool {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		a.invalid(name, v, err)
		return def
	}
	return b
}

func (a *attrs) color(name string, def gg.RGBA) (gg.RGBA, bool) {
	v, ok := a.lookup(name)
	if !ok {
		return def, false
	}
	c, err := graphics.ParseColor(v)
	if err != nil {
		a.invalid(name, v, err)
		return def, false
	}
	return c, true
}

func (a *attrs) dashes(name string) []float64 {
	v, ok := a.lookup(name)
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			a.invalid(name, v, fmt.Errorf("bad dash %q", p))
			return nil
		}
		out = append(out, f)
	}
	return out
}

func (a *attrs) display() label.Display {
	v := a.str("display", "")
	d, err := label.ParseDisplay(v)
	if err != nil {
		a.invalid("display", v, err)
	}
	return d
}

func (a *attrs) scale() Scale {
	v := a.str("scale", "")
	s, err := ParseScale(v)
	if err != nil {
		a.fail(fmt.Errorf("%s: %w", a.element, err))
	}
	return s
}

// textPaints builds the fill and the optional halo paint of a caption or
// path text.
func (a *attrs) textPaints() (fill, stroke *graphics.Paint) {
	size := a.nonNegative("font-size", 10)
	fv := a.str("font-family", "")
	family, err := graphics.ParseFontFamily(fv)
	if err != nil {
		a.invalid("font-family", fv, err)
	}
	sv := a.str("font-style", "")
	style, err := graphics.ParseFontStyle(sv)
	if err != nil {
		a.invalid("font-style", sv, err)
	}

	fill = graphics.NewPaint(graphics.Fill)
	fill.Color, _ = a.color("fill", gg.Black)
	fill.TextSize, fill.Family, fill.FontStyle = size, family, style

	strokeColor, _ := a.color("stroke", gg.Black)
	if w := a.nonNegative("stroke-width", 0); w > 0 {
		stroke = graphics.NewPaint(graphics.Stroke)
		stroke.Color = strokeColor
		stroke.StrokeWidth = w
		stroke.TextSize, stroke.Family, stroke.FontStyle = size, family, style
	}
	return fill, stroke
}

func (a *attrs) ignore(names ...string) {
	for _, n := range names {
		a.used[n] = true
	}
}

func (a *attrs) done() error {
	if a.err != nil {
		return a.err
	}
	for k := range a.m {
		if !a.used[k] {
			return fmt.Errorf("%w: %s@%s", ErrUnknownAttribute, a.element, k)
		}
	}
	return nil
}
