package theme

import (
	"fmt"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/paulmach/osm"
)

// Instruction is one draw instruction of a rule. The set of kinds is
// closed: *Area, *Line, *LineSymbol, *Circle, *Symbol, *Caption and
// *PathText.
//
// Scaled variants live in per-zoom maps guarded by the owning theme's
// scale lock.
type Instruction interface {
	instruction()
}

//Scale 缩放方式
type Scale int

const (
	ScaleStroke Scale = iota
	ScaleAll
	ScaleNone
)

//ParseScale 解析 scale 属性
func ParseScale(s string) (Scale, error) {
	switch s {
	case "", "stroke":
		return ScaleStroke, nil
	case "all":
		return ScaleAll, nil
	case "none":
		return ScaleNone, nil
	}
	return ScaleStroke, fmt.Errorf("%w: scale=%q", ErrUnknownValue, s)
}

// TextKey names the tag whose value is drawn as text.
type TextKey string

//Value 取标签值
func (k TextKey) Value(tags osm.Tags) string {
	return tags.Find(string(k))
}

// scaledStroke derives a stroke paint with its width (and dashes for
// ScaleAll) multiplied by factor.
func scaledStroke(p *graphics.Paint, width float64, scale Scale, factor float64) *graphics.Paint {
	if scale == ScaleNone {
		factor = 1
	}
	c := p.Clone()
	c.StrokeWidth = width * factor
	if scale == ScaleAll {
		for i := range c.Dash {
			c.Dash[i] *= factor
		}
	}
	return c
}

func scaledText(p *graphics.Paint, size, factor float64) *graphics.Paint {
	if p == nil {
		return nil
	}
	c := p.Clone()
	c.TextSize = size * factor
	return c
}

// Area fills a closed way and outlines it.
type Area struct {
	Level       int
	Fill        *graphics.Paint
	Stroke      *graphics.Paint
	StrokeWidth float64
	Scale       Scale

	strokes map[int]*graphics.Paint
}

func (*Area) instruction() {}

func (a *Area) scaleStrokeWidth(factor float64, zoom int) {
	if a.Stroke == nil {
		return
	}
	if a.strokes == nil {
		a.strokes = make(map[int]*graphics.Paint)
	}
	a.strokes[zoom] = scaledStroke(a.Stroke, a.StrokeWidth, a.Scale, factor)
}

//StrokePaint 级别对应的描边
func (a *Area) StrokePaint(zoom int) *graphics.Paint {
	if p, ok := a.strokes[zoom]; ok {
		return p
	}
	return a.Stroke
}

// Line strokes a way, optionally offset sideways by DY pixels.
type Line struct {
	Level       int
	Stroke      *graphics.Paint
	StrokeWidth float64
	DY          float64
	Scale       Scale

	strokes map[int]*graphics.Paint
	dys     map[int]float64
}

func (*Line) instruction() {}

func (l *Line) scaleStrokeWidth(factor float64, zoom int) {
	if l.strokes == nil {
		l.strokes = make(map[int]*graphics.Paint)
		l.dys = make(map[int]float64)
	}
	if l.Stroke != nil {
		l.strokes[zoom] = scaledStroke(l.Stroke, l.StrokeWidth, l.Scale, factor)
	}
	if l.Scale == ScaleNone {
		factor = 1
	}
	l.dys[zoom] = l.DY * factor
}

//StrokePaint 级别对应的描边
func (l *Line) StrokePaint(zoom int) *graphics.Paint {
	if p, ok := l.strokes[zoom]; ok {
		return p
	}
	return l.Stroke
}

// Offset returns the scaled DY of zoom, or the unscaled DY when that zoom
// has not been scaled yet.
func (l *Line) Offset(zoom int) float64 {
	if d, ok := l.dys[zoom]; ok {
		return d
	}
	return l.DY
}

// LineSymbol repeats an icon along a way.
type LineSymbol struct {
	Bitmap      *graphics.Bitmap
	Display     label.Display
	Priority    int
	AlignCenter bool
	Repeat      bool
	RepeatGap   float64
	RepeatStart float64
	Rotate      bool
	DY          float64
	Scale       Scale

	dys map[int]float64
}

func (*LineSymbol) instruction() {}

func (s *LineSymbol) scaleStrokeWidth(factor float64, zoom int) {
	if s.dys == nil {
		s.dys = make(map[int]float64)
	}
	if s.Scale == ScaleNone {
		factor = 1
	}
	s.dys[zoom] = s.DY * factor
}

//Offset 同 Line.Offset
func (s *LineSymbol) Offset(zoom int) float64 {
	if d, ok := s.dys[zoom]; ok {
		return d
	}
	return s.DY
}

// Circle draws a circle on a point of interest.
type Circle struct {
	Level       int
	Fill        *graphics.Paint
	Stroke      *graphics.Paint
	StrokeWidth float64
	Radius      float64
	ScaleRadius bool

	radii   map[int]float64
	strokes map[int]*graphics.Paint
}

func (*Circle) instruction() {}

func (c *Circle) scaleStrokeWidth(factor float64, zoom int) {
	if !c.ScaleRadius {
		return
	}
	if c.radii == nil {
		c.radii = make(map[int]float64)
		c.strokes = make(map[int]*graphics.Paint)
	}
	c.radii[zoom] = c.Radius * factor
	if c.Stroke != nil {
		c.strokes[zoom] = scaledStroke(c.Stroke, c.StrokeWidth, ScaleStroke, factor)
	}
}

//RenderRadius 级别对应的半径
func (c *Circle) RenderRadius(zoom int) float64 {
	if r, ok := c.radii[zoom]; ok {
		return r
	}
	return c.Radius
}

//StrokePaint 级别对应的描边
func (c *Circle) StrokePaint(zoom int) *graphics.Paint {
	if p, ok := c.strokes[zoom]; ok {
		return p
	}
	return c.Stroke
}

// Symbol draws an icon on a point of interest or the label position of an
// area.
type Symbol struct {
	ID       string
	Bitmap   *graphics.Bitmap
	Display  label.Display
	Priority int
}

func (*Symbol) instruction() {}

// defaultGap separates a caption from its symbol.
const defaultGap = 5

// Caption draws the value of a tag next to a point or area label
// position. DX and DY move the text away from a linked symbol.
type Caption struct {
	TextKey  TextKey
	Fill     *graphics.Paint
	Stroke   *graphics.Paint
	Display  label.Display
	Priority int
	Position label.Position
	Gap      float64
	DX       float64
	DY       float64
	SymbolID string
	Symbol   *Symbol

	fills   map[int]*graphics.Paint
	strokes map[int]*graphics.Paint
	offsets map[int][2]float64
}

func (*Caption) instruction() {}

// linkSymbol places the caption around s: below it unless a position was
// given, pushed out by half the icon plus the gap.
func (c *Caption) linkSymbol(s *Symbol) {
	c.Symbol = s
	if s == nil {
		return
	}
	if c.Position == label.PositionAuto {
		c.Position = label.PositionBelow
	}
	if s.Bitmap == nil {
		return
	}
	w, h := float64(s.Bitmap.Width()), float64(s.Bitmap.Height())
	switch c.Position {
	case label.PositionBelow, label.PositionBelowLeft, label.PositionBelowRight:
		c.DY += h/2 + c.Gap
	case label.PositionAbove, label.PositionAboveLeft, label.PositionAboveRight:
		c.DY -= h/2 + c.Gap
	case label.PositionLeft:
		c.DX -= w/2 + c.Gap
	case label.PositionRight:
		c.DX += w/2 + c.Gap
	}
}

func (c *Caption) scaleTextSize(factor float64, zoom int) {
	if c.fills == nil {
		c.fills = make(map[int]*graphics.Paint)
		c.strokes = make(map[int]*graphics.Paint)
		c.offsets = make(map[int][2]float64)
	}
	c.offsets[zoom] = [2]float64{c.DX * factor, c.DY * factor}
	if c.Fill != nil {
		c.fills[zoom] = scaledText(c.Fill, c.Fill.TextSize, factor)
	}
	if c.Stroke != nil {
		c.strokes[zoom] = scaledText(c.Stroke, c.Stroke.TextSize, factor)
	}
}

// Offset returns DX and DY scaled like the text of zoom.
func (c *Caption) Offset(zoom int) (dx, dy float64) {
	if o, ok := c.offsets[zoom]; ok {
		return o[0], o[1]
	}
	return c.DX, c.DY
}

//FillPaint 级别对应的文字填充
func (c *Caption) FillPaint(zoom int) *graphics.Paint {
	if p, ok := c.fills[zoom]; ok {
		return p
	}
	return c.Fill
}

//StrokePaint 级别对应的文字描边
func (c *Caption) StrokePaint(zoom int) *graphics.Paint {
	if p, ok := c.strokes[zoom]; ok {
		return p
	}
	return c.Stroke
}

// PathText draws the value of a tag along a way.
type PathText struct {
	TextKey  TextKey
	Fill     *graphics.Paint
	Stroke   *graphics.Paint
	Display  label.Display
	Priority int
	DY       float64
	Scale    Scale

	fills   map[int]*graphics.Paint
	strokes map[int]*graphics.Paint
	dys     map[int]float64
}

func (*PathText) instruction() {}

func (t *PathText) scaleStrokeWidth(factor float64, zoom int) {
	if t.dys == nil {
		t.dys = make(map[int]float64)
	}
	if t.Scale == ScaleNone {
		factor = 1
	}
	t.dys[zoom] = t.DY * factor
}

func (t *PathText) scaleTextSize(factor float64, zoom int) {
	if t.fills == nil {
		t.fills = make(map[int]*graphics.Paint)
		t.strokes = make(map[int]*graphics.Paint)
	}
	if t.Fill != nil {
		t.fills[zoom] = scaledText(t.Fill, t.Fill.TextSize, factor)
	}
	if t.Stroke != nil {
		t.strokes[zoom] = scaledText(t.Stroke, t.Stroke.TextSize, factor)
	}
}

//FillPaint 级别对应的文字填充
func (t *PathText) FillPaint(zoom int) *graphics.Paint {
	if p, ok := t.fills[zoom]; ok {
		return p
	}
	return t.Fill
}

//StrokePaint 级别对应的文字描边
func (t *PathText) StrokePaint(zoom int) *graphics.Paint {
	if p, ok := t.strokes[zoom]; ok {
		return p
	}
	return t.Stroke
}

//Offset 同 Line.Offset
func (t *PathText) Offset(zoom int) float64 {
	if d, ok := t.dys[zoom]; ok {
		return d
	}
	return t.DY
}

func scaleStrokeWidth(inst Instruction, factor float64, zoom int) {
	switch i := inst.(type) {
	case *Area:
		i.scaleStrokeWidth(factor, zoom)
	case *Line:
		i.scaleStrokeWidth(factor, zoom)
	case *LineSymbol:
		i.scaleStrokeWidth(factor, zoom)
	case *Circle:
		i.scaleStrokeWidth(factor, zoom)
	case *PathText:
		i.scaleStrokeWidth(factor, zoom)
	}
}

func scaleTextSize(inst Instruction, factor float64, zoom int) {
	switch i := inst.(type) {
	case *Caption:
		i.scaleTextSize(factor, zoom)
	case *PathText:
		i.scaleTextSize(factor, zoom)
	}
}
