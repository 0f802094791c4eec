package label

import (
	"math"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/model"
)

// MapElementContainer is a label candidate: a symbol or a piece of text
// placed at an absolute pixel position. Containers are compared by
// identity; the same pointer travels between neighbouring tiles.
type MapElementContainer interface {
	// Priority orders candidates; a lower value is more important.
	Priority() int
	Display() Display
	// XY is the anchor in absolute pixel coordinates.
	XY() model.Point
	// BoundaryAbsolute is the area covered in absolute pixel coordinates.
	BoundaryAbsolute() model.Rectangle
	Intersects(r model.Rectangle) bool
	ClashesWith(other MapElementContainer) bool
	// Draw paints the element on a canvas whose upper left corner is at
	// origin in absolute pixel coordinates.
	Draw(c *graphics.Canvas, origin model.Point)
}

type container struct {
	xy       model.Point
	display  Display
	priority int
	// relative to xy
	boundary model.Rectangle
}

func (c *container) Priority() int { return c.priority }

func (c *container) Display() Display { return c.display }

func (c *container) XY() model.Point { return c.xy }

func (c *container) BoundaryAbsolute() model.Rectangle {
	return c.boundary.Shift(c.xy)
}

func (c *container) Intersects(r model.Rectangle) bool {
	return c.BoundaryAbsolute().Intersects(r)
}

func (c *container) ClashesWith(other MapElementContainer) bool {
	return clashes(c.display, c.BoundaryAbsolute(), other)
}

// clashes is shared by every container kind: an always-displayed label on
// either side never clashes.
func clashes(display Display, boundary model.Rectangle, other MapElementContainer) bool {
	if display == DisplayAlways || other.Display() == DisplayAlways {
		return false
	}
	return boundary.Intersects(other.BoundaryAbsolute())
}

//SymbolContainer 图标
type SymbolContainer struct {
	container
	Bitmap      *graphics.Bitmap
	Theta       float64
	AlignCenter bool
}

//NewSymbolContainer 创建图标标注
func NewSymbolContainer(xy model.Point, display Display, priority int, bitmap *graphics.Bitmap, theta float64, alignCenter bool) *SymbolContainer {
	w, h := float64(bitmap.Width()), float64(bitmap.Height())
	b := model.Rectangle{Right: w, Bottom: h}
	if alignCenter {
		b = model.Rectangle{Left: -w / 2, Top: -h / 2, Right: w / 2, Bottom: h / 2}
	}
	return &SymbolContainer{
		container:   container{xy: xy, display: display, priority: priority, boundary: b},
		Bitmap:      bitmap,
		Theta:       theta,
		AlignCenter: alignCenter,
	}
}

//Draw 绘制
func (s *SymbolContainer) Draw(c *graphics.Canvas, origin model.Point) {
	b := s.boundary.Shift(s.xy)
	left, top := b.Left-origin.X, b.Top-origin.Y
	if s.Theta == 0 {
		c.DrawBitmap(s.Bitmap, left, top)
		return
	}
	w, h := b.Width(), b.Height()
	if s.AlignCenter {
		c.DrawBitmapRotated(s.Bitmap, left+w/2, top+h/2, s.Theta)
		return
	}
	// turn around the upper left corner
	sin, cos := math.Sincos(s.Theta)
	cx := left + cos*w/2 - sin*h/2
	cy := top + sin*w/2 + cos*h/2
	c.DrawBitmapRotated(s.Bitmap, cx, cy, s.Theta)
}

// PointTextContainer is a caption anchored at a point. Its box sits on
// the anchor according to Position. Symbol is the icon the caption
// belongs to, nil when unlinked.
type PointTextContainer struct {
	container
	Text       string
	Fill       *graphics.Paint
	Stroke     *graphics.Paint
	Symbol     *SymbolContainer
	Position   Position
	TextWidth  float64
	TextHeight float64
}

// NewPointTextContainer measures text with the stroke paint when present,
// since the halo makes it the wider of the two.
func NewPointTextContainer(xy model.Point, display Display, priority int, text string, fill, stroke *graphics.Paint, symbol *SymbolContainer, position Position) *PointTextContainer {
	p := fill
	if stroke != nil {
		p = stroke
	}
	w, h := p.TextWidth(text), p.TextHeight(text)
	if position == PositionAuto {
		position = PositionCenter
	}
	return &PointTextContainer{
		container:  container{xy: xy, display: display, priority: priority, boundary: textBoundary(position, w, h)},
		Text:       text,
		Fill:       fill,
		Stroke:     stroke,
		Symbol:     symbol,
		Position:   position,
		TextWidth:  w,
		TextHeight: h,
	}
}

func textBoundary(p Position, w, h float64) model.Rectangle {
	switch p {
	case PositionBelow:
		return model.Rectangle{Left: -w / 2, Top: 0, Right: w / 2, Bottom: h}
	case PositionBelowLeft:
		return model.Rectangle{Left: -w, Top: 0, Right: 0, Bottom: h}
	case PositionBelowRight:
		return model.Rectangle{Left: 0, Top: 0, Right: w, Bottom: h}
	case PositionAbove:
		return model.Rectangle{Left: -w / 2, Top: -h, Right: w / 2, Bottom: 0}
	case PositionAboveLeft:
		return model.Rectangle{Left: -w, Top: -h, Right: 0, Bottom: 0}
	case PositionAboveRight:
		return model.Rectangle{Left: 0, Top: -h, Right: w, Bottom: 0}
	case PositionLeft:
		return model.Rectangle{Left: -w, Top: -h / 2, Right: 0, Bottom: h / 2}
	case PositionRight:
		return model.Rectangle{Left: 0, Top: -h / 2, Right: w, Bottom: h / 2}
	}
	return model.Rectangle{Left: -w / 2, Top: -h / 2, Right: w / 2, Bottom: h / 2}
}

//Draw 绘制
func (t *PointTextContainer) Draw(c *graphics.Canvas, origin model.Point) {
	b := t.boundary.Shift(t.xy)
	x := b.Left - origin.X
	if t.Stroke != nil {
		x += t.Stroke.StrokeWidth / 2
	}
	y := b.Top - origin.Y + b.Height()/2
	p := t.Fill
	if p == nil {
		p = t.Stroke
	}
	if face := p.Face(); face != nil {
		m := face.Metrics()
		y += (m.Ascent - m.Descent) / 2
	}
	c.DrawText(t.Text, x, y, t.Fill, t.Stroke)
}

// WayTextContainer is text drawn along one straight piece of a way.
type WayTextContainer struct {
	container
	Text   string
	Fill   *graphics.Paint
	Stroke *graphics.Paint
	// absolute pixel coordinates, Start.X <= End.X
	Start model.Point
	End   model.Point
}

// NewWayTextContainer covers the bounding box of the segment, grown by half
// the text height above and below.
func NewWayTextContainer(start, end model.Point, display Display, priority int, text string, fill, stroke *graphics.Paint, textHeight float64) *WayTextContainer {
	b := model.NewRectangle(start.X, start.Y, end.X, end.Y).Enlarge(0, textHeight/2, 0, textHeight/2)
	return &WayTextContainer{
		container: container{xy: start, display: display, priority: priority, boundary: b.Shift(model.Point{X: -start.X, Y: -start.Y})},
		Text:      text,
		Fill:      fill,
		Stroke:    stroke,
		Start:     start,
		End:       end,
	}
}

//Draw 绘制
func (t *WayTextContainer) Draw(c *graphics.Canvas, origin model.Point) {
	s := t.Start.Offset(-origin.X, -origin.Y)
	e := t.End.Offset(-origin.X, -origin.Y)
	c.DrawTextRotated(t.Text, s, e, t.Fill, t.Stroke)
}
