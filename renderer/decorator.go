package renderer

import (
	"math"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/model"
)

// SegmentSafetyDistance is kept free at both ends of a segment carrying
// way text.
const SegmentSafetyDistance = 30

// ParallelPath offsets p sideways by dy pixels, positive to the right of
// the direction of travel on screen. Inner vertices move along the sum of
// the neighbouring segment normals scaled to keep both edges dy away.
func ParallelPath(p []model.Point, dy float64) []model.Point {
	n := len(p) - 1
	if n < 1 || dy == 0 {
		return p
	}
	u := make([]model.Point, n)
	for i := 0; i < n; i++ {
		dx, dyy := p[i+1].X-p[i].X, p[i+1].Y-p[i].Y
		l := math.Hypot(dx, dyy)
		if l > 0 {
			u[i] = model.Point{X: dx / l, Y: dyy / l}
		}
	}

	h := make([]model.Point, len(p))
	h[0] = model.Point{X: p[0].X - dy*u[0].Y, Y: p[0].Y + dy*u[0].X}
	for i := 1; i < n; i++ {
		denom := 1 + u[i-1].X*u[i].X + u[i-1].Y*u[i].Y
		if denom < 1e-6 {
			// the way turns back on itself
			h[i] = model.Point{X: p[i].X - dy*u[i].Y, Y: p[i].Y + dy*u[i].X}
			continue
		}
		f := dy / denom
		h[i] = model.Point{
			X: p[i].X - f*(u[i-1].Y+u[i].Y),
			Y: p[i].Y + f*(u[i-1].X+u[i].X),
		}
	}
	h[n] = model.Point{X: p[n].X - dy*u[n-1].Y, Y: p[n].Y + dy*u[n-1].X}
	return h
}

// SymbolPlacement holds the settings of a repeated way symbol.
type SymbolPlacement struct {
	Bitmap      *graphics.Bitmap
	Display     label.Display
	Priority    int
	DY          float64
	AlignCenter bool
	Repeat      bool
	RepeatGap   float64
	RepeatStart float64
	Rotate      bool
}

// RenderSymbol places the symbol along the outer ring of coordinates,
// first after RepeatStart pixels and then every RepeatGap pixels.
func RenderSymbol(s SymbolPlacement, coordinates [][]model.Point) []label.MapElementContainer {
	if len(coordinates) == 0 || len(coordinates[0]) < 2 || s.Bitmap == nil {
		return nil
	}
	c := ParallelPath(coordinates[0], s.DY)
	var out []label.MapElementContainer

	skip := s.RepeatStart
	prev := c[0]
	theta := 0.0
	for i := 1; i < len(c); i++ {
		cur := c[i]
		dx, dy := cur.X-prev.X, cur.Y-prev.Y
		remaining := math.Hypot(dx, dy)
		for remaining > 0 && remaining >= skip {
			f := skip / remaining
			prev = model.Point{X: prev.X + dx*f, Y: prev.Y + dy*f}
			if s.Rotate {
				theta = math.Atan2(dy, dx)
			}
			out = append(out, label.NewSymbolContainer(prev, s.Display, s.Priority, s.Bitmap, theta, s.AlignCenter))
			if !s.Repeat {
				return out
			}
			dx, dy = cur.X-prev.X, cur.Y-prev.Y
			remaining -= skip
			skip = s.RepeatGap
			if skip <= 0 {
				// a zero gap would place symbols forever
				return out
			}
		}
		skip -= remaining
		if skip < 0 {
			skip = 0
		}
		prev = cur
	}
	return out
}

// TextPlacement holds the settings of a way name.
type TextPlacement struct {
	Text     string
	Display  label.Display
	Priority int
	DY       float64
	Fill     *graphics.Paint
	Stroke   *graphics.Paint
}

// RenderText places the text on segments of the outer ring that are long
// enough for it after clipping to boundary shrunk by the text height. A
// placed label is followed by at least its own width of unlabelled way.
func RenderText(t TextPlacement, boundary model.Rectangle, coordinates [][]model.Point) []label.MapElementContainer {
	if len(coordinates) == 0 || len(coordinates[0]) < 2 || t.Text == "" {
		return nil
	}
	measure := t.Fill
	if t.Stroke != nil {
		measure = t.Stroke
	}
	if measure == nil {
		return nil
	}
	textWidth := measure.TextWidth(t.Text)
	textHeight := measure.TextHeight(t.Text)
	required := textWidth + 2*SegmentSafetyDistance
	inner := boundary.Enlarge(-textHeight, -textHeight, -textHeight, -textHeight)
	if inner.Width() <= 0 || inner.Height() <= 0 {
		return nil
	}

	c := ParallelPath(coordinates[0], t.DY)
	var out []label.MapElementContainer
	skip := 0.0
	for i := 1; i < len(c); i++ {
		seg := model.LineSegment{Start: c[i-1], End: c[i]}
		length := seg.Length()
		skip -= length
		if skip > 0 {
			continue
		}
		if length < required {
			continue
		}
		clipped, ok := seg.ClipToRectangle(inner)
		if !ok {
			continue
		}
		l := clipped.Length()
		if l < required {
			continue
		}
		if clipped.Start.X > clipped.End.X {
			clipped = model.LineSegment{Start: clipped.End, End: clipped.Start}
		}
		placed := clipped.SubSegment(SegmentSafetyDistance, l-2*SegmentSafetyDistance)
		out = append(out, label.NewWayTextContainer(placed.Start, placed.End, t.Display, t.Priority, t.Text, t.Fill, t.Stroke, textHeight))
		skip = textWidth
	}
	return out
}
