package model

import "math"

// Cohen-Sutherland outcodes.
const (
	inside = 0
	left   = 1
	right  = 2
	bottom = 4
	top    = 8
)

//LineSegment 线段
type LineSegment struct {
	Start Point
	End   Point
}

//Length 线段长度
func (s LineSegment) Length() float64 {
	return s.Start.Distance(s.End)
}

//Angle 线段方向角(弧度)
func (s LineSegment) Angle() float64 {
	return math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X)
}

// PointAlong returns the point at the given distance from Start in the
// direction of End. A degenerate segment always yields Start.
func (s LineSegment) PointAlong(distance float64) Point {
	l := s.Length()
	if l == 0 {
		return s.Start
	}
	t := distance / l
	return Point{
		X: s.Start.X + (s.End.X-s.Start.X)*t,
		Y: s.Start.Y + (s.End.Y-s.Start.Y)*t,
	}
}

//SubSegment 从offset开始截取长度为length的子线段
func (s LineSegment) SubSegment(offset, length float64) LineSegment {
	return LineSegment{Start: s.PointAlong(offset), End: s.PointAlong(offset + length)}
}

// ClipToRectangle clips the segment to r. The second return value is false
// when the segment lies entirely outside r.
func (s LineSegment) ClipToRectangle(r Rectangle) (LineSegment, bool) {
	x0, y0 := s.Start.X, s.Start.Y
	x1, y1 := s.End.X, s.End.Y
	code0 := outcode(r, x0, y0)
	code1 := outcode(r, x1, y1)

	for {
		if code0|code1 == inside {
			return LineSegment{Start: Point{X: x0, Y: y0}, End: Point{X: x1, Y: y1}}, true
		}
		if code0&code1 != 0 {
			return LineSegment{}, false
		}

		out := code0
		if out == inside {
			out = code1
		}
		var x, y float64
		switch {
		case out&top != 0:
			x = x0 + (x1-x0)*(r.Bottom-y0)/(y1-y0)
			y = r.Bottom
		case out&bottom != 0:
			x = x0 + (x1-x0)*(r.Top-y0)/(y1-y0)
			y = r.Top
		case out&right != 0:
			y = y0 + (y1-y0)*(r.Right-x0)/(x1-x0)
			x = r.Right
		default:
			y = y0 + (y1-y0)*(r.Left-x0)/(x1-x0)
			x = r.Left
		}
		if out == code0 {
			x0, y0 = x, y
			code0 = outcode(r, x0, y0)
		} else {
			x1, y1 = x, y
			code1 = outcode(r, x1, y1)
		}
	}
}

// outcode uses screen orientation: "top" is the larger y value here, which
// matches Rectangle.Bottom.
func outcode(r Rectangle, x, y float64) int {
	code := inside
	if x < r.Left {
		code |= left
	} else if x > r.Right {
		code |= right
	}
	if y < r.Top {
		code |= bottom
	} else if y > r.Bottom {
		code |= top
	}
	return code
}
