package model

import (
	"fmt"
	"math"
)

//Point 像素坐标点
type Point struct {
	X float64
	Y float64
}

//Distance 两点距离
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

//Offset 平移
func (p Point) Offset(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) String() string {
	return fmt.Sprintf("x=%g, y=%g", p.X, p.Y)
}

//Rectangle 像素矩形，Top < Bottom
type Rectangle struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

//NewRectangle 创建矩形
func NewRectangle(left, top, right, bottom float64) Rectangle {
	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	return Rectangle{Left: left, Top: top, Right: right, Bottom: bottom}
}

//Width 宽
func (r Rectangle) Width() float64 {
	return r.Right - r.Left
}

//Height 高
func (r Rectangle) Height() float64 {
	return r.Bottom - r.Top
}

//Center 中心点
func (r Rectangle) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

//Contains 是否包含点(含边界)
func (r Rectangle) Contains(p Point) bool {
	return r.Left <= p.X && r.Right >= p.X && r.Top <= p.Y && r.Bottom >= p.Y
}

// Intersects reports whether the two rectangles overlap. Shared edges count
// as an intersection.
func (r Rectangle) Intersects(other Rectangle) bool {
	return r.Left <= other.Right && other.Left <= r.Right &&
		r.Top <= other.Bottom && other.Top <= r.Bottom
}

// Enlarge grows the rectangle by the given amounts on each side. Negative
// values shrink it; a rectangle shrunk past its center collapses to it.
func (r Rectangle) Enlarge(left, top, right, bottom float64) Rectangle {
	out := Rectangle{
		Left:   r.Left - left,
		Top:    r.Top - top,
		Right:  r.Right + right,
		Bottom: r.Bottom + bottom,
	}
	if out.Left > out.Right {
		c := (out.Left + out.Right) / 2
		out.Left, out.Right = c, c
	}
	if out.Top > out.Bottom {
		c := (out.Top + out.Bottom) / 2
		out.Top, out.Bottom = c, c
	}
	return out
}

//Shift 平移矩形
func (r Rectangle) Shift(p Point) Rectangle {
	return Rectangle{Left: r.Left + p.X, Top: r.Top + p.Y, Right: r.Right + p.X, Bottom: r.Bottom + p.Y}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("left=%g, top=%g, right=%g, bottom=%g", r.Left, r.Top, r.Right, r.Bottom)
}

// BoundingBox returns the smallest rectangle containing all points.
func BoundingBox(points []Point) Rectangle {
	if len(points) == 0 {
		return Rectangle{}
	}
	r := Rectangle{Left: points[0].X, Top: points[0].Y, Right: points[0].X, Bottom: points[0].Y}
	for _, p := range points[1:] {
		r.Left = math.Min(r.Left, p.X)
		r.Top = math.Min(r.Top, p.Y)
		r.Right = math.Max(r.Right, p.X)
		r.Bottom = math.Max(r.Bottom, p.Y)
	}
	return r
}
