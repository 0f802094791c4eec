package graphics

import (
	"image"
	"math"

	"github.com/atlasdatatech/maprender/model"
	"github.com/gogpu/gg"
	log "github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// haloSteps is the number of offsets used to fake a stroked text outline.
const haloSteps = 12

// Canvas draws one tile in tile-relative pixel coordinates.
type Canvas struct {
	dc *gg.Context
	w  int
	h  int
}

//NewCanvas 创建画布，初始透明
func NewCanvas(width, height int) *Canvas {
	return &Canvas{dc: gg.NewContext(width, height), w: width, h: height}
}

//Width 宽
func (c *Canvas) Width() int { return c.w }

//Height 高
func (c *Canvas) Height() int { return c.h }

//Clear 以颜色替换所有像素
func (c *Canvas) Clear(col gg.RGBA) {
	c.dc.ClearWithColor(col)
}

//FillColor 以颜色叠加整个画布
func (c *Canvas) FillColor(col gg.RGBA) {
	if col.A <= 0 {
		return
	}
	c.dc.SetFillBrush(gg.Solid(col))
	c.dc.SetFillRule(gg.FillRuleNonZero)
	c.dc.DrawRectangle(0, 0, float64(c.w), float64(c.h))
	c.fill()
}

// FillOutside paints everything outside inside, which is given in canvas
// coordinates and may extend past the canvas.
func (c *Canvas) FillOutside(col gg.RGBA, inside model.Rectangle) {
	if col.A <= 0 {
		return
	}
	full := model.Rectangle{Right: float64(c.w), Bottom: float64(c.h)}
	if !full.Intersects(inside) {
		c.FillColor(col)
		return
	}
	l := math.Max(inside.Left, 0)
	t := math.Max(inside.Top, 0)
	r := math.Min(inside.Right, full.Right)
	b := math.Min(inside.Bottom, full.Bottom)
	c.dc.SetFillBrush(gg.Solid(col))
	c.dc.SetFillRule(gg.FillRuleEvenOdd)
	c.dc.DrawRectangle(0, 0, full.Right, full.Bottom)
	c.dc.DrawRectangle(l, t, r-l, b-t)
	c.fill()
}

// ClearOutside makes everything outside inside transparent.
func (c *Canvas) ClearOutside(inside model.Rectangle) {
	keep := image.Rect(
		int(math.Max(math.Floor(inside.Left), 0)),
		int(math.Max(math.Floor(inside.Top), 0)),
		int(math.Min(math.Ceil(inside.Right), float64(c.w))),
		int(math.Min(math.Ceil(inside.Bottom), float64(c.h))),
	)
	dst := image.NewNRGBA(image.Rect(0, 0, c.w, c.h))
	if !keep.Empty() {
		xdraw.Draw(dst, keep, c.dc.Image(), keep.Min, xdraw.Src)
	}
	c.dc.ClearWithColor(gg.Transparent)
	c.dc.DrawImage(gg.ImageBufFromImage(dst), 0, 0)
}

// DrawPath draws rings as one path. Filled paths use the even-odd rule so
// inner rings become holes.
func (c *Canvas) DrawPath(rings [][]model.Point, p *Paint) {
	if p.IsTransparent() {
		return
	}
	p.apply(c.dc)
	n := 0
	for _, ring := range rings {
		if len(ring) < 2 {
			continue
		}
		c.dc.MoveTo(ring[0].X, ring[0].Y)
		for _, pt := range ring[1:] {
			c.dc.LineTo(pt.X, pt.Y)
		}
		if p.Style == Fill {
			c.dc.ClosePath()
		}
		n++
	}
	if n == 0 {
		return
	}
	if p.Style == Fill {
		c.dc.SetFillRule(gg.FillRuleEvenOdd)
		c.fill()
		return
	}
	c.stroke()
}

//DrawCircle 画圆
func (c *Canvas) DrawCircle(x, y, radius float64, p *Paint) {
	if p.IsTransparent() || radius <= 0 {
		return
	}
	p.apply(c.dc)
	c.dc.DrawCircle(x, y, radius)
	if p.Style == Fill {
		c.fill()
		return
	}
	c.stroke()
}

// DrawText draws s with its baseline starting at (x, y). A non-nil stroke
// paint draws a halo of half its stroke width behind the text.
func (c *Canvas) DrawText(s string, x, y float64, fill, stroke *Paint) {
	if s == "" {
		return
	}
	drawString(c.dc, s, x, y, fill, stroke)
}

func drawString(dc *gg.Context, s string, x, y float64, fill, stroke *Paint) {
	if stroke != nil && !stroke.IsTransparent() {
		if face := stroke.Face(); face != nil {
			dc.SetFont(face)
			dc.SetFillBrush(gg.Solid(stroke.Color))
			r := math.Max(stroke.StrokeWidth/2, 0.5)
			for i := 0; i < haloSteps; i++ {
				sin, cos := math.Sincos(2 * math.Pi * float64(i) / haloSteps)
				dc.DrawString(s, x+r*cos, y+r*sin)
			}
		}
	}
	if fill != nil && !fill.IsTransparent() {
		if face := fill.Face(); face != nil {
			dc.SetFont(face)
			dc.SetFillBrush(gg.Solid(fill.Color))
			dc.DrawString(s, x, y)
		}
	}
}

// DrawTextRotated draws s centered on the segment from start to end,
// turned to the segment's direction and vertically centered on it.
func (c *Canvas) DrawTextRotated(s string, start, end model.Point, fill, stroke *Paint) {
	if s == "" {
		return
	}
	sprite := textSprite(s, fill, stroke)
	if sprite == nil {
		return
	}
	seg := model.LineSegment{Start: start, End: end}
	mid := seg.PointAlong(seg.Length() / 2)
	c.drawSprite(sprite, mid.X, mid.Y, seg.Angle())
}

func textSprite(s string, fill, stroke *Paint) image.Image {
	p := fill
	if p == nil {
		p = stroke
	}
	if p == nil {
		return nil
	}
	face := p.Face()
	if face == nil {
		return nil
	}
	m := face.Metrics()
	pad := 1.0
	if stroke != nil {
		pad += math.Ceil(stroke.StrokeWidth / 2)
	}
	w := int(math.Ceil(face.Advance(s) + 2*pad))
	h := int(math.Ceil(m.Ascent + m.Descent + 2*pad))
	if w <= 0 || h <= 0 {
		return nil
	}
	dc := gg.NewContext(w, h)
	drawString(dc, s, pad, pad+m.Ascent, fill, stroke)
	return dc.Image()
}

// DrawBitmap draws b with its upper left corner at (left, top).
func (c *Canvas) DrawBitmap(b *Bitmap, left, top float64) {
	if b == nil {
		return
	}
	c.dc.DrawImage(b.buf, math.Round(left), math.Round(top))
}

// DrawBitmapRotated draws b centered on (cx, cy) and turned by theta
// radians.
func (c *Canvas) DrawBitmapRotated(b *Bitmap, cx, cy, theta float64) {
	if b == nil {
		return
	}
	c.drawSprite(b.img, cx, cy, theta)
}

// drawSprite composites src centered on (cx, cy) after turning it by theta.
// Images are always drawn axis aligned, so the rotation is resampled into
// a separate buffer first.
func (c *Canvas) drawSprite(src image.Image, cx, cy, theta float64) {
	sb := src.Bounds()
	w, h := float64(sb.Dx()), float64(sb.Dy())
	if math.Abs(math.Remainder(theta, 2*math.Pi)) < 1e-9 {
		c.dc.DrawImage(gg.ImageBufFromImage(src), math.Round(cx-w/2), math.Round(cy-h/2))
		return
	}
	sin, cos := math.Sincos(theta)
	dw := int(math.Ceil(math.Abs(w*cos)+math.Abs(h*sin))) + 2
	dh := int(math.Ceil(math.Abs(w*sin)+math.Abs(h*cos))) + 2
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	tx, ty := float64(dw)/2, float64(dh)/2
	ox, oy := float64(sb.Min.X)+w/2, float64(sb.Min.Y)+h/2
	m := f64.Aff3{
		cos, -sin, tx - cos*ox + sin*oy,
		sin, cos, ty - sin*ox - cos*oy,
	}
	xdraw.BiLinear.Transform(dst, m, src, sb, xdraw.Over, nil)
	c.dc.DrawImage(gg.ImageBufFromImage(dst), math.Round(cx-tx), math.Round(cy-ty))
}

func (c *Canvas) fill() {
	if err := c.dc.Fill(); err != nil {
		log.Warnf("canvas fill: %v", err)
	}
}

func (c *Canvas) stroke() {
	if err := c.dc.Stroke(); err != nil {
		log.Warnf("canvas stroke: %v", err)
	}
}

//Image 当前图像
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

//TileBitmap 输出瓦片位图
func (c *Canvas) TileBitmap() *TileBitmap {
	return NewTileBitmap(c.dc.Image())
}
