package graphics

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	log "github.com/sirupsen/logrus"
)

//Style 填充或描边
type Style int

const (
	Fill Style = iota
	Stroke
)

//Cap 线端样式
type Cap int

const (
	CapRound Cap = iota
	CapButt
	CapSquare
)

//Join 拐角样式
type Join int

const (
	JoinRound Join = iota
	JoinMiter
	JoinBevel
)

//ParseCap 解析线端
func ParseCap(s string) (Cap, error) {
	switch s {
	case "", "round":
		return CapRound, nil
	case "butt":
		return CapButt, nil
	case "square":
		return CapSquare, nil
	}
	return CapRound, fmt.Errorf("unknown stroke-linecap %q", s)
}

//ParseJoin 解析拐角
func ParseJoin(s string) (Join, error) {
	switch s {
	case "", "round":
		return JoinRound, nil
	case "miter":
		return JoinMiter, nil
	case "bevel":
		return JoinBevel, nil
	}
	return JoinRound, fmt.Errorf("unknown stroke-linejoin %q", s)
}

// Paint holds the drawing state of one render instruction. Paints are
// shared between tiles once a theme is loaded, so they must not be changed
// after that. Derive scaled variants with Clone.
type Paint struct {
	Color       gg.RGBA
	Style       Style
	StrokeWidth float64
	Cap         Cap
	Join        Join
	Dash        []float64
	TextSize    float64
	Family      FontFamily
	FontStyle   FontStyle
}

//NewPaint 默认画笔
func NewPaint(style Style) *Paint {
	return &Paint{
		Color:       gg.Black,
		Style:       style,
		StrokeWidth: 1,
		TextSize:    10,
	}
}

//Clone 复制画笔
func (p *Paint) Clone() *Paint {
	c := *p
	if p.Dash != nil {
		c.Dash = append([]float64(nil), p.Dash...)
	}
	return &c
}

//IsTransparent 完全透明
func (p *Paint) IsTransparent() bool {
	return p == nil || p.Color.A <= 0
}

// Face returns the font face for the paint's text settings. Faces for the
// bundled fonts do not fail to load; a failure is logged and nil is
// returned.
func (p *Paint) Face() text.Face {
	size := p.TextSize
	if size <= 0 {
		size = 1
	}
	f, err := Face(p.Family, p.FontStyle, size)
	if err != nil {
		log.Errorf("load font %d/%d: %v", p.Family, p.FontStyle, err)
		return nil
	}
	return f
}

//TextWidth 文字宽度
func (p *Paint) TextWidth(s string) float64 {
	f := p.Face()
	if f == nil || s == "" {
		return 0
	}
	w := f.Advance(s)
	if p.Style == Stroke {
		w += p.StrokeWidth
	}
	return math.Ceil(w)
}

//TextHeight 文字高度
func (p *Paint) TextHeight(s string) float64 {
	f := p.Face()
	if f == nil || s == "" {
		return 0
	}
	m := f.Metrics()
	h := m.Ascent + m.Descent
	if p.Style == Stroke {
		h += p.StrokeWidth
	}
	return math.Ceil(h)
}

func (p *Paint) apply(dc *gg.Context) {
	dc.SetFillBrush(gg.Solid(p.Color))
	dc.SetFillRule(gg.FillRuleNonZero)
	dc.SetLineWidth(p.StrokeWidth)
	switch p.Cap {
	case CapButt:
		dc.SetLineCap(gg.LineCapButt)
	case CapSquare:
		dc.SetLineCap(gg.LineCapSquare)
	default:
		dc.SetLineCap(gg.LineCapRound)
	}
	switch p.Join {
	case JoinMiter:
		dc.SetLineJoin(gg.LineJoinMiter)
	case JoinBevel:
		dc.SetLineJoin(gg.LineJoinBevel)
	default:
		dc.SetLineJoin(gg.LineJoinRound)
	}
	if len(p.Dash) > 0 {
		dc.SetDash(p.Dash...)
	} else {
		dc.ClearDash()
	}
}
