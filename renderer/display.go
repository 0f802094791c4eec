package renderer

import (
	"math"

	"github.com/atlasdatatech/maprender/model"
	"github.com/gogpu/gg"
)

const (
	// strokes grow by strokeIncrease per zoom level above strokeMinZoom
	strokeIncrease = 1.5
	strokeMinZoom  = 12
)

// DefaultBackground is the color of an empty tile.
var DefaultBackground = gg.RGBA{R: 0xee / 255.0, G: 0xee / 255.0, B: 0xee / 255.0, A: 1}

//DisplayModel 显示参数
type DisplayModel struct {
	TileSize        int
	UserScaleFactor float64
	Background      gg.RGBA
}

//NewDisplayModel 默认显示参数
func NewDisplayModel() *DisplayModel {
	return &DisplayModel{
		TileSize:        model.DefaultTileSize,
		UserScaleFactor: 1,
		Background:      DefaultBackground,
	}
}

//ScaleFactor 缩放系数
func (d *DisplayModel) ScaleFactor() float64 {
	if d.UserScaleFactor <= 0 {
		return 1
	}
	return d.UserScaleFactor
}

// StrokeScale is the stroke width factor applied to a theme at zoom.
func (d *DisplayModel) StrokeScale(zoom int) float64 {
	diff := math.Max(float64(zoom-strokeMinZoom), 0)
	return d.ScaleFactor() * math.Pow(strokeIncrease, diff)
}
