package model

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

//DefaultTileSize 默认瓦片像素大小
const DefaultTileSize = 256

//MaxZoom 最大级别
const MaxZoom = 24

//Tile 瓦片，包含像素大小
type Tile struct {
	maptile.Tile
	Size int
}

//NewTile 创建瓦片
func NewTile(x, y uint32, zoom int, size int) Tile {
	return Tile{Tile: maptile.New(x, y, maptile.Zoom(zoom)), Size: size}
}

//Zoom 级别
func (t Tile) Zoom() int {
	return int(t.Z)
}

//MaxTileNumber 当前级别最大瓦片编号
func (t Tile) MaxTileNumber() uint32 {
	return uint32(1)<<t.Z - 1
}

// Origin returns the absolute pixel position of the tile's upper left corner.
func (t Tile) Origin() Point {
	return Point{X: float64(t.X) * float64(t.Size), Y: float64(t.Y) * float64(t.Size)}
}

// BoundaryAbsolute returns the tile area in absolute pixel coordinates.
func (t Tile) BoundaryAbsolute() Rectangle {
	o := t.Origin()
	return Rectangle{Left: o.X, Top: o.Y, Right: o.X + float64(t.Size), Bottom: o.Y + float64(t.Size)}
}

//Bound 经纬度范围
func (t Tile) Bound() orb.Bound {
	return t.Tile.Bound()
}

//Left 左侧瓦片，横向环绕
func (t Tile) Left() Tile {
	x := t.X
	if x == 0 {
		x = t.MaxTileNumber()
	} else {
		x--
	}
	return t.with(x, t.Y)
}

//Right 右侧瓦片，横向环绕
func (t Tile) Right() Tile {
	x := t.X + 1
	if x > t.MaxTileNumber() {
		x = 0
	}
	return t.with(x, t.Y)
}

// Above returns the tile to the north; ok is false at the top row.
func (t Tile) Above() (Tile, bool) {
	if t.Y == 0 {
		return Tile{}, false
	}
	return t.with(t.X, t.Y-1), true
}

// Below returns the tile to the south; ok is false at the bottom row.
func (t Tile) Below() (Tile, bool) {
	if t.Y >= t.MaxTileNumber() {
		return Tile{}, false
	}
	return t.with(t.X, t.Y+1), true
}

// Neighbours returns the distinct tiles around t, at most eight. At low zoom
// levels the horizontal wrap-around can map several directions to the same
// tile, or back to t itself; those are dropped.
func (t Tile) Neighbours() []Tile {
	candidates := make([]Tile, 0, 8)
	candidates = append(candidates, t.Left(), t.Right())
	if above, ok := t.Above(); ok {
		candidates = append(candidates, above, above.Left(), above.Right())
	}
	if below, ok := t.Below(); ok {
		candidates = append(candidates, below, below.Left(), below.Right())
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c == t {
			continue
		}
		dup := false
		for _, o := range out {
			if o == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func (t Tile) with(x, y uint32) Tile {
	return Tile{Tile: maptile.New(x, y, t.Z), Size: t.Size}
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d@%d", t.Z, t.X, t.Y, t.Size)
}
