package renderer

import (
	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/model"
	"github.com/gogpu/gg"
)

// CanvasRasterizer draws the contents of a RenderContext onto a tile canvas.
type CanvasRasterizer struct {
	canvas *graphics.Canvas
}

//NewCanvasRasterizer 创建栅格化器
func NewCanvasRasterizer(c *graphics.Canvas) *CanvasRasterizer {
	return &CanvasRasterizer{canvas: c}
}

// DrawWays draws layer after layer and within a layer level after level.
// Each level's shapes are drawn last-added first.
func (r *CanvasRasterizer) DrawWays(ways [][][]ShapePaintContainer) {
	for _, levels := range ways {
		for _, list := range levels {
			for i := len(list) - 1; i >= 0; i-- {
				r.drawShapePaintContainer(list[i])
			}
		}
	}
}

func (r *CanvasRasterizer) drawShapePaintContainer(c ShapePaintContainer) {
	switch s := c.Shape.(type) {
	case *PolylineContainer:
		rings := s.CoordinatesRelativeToOrigin()
		if c.DY != 0 {
			shifted := make([][]model.Point, len(rings))
			for i, ring := range rings {
				shifted[i] = ParallelPath(ring, c.DY)
			}
			rings = shifted
		}
		r.canvas.DrawPath(rings, c.Paint)
	case *CircleContainer:
		r.canvas.DrawCircle(s.Point.X, s.Point.Y, s.Radius, c.Paint)
	}
}

// DrawMapElements draws labels of tile, the most important last so it
// ends up on top.
func (r *CanvasRasterizer) DrawMapElements(elements []label.MapElementContainer, tile model.Tile) {
	sorted := make([]label.MapElementContainer, len(elements))
	copy(sorted, elements)
	label.SortByPriority(sorted)
	origin := tile.Origin()
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i].Draw(r.canvas, origin)
	}
}

//Fill 填充整个画布
func (r *CanvasRasterizer) Fill(col gg.RGBA) {
	r.canvas.FillColor(col)
}

// FillOutsideAreas paints col outside inside, given relative to the
// tile. A transparent col clears instead.
func (r *CanvasRasterizer) FillOutsideAreas(col gg.RGBA, inside model.Rectangle) {
	if col.A <= 0 {
		r.canvas.ClearOutside(inside)
		return
	}
	r.canvas.FillOutside(col, inside)
}
