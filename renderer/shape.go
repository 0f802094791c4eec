package renderer

import (
	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/mercator"
	"github.com/atlasdatatech/maprender/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// ShapeContainer is a shape queued for drawing: *PolylineContainer or
// *CircleContainer.
type ShapeContainer interface {
	shape()
}

// PolylineContainer is a way drawn on one tile. Its pixel coordinates are
// computed on first use; the source way is released once they are.
type PolylineContainer struct {
	way        *mapdata.Way
	tags       osm.Tags
	layer      int8
	closed     bool
	upperLeft  model.Tile
	lowerRight model.Tile

	absolute [][]model.Point
	relative [][]model.Point
	center   *model.Point
}

func (*PolylineContainer) shape() {}

//NewPolylineContainer 包装线要素
func NewPolylineContainer(way *mapdata.Way, upperLeft, lowerRight model.Tile) *PolylineContainer {
	return &PolylineContainer{
		way:        way,
		tags:       way.Tags,
		layer:      way.Layer,
		closed:     way.IsClosed(),
		upperLeft:  upperLeft,
		lowerRight: lowerRight,
	}
}

// newTileAreaContainer covers the whole of tile, used for the water
// background. Points are relative to the tile.
func newTileAreaContainer(tile model.Tile, tags osm.Tags) *PolylineContainer {
	s := float64(tile.Size)
	rel := []model.Point{{X: 0, Y: 0}, {X: s, Y: 0}, {X: s, Y: s}, {X: 0, Y: s}, {X: 0, Y: 0}}
	o := tile.Origin()
	abs := make([]model.Point, len(rel))
	for i, p := range rel {
		abs[i] = p.Offset(o.X, o.Y)
	}
	return &PolylineContainer{
		tags:       tags,
		layer:      0,
		closed:     true,
		upperLeft:  tile,
		lowerRight: tile,
		absolute:   [][]model.Point{abs},
		relative:   [][]model.Point{rel},
	}
}

//Tags 标签
func (c *PolylineContainer) Tags() osm.Tags {
	return c.tags
}

//Layer 图层
func (c *PolylineContainer) Layer() int8 {
	return c.layer
}

//IsClosedWay 是否闭合
func (c *PolylineContainer) IsClosedWay() bool {
	return c.closed
}

//UpperLeft 左上瓦片
func (c *PolylineContainer) UpperLeft() model.Tile {
	return c.upperLeft
}

//LowerRight 右下瓦片
func (c *PolylineContainer) LowerRight() model.Tile {
	return c.lowerRight
}

// CoordinatesAbsolute returns the rings in absolute pixels.
func (c *PolylineContainer) CoordinatesAbsolute() [][]model.Point {
	if c.absolute != nil {
		return c.absolute
	}
	mapSize := mercator.MapSize(c.upperLeft.Zoom(), c.upperLeft.Size)
	c.absolute = make([][]model.Point, len(c.way.Rings))
	for i, ring := range c.way.Rings {
		pts := make([]model.Point, len(ring))
		for j, p := range ring {
			pts[j] = mercator.Pixel(p, mapSize)
		}
		c.absolute[i] = pts
	}
	if c.way.LabelPosition != nil {
		p := mercator.Pixel(*c.way.LabelPosition, mapSize)
		c.center = &p
	}
	c.way = nil
	return c.absolute
}

// CoordinatesRelativeToOrigin returns the rings relative to the upper left
// tile's origin.
func (c *PolylineContainer) CoordinatesRelativeToOrigin() [][]model.Point {
	if c.relative != nil {
		return c.relative
	}
	o := c.upperLeft.Origin()
	abs := c.CoordinatesAbsolute()
	c.relative = make([][]model.Point, len(abs))
	for i, ring := range abs {
		pts := make([]model.Point, len(ring))
		for j, p := range ring {
			pts[j] = p.Offset(-o.X, -o.Y)
		}
		c.relative[i] = pts
	}
	return c.relative
}

// CenterAbsolute is the label position of the way, or the center of its
// outer ring's bounding box.
func (c *PolylineContainer) CenterAbsolute() model.Point {
	abs := c.CoordinatesAbsolute()
	if c.center == nil {
		var p model.Point
		if len(abs) > 0 && len(abs[0]) > 0 {
			p = model.BoundingBox(abs[0]).Center()
		}
		c.center = &p
	}
	return *c.center
}

// CircleContainer is a circle at a point relative to the tile.
type CircleContainer struct {
	Point  model.Point
	Radius float64
}

func (*CircleContainer) shape() {}

// ShapePaintContainer pairs a shape with the paint and sideways offset it
// is drawn with.
type ShapePaintContainer struct {
	Shape ShapeContainer
	Paint *graphics.Paint
	DY    float64
}

func pixelAbsolute(p orb.Point, tile model.Tile) model.Point {
	return mercator.Pixel(p, mercator.MapSize(tile.Zoom(), tile.Size))
}
