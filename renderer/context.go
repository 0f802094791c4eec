package renderer

import (
	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/mercator"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/theme"
)

// RenderContext collects what matching one tile produces: shapes bucketed
// by layer and level, and label candidates. It belongs to the job that
// renders the tile.
type RenderContext struct {
	job   *RendererJob
	theme *theme.RenderTheme
	zoom  int

	labels       []label.MapElementContainer
	ways         [][][]ShapePaintContainer
	drawingLayer int

	// symbols placed per feature, and the captions linked to them
	symbols  map[symbolKey]*label.SymbolContainer
	captions []linkedCaption
}

type symbolKey struct {
	feature interface{}
	symbol  *theme.Symbol
}

type linkedCaption struct {
	text *label.PointTextContainer
	key  symbolKey
}

//NewRenderContext 创建渲染上下文
func NewRenderContext(job *RendererJob, t *theme.RenderTheme) *RenderContext {
	levels := t.Levels()
	if levels < 1 {
		levels = 1
	}
	ways := make([][][]ShapePaintContainer, mapdata.LayerCount)
	for i := range ways {
		ways[i] = make([][]ShapePaintContainer, levels)
	}
	return &RenderContext{
		job:     job,
		theme:   t,
		zoom:    job.Tile.Zoom(),
		ways:    ways,
		symbols: make(map[symbolKey]*label.SymbolContainer),
	}
}

// setDrawingLayer selects the layer following shapes go to, clamped to
// the valid range.
func (rc *RenderContext) setDrawingLayer(layer int8) {
	l := int(layer)
	if l < 0 {
		l = 0
	} else if l >= mapdata.LayerCount {
		l = mapdata.LayerCount - 1
	}
	rc.drawingLayer = l
}

func (rc *RenderContext) addToCurrentDrawingLayer(level int, c ShapePaintContainer) {
	if c.Paint == nil || c.Paint.IsTransparent() {
		return
	}
	levels := rc.ways[rc.drawingLayer]
	if level < 0 {
		level = 0
	} else if level >= len(levels) {
		level = len(levels) - 1
	}
	levels[level] = append(levels[level], c)
}

//Labels 标注候选
func (rc *RenderContext) Labels() []label.MapElementContainer {
	return rc.labels
}

//Ways 分层分级的图形
func (rc *RenderContext) Ways() [][][]ShapePaintContainer {
	return rc.ways
}

// wayBoundary spans the tiles the way is drawn on.
func wayBoundary(p *PolylineContainer) model.Rectangle {
	ul, lr := p.UpperLeft().BoundaryAbsolute(), p.LowerRight().BoundaryAbsolute()
	return model.NewRectangle(ul.Left, ul.Top, lr.Right, lr.Bottom)
}

func (rc *RenderContext) caption(feature interface{}, xy model.Point, c *theme.Caption, text string, fill, stroke *graphics.Paint) {
	if fill == nil && stroke == nil {
		return
	}
	dx, dy := c.Offset(rc.zoom)
	t := label.NewPointTextContainer(xy.Offset(dx, dy), c.Display, c.Priority, text, fill, stroke, nil, c.Position)
	if c.Symbol != nil {
		rc.captions = append(rc.captions, linkedCaption{text: t, key: symbolKey{feature: feature, symbol: c.Symbol}})
	}
	rc.labels = append(rc.labels, t)
}

// linkSymbols hands each caption the symbol placed for the same feature,
// whichever of the two instructions matched first. Captions whose symbol
// has no bitmap or did not match stay unlinked.
func (rc *RenderContext) linkSymbols() {
	for _, lc := range rc.captions {
		lc.text.Symbol = rc.symbols[lc.key]
	}
	rc.captions = nil
}

func (rc *RenderContext) symbol(feature interface{}, xy model.Point, s *theme.Symbol) {
	sc := label.NewSymbolContainer(xy, s.Display, s.Priority, s.Bitmap, 0, true)
	rc.symbols[symbolKey{feature: feature, symbol: s}] = sc
	rc.labels = append(rc.labels, sc)
}

func polyline(way theme.Way) (*PolylineContainer, bool) {
	p, ok := way.(*PolylineContainer)
	return p, ok
}

//RenderArea 面
func (rc *RenderContext) RenderArea(way theme.Way, fill, stroke *graphics.Paint, level int) {
	p, ok := polyline(way)
	if !ok {
		return
	}
	rc.addToCurrentDrawingLayer(level, ShapePaintContainer{Shape: p, Paint: stroke})
	rc.addToCurrentDrawingLayer(level, ShapePaintContainer{Shape: p, Paint: fill})
}

//RenderAreaCaption 面注记
func (rc *RenderContext) RenderAreaCaption(way theme.Way, caption *theme.Caption, text string, fill, stroke *graphics.Paint) {
	if p, ok := polyline(way); ok {
		rc.caption(p, p.CenterAbsolute(), caption, text, fill, stroke)
	}
}

//RenderAreaSymbol 面图标
func (rc *RenderContext) RenderAreaSymbol(way theme.Way, symbol *theme.Symbol) {
	if p, ok := polyline(way); ok {
		rc.symbol(p, p.CenterAbsolute(), symbol)
	}
}

//RenderPointOfInterestCaption 兴趣点注记
func (rc *RenderContext) RenderPointOfInterestCaption(poi *mapdata.PointOfInterest, caption *theme.Caption, text string, fill, stroke *graphics.Paint) {
	rc.caption(poi, pixelAbsolute(poi.Position, rc.job.Tile), caption, text, fill, stroke)
}

//RenderPointOfInterestCircle 兴趣点圆
func (rc *RenderContext) RenderPointOfInterestCircle(poi *mapdata.PointOfInterest, radius float64, fill, stroke *graphics.Paint, level int) {
	c := &CircleContainer{Point: mercator.PixelRelativeToTile(poi.Position, rc.job.Tile), Radius: radius}
	rc.addToCurrentDrawingLayer(level, ShapePaintContainer{Shape: c, Paint: stroke})
	rc.addToCurrentDrawingLayer(level, ShapePaintContainer{Shape: c, Paint: fill})
}

//RenderPointOfInterestSymbol 兴趣点图标
func (rc *RenderContext) RenderPointOfInterestSymbol(poi *mapdata.PointOfInterest, symbol *theme.Symbol) {
	rc.symbol(poi, pixelAbsolute(poi.Position, rc.job.Tile), symbol)
}

//RenderWay 线
func (rc *RenderContext) RenderWay(way theme.Way, stroke *graphics.Paint, dy float64, level int) {
	if p, ok := polyline(way); ok {
		rc.addToCurrentDrawingLayer(level, ShapePaintContainer{Shape: p, Paint: stroke, DY: dy})
	}
}

//RenderWaySymbol 沿线图标
func (rc *RenderContext) RenderWaySymbol(way theme.Way, s *theme.LineSymbol, dy float64) {
	p, ok := polyline(way)
	if !ok {
		return
	}
	placement := SymbolPlacement{
		Bitmap:      s.Bitmap,
		Display:     s.Display,
		Priority:    s.Priority,
		DY:          dy,
		AlignCenter: s.AlignCenter,
		Repeat:      s.Repeat,
		RepeatGap:   s.RepeatGap,
		RepeatStart: s.RepeatStart,
		Rotate:      s.Rotate,
	}
	rc.labels = append(rc.labels, RenderSymbol(placement, p.CoordinatesAbsolute())...)
}

//RenderWayText 沿线文字
func (rc *RenderContext) RenderWayText(way theme.Way, t *theme.PathText, value string, fill, stroke *graphics.Paint, dy float64) {
	p, ok := polyline(way)
	if !ok {
		return
	}
	placement := TextPlacement{
		Text:     value,
		Display:  t.Display,
		Priority: t.Priority,
		DY:       dy,
		Fill:     fill,
		Stroke:   stroke,
	}
	rc.labels = append(rc.labels, RenderText(placement, wayBoundary(p), p.CoordinatesAbsolute())...)
}
