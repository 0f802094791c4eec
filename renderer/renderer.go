package renderer

import (
	"context"
	"fmt"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/mercator"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/theme"
	"github.com/atlasdatatech/maprender/tilecache"
	"github.com/gogpu/gg"
	"github.com/paulmach/osm"
	log "github.com/sirupsen/logrus"
)

// DatabaseRenderer turns the features of a tile into a bitmap. Labels are
// either resolved against neighbouring tiles and drawn onto the tile, or
// handed to a label store for a separate label layer.
type DatabaseRenderer struct {
	cache        tilecache.TileCache
	labelStore   *label.TileBasedLabelStore
	renderLabels bool
	deps         *TileDependencies
}

// NewDatabaseRenderer draws labels onto tiles when labelStore is nil.
// cache tells which neighbours are already rendered.
func NewDatabaseRenderer(cache tilecache.TileCache, labelStore *label.TileBasedLabelStore) *DatabaseRenderer {
	r := &DatabaseRenderer{
		cache:        cache,
		labelStore:   labelStore,
		renderLabels: labelStore == nil,
	}
	if r.renderLabels {
		r.deps = NewTileDependencies()
	}
	return r
}

//Dependencies 瓦片标注依赖，只在瓦片上绘制标注时存在
func (r *DatabaseRenderer) Dependencies() *TileDependencies {
	return r.deps
}

// ExecuteJob renders job. It returns ErrNoTheme when the theme cannot be
// loaded. When labels are drawn onto the tile, the tile stays marked in
// progress until RemoveTileInProgress.
func (r *DatabaseRenderer) ExecuteJob(ctx context.Context, job *RendererJob) (*graphics.TileBitmap, error) {
	t, release, err := job.Theme.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tile := job.Tile
	zoom := tile.Zoom()
	t.ScaleStrokeWidth(job.Display.StrokeScale(zoom), zoom)
	t.ScaleTextSize(job.TextScaleFactor(), zoom)

	if !r.renderBitmap(t, job) {
		return r.backgroundBitmap(t, job), nil
	}

	rc := NewRenderContext(job, t)
	result, err := job.Store.ReadMapData(tile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tile, err)
	}
	if result == nil {
		result = &mapdata.MapReadResult{}
	}
	r.processReadMapData(rc, t, result)

	canvas := graphics.NewCanvas(tile.Size, tile.Size)
	ras := NewCanvasRasterizer(canvas)
	if !job.LabelsOnly {
		if !job.HasAlpha {
			canvas.Clear(job.Display.Background)
			if !graphics.SameColor(t.MapBackground, job.Display.Background) {
				ras.Fill(t.MapBackground)
			}
		}
		ras.DrawWays(rc.ways)
	}

	if r.renderLabels {
		ras.DrawMapElements(r.processLabels(rc), tile)
	}
	if r.labelStore != nil {
		r.labelStore.StoreMapItems(tile, rc.labels)
	}

	if !job.LabelsOnly && t.HasBackgroundOutside {
		inside := mercator.BoundRelativeToTile(job.Store.BoundingBox(), tile)
		if job.HasAlpha {
			ras.FillOutsideAreas(gg.Transparent, inside)
		} else {
			ras.FillOutsideAreas(t.MapBackgroundOutside, inside)
		}
	}

	b := canvas.TileBitmap()
	b.Timestamp = job.Store.DataTimestamp(tile)
	b.Transparent = job.HasAlpha
	log.Debugf("rendered %s: %d pois, %d ways, %d label candidates", job, len(result.PointsOfInterest), len(result.Ways), len(rc.labels))
	return b, nil
}

// renderBitmap is false for tiles the store does not cover when the theme
// paints the outside of the map.
func (r *DatabaseRenderer) renderBitmap(t *theme.RenderTheme, job *RendererJob) bool {
	return !t.HasBackgroundOutside || job.Store.SupportsTile(job.Tile)
}

func (r *DatabaseRenderer) backgroundBitmap(t *theme.RenderTheme, job *RendererJob) *graphics.TileBitmap {
	canvas := graphics.NewCanvas(job.Tile.Size, job.Tile.Size)
	if !job.HasAlpha {
		canvas.Clear(t.MapBackgroundOutside)
	}
	b := canvas.TileBitmap()
	b.Timestamp = job.Store.DataTimestamp(job.Tile)
	b.Transparent = job.HasAlpha
	return b
}

func (r *DatabaseRenderer) processReadMapData(rc *RenderContext, t *theme.RenderTheme, result *mapdata.MapReadResult) {
	zoom := rc.zoom
	for _, poi := range result.PointsOfInterest {
		rc.setDrawingLayer(poi.Layer)
		t.MatchNode(rc, poi, zoom)
	}
	for _, way := range result.Ways {
		if len(way.Rings) == 0 || len(way.Rings[0]) < 2 {
			continue
		}
		rc.setDrawingLayer(way.Layer)
		p := NewPolylineContainer(way, rc.job.Tile, rc.job.Tile)
		if p.IsClosedWay() {
			t.MatchClosedWay(rc, p, zoom)
		} else {
			t.MatchLinearWay(rc, p, zoom)
		}
	}
	if result.IsWater {
		rc.setDrawingLayer(0)
		t.MatchClosedWay(rc, newTileAreaContainer(rc.job.Tile, osm.Tags{mapdata.TagNaturalWater}), zoom)
	}
	rc.linkSymbols()
}

// processLabels resolves the labels drawn on the job's tile against its
// neighbours. A neighbour counts as drawn when its bitmap for the same
// style is cached.
func (r *DatabaseRenderer) processLabels(rc *RenderContext) []label.MapElementContainer {
	job := rc.job
	return r.deps.Resolve(job.Tile, rc.labels, func(n model.Tile) bool {
		return r.cache != nil && r.cache.Contains(job.OtherTile(n).Key())
	})
}

// RemoveTileInProgress is called once the bitmap of tile is in the cache,
// or dropped.
func (r *DatabaseRenderer) RemoveTileInProgress(tile model.Tile) {
	if r.deps != nil {
		r.deps.RemoveTileInProgress(tile)
	}
}

// RemoveTileData forgets the labels tile forced onto its neighbours, for
// example after its bitmap left the cache.
func (r *DatabaseRenderer) RemoveTileData(tile model.Tile) {
	if r.deps != nil {
		r.deps.RemoveTileData(tile)
	}
}
