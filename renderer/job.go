package renderer

import (
	"fmt"

	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/tilecache"
)

// RendererJob describes one tile to render. Jobs for the same tile with the
// same theme and settings are equal and share a cache key.
type RendererJob struct {
	Tile       model.Tile
	Store      mapdata.MapDataStore
	Theme      *ThemeFuture
	Display    *DisplayModel
	TextScale  float64
	HasAlpha   bool
	LabelsOnly bool
}

//NewRendererJob 创建渲染任务
func NewRendererJob(tile model.Tile, store mapdata.MapDataStore, future *ThemeFuture, display *DisplayModel, textScale float64, hasAlpha, labelsOnly bool) *RendererJob {
	if textScale <= 0 {
		textScale = 1
	}
	return &RendererJob{
		Tile:       tile,
		Store:      store,
		Theme:      future,
		Display:    display,
		TextScale:  textScale,
		HasAlpha:   hasAlpha,
		LabelsOnly: labelsOnly,
	}
}

// Style names the settings besides the tile that change the output.
func (j *RendererJob) Style() string {
	id := ""
	if j.Theme != nil {
		id = j.Theme.ID()
	}
	return fmt.Sprintf("%s;text=%g;scale=%g;alpha=%t;labels=%t", id, j.TextScale, j.Display.ScaleFactor(), j.HasAlpha, j.LabelsOnly)
}

//Key 缓存键
func (j *RendererJob) Key() tilecache.Key {
	return tilecache.Key{Tile: j.Tile, Style: j.Style()}
}

// OtherTile returns the same job for another tile.
func (j *RendererJob) OtherTile(tile model.Tile) *RendererJob {
	o := *j
	o.Tile = tile
	return &o
}

// TextScaleFactor combines the job's text scale with the display.
func (j *RendererJob) TextScaleFactor() float64 {
	return j.TextScale * j.Display.ScaleFactor()
}

func (j *RendererJob) String() string {
	return j.Key().String()
}
