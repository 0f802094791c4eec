package theme

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/gogpu/gg"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/osm"
	log "github.com/sirupsen/logrus"
)

//SupportedVersion 支持的最高主题版本
const SupportedVersion = 6

const (
	//DefaultPOICacheSize 兴趣点匹配缓存条数
	DefaultPOICacheSize = 1024
	//DefaultWayCacheSize 线面匹配缓存条数
	DefaultWayCacheSize = 4096
)

// Header holds the settings of the rendertheme element.
type Header struct {
	Version              int
	MapBackground        gg.RGBA
	MapBackgroundOutside gg.RGBA
	HasBackgroundOutside bool
	BaseStrokeWidth      float64
	BaseTextSize         float64
}

// Way is what the theme needs of a way while matching.
type Way interface {
	Tags() osm.Tags
}

// RenderCallback receives the instructions matched for a feature. The
// paints passed in are already scaled for the zoom level being matched.
type RenderCallback interface {
	RenderArea(way Way, fill, stroke *graphics.Paint, level int)
	RenderAreaCaption(way Way, caption *Caption, text string, fill, stroke *graphics.Paint)
	RenderAreaSymbol(way Way, symbol *Symbol)
	RenderPointOfInterestCaption(poi *mapdata.PointOfInterest, caption *Caption, text string, fill, stroke *graphics.Paint)
	RenderPointOfInterestCircle(poi *mapdata.PointOfInterest, radius float64, fill, stroke *graphics.Paint, level int)
	RenderPointOfInterestSymbol(poi *mapdata.PointOfInterest, symbol *Symbol)
	RenderWay(way Way, stroke *graphics.Paint, dy float64, level int)
	RenderWaySymbol(way Way, symbol *LineSymbol, dy float64)
	RenderWayText(way Way, text *PathText, value string, fill, stroke *graphics.Paint, dy float64)
}

type matchKey struct {
	tags   string
	zoom   int
	closed Closed
}

// CacheStats counts lookups of a matching cache.
type CacheStats struct {
	Hits   int64
	Misses int64
	Len    int
}

type matchCache struct {
	entries      *lru.Cache[matchKey, []int]
	hits, misses atomic.Int64
}

func newMatchCache(size, fallback int) *matchCache {
	if size <= 0 {
		size = fallback
	}
	entries, err := lru.New[matchKey, []int](size)
	if err != nil {
		// only a non-positive size fails
		panic(err)
	}
	return &matchCache{entries: entries}
}

func (c *matchCache) get(k matchKey) ([]int, bool) {
	ids, ok := c.entries.Get(k)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ids, ok
}

func (c *matchCache) stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.entries.Len()}
}

func tagsKey(tags osm.Tags) string {
	var sb strings.Builder
	for _, t := range tags {
		sb.WriteString(t.Key)
		sb.WriteByte(0)
		sb.WriteString(t.Value)
		sb.WriteByte(1)
	}
	return sb.String()
}

// RenderTheme is a compiled style: the rule arena, its instructions and
// the caches shared by all tiles rendered with it.
type RenderTheme struct {
	Header

	rules        []rule
	roots        []int
	instructions []Instruction
	levels       int

	poiCache *matchCache
	wayCache *matchCache

	// scaleMu is held for reading while matching and for writing while
	// scaled paints are computed.
	scaleMu      sync.RWMutex
	strokeScales map[int]float64
	textScales   map[int]float64
}

func newRenderTheme(opts Options) *RenderTheme {
	return &RenderTheme{
		Header:       Header{BaseStrokeWidth: 1, BaseTextSize: 1, MapBackground: gg.White},
		poiCache:     newMatchCache(opts.POICacheSize, DefaultPOICacheSize),
		wayCache:     newMatchCache(opts.WayCacheSize, DefaultWayCacheSize),
		strokeScales: make(map[int]float64),
		textScales:   make(map[int]float64),
	}
}

//Levels 层级数量
func (t *RenderTheme) Levels() int {
	return t.levels
}

// MatchNode runs the instructions that apply to a point of interest and
// returns them in rule order.
func (t *RenderTheme) MatchNode(cb RenderCallback, poi *mapdata.PointOfInterest, zoom int) []Instruction {
	t.scaleMu.RLock()
	defer t.scaleMu.RUnlock()

	key := matchKey{tags: tagsKey(poi.Tags), zoom: zoom}
	ids, ok := t.poiCache.get(key)
	if !ok {
		for _, r := range t.roots {
			ids = t.walkNode(r, poi.Tags, zoom, ids)
		}
		t.poiCache.entries.Add(key, ids)
	}
	out := make([]Instruction, 0, len(ids))
	for _, id := range ids {
		inst := t.instructions[id]
		t.renderNode(cb, inst, poi, zoom)
		out = append(out, inst)
	}
	return out
}

//MatchClosedWay 匹配闭合线
func (t *RenderTheme) MatchClosedWay(cb RenderCallback, way Way, zoom int) []Instruction {
	return t.matchWay(cb, way, zoom, ClosedYes)
}

//MatchLinearWay 匹配非闭合线
func (t *RenderTheme) MatchLinearWay(cb RenderCallback, way Way, zoom int) []Instruction {
	return t.matchWay(cb, way, zoom, ClosedNo)
}

func (t *RenderTheme) matchWay(cb RenderCallback, way Way, zoom int, closed Closed) []Instruction {
	t.scaleMu.RLock()
	defer t.scaleMu.RUnlock()

	tags := way.Tags()
	key := matchKey{tags: tagsKey(tags), zoom: zoom, closed: closed}
	ids, ok := t.wayCache.get(key)
	if !ok {
		for _, r := range t.roots {
			ids = t.walkWay(r, tags, zoom, closed, ids)
		}
		t.wayCache.entries.Add(key, ids)
	}
	out := make([]Instruction, 0, len(ids))
	for _, id := range ids {
		inst := t.instructions[id]
		t.renderWay(cb, inst, way, tags, zoom)
		out = append(out, inst)
	}
	return out
}

func (t *RenderTheme) renderNode(cb RenderCallback, inst Instruction, poi *mapdata.PointOfInterest, zoom int) {
	switch i := inst.(type) {
	case *Caption:
		if text := i.TextKey.Value(poi.Tags); text != "" {
			cb.RenderPointOfInterestCaption(poi, i, text, i.FillPaint(zoom), i.StrokePaint(zoom))
		}
	case *Circle:
		cb.RenderPointOfInterestCircle(poi, i.RenderRadius(zoom), i.Fill, i.StrokePaint(zoom), i.Level)
	case *Symbol:
		if i.Bitmap != nil {
			cb.RenderPointOfInterestSymbol(poi, i)
		}
	}
}

func (t *RenderTheme) renderWay(cb RenderCallback, inst Instruction, way Way, tags osm.Tags, zoom int) {
	switch i := inst.(type) {
	case *Area:
		cb.RenderArea(way, i.Fill, i.StrokePaint(zoom), i.Level)
	case *Caption:
		if text := i.TextKey.Value(tags); text != "" {
			cb.RenderAreaCaption(way, i, text, i.FillPaint(zoom), i.StrokePaint(zoom))
		}
	case *Line:
		cb.RenderWay(way, i.StrokePaint(zoom), i.Offset(zoom), i.Level)
	case *LineSymbol:
		if i.Bitmap != nil {
			cb.RenderWaySymbol(way, i, i.Offset(zoom))
		}
	case *PathText:
		if text := i.TextKey.Value(tags); text != "" {
			cb.RenderWayText(way, i, text, i.FillPaint(zoom), i.StrokePaint(zoom), i.Offset(zoom))
		}
	case *Symbol:
		if i.Bitmap != nil {
			cb.RenderAreaSymbol(way, i)
		}
	}
}

// ScaleStrokeWidth prepares the stroke widths of zoom for factor times the
// theme's base stroke width. Nothing is recomputed when zoom was last
// scaled with the same factor.
func (t *RenderTheme) ScaleStrokeWidth(factor float64, zoom int) {
	t.scaleMu.Lock()
	defer t.scaleMu.Unlock()
	if f, ok := t.strokeScales[zoom]; ok && f == factor {
		return
	}
	scaled := factor * t.BaseStrokeWidth
	for i := range t.rules {
		r := &t.rules[i]
		if !r.inZoom(zoom) {
			continue
		}
		for _, id := range r.instructions {
			scaleStrokeWidth(t.instructions[id], scaled, zoom)
		}
	}
	t.strokeScales[zoom] = factor
	log.Debugf("stroke width scaled to %g at zoom %d", scaled, zoom)
}

//ScaleTextSize 同 ScaleStrokeWidth，作用于文字大小
func (t *RenderTheme) ScaleTextSize(factor float64, zoom int) {
	t.scaleMu.Lock()
	defer t.scaleMu.Unlock()
	if f, ok := t.textScales[zoom]; ok && f == factor {
		return
	}
	scaled := factor * t.BaseTextSize
	for i := range t.rules {
		r := &t.rules[i]
		if !r.inZoom(zoom) {
			continue
		}
		for _, id := range r.instructions {
			scaleTextSize(t.instructions[id], scaled, zoom)
		}
	}
	t.textScales[zoom] = factor
	log.Debugf("text size scaled to %g at zoom %d", scaled, zoom)
}

// Destroy drops the matching caches. The theme stays usable; caches refill
// on demand.
func (t *RenderTheme) Destroy() {
	t.poiCache.entries.Purge()
	t.wayCache.entries.Purge()
}

//CacheStats 匹配缓存统计
func (t *RenderTheme) CacheStats() (poi, way CacheStats) {
	return t.poiCache.stats(), t.wayCache.stats()
}
