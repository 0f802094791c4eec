package renderer

import (
	"sync"

	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/model"
)

type labelSet map[label.MapElementContainer]struct{}

// TileDependencies records, for each rendered tile, the labels it drew that
// reach into each neighbour, and which tiles are being rendered right now.
// Label resolution holds the lock through Lock/Unlock for its whole
// read-modify-write; the other methods lock on their own.
type TileDependencies struct {
	mu         sync.Mutex
	overlap    map[model.Tile]map[model.Tile]labelSet
	inProgress map[model.Tile]struct{}
}

//NewTileDependencies 创建瓦片依赖
func NewTileDependencies() *TileDependencies {
	return &TileDependencies{
		overlap:    make(map[model.Tile]map[model.Tile]labelSet),
		inProgress: make(map[model.Tile]struct{}),
	}
}

// locked runs fn with the lock held.
func (d *TileDependencies) locked(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

func (d *TileDependencies) addOverlappingElement(from, to model.Tile, element label.MapElementContainer) {
	m, ok := d.overlap[from]
	if !ok {
		m = make(map[model.Tile]labelSet)
		d.overlap[from] = m
	}
	s, ok := m[to]
	if !ok {
		s = make(labelSet)
		m[to] = s
	}
	s[element] = struct{}{}
}

// AddOverlappingElement records that element, drawn on from, reaches into
// to.
func (d *TileDependencies) AddOverlappingElement(from, to model.Tile, element label.MapElementContainer) {
	d.locked(func() { d.addOverlappingElement(from, to, element) })
}

func (d *TileDependencies) overlappingElements(from, to model.Tile) []label.MapElementContainer {
	s := d.overlap[from][to]
	if len(s) == 0 {
		return nil
	}
	out := make([]label.MapElementContainer, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	return out
}

// GetOverlappingElements returns the labels drawn on from that reach into
// to, in no particular order.
func (d *TileDependencies) GetOverlappingElements(from, to model.Tile) []label.MapElementContainer {
	var out []label.MapElementContainer
	d.locked(func() { out = d.overlappingElements(from, to) })
	return out
}

func (d *TileDependencies) removeTileData(from model.Tile, to ...model.Tile) {
	if len(to) == 0 {
		delete(d.overlap, from)
		return
	}
	m, ok := d.overlap[from]
	if !ok {
		return
	}
	for _, t := range to {
		delete(m, t)
	}
	if len(m) == 0 {
		delete(d.overlap, from)
	}
}

// RemoveTileData forgets what from recorded for the tiles to, or for all
// neighbours when to is empty. It is called when from's bitmap is no
// longer cached, so its labels must not be forced onto a neighbour.
func (d *TileDependencies) RemoveTileData(from model.Tile, to ...model.Tile) {
	d.locked(func() { d.removeTileData(from, to...) })
}

//AddTileInProgress 标记正在渲染
func (d *TileDependencies) AddTileInProgress(tile model.Tile) {
	d.locked(func() { d.inProgress[tile] = struct{}{} })
}

//RemoveTileInProgress 取消正在渲染标记
func (d *TileDependencies) RemoveTileInProgress(tile model.Tile) {
	d.locked(func() { delete(d.inProgress, tile) })
}

//IsTileInProgress 是否正在渲染
func (d *TileDependencies) IsTileInProgress(tile model.Tile) bool {
	var ok bool
	d.locked(func() { _, ok = d.inProgress[tile] })
	return ok
}

// Len returns the number of tiles with recorded overlaps.
func (d *TileDependencies) Len() int {
	var n int
	d.locked(func() { n = len(d.overlap) })
	return n
}

// Resolve decides the labels drawn on tile out of its candidates. A
// neighbour counts as drawn when it is in progress or drawn(neighbour)
// reports it cached: its labels reaching into tile are drawn here
// unconditionally, and candidates reaching into it are dropped. The rest
// go through collision-free ordering; a caption whose linked symbol lost
// there is dropped with it. Labels of the result that reach
// into a neighbour not yet drawn are recorded for it.
//
// tile stays marked in progress; the caller removes the mark once the
// bitmap is in the cache.
func (d *TileDependencies) Resolve(tile model.Tile, candidates []label.MapElementContainer, drawn func(model.Tile) bool) []label.MapElementContainer {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inProgress[tile] = struct{}{}

	var mustDraw []label.MapElementContainer
	seen := make(labelSet)
	undrawable := make(labelSet)
	var pending []model.Tile
	for _, n := range tile.Neighbours() {
		_, busy := d.inProgress[n]
		if !busy && !drawn(n) {
			d.removeTileData(n, tile)
			pending = append(pending, n)
			continue
		}
		for _, e := range d.overlappingElements(n, tile) {
			if _, dup := seen[e]; !dup {
				seen[e] = struct{}{}
				mustDraw = append(mustDraw, e)
			}
		}
		b := n.BoundaryAbsolute()
		for _, c := range candidates {
			if c.Intersects(b) {
				undrawable[c] = struct{}{}
			}
		}
	}
	label.SortByPriority(mustDraw)

	// local holds the candidates this tile decides on its own
	local := make([]label.MapElementContainer, 0, len(candidates))
	open := make([]label.MapElementContainer, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := undrawable[c]; skip {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		local = append(local, c)
		// must-draw labels are fixed; only undecided candidates yield
		if label.ClashesWithAny(c, mustDraw) {
			continue
		}
		open = append(open, c)
	}

	survivors := label.WithoutOrphanCaptions(label.CollisionFreeOrdered(open), local)
	out := append(mustDraw, survivors...)
	for _, e := range out {
		for _, n := range pending {
			if e.Intersects(n.BoundaryAbsolute()) {
				d.addOverlappingElement(tile, n, e)
			}
		}
	}
	return out
}
