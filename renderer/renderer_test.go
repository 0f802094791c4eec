package renderer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/theme"
	"github.com/atlasdatatech/maprender/tilecache"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

const renderTheme = `<?xml version="1.0" encoding="UTF-8"?>
<rendertheme xmlns="http://mapsforge.org/renderTheme" version="6" map-background="#ffffff">
	<rule e="way" k="natural" v="water" closed="yes">
		<area fill="#0000ff"/>
	</rule>
	<rule e="way" k="highway" v="*">
		<line stroke="#ff0000" stroke-width="2"/>
	</rule>
	<rule e="node" k="place" v="town">
		<caption k="name"/>
	</rule>
</rendertheme>`

type fakeStore struct {
	result *mapdata.MapReadResult
	panics bool
	reads  atomic.Int64
}

func (s *fakeStore) ReadMapData(model.Tile) (*mapdata.MapReadResult, error) {
	s.reads.Add(1)
	if s.panics {
		panic("broken store")
	}
	return s.result, nil
}

func (s *fakeStore) SupportsTile(model.Tile) bool { return true }

func (s *fakeStore) DataTimestamp(model.Tile) int64 { return 42 }

func (s *fakeStore) BoundingBox() orb.Bound {
	return orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}
}

func (s *fakeStore) Close() error { return nil }

func testFuture(t *testing.T) *ThemeFuture {
	t.Helper()
	f := NewThemeFuture("test", func() (*theme.RenderTheme, error) {
		return theme.Load(strings.NewReader(renderTheme), nil, theme.Options{})
	})
	t.Cleanup(f.Close)
	return f
}

func testJob(t *testing.T, f *ThemeFuture, tile model.Tile, store mapdata.MapDataStore, alpha bool) *RendererJob {
	t.Helper()
	return NewRendererJob(tile, store, f, NewDisplayModel(), 1, alpha, false)
}

func townAt(p orb.Point) *mapdata.PointOfInterest {
	return &mapdata.PointOfInterest{
		Layer:    mapdata.LayerOffset,
		Position: p,
		Tags:     osm.Tags{{Key: "name", Value: "Springfield"}, {Key: "place", Value: "town"}},
	}
}

func TestStrokeScale(t *testing.T) {
	d := NewDisplayModel()
	tests := []struct {
		zoom int
		want float64
	}{
		{zoom: 5, want: 1},
		{zoom: 12, want: 1},
		{zoom: 14, want: 2.25},
	}
	for _, tt := range tests {
		if got := d.StrokeScale(tt.zoom); !near(got, tt.want) {
			t.Errorf("StrokeScale(%d) = %g, want %g", tt.zoom, got, tt.want)
		}
	}
	d.UserScaleFactor = 2
	if got := d.StrokeScale(13); !near(got, 3) {
		t.Errorf("scaled StrokeScale(13) = %g, want 3", got)
	}
}

func TestJobKey(t *testing.T) {
	f := testFuture(t)
	tile := model.NewTile(1, 1, 2, 256)
	a := testJob(t, f, tile, &fakeStore{}, false)
	b := testJob(t, f, tile, &fakeStore{}, false)
	if a.Key() != b.Key() {
		t.Errorf("equal jobs have keys %s and %s", a.Key(), b.Key())
	}
	c := NewRendererJob(tile, &fakeStore{}, f, NewDisplayModel(), 1.5, false, false)
	if a.Key() == c.Key() {
		t.Error("text scale should change the key")
	}
	if a.OtherTile(tile.Right()).Key().Style != a.Key().Style {
		t.Error("OtherTile should keep the style")
	}
}

func TestSetDrawingLayer(t *testing.T) {
	th, err := theme.Load(strings.NewReader(renderTheme), nil, theme.Options{})
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRenderContext(testJob(t, nil, model.NewTile(0, 0, 1, 256), &fakeStore{}, false), th)
	tests := []struct {
		layer int8
		want  int
	}{
		{layer: -3, want: 0},
		{layer: 0, want: 0},
		{layer: 5, want: 5},
		{layer: 10, want: 10},
		{layer: 20, want: 10},
	}
	for _, tt := range tests {
		rc.setDrawingLayer(tt.layer)
		if rc.drawingLayer != tt.want {
			t.Errorf("setDrawingLayer(%d) = %d, want %d", tt.layer, rc.drawingLayer, tt.want)
		}
	}
}

func countShapes(ways [][][]ShapePaintContainer) []int {
	out := make([]int, len(ways))
	for i, levels := range ways {
		for _, l := range levels {
			out[i] += len(l)
		}
	}
	return out
}

func TestProcessReadMapDataIdempotent(t *testing.T) {
	th, err := theme.Load(strings.NewReader(renderTheme), nil, theme.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tile := model.NewTile(1, 1, 2, 256)
	b := tile.Bound()
	result := &mapdata.MapReadResult{
		PointsOfInterest: []*mapdata.PointOfInterest{townAt(b.Center())},
		Ways: []*mapdata.Way{
			mapdata.NewWay(mapdata.LayerOffset+1, osm.Tags{{Key: "highway", Value: "primary"}}, [][]orb.Point{{b.Min, b.Max}}, nil),
		},
	}
	r := NewDatabaseRenderer(nil, label.NewTileBasedLabelStore(4))
	job := testJob(t, nil, tile, &fakeStore{}, false)

	first := NewRenderContext(job, th)
	r.processReadMapData(first, th, result)
	second := NewRenderContext(job, th)
	r.processReadMapData(second, th, result)

	a, c := countShapes(first.Ways()), countShapes(second.Ways())
	for i := range a {
		if a[i] != c[i] {
			t.Errorf("layer %d: %d shapes then %d", i, a[i], c[i])
		}
	}
	if a[mapdata.LayerOffset+1] != 1 {
		t.Errorf("shapes on the way's layer = %d, want 1", a[mapdata.LayerOffset+1])
	}
	if len(first.Labels()) != 1 || len(second.Labels()) != 1 {
		t.Fatalf("labels = %d and %d, want 1", len(first.Labels()), len(second.Labels()))
	}
	if first.Labels()[0].BoundaryAbsolute() != second.Labels()[0].BoundaryAbsolute() {
		t.Error("label placed differently on second run")
	}
}

func TestExecuteJobWater(t *testing.T) {
	f := testFuture(t)
	store := &fakeStore{result: &mapdata.MapReadResult{IsWater: true}}
	r := NewDatabaseRenderer(tilecache.NewMemory(8, nil), nil)
	b, err := r.ExecuteJob(context.Background(), testJob(t, f, model.NewTile(1, 1, 2, 256), store, false))
	if err != nil {
		t.Fatalf("ExecuteJob() error = %v", err)
	}
	c := b.At(128, 128)
	if c.B < 0.98 || c.R > 0.02 || c.G > 0.02 {
		t.Errorf("center = %+v, want blue", c)
	}
	if b.Timestamp != 42 {
		t.Errorf("Timestamp = %d, want 42", b.Timestamp)
	}
}

func TestExecuteJobBackground(t *testing.T) {
	f := testFuture(t)
	r := NewDatabaseRenderer(tilecache.NewMemory(8, nil), nil)

	b, err := r.ExecuteJob(context.Background(), testJob(t, f, model.NewTile(0, 0, 1, 256), &fakeStore{}, false))
	if err != nil {
		t.Fatal(err)
	}
	if c := b.At(5, 5); c.R < 0.98 || c.G < 0.98 || c.B < 0.98 {
		t.Errorf("background = %+v, want the theme's white", c)
	}

	b, err = r.ExecuteJob(context.Background(), testJob(t, f, model.NewTile(1, 0, 1, 256), &fakeStore{}, true))
	if err != nil {
		t.Fatal(err)
	}
	if c := b.At(5, 5); c.A != 0 || !b.Transparent {
		t.Errorf("alpha tile = %+v, transparent %t", c, b.Transparent)
	}
}

func TestExecuteJobNoTheme(t *testing.T) {
	f := NewThemeFuture("broken", func() (*theme.RenderTheme, error) {
		return theme.Load(strings.NewReader(`<rendertheme version="99"/>`), nil, theme.Options{})
	})
	defer f.Close()
	store := &fakeStore{}
	r := NewDatabaseRenderer(nil, label.NewTileBasedLabelStore(4))
	b, err := r.ExecuteJob(context.Background(), testJob(t, f, model.NewTile(0, 0, 1, 256), store, false))
	if !errors.Is(err, ErrNoTheme) || b != nil {
		t.Errorf("ExecuteJob() = %v, %v, want ErrNoTheme", b, err)
	}
	if store.reads.Load() != 0 {
		t.Error("store read without a theme")
	}
}

func TestExecuteJobLabelStore(t *testing.T) {
	f := testFuture(t)
	tile := model.NewTile(1, 1, 2, 256)
	store := &fakeStore{result: &mapdata.MapReadResult{
		PointsOfInterest: []*mapdata.PointOfInterest{townAt(tile.Bound().Center())},
	}}
	labels := label.NewTileBasedLabelStore(4)
	r := NewDatabaseRenderer(nil, labels)
	if _, err := r.ExecuteJob(context.Background(), testJob(t, f, tile, store, false)); err != nil {
		t.Fatal(err)
	}
	items := labels.GetVisibleItems(tile, tile)
	if len(items) != 1 {
		t.Fatalf("stored labels = %d, want 1", len(items))
	}
	if _, ok := items[0].(*label.PointTextContainer); !ok {
		t.Errorf("stored %T, want caption", items[0])
	}
	if r.Dependencies() != nil {
		t.Error("label store mode should not track dependencies")
	}
}

func TestExecuteJobRecordsOverlap(t *testing.T) {
	f := testFuture(t)
	a := model.NewTile(1, 1, 2, 256)
	bnd := a.Bound()
	edge := orb.Point{bnd.Max.Lon() - 1e-6, bnd.Center().Lat()}
	store := &fakeStore{result: &mapdata.MapReadResult{
		PointsOfInterest: []*mapdata.PointOfInterest{townAt(edge)},
	}}
	cache := tilecache.NewMemory(8, nil)
	r := NewDatabaseRenderer(cache, nil)
	job := testJob(t, f, a, store, false)
	bm, err := r.ExecuteJob(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	deps := r.Dependencies()
	if !deps.IsTileInProgress(a) {
		t.Error("tile should stay in progress until cached")
	}
	if err := cache.Put(job.Key(), bm); err != nil {
		t.Fatal(err)
	}
	r.RemoveTileInProgress(a)
	if deps.IsTileInProgress(a) {
		t.Error("tile still in progress")
	}
	if got := deps.GetOverlappingElements(a, a.Right()); len(got) != 1 {
		t.Errorf("labels recorded for the right neighbour = %d, want 1", len(got))
	}

	r.RemoveTileData(a)
	if got := deps.GetOverlappingElements(a, a.Right()); len(got) != 0 {
		t.Errorf("labels after RemoveTileData = %d, want 0", len(got))
	}
}

func TestResolveAcrossTiles(t *testing.T) {
	a := model.NewTile(10, 10, 5, 256)
	b := a.Right()
	seam := b.Origin()

	// straddles the seam between a and b
	shared := label.NewSymbolContainer(model.Point{X: seam.X, Y: seam.Y + 40}, label.DisplayIfSpace, 5, testBitmap(20, 20), 0, true)
	// inside b, more important and clashing with shared
	rival := label.NewSymbolContainer(model.Point{X: seam.X + 20, Y: seam.Y + 40}, label.DisplayIfSpace, -10, testBitmap(30, 30), 0, true)
	if rival.Intersects(a.BoundaryAbsolute()) || !rival.ClashesWith(shared) {
		t.Fatal("bad fixture")
	}

	deps := NewTileDependencies()
	none := func(model.Tile) bool { return false }

	got := deps.Resolve(a, []label.MapElementContainer{shared}, none)
	if len(got) != 1 || got[0] != shared {
		t.Fatalf("tile a draws %v, want the shared label", got)
	}
	if rec := deps.GetOverlappingElements(a, b); len(rec) != 1 {
		t.Fatalf("recorded for b = %d, want 1", len(rec))
	}

	// a is still in progress, so b must draw what a drew
	got = deps.Resolve(b, []label.MapElementContainer{rival}, none)
	if len(got) != 1 || got[0] != shared {
		t.Errorf("tile b draws %v, want only the shared label", got)
	}
}

func TestResolveForgetsUndrawnNeighbour(t *testing.T) {
	a := model.NewTile(10, 10, 5, 256)
	b := a.Right()
	seam := b.Origin()
	shared := label.NewSymbolContainer(model.Point{X: seam.X, Y: seam.Y + 40}, label.DisplayIfSpace, 5, testBitmap(20, 20), 0, true)

	deps := NewTileDependencies()
	none := func(model.Tile) bool { return false }
	deps.Resolve(a, []label.MapElementContainer{shared}, none)
	deps.RemoveTileInProgress(a)

	// a was dropped from the cache before b rendered
	own := label.NewSymbolContainer(model.Point{X: seam.X + 100, Y: seam.Y + 100}, label.DisplayIfSpace, 0, testBitmap(10, 10), 0, true)
	got := deps.Resolve(b, []label.MapElementContainer{own}, none)
	if len(got) != 1 || got[0] != own {
		t.Errorf("tile b draws %v, want its own label", got)
	}
	if rec := deps.GetOverlappingElements(a, b); len(rec) != 0 {
		t.Errorf("stale labels kept: %d", len(rec))
	}

	cached := func(n model.Tile) bool { return n == b }
	got = deps.Resolve(a, []label.MapElementContainer{shared}, cached)
	if len(got) != 0 {
		t.Errorf("tile a draws %v over a cached neighbour", got)
	}
}

func TestThemeFutureLifecycle(t *testing.T) {
	f := testFuture(t)
	th, release, err := f.Acquire(context.Background())
	if err != nil || th == nil {
		t.Fatalf("Acquire() = %v, %v", th, err)
	}
	f.Close()
	if f.Destroyed() {
		t.Error("destroyed while referenced")
	}
	if _, _, err := f.Acquire(context.Background()); !errors.Is(err, ErrNoTheme) {
		t.Errorf("Acquire() after Close error = %v, want ErrNoTheme", err)
	}
	release()
	release()
	if !f.Destroyed() {
		t.Error("not destroyed after last release")
	}
}

func TestThemeFutureError(t *testing.T) {
	f := NewThemeFuture("bad", func() (*theme.RenderTheme, error) {
		return nil, errors.New("parse failed")
	})
	defer f.Close()
	if _, _, err := f.Acquire(context.Background()); !errors.Is(err, ErrNoTheme) {
		t.Errorf("Acquire() error = %v, want ErrNoTheme", err)
	}
	if !f.Done() {
		t.Error("future not done")
	}

	p := NewThemeFuture("panic", func() (*theme.RenderTheme, error) {
		panic("boom")
	})
	defer p.Close()
	if _, _, err := p.Acquire(context.Background()); !errors.Is(err, ErrNoTheme) {
		t.Errorf("Acquire() after panic error = %v, want ErrNoTheme", err)
	}
}

func TestThemeFutureCancel(t *testing.T) {
	unblock := make(chan struct{})
	f := NewThemeFuture("slow", func() (*theme.RenderTheme, error) {
		<-unblock
		return nil, errors.New("late")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := f.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
	close(unblock)
	f.Close()
	if !f.Destroyed() {
		t.Error("cancelled acquire kept a reference")
	}
}

func TestPoolDeduplicates(t *testing.T) {
	f := testFuture(t)
	cache := tilecache.NewMemory(16, nil)
	r := NewDatabaseRenderer(cache, nil)
	p := NewMapWorkerPool(r, cache, 2)
	defer p.Close()

	job := testJob(t, f, model.NewTile(1, 1, 2, 256), &fakeStore{}, false)
	if ok, err := p.Submit(job); !ok || err != nil {
		t.Fatalf("Submit() = %t, %v", ok, err)
	}
	if ok, _ := p.Submit(job.OtherTile(job.Tile)); ok {
		t.Error("equal job queued twice")
	}
	p.Start()
	p.Wait()
	if !cache.Contains(job.Key()) {
		t.Fatal("tile not cached")
	}
	if p.Rendered() != 1 {
		t.Errorf("Rendered() = %d, want 1", p.Rendered())
	}
	if r.Dependencies().IsTileInProgress(job.Tile) {
		t.Error("tile left in progress")
	}

	// cached tiles are not rendered again
	if ok, _ := p.Submit(job); !ok {
		t.Error("finished job not accepted again")
	}
	p.Wait()
	if p.Rendered() != 1 {
		t.Errorf("Rendered() = %d after resubmit, want 1", p.Rendered())
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	f := testFuture(t)
	cache := tilecache.NewMemory(16, nil)
	r := NewDatabaseRenderer(cache, nil)
	p := NewMapWorkerPool(r, cache, 0)
	defer p.Close()
	if p.Workers() != DefaultWorkers {
		t.Errorf("Workers() = %d, want %d", p.Workers(), DefaultWorkers)
	}
	p.Start()

	broken := testJob(t, f, model.NewTile(0, 0, 1, 256), &fakeStore{panics: true}, false)
	good := testJob(t, f, model.NewTile(1, 0, 1, 256), &fakeStore{}, false)
	p.Submit(broken)
	p.Submit(good)
	p.Wait()

	if p.Failed() != 1 || p.Rendered() != 1 {
		t.Errorf("failed %d rendered %d, want 1 and 1", p.Failed(), p.Rendered())
	}
	if cache.Contains(broken.Key()) {
		t.Error("failed tile cached")
	}
	if !cache.Contains(good.Key()) {
		t.Error("worker stopped after a panic")
	}
}

func TestPoolClosed(t *testing.T) {
	cache := tilecache.NewMemory(16, nil)
	p := NewMapWorkerPool(NewDatabaseRenderer(cache, nil), cache, 1)
	p.Start()
	p.Close()
	p.Close()
	f := testFuture(t)
	if _, err := p.Submit(testJob(t, f, model.NewTile(0, 0, 1, 256), &fakeStore{}, false)); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() error = %v, want ErrPoolClosed", err)
	}
	p.Wait()
}
