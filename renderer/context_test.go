package renderer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/theme"
	"github.com/paulmach/osm"
)

const pubIcon = `<svg xmlns="http://www.w3.org/2000/svg" width="12" height="12" viewBox="0 0 12 12">
<rect x="0" y="0" width="12" height="12" fill="#aa5500"/>
</svg>`

// the caption comes before the symbol it is linked to
const pubTheme = `<rendertheme xmlns="http://mapsforge.org/renderTheme" version="6">
	<rule e="node" k="amenity" v="pub">
		<caption k="name" symbol-id="pub"/>
		<symbol id="pub" src="file:pub.svg"/>
	</rule>
	<rule e="node" k="amenity" v="bar">
		<caption k="name" symbol-id="pub"/>
	</rule>
</rendertheme>`

func pubRenderTheme(t *testing.T) *theme.RenderTheme {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pub.svg"), []byte(pubIcon), 0o644); err != nil {
		t.Fatal(err)
	}
	th, err := theme.Load(strings.NewReader(pubTheme), graphics.NewResourceCache(dir), theme.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return th
}

func TestCaptionLinksLaterSymbol(t *testing.T) {
	th := pubRenderTheme(t)
	tile := model.NewTile(1, 1, 2, 256)
	pub := &mapdata.PointOfInterest{
		Layer:    mapdata.LayerOffset,
		Position: tile.Bound().Center(),
		Tags:     osm.Tags{{Key: "amenity", Value: "pub"}, {Key: "name", Value: "Crown"}},
	}
	bar := &mapdata.PointOfInterest{
		Layer:    mapdata.LayerOffset,
		Position: tile.Bound().Min,
		Tags:     osm.Tags{{Key: "amenity", Value: "bar"}, {Key: "name", Value: "Tap"}},
	}
	rc := NewRenderContext(testJob(t, nil, tile, &fakeStore{}, false), th)
	NewDatabaseRenderer(nil, nil).processReadMapData(rc, th, &mapdata.MapReadResult{
		PointsOfInterest: []*mapdata.PointOfInterest{pub, bar},
	})

	var symbol *label.SymbolContainer
	captions := make(map[string]*label.PointTextContainer)
	for _, l := range rc.Labels() {
		switch l := l.(type) {
		case *label.SymbolContainer:
			symbol = l
		case *label.PointTextContainer:
			captions[l.Text] = l
		}
	}
	if symbol == nil || len(captions) != 2 {
		t.Fatalf("labels = %v", rc.Labels())
	}
	if captions["Crown"].Symbol != symbol {
		t.Errorf("pub caption linked to %v, want the pub symbol", captions["Crown"].Symbol)
	}
	// no symbol matched the bar
	if captions["Tap"].Symbol != nil {
		t.Error("bar caption linked to another feature's symbol")
	}
}

func TestCaptionDroppedWithSymbol(t *testing.T) {
	th := pubRenderTheme(t)
	tile := model.NewTile(1, 1, 2, 256)
	pub := &mapdata.PointOfInterest{
		Layer:    mapdata.LayerOffset,
		Position: tile.Bound().Center(),
		Tags:     osm.Tags{{Key: "amenity", Value: "pub"}, {Key: "name", Value: "Crown"}},
	}
	rc := NewRenderContext(testJob(t, nil, tile, &fakeStore{}, false), th)
	r := NewDatabaseRenderer(nil, nil)
	r.processReadMapData(rc, th, &mapdata.MapReadResult{PointsOfInterest: []*mapdata.PointOfInterest{pub}})

	var symbol *label.SymbolContainer
	for _, l := range rc.Labels() {
		if s, ok := l.(*label.SymbolContainer); ok {
			symbol = s
		}
	}
	if symbol == nil {
		t.Fatal("pub symbol not placed")
	}
	// a more important icon on top of the pub symbol only
	rival := label.NewSymbolContainer(symbol.XY(), label.DisplayIfSpace, -100, testBitmap(12, 12), 0, true)
	candidates := append([]label.MapElementContainer{rival}, rc.Labels()...)

	got := r.Dependencies().Resolve(tile, candidates, func(model.Tile) bool { return false })
	if len(got) != 1 || got[0] != rival {
		t.Errorf("drawn = %v, want the rival alone", got)
	}
}
