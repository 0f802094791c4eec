package mapdata

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlasdatatech/maprender/mercator"
	"github.com/atlasdatatech/maprender/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestWayClosed(t *testing.T) {
	ring := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	if !NewWay(LayerOffset, nil, [][]orb.Point{ring}, nil).IsClosed() {
		t.Fatal("ring with equal ends must be closed")
	}

	within := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {closedTolerance / 2, 0}}
	if !IsClosed(within) {
		t.Error("ends within tolerance must be closed")
	}

	open := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {closedTolerance * 10, 0}}
	if IsClosed(open) {
		t.Error("ends beyond tolerance must be open")
	}

	if IsClosed([]orb.Point{{0, 0}}) {
		t.Error("single point is not closed")
	}
}

func TestParseLayer(t *testing.T) {
	cases := []struct {
		in   string
		want int8
	}{
		{"", LayerOffset},
		{"0", 5},
		{"-5", 0},
		{"5", 10},
		{" 2 ", 7},
		{"bridge", LayerOffset},
		{"-200", -128 + LayerOffset + LayerOffset},
	}
	for _, c := range cases {
		if got := ParseLayer(c.in); got != c.want {
			t.Errorf("ParseLayer(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTagPool(t *testing.T) {
	p := NewTagPool()
	a := p.Tag("highway", "primary")
	b := p.Tag("highway", "secondary")
	if a.Key != b.Key || p.Len() != 3 {
		t.Fatalf("pool len = %d, want 3", p.Len())
	}
	tags := sortedTags([]tagEntry{{"name", "x"}, {"amenity", "cafe"}}, p)
	if tags[0].Key != "amenity" || tags[1].Key != "name" {
		t.Errorf("tags not sorted: %v", tags)
	}
}

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"amenity": "cafe", "name": "Corner", "layer": "1"},
     "geometry": {"type": "Point", "coordinates": [0.5, 0.5]}},
    {"type": "Feature", "properties": {"highway": "primary"},
     "geometry": {"type": "LineString", "coordinates": [[0.1, 0.1], [0.9, 0.9]]}},
    {"type": "Feature", "properties": {"landuse": "forest", "label:lon": 0.3, "label:lat": 0.3},
     "geometry": {"type": "Polygon", "coordinates": [[[0.2, 0.2], [0.4, 0.2], [0.4, 0.4], [0.2, 0.2]]]}},
    {"type": "Feature", "properties": {"natural": "sea"},
     "geometry": {"type": "Polygon", "coordinates": [[[-170, -80], [-10, -80], [-10, -1], [-170, -1], [-170, -80]]]}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGeoJSONStore(t *testing.T) {
	s, err := OpenGeoJSON(writeFile(t, "data.geojson", sampleGeoJSON), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	tile := model.NewTile(1, 0, 1, model.DefaultTileSize)
	if !s.SupportsTile(tile) {
		t.Fatal("tile should be supported")
	}
	r, err := s.ReadMapData(tile)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.PointsOfInterest) != 1 || len(r.Ways) != 2 {
		t.Fatalf("got %d pois, %d ways", len(r.PointsOfInterest), len(r.Ways))
	}
	poi := r.PointsOfInterest[0]
	if poi.Layer != 6 || poi.Tags.Find("amenity") != "cafe" || poi.Tags.HasTag("layer") {
		t.Errorf("unexpected poi %+v", poi)
	}
	for _, w := range r.Ways {
		switch {
		case w.Tags.HasTag("highway"):
			if w.IsClosed() {
				t.Error("road must be open")
			}
		case w.Tags.HasTag("landuse"):
			if !w.IsClosed() || w.LabelPosition == nil || w.LabelPosition.Lon() != 0.3 {
				t.Errorf("unexpected area %+v", w)
			}
		}
	}
	if r.IsWater {
		t.Error("land tile reported as water")
	}

	sea, _ := s.ReadMapData(model.NewTile(100, 540, 10, model.DefaultTileSize))
	if !sea.IsWater || len(sea.Ways) != 0 {
		t.Errorf("sea tile: water=%v ways=%d", sea.IsWater, len(sea.Ways))
	}

	s.Close()
	if _, err := s.ReadMapData(tile); !errors.Is(err, ErrClosed) {
		t.Errorf("read after close: %v", err)
	}
}

func TestGeoJSONIndexedRead(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	fc := geojson.NewFeatureCollection()
	add := func(g orb.Geometry, name string) {
		f := geojson.NewFeature(g)
		f.Properties["name"] = name
		fc.Append(f)
	}
	pt := func() orb.Point { return orb.Point{rnd.Float64()*20 - 10, rnd.Float64()*20 - 10} }
	for i := 0; i < 300; i++ {
		add(pt(), "poi")
		a := pt()
		add(orb.LineString{a, {a[0] + rnd.Float64()*0.8, a[1] + rnd.Float64()*0.8}}, "road")
	}
	// duplicated points and ways too long for the index
	p := pt()
	add(p, "same")
	add(p, "same")
	add(orb.LineString{{-10, -10}, {10, 10}}, "long")
	add(orb.Polygon{{{-9, 9}, {9, 9}, {9, 7}, {-9, 7}, {-9, 9}}}, "wide")

	s := NewGeoJSONStore(fc, 0, nil)
	if len(s.largeWays) != 2 {
		t.Fatalf("large ways = %d, want 2", len(s.largeWays))
	}
	for z := 3; z <= 7; z++ {
		for i := 0; i < 40; i++ {
			c := pt()
			tile := model.NewTile(mercator.LongitudeToTileX(c.Lon(), z), mercator.LatitudeToTileY(c.Lat(), z), z, model.DefaultTileSize)
			got, err := s.ReadMapData(tile)
			if err != nil {
				t.Fatal(err)
			}

			tb := tile.Bound()
			b := tb.Pad(tilePadding * (tb.Max.Lon() - tb.Min.Lon()))
			var pois []*PointOfInterest
			for _, ip := range s.pois {
				if b.Contains(ip.poi.Position) {
					pois = append(pois, ip.poi)
				}
			}
			var ways []*Way
			for _, iw := range s.ways {
				if b.Intersects(iw.bound) {
					ways = append(ways, iw.way)
				}
			}
			if len(got.PointsOfInterest) != len(pois) || len(got.Ways) != len(ways) {
				t.Fatalf("%s: got %d pois %d ways, scan finds %d and %d", tile, len(got.PointsOfInterest), len(got.Ways), len(pois), len(ways))
			}
			for i := range pois {
				if got.PointsOfInterest[i] != pois[i] {
					t.Fatalf("%s: poi %d out of file order", tile, i)
				}
			}
			for i := range ways {
				if got.Ways[i] != ways[i] {
					t.Fatalf("%s: way %d out of file order", tile, i)
				}
			}
		}
	}
}

func TestCSVStore(t *testing.T) {
	data := "name,经度,纬度,layer\nA,116.39,39.9,2\nB,,39.9,\nC,121.47,31.23,\n"
	s, err := ReadCSV(strings.NewReader(data), 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.pois) != 2 {
		t.Fatalf("got %d pois, want 2", len(s.pois))
	}
	if s.pois[0].poi.Layer != 7 || s.pois[0].poi.Tags.Find("name") != "A" {
		t.Errorf("unexpected poi %+v", s.pois[0].poi)
	}
	if s.DataTimestamp(model.Tile{}) != 42 {
		t.Error("timestamp lost")
	}
}

func TestGetGeomColDetect(t *testing.T) {
	headers := []string{"id", "a", "b"}
	rows := [][]string{{"1", "116.1", "39.1"}, {"2", "117.2", "40.2"}}
	ix, iy := GetGeomCol(headers, rows)
	if ix != 1 || iy != 2 {
		t.Errorf("GetGeomCol = %d, %d", ix, iy)
	}
}

func TestMultiStore(t *testing.T) {
	a, _ := ReadCSV(strings.NewReader("x,y,n\n0.5,0.5,a\n"), 1, nil)
	b, _ := ReadCSV(strings.NewReader("x,y,n\n0.6,0.6,b\n"), 2, nil)
	m := NewMultiStore(a, b)
	tile := model.NewTile(1, 0, 1, model.DefaultTileSize)
	r, err := m.ReadMapData(tile)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.PointsOfInterest) != 2 || m.DataTimestamp(tile) != 2 {
		t.Errorf("merged %d pois, ts %d", len(r.PointsOfInterest), m.DataTimestamp(tile))
	}
}
