package mapdata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/atlasdatatech/maprender/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"github.com/paulmach/osm"
	log "github.com/sirupsen/logrus"
)

const (
	layerProperty    = "layer"
	labelLonProperty = "label:lon"
	labelLatProperty = "label:lat"

	// tilePadding is the fraction of a tile added around its bound when
	// selecting features, so strokes crossing the edge are not cut short.
	tilePadding = 0.125

	// largeWaySpan is the width or height in degrees above which a way is
	// kept out of the way index and checked on every read.
	largeWaySpan = 1.0
)

// indexedPOI and indexedWay are quadtree entries; seq keeps reads in file
// order.
type indexedPOI struct {
	poi *PointOfInterest
	seq int
}

func (ip indexedPOI) Point() orb.Point { return ip.poi.Position }

// A way is indexed by the center of its bound.
type indexedWay struct {
	way   *Way
	bound orb.Bound
	seq   int
}

func (iw indexedWay) Point() orb.Point { return iw.bound.Center() }

// GeoJSONStore serves tiles from an in-memory GeoJSON feature collection.
// Features tagged natural=sea are not drawn; they mark tiles as entirely
// water instead.
type GeoJSONStore struct {
	mu        sync.RWMutex
	pois      []indexedPOI
	ways      []indexedWay
	seas      []orb.Polygon
	bound     orb.Bound
	timestamp int64
	closed    bool

	poiIndex  *quadtree.Quadtree
	wayIndex  *quadtree.Quadtree
	largeWays []indexedWay
	// wayReach is the largest half extent of an indexed way
	wayReach orb.Point
}

//OpenGeoJSON 读取GeoJSON文件
func OpenGeoJSON(path string, pool *TagPool) (*GeoJSONStore, error) {
	mf, err := OpenMapFile(path)
	if err != nil {
		return nil, err
	}
	defer mf.Close()

	fc, err := geojson.UnmarshalFeatureCollection(mf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s := NewGeoJSONStore(fc, mf.ModTime(), pool)
	log.Infof("loaded %s: %d pois, %d ways, %d sea polygons", path, len(s.pois), len(s.ways), len(s.seas))
	return s, nil
}

// NewGeoJSONStore indexes the features of fc. pool may be nil.
func NewGeoJSONStore(fc *geojson.FeatureCollection, timestamp int64, pool *TagPool) *GeoJSONStore {
	if pool == nil {
		pool = NewTagPool()
	}
	s := &GeoJSONStore{timestamp: timestamp}
	first := true
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		tags, layer, label := featureTags(f.Properties, pool)
		if tags.Find("natural") == "sea" {
			s.addSea(f.Geometry)
		} else {
			s.addGeometry(f.Geometry, tags, layer, label)
		}
		if first {
			s.bound = f.Geometry.Bound()
			first = false
		} else {
			s.bound = s.bound.Union(f.Geometry.Bound())
		}
	}
	s.buildIndex()
	return s
}

// buildIndex puts the features into quadtrees over the data bound.
func (s *GeoJSONStore) buildIndex() {
	s.poiIndex = quadtree.New(s.bound)
	for _, ip := range s.pois {
		if err := s.poiIndex.Add(ip); err != nil {
			log.Warnf("poi at %v not indexed: %v", ip.poi.Position, err)
		}
	}
	s.wayIndex = quadtree.New(s.bound)
	for _, iw := range s.ways {
		w, h := iw.bound.Max.Lon()-iw.bound.Min.Lon(), iw.bound.Max.Lat()-iw.bound.Min.Lat()
		if w > largeWaySpan || h > largeWaySpan {
			s.largeWays = append(s.largeWays, iw)
			continue
		}
		if err := s.wayIndex.Add(iw); err != nil {
			s.largeWays = append(s.largeWays, iw)
			continue
		}
		s.wayReach[0] = math.Max(s.wayReach[0], w/2)
		s.wayReach[1] = math.Max(s.wayReach[1], h/2)
	}
}

func (s *GeoJSONStore) addSea(g orb.Geometry) {
	switch g := g.(type) {
	case orb.Polygon:
		s.seas = append(s.seas, g)
	case orb.MultiPolygon:
		s.seas = append(s.seas, g...)
	default:
		log.Warnf("natural=sea on %s geometry ignored", g.GeoJSONType())
	}
}

func (s *GeoJSONStore) addGeometry(g orb.Geometry, tags osm.Tags, layer int8, label *orb.Point) {
	switch g := g.(type) {
	case orb.Point:
		s.pois = append(s.pois, indexedPOI{
			poi: &PointOfInterest{Layer: layer, Position: g, Tags: tags},
			seq: len(s.pois),
		})
	case orb.MultiPoint:
		for _, p := range g {
			s.addGeometry(p, tags, layer, label)
		}
	case orb.LineString:
		s.addWay([][]orb.Point{[]orb.Point(g)}, tags, layer, label, g.Bound())
	case orb.MultiLineString:
		for _, ls := range g {
			s.addGeometry(ls, tags, layer, label)
		}
	case orb.Ring:
		s.addWay([][]orb.Point{[]orb.Point(g)}, tags, layer, label, g.Bound())
	case orb.Polygon:
		rings := make([][]orb.Point, 0, len(g))
		for _, r := range g {
			rings = append(rings, []orb.Point(r))
		}
		s.addWay(rings, tags, layer, label, g.Bound())
	case orb.MultiPolygon:
		for _, p := range g {
			s.addGeometry(p, tags, layer, label)
		}
	case orb.Collection:
		for _, c := range g {
			s.addGeometry(c, tags, layer, label)
		}
	default:
		log.Debugf("unsupported geometry %T skipped", g)
	}
}

func (s *GeoJSONStore) addWay(rings [][]orb.Point, tags osm.Tags, layer int8, label *orb.Point, b orb.Bound) {
	if len(rings) == 0 || len(rings[0]) < 2 {
		return
	}
	s.ways = append(s.ways, indexedWay{way: NewWay(layer, tags, rings, label), bound: b, seq: len(s.ways)})
}

// featureTags converts GeoJSON properties to a tag list sorted by key and
// pulls out the layer and label position properties.
func featureTags(props geojson.Properties, pool *TagPool) (osm.Tags, int8, *orb.Point) {
	layer := int8(LayerOffset)
	var lon, lat *float64
	entries := make([]tagEntry, 0, len(props))
	for k, raw := range props {
		v := propertyString(raw)
		if v == "" {
			continue
		}
		switch k {
		case layerProperty:
			layer = ParseLayer(v)
		case labelLonProperty:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				lon = &f
			}
		case labelLatProperty:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				lat = &f
			}
		default:
			entries = append(entries, tagEntry{k, v})
		}
	}
	var label *orb.Point
	if lon != nil && lat != nil {
		label = &orb.Point{*lon, *lat}
	}
	return sortedTags(entries, pool), layer, label
}

func propertyString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}

//ReadMapData 读取与瓦片相交的要素
func (s *GeoJSONStore) ReadMapData(tile model.Tile) (*MapReadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	tb := tile.Bound()
	b := tb.Pad(tilePadding * (tb.Max.Lon() - tb.Min.Lon()))
	result := &MapReadResult{}

	pois := s.poiIndex.InBound(nil, b)
	sort.Slice(pois, func(i, j int) bool { return pois[i].(indexedPOI).seq < pois[j].(indexedPOI).seq })
	for _, p := range pois {
		result.PointsOfInterest = append(result.PointsOfInterest, p.(indexedPOI).poi)
	}

	reach := orb.Bound{
		Min: orb.Point{b.Min.Lon() - s.wayReach[0], b.Min.Lat() - s.wayReach[1]},
		Max: orb.Point{b.Max.Lon() + s.wayReach[0], b.Max.Lat() + s.wayReach[1]},
	}
	var ways []indexedWay
	for _, p := range s.wayIndex.InBound(nil, reach) {
		if iw := p.(indexedWay); b.Intersects(iw.bound) {
			ways = append(ways, iw)
		}
	}
	for _, iw := range s.largeWays {
		if b.Intersects(iw.bound) {
			ways = append(ways, iw)
		}
	}
	sort.Slice(ways, func(i, j int) bool { return ways[i].seq < ways[j].seq })
	for _, iw := range ways {
		result.Ways = append(result.Ways, iw.way)
	}
	result.IsWater = s.isWater(tb)
	return result, nil
}

// isWater reports whether every corner and the center of b lie inside a
// single sea polygon.
func (s *GeoJSONStore) isWater(b orb.Bound) bool {
	probes := []orb.Point{
		b.Min, b.Max,
		{b.Min.Lon(), b.Max.Lat()},
		{b.Max.Lon(), b.Min.Lat()},
		b.Center(),
	}
	for _, sea := range s.seas {
		if !sea.Bound().Intersects(b) {
			continue
		}
		inside := true
		for _, p := range probes {
			if !planar.PolygonContains(sea, p) {
				inside = false
				break
			}
		}
		if inside {
			return true
		}
	}
	return false
}

//SupportsTile 瓦片与数据范围相交
func (s *GeoJSONStore) SupportsTile(tile model.Tile) bool {
	return s.bound.Intersects(tile.Bound())
}

//DataTimestamp 数据时间戳
func (s *GeoJSONStore) DataTimestamp(model.Tile) int64 {
	return s.timestamp
}

//BoundingBox 数据范围
func (s *GeoJSONStore) BoundingBox() orb.Bound {
	return s.bound
}

//Close 关闭
func (s *GeoJSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
