package mapdata

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

const (
	//LayerCount 图层数量，对应 OSM layer -5..5
	LayerCount = 11
	//LayerOffset 源数据 layer 值的偏移
	LayerOffset = 5

	// closedTolerance is the maximum distance in degrees between the first
	// and last coordinate of a closed way.
	closedTolerance = 0.000000001
)

//TagNaturalWater 海洋瓦片使用的标签
var TagNaturalWater = osm.Tag{Key: "natural", Value: "water"}

//PointOfInterest 兴趣点
type PointOfInterest struct {
	Layer    int8
	Position orb.Point
	Tags     osm.Tags
}

// Way is a line or area feature. Its closed state is decided once at
// construction.
type Way struct {
	Layer         int8
	Tags          osm.Tags
	Rings         [][]orb.Point
	LabelPosition *orb.Point

	closed bool
}

//NewWay 创建线要素
func NewWay(layer int8, tags osm.Tags, rings [][]orb.Point, labelPosition *orb.Point) *Way {
	w := &Way{
		Layer:         layer,
		Tags:          tags,
		Rings:         rings,
		LabelPosition: labelPosition,
	}
	if len(rings) > 0 {
		w.closed = IsClosed(rings[0])
	}
	return w
}

//IsClosed 是否闭合
func (w *Way) IsClosed() bool {
	return w.closed
}

// IsClosed reports whether the first and last coordinate of ring are within
// the closed-way tolerance. Rings with fewer than two points are open.
func IsClosed(ring []orb.Point) bool {
	if len(ring) < 2 {
		return false
	}
	first, last := ring[0], ring[len(ring)-1]
	dx := first.Lon() - last.Lon()
	dy := first.Lat() - last.Lat()
	return dx*dx+dy*dy < closedTolerance*closedTolerance
}

// ParseLayer converts an OSM layer tag value to the internal layer index.
// Missing or malformed values map to the ground layer.
func ParseLayer(value string) int8 {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return LayerOffset
	}
	// 超出 int8 范围的值交给渲染时裁剪
	if v < -128+LayerOffset {
		v = -128 + LayerOffset
	}
	if v > 127-LayerOffset {
		v = 127 - LayerOffset
	}
	return int8(v + LayerOffset)
}

//MapReadResult 瓦片读取结果
type MapReadResult struct {
	PointsOfInterest []*PointOfInterest
	Ways             []*Way
	IsWater          bool
}

// Add appends the features of other. IsWater stays set only if both results
// report water.
func (r *MapReadResult) Add(other *MapReadResult, first bool) {
	if other == nil {
		return
	}
	r.PointsOfInterest = append(r.PointsOfInterest, other.PointsOfInterest...)
	r.Ways = append(r.Ways, other.Ways...)
	if first {
		r.IsWater = other.IsWater
	} else {
		r.IsWater = r.IsWater && other.IsWater
	}
}
