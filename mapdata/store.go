package mapdata

import (
	"errors"

	"github.com/atlasdatatech/maprender/model"
	"github.com/paulmach/orb"
)

//ErrClosed 数据源已关闭
var ErrClosed = errors.New("mapdata: store is closed")

// MapDataStore supplies the features of a tile.
type MapDataStore interface {
	// ReadMapData returns the features intersecting tile. A nil result with a
	// nil error means the store has nothing for the tile.
	ReadMapData(tile model.Tile) (*MapReadResult, error)
	SupportsTile(tile model.Tile) bool
	DataTimestamp(tile model.Tile) int64
	BoundingBox() orb.Bound
	Close() error
}

//MultiStore 多数据源合并
type MultiStore struct {
	stores []MapDataStore
}

//NewMultiStore 创建合并数据源
func NewMultiStore(stores ...MapDataStore) *MultiStore {
	return &MultiStore{stores: stores}
}

//ReadMapData 合并所有支持该瓦片的数据源
func (m *MultiStore) ReadMapData(tile model.Tile) (*MapReadResult, error) {
	var result *MapReadResult
	for _, s := range m.stores {
		if !s.SupportsTile(tile) {
			continue
		}
		r, err := s.ReadMapData(tile)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		if result == nil {
			result = &MapReadResult{}
			result.Add(r, true)
			continue
		}
		result.Add(r, false)
	}
	return result, nil
}

//SupportsTile 任一数据源支持即可
func (m *MultiStore) SupportsTile(tile model.Tile) bool {
	for _, s := range m.stores {
		if s.SupportsTile(tile) {
			return true
		}
	}
	return false
}

//DataTimestamp 最新时间戳
func (m *MultiStore) DataTimestamp(tile model.Tile) int64 {
	var ts int64
	for _, s := range m.stores {
		if s.SupportsTile(tile) {
			if t := s.DataTimestamp(tile); t > ts {
				ts = t
			}
		}
	}
	return ts
}

//BoundingBox 所有数据源的外包框
func (m *MultiStore) BoundingBox() orb.Bound {
	var b orb.Bound
	for i, s := range m.stores {
		if i == 0 {
			b = s.BoundingBox()
			continue
		}
		b = b.Union(s.BoundingBox())
	}
	return b
}

//Close 关闭所有数据源
func (m *MultiStore) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
