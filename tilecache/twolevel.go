package tilecache

import (
	"errors"

	"github.com/atlasdatatech/maprender/graphics"
	log "github.com/sirupsen/logrus"
)

// TwoLevel puts a fast first level in front of a larger second level.
// Tiles read from the second level are copied into the first.
type TwoLevel struct {
	first  TileCache
	second TileCache
}

//NewTwoLevel 创建二级缓存
func NewTwoLevel(first, second TileCache) *TwoLevel {
	return &TwoLevel{first: first, second: second}
}

//Contains 任一级包含
func (t *TwoLevel) Contains(k Key) bool {
	return t.first.Contains(k) || t.second.Contains(k)
}

//Get 先读一级再读二级
func (t *TwoLevel) Get(k Key) (*graphics.TileBitmap, error) {
	b, err := t.first.Get(k)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	b, err = t.second.Get(k)
	if err != nil {
		return nil, err
	}
	if err := t.first.Put(k, b); err != nil {
		log.Warnf("promote %s: %v", k, err)
	}
	return b, nil
}

// Put writes both levels. A failing second level is reported after the
// first level took the tile.
func (t *TwoLevel) Put(k Key, b *graphics.TileBitmap) error {
	if err := t.first.Put(k, b); err != nil {
		return err
	}
	return t.second.Put(k, b)
}

//ReserveWorkingSet 作用于两级
func (t *TwoLevel) ReserveWorkingSet(keys []Key) {
	t.first.ReserveWorkingSet(keys)
	t.second.ReserveWorkingSet(keys)
}

// Capacity is the sum of both levels, saturating.
func (t *TwoLevel) Capacity() int {
	a, b := t.first.Capacity(), t.second.Capacity()
	if s := a + b; s >= a && s >= b {
		return s
	}
	return int(^uint(0) >> 1)
}

//CapacityFirstLevel 一级容量
func (t *TwoLevel) CapacityFirstLevel() int {
	return t.first.CapacityFirstLevel()
}

//Destroy 关闭两级
func (t *TwoLevel) Destroy() error {
	return errors.Join(t.first.Destroy(), t.second.Destroy())
}
