package label

import (
	"sync/atomic"

	"github.com/atlasdatatech/maprender/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TileBasedLabelStore keeps the unresolved label candidates of rendered
// tiles for drawing in a separate label layer.
type TileBasedLabelStore struct {
	items   *lru.Cache[model.Tile, []MapElementContainer]
	version atomic.Int64
}

// NewTileBasedLabelStore keeps labels for the capacity most recently
// stored tiles.
func NewTileBasedLabelStore(capacity int) *TileBasedLabelStore {
	if capacity <= 0 {
		capacity = 1
	}
	items, _ := lru.New[model.Tile, []MapElementContainer](capacity)
	return &TileBasedLabelStore{items: items}
}

//StoreMapItems 保存瓦片的标注
func (s *TileBasedLabelStore) StoreMapItems(tile model.Tile, labels []MapElementContainer) {
	s.items.Add(tile, labels)
	s.version.Add(1)
}

// GetVisibleItems returns the labels of all stored tiles between upperLeft
// and lowerRight inclusive, each label once.
func (s *TileBasedLabelStore) GetVisibleItems(upperLeft, lowerRight model.Tile) []MapElementContainer {
	seen := make(map[MapElementContainer]struct{})
	var out []MapElementContainer
	for y := upperLeft.Y; y <= lowerRight.Y; y++ {
		for x := upperLeft.X; x <= lowerRight.X; x++ {
			t := model.NewTile(x, y, upperLeft.Zoom(), upperLeft.Size)
			labels, ok := s.items.Get(t)
			if !ok {
				continue
			}
			for _, l := range labels {
				if _, dup := seen[l]; dup {
					continue
				}
				seen[l] = struct{}{}
				out = append(out, l)
			}
		}
	}
	return out
}

//Version 每次写入递增
func (s *TileBasedLabelStore) Version() int64 {
	return s.version.Load()
}

//Len 瓦片数量
func (s *TileBasedLabelStore) Len() int {
	return s.items.Len()
}

//Clear 清空
func (s *TileBasedLabelStore) Clear() {
	s.items.Purge()
	s.version.Add(1)
}
