package tilecache

import (
	"errors"
	"fmt"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/model"
)

//ErrNotFound 缓存中没有该瓦片
var ErrNotFound = errors.New("tilecache: tile not found")

// Key identifies a rendered tile. Style names everything besides the
// tile that changes its pixels: theme, scale factors, transparency.
type Key struct {
	Tile  model.Tile
	Style string
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Tile, k.Style)
}

// TileCache stores rendered tiles. Implementations are safe for
// concurrent use; putting a key twice replaces the bitmap.
type TileCache interface {
	Contains(k Key) bool
	// Get returns ErrNotFound for missing tiles.
	Get(k Key) (*graphics.TileBitmap, error)
	Put(k Key, b *graphics.TileBitmap) error
	// ReserveWorkingSet keeps keys in the cache ahead of other entries.
	ReserveWorkingSet(keys []Key)
	Capacity() int
	CapacityFirstLevel() int
	Destroy() error
}
