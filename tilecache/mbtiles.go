package tilecache

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/atlasdatatech/maprender/graphics"
	_ "github.com/mattn/go-sqlite3" // import sqlite3 driver
	log "github.com/sirupsen/logrus"
)

// MBTiles stores PNG tiles of one style in an MBTiles (SQLite) file. Keys
// of another style are never found.
type MBTiles struct {
	db    *sql.DB
	path  string
	style string
}

// OpenMBTiles opens or creates path. An existing file written for another
// style is refused.
func OpenMBTiles(path, style string) (*MBTiles, error) {
	db, err := mbtilesOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open mbtiles %s: %w", path, err)
	}
	m := &MBTiles{db: db, path: path, style: style}
	old, err := m.Metadata("style")
	switch {
	case errors.Is(err, ErrNotFound):
		err = m.SetMetadata("style", style)
	case err == nil && old != style:
		err = fmt.Errorf("mbtiles %s holds style %q, not %q", path, old, style)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

//mbtilesOpen 初始化配置MBTile库
func mbtilesOpen(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// locking_mode=EXCLUSIVE 只允许一个连接
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA synchronous=0",
		"PRAGMA locking_mode=EXCLUSIVE",
		"PRAGMA journal_mode=DELETE",
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
		"create table if not exists metadata (name text, value text);",
		"create unique index if not exists name on metadata (name);",
		"create unique index if not exists tile_index on tiles(zoom_level, tile_column, tile_row);",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// tileRow flips y, MBTiles rows count from the south.
func tileRow(k Key) uint32 {
	return k.Tile.MaxTileNumber() - k.Tile.Y
}

//Contains 是否包含
func (m *MBTiles) Contains(k Key) bool {
	if k.Style != m.style {
		return false
	}
	var n int
	err := m.db.QueryRow("select count(*) from tiles where zoom_level = ? and tile_column = ? and tile_row = ?;",
		k.Tile.Zoom(), k.Tile.X, tileRow(k)).Scan(&n)
	if err != nil {
		log.Errorf("mbtiles %s: %v", m.path, err)
		return false
	}
	return n > 0
}

//Get 读取瓦片
func (m *MBTiles) Get(k Key) (*graphics.TileBitmap, error) {
	if k.Style != m.style {
		return nil, ErrNotFound
	}
	var data []byte
	err := m.db.QueryRow("select tile_data from tiles where zoom_level = ? and tile_column = ? and tile_row = ?;",
		k.Tile.Zoom(), k.Tile.X, tileRow(k)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return graphics.DecodeTileBitmap(data)
}

//Put 写入瓦片
func (m *MBTiles) Put(k Key, b *graphics.TileBitmap) error {
	if b == nil {
		return nil
	}
	if k.Style != m.style {
		return fmt.Errorf("mbtiles %s: style %q does not belong here", m.path, k.Style)
	}
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return m.WriteTile(k.Tile.Zoom(), k.Tile.X, tileRow(k), data)
}

// WriteTile stores encoded tile data at a TMS row.
func (m *MBTiles) WriteTile(z int, column, row uint32, data []byte) error {
	_, err := m.db.Exec("insert or replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);",
		z, column, row, data)
	return err
}

//ReserveWorkingSet 持久存储无需处理
func (m *MBTiles) ReserveWorkingSet([]Key) {}

// Capacity is unbounded for a file.
func (m *MBTiles) Capacity() int {
	return int(^uint(0) >> 1)
}

//CapacityFirstLevel 同 Capacity
func (m *MBTiles) CapacityFirstLevel() int {
	return m.Capacity()
}

//Len 瓦片数
func (m *MBTiles) Len() (int, error) {
	var n int
	err := m.db.QueryRow("select count(*) from tiles;").Scan(&n)
	return n, err
}

//SetMetadata 写入元数据
func (m *MBTiles) SetMetadata(name, value string) error {
	_, err := m.db.Exec("insert or replace into metadata (name, value) values (?, ?);", name, value)
	return err
}

// Metadata returns ErrNotFound for a missing name.
func (m *MBTiles) Metadata(name string) (string, error) {
	var v string
	err := m.db.QueryRow("select value from metadata where name = ?;", name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// Destroy analyzes and closes the file. Tiles stay on disk.
func (m *MBTiles) Destroy() error {
	if m.db == nil {
		return nil
	}
	if _, err := m.db.Exec("ANALYZE;"); err != nil {
		return err
	}
	err := m.db.Close()
	m.db = nil
	return err
}
