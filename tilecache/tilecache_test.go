package tilecache

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/model"
)

func bitmap(c color.NRGBA) *graphics.TileBitmap {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return graphics.NewTileBitmap(img)
}

func key(x, y uint32, z int) Key {
	return Key{Tile: model.NewTile(x, y, z, 256), Style: "default"}
}

func TestMemory(t *testing.T) {
	var evicted []Key
	m := NewMemory(2, func(k Key) { evicted = append(evicted, k) })
	a, b, c := key(0, 0, 1), key(1, 0, 1), key(0, 1, 1)

	if _, err := m.Get(a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	m.Put(a, bitmap(color.NRGBA{R: 255, A: 255}))
	m.Put(b, bitmap(color.NRGBA{G: 255, A: 255}))
	// a becomes the most recently used entry
	if _, err := m.Get(a); err != nil {
		t.Fatal(err)
	}
	m.Put(c, bitmap(color.NRGBA{B: 255, A: 255}))

	if m.Contains(b) {
		t.Error("least recently used tile kept")
	}
	if !m.Contains(a) || !m.Contains(c) {
		t.Error("recent tiles evicted")
	}
	if len(evicted) != 1 || evicted[0] != b {
		t.Errorf("evicted = %v, want [%v]", evicted, b)
	}
	other := a
	other.Style = "night"
	if m.Contains(other) {
		t.Error("style is part of the key")
	}
}

func TestMemoryWorkingSet(t *testing.T) {
	m := NewMemory(2, nil)
	keys := []Key{key(0, 0, 2), key(1, 0, 2), key(2, 0, 2)}
	m.ReserveWorkingSet(keys)
	if m.Capacity() != 3 || m.CapacityFirstLevel() != 3 {
		t.Errorf("Capacity() = %d", m.Capacity())
	}
	for _, k := range keys {
		m.Put(k, bitmap(color.NRGBA{A: 255}))
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	m.Destroy()
	if m.Len() != 0 {
		t.Errorf("Len() after Destroy = %d", m.Len())
	}
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := key(uint32(i), 0, 4)
			for j := 0; j < 50; j++ {
				m.Put(k, bitmap(color.NRGBA{A: 255}))
				m.Get(k)
				m.Contains(key(uint32(j%8), 0, 4))
			}
		}(i)
	}
	wg.Wait()
	if m.Len() != 8 {
		t.Errorf("Len() = %d, want 8", m.Len())
	}
}

func TestMBTiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mbtiles")
	m, err := OpenMBTiles(path, "default")
	if err != nil {
		t.Fatal(err)
	}
	k := key(3, 1, 3)
	if m.Contains(k) {
		t.Fatal("empty file contains a tile")
	}
	if err := m.Put(k, bitmap(color.NRGBA{R: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	if !m.Contains(k) {
		t.Fatal("tile missing after Put")
	}
	// TMS row
	var row int
	if err := m.db.QueryRow("select tile_row from tiles").Scan(&row); err != nil || row != 6 {
		t.Errorf("tile_row = %d, %v; want 6", row, err)
	}
	got, err := m.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.At(1, 1); c.R < 0.99 || c.A < 0.99 {
		t.Errorf("pixel = %+v", c)
	}
	if _, err := m.Get(key(0, 0, 3)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := m.Put(Key{Tile: k.Tile, Style: "night"}, bitmap(color.NRGBA{A: 255})); err == nil {
		t.Error("Put accepted a foreign style")
	}
	if err := m.SetMetadata("format", "png"); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Metadata("format"); err != nil || v != "png" {
		t.Errorf("Metadata() = %q, %v", v, err)
	}
	if err := m.Destroy(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenMBTiles(path, "night"); err == nil {
		t.Error("reopened with another style")
	}
	m, err = OpenMBTiles(path, "default")
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	if n, err := m.Len(); err != nil || n != 1 {
		t.Errorf("Len() = %d, %v", n, err)
	}
}

func TestTwoLevel(t *testing.T) {
	second, err := OpenMBTiles(filepath.Join(t.TempDir(), "second.mbtiles"), "default")
	if err != nil {
		t.Fatal(err)
	}
	first := NewMemory(1, nil)
	tl := NewTwoLevel(first, second)
	defer tl.Destroy()

	a, b := key(0, 0, 2), key(1, 1, 2)
	tl.Put(a, bitmap(color.NRGBA{R: 255, A: 255}))
	tl.Put(b, bitmap(color.NRGBA{G: 255, A: 255}))
	if first.Contains(a) {
		t.Fatal("first level over capacity")
	}
	if !tl.Contains(a) {
		t.Fatal("tile lost from both levels")
	}
	if _, err := tl.Get(a); err != nil {
		t.Fatal(err)
	}
	if !first.Contains(a) {
		t.Error("second level hit not promoted")
	}
	if tl.CapacityFirstLevel() != 1 {
		t.Errorf("CapacityFirstLevel() = %d", tl.CapacityFirstLevel())
	}
	if tl.Capacity() <= 1 {
		t.Errorf("Capacity() = %d", tl.Capacity())
	}
	if _, err := tl.Get(key(3, 3, 2)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v", err)
	}
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		available uint64
		size      int
		fraction  float64
		want      int
	}{
		{1 << 30, 256, 0.25, 1024},
		{1 << 20, 256, 0.25, MinCapacity},
		{1 << 40, 256, 0.5, MaxCapacity},
		{1 << 30, 0, 0.5, MinCapacity},
	}
	for _, tt := range tests {
		if got := capacityFor(tt.available, tt.size, tt.fraction); got != tt.want {
			t.Errorf("capacityFor(%d, %d, %g) = %d, want %d", tt.available, tt.size, tt.fraction, got, tt.want)
		}
	}
	if n := CapacityForMemory(256, 0.1); n < MinCapacity || n > MaxCapacity {
		t.Errorf("CapacityForMemory() = %d", n)
	}
}
