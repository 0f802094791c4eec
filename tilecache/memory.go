package tilecache

import (
	"sync"

	"github.com/atlasdatatech/maprender/graphics"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// Memory keeps the most recently used tiles in memory.
type Memory struct {
	mu       sync.Mutex
	entries  *lru.Cache[Key, *graphics.TileBitmap]
	capacity int
	onEvict  func(Key)
}

// NewMemory creates a cache for capacity tiles. onEvict, if not nil, is
// called with every key dropped, outside the cache lock.
func NewMemory(capacity int, onEvict func(Key)) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	m := &Memory{capacity: capacity, onEvict: onEvict}
	m.entries, _ = lru.NewWithEvict[Key, *graphics.TileBitmap](capacity, m.evicted)
	return m
}

func (m *Memory) evicted(k Key, _ *graphics.TileBitmap) {
	log.Debugf("tile %s evicted", k)
	if m.onEvict != nil {
		m.onEvict(k)
	}
}

//Contains 是否包含
func (m *Memory) Contains(k Key) bool {
	return m.entries.Contains(k)
}

//Get 取瓦片
func (m *Memory) Get(k Key) (*graphics.TileBitmap, error) {
	b, ok := m.entries.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

//Put 存瓦片
func (m *Memory) Put(k Key, b *graphics.TileBitmap) error {
	if b == nil {
		return nil
	}
	if m.entries.Contains(k) {
		log.Debugf("tile %s put twice", k)
	}
	m.entries.Add(k, b)
	return nil
}

// ReserveWorkingSet grows the cache to hold all of keys if needed and
// marks the cached ones as most recently used.
func (m *Memory) ReserveWorkingSet(keys []Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) > m.capacity {
		log.Infof("tile cache grown from %d to %d for the working set", m.capacity, len(keys))
		m.capacity = len(keys)
		m.entries.Resize(m.capacity)
	}
	for _, k := range keys {
		m.entries.Get(k)
	}
}

//Capacity 容量
func (m *Memory) Capacity() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capacity
}

//CapacityFirstLevel 同 Capacity
func (m *Memory) CapacityFirstLevel() int {
	return m.Capacity()
}

//Len 当前瓦片数
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Destroy drops all tiles; onEvict is called for each of them.
func (m *Memory) Destroy() error {
	m.entries.Purge()
	return nil
}
