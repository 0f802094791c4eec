package mapdata

import (
	"sort"
	"sync"

	"github.com/paulmach/osm"
)

// TagPool interns tag keys and values. Source files repeat the same few
// hundred strings across many features.
type TagPool struct {
	mu      sync.Mutex
	strings map[string]string
}

//NewTagPool 创建字符池
func NewTagPool() *TagPool {
	return &TagPool{strings: make(map[string]string)}
}

//Intern 返回池中的字符串
func (p *TagPool) Intern(s string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.strings[s]; ok {
		return v
	}
	p.strings[s] = s
	return s
}

//Tag 创建池化标签
func (p *TagPool) Tag(key, value string) osm.Tag {
	return osm.Tag{Key: p.Intern(key), Value: p.Intern(value)}
}

//Len 池大小
func (p *TagPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strings)
}

type tagEntry struct {
	key, value string
}

// sortedTags interns entries and orders them by key so equal tag sets
// always render to the same cache key.
func sortedTags(entries []tagEntry, pool *TagPool) osm.Tags {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	tags := make(osm.Tags, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, pool.Tag(e.key, e.value))
	}
	return tags
}
