package tilecache

import (
	"github.com/shirou/gopsutil/mem"
	log "github.com/sirupsen/logrus"
)

const (
	//MinCapacity 最少缓存瓦片数
	MinCapacity = 16
	//MaxCapacity 最多缓存瓦片数
	MaxCapacity = 8192
)

// CapacityForMemory sizes a first level cache to use fraction of the
// available memory for RGBA tiles of tileSize pixels.
func CapacityForMemory(tileSize int, fraction float64) int {
	v, err := mem.VirtualMemory()
	if err != nil {
		log.Warnf("memory probe failed, using %d tiles: %v", MinCapacity*16, err)
		return MinCapacity * 16
	}
	n := capacityFor(v.Available, tileSize, fraction)
	log.Debugf("available memory %d MB, tile cache %d tiles", v.Available>>20, n)
	return n
}

func capacityFor(available uint64, tileSize int, fraction float64) int {
	if tileSize <= 0 || fraction <= 0 {
		return MinCapacity
	}
	per := uint64(tileSize) * uint64(tileSize) * 4
	n := float64(available) * fraction / float64(per)
	switch {
	case n < MinCapacity:
		return MinCapacity
	case n > MaxCapacity:
		return MaxCapacity
	}
	return int(n)
}
