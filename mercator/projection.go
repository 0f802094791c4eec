package mercator

import (
	"math"

	"github.com/atlasdatatech/maprender/model"
	"github.com/paulmach/orb"
)

const (
	//LatitudeMax 墨卡托投影最大纬度
	LatitudeMax = 85.05112877980659
	//LatitudeMin 墨卡托投影最小纬度
	LatitudeMin = -LatitudeMax
	//LongitudeMax 最大经度
	LongitudeMax = 180.0
	//LongitudeMin 最小经度
	LongitudeMin = -LongitudeMax
)

//MapSize 指定级别的地图像素尺寸
func MapSize(zoom int, tileSize int) int64 {
	if zoom < 0 {
		zoom = 0
	}
	return int64(tileSize) << uint(zoom)
}

//LongitudeToPixelX 经度转绝对像素X
func LongitudeToPixelX(lon float64, mapSize int64) float64 {
	if math.IsInf(lon, 0) || math.IsNaN(lon) {
		lon = 0
	}
	return (lon + 180) / 360 * float64(mapSize)
}

// LatitudeToPixelY converts a latitude to an absolute pixel Y coordinate,
// clamped to the map area.
func LatitudeToPixelY(lat float64, mapSize int64) float64 {
	if math.IsInf(lat, 0) || math.IsNaN(lat) {
		lat = 0
	}
	sinLat := math.Sin(lat * math.Pi / 180)
	// 极点附近 log 发散
	sinLat = math.Max(-0.9999999999, math.Min(0.9999999999, sinLat))
	y := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * float64(mapSize)
	return math.Min(math.Max(0, y), float64(mapSize))
}

//PixelXToLongitude 绝对像素X转经度
func PixelXToLongitude(x float64, mapSize int64) float64 {
	return 360*(x/float64(mapSize)) - 180
}

//PixelYToLatitude 绝对像素Y转纬度
func PixelYToLatitude(y float64, mapSize int64) float64 {
	y = 0.5 - y/float64(mapSize)
	return 90 - 360*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi
}

// Pixel returns the absolute pixel position of a lon/lat point.
func Pixel(p orb.Point, mapSize int64) model.Point {
	return model.Point{X: LongitudeToPixelX(p.Lon(), mapSize), Y: LatitudeToPixelY(p.Lat(), mapSize)}
}

// PixelRelativeToTile returns the position of p relative to the tile's
// upper left corner.
func PixelRelativeToTile(p orb.Point, tile model.Tile) model.Point {
	abs := Pixel(p, MapSize(tile.Zoom(), tile.Size))
	o := tile.Origin()
	return abs.Offset(-o.X, -o.Y)
}

//LongitudeToTileX 经度转瓦片X
func LongitudeToTileX(lon float64, zoom int) uint32 {
	return pixelToTile(LongitudeToPixelX(lon, MapSize(zoom, 1)), zoom)
}

//LatitudeToTileY 纬度转瓦片Y
func LatitudeToTileY(lat float64, zoom int) uint32 {
	return pixelToTile(LatitudeToPixelY(lat, MapSize(zoom, 1)), zoom)
}

func pixelToTile(p float64, zoom int) uint32 {
	maxTile := float64(int64(1)<<uint(zoom) - 1)
	return uint32(math.Max(0, math.Min(maxTile, math.Floor(p))))
}

// Tiles returns the tiles covering the bound at the given zoom level.
func Tiles(b orb.Bound, zoom int, tileSize int) []model.Tile {
	minX := LongitudeToTileX(b.Min.Lon(), zoom)
	maxX := LongitudeToTileX(b.Max.Lon(), zoom)
	minY := LatitudeToTileY(b.Max.Lat(), zoom)
	maxY := LatitudeToTileY(b.Min.Lat(), zoom)

	tiles := make([]model.Tile, 0, int(maxX-minX+1)*int(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, model.NewTile(x, y, zoom, tileSize))
		}
	}
	return tiles
}

// BoundRelativeToTile converts a lon/lat bound into a pixel rectangle
// relative to the tile origin.
func BoundRelativeToTile(b orb.Bound, tile model.Tile) model.Rectangle {
	upperLeft := PixelRelativeToTile(orb.Point{b.Min.Lon(), b.Max.Lat()}, tile)
	lowerRight := PixelRelativeToTile(orb.Point{b.Max.Lon(), b.Min.Lat()}, tile)
	return model.NewRectangle(upperLeft.X, upperLeft.Y, lowerRight.X, lowerRight.Y)
}
