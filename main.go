package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atlasdatatech/maprender/mapdata"
	"github.com/atlasdatatech/maprender/mercator"
	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/renderer"
	"github.com/atlasdatatech/maprender/theme"
	"github.com/atlasdatatech/maprender/tilecache"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	cfg := defaultConfig()
	if err := cfg.fromEnv(getenv); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := cfg.parseFlags(args, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if err := setupLogging(cfg.LogLevel, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	start := time.Now()
	if err := render(ctx, cfg); err != nil {
		log.Error(err)
		return 1
	}
	log.Infof("done in %s", time.Since(start).Round(time.Millisecond))
	return 0
}

//openStores 按扩展名打开数据文件
func openStores(paths []string, pool *mapdata.TagPool) (mapdata.MapDataStore, error) {
	stores := make([]mapdata.MapDataStore, 0, len(paths))
	closeAll := func() {
		for _, s := range stores {
			s.Close()
		}
	}
	for _, p := range paths {
		var (
			s   mapdata.MapDataStore
			err error
		)
		switch strings.ToLower(filepath.Ext(p)) {
		case ".geojson", ".json":
			s, err = mapdata.OpenGeoJSON(p, pool)
		case ".csv":
			s, err = mapdata.OpenCSV(p, pool)
		default:
			err = fmt.Errorf("%s: unsupported data format", p)
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		stores = append(stores, s)
	}
	if len(stores) == 1 {
		return stores[0], nil
	}
	return mapdata.NewMultiStore(stores...), nil
}

func render(ctx context.Context, cfg Config) (err error) {
	store, err := openStores(cfg.Data, mapdata.NewTagPool())
	if err != nil {
		return err
	}
	defer store.Close()

	bound := cfg.Bound
	if !cfg.HasBound {
		bound = store.BoundingBox()
	}

	future := renderer.NewThemeFuture(cfg.Theme, func() (*theme.RenderTheme, error) {
		return theme.LoadFile(cfg.Theme, theme.Options{Categories: cfg.Categories})
	})
	defer future.Close()

	display := renderer.NewDisplayModel()
	display.TileSize = cfg.TileSize
	display.UserScaleFactor = cfg.Scale
	newJob := func(t model.Tile) *renderer.RendererJob {
		return renderer.NewRendererJob(t, store, future, display, cfg.TextScale, cfg.Transparent, false)
	}

	out, err := tilecache.OpenMBTiles(cfg.Output, newJob(model.NewTile(0, 0, 0, cfg.TileSize)).Style())
	if err != nil {
		return err
	}
	if err := writeMetadata(out, cfg, bound); err != nil {
		out.Destroy()
		return err
	}

	capacity := cfg.CacheTiles
	if capacity <= 0 {
		capacity = tilecache.CapacityForMemory(cfg.TileSize, cfg.CacheFraction)
	}
	// tiles evicted from memory stay in the MBTiles file, so their label
	// data is only dropped once their zoom level is finished
	cache := tilecache.NewTwoLevel(tilecache.NewMemory(capacity, nil), out)
	defer func() {
		err = errors.Join(err, cache.Destroy())
	}()

	r := renderer.NewDatabaseRenderer(cache, nil)
	workers := renderer.NewMapWorkerPool(r, cache, cfg.Workers)
	workers.Start()
	defer workers.Close()
	log.Infof("rendering %s zoom %d-%d with %d workers into %s", boundString(bound), cfg.MinZoom, cfg.MaxZoom, workers.Workers(), cfg.Output)

	batch := cache.CapacityFirstLevel() / 2
	if batch < 1 {
		batch = 1
	}
	for z := cfg.MinZoom; z <= cfg.MaxZoom; z++ {
		tiles := mercator.Tiles(bound, z, cfg.TileSize)
		sortHilbert(tiles)
		for i := 0; i < len(tiles); i += batch {
			end := i + batch
			if end > len(tiles) {
				end = len(tiles)
			}
			if err := submit(ctx, workers, cache, tiles[i:end], newJob); err != nil {
				return err
			}
			workers.Wait()
		}
		for _, t := range tiles {
			r.RemoveTileData(t)
		}
		log.Infof("zoom %d: %d tiles", z, len(tiles))
	}
	if n := workers.Failed(); n > 0 {
		return fmt.Errorf("%d tiles failed to render", n)
	}
	log.Infof("%d tiles rendered", workers.Rendered())
	return nil
}

func submit(ctx context.Context, workers *renderer.MapWorkerPool, cache tilecache.TileCache, tiles []model.Tile, newJob func(model.Tile) *renderer.RendererJob) error {
	keys := make([]tilecache.Key, len(tiles))
	jobs := make([]*renderer.RendererJob, len(tiles))
	for i, t := range tiles {
		jobs[i] = newJob(t)
		keys[i] = jobs[i].Key()
	}
	cache.ReserveWorkingSet(keys)
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := workers.Submit(job); err != nil {
			return err
		}
	}
	return nil
}

// sortHilbert orders tiles along the Hilbert curve so consecutive jobs
// are neighbours.
func sortHilbert(tiles []model.Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		return mercator.HilbertIndex(tiles[i].X, tiles[i].Y, tiles[i].Zoom()) < mercator.HilbertIndex(tiles[j].X, tiles[j].Y, tiles[j].Zoom())
	})
}

func boundString(b orb.Bound) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return strings.Join([]string{f(b.Min.Lon()), f(b.Min.Lat()), f(b.Max.Lon()), f(b.Max.Lat())}, ",")
}

func writeMetadata(out *tilecache.MBTiles, cfg Config, bound orb.Bound) error {
	center := bound.Center()
	meta := [][2]string{
		{"name", cfg.Name},
		{"format", "png"},
		{"type", "baselayer"},
		{"bounds", boundString(bound)},
		{"center", fmt.Sprintf("%s,%s,%d", strconv.FormatFloat(center.Lon(), 'f', 6, 64), strconv.FormatFloat(center.Lat(), 'f', 6, 64), cfg.MinZoom)},
		{"minzoom", strconv.Itoa(cfg.MinZoom)},
		{"maxzoom", strconv.Itoa(cfg.MaxZoom)},
		{"tilesize", strconv.Itoa(cfg.TileSize)},
	}
	for _, m := range meta {
		if err := out.SetMetadata(m[0], m[1]); err != nil {
			return err
		}
	}
	return nil
}
