package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atlasdatatech/maprender/model"
	"github.com/atlasdatatech/maprender/renderer"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

const (
	maxZoomLevel = 22
	// maxWorkers bounds MAX_THREADS and -workers
	maxWorkers = 32767
)

//Config 渲染配置，CacheTiles为0时按可用内存计算缓存容量
type Config struct {
	Theme         string
	Categories    []string
	Data          []string
	Output        string
	Name          string
	Bound         orb.Bound
	HasBound      bool
	MinZoom       int
	MaxZoom       int
	TileSize      int
	Scale         float64
	TextScale     float64
	Transparent   bool
	Workers       int
	CacheTiles    int
	CacheFraction float64
	LogLevel      string
}

func defaultConfig() Config {
	return Config{
		Output:        "tiles.mbtiles",
		MinZoom:       0,
		MaxZoom:       14,
		TileSize:      model.DefaultTileSize,
		Scale:         1,
		TextScale:     1,
		Workers:       renderer.DefaultWorkers,
		CacheFraction: 0.1,
		LogLevel:      "info",
	}
}

// clampWorkers keeps n within 1..maxWorkers, rounded down to a power of 2.
func clampWorkers(n int) int {
	if n < 1 {
		n = 1
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	return 1 << uint(math.Log2(float64(n)))
}

func atoiRequire(s, what string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s must be a number (got %q)", what, s)
	}
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number (got %q)", what, s)
	}
	return int(i64), nil
}

// fromEnv applies MAX_THREADS and LOG_LEVEL.
func (c *Config) fromEnv(getenv func(string) string) error {
	if v := getenv("MAX_THREADS"); v != "" {
		n, err := atoiRequire(v, "MAX_THREADS")
		if err != nil {
			return err
		}
		c.Workers = clampWorkers(n)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) parseFlags(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("maprender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: maprender -theme <rendertheme.xml> [options] <data.geojson|data.csv>...")
		fs.PrintDefaults()
	}

	fs.StringVar(&c.Theme, "theme", c.Theme, "render theme XML file")
	categories := fs.String("categories", strings.Join(c.Categories, ","), "comma separated theme categories to render, all when empty")
	fs.StringVar(&c.Output, "o", c.Output, "output MBTiles file")
	fs.StringVar(&c.Name, "name", c.Name, "tileset name, defaults to the output file name")
	bbox := fs.String("bbox", "", "minlon,minlat,maxlon,maxlat to render, defaults to the data bounds")
	fs.IntVar(&c.MinZoom, "minzoom", c.MinZoom, "lowest zoom level")
	fs.IntVar(&c.MaxZoom, "maxzoom", c.MaxZoom, "highest zoom level")
	fs.IntVar(&c.TileSize, "tilesize", c.TileSize, "tile size in pixels")
	fs.Float64Var(&c.Scale, "scale", c.Scale, "user scale factor for strokes and text")
	fs.Float64Var(&c.TextScale, "textscale", c.TextScale, "additional text scale factor")
	fs.BoolVar(&c.Transparent, "transparent", c.Transparent, "render tiles with a transparent background")
	workers := fs.Int("workers", c.Workers, "render workers (MAX_THREADS)")
	fs.IntVar(&c.CacheTiles, "cache", c.CacheTiles, "in-memory tile cache capacity, derived from free memory when 0")
	fs.Float64Var(&c.CacheFraction, "cachefraction", c.CacheFraction, "share of free memory for the tile cache")
	fs.StringVar(&c.LogLevel, "loglevel", c.LogLevel, "log level (LOG_LEVEL)")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.Data = fs.Args()
	c.Workers = clampWorkers(*workers)
	if *verbose {
		c.LogLevel = "debug"
	}
	c.Categories = nil
	for _, cat := range strings.Split(*categories, ",") {
		if cat = strings.TrimSpace(cat); cat != "" {
			c.Categories = append(c.Categories, cat)
		}
	}
	if *bbox != "" {
		b, err := parseBound(*bbox)
		if err != nil {
			return err
		}
		c.Bound, c.HasBound = b, true
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(c.Output), filepath.Ext(c.Output))
	}
	return c.validate()
}

func (c *Config) validate() error {
	switch {
	case c.Theme == "":
		return errors.New("a render theme is required (-theme)")
	case len(c.Data) == 0:
		return errors.New("no data files given")
	case c.MinZoom < 0 || c.MaxZoom > maxZoomLevel:
		return fmt.Errorf("zoom levels must lie within 0..%d", maxZoomLevel)
	case c.MinZoom > c.MaxZoom:
		return fmt.Errorf("minzoom %d above maxzoom %d", c.MinZoom, c.MaxZoom)
	case c.TileSize <= 0:
		return fmt.Errorf("invalid tile size %d", c.TileSize)
	case c.Scale <= 0 || c.TextScale <= 0:
		return errors.New("scale factors must be positive")
	}
	return nil
}

// parseBound reads minlon,minlat,maxlon,maxlat.
func parseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox %q: want minlon,minlat,maxlon,maxlat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("bbox %q: min above max", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func setupLogging(level string, out io.Writer) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
