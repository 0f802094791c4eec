package graphics

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/atlasdatatech/maprender/model"
	"github.com/gogpu/gg"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.02
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#80ff0000")
	if err != nil {
		t.Fatal(err)
	}
	if !near(c.R, 1) || !near(c.G, 0) || !near(c.A, 128.0/255) {
		t.Errorf("got %+v", c)
	}
	c, err = ParseColor("#00ff00")
	if err != nil || !near(c.G, 1) || c.A != 1 {
		t.Errorf("got %+v, %v", c, err)
	}
	for _, bad := range []string{"", "#fff", "#zzzzzz", "red"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("ParseColor(%q) err = %v", bad, err)
		}
	}
	if FormatColor(c) != "#ff00ff00" {
		t.Errorf("FormatColor = %s", FormatColor(c))
	}
	if !SameColor(gg.White, gg.RGBA{R: 1, G: 1, B: 1, A: 1}) || SameColor(gg.White, gg.Black) {
		t.Error("SameColor")
	}
}

func TestTargetSize(t *testing.T) {
	cases := []struct {
		w, h, width, height, percent int
		ww, wh                       int
	}{
		{20, 10, 0, 0, 100, 20, 10},
		{20, 10, 40, 0, 100, 40, 20},
		{20, 10, 0, 5, 100, 10, 5},
		{20, 10, 8, 8, 100, 8, 8},
		{20, 10, 0, 0, 50, 10, 5},
	}
	for _, c := range cases {
		w, h := targetSize(c.w, c.h, c.width, c.height, c.percent)
		if w != c.ww || h != c.wh {
			t.Errorf("targetSize(%v) = %d,%d", c, w, h)
		}
	}
}

func TestPaintText(t *testing.T) {
	p := NewPaint(Fill)
	p.TextSize = 12
	short, long := p.TextWidth("ab"), p.TextWidth("abcdef")
	if short <= 0 || long <= short {
		t.Errorf("widths %v %v", short, long)
	}
	if p.TextHeight("ab") <= 0 {
		t.Error("zero height")
	}
	s := p.Clone()
	s.Style = Stroke
	s.StrokeWidth = 4
	if s.TextWidth("ab") != short+4 {
		t.Errorf("stroke width not added: %v", s.TextWidth("ab"))
	}
	big := p.Clone()
	big.TextSize = 24
	if big.TextWidth("abcdef") <= long {
		t.Error("larger text not wider")
	}
}

func TestCanvasFill(t *testing.T) {
	c := NewCanvas(32, 32)
	c.FillOutside(gg.RGBA{R: 1, A: 1}, model.Rectangle{Left: 8, Top: 8, Right: 24, Bottom: 24})
	b := c.TileBitmap()
	if px := b.At(2, 2); !near(px.R, 1) || !near(px.A, 1) {
		t.Errorf("outside pixel %+v", px)
	}
	if px := b.At(16, 16); px.A != 0 {
		t.Errorf("inside pixel %+v", px)
	}

	c.FillColor(gg.RGBA{B: 1, A: 1})
	if px := c.TileBitmap().At(16, 16); !near(px.B, 1) {
		t.Errorf("filled pixel %+v", px)
	}
}

func TestCanvasDrawPath(t *testing.T) {
	c := NewCanvas(32, 32)
	p := NewPaint(Fill)
	p.Color = gg.RGBA{G: 1, A: 1}
	outer := []model.Point{{X: 2, Y: 2}, {X: 30, Y: 2}, {X: 30, Y: 30}, {X: 2, Y: 30}, {X: 2, Y: 2}}
	hole := []model.Point{{X: 12, Y: 12}, {X: 20, Y: 12}, {X: 20, Y: 20}, {X: 12, Y: 20}, {X: 12, Y: 12}}
	c.DrawPath([][]model.Point{outer, hole}, p)
	b := c.TileBitmap()
	if px := b.At(6, 6); !near(px.G, 1) {
		t.Errorf("ring pixel %+v", px)
	}
	if px := b.At(16, 16); px.A != 0 {
		t.Errorf("hole pixel %+v", px)
	}

	transparent := NewPaint(Stroke)
	transparent.Color = gg.Transparent
	c.DrawPath([][]model.Point{outer}, transparent)
}

func TestDrawRotatedBitmap(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	c := NewCanvas(32, 32)
	c.DrawBitmapRotated(NewBitmap(img), 16, 16, math.Pi/4)
	if px := c.TileBitmap().At(16, 16); !near(px.R, 1) {
		t.Errorf("center pixel %+v", px)
	}
	if px := c.TileBitmap().At(1, 1); px.A != 0 {
		t.Errorf("corner pixel %+v", px)
	}
}

func TestTileBitmapPNG(t *testing.T) {
	c := NewCanvas(16, 16)
	c.Clear(gg.RGBA{R: 1, G: 1, A: 1})
	data, err := c.TileBitmap().Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeTileBitmap(data)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 16 || b.Height() != 16 {
		t.Fatalf("size %dx%d", b.Width(), b.Height())
	}
	if px := b.At(3, 3); !near(px.R, 1) || !near(px.G, 1) || !near(px.B, 0) {
		t.Errorf("pixel %+v", px)
	}
}

func TestResourceCache(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))
	f, err := os.Create(filepath.Join(dir, "icon.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rc := NewResourceCache(dir)
	b, err := rc.Bitmap("file:icon.png", 0, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 5 || b.Height() != 10 {
		t.Errorf("scaled to %dx%d", b.Width(), b.Height())
	}
	if again, _ := rc.Bitmap("file:icon.png", 0, 10, 100); again != b || rc.Len() != 1 {
		t.Error("bitmap not cached")
	}
	if _, err := rc.Bitmap("jar:/icons/x.png", 0, 0, 100); !errors.Is(err, ErrUnsupportedResource) {
		t.Errorf("jar resource err = %v", err)
	}
	if _, err := rc.Bitmap("missing.png", 0, 0, 100); err == nil {
		t.Error("missing file loaded")
	}
}

const shopSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 16 16">
<rect x="0" y="0" width="16" height="16" fill="#ff0000"/>
</svg>`

func TestResourceCacheSVG(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shop.svg"), []byte(shopSVG), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.svg"), []byte("<svg"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc := NewResourceCache(dir)
	tests := []struct {
		width, height, percent int
		wantW, wantH           int
	}{
		{0, 0, 100, 16, 16},
		{32, 0, 100, 32, 32},
		{0, 0, 50, 8, 8},
		{20, 10, 100, 20, 10},
	}
	for _, tt := range tests {
		b, err := rc.Bitmap("file:shop.svg", tt.width, tt.height, tt.percent)
		if err != nil {
			t.Fatal(err)
		}
		if b.Width() != tt.wantW || b.Height() != tt.wantH {
			t.Errorf("%d/%d/%d%% rendered %dx%d, want %dx%d", tt.width, tt.height, tt.percent, b.Width(), b.Height(), tt.wantW, tt.wantH)
		}
		r, g, bl, a := b.Image().At(b.Width()/2, b.Height()/2).RGBA()
		if r>>8 != 255 || g != 0 || bl != 0 || a>>8 != 255 {
			t.Errorf("center = %d %d %d %d, want red", r>>8, g>>8, bl>>8, a>>8)
		}
	}
	if _, err := rc.Bitmap("broken.svg", 0, 0, 100); err == nil {
		t.Error("malformed svg loaded")
	}
}
