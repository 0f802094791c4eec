package graphics

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/svg"
	xdraw "golang.org/x/image/draw"
)

//ErrUnsupportedResource 不支持的资源类型
var ErrUnsupportedResource = errors.New("graphics: unsupported resource")

//Bitmap 图标位图
type Bitmap struct {
	img image.Image
	buf *gg.ImageBuf
}

//NewBitmap 由图像创建位图
func NewBitmap(img image.Image) *Bitmap {
	return &Bitmap{img: img, buf: gg.ImageBufFromImage(img)}
}

// LoadBitmap reads an image file and scales it. A zero width or height is
// derived from the other to keep the aspect ratio; both zero applies
// percent (100 keeps the native size).
func LoadBitmap(path string, width, height, percent int) (*Bitmap, error) {
	buf, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load bitmap %s: %w", path, err)
	}
	w, h := buf.Bounds()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("load bitmap %s: empty image", path)
	}
	tw, th := targetSize(w, h, width, height, percent)
	if tw == w && th == h {
		return &Bitmap{img: buf.ToStdImage(), buf: buf}, nil
	}
	src := buf.ToStdImage()
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return NewBitmap(dst), nil
}

// LoadSVG renders an SVG icon. Its native size is the document's width and
// height, scaled as in LoadBitmap.
func LoadSVG(path string, width, height, percent int) (*Bitmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load svg %s: %w", path, err)
	}
	doc, err := svg.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load svg %s: %w", path, err)
	}
	w, h := int(math.Ceil(doc.Width)), int(math.Ceil(doc.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("load svg %s: empty image", path)
	}
	tw, th := targetSize(w, h, width, height, percent)
	return NewBitmap(doc.Render(tw, th)), nil
}

func targetSize(w, h, width, height, percent int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, int(math.Round(float64(h) * float64(width) / float64(w)))
	case height > 0:
		return int(math.Round(float64(w) * float64(height) / float64(h))), height
	case percent > 0 && percent != 100:
		f := float64(percent) / 100
		return int(math.Max(1, math.Round(float64(w)*f))), int(math.Max(1, math.Round(float64(h)*f)))
	}
	return w, h
}

//Width 宽
func (b *Bitmap) Width() int {
	return b.img.Bounds().Dx()
}

//Height 高
func (b *Bitmap) Height() int {
	return b.img.Bounds().Dy()
}

//Image 图像
func (b *Bitmap) Image() image.Image {
	return b.img
}

type resourceKey struct {
	path                   string
	width, height, percent int
}

// ResourceCache loads theme icons relative to the theme directory and
// keeps them for the lifetime of the theme.
type ResourceCache struct {
	base string
	mu   sync.Mutex
	m    map[resourceKey]*Bitmap
}

//NewResourceCache 创建资源缓存
func NewResourceCache(base string) *ResourceCache {
	return &ResourceCache{base: base, m: make(map[resourceKey]*Bitmap)}
}

// Resolve maps a theme resource reference to a file path. "file:" and
// plain references are relative to the theme directory unless absolute.
func (rc *ResourceCache) Resolve(src string) (string, error) {
	switch {
	case strings.HasPrefix(src, "file:"):
		src = strings.TrimPrefix(src, "file:")
	case strings.HasPrefix(src, "jar:"), strings.HasPrefix(src, "assets:"):
		return "", fmt.Errorf("%w: %s", ErrUnsupportedResource, src)
	}
	if filepath.IsAbs(src) {
		return src, nil
	}
	return filepath.Join(rc.base, filepath.FromSlash(strings.TrimPrefix(src, "/"))), nil
}

//Bitmap 加载并缓存图标
func (rc *ResourceCache) Bitmap(src string, width, height, percent int) (*Bitmap, error) {
	path, err := rc.Resolve(src)
	if err != nil {
		return nil, err
	}
	k := resourceKey{path, width, height, percent}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if b, ok := rc.m[k]; ok {
		return b, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	load := LoadBitmap
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		load = LoadSVG
	}
	b, err := load(path, width, height, percent)
	if err != nil {
		return nil, err
	}
	rc.m[k] = b
	return b, nil
}

//Len 已加载数量
func (rc *ResourceCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.m)
}

// TileBitmap is a rendered tile.
type TileBitmap struct {
	buf         *gg.ImageBuf
	Timestamp   int64
	Transparent bool
}

//NewTileBitmap 由图像创建瓦片
func NewTileBitmap(img image.Image) *TileBitmap {
	return &TileBitmap{buf: gg.ImageBufFromImage(img)}
}

//Width 宽
func (t *TileBitmap) Width() int {
	return t.buf.Width()
}

//Height 高
func (t *TileBitmap) Height() int {
	return t.buf.Height()
}

//Image 标准图像
func (t *TileBitmap) Image() image.Image {
	return t.buf.ToStdImage()
}

//At 像素颜色
func (t *TileBitmap) At(x, y int) gg.RGBA {
	r, g, b, a := t.buf.GetRGBA(x, y)
	return gg.RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: float64(a) / 255}
}

//EncodePNG 输出PNG
func (t *TileBitmap) EncodePNG(w io.Writer) error {
	return t.buf.EncodePNG(w)
}

//Bytes PNG字节
func (t *TileBitmap) Bytes() ([]byte, error) {
	return t.buf.EncodeToBytes()
}

//DecodeTileBitmap 解码PNG瓦片
func DecodeTileBitmap(data []byte) (*TileBitmap, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewTileBitmap(img), nil
}
