package graphics

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

//FontFamily 字体族
type FontFamily int

const (
	FamilyDefault FontFamily = iota
	FamilySansSerif
	FamilySerif
	FamilyMonospace
)

//FontStyle 字形
type FontStyle int

const (
	StyleNormal FontStyle = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
)

//ParseFontFamily 解析字体族
func ParseFontFamily(s string) (FontFamily, error) {
	switch s {
	case "", "default":
		return FamilyDefault, nil
	case "sans_serif":
		return FamilySansSerif, nil
	case "serif":
		return FamilySerif, nil
	case "monospace":
		return FamilyMonospace, nil
	}
	return FamilyDefault, fmt.Errorf("unknown font family %q", s)
}

//ParseFontStyle 解析字形
func ParseFontStyle(s string) (FontStyle, error) {
	switch s {
	case "", "normal":
		return StyleNormal, nil
	case "bold":
		return StyleBold, nil
	case "italic":
		return StyleItalic, nil
	case "bold_italic":
		return StyleBoldItalic, nil
	}
	return StyleNormal, fmt.Errorf("unknown font style %q", s)
}

type faceKey struct {
	family FontFamily
	style  FontStyle
	size   float64
}

var (
	sourceMu sync.Mutex
	sources  = map[[2]int]*text.FontSource{}
	faces    sync.Map // faceKey -> text.Face
)

// The Go fonts have no serif face; serif falls back to the proportional set.
func fontData(family FontFamily, style FontStyle) []byte {
	if family == FamilyMonospace {
		switch style {
		case StyleBold:
			return gomonobold.TTF
		case StyleItalic:
			return gomonoitalic.TTF
		case StyleBoldItalic:
			return gomonobolditalic.TTF
		}
		return gomono.TTF
	}
	switch style {
	case StyleBold:
		return gobold.TTF
	case StyleItalic:
		return goitalic.TTF
	case StyleBoldItalic:
		return gobolditalic.TTF
	}
	return goregular.TTF
}

func fontSource(family FontFamily, style FontStyle) (*text.FontSource, error) {
	if family != FamilyMonospace {
		family = FamilyDefault
	}
	k := [2]int{int(family), int(style)}
	sourceMu.Lock()
	defer sourceMu.Unlock()
	if s, ok := sources[k]; ok {
		return s, nil
	}
	s, err := text.NewFontSource(fontData(family, style))
	if err != nil {
		return nil, err
	}
	sources[k] = s
	return s, nil
}

// Face returns a shared font face. Faces are cached for the lifetime of the
// process, one per family, style and size.
func Face(family FontFamily, style FontStyle, size float64) (text.Face, error) {
	k := faceKey{family, style, size}
	if f, ok := faces.Load(k); ok {
		return f.(text.Face), nil
	}
	src, err := fontSource(family, style)
	if err != nil {
		return nil, err
	}
	f, _ := faces.LoadOrStore(k, src.Face(size))
	return f.(text.Face), nil
}
