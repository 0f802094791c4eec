package theme

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atlasdatatech/maprender/graphics"
	"github.com/atlasdatatech/maprender/label"
	"github.com/gogpu/gg"
	log "github.com/sirupsen/logrus"
)

//LoadFile 读取主题文件，图标相对主题文件所在目录
func LoadFile(path string, opts Options) (*RenderTheme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Load(f, graphics.NewResourceCache(filepath.Dir(path)), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("theme %s loaded: %d rules, %d levels", path, len(t.rules), t.levels)
	return t, nil
}

// Load parses a rendertheme document. Any malformed element aborts the
// load; icons that cannot be loaded only drop the icon.
func Load(r io.Reader, res *graphics.ResourceCache, opts Options) (*RenderTheme, error) {
	l := &loader{
		dec: xml.NewDecoder(r),
		b:   NewBuilder(opts),
		res: res,
	}
	if err := l.run(); err != nil {
		line, col := l.dec.InputPos()
		return nil, fmt.Errorf("line %d col %d: %w", line, col, err)
	}
	return l.b.Build()
}

type loader struct {
	dec    *xml.Decoder
	b      *Builder
	res    *graphics.ResourceCache
	stack  []string
	header bool
	closed bool
}

func (l *loader) run() error {
	for {
		tok, err := l.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := l.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			if len(l.stack) == 0 {
				return fmt.Errorf("%w: unexpected </%s>", ErrInvalidDocument, t.Name.Local)
			}
			name := l.stack[len(l.stack)-1]
			l.stack = l.stack[:len(l.stack)-1]
			switch name {
			case "rule":
				if err := l.b.EndRule(); err != nil {
					return err
				}
			case "rendertheme":
				l.closed = true
			}
		}
	}
	if !l.header {
		return fmt.Errorf("%w: no rendertheme element", ErrInvalidDocument)
	}
	return nil
}

func (l *loader) start(se xml.StartElement) error {
	name := se.Name.Local
	if l.closed {
		return fmt.Errorf("%w: <%s> after document end", ErrInvalidDocument, name)
	}
	if name == "rendertheme" {
		if l.header {
			return fmt.Errorf("%w: nested rendertheme", ErrInvalidDocument)
		}
		l.header = true
		l.stack = append(l.stack, name)
		return l.rendertheme(newAttrs(se))
	}
	if !l.header {
		return fmt.Errorf("%w: <%s> outside rendertheme", ErrInvalidDocument, name)
	}
	if name == "stylemenu" {
		return l.dec.Skip()
	}
	l.stack = append(l.stack, name)
	a := newAttrs(se)
	if name == "rule" {
		return l.rule(a)
	}
	cat := a.str("cat", "")
	var inst Instruction
	switch name {
	case "area":
		inst = l.area(a)
	case "line":
		inst = l.line(a)
	case "lineSymbol":
		inst = l.lineSymbol(a)
	case "circle":
		inst = l.circle(a)
	case "symbol":
		inst = l.symbol(a)
	case "caption":
		inst = l.caption(a)
	case "pathText":
		inst = l.pathText(a)
	default:
		return fmt.Errorf("%w: <%s>", ErrUnknownElement, name)
	}
	if err := a.done(); err != nil {
		return err
	}
	return l.b.AddInstruction(cat, inst)
}

func (l *loader) rendertheme(a *attrs) error {
	h := Header{
		Version:         a.int("version", 0),
		BaseStrokeWidth: a.float("base-stroke-width", 1),
		BaseTextSize:    a.float("base-text-size", 1),
	}
	if _, ok := a.m["version"]; !ok {
		a.required("version")
	}
	h.MapBackground, _ = a.color("map-background", gg.White)
	h.MapBackgroundOutside, h.HasBackgroundOutside = a.color("map-background-outside", gg.Transparent)
	if err := a.done(); err != nil {
		return err
	}
	return l.b.SetHeader(h)
}

func (l *loader) rule(a *attrs) error {
	spec := RuleSpec{
		Keys:     a.required("k"),
		Values:   a.required("v"),
		ZoomMin:  a.int("zoom-min", 0),
		ZoomMax:  a.int("zoom-max", MaxZoomLevel),
		Category: a.str("cat", ""),
	}
	ev := a.required("e")
	if a.err == nil {
		e, err := ParseElement(ev)
		if err != nil {
			a.fail(err)
		}
		spec.Element = e
	}
	c, err := ParseClosed(a.str("closed", ""))
	if err != nil {
		a.fail(err)
	}
	spec.Closed = c
	if err := a.done(); err != nil {
		return err
	}
	return l.b.StartRule(spec)
}

// icon loads the src of a symbol-like element. Failures are not fatal.
func (l *loader) icon(a *attrs, src string) *graphics.Bitmap {
	w := a.int("symbol-width", 0)
	h := a.int("symbol-height", 0)
	p := a.int("symbol-percent", 100)
	a.ignore("symbol-scaling")
	if src == "" || l.res == nil {
		return nil
	}
	b, err := l.res.Bitmap(src, w, h, p)
	if err != nil {
		if errors.Is(err, graphics.ErrUnsupportedResource) {
			log.Warnf("%s: %v", a.element, err)
		} else {
			log.Warnf("%s: cannot load %s: %v", a.element, src, err)
		}
		return nil
	}
	return b
}

func (l *loader) shader(a *attrs) {
	if src := a.str("src", ""); src != "" {
		log.Warnf("%s: bitmap shader %s is not supported, drawing plain colors", a.element, src)
	}
	a.ignore("symbol-width", "symbol-height", "symbol-percent", "symbol-scaling")
}

func (l *loader) area(a *attrs) Instruction {
	l.shader(a)
	ar := &Area{Scale: a.scale()}
	ar.Fill = graphics.NewPaint(graphics.Fill)
	ar.Fill.Color, _ = a.color("fill", gg.Transparent)
	ar.StrokeWidth = a.nonNegative("stroke-width", 0)
	ar.Stroke = graphics.NewPaint(graphics.Stroke)
	ar.Stroke.Color, _ = a.color("stroke", gg.Transparent)
	ar.Stroke.StrokeWidth = ar.StrokeWidth
	return ar
}

func (l *loader) line(a *attrs) Instruction {
	l.shader(a)
	ln := &Line{
		DY:          a.float("dy", 0),
		Scale:       a.scale(),
		StrokeWidth: a.nonNegative("stroke-width", 1),
	}
	p := graphics.NewPaint(graphics.Stroke)
	p.Color, _ = a.color("stroke", gg.Black)
	p.StrokeWidth = ln.StrokeWidth
	p.Dash = a.dashes("stroke-dasharray")
	cv := a.str("stroke-linecap", "")
	var err error
	if p.Cap, err = graphics.ParseCap(cv); err != nil {
		a.invalid("stroke-linecap", cv, err)
	}
	jv := a.str("stroke-linejoin", "")
	if p.Join, err = graphics.ParseJoin(jv); err != nil {
		a.invalid("stroke-linejoin", jv, err)
	}
	ln.Stroke = p
	return ln
}

func (l *loader) lineSymbol(a *attrs) Instruction {
	s := &LineSymbol{
		Display:     a.display(),
		Priority:    a.int("priority", 0),
		AlignCenter: a.bool("align-center", false),
		Repeat:      a.bool("repeat", false),
		RepeatGap:   a.nonNegative("repeat-gap", 200),
		RepeatStart: a.nonNegative("repeat-start", 30),
		Rotate:      a.bool("rotate", true),
		DY:          a.float("dy", 0),
		Scale:       a.scale(),
	}
	s.Bitmap = l.icon(a, a.required("src"))
	return s
}

func (l *loader) circle(a *attrs) Instruction {
	c := &Circle{
		ScaleRadius: a.bool("scale-radius", false),
		StrokeWidth: a.nonNegative("stroke-width", 0),
	}
	if _, ok := a.m["radius"]; !ok {
		a.required("radius")
	}
	c.Radius = a.nonNegative("radius", 0)
	c.Fill = graphics.NewPaint(graphics.Fill)
	c.Fill.Color, _ = a.color("fill", gg.Transparent)
	c.Stroke = graphics.NewPaint(graphics.Stroke)
	c.Stroke.Color, _ = a.color("stroke", gg.Transparent)
	c.Stroke.StrokeWidth = c.StrokeWidth
	return c
}

func (l *loader) symbol(a *attrs) Instruction {
	s := &Symbol{
		ID:       a.str("id", ""),
		Display:  a.display(),
		Priority: a.int("priority", 0),
	}
	s.Bitmap = l.icon(a, a.required("src"))
	return s
}

func (l *loader) caption(a *attrs) Instruction {
	c := &Caption{
		TextKey:  TextKey(a.required("k")),
		Display:  a.display(),
		Priority: a.int("priority", 0),
		Gap:      a.nonNegative("gap", defaultGap),
		DX:       a.float("dx", 0),
		DY:       a.float("dy", 0),
		SymbolID: a.str("symbol-id", ""),
	}
	pv := a.str("position", "")
	pos, err := label.ParsePosition(pv)
	if err != nil {
		a.invalid("position", pv, err)
	}
	c.Position = pos
	c.Fill, c.Stroke = a.textPaints()
	return c
}

func (l *loader) pathText(a *attrs) Instruction {
	t := &PathText{
		TextKey:  TextKey(a.required("k")),
		Display:  a.display(),
		Priority: a.int("priority", 0),
		DY:       a.float("dy", 0),
		Scale:    a.scale(),
	}
	a.ignore("repeat", "repeat-gap", "repeat-start", "rotate")
	t.Fill, t.Stroke = a.textPaints()
	return t
}
