package theme

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

//MaxZoomLevel 规则级别上限
const MaxZoomLevel = 127

// RuleSpec is a rule as written in a theme document. Keys and Values are
// "|" separated lists; "*" matches anything and a "~" among the values
// turns the rule into a negative rule.
type RuleSpec struct {
	Element  Element
	Closed   Closed
	Keys     string
	Values   string
	ZoomMin  int
	ZoomMax  int
	Category string
}

// openRule remembers the matchers of an ancestor as written, before
// optimization, while its children are added.
type openRule struct {
	idx     int
	element Element
	closed  Closed
	// nil for negative rules
	key   AttributeMatcher
	value AttributeMatcher
}

//Options 主题构建选项
type Options struct {
	// Categories limits rules and instructions carrying a cat attribute to
	// these categories. Nil keeps everything.
	Categories []string
	// DisableOptimizer keeps every matcher as written.
	DisableOptimizer bool
	POICacheSize     int
	WayCacheSize     int
}

// Builder assembles a RenderTheme rule by rule. It removes matcher checks
// already guaranteed by an ancestor while the tree is built.
type Builder struct {
	theme      *RenderTheme
	stack      []openRule
	categories map[string]bool
	optimize   bool
	// interned matchers, dropped by Build
	matchers  map[string]AttributeMatcher
	symbols   map[string]*Symbol
	captions  []*Caption
	skipDepth int
	levels    int
}

//NewBuilder 创建主题构建器
func NewBuilder(opts Options) *Builder {
	b := &Builder{
		theme:    newRenderTheme(opts),
		optimize: !opts.DisableOptimizer,
		matchers: make(map[string]AttributeMatcher),
		symbols:  make(map[string]*Symbol),
	}
	if opts.Categories != nil {
		b.categories = make(map[string]bool, len(opts.Categories))
		for _, c := range opts.Categories {
			b.categories[c] = true
		}
	}
	return b
}

func (b *Builder) allowed(category string) bool {
	return b.categories == nil || category == "" || b.categories[category]
}

// SetHeader applies the document level settings of the theme.
func (b *Builder) SetHeader(h Header) error {
	if h.Version > SupportedVersion {
		return fmt.Errorf("%w: %d > %d", ErrUnsupportedVersion, h.Version, SupportedVersion)
	}
	if h.BaseStrokeWidth <= 0 {
		h.BaseStrokeWidth = 1
	}
	if h.BaseTextSize <= 0 {
		h.BaseTextSize = 1
	}
	b.theme.Header = h
	return nil
}

//StartRule 开始规则
func (b *Builder) StartRule(spec RuleSpec) error {
	if spec.ZoomMin < 0 || spec.ZoomMax > MaxZoomLevel || spec.ZoomMin > spec.ZoomMax {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidZoom, spec.ZoomMin, spec.ZoomMax)
	}
	keys, values := splitList(spec.Keys), splitList(spec.Values)
	if len(keys) == 0 {
		return fmt.Errorf("%w: k", ErrMissingAttribute)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: v", ErrMissingAttribute)
	}
	if b.skipDepth > 0 {
		b.skipDepth++
		return nil
	}
	if !b.allowed(spec.Category) {
		b.skipDepth = 1
		return nil
	}

	open := openRule{idx: len(b.theme.rules), element: spec.Element, closed: spec.Closed}
	r := rule{
		zoomMin:  spec.ZoomMin,
		zoomMax:  spec.ZoomMax,
		element:  spec.Element,
		closed:   spec.Closed,
		category: spec.Category,
	}
	if negated, rest := hasNegation(values); negated {
		r.key = b.intern("n:"+strings.Join(keys, listSeparator)+":"+strings.Join(rest, listSeparator), func() AttributeMatcher {
			return NewNegativeMatcher(keys, rest)
		})
		r.value = AnyMatcher
	} else {
		open.key = b.keyMatcher(keys)
		open.value = b.valueMatcher(values)
		r.key, r.value = open.key, open.value
		if b.optimize {
			r.key = b.optimizeAttribute(r.key, func(o openRule) AttributeMatcher { return o.key })
			r.value = b.optimizeAttribute(r.value, func(o openRule) AttributeMatcher { return o.value })
		}
	}
	if b.optimize {
		r.element = b.optimizeElement(spec.Element)
		r.closed = b.optimizeClosed(spec.Closed)
	}

	b.theme.rules = append(b.theme.rules, r)
	if len(b.stack) == 0 {
		b.theme.roots = append(b.theme.roots, open.idx)
	} else {
		parent := b.stack[len(b.stack)-1].idx
		b.theme.rules[parent].children = append(b.theme.rules[parent].children, open.idx)
	}
	b.stack = append(b.stack, open)
	return nil
}

func hasNegation(values []string) (bool, []string) {
	rest := make([]string, 0, len(values))
	negated := false
	for _, v := range values {
		if v == negation {
			negated = true
			continue
		}
		rest = append(rest, v)
	}
	return negated, rest
}

func containsWildcard(list []string) bool {
	for _, v := range list {
		if v == wildcard {
			return true
		}
	}
	return false
}

func (b *Builder) intern(key string, create func() AttributeMatcher) AttributeMatcher {
	if m, ok := b.matchers[key]; ok {
		return m
	}
	m := create()
	b.matchers[key] = m
	return m
}

func (b *Builder) keyMatcher(keys []string) AttributeMatcher {
	if containsWildcard(keys) {
		return AnyMatcher
	}
	return b.intern("k:"+strings.Join(keys, listSeparator), func() AttributeMatcher {
		return NewKeyMatcher(keys)
	})
}

func (b *Builder) valueMatcher(values []string) AttributeMatcher {
	if containsWildcard(values) {
		return AnyMatcher
	}
	return b.intern("v:"+strings.Join(values, listSeparator), func() AttributeMatcher {
		return NewValueMatcher(values)
	})
}

// optimizeAttribute drops m when an open positive ancestor already
// requires a condition at least as strict.
func (b *Builder) optimizeAttribute(m AttributeMatcher, pick func(openRule) AttributeMatcher) AttributeMatcher {
	if m == AnyMatcher {
		return m
	}
	for _, o := range b.stack {
		am := pick(o)
		if am == nil || am == AnyMatcher {
			continue
		}
		if m.IsCoveredBy(am) {
			return AnyMatcher
		}
	}
	return m
}

func (b *Builder) optimizeElement(e Element) Element {
	unreachable := false
	for _, o := range b.stack {
		if e.coveredBy(o.element) {
			return ElementAny
		}
		if !o.element.coveredBy(e) {
			unreachable = true
		}
	}
	if unreachable {
		log.Warnf("unreachable rule (e=%s)", e)
	}
	return e
}

func (b *Builder) optimizeClosed(c Closed) Closed {
	unreachable := false
	for _, o := range b.stack {
		if c.coveredBy(o.closed) {
			return ClosedAny
		}
		if !o.closed.coveredBy(c) {
			unreachable = true
		}
	}
	if unreachable {
		log.Warnf("unreachable rule (closed=%s)", c)
	}
	return c
}

//EndRule 结束规则
func (b *Builder) EndRule() error {
	if b.skipDepth > 0 {
		b.skipDepth--
		return nil
	}
	if len(b.stack) == 0 {
		return fmt.Errorf("%w: unbalanced rule", ErrInvalidDocument)
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// AddInstruction attaches inst to the innermost open rule. Areas, lines
// and circles get the next free level.
func (b *Builder) AddInstruction(category string, inst Instruction) error {
	if b.skipDepth > 0 || !b.allowed(category) {
		return nil
	}
	if len(b.stack) == 0 {
		return fmt.Errorf("%w: instruction outside rule", ErrInvalidDocument)
	}
	switch i := inst.(type) {
	case *Area:
		i.Level = b.nextLevel()
	case *Line:
		i.Level = b.nextLevel()
	case *Circle:
		i.Level = b.nextLevel()
	case *Symbol:
		if i.ID != "" {
			b.symbols[i.ID] = i
		}
	case *Caption:
		if i.SymbolID != "" {
			b.captions = append(b.captions, i)
		}
	}
	idx := len(b.theme.instructions)
	b.theme.instructions = append(b.theme.instructions, inst)
	owner := b.stack[len(b.stack)-1].idx
	b.theme.rules[owner].instructions = append(b.theme.rules[owner].instructions, idx)
	return nil
}

func (b *Builder) nextLevel() int {
	l := b.levels
	b.levels++
	return l
}

// Build finishes the theme. The builder must not be used afterwards.
func (b *Builder) Build() (*RenderTheme, error) {
	if len(b.stack) != 0 || b.skipDepth != 0 {
		return nil, fmt.Errorf("%w: %d unclosed rules", ErrInvalidDocument, len(b.stack)+b.skipDepth)
	}
	for _, c := range b.captions {
		s, ok := b.symbols[c.SymbolID]
		if !ok {
			log.Warnf("caption refers to unknown symbol %q", c.SymbolID)
		}
		c.linkSymbol(s)
	}
	t := b.theme
	t.levels = b.levels
	b.matchers, b.symbols, b.captions, b.theme = nil, nil, nil, nil
	return t, nil
}
