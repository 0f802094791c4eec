package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/osm"
)

const (
	listSeparator = "|"
	wildcard      = "*"
	negation      = "~"
)

//Element 要素类型
type Element int

const (
	ElementAny Element = iota
	ElementNode
	ElementWay
)

//ParseElement 解析 e 属性
func ParseElement(s string) (Element, error) {
	switch s {
	case "any":
		return ElementAny, nil
	case "node":
		return ElementNode, nil
	case "way":
		return ElementWay, nil
	}
	return ElementAny, fmt.Errorf("%w: e=%q", ErrUnknownValue, s)
}

func (e Element) matches(kind Element) bool {
	return e == ElementAny || e == kind
}

// coveredBy reports whether e accepts everything ancestor accepts.
func (e Element) coveredBy(ancestor Element) bool {
	return e == ElementAny || e == ancestor
}

func (e Element) String() string {
	switch e {
	case ElementNode:
		return "node"
	case ElementWay:
		return "way"
	}
	return "any"
}

//Closed 闭合条件
type Closed int

const (
	ClosedAny Closed = iota
	ClosedYes
	ClosedNo
)

//ParseClosed 解析 closed 属性
func ParseClosed(s string) (Closed, error) {
	switch s {
	case "", "any":
		return ClosedAny, nil
	case "yes":
		return ClosedYes, nil
	case "no":
		return ClosedNo, nil
	}
	return ClosedAny, fmt.Errorf("%w: closed=%q", ErrUnknownValue, s)
}

func (c Closed) matches(state Closed) bool {
	return c == ClosedAny || c == state
}

func (c Closed) coveredBy(ancestor Closed) bool {
	return c == ClosedAny || c == ancestor
}

func (c Closed) String() string {
	switch c {
	case ClosedYes:
		return "yes"
	case ClosedNo:
		return "no"
	}
	return "any"
}

// AttributeMatcher tests a tag list.
type AttributeMatcher interface {
	Matches(tags osm.Tags) bool
	// IsCoveredBy reports whether this matcher accepts every tag list
	// that other accepts.
	IsCoveredBy(other AttributeMatcher) bool
}

type anyMatcher struct{}

// AnyMatcher accepts every tag list.
var AnyMatcher AttributeMatcher = anyMatcher{}

func (anyMatcher) Matches(osm.Tags) bool { return true }

func (anyMatcher) IsCoveredBy(AttributeMatcher) bool { return true }

func (anyMatcher) String() string { return wildcard }

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

// subsetOf reports whether every element of s is in other.
func (s stringSet) subsetOf(other stringSet) bool {
	if len(s) > len(other) {
		return false
	}
	for v := range s {
		if !other.has(v) {
			return false
		}
	}
	return true
}

func (s stringSet) String() string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return strings.Join(out, listSeparator)
}

// KeyMatcher accepts tag lists holding at least one of its keys.
type KeyMatcher struct {
	keys stringSet
}

//NewKeyMatcher 创建键匹配
func NewKeyMatcher(keys []string) *KeyMatcher {
	return &KeyMatcher{keys: newStringSet(keys)}
}

//Matches 匹配
func (m *KeyMatcher) Matches(tags osm.Tags) bool {
	for _, t := range tags {
		if m.keys.has(t.Key) {
			return true
		}
	}
	return false
}

// IsCoveredBy holds when other's keys are a subset of m's: a tag list
// carrying one of other's keys then carries one of m's.
func (m *KeyMatcher) IsCoveredBy(other AttributeMatcher) bool {
	o, ok := other.(*KeyMatcher)
	return ok && o.keys.subsetOf(m.keys)
}

func (m *KeyMatcher) String() string { return "k=" + m.keys.String() }

// ValueMatcher accepts tag lists holding at least one of its values under
// any key.
type ValueMatcher struct {
	values stringSet
}

//NewValueMatcher 创建值匹配
func NewValueMatcher(values []string) *ValueMatcher {
	return &ValueMatcher{values: newStringSet(values)}
}

//Matches 匹配
func (m *ValueMatcher) Matches(tags osm.Tags) bool {
	for _, t := range tags {
		if m.values.has(t.Value) {
			return true
		}
	}
	return false
}

//IsCoveredBy 同 KeyMatcher
func (m *ValueMatcher) IsCoveredBy(other AttributeMatcher) bool {
	o, ok := other.(*ValueMatcher)
	return ok && o.values.subsetOf(m.values)
}

func (m *ValueMatcher) String() string { return "v=" + m.values.String() }

// NegativeMatcher accepts tag lists that carry none of its keys, or that
// carry one of its values under any key.
type NegativeMatcher struct {
	keys   stringSet
	values stringSet
	anyKey bool
}

//NewNegativeMatcher 创建否定匹配
func NewNegativeMatcher(keys, values []string) *NegativeMatcher {
	m := &NegativeMatcher{keys: newStringSet(keys), values: newStringSet(values)}
	m.anyKey = m.keys.has(wildcard)
	return m
}

//Matches 匹配
func (m *NegativeMatcher) Matches(tags osm.Tags) bool {
	hasKey := false
	for _, t := range tags {
		if m.values.has(t.Value) {
			return true
		}
		if m.anyKey || m.keys.has(t.Key) {
			hasKey = true
		}
	}
	return !hasKey
}

// IsCoveredBy is only true for the matcher itself.
func (m *NegativeMatcher) IsCoveredBy(other AttributeMatcher) bool {
	return other == AttributeMatcher(m)
}

func (m *NegativeMatcher) String() string {
	return "k=" + m.keys.String() + " v~" + m.values.String()
}

func splitList(s string) []string {
	parts := strings.Split(s, listSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
