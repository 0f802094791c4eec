package theme

import (
	"github.com/paulmach/osm"
)

// rule is a node of the rule arena. Children and instructions are indices
// into the owning theme's slices.
type rule struct {
	zoomMin  int
	zoomMax  int
	element  Element
	closed   Closed
	key      AttributeMatcher
	value    AttributeMatcher
	category string

	instructions []int
	children     []int
}

func (r *rule) inZoom(zoom int) bool {
	return r.zoomMin <= zoom && zoom <= r.zoomMax
}

func (r *rule) matchesNode(tags osm.Tags, zoom int) bool {
	return r.inZoom(zoom) && r.element.matches(ElementNode) &&
		r.key.Matches(tags) && r.value.Matches(tags)
}

func (r *rule) matchesWay(tags osm.Tags, zoom int, closed Closed) bool {
	return r.inZoom(zoom) && r.element.matches(ElementWay) && r.closed.matches(closed) &&
		r.key.Matches(tags) && r.value.Matches(tags)
}

// walkNode appends the instructions of every rule under idx that matches a
// node, depth first, parents before children.
func (t *RenderTheme) walkNode(idx int, tags osm.Tags, zoom int, out []int) []int {
	r := &t.rules[idx]
	if !r.matchesNode(tags, zoom) {
		return out
	}
	out = append(out, r.instructions...)
	for _, c := range r.children {
		out = t.walkNode(c, tags, zoom, out)
	}
	return out
}

func (t *RenderTheme) walkWay(idx int, tags osm.Tags, zoom int, closed Closed, out []int) []int {
	r := &t.rules[idx]
	if !r.matchesWay(tags, zoom, closed) {
		return out
	}
	out = append(out, r.instructions...)
	for _, c := range r.children {
		out = t.walkWay(c, tags, zoom, closed, out)
	}
	return out
}
