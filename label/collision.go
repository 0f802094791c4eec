package label

import "sort"

// SortByPriority orders labels from most to least important, keeping the
// input order among equal priorities.
func SortByPriority(labels []MapElementContainer) {
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Priority() < labels[j].Priority()
	})
}

// CollisionFreeOrdered returns the labels that survive a greedy pass in
// priority order: each label is kept unless it clashes with one kept
// before it. Labels that are never displayed are dropped. The input is not
// modified.
func CollisionFreeOrdered(input []MapElementContainer) []MapElementContainer {
	sorted := make([]MapElementContainer, len(input))
	copy(sorted, input)
	SortByPriority(sorted)

	out := make([]MapElementContainer, 0, len(sorted))
	for _, c := range sorted {
		if c.Display() == DisplayNever {
			continue
		}
		if ClashesWithAny(c, out) {
			continue
		}
		out = append(out, c)
	}
	return out
}

//ClashesWithAny 是否与列表中任一标注冲突
func ClashesWithAny(c MapElementContainer, others []MapElementContainer) bool {
	for _, o := range others {
		if o == c {
			continue
		}
		if c.ClashesWith(o) {
			return true
		}
	}
	return false
}

// WithoutOrphanCaptions drops the captions of kept whose linked symbol was
// among candidates but is not in kept. Captions linked to a symbol decided
// elsewhere stay.
func WithoutOrphanCaptions(kept, candidates []MapElementContainer) []MapElementContainer {
	drawn := make(map[MapElementContainer]struct{}, len(kept))
	for _, c := range kept {
		drawn[c] = struct{}{}
	}
	decided := make(map[MapElementContainer]struct{}, len(candidates))
	for _, c := range candidates {
		decided[c] = struct{}{}
	}
	out := make([]MapElementContainer, 0, len(kept))
	for _, c := range kept {
		if t, ok := c.(*PointTextContainer); ok && t.Symbol != nil {
			_, local := decided[t.Symbol]
			if _, ok := drawn[t.Symbol]; local && !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
