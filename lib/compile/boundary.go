package compile

import (
	"sort"

	"luxc/lib/effect"
)

// boundaries returns the sorted, deduplicated set of instants at which
// the contributing-effect set for a fixture can change, clamped to the
// section window. Effects entirely outside the window contribute
// nothing. Zero contributors yield an empty set.
func boundaries(contribs []Contributor, section effect.Section) []int64 {
	seen := map[int64]bool{}
	for _, c := range contribs {
		start := max(c.Effect.StartMS, section.StartMS)
		end := min(c.Effect.EndMS, section.EndMS)
		if start >= end {
			continue
		}
		seen[start] = true
		seen[end] = true
	}

	out := make([]int64, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// segment is one boundary-aligned slice of the timeline. Within it the
// contributing-effect set is constant. Contributors are referenced, not
// copied; curve slicing is left to the evaluator.
type segment struct {
	startMS      int64
	endMS        int64
	contributors []Contributor
}

// split partitions the boundary range into segments, attaching every
// contributor whose range overlaps each one. An empty boundary set
// produces no segments.
func split(contribs []Contributor, bounds []int64) []segment {
	if len(bounds) < 2 {
		return nil
	}

	segments := make([]segment, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		seg := segment{startMS: bounds[i], endMS: bounds[i+1]}
		for _, c := range contribs {
			if c.Effect.StartMS < seg.endMS && c.Effect.EndMS > seg.startMS {
				seg.contributors = append(seg.contributors, c)
			}
		}
		segments = append(segments, seg)
	}
	return segments
}
