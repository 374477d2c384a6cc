package compile

import (
	"luxc/lib/effect"
	"luxc/lib/fixture"
)

// Match ranks how specifically an effect's target list addressed a
// fixture. Higher is more specific; None means the effect does not
// apply at all. Matching is exact-string and case-sensitive across the
// four namespaces; the only wildcard is the "ALL" sentinel.
type Match int

const (
	MatchNone Match = iota
	MatchAll
	MatchGroup
	MatchAlias
	MatchID
)

func (m Match) String() string {
	switch m {
	case MatchNone:
		return "none"
	case MatchAll:
		return "all"
	case MatchGroup:
		return "group"
	case MatchAlias:
		return "alias"
	case MatchID:
		return "id"
	}
	return "invalid"
}

// Resolve returns the most specific way targets address fx.
func Resolve(fx *fixture.Fixture, targets []string) Match {
	best := MatchNone
	for _, t := range targets {
		var m Match
		switch {
		case t == fx.ID:
			m = MatchID
		case fx.Alias != "" && t == fx.Alias:
			m = MatchAlias
		case fx.GroupID != "" && t == fx.GroupID:
			m = MatchGroup
		case t == fixture.TargetAll:
			m = MatchAll
		}
		if m > best {
			best = m
		}
	}
	return best
}

// Contributor is one effect as seen by a single fixture: the effect
// itself, how specifically it matched, and its position in the original
// input list (the merge tie-breaker).
type Contributor struct {
	Effect *effect.SequencedEffect
	Match  Match
	Order  int
}

// filterFor keeps the effects addressing fx, preserving input order.
func filterFor(fx *fixture.Fixture, effects []*effect.SequencedEffect) []Contributor {
	var out []Contributor
	for i, e := range effects {
		if m := Resolve(fx, e.Targets); m != MatchNone {
			out = append(out, Contributor{Effect: e, Match: m, Order: i})
		}
	}
	return out
}
