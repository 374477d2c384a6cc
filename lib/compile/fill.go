package compile

import (
	"sort"
	"strings"

	"luxc/lib/effect"
	"luxc/lib/fixture"
)

// MergePolicy picks the winning value when several contributors specify
// the same channel over the same segment. Contributors arrive in input
// order. Returning ok=false means no contributor specified the channel.
type MergePolicy func(contribs []Contributor, ch fixture.Channel) (effect.ChannelValue, bool)

// DefaultMergePolicy resolves conflicts by target specificity (direct
// fixture id beats alias beats group beats ALL) and breaks ties by
// input order, first listed wins.
func DefaultMergePolicy(contribs []Contributor, ch fixture.Channel) (effect.ChannelValue, bool) {
	var winner *Contributor
	for i := range contribs {
		c := &contribs[i]
		if _, has := c.Effect.Channels[ch]; !has {
			continue
		}
		if winner == nil || c.Match > winner.Match {
			winner = c
		}
	}
	if winner == nil {
		return effect.ChannelValue{}, false
	}
	return winner.Effect.Channels[ch], true
}

// fill merges each segment's contributors into one DmxEffect with a
// complete channel map. Channels nobody specifies carry forward from
// the previous emitted segment, seeded from the fixture's soft home.
// Physical heads hold their last commanded value, so nothing ever
// implicitly resets between segments. Segments with no contributors are
// skipped; they surface later as gaps. Contributor channels the fixture
// does not declare are ignored.
func fill(fx *fixture.Fixture, segments []segment, policy MergePolicy) []*effect.DmxEffect {
	if policy == nil {
		policy = DefaultMergePolicy
	}

	prev := softHomeState(fx)
	var out []*effect.DmxEffect

	for _, seg := range segments {
		if len(seg.contributors) == 0 {
			continue
		}

		state := make(effect.ChannelState, len(prev))
		for _, ch := range fx.ActiveChannels() {
			if v, ok := policy(seg.contributors, ch); ok {
				state[ch] = v
			} else {
				state[ch] = prev[ch]
			}
		}

		out = append(out, &effect.DmxEffect{
			FixtureID: fx.ID,
			StartMS:   seg.startMS,
			EndMS:     seg.endMS,
			Channels:  state,
			Source:    joinSources(seg.contributors),
			Type:      effect.TypeHandler,
		})
		prev = state
	}
	return out
}

// softHomeState builds the fixture's safe default state over its full
// active channel set.
func softHomeState(fx *fixture.Fixture) effect.ChannelState {
	state := effect.ChannelState{}
	for _, ch := range fx.ActiveChannels() {
		state[ch] = effect.StaticValue(fx.SoftHomeValue(ch))
	}
	return state
}

// joinSources renders a deterministic provenance label from the
// contributors' source metadata.
func joinSources(contribs []Contributor) string {
	seen := map[string]bool{}
	var names []string
	for _, c := range contribs {
		s := c.Effect.Source()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		names = append(names, s)
	}
	if len(names) == 0 {
		return "handler"
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
