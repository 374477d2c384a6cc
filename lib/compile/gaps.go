package compile

import (
	"luxc/lib/effect"
	"luxc/lib/fixture"
)

// GapFillerSource is the provenance stamped onto synthesized effects.
const GapFillerSource = "gap-filler"

// detectGaps finds every sub-range of the section a fixture's filled,
// time-sorted effects do not cover: before the first, between adjacent
// effects, and after the last. Zero effects yield one full-section gap.
func detectGaps(filled []*effect.DmxEffect, section effect.Section) []effect.Gap {
	var gaps []effect.Gap
	cursor := section.StartMS

	for _, e := range filled {
		if e.StartMS > cursor {
			gaps = append(gaps, effect.Gap{StartMS: cursor, EndMS: e.StartMS})
		}
		cursor = e.EndMS
	}
	if cursor < section.EndMS {
		gaps = append(gaps, effect.Gap{StartMS: cursor, EndMS: section.EndMS})
	}
	return gaps
}

// fillGaps synthesizes one soft-home effect per gap. Deterministic:
// fixed defaults, no carry-forward — a head left uninstructed goes to
// its calibrated center with the dimmer off and the shutter closed.
func fillGaps(fx *fixture.Fixture, gaps []effect.Gap) []*effect.DmxEffect {
	var out []*effect.DmxEffect
	for _, g := range gaps {
		out = append(out, &effect.DmxEffect{
			FixtureID: fx.ID,
			StartMS:   g.StartMS,
			EndMS:     g.EndMS,
			Channels:  softHomeState(fx),
			Source:    GapFillerSource,
			Type:      effect.TypeGapFill,
		})
	}
	return out
}
