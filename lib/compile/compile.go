// Package compile turns sparse, overlapping, semantically-targeted
// effects into one gapless, non-overlapping, fully-specified control
// timeline per fixture.
//
// Per fixture: resolve targets, detect the boundary instants, split
// effects into boundary-aligned segments, merge each segment into a
// complete channel state (carrying unspecified channels forward), then
// detect and soft-home-fill whatever the handlers left uncovered. The
// whole pass is pure: no I/O, no shared state, inputs never mutated.
package compile

import (
	"fmt"
	"sort"
	"sync"

	"luxc/lib/effect"
	"luxc/lib/fixture"
)

// Compiler compiles sections against one rig. The zero Merge field
// means DefaultMergePolicy.
type Compiler struct {
	Rig   *fixture.Rig
	Merge MergePolicy
}

// CompileSection validates and normalizes the handler output, then
// compiles every fixture in the rig independently and concurrently.
// The result is flat, ordered by rig patch order then start time, and
// covers exactly [section.StartMS, section.EndMS) per fixture.
func (c *Compiler) CompileSection(section effect.Section, sequenced []*effect.SequencedEffect, channels []*effect.ChannelEffect) ([]*effect.DmxEffect, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	// Sequenced effects come first, normalized channel effects after,
	// so the merge tie-breaker sees one stable input order.
	all := make([]*effect.SequencedEffect, 0, len(sequenced)+len(channels))
	for i, e := range sequenced {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("sequenced effect %d: %w", i, err)
		}
		all = append(all, e)
	}
	for i, e := range channels {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("channel effect %d: %w", i, err)
		}
		all = append(all, e.Normalize())
	}

	results := make([][]*effect.DmxEffect, len(c.Rig.Fixtures))
	var wg sync.WaitGroup
	for i, fx := range c.Rig.Fixtures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.compileFixture(fx, section, all)
		}()
	}
	wg.Wait()

	var out []*effect.DmxEffect
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// compileFixture runs the full pipeline for one fixture. It reads only
// the fixture and the shared effect slice, so fixtures run in parallel
// without synchronization.
func (c *Compiler) compileFixture(fx *fixture.Fixture, section effect.Section, all []*effect.SequencedEffect) []*effect.DmxEffect {
	contribs := filterFor(fx, all)

	var filled []*effect.DmxEffect
	if len(contribs) > 0 {
		bounds := boundaries(contribs, section)
		segments := split(contribs, bounds)
		filled = fill(fx, segments, c.Merge)
	}

	gaps := detectGaps(filled, section)
	out := append(filled, fillGaps(fx, gaps)...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartMS < out[j].StartMS })

	verifyTimeline(fx, section, out)
	return out
}

// verifyTimeline asserts the output invariants: exact section coverage
// with no overlap, and a complete channel map on every effect. A
// violation here is a programmer error, not an input error.
func verifyTimeline(fx *fixture.Fixture, section effect.Section, timeline []*effect.DmxEffect) {
	cursor := section.StartMS
	for _, e := range timeline {
		if e.StartMS != cursor {
			panic(fmt.Sprintf("fixture %s: timeline hole or overlap at %d (expected %d)", fx.ID, e.StartMS, cursor))
		}
		if e.EndMS <= e.StartMS {
			panic(fmt.Sprintf("fixture %s: empty output range [%d,%d)", fx.ID, e.StartMS, e.EndMS))
		}
		if len(e.Channels) != len(fx.ActiveChannels()) {
			panic(fmt.Sprintf("fixture %s: incomplete channel map at [%d,%d)", fx.ID, e.StartMS, e.EndMS))
		}
		for _, ch := range fx.ActiveChannels() {
			if _, ok := e.Channels[ch]; !ok {
				panic(fmt.Sprintf("fixture %s: channel %s missing at [%d,%d)", fx.ID, ch, e.StartMS, e.EndMS))
			}
		}
		cursor = e.EndMS
	}
	if cursor != section.EndMS {
		panic(fmt.Sprintf("fixture %s: timeline ends at %d, section ends at %d", fx.ID, cursor, section.EndMS))
	}
}
