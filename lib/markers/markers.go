// Package markers exports a compiled section's segment boundaries as a
// Standard MIDI File marker track, so a DAW session can be lined up
// with the show before the control data is serialized.
package markers

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"luxc/lib/effect"
)

const (
	ticksPerQuarter = 960
	tempoBPM        = 120
)

// BoundaryTimes returns the sorted distinct boundary instants of a
// compiled section: the start of every output effect plus the section
// end.
func BoundaryTimes(section effect.Section, effects []*effect.DmxEffect) []int64 {
	seen := map[int64]bool{section.StartMS: true, section.EndMS: true}
	for _, e := range effects {
		seen[e.StartMS] = true
		seen[e.EndMS] = true
	}
	out := make([]int64, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteSMF writes a single-track SMF whose markers sit at every
// boundary instant, timed against a fixed 120 BPM grid at 960 ticks per
// quarter. Offsets are relative to the section start.
func WriteSMF(w io.Writer, name string, section effect.Section, effects []*effect.DmxEffect) error {
	if err := section.Validate(); err != nil {
		return err
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))
	tr.Add(0, smf.MetaTempo(tempoBPM))

	// ticks per ms at the fixed tempo; cumulative rounding keeps long
	// sections from drifting.
	ticksPerMS := float64(ticksPerQuarter) * tempoBPM / 60000.0

	prevTicks := uint32(0)
	for _, t := range BoundaryTimes(section, effects) {
		abs := uint32(math.Round(float64(t-section.StartMS) * ticksPerMS))
		tr.Add(abs-prevTicks, smf.MetaMarker(formatMS(t)))
		prevTicks = abs
	}
	tr.Close(0)

	s.Add(tr)
	_, err := s.WriteTo(w)
	return err
}

func formatMS(t int64) string {
	neg := ""
	if t < 0 {
		neg = "-"
		t = -t
	}
	return fmt.Sprintf("%s%02d:%02d.%03d", neg, t/60000, (t/1000)%60, t%1000)
}
