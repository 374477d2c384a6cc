// Package effect holds the common effect representation the compiler
// consumes and produces. All invariants are checked at construction
// time via Validate; the compiler assumes validated inputs.
package effect

import (
	"fmt"

	"luxc/lib/curve"
	"luxc/lib/fixture"
)

// ValueKind discriminates the two ChannelValue variants.
type ValueKind string

const (
	Static ValueKind = "static"
	Curve  ValueKind = "curve"
)

// ChannelValue is the resolved instruction for one channel: either a
// fixed DMX byte or an opaque curve with clamp bounds.
type ChannelValue struct {
	Kind     ValueKind   `json:"kind"`
	Value    int         `json:"value,omitempty"`
	Spec     *curve.Spec `json:"spec,omitempty"`
	ClampMin int         `json:"clamp_min,omitempty"`
	ClampMax int         `json:"clamp_max,omitempty"`
}

// StaticValue builds a fixed-value ChannelValue.
func StaticValue(v int) ChannelValue {
	return ChannelValue{Kind: Static, Value: v}
}

// CurveValue builds a curve-backed ChannelValue clamped to [min, max].
func CurveValue(spec curve.Spec, min, max int) ChannelValue {
	return ChannelValue{Kind: Curve, Spec: &spec, ClampMin: min, ClampMax: max}
}

func (v ChannelValue) Validate() error {
	switch v.Kind {
	case Static:
		if v.Value < 0 || v.Value > 255 {
			return fmt.Errorf("static value %d out of range 0..255", v.Value)
		}
	case Curve:
		if v.Spec == nil {
			return fmt.Errorf("curve value without a spec")
		}
		if v.ClampMin < 0 || v.ClampMax > 255 || v.ClampMin > v.ClampMax {
			return fmt.Errorf("curve clamp [%d,%d] invalid", v.ClampMin, v.ClampMax)
		}
		for _, s := range v.Spec.Samples {
			if s < 0 || s > 255 {
				return fmt.Errorf("curve sample %d out of range 0..255", s)
			}
		}
	default:
		return fmt.Errorf("unknown value kind %q", v.Kind)
	}
	return nil
}

// ChannelState maps logical channels to their values for one fixture
// over one time range.
type ChannelState map[fixture.Channel]ChannelValue

// Clone returns a shallow copy (ChannelValue is a value type; the
// shared curve spec is read-only).
func (s ChannelState) Clone() ChannelState {
	out := make(ChannelState, len(s))
	for ch, v := range s {
		out[ch] = v
	}
	return out
}

// Section is one bounded compile window, [StartMS, EndMS).
type Section struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

func (s Section) Validate() error {
	if s.EndMS <= s.StartMS {
		return fmt.Errorf("section [%d,%d) has non-positive duration", s.StartMS, s.EndMS)
	}
	return nil
}

// SequencedEffect is a handler-produced instruction: a channel state
// applied to a set of semantic targets over [StartMS, EndMS). Targets
// may be fixture ids, aliases, group ids, or the "ALL" sentinel.
type SequencedEffect struct {
	Targets  []string          `json:"targets"`
	Channels ChannelState      `json:"channels"`
	StartMS  int64             `json:"start_ms"`
	EndMS    int64             `json:"end_ms"`
	Meta     map[string]string `json:"meta,omitempty"`
}

func (e *SequencedEffect) Validate() error {
	if e.EndMS <= e.StartMS {
		return fmt.Errorf("effect [%d,%d) has non-positive duration", e.StartMS, e.EndMS)
	}
	if len(e.Targets) == 0 {
		return fmt.Errorf("effect with no targets")
	}
	if len(e.Channels) == 0 {
		return fmt.Errorf("effect with no channels")
	}
	for ch, v := range e.Channels {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("channel %s: %w", ch, err)
		}
	}
	return nil
}

// Source names the handler that produced the effect; "" if unset.
func (e *SequencedEffect) Source() string {
	return e.Meta["source"]
}

// ChannelEffect is a single-channel instruction addressed to one
// fixture, carrying either discrete DMX samples or a curve reference.
type ChannelEffect struct {
	FixtureID string            `json:"fixture"`
	Channel   fixture.Channel   `json:"channel"`
	StartMS   int64             `json:"start_ms"`
	EndMS     int64             `json:"end_ms"`
	Samples   []int             `json:"samples,omitempty"`
	Spec      *curve.Spec       `json:"spec,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

func (e *ChannelEffect) Validate() error {
	if e.EndMS <= e.StartMS {
		return fmt.Errorf("channel effect [%d,%d) has non-positive duration", e.StartMS, e.EndMS)
	}
	if e.FixtureID == "" {
		return fmt.Errorf("channel effect with no fixture")
	}
	if len(e.Samples) == 0 && e.Spec == nil {
		return fmt.Errorf("channel effect with neither samples nor curve")
	}
	if len(e.Samples) > 0 && e.Spec != nil {
		return fmt.Errorf("channel effect with both samples and curve")
	}
	for _, s := range e.Samples {
		if s < 0 || s > 255 {
			return fmt.Errorf("sample %d out of range 0..255", s)
		}
	}
	return nil
}

// Normalize converts a ChannelEffect into the common SequencedEffect
// representation: target list is exactly the fixture id, channel map
// holds the one channel. A single sample becomes a static value; more
// become a sample-table curve evaluated by the curve collaborator.
// Total over validated inputs.
func (e *ChannelEffect) Normalize() *SequencedEffect {
	var value ChannelValue
	switch {
	case e.Spec != nil:
		value = CurveValue(*e.Spec, 0, 255)
	case len(e.Samples) == 1:
		value = StaticValue(e.Samples[0])
	default:
		value = CurveValue(curve.Spec{Kind: curve.KindSamples, Samples: e.Samples}, 0, 255)
	}

	meta := map[string]string{"source": "channel-handler"}
	for k, v := range e.Meta {
		meta[k] = v
	}

	return &SequencedEffect{
		Targets:  []string{e.FixtureID},
		Channels: ChannelState{e.Channel: value},
		StartMS:  e.StartMS,
		EndMS:    e.EndMS,
		Meta:     meta,
	}
}

// Provenance types stamped onto DmxEffects.
const (
	TypeHandler = "handler-derived"
	TypeGapFill = "gap-fill"
)

// DmxEffect is the final per-fixture output: a complete channel state
// over a non-overlapping time range. Channels always covers the
// fixture's whole active channel set.
type DmxEffect struct {
	FixtureID string       `json:"fixture"`
	StartMS   int64        `json:"start_ms"`
	EndMS     int64        `json:"end_ms"`
	Channels  ChannelState `json:"channels"`
	Source    string       `json:"source"`
	Type      string       `json:"type"`
}

// Gap is an uncovered sub-range of a section for one fixture.
type Gap struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}
