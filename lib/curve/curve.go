// Package curve defines the opaque value-curve handle the compiler
// passes through, and the evaluator capability consumers inject to turn
// a handle into concrete values. The compiler itself never interprets a
// curve; it only slices its time range.
package curve

import "fmt"

// KindSamples is the spec kind produced by normalizing discrete
// channel-effect samples.
const KindSamples = "samples"

// Spec is an opaque curve description. Kind selects the evaluator
// behavior; exactly one of Samples or Params carries the payload.
type Spec struct {
	Kind    string             `json:"kind"`
	Samples []int              `json:"samples,omitempty"`
	Params  map[string]float64 `json:"params,omitempty"`
}

// Span is the time range a spec was authored against. Evaluators map
// atMS into this range; the compiler may hand out sub-ranges of it
// without rewriting the spec.
type Span struct {
	StartMS int64
	EndMS   int64
}

// Evaluator resolves a curve handle at one instant. Implementations
// must be pure: same inputs, same output, no shared state.
type Evaluator interface {
	Evaluate(spec Spec, atMS int64, span Span) (float64, error)
}

// SampleEvaluator evaluates "samples" specs by linear interpolation
// across the span. It is enough for tests and preview rendering; real
// parametric curves live in an external evaluator.
type SampleEvaluator struct{}

func (SampleEvaluator) Evaluate(spec Spec, atMS int64, span Span) (float64, error) {
	if spec.Kind != KindSamples {
		return 0, fmt.Errorf("unsupported curve kind %q", spec.Kind)
	}
	n := len(spec.Samples)
	if n == 0 {
		return 0, fmt.Errorf("samples spec with no samples")
	}
	if n == 1 || span.EndMS <= span.StartMS {
		return float64(spec.Samples[0]), nil
	}

	pos := float64(atMS-span.StartMS) / float64(span.EndMS-span.StartMS)
	if pos <= 0 {
		return float64(spec.Samples[0]), nil
	}
	if pos >= 1 {
		return float64(spec.Samples[n-1]), nil
	}

	scaled := pos * float64(n-1)
	i := int(scaled)
	frac := scaled - float64(i)
	return float64(spec.Samples[i]) + frac*float64(spec.Samples[i+1]-spec.Samples[i]), nil
}
