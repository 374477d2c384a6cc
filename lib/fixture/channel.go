package fixture

import "fmt"

// Channel is the closed set of logical channels a moving head exposes.
// Lookups are matched exhaustively; there is no dynamic channel-by-name
// fallback anywhere in the pipeline.
type Channel int

const (
	Pan Channel = iota
	Tilt
	Dimmer
	Shutter
	Color
	Gobo
	PanFine
	TiltFine
)

// Channels lists every channel in canonical order.
var Channels = []Channel{Pan, Tilt, Dimmer, Shutter, Color, Gobo, PanFine, TiltFine}

func (c Channel) String() string {
	switch c {
	case Pan:
		return "pan"
	case Tilt:
		return "tilt"
	case Dimmer:
		return "dimmer"
	case Shutter:
		return "shutter"
	case Color:
		return "color"
	case Gobo:
		return "gobo"
	case PanFine:
		return "pan_fine"
	case TiltFine:
		return "tilt_fine"
	}
	panic(fmt.Sprintf("unknown channel %d", int(c)))
}

// ParseChannel maps a config/wire name to its Channel.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// IsFine reports whether c is the low byte of a 16-bit pair.
func (c Channel) IsFine() bool {
	return c == PanFine || c == TiltFine
}

// Coarse returns the channel whose presence a fine channel requires.
func (c Channel) Coarse() Channel {
	switch c {
	case PanFine:
		return Pan
	case TiltFine:
		return Tilt
	}
	return c
}

func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(text []byte) error {
	parsed, err := ParseChannel(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
