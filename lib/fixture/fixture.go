package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetAll is the sentinel target matching every fixture.
const TargetAll = "ALL"

// Calibration holds the DMX values at which the head points straight
// forward. 128 is factory center for both axes.
type Calibration struct {
	PanCenter  int `yaml:"pan_center" json:"pan_center"`
	TiltCenter int `yaml:"tilt_center" json:"tilt_center"`
}

// Profile describes one fixture model: which logical channels exist and
// where they sit relative to the fixture's base address.
type Profile struct {
	Channels map[string]int  `yaml:"channels"`
	Invert   map[string]bool `yaml:"invert,omitempty"`
}

// PatchedFixture binds a fixture id to a profile and a base address.
type PatchedFixture struct {
	ID          string       `yaml:"id"`
	Profile     string       `yaml:"profile"`
	Base        int          `yaml:"base"`
	Group       string       `yaml:"group,omitempty"`
	Alias       string       `yaml:"alias,omitempty"`
	Calibration *Calibration `yaml:"calibration,omitempty"`
}

// RigFile is the on-disk rig description.
type RigFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
	Patch    []PatchedFixture   `yaml:"patch"`
}

// Fixture is one patched moving head. Read-only once built; the
// compiler never mutates it.
type Fixture struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"group_id,omitempty"`
	Alias       string           `json:"alias,omitempty"`
	Base        int              `json:"base"`
	Offsets     map[Channel]int  `json:"offsets"`
	Invert      map[Channel]bool `json:"invert,omitempty"`
	Calibration Calibration      `json:"calibration"`

	active []Channel
}

// ActiveChannels returns the fixture's declared channel set in
// canonical enum order. The slice is shared; callers must not mutate.
func (f *Fixture) ActiveChannels() []Channel {
	return f.active
}

// Declares reports whether the fixture's DMX mapping includes c.
func (f *Fixture) Declares(c Channel) bool {
	_, ok := f.Offsets[c]
	return ok
}

// SoftHomeValue is the safe default for one channel: pan/tilt at the
// calibrated center, everything else at 0 (dimmer off, shutter closed,
// color and gobo wheels open).
func (f *Fixture) SoftHomeValue(c Channel) int {
	switch c {
	case Pan:
		return f.Calibration.PanCenter
	case Tilt:
		return f.Calibration.TiltCenter
	default:
		return 0
	}
}

// Rig is the full patched set of fixtures, in patch order.
type Rig struct {
	Fixtures []*Fixture
	byID     map[string]*Fixture
}

// ByID returns the fixture with the given id, or nil.
func (r *Rig) ByID(id string) *Fixture {
	return r.byID[id]
}

// LoadRig reads and validates a YAML rig file.
func LoadRig(path string) (*Rig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file RigFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, fmt.Errorf("parsing rig %q: %w", path, err)
	}
	return BuildRig(&file)
}

// BuildRig resolves a RigFile into a validated Rig.
func BuildRig(file *RigFile) (*Rig, error) {
	rig := &Rig{byID: map[string]*Fixture{}}

	for _, patched := range file.Patch {
		if patched.ID == "" {
			return nil, fmt.Errorf("patch entry with empty fixture id")
		}
		if rig.byID[patched.ID] != nil {
			return nil, fmt.Errorf("duplicate fixture id %q", patched.ID)
		}
		profile, ok := file.Profiles[patched.Profile]
		if !ok {
			return nil, fmt.Errorf("fixture %q uses unknown profile %q", patched.ID, patched.Profile)
		}

		fx := &Fixture{
			ID:      patched.ID,
			GroupID: patched.Group,
			Alias:   patched.Alias,
			Base:    patched.Base,
			Offsets: map[Channel]int{},
			Invert:  map[Channel]bool{},
			Calibration: Calibration{
				PanCenter:  128,
				TiltCenter: 128,
			},
		}
		if patched.Calibration != nil {
			fx.Calibration = *patched.Calibration
		}

		for name, offset := range profile.Channels {
			ch, err := ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", patched.Profile, err)
			}
			fx.Offsets[ch] = offset
		}
		for name, inv := range profile.Invert {
			ch, err := ParseChannel(name)
			if err != nil {
				return nil, fmt.Errorf("profile %q invert: %w", patched.Profile, err)
			}
			fx.Invert[ch] = inv
		}

		if err := fx.validate(); err != nil {
			return nil, fmt.Errorf("fixture %q: %w", patched.ID, err)
		}

		rig.Fixtures = append(rig.Fixtures, fx)
		rig.byID[fx.ID] = fx
	}

	return rig, nil
}

func (f *Fixture) validate() error {
	if f.ID == TargetAll {
		return fmt.Errorf("fixture id %q collides with the all-fixtures sentinel", TargetAll)
	}
	if len(f.Offsets) == 0 {
		return fmt.Errorf("no channels declared")
	}
	if f.Base < 1 || f.Base > 512 {
		return fmt.Errorf("base address %d out of range 1..512", f.Base)
	}

	seen := map[int]Channel{}
	for ch, offset := range f.Offsets {
		addr := f.Base + offset
		if offset < 0 || addr > 512 {
			return fmt.Errorf("channel %s at address %d out of range", ch, addr)
		}
		if prev, dup := seen[offset]; dup {
			return fmt.Errorf("channels %s and %s share offset %d", prev, ch, offset)
		}
		seen[offset] = ch
		if ch.IsFine() && !f.Declares(ch.Coarse()) {
			return fmt.Errorf("fine channel %s declared without %s", ch, ch.Coarse())
		}
	}
	for ch := range f.Invert {
		if !f.Declares(ch) {
			return fmt.Errorf("inversion flag on undeclared channel %s", ch)
		}
	}
	if f.Calibration.PanCenter < 0 || f.Calibration.PanCenter > 255 ||
		f.Calibration.TiltCenter < 0 || f.Calibration.TiltCenter > 255 {
		return fmt.Errorf("calibration centers out of range 0..255")
	}

	for _, ch := range Channels {
		if f.Declares(ch) {
			f.active = append(f.active, ch)
		}
	}
	return nil
}
