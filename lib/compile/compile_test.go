package compile

import (
	"encoding/json"
	"testing"

	"luxc/lib/effect"
	"luxc/lib/fixture"
)

func testRig(t *testing.T) *fixture.Rig {
	t.Helper()
	rig, err := fixture.BuildRig(&fixture.RigFile{
		Profiles: map[string]fixture.Profile{
			"spot": {Channels: map[string]int{
				"pan": 0, "tilt": 1, "dimmer": 2, "shutter": 3, "color": 4, "gobo": 5,
			}},
			"spot16": {Channels: map[string]int{
				"pan": 0, "pan_fine": 1, "tilt": 2, "tilt_fine": 3,
				"dimmer": 4, "shutter": 5, "color": 6, "gobo": 7,
			}},
		},
		Patch: []fixture.PatchedFixture{
			{ID: "mh1", Profile: "spot", Base: 1, Group: "wash", Alias: "Moving Head 1"},
			{ID: "mh2", Profile: "spot16", Base: 17, Group: "wash"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return rig
}

func seqEffect(targets []string, start, end int64, channels effect.ChannelState) *effect.SequencedEffect {
	return &effect.SequencedEffect{
		Targets:  targets,
		Channels: channels,
		StartMS:  start,
		EndMS:    end,
		Meta:     map[string]string{"source": "movement-handler"},
	}
}

func TestEmptyInputFillsWholeSection(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 1000}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d effects, want 2 (one per fixture)", len(out))
	}
	for _, e := range out {
		if e.StartMS != 0 || e.EndMS != 1000 {
			t.Errorf("fixture %s: got [%d,%d), want [0,1000)", e.FixtureID, e.StartMS, e.EndMS)
		}
		if e.Type != effect.TypeGapFill {
			t.Errorf("fixture %s: got type %q, want %q", e.FixtureID, e.Type, effect.TypeGapFill)
		}
		fx := rig.ByID(e.FixtureID)
		for _, ch := range fx.ActiveChannels() {
			want := fx.SoftHomeValue(ch)
			got := e.Channels[ch]
			if got.Kind != effect.Static || got.Value != want {
				t.Errorf("fixture %s channel %s: got %+v, want static %d", e.FixtureID, ch, got, want)
			}
		}
	}
}

func TestBoundaryDetection(t *testing.T) {
	rig := testRig(t)
	fx := rig.ByID("mh1")

	effects := []*effect.SequencedEffect{
		seqEffect([]string{"ALL"}, 0, 500, effect.ChannelState{fixture.Dimmer: effect.StaticValue(255)}),
		seqEffect([]string{"mh1"}, 300, 800, effect.ChannelState{fixture.Shutter: effect.StaticValue(32)}),
	}
	contribs := filterFor(fx, effects)

	got := boundaries(contribs, effect.Section{StartMS: 0, EndMS: 1000})
	want := []int64{0, 300, 500, 800}
	if len(got) != len(want) {
		t.Fatalf("got boundaries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got boundaries %v, want %v", got, want)
		}
	}
}

func TestNoSegmentStraddlesABoundary(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 1000},
		[]*effect.SequencedEffect{
			seqEffect([]string{"ALL"}, 0, 500, effect.ChannelState{fixture.Dimmer: effect.StaticValue(255)}),
			seqEffect([]string{"mh1"}, 300, 800, effect.ChannelState{fixture.Shutter: effect.StaticValue(32)}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}

	bounds := map[int64]bool{0: true, 300: true, 500: true, 800: true}
	for _, e := range out {
		if e.FixtureID != "mh1" {
			continue
		}
		for b := range bounds {
			if e.StartMS < b && b < e.EndMS {
				t.Errorf("effect [%d,%d) straddles boundary %d", e.StartMS, e.EndMS, b)
			}
		}
	}
}

func TestSingleEffectBoundaries(t *testing.T) {
	rig := testRig(t)
	fx := rig.ByID("mh1")

	contribs := filterFor(fx, []*effect.SequencedEffect{
		seqEffect([]string{"mh1"}, 100, 400, effect.ChannelState{fixture.Dimmer: effect.StaticValue(10)}),
	})
	got := boundaries(contribs, effect.Section{StartMS: 0, EndMS: 1000})
	if len(got) != 2 || got[0] != 100 || got[1] != 400 {
		t.Fatalf("got boundaries %v, want [100 400]", got)
	}
}

func TestGapDetection(t *testing.T) {
	filled := []*effect.DmxEffect{
		{FixtureID: "mh1", StartMS: 0, EndMS: 100},
		{FixtureID: "mh1", StartMS: 100, EndMS: 200},
	}
	gaps := detectGaps(filled, effect.Section{StartMS: 0, EndMS: 500})
	if len(gaps) != 1 {
		t.Fatalf("got %d gaps, want 1", len(gaps))
	}
	if gaps[0].StartMS != 200 || gaps[0].EndMS != 500 {
		t.Errorf("got gap [%d,%d), want [200,500)", gaps[0].StartMS, gaps[0].EndMS)
	}
}

func TestGapDetectionNoEffects(t *testing.T) {
	gaps := detectGaps(nil, effect.Section{StartMS: 100, EndMS: 900})
	if len(gaps) != 1 || gaps[0].StartMS != 100 || gaps[0].EndMS != 900 {
		t.Fatalf("got %v, want one gap [100,900)", gaps)
	}
}

func TestInteriorGapGetsSoftHome(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	// Two disjoint instructions leave an uninstructed hole in between.
	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 300},
		[]*effect.SequencedEffect{
			seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(255)}),
			seqEffect([]string{"mh1"}, 200, 300, effect.ChannelState{fixture.Dimmer: effect.StaticValue(128)}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var mh1 []*effect.DmxEffect
	for _, e := range out {
		if e.FixtureID == "mh1" {
			mh1 = append(mh1, e)
		}
	}
	if len(mh1) != 3 {
		t.Fatalf("got %d effects for mh1, want 3", len(mh1))
	}
	mid := mh1[1]
	if mid.StartMS != 100 || mid.EndMS != 200 || mid.Type != effect.TypeGapFill {
		t.Errorf("got middle effect [%d,%d) type %q, want gap-fill [100,200)", mid.StartMS, mid.EndMS, mid.Type)
	}
	if v := mid.Channels[fixture.Dimmer]; v.Value != 0 {
		t.Errorf("gap dimmer = %d, want 0 (soft home, not carry-forward)", v.Value)
	}
}

func TestChannelEffectRoundTrip(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 1000}, nil,
		[]*effect.ChannelEffect{{
			FixtureID: "mh1",
			Channel:   fixture.Shutter,
			StartMS:   0,
			EndMS:     1000,
			Samples:   []int{255},
		}})
	if err != nil {
		t.Fatal(err)
	}

	var mh1 []*effect.DmxEffect
	for _, e := range out {
		if e.FixtureID == "mh1" {
			mh1 = append(mh1, e)
		}
	}
	if len(mh1) != 1 {
		t.Fatalf("got %d effects for mh1, want 1", len(mh1))
	}
	e := mh1[0]
	if e.StartMS != 0 || e.EndMS != 1000 {
		t.Fatalf("got [%d,%d), want [0,1000)", e.StartMS, e.EndMS)
	}
	if v := e.Channels[fixture.Shutter]; v.Kind != effect.Static || v.Value != 255 {
		t.Errorf("shutter = %+v, want static 255", v)
	}

	// Unspecified channels carry the fixture defaults.
	fx := rig.ByID("mh1")
	for _, ch := range fx.ActiveChannels() {
		if ch == fixture.Shutter {
			continue
		}
		if v := e.Channels[ch]; v.Value != fx.SoftHomeValue(ch) {
			t.Errorf("channel %s = %d, want default %d", ch, v.Value, fx.SoftHomeValue(ch))
		}
	}
}

func TestCarryForwardBetweenSegments(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 800},
		[]*effect.SequencedEffect{
			seqEffect([]string{"mh1"}, 0, 500, effect.ChannelState{fixture.Dimmer: effect.StaticValue(200)}),
			seqEffect([]string{"mh1"}, 300, 800, effect.ChannelState{fixture.Shutter: effect.StaticValue(32)}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}

	byRange := map[int64]*effect.DmxEffect{}
	for _, e := range out {
		if e.FixtureID == "mh1" {
			byRange[e.StartMS] = e
		}
	}

	// [500,800): the dimmer effect ended, its last value holds.
	last := byRange[500]
	if last == nil {
		t.Fatal("no segment starting at 500")
	}
	if v := last.Channels[fixture.Dimmer]; v.Value != 200 {
		t.Errorf("dimmer after its effect ended = %d, want carried 200", v.Value)
	}
	if v := last.Channels[fixture.Shutter]; v.Value != 32 {
		t.Errorf("shutter = %d, want 32", v.Value)
	}
}

func TestMergePrioritySpecificityThenOrder(t *testing.T) {
	rig := testRig(t)
	fx := rig.ByID("mh1")

	all := seqEffect([]string{"ALL"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(10)})
	group := seqEffect([]string{"wash"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(20)})
	alias := seqEffect([]string{"Moving Head 1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(30)})
	direct := seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(40)})

	cases := []struct {
		name    string
		effects []*effect.SequencedEffect
		want    int
	}{
		{"id beats all", []*effect.SequencedEffect{all, direct}, 40},
		{"alias beats group", []*effect.SequencedEffect{group, alias}, 30},
		{"group beats all", []*effect.SequencedEffect{all, group}, 20},
		{"tie goes to first listed", []*effect.SequencedEffect{
			seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(1)}),
			seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(2)}),
		}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			contribs := filterFor(fx, tc.effects)
			v, ok := DefaultMergePolicy(contribs, fixture.Dimmer)
			if !ok {
				t.Fatal("no contributor found")
			}
			if v.Value != tc.want {
				t.Errorf("got %d, want %d", v.Value, tc.want)
			}
		})
	}
}

func TestMergePolicyOverride(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{
		Rig: rig,
		// Last listed wins instead of the default.
		Merge: func(contribs []Contributor, ch fixture.Channel) (effect.ChannelValue, bool) {
			for i := len(contribs) - 1; i >= 0; i-- {
				if v, ok := contribs[i].Effect.Channels[ch]; ok {
					return v, true
				}
			}
			return effect.ChannelValue{}, false
		},
	}

	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 100},
		[]*effect.SequencedEffect{
			seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(1)}),
			seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(2)}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range out {
		if e.FixtureID == "mh1" && e.Channels[fixture.Dimmer].Value != 2 {
			t.Errorf("got %d, want 2 (override policy)", e.Channels[fixture.Dimmer].Value)
		}
	}
}

func TestUndeclaredChannelSkipped(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	// mh1 has no fine channels; the pan_fine instruction must be
	// skipped for it without failing the compile.
	out, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 100},
		[]*effect.SequencedEffect{
			seqEffect([]string{"ALL"}, 0, 100, effect.ChannelState{
				fixture.PanFine: effect.StaticValue(7),
				fixture.Dimmer:  effect.StaticValue(99),
			}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range out {
		fx := rig.ByID(e.FixtureID)
		if len(e.Channels) != len(fx.ActiveChannels()) {
			t.Errorf("fixture %s: got %d channels, want %d", e.FixtureID, len(e.Channels), len(fx.ActiveChannels()))
		}
		if e.FixtureID == "mh2" {
			if v := e.Channels[fixture.PanFine]; v.Value != 7 {
				t.Errorf("mh2 pan_fine = %d, want 7", v.Value)
			}
		}
	}
}

func TestCoverageInvariant(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}
	section := effect.Section{StartMS: 0, EndMS: 5000}

	out, err := c.CompileSection(section,
		[]*effect.SequencedEffect{
			seqEffect([]string{"ALL"}, 100, 700, effect.ChannelState{fixture.Dimmer: effect.StaticValue(255)}),
			seqEffect([]string{"wash"}, 500, 1500, effect.ChannelState{fixture.Color: effect.StaticValue(12)}),
			seqEffect([]string{"mh2"}, 1200, 4000, effect.ChannelState{fixture.Pan: effect.StaticValue(64)}),
		}, nil)
	if err != nil {
		t.Fatal(err)
	}

	perFixture := map[string][]*effect.DmxEffect{}
	for _, e := range out {
		perFixture[e.FixtureID] = append(perFixture[e.FixtureID], e)
	}
	for id, effects := range perFixture {
		cursor := section.StartMS
		for _, e := range effects {
			if e.StartMS != cursor {
				t.Fatalf("fixture %s: coverage break at %d (effect starts %d)", id, cursor, e.StartMS)
			}
			cursor = e.EndMS
		}
		if cursor != section.EndMS {
			t.Fatalf("fixture %s: coverage ends at %d, want %d", id, cursor, section.EndMS)
		}
	}
}

func TestDeterminism(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}
	section := effect.Section{StartMS: 0, EndMS: 10000}

	effects := []*effect.SequencedEffect{
		seqEffect([]string{"ALL"}, 0, 4000, effect.ChannelState{fixture.Dimmer: effect.StaticValue(128)}),
		seqEffect([]string{"wash"}, 2000, 6000, effect.ChannelState{fixture.Color: effect.StaticValue(3)}),
		seqEffect([]string{"mh1"}, 1000, 9000, effect.ChannelState{fixture.Pan: effect.StaticValue(200), fixture.Tilt: effect.StaticValue(55)}),
	}

	var first []byte
	for i := range 20 {
		out, err := c.CompileSection(section, effects, nil)
		if err != nil {
			t.Fatal(err)
		}
		buf, err := json.Marshal(out)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = buf
			continue
		}
		if string(buf) != string(first) {
			t.Fatalf("run %d differs from run 0", i)
		}
	}
}

func TestResolve(t *testing.T) {
	rig := testRig(t)
	fx := rig.ByID("mh1")

	cases := []struct {
		targets []string
		want    Match
	}{
		{[]string{"mh1"}, MatchID},
		{[]string{"Moving Head 1"}, MatchAlias},
		{[]string{"wash"}, MatchGroup},
		{[]string{"ALL"}, MatchAll},
		{[]string{"mh2"}, MatchNone},
		{[]string{"all"}, MatchNone},
		{[]string{"MH1"}, MatchNone},
		{[]string{"wash", "mh1"}, MatchID},
		{[]string{}, MatchNone},
	}
	for _, tc := range cases {
		if got := Resolve(fx, tc.targets); got != tc.want {
			t.Errorf("Resolve(%v) = %s, want %s", tc.targets, got, tc.want)
		}
	}
}

func TestInputsNotMutated(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}

	e := seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(5)})
	before, _ := json.Marshal(e)

	if _, err := c.CompileSection(effect.Section{StartMS: 0, EndMS: 1000}, []*effect.SequencedEffect{e}, nil); err != nil {
		t.Fatal(err)
	}

	after, _ := json.Marshal(e)
	if string(before) != string(after) {
		t.Errorf("input effect was mutated:\nbefore %s\nafter  %s", before, after)
	}
}

func TestInvalidInputsRejected(t *testing.T) {
	rig := testRig(t)
	c := &Compiler{Rig: rig}
	section := effect.Section{StartMS: 0, EndMS: 1000}

	cases := []struct {
		name string
		run  func() error
	}{
		{"negative duration", func() error {
			_, err := c.CompileSection(section, []*effect.SequencedEffect{
				seqEffect([]string{"mh1"}, 500, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(1)}),
			}, nil)
			return err
		}},
		{"no targets", func() error {
			_, err := c.CompileSection(section, []*effect.SequencedEffect{
				seqEffect(nil, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(1)}),
			}, nil)
			return err
		}},
		{"no channels", func() error {
			_, err := c.CompileSection(section, []*effect.SequencedEffect{
				seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{}),
			}, nil)
			return err
		}},
		{"value out of range", func() error {
			_, err := c.CompileSection(section, []*effect.SequencedEffect{
				seqEffect([]string{"mh1"}, 0, 100, effect.ChannelState{fixture.Dimmer: effect.StaticValue(300)}),
			}, nil)
			return err
		}},
		{"empty section", func() error {
			_, err := c.CompileSection(effect.Section{StartMS: 100, EndMS: 100}, nil, nil)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.run() == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
