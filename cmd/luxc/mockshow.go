package main

import (
	"fmt"
	"math/rand/v2"

	"luxc/lib/curve"
	"luxc/lib/effect"
	"luxc/lib/fixture"
)

var groupNamePool = []string{
	"wash", "spots", "back_truss", "front_truss", "floor", "specials",
}

var sourceNamePool = []string{
	"movement-handler", "sweep-handler", "strobe-handler",
	"color-handler", "chase-handler",
}

// GenerateMockRig patches numFixtures moving heads across the pool of
// groups, every third one with 16-bit pan/tilt. Deterministic for a
// given seed.
func GenerateMockRig(numFixtures int, seed uint64) (*fixture.Rig, error) {
	rng := rand.New(rand.NewPCG(seed, 0))

	file := &fixture.RigFile{
		Profiles: map[string]fixture.Profile{
			"spot": {Channels: map[string]int{
				"pan": 0, "tilt": 1, "dimmer": 2, "shutter": 3, "color": 4, "gobo": 5,
			}},
			"spot16": {Channels: map[string]int{
				"pan": 0, "pan_fine": 1, "tilt": 2, "tilt_fine": 3,
				"dimmer": 4, "shutter": 5, "color": 6, "gobo": 7,
			}},
		},
	}

	base := 1
	for i := range numFixtures {
		profile, width := "spot", 6
		if i%3 == 2 {
			profile, width = "spot16", 8
		}
		if base+width > 512 {
			base = 1
		}
		file.Patch = append(file.Patch, fixture.PatchedFixture{
			ID:      fmt.Sprintf("mh%d", i+1),
			Profile: profile,
			Base:    base,
			Group:   groupNamePool[rng.IntN(len(groupNamePool))],
			Alias:   fmt.Sprintf("Moving Head %d", i+1),
		})
		base += width
	}

	return fixture.BuildRig(file)
}

// GenerateMockShow builds a section full of overlapping effects against
// the given rig: movement effects targeting ids, groups, or ALL, plus
// single-channel effects with samples or curve references.
func GenerateMockShow(rig *fixture.Rig, numEffects int, sectionMS int64, seed uint64) *ShowFile {
	rng := rand.New(rand.NewPCG(seed, 1))

	show := &ShowFile{Section: effect.Section{StartMS: 0, EndMS: sectionMS}}

	randRange := func() (int64, int64) {
		start := rng.Int64N(sectionMS - 1)
		end := start + 1 + rng.Int64N(sectionMS-start)
		if end > sectionMS {
			end = sectionMS
		}
		return start, end
	}

	randTargets := func() []string {
		switch rng.IntN(4) {
		case 0:
			return []string{fixture.TargetAll}
		case 1:
			return []string{groupNamePool[rng.IntN(len(groupNamePool))]}
		default:
			fx := rig.Fixtures[rng.IntN(len(rig.Fixtures))]
			return []string{fx.ID}
		}
	}

	movementChannels := []fixture.Channel{
		fixture.Pan, fixture.Tilt, fixture.Dimmer,
		fixture.Shutter, fixture.Color, fixture.Gobo,
	}

	for i := range numEffects {
		start, end := randRange()

		if i%4 == 3 {
			fx := rig.Fixtures[rng.IntN(len(rig.Fixtures))]
			ce := &effect.ChannelEffect{
				FixtureID: fx.ID,
				Channel:   movementChannels[rng.IntN(len(movementChannels))],
				StartMS:   start,
				EndMS:     end,
			}
			if rng.IntN(2) == 0 {
				ce.Samples = []int{rng.IntN(256)}
			} else {
				ce.Spec = &curve.Spec{Kind: "sine", Params: map[string]float64{
					"period_ms": float64(100 + rng.IntN(2000)),
				}}
			}
			show.ChannelEffects = append(show.ChannelEffects, ce)
			continue
		}

		channels := effect.ChannelState{}
		for _, ch := range movementChannels {
			if rng.IntN(3) == 0 {
				channels[ch] = effect.StaticValue(rng.IntN(256))
			}
		}
		if len(channels) == 0 {
			channels[fixture.Dimmer] = effect.StaticValue(rng.IntN(256))
		}

		show.Effects = append(show.Effects, &effect.SequencedEffect{
			Targets:  randTargets(),
			Channels: channels,
			StartMS:  start,
			EndMS:    end,
			Meta:     map[string]string{"source": sourceNamePool[rng.IntN(len(sourceNamePool))]},
		})
	}

	return show
}
