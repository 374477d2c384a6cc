package main

import (
	"encoding/json"
	"fmt"
	"os"

	"luxc/lib/effect"
)

// ShowFile is the JSON handed over by the choreography resolvers: one
// section window plus the movement and per-channel effect streams.
type ShowFile struct {
	Section        effect.Section            `json:"section"`
	Effects        []*effect.SequencedEffect `json:"effects"`
	ChannelEffects []*effect.ChannelEffect   `json:"channel_effects"`
}

func (s *ShowFile) Validate() error {
	if err := s.Section.Validate(); err != nil {
		return err
	}
	for i, e := range s.Effects {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}
	for i, e := range s.ChannelEffects {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("channel effect %d: %w", i, err)
		}
	}
	return nil
}

// LoadShow reads and validates a show JSON file.
func LoadShow(path string) (*ShowFile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var show ShowFile
	if err := json.Unmarshal(buf, &show); err != nil {
		return nil, fmt.Errorf("parsing show %q: %w", path, err)
	}
	if err := show.Validate(); err != nil {
		return nil, fmt.Errorf("show %q: %w", path, err)
	}
	return &show, nil
}
