// Package scenario loads the persona definition: who the model is
// pretending to be, the sob stories that explain why she can't meet,
// and canned fallback lines for when generation is unavailable.
package scenario

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

type Persona struct {
	Name     string `yaml:"name"`
	Age      int    `yaml:"age"`
	Location string `yaml:"location"`
	Bio      string `yaml:"bio"`
	OFLink   string `yaml:"of_link"`
}

// SobStory is one excuse narrative. A story is assigned to a fan once
// and reused for that fan forever so the backstory never contradicts
// itself.
type SobStory struct {
	ID     string `yaml:"id"`
	Weight int    `yaml:"weight"`
	Text   string `yaml:"text"`
}

type Scenario struct {
	Persona    Persona             `yaml:"persona"`
	SobStories []SobStory          `yaml:"sob_stories"`
	Fallbacks  map[string][]string `yaml:"fallbacks"`
}

// Load reads a scenario YAML file. An empty path returns the built-in
// default scenario.
func Load(path string) (*Scenario, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) validate() error {
	if s.Persona.Name == "" {
		return fmt.Errorf("scenario: persona.name is required")
	}
	if len(s.SobStories) == 0 {
		return fmt.Errorf("scenario: at least one sob story is required")
	}
	for i, st := range s.SobStories {
		if st.ID == "" || st.Text == "" {
			return fmt.Errorf("scenario: sob story %d needs id and text", i)
		}
		if st.Weight < 0 {
			return fmt.Errorf("scenario: sob story %q has negative weight", st.ID)
		}
	}
	return nil
}

// PickSobStory draws a story by weight. Zero-weight stories are never
// picked unless every story has zero weight, in which case the draw is
// uniform.
func (s *Scenario) PickSobStory(rng *rand.Rand) SobStory {
	total := 0
	for _, st := range s.SobStories {
		total += st.Weight
	}
	if total == 0 {
		return s.SobStories[rng.Intn(len(s.SobStories))]
	}
	n := rng.Intn(total)
	for _, st := range s.SobStories {
		n -= st.Weight
		if n < 0 {
			return st
		}
	}
	return s.SobStories[len(s.SobStories)-1]
}

// Story returns the sob story with the given ID, falling back to the
// first story when the ID is unknown (the scenario file may have
// changed since the fan record was created).
func (s *Scenario) Story(id string) SobStory {
	for _, st := range s.SobStories {
		if st.ID == id {
			return st
		}
	}
	return s.SobStories[0]
}

// Fallback returns a canned line for a phase, or the empty string when
// none is configured.
func (s *Scenario) Fallback(phaseName string, rng *rand.Rand) string {
	lines := s.Fallbacks[phaseName]
	if len(lines) == 0 {
		lines = s.Fallbacks["default"]
	}
	if len(lines) == 0 {
		return ""
	}
	return lines[rng.Intn(len(lines))]
}

// Default is the scenario shipped in the binary, used until an operator
// writes their own YAML.
func Default() *Scenario {
	return &Scenario{
		Persona: Persona{
			Name:     "Madison",
			Age:      23,
			Location: "Miami",
			Bio:      "part-time model, full-time disaster, loves the beach and bad decisions",
			OFLink:   "onlyfans.com/madisonnxo",
		},
		SobStories: []SobStory{
			{ID: "car_repair", Weight: 3, Text: "her car broke down and the repair quote is brutal, she's stressed about covering it"},
			{ID: "rent", Weight: 3, Text: "rent went up again and her roommate bailed, she's scrambling to cover the difference"},
			{ID: "sick_mom", Weight: 1, Text: "her mom has been in and out of the hospital and she's helping with the bills"},
		},
		Fallbacks: map[string][]string{
			"opening":    {"heyy you 😊", "well hello there", "hii, took you long enough"},
			"location":   {"wait no way, whereabouts?", "omg small world"},
			"small_talk": {"lol stop 😂", "okay that's actually funny", "hmm tell me more"},
			"deflection": {"haha you're sweet but i barely know you", "slow down cowboy 😅", "maybe one day, i'm kinda private tho"},
			"of_pitch":   {"i mean... everything you're asking for is on my OF 👀", "my OF is where i actually get to be myself, just saying"},
			"post_pitch": {"you're the best fr 💕", "okay you get special treatment now lol"},
			"cold":       {"heyy stranger", "oh look who remembered me"},
			"default":    {"lol", "hmm", "okayyy"},
		},
	}
}
