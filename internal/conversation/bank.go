// Package conversation chooses what the companion says: canned prompts,
// keyword-triggered replies and a randomized fallback.
package conversation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bank holds the phrase sets the selector draws from.
type Bank struct {
	Prompts   []string `yaml:"prompts"`
	Responses []string `yaml:"responses"`
	FollowUps []string `yaml:"follow_ups"`
}

// DefaultBank returns the built-in phrase banks.
func DefaultBank() Bank {
	return Bank{
		Prompts: []string{
			"How does your food taste?",
			"What's your favorite thing about this meal?",
			"Are you enjoying the flavors?",
			"Is this a recipe you make often?",
			"What's the most interesting ingredient in your meal?",
			"How does this meal make you feel?",
			"Would you try anything different next time you make this?",
			"Is there a story behind this dish?",
			"What textures are you noticing in your food?",
			"Are you eating mindfully, taking time to appreciate each bite?",
		},
		Responses: []string{
			"That sounds delicious!",
			"I can imagine how flavorful that must be.",
			"It's interesting how food connects to our memories.",
			"Taking time to enjoy meals is so important.",
			"That's a great observation about your food.",
			"I appreciate how thoughtful you are about your meal.",
			"Mindful eating really enhances the experience, doesn't it?",
			"That's a wonderful way to describe those flavors.",
		},
		FollowUps: []string{
			"Have you tried any new recipes lately?",
			"What's a meal you're looking forward to making soon?",
			"Do you notice how your body feels while eating?",
			"What's your favorite cuisine?",
			"Do you prefer eating alone or with others?",
			"What's the most memorable meal you've had recently?",
		},
	}
}

// LoadBank reads a YAML phrasebook and overlays its non-empty sections on
// the default bank. An empty path returns the defaults.
func LoadBank(path string) (Bank, error) {
	bank := DefaultBank()
	if path == "" {
		return bank, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return bank, fmt.Errorf("phrasebook not found: %s", path)
		}
		return bank, err
	}
	var override Bank
	if err := yaml.Unmarshal(data, &override); err != nil {
		return bank, fmt.Errorf("failed to parse phrasebook %s: %w", path, err)
	}
	if len(override.Prompts) > 0 {
		bank.Prompts = override.Prompts
	}
	if len(override.Responses) > 0 {
		bank.Responses = override.Responses
	}
	if len(override.FollowUps) > 0 {
		bank.FollowUps = override.FollowUps
	}
	return bank, nil
}
