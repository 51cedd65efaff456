// Package config holds the tunable conventions of the analyzer: marker
// strings and automation identities vary per organization, so they live
// in settings rather than in the engine's ordering logic.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings drives the pluggable predicates of the timeline builder and
// validator.
type Settings struct {
	// WorkStartedMarker overrides the conventional message prefix of the
	// commit that marks the start of work.
	WorkStartedMarker string `yaml:"work_started_marker"`

	// AutomationMarkers are substrings that identify a comment body as
	// machine-written (matched case-insensitively).
	AutomationMarkers []string `yaml:"automation_markers"`

	// AutomationActors are logins whose reviews and comments get labeled
	// as automated activity.
	AutomationActors []string `yaml:"automation_actors"`
}

// Default returns the settings used when no config file is given.
func Default() Settings {
	return Settings{
		AutomationMarkers: []string{"everything looks good"},
		AutomationActors:  []string{"github-actions[bot]"},
	}
}

// Load reads settings from a YAML file, filling unset fields from the
// defaults.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return s, nil
}

// IsAutomationComment reports whether a comment body matches any
// configured automation marker.
func (s Settings) IsAutomationComment(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range s.AutomationMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// IsAutomationActor reports whether a login belongs to a configured
// automation account.
func (s Settings) IsAutomationActor(login string) bool {
	for _, actor := range s.AutomationActors {
		if actor != "" && strings.EqualFold(actor, login) {
			return true
		}
	}
	return false
}
