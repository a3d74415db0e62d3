package selector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Fields every extraction configuration must map to a locator.
var RequiredFields = []string{"container", "flight_number", "departure_time", "arrival_time", "price"}

type Config struct {
	Selectors   map[string]string `json:"selectors"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

// defaults are compiled in per site and overlaid by the persisted file.
var defaults = map[string]map[string]string{
	"ana": {
		"container":      "tr",
		"flight_number":  ".be-flight-number",
		"departure_time": ".be-flight-time-dep",
		"arrival_time":   ".be-flight-time-arr",
		"price":          ".be-flight-fare",
	},
}

// Store persists per-site extraction configurations as flat JSON files.
// The active configuration and a pending AI suggestion live in separate
// files; healing only ever writes the suggestion.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ConfigPath(site string) string {
	return filepath.Join(s.dir, fmt.Sprintf("scraper_%s_config.json", site))
}

func (s *Store) SuggestionPath(site string) string {
	return filepath.Join(s.dir, fmt.Sprintf("scraper_%s_config_suggestion.json", site))
}

// Active returns the effective selector set: compiled-in defaults overlaid
// with whatever the config file carries. An absent or unparsable file falls
// back to defaults silently.
func (s *Store) Active(site string) map[string]string {
	selectors := make(map[string]string, len(defaults[site]))
	for k, v := range defaults[site] {
		selectors[k] = v
	}

	data, err := os.ReadFile(s.ConfigPath(site))
	if err != nil {
		return selectors
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return selectors
	}
	for k, v := range cfg.Selectors {
		if v != "" {
			selectors[k] = v
		}
	}
	return selectors
}

// ActiveConfig returns the raw persisted configuration for the operator UI,
// or an empty object when none exists.
func (s *Store) ActiveConfig(site string) map[string]any {
	raw := map[string]any{}
	data, err := os.ReadFile(s.ConfigPath(site))
	if err != nil {
		return raw
	}
	_ = json.Unmarshal(data, &raw)
	return raw
}

// SaveSuggestion writes an AI-proposed selector set to the suggestion file.
// The active configuration is never touched here.
func (s *Store) SaveSuggestion(site string, selectors map[string]string) error {
	data, err := json.MarshalIndent(selectors, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.SuggestionPath(site), data, 0o644)
}

// LoadSuggestion returns the pending suggestion, if any.
func (s *Store) LoadSuggestion(site string) (map[string]string, bool) {
	data, err := os.ReadFile(s.SuggestionPath(site))
	if err != nil {
		return nil, false
	}
	var selectors map[string]string
	if err := json.Unmarshal(data, &selectors); err != nil {
		return nil, false
	}
	return selectors, true
}

// Promote makes a selector set the active configuration and deletes any
// pending suggestion so stale advice cannot be reapplied. This is the
// explicit operator action; nothing promotes automatically.
func (s *Store) Promote(site string, selectors map[string]string) error {
	cfg := Config{
		Selectors:   selectors,
		LastUpdated: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.ConfigPath(site), data, 0o644); err != nil {
		return err
	}

	if err := os.Remove(s.SuggestionPath(site)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config updated but suggestion cleanup failed: %w", err)
	}
	return nil
}
