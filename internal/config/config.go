package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"crewboard/internal/domain"
)

// Config models crewboard.yml.
type Config struct {
	Board struct {
		DefaultView     string `yaml:"default_view"`
		ShiftFilter     string `yaml:"shift_filter"`
		IncludeWeekends bool   `yaml:"include_weekends"`
	} `yaml:"board"`
	Absences map[string]AbsenceType `yaml:"absences"`
	Webhooks []WebhookConfig        `yaml:"webhooks"`
}

// AbsenceType is a catalog entry for an assignable absence work item.
type AbsenceType struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run crew init or copy the default template", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

var validViews = map[string]bool{
	domain.ViewAll:       true,
	domain.ViewPersonnel: true,
	domain.ViewEquipment: true,
	domain.ViewVehicles:  true,
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if !validViews[c.Board.DefaultView] {
		return fmt.Errorf("board.default_view must be one of all, personnel, equipment, vehicles")
	}
	switch c.Board.ShiftFilter {
	case "all", domain.ShiftDay, domain.ShiftNight:
	default:
		return fmt.Errorf("board.shift_filter must be all, day, or night")
	}
	for kind, a := range c.Absences {
		if strings.TrimSpace(kind) == "" {
			return fmt.Errorf("absences contains an empty kind")
		}
		if strings.TrimSpace(a.Label) == "" {
			return fmt.Errorf("absence %s has no label", kind)
		}
		if a.Color != "" && !strings.HasPrefix(a.Color, "#") {
			return fmt.Errorf("absence %s color %q must be a hex value", kind, a.Color)
		}
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	return nil
}

// AbsenceItems returns the config's absence catalog as work items, sorted by
// kind for stable ordering.
func (c *Config) AbsenceItems() []domain.WorkItem {
	kinds := make([]string, 0, len(c.Absences))
	for kind := range c.Absences {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	items := make([]domain.WorkItem, 0, len(kinds))
	for _, kind := range kinds {
		a := c.Absences[kind]
		items = append(items, domain.WorkItem{
			ID:    kind,
			Name:  a.Label,
			Kind:  domain.ItemAbsence,
			Color: a.Color,
		})
	}
	return items
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "crewboard.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `board:
  default_view: all
  shift_filter: all
  include_weekends: false

absences:
  vacation:
    label: "Vacation"
    color: "#f59e0b"
  sick:
    label: "Sick leave"
    color: "#ef4444"
  training:
    label: "Training"
    color: "#8b5cf6"
  office:
    label: "Office duty"
    color: "#64748b"
`
