package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tasktriage/internal/classify"
	"tasktriage/internal/domain"
)

// Config models tasktriage.yml. The lexicon section is read once at
// startup and frozen into a classify.Lexicon; the order of the
// categories sequence is the classification precedence.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Lexicon struct {
		Categories []CategoryConfig `yaml:"categories"`
	} `yaml:"lexicon"`
	Priority struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
	} `yaml:"priority"`
}

type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Actions  []string `yaml:"actions"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Lexicon.Categories) == 0 {
		return fmt.Errorf("config.lexicon.categories is required")
	}
	known := map[string]bool{}
	for _, cat := range domain.Categories() {
		known[string(cat)] = true
	}
	seen := map[string]bool{}
	for _, entry := range c.Lexicon.Categories {
		if entry.Name == "" {
			return fmt.Errorf("config.lexicon.categories contains an entry without a name")
		}
		if !known[entry.Name] {
			return fmt.Errorf("config.lexicon: unknown category %s", entry.Name)
		}
		if entry.Name == string(domain.CategoryGeneral) {
			return fmt.Errorf("config.lexicon: general is the fallback and takes no keywords")
		}
		if seen[entry.Name] {
			return fmt.Errorf("config.lexicon: category %s listed twice", entry.Name)
		}
		seen[entry.Name] = true
		if len(entry.Keywords) == 0 {
			return fmt.Errorf("config.lexicon: category %s has no keywords", entry.Name)
		}
	}
	if len(c.Priority.High) == 0 {
		return fmt.Errorf("config.priority.high is required")
	}
	if len(c.Priority.Medium) == 0 {
		return fmt.Errorf("config.priority.medium is required")
	}
	return nil
}

// BuildLexicon freezes the configured categories into a Lexicon.
func (c *Config) BuildLexicon() (*classify.Lexicon, error) {
	entries := make([]classify.LexiconEntry, 0, len(c.Lexicon.Categories))
	for _, entry := range c.Lexicon.Categories {
		entries = append(entries, classify.LexiconEntry{
			Category: domain.Category(entry.Name),
			Keywords: entry.Keywords,
			Actions:  entry.Actions,
		})
	}
	return classify.NewLexicon(entries)
}

// Markers returns the configured priority markers.
func (c *Config) Markers() classify.PriorityMarkers {
	return classify.PriorityMarkers{High: c.Priority.High, Medium: c.Priority.Medium}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "tasktriage.yml")
}

// Load reads config from the workspace, falling back to the defaults
// when no file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the stock configuration.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(err)
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/v0"
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

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v0

lexicon:
  categories:
    - name: scheduling
      keywords: [meeting, schedule, call, appointment, deadline]
      actions: ["Block calendar", "Send invite", "Prepare agenda"]

    - name: finance
      keywords: [payment, invoice, bill, budget, expense]
      actions: ["Check budget", "Generate invoice"]

    - name: technical
      keywords: [bug, fix, error, install, repair]
      actions: ["Diagnose issue", "Assign technician"]

    - name: safety
      keywords: [safety, hazard, inspection, ppe]
      actions: ["Conduct inspection", "Notify supervisor"]

priority:
  high: [urgent, asap, today, critical, emergency]
  medium: [soon, important, this week]
`
