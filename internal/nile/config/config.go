// Package config loads service configuration from a YAML file with
// NILE_* environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nile-security/nile/internal/nile/score"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	DatabaseURL string `yaml:"database_url"`

	Explorer struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"explorer"`

	Discord struct {
		FeedWebhookURL   string `yaml:"feed_webhook_url"`
		AlertsWebhookURL string `yaml:"alerts_webhook_url"`
	} `yaml:"discord"`

	Signatures struct {
		Owner string `yaml:"owner"`
		Repo  string `yaml:"repo"`
		Path  string `yaml:"path"`
		Token string `yaml:"token"`
	} `yaml:"signatures"`

	// Weights may override any of the four dimension weights. Keys other
	// than name, image, likeness, essence are rejected at load time so a
	// misspelled dimension never silently scores as zero-weight.
	Weights map[string]float64 `yaml:"weights"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.ListenAddr = ":8080"
	cfg.Explorer.BaseURL = "https://api.etherscan.io/api"
	cfg.Signatures.Path = "signatures.yml"
	return cfg
}

// Load reads configuration from path (optional; empty path loads pure
// defaults), then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NILE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("NILE_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("NILE_EXPLORER_BASE_URL"); v != "" {
		cfg.Explorer.BaseURL = v
	}
	if v := os.Getenv("NILE_EXPLORER_API_KEY"); v != "" {
		cfg.Explorer.APIKey = v
	}
	if v := os.Getenv("NILE_DISCORD_FEED_WEBHOOK"); v != "" {
		cfg.Discord.FeedWebhookURL = v
	}
	if v := os.Getenv("NILE_DISCORD_ALERTS_WEBHOOK"); v != "" {
		cfg.Discord.AlertsWebhookURL = v
	}
	if v := os.Getenv("NILE_GITHUB_TOKEN"); v != "" {
		cfg.Signatures.Token = v
	}
}

var weightKeys = map[string]bool{
	"name":     true,
	"image":    true,
	"likeness": true,
	"essence":  true,
}

// Validate checks constraints the engine itself does not enforce.
func (c Config) Validate() error {
	for k, v := range c.Weights {
		if !weightKeys[k] {
			return fmt.Errorf("unknown weight dimension %q (valid: name, image, likeness, essence)", k)
		}
		if v < 0 {
			return fmt.Errorf("weight %q is negative", k)
		}
	}
	return nil
}

// ScoreWeights resolves the weight overrides against the engine defaults.
func (c Config) ScoreWeights() score.Weights {
	w := score.DefaultWeights
	if v, ok := c.Weights["name"]; ok {
		w.Name = v
	}
	if v, ok := c.Weights["image"]; ok {
		w.Image = v
	}
	if v, ok := c.Weights["likeness"]; ok {
		w.Likeness = v
	}
	if v, ok := c.Weights["essence"]; ok {
		w.Essence = v
	}
	return w
}
