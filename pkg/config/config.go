package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envConfigPath       = "TEAMSBRIDGE_CONFIG"
	envLang             = "TEAMSBRIDGE_LANG"
	envButtonTitle      = "TEAMSBRIDGE_BUTTON_TITLE"
	envIconMultiOptions = "TEAMSBRIDGE_ICON_MULTI_OPTIONS"
	envSessionPath      = "TEAMSBRIDGE_SESSION_PATH"

	defaultLocale           = "en"
	defaultMaxTableCells    = 400
	defaultSessionPath      = "teamsbridge.db"
	defaultIconMultiOptions = ""
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Digester       DigesterConfig       `json:"digester"`
	ContentRatings ContentRatingsConfig `json:"content_ratings"`
	Lang           LangConfig           `json:"lang"`
	Session        SessionConfig        `json:"session"`
	Logging        LoggingConfig        `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// DigesterConfig carries the settings the message digester reads.
type DigesterConfig struct {
	// ButtonTitle names the answer attribute holding a custom option title.
	ButtonTitle      string `json:"button_title"`
	IconMultiOptions string `json:"icon_multi_options"`
	// MaxTableCells bounds table rasterization; larger tables stay as text.
	// Zero means the default, a negative value disables the limit.
	MaxTableCells int `json:"max_table_cells"`
	// Strict turns malformed answers into errors instead of degraded output.
	Strict bool `json:"strict,omitempty"`
}

// ContentRatingsConfig toggles the "was this helpful" prompt after answers.
type ContentRatingsConfig struct {
	Enabled bool           `json:"enabled"`
	Ratings []RatingOption `json:"ratings"`
}

// RatingOption is one button of the content-rating prompt.
type RatingOption struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Comment    bool   `json:"comment"`
	IsNegative bool   `json:"isNegative"`
}

// LangConfig selects the locale catalog and optional per-key overrides.
type LangConfig struct {
	Locale    string            `json:"locale"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

// SessionConfig points at the bbolt file backing conversation sessions.
type SessionConfig struct {
	Path string `json:"path"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Digester: DigesterConfig{
			IconMultiOptions: defaultIconMultiOptions,
			MaxTableCells:    defaultMaxTableCells,
		},
		ContentRatings: ContentRatingsConfig{
			Enabled: false,
			Ratings: []RatingOption{
				{ID: 1, Label: "yes", Comment: false, IsNegative: false},
				{ID: 2, Label: "no", Comment: true, IsNegative: true},
			},
		},
		Lang:    LangConfig{Locale: defaultLocale},
		Session: SessionConfig{Path: defaultSessionPath},
	}
}

// LoadConfig resolves config.json, unmarshals it over the defaults, and applies environment overrides.
func LoadConfig() (*Config, error) {
	// .env is optional; variables may already be exported.
	_ = godotenv.Load()

	cfg := Default()

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks invariants the digester relies on.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	seen := make(map[int]struct{}, len(c.ContentRatings.Ratings))
	for _, rating := range c.ContentRatings.Ratings {
		if strings.TrimSpace(rating.Label) == "" {
			return fmt.Errorf("content_ratings: rating %d has an empty label", rating.ID)
		}
		if _, ok := seen[rating.ID]; ok {
			return fmt.Errorf("content_ratings: duplicate rating id %d", rating.ID)
		}
		seen[rating.ID] = struct{}{}
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if locale := strings.TrimSpace(os.Getenv(envLang)); locale != "" {
		cfg.Lang.Locale = locale
	}
	if title := strings.TrimSpace(os.Getenv(envButtonTitle)); title != "" {
		cfg.Digester.ButtonTitle = title
	}
	if icon := strings.TrimSpace(os.Getenv(envIconMultiOptions)); icon != "" {
		cfg.Digester.IconMultiOptions = icon
	}
	if path := strings.TrimSpace(os.Getenv(envSessionPath)); path != "" {
		cfg.Session.Path = path
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Lang.Locale) == "" {
		cfg.Lang.Locale = defaultLocale
	}
	if strings.TrimSpace(cfg.Session.Path) == "" {
		cfg.Session.Path = defaultSessionPath
	}
	if cfg.Digester.MaxTableCells == 0 {
		cfg.Digester.MaxTableCells = defaultMaxTableCells
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is TEAMSBRIDGE_CONFIG first, then cwd-local fallback paths. An empty
// path with a nil error means no file exists and defaults apply.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
