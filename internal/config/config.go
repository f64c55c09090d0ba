package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration, loaded from an optional YAML file with
// environment-variable overrides for deployment knobs.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// JWTSecret signs session tokens and questionnaire capability links.
	// Rotating it invalidates every outstanding link.
	JWTSecret string `yaml:"jwt_secret"`
	// SQLitePath selects the persistent backend; empty runs in-memory.
	SQLitePath string `yaml:"sqlite_path"`
	// SeedTemplateCSV is an optional CSV file used to create the default
	// risk tolerance template on first start.
	SeedTemplateCSV string `yaml:"seed_template_csv"`
	// ScoreThresholds are the six ascending band boundaries separating the
	// seven risk profiles.
	ScoreThresholds []int `yaml:"score_thresholds"`
	// BaseURL prefixes generated questionnaire links.
	BaseURL string `yaml:"base_url"`

	Notify NotifyConfig `yaml:"notify"`
}

// NotifyConfig selects the completion-notification sink.
type NotifyConfig struct {
	// Mode is "log" (default) or "smtp".
	Mode     string `yaml:"mode"`
	SMTPAddr string `yaml:"smtp_addr"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Load reads the YAML file at path (missing file is not an error, the
// defaults apply) and then applies environment overrides:
// ADVISOR_ADDR, ADVISOR_JWT_SECRET, ADVISOR_SQLITE_PATH, ADVISOR_BASE_URL.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:            ":8080",
		JWTSecret:       "advisorforms-dev-secret",
		ScoreThresholds: []int{52, 84, 119, 204, 239, 270},
		Notify:          NotifyConfig{Mode: "log"},
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv("ADVISOR_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ADVISOR_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ADVISOR_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("ADVISOR_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if len(cfg.ScoreThresholds) != 6 {
		return nil, fmt.Errorf("score_thresholds: want 6 boundaries, got %d", len(cfg.ScoreThresholds))
	}
	for i := 1; i < len(cfg.ScoreThresholds); i++ {
		if cfg.ScoreThresholds[i] <= cfg.ScoreThresholds[i-1] {
			return nil, fmt.Errorf("score_thresholds must be strictly ascending")
		}
	}
	return cfg, nil
}
