package config

import (
	"fmt"
	"os"
	"strings"

	"SettleBook/internal/settlement"
	"SettleBook/internal/strategy"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Schedule struct {
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Bubble struct {
		EntityID  string  `yaml:"entity_id"`
		Threshold float64 `yaml:"threshold"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"bubble"`
	Settlement struct {
		Tolerance      float64  `yaml:"tolerance"`
		ExcludedGroups []string `yaml:"excluded_groups"`
	} `yaml:"settlement"`
	Split struct {
		RequiredGroups        int     `yaml:"required_groups"`
		LowExposureMaxMembers int     `yaml:"low_exposure_max_members"`
		LowExposureMaxNet     float64 `yaml:"low_exposure_max_net"`
		DominantMinBook       float64 `yaml:"dominant_min_book"`
		DominantShare         float64 `yaml:"dominant_share"`
	} `yaml:"split"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("EXPORT_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("EXPORT_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("BUBBLE_ENTITY_ID"); v != "" {
		cfg.Bubble.EntityID = v
	}
	if v := os.Getenv("BUBBLE_THRESHOLD"); v != "" {
		var threshold float64
		if _, err := fmt.Sscanf(v, "%f", &threshold); err == nil {
			cfg.Bubble.Threshold = threshold
		}
	}
	if v := os.Getenv("EXCLUDED_GROUPS"); v != "" {
		cfg.Settlement.ExcludedGroups = splitList(v)
	}

	// Defaults
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 9 * * 2"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/settlebook.db"
	}
	if cfg.Bubble.Threshold == 0 {
		cfg.Bubble.Threshold = 100
	}
	if cfg.Bubble.StateFile == "" {
		cfg.Bubble.StateFile = "data/bubble_state.json"
	}
	cfg.Bubble.EntityID = strings.ToLower(strings.TrimSpace(cfg.Bubble.EntityID))
	if cfg.Settlement.Tolerance == 0 {
		cfg.Settlement.Tolerance = 0.01
	}
	if cfg.Settlement.ExcludedGroups == nil {
		cfg.Settlement.ExcludedGroups = []string{"Dro"}
	}
	if cfg.Split.RequiredGroups == 0 {
		cfg.Split.RequiredGroups = 3
	}
	if cfg.Split.LowExposureMaxMembers == 0 {
		cfg.Split.LowExposureMaxMembers = 5
	}
	if cfg.Split.LowExposureMaxNet == 0 {
		cfg.Split.LowExposureMaxNet = 500
	}
	if cfg.Split.DominantMinBook == 0 {
		cfg.Split.DominantMinBook = 1000
	}
	if cfg.Split.DominantShare == 0 {
		cfg.Split.DominantShare = 0.75
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Bubble.Threshold <= 0 {
		return fmt.Errorf("bubble.threshold must be positive")
	}
	if c.Settlement.Tolerance <= 0 {
		return fmt.Errorf("settlement.tolerance must be positive")
	}
	if c.Split.RequiredGroups < 1 {
		return fmt.Errorf("split.required_groups must be at least 1")
	}
	if c.Split.DominantShare <= 0 || c.Split.DominantShare > 1 {
		return fmt.Errorf("split.dominant_share must be in (0, 1]")
	}
	return nil
}

// Params converts the configuration into settlement parameters.
func (c *Config) Params() settlement.Params {
	return settlement.Params{
		BubbleEntityID:  c.Bubble.EntityID,
		BubbleThreshold: decimal.NewFromFloat(c.Bubble.Threshold),
		Tolerance:       decimal.NewFromFloat(c.Settlement.Tolerance),
		ExcludedGroups:  c.Settlement.ExcludedGroups,
		Rules: strategy.Rules{
			RequiredGroups:        c.Split.RequiredGroups,
			LowExposureMaxMembers: c.Split.LowExposureMaxMembers,
			LowExposureMaxNet:     decimal.NewFromFloat(c.Split.LowExposureMaxNet),
			DominantMinBook:       decimal.NewFromFloat(c.Split.DominantMinBook),
			DominantShare:         decimal.NewFromFloat(c.Split.DominantShare),
		},
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
