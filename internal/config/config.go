package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"UpkeepSentinel/internal/model"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Feed source names accepted in torn.sources.
const (
	SourceProperty = "property"
	SourceEvents   = "events"
	SourceScrape   = "scrape"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Torn struct {
		BaseURL    string   `yaml:"base_url" toml:"base_url"`
		APIKey     string   `yaml:"api_key" toml:"api_key"`
		PropertyID string   `yaml:"property_id" toml:"property_id"`
		Sources    []string `yaml:"sources" toml:"sources"`
		ScrapeURL  string   `yaml:"scrape_url" toml:"scrape_url"`
	} `yaml:"torn" toml:"torn"`
	Upkeep struct {
		DailyCost    int64  `yaml:"daily_cost" toml:"daily_cost"`
		Counterparty string `yaml:"counterparty" toml:"counterparty"`
		CycleAnchor  string `yaml:"cycle_anchor" toml:"cycle_anchor"`
	} `yaml:"upkeep" toml:"upkeep"`
	Schedule struct {
		ReminderOffset string `yaml:"reminder_offset" toml:"reminder_offset"`
		SyncOffset     string `yaml:"sync_offset" toml:"sync_offset"`
		ReminderCron   string `yaml:"reminder_cron" toml:"reminder_cron"`
		SyncCron       string `yaml:"sync_cron" toml:"sync_cron"`
	} `yaml:"schedule" toml:"schedule"`
	Store struct {
		Backend    string `yaml:"backend" toml:"backend"`
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
		StateFile  string `yaml:"state_file" toml:"state_file"`
	} `yaml:"store" toml:"store"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Load reads config from a YAML file (or TOML when the path ends in .toml),
// then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
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
	if v := os.Getenv("TORN_BASE_URL"); v != "" {
		cfg.Torn.BaseURL = v
	}
	if v := os.Getenv("TORN_API_KEY"); v != "" {
		cfg.Torn.APIKey = v
	}
	if v := os.Getenv("UPKEEP_SOURCES"); v != "" {
		cfg.Torn.Sources = splitList(v)
	}
	if v := os.Getenv("UPKEEP_DAILY_COST"); v != "" {
		if cost, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64); err == nil {
			cfg.Upkeep.DailyCost = cost
		}
	}
	if v := os.Getenv("UPKEEP_COUNTERPARTY"); v != "" {
		cfg.Upkeep.Counterparty = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Store.StateFile = v
	}

	// Defaults
	if cfg.Torn.BaseURL == "" {
		cfg.Torn.BaseURL = "https://api.torn.com"
	}
	if len(cfg.Torn.Sources) == 0 {
		cfg.Torn.Sources = []string{SourceProperty, SourceEvents}
	}
	if cfg.Upkeep.DailyCost == 0 {
		cfg.Upkeep.DailyCost = 352500
	}
	if cfg.Schedule.ReminderOffset == "" {
		cfg.Schedule.ReminderOffset = "2h"
	}
	if cfg.Schedule.SyncOffset == "" {
		cfg.Schedule.SyncOffset = "5m"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/upkeep.db"
	}
	if cfg.Store.StateFile == "" {
		cfg.Store.StateFile = "data/upkeep_state.json"
	}

	return cfg, nil
}

// Validate checks that all values are usable. Telegram is optional: without
// it reminders go to the status output.
func (c *Config) Validate() error {
	if c.Upkeep.DailyCost <= 0 {
		return fmt.Errorf("%w: upkeep.daily_cost must be positive", model.ErrConfigInvalid)
	}
	if _, err := c.ReminderBefore(); err != nil {
		return err
	}
	if _, err := c.SyncAfter(); err != nil {
		return err
	}
	if _, err := c.Anchor(); err != nil {
		return err
	}
	for _, s := range c.Torn.Sources {
		switch s {
		case SourceProperty, SourceEvents:
		case SourceScrape:
			if c.Torn.ScrapeURL == "" {
				return fmt.Errorf("%w: torn.scrape_url is required for the scrape source", model.ErrConfigInvalid)
			}
		default:
			return fmt.Errorf("%w: unknown source %q", model.ErrConfigInvalid, s)
		}
	}
	switch c.Store.Backend {
	case "sqlite", "file":
	default:
		return fmt.Errorf("%w: store.backend must be sqlite or file", model.ErrConfigInvalid)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id must be set together", model.ErrConfigInvalid)
	}
	return nil
}

// ReminderBefore is how long before UTC midnight the reminder fires.
func (c *Config) ReminderBefore() (time.Duration, error) {
	return parseOffset("schedule.reminder_offset", c.Schedule.ReminderOffset)
}

// SyncAfter is how long after UTC midnight the daily sync fires.
func (c *Config) SyncAfter() (time.Duration, error) {
	return parseOffset("schedule.sync_offset", c.Schedule.SyncOffset)
}

// Anchor parses upkeep.cycle_anchor; empty yields the zero day.
func (c *Config) Anchor() (model.Day, error) {
	d, err := model.ParseDay(c.Upkeep.CycleAnchor)
	if err != nil {
		return model.Day{}, fmt.Errorf("%w: upkeep.cycle_anchor: %v", model.ErrConfigInvalid, err)
	}
	return d, nil
}

// Defaults returns the first-run settings derived from the config. The API
// key is carried as the lowest-precedence credential and never persisted.
func (c *Config) Defaults() model.Settings {
	anchor, _ := c.Anchor()
	return model.Settings{
		Credential:   c.Torn.APIKey,
		CycleAnchor:  anchor,
		Counterparty: c.Upkeep.Counterparty,
		DailyCost:    c.Upkeep.DailyCost,
	}
}

func parseOffset(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", model.ErrConfigInvalid, name, err)
	}
	if d < 0 || d >= 24*time.Hour {
		return 0, fmt.Errorf("%w: %s must be within [0, 24h), got %s", model.ErrConfigInvalid, name, d)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
