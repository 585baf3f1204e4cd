// Package config provides YAML-based configuration loading for switchboard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level switchboard configuration, loaded from
// switchboard.yaml. Secrets may also come from the environment.
type Config struct {
	ListenPort     int            `yaml:"listen_port"`
	RedirectURL    string         `yaml:"redirect_url"`
	AllowAnyOrigin bool           `yaml:"allow_any_origin"`
	Operator       OperatorConfig `yaml:"operator"`
	Sessions       SessionsConfig `yaml:"sessions"`
	Archive        ArchiveConfig  `yaml:"archive"`
}

// OperatorConfig selects and configures the back-channel platform.
type OperatorConfig struct {
	Platform string        `yaml:"platform"` // "discord" or "slack"
	Channel  string        `yaml:"channel"`  // channel where the operator lives
	Discord  DiscordConfig `yaml:"discord"`
	Slack    SlackConfig   `yaml:"slack"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
}

// SessionsConfig controls the idle-session sweep. An empty cron expression
// disables eviction entirely.
type SessionsConfig struct {
	SweepCron      string `yaml:"sweep_cron"`
	IdleTimeoutMin int    `yaml:"idle_timeout_min"`
}

// IdleTimeout returns the idle timeout as a duration.
func (s SessionsConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMin) * time.Minute
}

// ArchiveConfig configures the session audit archive.
type ArchiveConfig struct {
	Enabled bool        `yaml:"enabled"`
	Driver  string      `yaml:"driver"` // "sqlite" or "mysql"
	Path    string      `yaml:"path"`   // sqlite file path
	MySQL   MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds connection settings for a MySQL archive.
type MySQLConfig struct {
	User     string `yaml:"user"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays secrets from the environment over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SWB_DISCORD_BOT_TOKEN"); v != "" {
		c.Operator.Discord.BotToken = v
	}
	if v := os.Getenv("SWB_SLACK_APP_TOKEN"); v != "" {
		c.Operator.Slack.AppToken = v
	}
	if v := os.Getenv("SWB_SLACK_BOT_TOKEN"); v != "" {
		c.Operator.Slack.BotToken = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.ListenPort == 0 {
		c.ListenPort = 3000
	}
	if c.Sessions.IdleTimeoutMin == 0 {
		c.Sessions.IdleTimeoutMin = 60
	}
	if c.Archive.Driver == "" {
		c.Archive.Driver = "sqlite"
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "switchboard.db"
	}
	if c.Archive.MySQL.User == "" {
		c.Archive.MySQL.User = "root"
	}
	if c.Archive.MySQL.Host == "" {
		c.Archive.MySQL.Host = "127.0.0.1"
	}
	if c.Archive.MySQL.Port == 0 {
		c.Archive.MySQL.Port = 3306
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.RedirectURL == "" {
		errs = append(errs, "redirect_url is required")
	}
	switch c.Operator.Platform {
	case "":
		errs = append(errs, "operator.platform is required")
	case "discord":
		if c.Operator.Discord.BotToken == "" {
			errs = append(errs, "operator.discord.bot_token is required (or SWB_DISCORD_BOT_TOKEN)")
		}
	case "slack":
		if c.Operator.Slack.AppToken == "" {
			errs = append(errs, "operator.slack.app_token is required (or SWB_SLACK_APP_TOKEN)")
		}
		if c.Operator.Slack.BotToken == "" {
			errs = append(errs, "operator.slack.bot_token is required (or SWB_SLACK_BOT_TOKEN)")
		}
	default:
		errs = append(errs, fmt.Sprintf("operator.platform %q is not supported", c.Operator.Platform))
	}
	if c.Operator.Platform == "discord" || c.Operator.Platform == "slack" {
		if c.Operator.Channel == "" {
			errs = append(errs, "operator.channel is required")
		}
	}
	if c.Archive.Enabled && c.Archive.Driver == "mysql" && c.Archive.MySQL.Database == "" {
		errs = append(errs, "archive.mysql.database is required")
	}
	if d := c.Archive.Driver; d != "sqlite" && d != "mysql" {
		errs = append(errs, fmt.Sprintf("archive.driver %q is not supported", d))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
