package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the quota cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig covers the HTTP boundary: the message API plus the ops
// endpoints (/healthz, /metrics).
type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DispatchConfig struct {
	// SendTimeout bounds each per-destination adapter call so one hanging
	// provider cannot block the request forever.
	SendTimeout time.Duration `yaml:"send_timeout"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	DefaultChatID string `yaml:"default_chat_id"`
	APIBase       string `yaml:"api_base"` // override for tests/proxies
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	BotName    string `yaml:"bot_name"`
}

type SlackConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	DefaultChannel string `yaml:"default_channel"`
}

type PlatformsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Slack    SlackConfig    `yaml:"slack"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Platforms PlatformsConfig `yaml:"platforms"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Dispatch.SendTimeout <= 0 {
		cfg.Dispatch.SendTimeout = 10 * time.Second
	}
	if cfg.Platforms.Discord.BotName == "" {
		cfg.Platforms.Discord.BotName = "Notification Hub Bot"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Server.APIKey == "" && !dev {
		return nil, errors.New("server.api_key is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
