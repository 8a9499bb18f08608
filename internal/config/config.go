// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token   string `yaml:"token"`
	Mode    string `yaml:"mode"`    // polling | noop
	Workers int    `yaml:"workers"` // update workers, partitioned by user
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"` // 0 disables the admin server
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite | memory
	URL      string `yaml:"url"`    // postgres DSN
	Path     string `yaml:"path"`   // sqlite file
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StateConfig struct {
	Backend string `yaml:"backend"` // memory | redis
}

type SchedulerConfig struct {
	Mode       string        `yaml:"mode"`     // daily | interval
	DailyAt    string        `yaml:"daily_at"` // HH:MM, daily mode
	Interval   time.Duration `yaml:"interval"` // interval mode
	Timezone   string        `yaml:"timezone"`
	LockTTL    time.Duration `yaml:"lock_ttl"` // redis tick lock, 0 disables
	RunOnStart bool          `yaml:"run_on_start"`
}

type NotifyConfig struct {
	Recipients []int64 `yaml:"recipients"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"` // requires redis; 0 disables
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	State     StateConfig     `yaml:"state"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Locale    string          `yaml:"locale"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then applies a .env file (if any)
// and environment overrides on top.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML, applies env overrides and defaults, and validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("NOTIFY_RECIPIENTS"); v != "" {
		ids, err := parseRecipients(v)
		if err != nil {
			return err
		}
		c.Notify.Recipients = ids
	}
	return nil
}

// parseRecipients reads a comma-separated list of chat ids. Empty entries
// are skipped; anything else that is not an integer is an error.
func parseRecipients(v string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("NOTIFY_RECIPIENTS: %q is not a chat id", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Path == "" {
		c.Database.Path = "products.db"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.State.Backend == "" {
		c.State.Backend = "memory"
	}
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = "daily"
	}
	if c.Scheduler.DailyAt == "" {
		c.Scheduler.DailyAt = "09:00"
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = time.Hour
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "Europe/Moscow"
	}
	if c.Locale == "" {
		c.Locale = "ru"
	}
}

// Validate checks the fields each selected backend needs.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Bot.Mode) {
	case "polling":
		if c.Bot.Token == "" {
			return errors.New("bot.token is required")
		}
	case "noop":
	default:
		return fmt.Errorf("bot.mode %q is not supported", c.Bot.Mode)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	switch strings.ToLower(c.State.Backend) {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis state backend")
		}
	default:
		return fmt.Errorf("state.backend %q is not supported", c.State.Backend)
	}

	if c.RateLimit.PerMinute > 0 && c.Redis.URL == "" {
		return errors.New("rate_limit.per_minute requires redis.url")
	}

	switch strings.ToLower(c.Scheduler.Mode) {
	case "daily":
		if _, _, err := c.Scheduler.DailyTime(); err != nil {
			return err
		}
	case "interval":
	default:
		return fmt.Errorf("scheduler.mode %q is not supported", c.Scheduler.Mode)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

// DailyTime parses DailyAt as HH:MM.
func (s SchedulerConfig) DailyTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s.DailyAt))
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler.daily_at %q: expected HH:MM", s.DailyAt)
	}
	return t.Hour(), t.Minute(), nil
}

func (s SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// UsesRedis reports whether any configured component needs a redis client.
func (c *Config) UsesRedis() bool {
	return c.Redis.URL != "" && (strings.EqualFold(c.State.Backend, "redis") || c.RateLimit.PerMinute > 0 || c.Scheduler.LockTTL > 0)
}
