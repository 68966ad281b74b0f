package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"daily-report-bot/internal/models"
)

type Config struct {
	BotToken       string  `env:"BOT_TOKEN"`
	BotTokenFile   string  `env:"BOT_TOKEN_FILE" envDefault:"/run/secrets/telegram_bot_token"`
	AdminIDs       []int64 `env:"ADMIN_IDS" envSeparator:","`
	Timezone       string  `env:"TIMEZONE" envDefault:"Asia/Bangkok"`
	ReminderTime   string  `env:"DEFAULT_REMINDER_TIME" envDefault:"10:00"`
	DefaultTopicID int64   `env:"DEFAULT_TOPIC_ID" envDefault:"0"`
	DBPath         string  `env:"DB_PATH" envDefault:"reports.db"`
	HTTPAddr       string  `env:"HTTP_ADDR"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string  `env:"LOG_FORMAT" envDefault:"console"`
	PollTimeout    int     `env:"POLL_TIMEOUT" envDefault:"60"`
	SendRate       float64 `env:"SEND_RATE" envDefault:"20"`
	SendRetries    uint64  `env:"SEND_RETRIES" envDefault:"3"`
	Debug          bool    `env:"DEBUG" envDefault:"false"`

	Location   *time.Location   `env:"-"`
	ReminderAt models.ClockTime `env:"-"`
}

// Load reads envFile when it exists, then the process environment.
func Load(envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return parse(env.Options{})
}

// Store is the subset of settings the migrate command needs; it does not
// require a bot token.
type Store struct {
	DBPath    string `env:"DB_PATH" envDefault:"reports.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

func LoadStore(envFile string) (*Store, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	st := &Store{}
	if err := env.Parse(st); err != nil {
		return nil, err
	}
	return st, nil
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, err
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	c.BotToken = strings.TrimSpace(c.BotToken)
	if c.BotToken == "" && c.BotTokenFile != "" {
		if data, err := os.ReadFile(c.BotTokenFile); err == nil {
			c.BotToken = strings.TrimSpace(string(data))
		}
	}
	if c.BotToken == "" {
		return errors.New("bot token not found: set BOT_TOKEN or provide BOT_TOKEN_FILE")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.Location = loc

	at, err := models.ParseClockTime(c.ReminderTime)
	if err != nil {
		return fmt.Errorf("DEFAULT_REMINDER_TIME: %w", err)
	}
	c.ReminderAt = at

	if c.DefaultTopicID < 0 {
		return fmt.Errorf("DEFAULT_TOPIC_ID must not be negative, got %d", c.DefaultTopicID)
	}
	if c.PollTimeout < 1 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %d", c.PollTimeout)
	}
	if c.SendRate <= 0 {
		return fmt.Errorf("SEND_RATE must be positive, got %v", c.SendRate)
	}
	return nil
}
