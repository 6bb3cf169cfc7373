package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Schedule struct {
		WorkStart   string `yaml:"work_start"`
		WorkEnd     string `yaml:"work_end"`
		SlotMinutes int    `yaml:"slot_minutes"`
	} `yaml:"schedule"`

	Reminders struct {
		DayBefore string `yaml:"day_before"`
		DayOf     string `yaml:"day_of"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"reminders"`

	Booking struct {
		StrictSlotCheck    bool `yaml:"strict_slot_check"`
		HorizonDays        int  `yaml:"horizon_days"`
		WeekendHorizonDays int  `yaml:"weekend_horizon_days"`
	} `yaml:"booking"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Admins []int64 `yaml:"admins"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = cfg.validate(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/booking.db"
	}
	if c.Schedule.WorkStart == "" {
		c.Schedule.WorkStart = "09:00"
	}
	if c.Schedule.WorkEnd == "" {
		c.Schedule.WorkEnd = "20:00"
	}
	if c.Schedule.SlotMinutes <= 0 {
		c.Schedule.SlotMinutes = 60
	}
	if c.Reminders.DayBefore == "" {
		c.Reminders.DayBefore = "10:00"
	}
	if c.Reminders.DayOf == "" {
		c.Reminders.DayOf = "08:00"
	}
	if c.Reminders.Timezone == "" {
		c.Reminders.Timezone = "Europe/Moscow"
	}
	if c.Booking.HorizonDays <= 0 {
		c.Booking.HorizonDays = 14
	}
	if c.Booking.WeekendHorizonDays <= 0 {
		c.Booking.WeekendHorizonDays = 30
	}
}

func (c *Config) validate() error {
	start, err := parseClock(c.Schedule.WorkStart)
	if err != nil {
		return fmt.Errorf("schedule.work_start: %w", err)
	}
	end, err := parseClock(c.Schedule.WorkEnd)
	if err != nil {
		return fmt.Errorf("schedule.work_end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("schedule.work_end %s must be after work_start %s", c.Schedule.WorkEnd, c.Schedule.WorkStart)
	}
	for _, t := range []string{c.Reminders.DayBefore, c.Reminders.DayOf} {
		if _, err := parseClock(t); err != nil {
			return fmt.Errorf("reminders time %q: %w", t, err)
		}
	}
	if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
		return fmt.Errorf("reminders.timezone: %w", err)
	}
	return nil
}

// Location returns the configured timezone. Validated at load, so the
// second return of LoadLocation is ignored here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// CacheTTL returns the redis cache TTL, zero when caching is disabled.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.Address == "" || c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
