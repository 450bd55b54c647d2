// Package config loads, validates, and watches weeklybot's configuration.
//
// The file may be JSON or YAML (YAML is coerced to JSON so both formats go
// through the same strict decoder). Secrets are taken from the environment
// and override whatever the file carries, so config files stay committable.
package config

import (
	"time"
)

type Config struct {
	// Listen is the HTTP bind address, e.g. ":8080".
	Listen string `json:"listen,omitempty"`

	Discord   DiscordConfig   `json:"discord"`
	Sheets    SheetsConfig    `json:"sheets"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Broadcast BroadcastConfig `json:"broadcast,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
}

// DiscordConfig carries the platform credentials.
//
// PublicKey verifies inbound interaction signatures. An empty or malformed
// key is a startup error: running without verification would accept forged
// requests, so there is no silent bypass.
type DiscordConfig struct {
	PublicKey     string `json:"public_key" validate:"required,hexadecimal,len=64"`
	BotToken      string `json:"bot_token" validate:"required"`
	ApplicationID string `json:"application_id,omitempty"`
	APIBase       string `json:"api_base,omitempty" validate:"omitempty,url"`
	// Timeout is a Go duration string for outbound REST calls.
	Timeout string `json:"timeout,omitempty"`
}

type SheetsConfig struct {
	APIKey        string `json:"api_key,omitempty"`
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Range         string `json:"range,omitempty"`
	APIBase       string `json:"api_base,omitempty" validate:"omitempty,url"`
	Timeout       string `json:"timeout,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./weeklybot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty" validate:"omitempty,oneof=sqlite sqlite3 memory"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// BroadcastConfig controls the fan-out.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - workers: 4
//   - rate_per_sec: 10
//   - fetch_timeout: "10s"
//   - read_timeout: "10s"
//   - send_timeout: "15s"
type BroadcastConfig struct {
	Workers    int    `json:"workers,omitempty" validate:"omitempty,min=1,max=64"`
	RatePerSec int    `json:"rate_per_sec,omitempty" validate:"omitempty,min=1,max=1000"`
	Template   string `json:"template,omitempty"`

	FetchTimeout string `json:"fetch_timeout,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	SendTimeout  string `json:"send_timeout,omitempty"`
}

// SchedulerConfig controls the optional in-process trigger.
//
// The /cron endpoint stays available either way; enable this only when no
// external scheduler invokes it.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	// Spec is a standard 5-field cron expression.
	Spec string `json:"spec,omitempty"`
	// Timezone is an IANA TZ name, e.g. "Europe/Amsterdam".
	Timezone string `json:"timezone,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error TRACE DEBUG INFO WARN WARNING ERROR"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "./data/weeklybot.db",
		},
	}
}

func (c *Config) withDefaults() *Config {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" && c.Storage.Driver != "memory" {
		c.Storage.Path = "./data/weeklybot.db"
	}
	return c
}

// Durations parsed from the string fields above.

func (c DiscordConfig) TimeoutDuration() (time.Duration, error) {
	return ParseDurationField("discord.timeout", c.Timeout)
}

func (c SheetsConfig) TimeoutDuration() (time.Duration, error) {
	return ParseDurationField("sheets.timeout", c.Timeout)
}

func (c StorageConfig) BusyTimeoutDuration() (time.Duration, error) {
	return ParseDurationField("storage.busy_timeout", c.BusyTimeout)
}
