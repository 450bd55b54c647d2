package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// validate is the shared validator instance for config validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks structural constraints (tags) plus the fields the tag
// language can't express: duration strings, cron specs, timezones.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config: field %s failed %q validation", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	durations := []struct {
		path string
		raw  string
	}{
		{"discord.timeout", cfg.Discord.Timeout},
		{"sheets.timeout", cfg.Sheets.Timeout},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"broadcast.fetch_timeout", cfg.Broadcast.FetchTimeout},
		{"broadcast.read_timeout", cfg.Broadcast.ReadTimeout},
		{"broadcast.send_timeout", cfg.Broadcast.SendTimeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if cfg.Scheduler.Enabled {
		if cfg.Scheduler.Spec == "" {
			return fmt.Errorf("config: scheduler.spec is required when the scheduler is enabled")
		}
		if _, err := cronParser.Parse(cfg.Scheduler.Spec); err != nil {
			return fmt.Errorf("config: scheduler.spec: %w", err)
		}
	}
	if tz := cfg.Scheduler.Timezone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("config: scheduler.timezone: %w", err)
		}
	}
	return nil
}
