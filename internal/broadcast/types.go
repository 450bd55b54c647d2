package broadcast

import (
	"time"
)

// DefaultTemplate is the base weekly message every configured guild gets.
const DefaultTemplate = "W4 Lab Chip and Jewel shop is refreshing + W2 Weekly Boss is resetting."

// bossSectionHeader introduces the optional dynamic section.
const bossSectionHeader = "\n\n**Weekly Boss Battle:**\n"

type Config struct {
	// Workers bounds delivery concurrency. The pool exists to spread a large
	// guild list over a few connections, not to hammer the transport.
	Workers    int
	RatePerSec int

	// Template overrides DefaultTemplate when non-empty.
	Template string

	// Per-stage timeouts so a slow collaborator can't hold a run open.
	FetchTimeout time.Duration
	ReadTimeout  time.Duration
	SendTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	return c
}

// Failure records one guild's delivery failure.
type Failure struct {
	GuildID string
	Err     error
}

// Outcome summarizes a single run. Built fresh each invocation, never
// merged across runs.
type Outcome struct {
	Attempted int
	Succeeded int
	Failures  []Failure
}

func (o Outcome) Failed() int { return len(o.Failures) }
