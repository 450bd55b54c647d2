// Package scheduler runs the broadcast on an in-process cron trigger.
//
// It is optional: deployments with an external scheduler hit /cron instead
// and leave this disabled. Trigger semantics stay at-least-once either way.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "weeklybot/pkg/logx"
)

type Config struct {
	Enabled  bool
	Spec     string // 5-field cron expression
	Timezone string // IANA TZ, e.g. "Europe/Amsterdam"
}

// Job is one trigger firing. The service never runs two firings of the same
// job concurrently; cron's default chain skips if the previous is running.
type Job func(ctx context.Context)

type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	parser cron.Parser
	c      *cron.Cron
	job    Job

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		job:    job,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start begins firing the job per the configured spec. No-op when disabled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled {
		return nil
	}
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	if s.c != nil {
		return nil
	}
	spec := strings.TrimSpace(s.cfg.Spec)
	if spec == "" {
		return fmt.Errorf("scheduler spec is empty")
	}
	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("scheduler timezone: %w", err)
		}
		loc = l
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	runCtx := s.runCtx

	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if runCtx.Err() != nil {
			return
		}
		s.log.Info("scheduled broadcast triggered", logx.String("spec", spec))
		s.job(runCtx)
	}); err != nil {
		s.runCancel()
		s.runCtx, s.runCancel = nil, nil
		return fmt.Errorf("scheduler spec: %w", err)
	}
	c.Start()
	s.c = c
	s.log.Info("scheduler started", logx.String("spec", spec), logx.String("tz", loc.String()))
	return nil
}

// Apply reconfigures the trigger at runtime: restart on spec/timezone
// change, stop when disabled.
func (s *Service) Apply(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := cfg != s.cfg
	s.cfg = cfg
	if !changed {
		return nil
	}

	s.stopLocked()
	if !cfg.Enabled {
		s.log.Info("scheduler disabled")
		return nil
	}
	return s.startLocked(ctx)
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	stopCtx := s.c.Stop()
	s.c = nil
	if s.runCancel != nil {
		s.runCancel()
		s.runCtx, s.runCancel = nil, nil
	}
	// Wait briefly for a running job to finish; it also honors runCtx.
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("scheduler stop timed out waiting for running job")
	}
}
