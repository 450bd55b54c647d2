// Package broadcast fans the weekly message out to every configured guild.
//
// The central correctness property is failure isolation: one guild's
// delivery failure is recorded, never propagated, and never blocks delivery
// to the remaining guilds. Only the bulk config read may abort a run.
package broadcast

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"weeklybot/internal/content"
	"weeklybot/internal/sink"
	"weeklybot/internal/storage"
	logx "weeklybot/pkg/logx"
)

type Coordinator struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	store  storage.Store
	source content.Source
	sink   sink.Sink
	log    logx.Logger
}

func New(cfg Config, store storage.Store, source content.Source, snk sink.Sink, log logx.Logger) *Coordinator {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	return &Coordinator{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		store:   store,
		source:  source,
		sink:    snk,
		log:     log,
	}
}

// Apply swaps runtime knobs. Safe against a concurrent Run.
func (c *Coordinator) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	c.mu.Lock()
	c.cfg = cfg
	c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	c.mu.Unlock()
}

// Run executes one broadcast: fetch content (fallback on failure), read all
// guild configs (fatal on failure), deliver to each configured channel with
// at most one attempt per guild.
func (c *Coordinator) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	c.mu.Lock()
	cfg := c.cfg
	lim := c.limiter
	c.mu.Unlock()

	boss := c.fetchContent(ctx, cfg)

	readCtx, cancel := context.WithTimeout(ctx, cfg.ReadTimeout)
	configs, err := c.store.ReadAll(readCtx)
	cancel()
	if err != nil {
		// Nothing meaningful to broadcast without recipients.
		c.log.Error("config read failed, aborting run", logx.Err(err))
		return Outcome{}, err
	}

	// Skip unconfigured guilds up front; they are not attempts.
	targets := configs[:0:0]
	for _, g := range configs {
		if g.ChannelID == "" {
			c.log.Debug("skipping unconfigured guild", logx.String("guild", g.GuildID))
			continue
		}
		targets = append(targets, g)
	}

	c.log.Info("broadcast run started",
		logx.Int("configured", len(configs)),
		logx.Int("targets", len(targets)),
		logx.Int("workers", cfg.Workers))

	// Per-index results keep the outcome deterministic and race-free:
	// workers write disjoint slots, the reduce below happens after Wait.
	results := make([]error, len(targets))
	idxCh := make(chan int)

	var wg sync.WaitGroup
	workers := cfg.Workers
	if workers > len(targets) {
		workers = len(targets)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idxCh {
				results[i] = c.sendOne(ctx, lim, cfg, targets[i], boss)
			}
		}()
	}
	for i := range targets {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	out := Outcome{Attempted: len(targets)}
	for i, err := range results {
		if err != nil {
			out.Failures = append(out.Failures, Failure{GuildID: targets[i].GuildID, Err: err})
			continue
		}
		out.Succeeded++
	}

	fields := []logx.Field{
		logx.Int("attempted", out.Attempted),
		logx.Int("succeeded", out.Succeeded),
		logx.Int("failed", out.Failed()),
		logx.Duration("took", time.Since(start)),
	}
	if out.Failed() > 0 {
		c.log.Warn("broadcast run finished with failures", fields...)
	} else {
		c.log.Info("broadcast run finished", fields...)
	}
	return out, nil
}

func (c *Coordinator) fetchContent(ctx context.Context, cfg Config) string {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	boss, err := c.source.Fetch(fetchCtx)
	if err != nil {
		c.log.Warn("content fetch failed, using fallback", logx.Err(err))
		return content.Fallback
	}
	return boss
}

// sendOne makes the single delivery attempt for one guild. The returned
// error is recorded, never raised.
func (c *Coordinator) sendOne(ctx context.Context, lim *rate.Limiter, cfg Config, g storage.TenantConfig, boss string) error {
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}

	body := cfg.Template
	if g.ShowBossBattle {
		body += bossSectionHeader + boss
	}

	sendCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()
	if err := c.sink.Send(sendCtx, g.ChannelID, body); err != nil {
		c.log.Warn("delivery failed",
			logx.String("guild", g.GuildID),
			logx.String("channel", g.ChannelID),
			logx.Err(err))
		return err
	}
	return nil
}
