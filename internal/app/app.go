// Package app wires the components together and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"weeklybot/internal/broadcast"
	"weeklybot/internal/config"
	"weeklybot/internal/content"
	"weeklybot/internal/discord"
	"weeklybot/internal/dispatch"
	"weeklybot/internal/scheduler"
	"weeklybot/internal/server"
	"weeklybot/internal/sink"
	"weeklybot/internal/storage"
	logx "weeklybot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	bcast *broadcast.Coordinator
	sched *scheduler.Service
	snk   *sink.Discord

	httpSrv *http.Server
	ln      net.Listener

	wg        sync.WaitGroup
	runCancel context.CancelFunc
}

// New loads and validates configuration, then constructs every component.
// All collaborators are threaded in explicitly; nothing reads the
// environment past this point.
func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	// Key validity is enforced at startup; the verifier still fails closed
	// on its own, but a misconfigured deployment should not come up at all.
	pub, err := discord.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("discord public key: %w", err)
	}

	busy, err := cfg.Storage.BusyTimeoutDuration()
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	sheetsTimeout, err := cfg.Sheets.TimeoutDuration()
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	source := content.NewSheets(content.SheetsConfig{
		APIKey:        cfg.Sheets.APIKey,
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		Range:         cfg.Sheets.Range,
		APIBase:       cfg.Sheets.APIBase,
		Timeout:       sheetsTimeout,
	}, log.With(logx.String("comp", "sheets")))

	discordTimeout, err := cfg.Discord.TimeoutDuration()
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	snk := sink.NewDiscord(sink.DiscordConfig{
		BotToken:      cfg.Discord.BotToken,
		ApplicationID: cfg.Discord.ApplicationID,
		APIBase:       cfg.Discord.APIBase,
		Timeout:       discordTimeout,
	}, log.With(logx.String("comp", "discord")))

	bcastCfg, err := broadcastConfig(cfg.Broadcast)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	bcast := broadcast.New(bcastCfg, store, source, snk,
		log.With(logx.String("comp", "broadcast")))

	disp := dispatch.New(store, log.With(logx.String("comp", "dispatch")))

	sched := scheduler.New(scheduler.Config{
		Enabled:  cfg.Scheduler.Enabled,
		Spec:     cfg.Scheduler.Spec,
		Timezone: cfg.Scheduler.Timezone,
	}, func(ctx context.Context) {
		_, _ = bcast.Run(ctx)
	}, log.With(logx.String("comp", "scheduler")))

	srv := server.New(pub, disp, bcast, log.With(logx.String("comp", "http")))

	a := &App{
		cfgMgr: cfgMgr,
		logSvc: logSvc,
		log:    log,
		store:  store,
		bcast:  bcast,
		sched:  sched,
		snk:    snk,
		httpSrv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return a, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Start brings the listener up, registers the slash command, starts the
// optional scheduler, and begins watching the config file.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel

	ln, err := net.Listen("tcp", a.httpSrv.Addr)
	if err != nil {
		cancel()
		return fmt.Errorf("listen %s: %w", a.httpSrv.Addr, err)
	}
	a.ln = ln

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", logx.Err(err))
		}
	}()

	// Command registration mirrors the bot's boot behavior; a failure keeps
	// whatever commands the previous deploy registered.
	cfg := a.cfgMgr.Get()
	if cfg.Discord.ApplicationID != "" {
		regCtx, regCancel := context.WithTimeout(runCtx, 30*time.Second)
		if err := a.snk.RegisterCommands(regCtx); err != nil {
			a.log.Warn("slash command registration failed", logx.Err(err))
		} else {
			a.log.Info("slash commands registered")
		}
		regCancel()
	}

	if err := a.sched.Start(runCtx); err != nil {
		a.log.Error("scheduler start failed", logx.Err(err))
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(runCtx)
	}()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.applyLoop(runCtx)
	}()

	a.log.Info("server started", logx.String("addr", ln.Addr().String()))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	return nil
}

// applyLoop pushes accepted config reloads into the running services.
// Listen address and storage driver changes need a restart and are only
// logged.
func (a *App) applyLoop(ctx context.Context) {
	sub := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok || cfg == nil {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			if bc, err := broadcastConfig(cfg.Broadcast); err == nil {
				a.bcast.Apply(bc)
			}
			if err := a.sched.Apply(ctx, scheduler.Config{
				Enabled:  cfg.Scheduler.Enabled,
				Spec:     cfg.Scheduler.Spec,
				Timezone: cfg.Scheduler.Timezone,
			}); err != nil {
				a.log.Warn("scheduler reconfigure failed", logx.Err(err))
			}
			if cfg.Listen != a.httpSrv.Addr {
				a.log.Warn("listen address change requires restart",
					logx.String("current", a.httpSrv.Addr),
					logx.String("configured", cfg.Listen))
			}
		}
	}
}

// Stop shuts everything down in reverse order of Start.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.sched.Stop()
	if a.runCancel != nil {
		a.runCancel()
	}

	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := a.httpSrv.Shutdown(shutCtx)

	a.wg.Wait()

	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.Error("store close failed", logx.Err(cerr))
		}
	}
	_ = a.logSvc.Close()
	return err
}

func broadcastConfig(c config.BroadcastConfig) (broadcast.Config, error) {
	fetch, err := config.ParseDurationField("broadcast.fetch_timeout", c.FetchTimeout)
	if err != nil {
		return broadcast.Config{}, err
	}
	read, err := config.ParseDurationField("broadcast.read_timeout", c.ReadTimeout)
	if err != nil {
		return broadcast.Config{}, err
	}
	send, err := config.ParseDurationField("broadcast.send_timeout", c.SendTimeout)
	if err != nil {
		return broadcast.Config{}, err
	}
	return broadcast.Config{
		Workers:      c.Workers,
		RatePerSec:   c.RatePerSec,
		Template:     c.Template,
		FetchTimeout: fetch,
		ReadTimeout:  read,
		SendTimeout:  send,
	}, nil
}
