package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/sandeepkv93/focusloop/internal/alarm"
	"github.com/sandeepkv93/focusloop/internal/cloudsync"
	"github.com/sandeepkv93/focusloop/internal/config"
	"github.com/sandeepkv93/focusloop/internal/logging"
	"github.com/sandeepkv93/focusloop/internal/notify"
	"github.com/sandeepkv93/focusloop/internal/state"
	"github.com/sandeepkv93/focusloop/internal/storage"
	"github.com/sandeepkv93/focusloop/internal/timer"
	"github.com/sandeepkv93/focusloop/internal/update"
)

// app holds everything a command needs, wired from config.
type app struct {
	cfg     config.RuntimeConfig
	logger  *slog.Logger
	store   *state.Store
	engine  *timer.Engine
	queue   *update.Announcements
	worker  *alarm.Worker
	events  <-chan alarm.Event
	closers []io.Closer
}

// openApp loads config, opens storage and reconciles persisted timers. The
// alarm worker starts only for long-running commands.
func openApp(ctx context.Context, withAlarm bool) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a := &app{cfg: cfg, queue: &update.Announcements{}}
	logger, logCloser, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, logCloser)

	gw, err := a.openGateway()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = state.NewStore(gw, logger)
	st := a.store.Load(ctx)

	opts := []timer.Option{
		timer.WithSaver(a.store),
		timer.WithAnnouncer(a.queue),
		timer.WithLogger(logger),
	}
	if withAlarm && cfg.AlarmEnabled {
		var notifier notify.DesktopNotifier = notify.NoopDesktopNotifier{}
		if cfg.DesktopNotifications {
			notifier = notify.ExecDesktopNotifier{}
		}
		a.worker = alarm.NewWorker(cfg.SchedulerBuffer, alarm.WithLogger(logger), alarm.WithNotifier(notifier))
		a.events = a.worker.Subscribe()
		a.worker.Start()
		opts = append(opts, timer.WithAlarm(alarm.NewClient(a.worker, logger)))
	}
	a.engine = timer.NewEngine(st, opts...)

	report := a.engine.Reconcile(ctx)
	logger.InfoContext(ctx, "state loaded",
		"store", cfg.Store,
		"tasks", len(st.Tasks),
		"reconciled_completions", report.Completed(),
	)
	return a, nil
}

func (a *app) openGateway() (storage.Gateway, error) {
	switch a.cfg.Store {
	case "file":
		return storage.NewFileStore(afero.NewOsFs(), a.cfg.DataDir), nil
	default:
		db, err := storage.OpenSQLite(a.cfg.DatabasePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		return db, nil
	}
}

func (a *app) remote() cloudsync.Remote {
	if !a.cfg.SyncConfigured() {
		return nil
	}
	return a.gist()
}

func (a *app) gist() *cloudsync.GistClient {
	c := cloudsync.NewGistClient(a.cfg.GistID, a.cfg.GistToken)
	c.BaseURL = a.cfg.GistAPI
	c.FileName = a.cfg.GistFile
	return c
}

func (a *app) sound() notify.Sound {
	if !a.cfg.Bell {
		return notify.NoopSound{}
	}
	return notify.NewBell(os.Stderr)
}

func (a *app) Close() {
	if a.worker != nil {
		a.worker.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}
