package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sandeepkv93/taskcal/internal/config"
	"github.com/sandeepkv93/taskcal/internal/logging"
	"github.com/sandeepkv93/taskcal/internal/storage"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

// session is an opened task service plus everything that must be released
// when the command finishes.
type session struct {
	cfg     config.Config
	svc     *todo.Service
	logger  *slog.Logger
	loc     *time.Location
	closers []func() error
}

type sessionOptions struct {
	// logTo sends text logs to this writer instead of the configured file.
	logTo io.Writer
	// live ignores --today so reminders follow the wall clock.
	live bool
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: flags.configPath})
	if err != nil {
		return config.Config{}, err
	}
	if flags.store != "" {
		cfg.Storage.Backend = flags.store
	}
	if flags.today != "" {
		cfg.Today = flags.today
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openSession(ctx context.Context, flags *globalFlags, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	if opts.logTo != nil {
		s.logger = logging.Text(opts.logTo, cfg.Log.Level)
	} else {
		logger, closeLog, err := logging.File(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		s.logger = logger
		s.closers = append(s.closers, closeLog)
	}

	loc, err := cfg.TimeZone()
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.loc = loc
	now, err := clockFor(cfg, loc, opts.live)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}

	backend, err := cfg.Backend()
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	adapter, closeStore, err := storage.Open(ctx, backend, cfg.Location(), loc)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.closers = append(s.closers, closeStore)

	delay, err := cfg.SaveDelay()
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.svc = todo.NewService(adapter, todo.Options{
		Mode:     cfg.SaveMode(),
		Delay:    delay,
		Logger:   s.logger,
		Now:      now,
		Location: loc,
	})
	if err := s.svc.Open(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.logger.Debug("session opened", "backend", string(backend), "location", cfg.Location())
	return s, nil
}

// clockFor pins the clock to noon of the configured override date.
func clockFor(cfg config.Config, loc *time.Location, live bool) (func() time.Time, error) {
	override, err := cfg.TodayOverride()
	if err != nil {
		return nil, err
	}
	if override == nil || live {
		return func() time.Time { return time.Now().UTC() }, nil
	}
	pinned := override.In(loc).Add(12 * time.Hour).UTC()
	return func() time.Time { return pinned }, nil
}

// Close flushes pending saves and releases the store and log file.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if s.svc != nil {
		if err := s.svc.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
