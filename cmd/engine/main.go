// The engine daemon: SQLite store, message bus, embedding result
// consumer, board fetcher, optional reaper and the HTTP API, all
// supervised until shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"jobmatch-engine/internal/auth"
	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/embed"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/fetch"
	"jobmatch-engine/internal/httpapi"
	"jobmatch-engine/internal/jobs"
	"jobmatch-engine/internal/rank"
	"jobmatch-engine/internal/reaper"
	"jobmatch-engine/internal/secrets"
	"jobmatch-engine/internal/store"
	"jobmatch-engine/internal/users"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("engine exited", "error", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if os.Getenv("JOBMATCH_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir := os.Getenv("JOBMATCH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// Single instance per data dir; two engines on one SQLite file
	// would fight over the write lock.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine is already running in %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		return fmt.Errorf("config bootstrap: %w", err)
	}

	var cfgVal atomic.Value // config.Config snapshot, reloadable
	loadCfg := func() (config.Config, error) {
		raw, err := config.Load(userCfgPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg, res := config.NormalizeAndValidate(raw)
		for _, w := range res.Warnings {
			log.Warn("config", "warning", w)
		}
		if !res.OK() {
			return config.Config{}, fmt.Errorf("config invalid: %v", res.Errors)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load (%s): %w", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	// SIGHUP re-reads the config snapshot. Broker and port changes
	// still need a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			next, err := loadCfg()
			if err != nil {
				log.Error("config reload failed, keeping previous", "error", err)
				continue
			}
			cfgVal.Store(next)
			log.Info("config reloaded", "path", userCfgPath)
		}
	}()

	st, err := store.Open(filepath.Join(dataDir, "jobmatch.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	jwtSecret, err := secrets.JWTSecret()
	if err != nil {
		return err
	}
	tokens := auth.NewTokens(jwtSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	hub := events.NewHub()
	pub := embed.NewPublisher(b, log)
	jobSvc := jobs.NewService(st, pub, hub, log)
	userSvc := users.NewService(st, pub, log)
	recommender := rank.NewRecommender(st, log)
	consumer := embed.NewConsumer(st, b, hub, log)

	api := &httpapi.Server{
		Jobs:   jobSvc,
		Users:  userSvc,
		Rank:   recommender,
		Tokens: tokens,
		Hub:    hub,
		Log:    log.With("component", "http"),
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := consumer.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.Fetch.Enabled {
		boards := make([]fetch.Board, 0, len(cfg.Fetch.Boards))
		for _, fb := range cfg.Fetch.Boards {
			boards = append(boards, fetch.Board{Slug: fb.Slug, Name: fb.Name})
		}
		scraper := fetch.NewBoardScraper("", cfg.Fetch.ReqPerSec, cfg.Fetch.Burst)
		fetcher := fetch.New(b, scraper, jobSvc, boards, log)
		g.Go(func() error { return fetcher.Run(ctx) })
	}

	if cfg.Reaper.Enabled {
		rp := reaper.New(st, hub, log,
			time.Duration(cfg.Reaper.PendingTimeoutMinutes)*time.Minute,
			time.Duration(cfg.Reaper.SweepSeconds)*time.Second)
		g.Go(func() error { return rp.Run(ctx) })
	}

	g.Go(func() error {
		log.Info("engine listening", "addr", "http://"+addr, "broker", cfg.Broker.Driver)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

func openBus(cfg config.Config) (bus.Bus, error) {
	switch cfg.Broker.Driver {
	case "nats":
		nc := bus.DefaultNATSConfig()
		nc.URL = cfg.Broker.URL
		nc.Name = cfg.Broker.Name
		nc.User = cfg.Broker.User
		nc.Password = secrets.BrokerPassword()
		nc.BufferSize = cfg.Pipeline.BufferSize
		return bus.NewNATSBus(nc)
	default:
		return bus.NewMemoryBus(bus.Config{BufferSize: cfg.Pipeline.BufferSize}), nil
	}
}
