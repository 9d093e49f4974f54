// Package main starts the card game server.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jason-s-yu/cardgames/internal/cache"
	"github.com/jason-s-yu/cardgames/internal/config"
	"github.com/jason-s-yu/cardgames/internal/database"
	"github.com/jason-s-yu/cardgames/internal/game"
	"github.com/jason-s-yu/cardgames/internal/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.SetupLogging(); err != nil {
		log.Fatalf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped.")
	}
}

type sessionStore interface {
	game.Store
	server.Sessions
}

type roster interface {
	game.Roster
	server.Roster
}

// backend is the set of adapters the game and transport layers share.
type backend struct {
	store   sessionStore
	pub     game.Broadcaster
	subs    server.Subscriber
	roster  roster
	journal game.Journal
	history server.History
	close   func()
}

func connectBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, using in-memory store. State is lost on restart.")
		pub := cache.NewMemoryBroadcaster()
		return &backend{
			store:  cache.NewMemoryStore(),
			pub:    pub,
			subs:   pub,
			roster: cache.NewMemoryRoster(),
			close:  func() {},
		}, nil
	}

	rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("Connected to Redis.")
	pub := cache.NewRedisBroadcaster(rdb)
	journal := cache.NewJournal(rdb, cfg.StateTTL)
	return &backend{
		store:   cache.NewRedisStore(rdb, cfg.StateTTL),
		pub:     pub,
		subs:    pub,
		roster:  cache.NewRedisRoster(rdb),
		journal: journal,
		history: journal,
		close: func() {
			if err := rdb.Close(); err != nil {
				log.WithError(err).Warn("Failed to close Redis client.")
			}
		},
	}, nil
}

func run(ctx context.Context, cfg config.Config) error {
	be, err := connectBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	deps := game.Deps{
		Store:       be.store,
		Broadcaster: be.pub,
		Roster:      be.roster,
		Journal:     be.journal,
	}

	var archive *database.ArchiveStore
	if cfg.DatabaseURL != "" {
		archive, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer archive.Close()
		deps.Archive = archive
		log.Info("Archiving finished games to Postgres.")
	}

	hub := game.NewHub(game.NewDispatcher(game.NewEngines(deps)...), cfg.SessionIdleTimeout)
	defer hub.Close()

	auth := server.NewAuthenticator(cfg.JWTSecret)
	if auth.DevMode() {
		log.Warn("JWT_SECRET not set, trusting ?user= for identity.")
	}

	api := server.New(hub, be.store, be.subs, be.roster, auth)
	if archive != nil {
		api.WithResults(archive)
	}
	if be.history != nil {
		api.WithHistory(be.history)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("Listening.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down.")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
