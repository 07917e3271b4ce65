package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/rewrapped/internal/repositories"
	"github.com/desertthunder/rewrapped/internal/server"
	"github.com/desertthunder/rewrapped/internal/session"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web app until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or the environment", shared.ErrMissingCredentials)
	}

	config := *r.config
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}
	if driver := cmd.String("driver"); driver != "" {
		config.Session.Driver = driver
	}

	store, closeStore, err := r.openStore(ctx, &config)
	if err != nil {
		return err
	}
	defer closeStore()

	policy := session.NewPolicy(store, r.spotify, &session.PolicyOpts{
		Logger: shared.WithLogger(r.logger, "component", "session"),
	})

	app, err := web.NewApp(r.spotify, policy, r.engine, &web.AppOpts{
		Logger:     shared.WithLogger(r.logger, "component", "web"),
		DefaultNum: config.Stats.DefaultNum,
	})
	if err != nil {
		return fmt.Errorf("failed to create web app: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.RecoverMiddleware(r.logger),
		server.LoggingMiddleware(r.logger),
		server.SessionMiddleware(server.SessionOpts{Secure: config.Server.CookieSecure, MaxAge: config.Session.TTL}),
		server.RateLimitMiddleware(config.Server.LoginRatePerMinute, r.logger, "/login"),
	)
	app.Register(router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("%s http://%s\n", r.palette.Title("Spotify Rewrapped"), config.Server.Addr())
	return server.ListenAndServe(ctx, server.NewHTTPServer(config.Server.Addr(), router), r.logger)
}

// openStore builds the session store selected by session.driver. The returned func releases its resources.
func (r *Runner) openStore(ctx context.Context, config *shared.Config) (session.Store, func(), error) {
	noop := func() {}

	switch config.Session.Driver {
	case shared.DriverMemory, "":
		r.logger.Info("using in-memory session store")
		return session.NewMemoryStore(), noop, nil

	case shared.DriverSQLite:
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open session database: %w", err)
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		if err := shared.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}

		repo := repositories.NewTokenRepository(db)
		if config.Session.TTL > 0 {
			purged, err := repo.PurgeStale(ctx, time.Now().Add(-config.Session.TTL))
			if err != nil {
				r.logger.Warn("failed to purge stale sessions", "error", err)
			} else if purged > 0 {
				r.logger.Info("purged stale sessions", "count", purged)
			}
		}

		r.logger.Info("using sqlite session store", "path", config.Database.Path)
		return repo, func() { db.Close() }, nil

	case shared.DriverRedis:
		client, err := session.NewRedisClient(ctx, session.RedisOpts{
			Addr:     config.Session.RedisAddr,
			Password: config.Session.RedisPassword,
			DB:       config.Session.RedisDB,
		})
		if err != nil {
			return nil, noop, err
		}

		r.logger.Info("using redis session store", "addr", config.Session.RedisAddr)
		return session.NewRedisStore(client, config.Session.TTL), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("%w: unknown session driver %q", shared.ErrInvalidConfig, config.Session.Driver)
	}
}
