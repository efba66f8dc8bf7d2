package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-snapgraph/internal/config"
	"backend-snapgraph/internal/db"
	"backend-snapgraph/internal/events"
	"backend-snapgraph/internal/server"
	"backend-snapgraph/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	initTracer      func(context.Context, config.Config) (func(context.Context) error, error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	migrate         func(context.Context, *pgxpool.Pool) error
	connectRedis    func(config.Config) *redis.Client
	connectNats     func(string) (*nats.Conn, error)
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, *nats.Conn, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		initTracer:      telemetry.InitTracer,
		connectPostgres: db.ConnectPostgres,
		migrate:         db.Migrate,
		connectRedis:    db.ConnectRedis,
		connectNats:     events.Connect,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	ctx := context.Background()
	cfg := deps.loadConfig()
	slog.SetDefault(telemetry.NewLogger(cfg, os.Stdout))

	shutdownTracer, err := deps.initTracer(ctx, cfg)
	if err != nil {
		slog.Error("tracer setup failed", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		slog.Error("postgres connection failed", "error", err)
	} else if cfg.MigrateOnStart {
		if err := deps.migrate(ctx, pg); err != nil {
			slog.Error("migrations failed", "error", err)
		}
	}

	rdb := deps.connectRedis(cfg)

	nc, err := deps.connectNats(cfg.NatsURL)
	if err != nil {
		slog.Warn("nats unavailable, events stay in-process", "error", err)
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(ctx, cfg, pg, rdb, nc, signals, nil); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, nc *nats.Conn, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, pg, rdb, nc)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if err := srv.Close(); err != nil {
		slog.Warn("stream hub close failed", "error", err)
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if nc != nil {
		_ = nc.FlushTimeout(time.Second)
		nc.Close()
	}
	slog.Info("server stopped")
	return nil
}
