package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/Domenick1991/travelstore/config"
	"github.com/Domenick1991/travelstore/internal/bootstrap"
	"github.com/Domenick1991/travelstore/internal/images"
	"github.com/Domenick1991/travelstore/internal/repository"
	"github.com/Domenick1991/travelstore/internal/session"
	"github.com/Domenick1991/travelstore/internal/storefront"
)

func main() {
	cfgPath := pflag.String("config", "", "path to the YAML config (defaults to $CONFIG_PATH, then config.yaml)")
	debug := pflag.Bool("debug", false, "log at debug level")
	pflag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storage session.Storage
	redisClient := repository.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	switch cfg.Session.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		repo := repository.NewSessionRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("migrate sessions: %v", err)
		}
		storage = repo
	case "redis":
		storage = repository.NewRedisSessionRepository(redisClient)
	default:
		storage = session.NewMemoryStorage()
	}

	imageOpts := []images.Option{images.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		ttl := time.Duration(cfg.Images.CacheTTLMinutes) * time.Minute
		imageOpts = append(imageOpts, images.WithCache(images.NewRedisCache(redisClient, ttl)))
	}
	imageClient := images.NewClient(cfg.Images.BaseURL, cfg.Images.AccessKey, imageOpts...)

	registry := storefront.NewRegistry(storage, storefront.Config{
		GraphQLURL:        cfg.GraphQL.HTTPURL,
		WebsocketURL:      cfg.GraphQL.WebsocketURL,
		Timeout:           cfg.GraphQL.Timeout(),
		PollInterval:      cfg.Admin.PollInterval(),
		ReconcileInterval: cfg.Admin.ReconcileInterval(),
	}, storefront.WithImages(imageClient),
		storefront.WithMaxClients(cfg.Session.MaxClients),
		storefront.WithIdleTTL(cfg.Session.IdleTTL()),
		storefront.WithLogger(logger),
	)

	if err := bootstrap.Run(ctx, cfg, registry, logger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
