package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/travelstore/config"
	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/email"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/kafka"
	"github.com/Domenick1991/travelstore/internal/session"
)

func main() {
	cfgPath := pflag.String("config", "", "path to the YAML config (defaults to $CONFIG_PATH, then config.yaml)")
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
	if cfg.GraphQL.WebsocketURL == "" {
		log.Fatalf("graphql.websocket_url is required by the worker")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// booking subscriptions need no credentials
	store, err := session.Open(ctx, session.NewMemoryStorage(), "worker")
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	gw := gateway.New(cfg.GraphQL.HTTPURL, store, cache.New(),
		gateway.WithWebsocketURL(cfg.GraphQL.WebsocketURL),
		gateway.WithLogger(logger),
	)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.WithLogger(logger))
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Fatalf("kafka: %v", err)
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic,
		kafka.WithConsumerLogger(logger))
	defer consumer.Close()

	relay := kafka.NewRelay(gw, producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic,
		kafka.WithRelayLogger(logger))
	sender := email.NewSender(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		err := consumer.Consume(gctx, sender.Send)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})

	logger.Info("worker started", "events_topic", cfg.Kafka.BookingEventsTopic, "notifications_topic", cfg.Kafka.NotificationsTopic)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker stopped: %v", err)
	}
	logger.Info("worker stopped")
}
