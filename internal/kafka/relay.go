package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

const DefaultResubscribeDelay = 5 * time.Second

// Notification is what the notifications topic carries for each booking
// event.
type Notification struct {
	Kind      string               `json:"kind"`
	BookingID string               `json:"booking_id"`
	UserID    string               `json:"user_id"`
	PackageID string               `json:"package_id"`
	Date      string               `json:"date"`
	Status    domain.BookingStatus `json:"status"`
}

type Subscriber interface {
	Subscribe(ctx context.Context, op graphql.Operation, vars graphql.Variables, onEvent func(json.RawMessage)) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// Relay forwards the backend's booking subscriptions to Kafka: the raw event
// to the events topic and a Notification to the notifications topic.
type Relay struct {
	subscriber         Subscriber
	publisher          Publisher
	eventsTopic        string
	notificationsTopic string
	resubscribeDelay   time.Duration
	logger             *slog.Logger
}

type RelayOption func(*Relay)

func WithResubscribeDelay(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.resubscribeDelay = d
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(subscriber Subscriber, publisher Publisher, eventsTopic, notificationsTopic string, opts ...RelayOption) *Relay {
	r := &Relay{
		subscriber:         subscriber,
		publisher:          publisher,
		eventsTopic:        eventsTopic,
		notificationsTopic: notificationsTopic,
		resubscribeDelay:   DefaultResubscribeDelay,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run keeps both subscriptions open until ctx ends. A dropped subscription
// is opened again after the resubscribe delay.
func (r *Relay) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.follow(gctx, graphql.BookingCreated, domain.BookingEventCreated)
	})
	g.Go(func() error {
		return r.follow(gctx, graphql.BookingCancelled, domain.BookingEventCancelled)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Relay) follow(ctx context.Context, op graphql.Operation, kind string) error {
	for {
		err := r.subscriber.Subscribe(ctx, op, nil, func(data json.RawMessage) {
			r.forward(ctx, op, kind, data)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("booking subscription ended, resubscribing", "operation", op.Name, "error", err)

		t := time.NewTimer(r.resubscribeDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (r *Relay) forward(ctx context.Context, op graphql.Operation, kind string, data json.RawMessage) {
	var fields map[string]domain.BookingEvent
	if err := json.Unmarshal(data, &fields); err != nil {
		r.logger.Warn("malformed booking event", "operation", op.Name, "error", err)
		return
	}
	event, ok := fields[op.Root]
	if !ok || event.ID == "" {
		r.logger.Warn("booking event without booking", "operation", op.Name)
		return
	}
	event.Type = kind

	if err := r.publisher.Publish(ctx, r.eventsTopic, event.ID, event); err != nil {
		r.logger.Error("publish booking event", "booking_id", event.ID, "error", err)
		return
	}
	if err := r.publisher.Publish(ctx, r.notificationsTopic, event.UserID, Notification{
		Kind:      kind,
		BookingID: event.ID,
		UserID:    event.UserID,
		PackageID: event.PackageID,
		Date:      event.Date,
		Status:    event.Status,
	}); err != nil {
		r.logger.Error("publish booking notification", "booking_id", event.ID, "error", err)
	}
}
