package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

const (
	DefaultPollInterval      = time.Second
	DefaultReconcileInterval = 30 * time.Second
)

type AdminUseCase interface {
	Users(ctx context.Context) ([]domain.UserProfile, error)
	RemoveUser(ctx context.Context, userID string) (*domain.RemoveUserResult, error)
	Bookings(ctx context.Context) ([]domain.Booking, error)
	Analytics(ctx context.Context) (*domain.AdminAnalytics, error)
	WatchBookings(ctx context.Context, onChange func([]domain.Booking)) error
}

type Gateway interface {
	Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...gateway.QueryOption) error
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
	Subscribe(ctx context.Context, op graphql.Operation, vars graphql.Variables, onEvent func(json.RawMessage)) error
	Poll(ctx context.Context, interval time.Duration, op graphql.Operation, vars graphql.Variables, apply func(json.RawMessage, error))
}

type AdminService struct {
	gateway           Gateway
	cache             cache.Store
	pollInterval      time.Duration
	reconcileInterval time.Duration
	logger            *slog.Logger
}

type AdminServiceOption func(*AdminService)

// WithPollInterval sets how often bookings are polled once the
// subscription channel is gone.
func WithPollInterval(d time.Duration) AdminServiceOption {
	return func(s *AdminService) {
		s.pollInterval = d
	}
}

// WithReconcileInterval sets the slow refresh that runs next to the
// subscriptions to catch anything they missed.
func WithReconcileInterval(d time.Duration) AdminServiceOption {
	return func(s *AdminService) {
		s.reconcileInterval = d
	}
}

func WithLogger(logger *slog.Logger) AdminServiceOption {
	return func(s *AdminService) {
		s.logger = logger
	}
}

func NewAdminService(gw Gateway, store cache.Store, opts ...AdminServiceOption) *AdminService {
	s := &AdminService{
		gateway:           gw,
		cache:             store,
		pollInterval:      DefaultPollInterval,
		reconcileInterval: DefaultReconcileInterval,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AdminService) Users(ctx context.Context) ([]domain.UserProfile, error) {
	var out struct {
		GetAllUsers []domain.UserProfile `json:"getAllUsers"`
	}
	if err := s.gateway.Query(ctx, graphql.GetAllUsers, nil, &out); err != nil {
		return nil, err
	}
	return out.GetAllUsers, nil
}

func (s *AdminService) RemoveUser(ctx context.Context, userID string) (*domain.RemoveUserResult, error) {
	if userID == "" {
		return nil, gateway.NewValidationError("userId", "is required")
	}
	var out struct {
		RemoveUser domain.RemoveUserResult `json:"removeUser"`
	}
	err := s.gateway.Mutate(ctx, graphql.RemoveUser, graphql.Variables{"userId": userID}, &out, gateway.MutateOptions{
		RefetchQueries: []gateway.Refetch{{Op: graphql.GetAllUsers}},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user removed", "user_id", userID)
	return &out.RemoveUser, nil
}

// Bookings lists every booking, most recently created first.
func (s *AdminService) Bookings(ctx context.Context) ([]domain.Booking, error) {
	var out struct {
		GetAllBookings []domain.Booking `json:"getAllBookings"`
	}
	err := s.gateway.Query(ctx, graphql.GetAllBookings, nil, &out, gateway.WithFetchPolicy(gateway.NetworkOnly))
	if err != nil {
		return nil, err
	}
	return SortByCreatedDesc(out.GetAllBookings), nil
}

func (s *AdminService) Analytics(ctx context.Context) (*domain.AdminAnalytics, error) {
	var out struct {
		GetAdminAnalytics domain.AdminAnalytics `json:"getAdminAnalytics"`
	}
	if err := s.gateway.Query(ctx, graphql.GetAdminAnalytics, nil, &out, gateway.WithFetchPolicy(gateway.NetworkOnly)); err != nil {
		return nil, err
	}
	return &out.GetAdminAnalytics, nil
}

// WatchBookings delivers the booking list once and again after every change
// until ctx is done. Changes arrive over the booking subscriptions and are
// patched into the cache; a slow reconciliation poll runs alongside. If a
// subscription drops, polling at the fast interval takes over.
func (s *AdminService) WatchBookings(ctx context.Context, onChange func([]domain.Booking)) error {
	initial, err := s.Bookings(ctx)
	if err != nil {
		return err
	}
	onChange(initial)

	var mu sync.Mutex
	emit := func() {
		var out struct {
			GetAllBookings []domain.Booking `json:"getAllBookings"`
		}
		found, err := s.cache.Read(graphql.GetAllBookings, nil, &out)
		if err != nil || !found {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange(SortByCreatedDesc(out.GetAllBookings))
	}

	var fallback sync.Once
	startFallback := func(gctx context.Context) {
		fallback.Do(func() {
			s.logger.Warn("booking subscription lost, falling back to polling", "interval", s.pollInterval)
			s.gateway.Poll(gctx, s.pollInterval, graphql.GetAllBookings, nil, s.applyPoll(emit))
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.gateway.Subscribe(gctx, graphql.BookingCreated, nil, func(data json.RawMessage) {
			s.onCreated(gctx, data)
			emit()
		})
		if gctx.Err() == nil {
			s.logger.Warn("bookingCreated subscription ended", "error", err)
			startFallback(gctx)
		}
		return nil
	})
	g.Go(func() error {
		err := s.gateway.Subscribe(gctx, graphql.BookingCancelled, nil, func(data json.RawMessage) {
			s.onCancelled(gctx, data)
			emit()
		})
		if gctx.Err() == nil {
			s.logger.Warn("bookingCancelled subscription ended", "error", err)
			startFallback(gctx)
		}
		return nil
	})
	g.Go(func() error {
		s.gateway.Poll(gctx, s.reconcileInterval, graphql.GetAllBookings, nil, s.applyPoll(emit))
		return nil
	})
	return g.Wait()
}

func (s *AdminService) applyPoll(emit func()) func(json.RawMessage, error) {
	return func(_ json.RawMessage, err error) {
		if err != nil {
			s.logger.Warn("booking poll failed", "error", err)
			return
		}
		emit()
	}
}

// onCreated refetches: the event references the package by id only, so the
// list entry cannot be built from it.
func (s *AdminService) onCreated(ctx context.Context, data json.RawMessage) {
	var ev struct {
		BookingCreated domain.BookingEvent `json:"bookingCreated"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn("malformed bookingCreated event", "error", err)
		return
	}
	s.logger.Debug("booking created event", "booking_id", ev.BookingCreated.ID)
	s.refetch(ctx)
}

func (s *AdminService) onCancelled(ctx context.Context, data json.RawMessage) {
	var ev struct {
		BookingCancelled domain.BookingEvent `json:"bookingCancelled"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn("malformed bookingCancelled event", "error", err)
		return
	}
	id := ev.BookingCancelled.ID
	status := ev.BookingCancelled.Status
	if status == "" {
		status = domain.BookingStatusCancelled
	}

	var known map[string]any
	found, err := s.cache.ReadEntity("Booking", id, &known)
	if err != nil || !found {
		s.refetch(ctx)
		return
	}
	if err := s.cache.WriteEntity("Booking", id, map[string]any{"status": status}); err != nil {
		s.logger.Warn("patch cancelled booking", "booking_id", id, "error", err)
	}
}

func (s *AdminService) refetch(ctx context.Context) {
	var raw json.RawMessage
	err := s.gateway.Query(ctx, graphql.GetAllBookings, nil, &raw, gateway.WithFetchPolicy(gateway.NetworkOnly))
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("refetch bookings", "error", err)
	}
}

// SortByCreatedDesc returns a copy ordered by creation time, newest first,
// regardless of status.
func SortByCreatedDesc(bookings []domain.Booking) []domain.Booking {
	out := slices.Clone(bookings)
	slices.SortStableFunc(out, func(a, b domain.Booking) int {
		return domain.ParseTimestamp(b.CreatedAt).Compare(domain.ParseTimestamp(a.CreatedAt))
	})
	return out
}

var _ AdminUseCase = (*AdminService)(nil)
