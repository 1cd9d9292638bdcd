package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Domenick1991/travelstore/internal/cache"
	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

var ErrNotCancellable = errors.New("booking is already cancelled")

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}

type Gateway interface {
	Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...gateway.QueryOption) error
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
}

type Session interface {
	UserID() string
}

// EntityReader gives the cancel flow the booking as currently cached, so the
// optimistic result keeps everything but the status.
type EntityReader interface {
	ReadEntity(typename, id string, out any) (bool, error)
}

type BookingService struct {
	gateway Gateway
	session Session
	cache   EntityReader
	logger  *slog.Logger
}

type CreateBookingInput struct {
	PackageID string `json:"packageId"`
	Date      string `json:"date"`
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func NewBookingService(gw Gateway, session Session, cache EntityReader, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		gateway: gw,
		session: session,
		cache:   cache,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if input.PackageID == "" {
		return nil, gateway.NewValidationError("packageId", "is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, gateway.NewValidationError("date", "please select a date")
	}

	var out struct {
		CreateBooking domain.Booking `json:"createBooking"`
	}
	err = s.gateway.Mutate(ctx, graphql.CreateBooking, graphql.Variables{
		"packageId": input.PackageID,
		"userId":    userID,
		"date":      input.Date,
	}, &out, gateway.MutateOptions{})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking created", "booking_id", out.CreateBooking.ID, "package_id", input.PackageID)
	return &out.CreateBooking, nil
}

// ListBookings always asks the backend and orders confirmed bookings first,
// newest date first within each group.
func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	var out struct {
		GetBookings []domain.Booking `json:"getBookings"`
	}
	err = s.gateway.Query(ctx, graphql.GetBookings, graphql.Variables{"userId": userID}, &out,
		gateway.WithFetchPolicy(gateway.NetworkOnly))
	if err != nil {
		return nil, err
	}
	return SortForUser(out.GetBookings), nil
}

// CancelBooking shows the booking as cancelled right away and settles on the
// backend's answer. On failure the cached list shows what it did before.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if bookingID == "" {
		return nil, gateway.NewValidationError("bookingId", "is required")
	}

	optimistic := s.optimisticCancel(bookingID, userID)
	if optimistic.Status == domain.BookingStatusCancelled {
		return nil, ErrNotCancellable
	}
	optimistic.Status = domain.BookingStatusCancelled

	listVars := graphql.Variables{"userId": userID}
	var out struct {
		CancelBooking domain.Booking `json:"cancelBooking"`
	}
	err = s.gateway.Mutate(ctx, graphql.CancelBooking, graphql.Variables{
		"bookingId": bookingID,
		"userId":    userID,
	}, &out, gateway.MutateOptions{
		Optimistic:     map[string]any{"cancelBooking": optimistic},
		Update:         patchBookingList(listVars),
		RefetchQueries: []gateway.Refetch{{Op: graphql.GetBookings, Vars: listVars}},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking cancelled", "booking_id", bookingID)
	return &out.CancelBooking, nil
}

// optimisticCancel starts from the cached booking, or from a bare one when
// the booking was never fetched.
func (s *BookingService) optimisticCancel(bookingID, userID string) domain.Booking {
	var current domain.Booking
	if found, err := s.cache.ReadEntity("Booking", bookingID, &current); err != nil || !found {
		current = domain.Booking{ID: bookingID, UserID: userID}
	}
	current.Typename = "Booking"
	return current
}

// patchBookingList swaps the cancelled booking into the cached list of the
// user's bookings without a refetch.
func patchBookingList(listVars graphql.Variables) gateway.UpdateFunc {
	return func(store cache.Store, data json.RawMessage) error {
		var result struct {
			CancelBooking map[string]any `json:"cancelBooking"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("decode cancelBooking: %w", err)
		}
		cancelledID, _ := result.CancelBooking["id"].(string)

		var list struct {
			GetBookings []map[string]any `json:"getBookings"`
		}
		found, err := store.Read(graphql.GetBookings, listVars, &list)
		if err != nil || !found {
			return err
		}
		for i, b := range list.GetBookings {
			if id, _ := b["id"].(string); id == cancelledID {
				list.GetBookings[i] = result.CancelBooking
			}
		}
		return store.Write(graphql.GetBookings, listVars, list)
	}
}

func (s *BookingService) userID() (string, error) {
	id := s.session.UserID()
	if id == "" {
		return "", gateway.NewValidationError("userId", "please login to book a package")
	}
	return id, nil
}

// SortForUser returns a copy with CONFIRMED bookings first, each group
// ordered by booking date, newest first.
func SortForUser(bookings []domain.Booking) []domain.Booking {
	out := slices.Clone(bookings)
	slices.SortStableFunc(out, func(a, b domain.Booking) int {
		ac, bc := a.Status == domain.BookingStatusConfirmed, b.Status == domain.BookingStatusConfirmed
		if ac != bc {
			if ac {
				return -1
			}
			return 1
		}
		return domain.ParseTimestamp(b.Date).Compare(domain.ParseTimestamp(a.Date))
	})
	return out
}

var _ BookingUseCase = (*BookingService)(nil)
