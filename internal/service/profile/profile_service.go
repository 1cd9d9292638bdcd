package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Domenick1991/travelstore/internal/domain"
	"github.com/Domenick1991/travelstore/internal/gateway"
	"github.com/Domenick1991/travelstore/internal/graphql"
)

var ErrNoChanges = errors.New("no changes were made")

type ProfileUseCase interface {
	GetProfile(ctx context.Context) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, input domain.ProfileInput) (*domain.UserProfile, error)
}

type Gateway interface {
	Query(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts ...gateway.QueryOption) error
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
}

type Session interface {
	UserID() string
	ReplaceToken(ctx context.Context, token string) error
}

type ProfileService struct {
	gateway Gateway
	session Session
	logger  *slog.Logger
}

type ProfileServiceOption func(*ProfileService)

func WithLogger(logger *slog.Logger) ProfileServiceOption {
	return func(s *ProfileService) {
		s.logger = logger
	}
}

func NewProfileService(gw Gateway, session Session, opts ...ProfileServiceOption) *ProfileService {
	s := &ProfileService{gateway: gw, session: session, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProfileService) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	var out struct {
		GetUserProfile *domain.UserProfile `json:"getUserProfile"`
	}
	if err := s.gateway.Query(ctx, graphql.GetUserProfile, graphql.Variables{"userId": userID}, &out); err != nil {
		return nil, err
	}
	if out.GetUserProfile == nil {
		return nil, fmt.Errorf("profile of user %s not found", userID)
	}
	return out.GetUserProfile, nil
}

// UpdateProfile sends only a real change. When the backend re-issues the
// token, the session switches to it.
func (s *ProfileService) UpdateProfile(ctx context.Context, input domain.ProfileInput) (*domain.UserProfile, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	current, err := s.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !changed(*current, input) {
		return nil, ErrNoChanges
	}
	if input.Password == "" {
		input.ConfirmPassword = ""
	}

	var out struct {
		UpdateUserProfile domain.UserProfile `json:"updateUserProfile"`
	}
	err = s.gateway.Mutate(ctx, graphql.UpdateUserProfile, graphql.Variables{
		"userId":      userID,
		"updateInput": input,
	}, &out, gateway.MutateOptions{})
	if err != nil {
		return nil, err
	}

	if token := out.UpdateUserProfile.Token; token != "" {
		if err := s.session.ReplaceToken(ctx, token); err != nil {
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
		s.logger.Info("session token refreshed after profile update", "user_id", userID)
	}
	updated := out.UpdateUserProfile
	updated.Token = ""
	return &updated, nil
}

func (s *ProfileService) userID() (string, error) {
	id := s.session.UserID()
	if id == "" {
		return "", gateway.NewValidationError("userId", "please login to view your profile")
	}
	return id, nil
}

func validate(input domain.ProfileInput) error {
	if input.Email != "" && !strings.Contains(input.Email, "@") {
		return gateway.NewValidationError("email", "must be a valid address")
	}
	if input.Password != input.ConfirmPassword {
		return gateway.NewValidationError("confirmPassword", "passwords do not match")
	}
	return nil
}

func changed(current domain.UserProfile, input domain.ProfileInput) bool {
	return input.Password != "" ||
		input.Email != current.Email ||
		input.FirstName != current.FirstName ||
		input.LastName != current.LastName ||
		input.PhoneNumber != current.PhoneNumber
}

var _ ProfileUseCase = (*ProfileService)(nil)
