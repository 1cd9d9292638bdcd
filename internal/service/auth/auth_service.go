package auth

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

// AdminUsername is the account the storefront treats as the administrator.
// The flag only gates navigation; the backend checks the token itself.
const AdminUsername = "admin"

type AuthUseCase interface {
	Login(ctx context.Context, username, password string) (*domain.AuthPayload, error)
	Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthPayload, error)
	Logout(ctx context.Context) error
}

type Gateway interface {
	Mutate(ctx context.Context, op graphql.Operation, vars graphql.Variables, out any, opts gateway.MutateOptions) error
}

type Session interface {
	SetSession(ctx context.Context, token, userID string, isAdmin bool) error
	ClearSession(ctx context.Context) error
}

// Cache is dropped on logout so the next user starts clean.
type Cache interface {
	Reset()
}

type AuthService struct {
	gateway Gateway
	session Session
	cache   Cache
	logger  *slog.Logger
}

type AuthServiceOption func(*AuthService)

func WithLogger(logger *slog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

func NewAuthService(gw Gateway, session Session, cache Cache, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
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

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.AuthPayload, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, gateway.NewValidationError("username", "is required")
	}
	if password == "" {
		return nil, gateway.NewValidationError("password", "is required")
	}

	var out struct {
		Login domain.AuthPayload `json:"login"`
	}
	err := s.gateway.Mutate(ctx, graphql.Login, graphql.Variables{
		"username": username,
		"password": password,
	}, &out, gateway.MutateOptions{})
	if err != nil {
		return nil, err
	}
	if out.Login.Token == "" {
		return nil, errors.New("login response carried no token")
	}

	if err := s.session.SetSession(ctx, out.Login.Token, out.Login.ID, username == AdminUsername); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("user logged in", "user_id", out.Login.ID)
	return &out.Login, nil
}

func (s *AuthService) Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthPayload, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}

	var out struct {
		Register domain.AuthPayload `json:"register"`
	}
	err := s.gateway.Mutate(ctx, graphql.Register, graphql.Variables{
		"registerInput": input,
	}, &out, gateway.MutateOptions{})
	if err != nil {
		return nil, err
	}
	if out.Register.Token == "" {
		return nil, errors.New("register response carried no token")
	}

	// new accounts are never admins
	if err := s.session.SetSession(ctx, out.Register.Token, out.Register.ID, false); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("user registered", "user_id", out.Register.ID)
	return &out.Register, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.ClearSession(ctx); err != nil {
		return err
	}
	s.cache.Reset()
	return nil
}

func validateRegister(input domain.RegisterInput) error {
	switch {
	case strings.TrimSpace(input.Username) == "":
		return gateway.NewValidationError("username", "is required")
	case !strings.Contains(input.Email, "@"):
		return gateway.NewValidationError("email", "must be a valid address")
	case input.Password == "":
		return gateway.NewValidationError("password", "is required")
	case input.Password != input.ConfirmPassword:
		return gateway.NewValidationError("confirmPassword", "passwords do not match")
	}
	return nil
}

var _ AuthUseCase = (*AuthService)(nil)
