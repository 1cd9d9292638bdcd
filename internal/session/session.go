// Package session keeps the per-client auth state: token, user id and the
// admin flag. The flag is a hint for gating navigation only; the backend
// re-derives privileges from the token on every privileged call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoUser = errors.New("no user in session")

// Session is a point-in-time copy of the store.
type Session struct {
	Token   string
	UserID  string
	IsAdmin bool
}

type Store struct {
	mu       sync.RWMutex
	clientID string
	storage  Storage
	entries  map[string]string
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads the persisted entries of clientID.
func Open(ctx context.Context, storage Storage, clientID string, opts ...Option) (*Store, error) {
	entries, err := storage.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", clientID, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	s := &Store{
		clientID: clientID,
		storage:  storage,
		entries:  entries,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) ClientID() string { return s.clientID }

// SetSession persists all three entries in a single storage write. The
// in-memory view only changes once the write succeeded.
func (s *Store) SetSession(ctx context.Context, token, userID string, isAdmin bool) error {
	if token == "" {
		return errors.New("token is required")
	}
	entries := map[string]string{
		KeyToken:   token,
		KeyUserID:  userID,
		KeyIsAdmin: strconv.FormatBool(isAdmin),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Save(ctx, s.clientID, entries); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.entries = entries
	return nil
}

// ReplaceToken swaps the token and keeps user id and admin flag, as after a
// profile update that re-issues the token.
func (s *Store) ReplaceToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	entries[KeyToken] = token
	if err := s.storage.Save(ctx, s.clientID, entries); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.entries = entries
	return nil
}

// ClearSession removes every entry. Clearing an empty session is a no-op.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Delete(ctx, s.clientID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.entries = make(map[string]string)
	return nil
}

// IsAuthenticated is true while a token is present and, when the token is a
// JWT, it has not expired. Opaque tokens count as present. An expired token is
// cleared from the store as soon as it is seen.
func (s *Store) IsAuthenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	if !s.expired(token) {
		return true
	}
	if _, err := s.Validate(context.Background()); err != nil {
		s.logger.Warn("failed to clear expired session", "client_id", s.clientID, "error", err)
	}
	return false
}

// IsAdmin is true only for the exact stored value "true".
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[KeyIsAdmin] == "true"
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[KeyToken]
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[KeyUserID]
}

// RequireUserID returns the stored user id or ErrNoUser.
func (s *Store) RequireUserID() (string, error) {
	if id := s.UserID(); id != "" {
		return id, nil
	}
	return "", ErrNoUser
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		Token:   s.entries[KeyToken],
		UserID:  s.entries[KeyUserID],
		IsAdmin: s.entries[KeyIsAdmin] == "true",
	}
}

// Validate clears the session when its token has expired. It reports whether
// the session was cleared.
func (s *Store) Validate(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.entries[KeyToken]
	if token == "" || !s.expired(token) {
		return false, nil
	}
	s.logger.Info("session token expired, clearing", "client_id", s.clientID)
	if err := s.storage.Delete(ctx, s.clientID); err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}
	s.entries = make(map[string]string)
	return true, nil
}

func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(s.now())
}
