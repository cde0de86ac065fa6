// Package session holds the authenticated storefront identity and its
// tokens, persists them across restarts, and clears them on logout or
// when the API rejects the access token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// ErrNoSession is returned by Init when nothing was persisted.
var ErrNoSession = errors.New("no persisted session")

// Session is the explicit replacement for app-wide auth state. Pass it to
// the components that need identity. Safe for concurrent use.
type Session struct {
	auth   backend.Auth
	store  Persister
	logger *slog.Logger

	mu      sync.RWMutex
	user    *model.User
	access  string
	refresh string
}

// New creates an empty session. Call Init to restore a persisted one.
func New(auth backend.Auth, store Persister, logger *slog.Logger) *Session {
	if store == nil {
		store = &MemoryPersister{}
	}
	return &Session{auth: auth, store: store, logger: logger}
}

// Init restores a persisted user and token optimistically, then verifies
// them with one profile fetch. A verification failure clears everything.
func (s *Session) Init(ctx context.Context) error {
	fields, err := s.store.Load()
	if err != nil {
		s.logger.Warn("discarding unreadable session", slog.String("error", err.Error()))
		s.Logout()
		return err
	}

	userJSON, access := fields[KeyUser], fields[KeyAccessToken]
	if userJSON == "" || access == "" {
		if len(fields) > 0 {
			s.Logout()
		}
		return ErrNoSession
	}

	var user model.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		s.logger.Warn("discarding corrupt session user", slog.String("error", err.Error()))
		s.Logout()
		return fmt.Errorf("parsing persisted user: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.access = access
	s.refresh = fields[KeyRefreshToken]
	s.mu.Unlock()

	verified, err := s.auth.Profile(ctx)
	if err != nil {
		s.logger.Info("persisted session rejected", slog.String("error", err.Error()))
		s.Logout()
		return fmt.Errorf("verifying session: %w", err)
	}
	return s.setUser(verified)
}

// Login exchanges credentials for tokens, then fetches the profile once.
// The profile is the source of truth for the user; if it cannot be
// fetched the half-established session is cleared.
func (s *Session) Login(ctx context.Context, email, password string) (*model.User, error) {
	tokens, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, model.NewUpstreamError("storefront API", errors.New("login returned no access token"))
	}

	s.mu.Lock()
	s.user = nil
	s.access = tokens.AccessToken
	s.refresh = tokens.RefreshToken
	s.mu.Unlock()
	if err := s.persist(); err != nil {
		s.Logout()
		return nil, err
	}

	user, err := s.auth.Profile(ctx)
	if err != nil {
		s.Logout()
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if err := s.setUser(user); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", slog.Int("user_id", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

// Register creates the account, then logs in with the same credentials.
func (s *Session) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if _, err := s.auth.Register(ctx, name, email, password); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// Refresh re-fetches the profile and persists the updated user.
func (s *Session) Refresh(ctx context.Context) (*model.User, error) {
	if !s.IsAuthenticated() {
		return nil, model.NewUnauthorizedError("not logged in")
	}
	user, err := s.auth.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.setUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile saves name and phone, then refreshes the session user.
func (s *Session) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	if !s.IsAuthenticated() {
		return nil, model.NewUnauthorizedError("not logged in")
	}
	if _, err := s.auth.UpdateProfile(ctx, update); err != nil {
		return nil, err
	}
	return s.Refresh(ctx)
}

// Logout clears memory and persisted state unconditionally. It never
// talks to the server.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("clearing persisted session", slog.String("error", err.Error()))
	}
}

// HandleUnauthorized is the API client's 401 hook. It clears the session
// only if the rejected token is still the current one, so a late 401 from
// a previous login cannot log out a fresh one.
func (s *Session) HandleUnauthorized(token string) {
	s.mu.RLock()
	current := s.access
	s.mu.RUnlock()
	if token == "" || token != current {
		return
	}
	s.logger.Info("access token rejected; clearing session")
	s.Logout()
}

// AccessToken implements api.TokenSource.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the stored refresh token. The API has no refresh
// endpoint, so it is only persisted.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// User returns a copy of the current user, or nil when logged out.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether an access token is held.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// IsAdmin reports whether the current user has the ADMIN role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == model.RoleAdmin
}

// ExpiresAt decodes the access token's exp claim without verifying the
// signature. ok is false when there is no token or no exp.
func (s *Session) ExpiresAt() (t time.Time, ok bool) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (s *Session) setUser(user *model.User) error {
	s.mu.Lock()
	u := *user
	s.user = &u
	s.mu.Unlock()
	return s.persist()
}

func (s *Session) persist() error {
	s.mu.RLock()
	fields := map[string]string{
		KeyAccessToken:  s.access,
		KeyRefreshToken: s.refresh,
	}
	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	s.mu.RUnlock()

	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		fields[KeyUser] = string(data)
	}
	if err := s.store.Save(fields); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}
