package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"github.com/dmitrijs2005/nutrinow/internal/observx"
)

// CurrentUserKey is the storage key owned by SessionManager.
const CurrentUserKey = "currentUser"

// SessionManager owns the authenticated user. It is either Anonymous (nil
// user) or Authenticated; every transition is published to subscribers and
// mirrored to the store so it survives a restart.
type SessionManager struct {
	client client.Client
	store  storage.Store
	log    logging.Logger

	user *observx.Subject[*models.User]

	registering inflight
	loggingIn   inflight
	loggingOut  inflight
}

// NewSessionManager seeds the session from the store without touching the
// network. A stored value that does not decode to a complete user is removed.
func NewSessionManager(ctx context.Context, c client.Client, store storage.Store, log logging.Logger) *SessionManager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	s := &SessionManager{
		client: c,
		store:  store,
		log:    log.With("component", "session"),
	}
	s.user = observx.NewSubject(s.restore(ctx))
	return s
}

func (s *SessionManager) restore(ctx context.Context) *models.User {
	raw, ok, err := s.store.Get(ctx, CurrentUserKey)
	if err != nil {
		s.log.Warn(ctx, "failed to read persisted user", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || !u.Complete() {
		s.log.Warn(ctx, "discarding corrupt persisted user", "error", err)
		if err := s.store.Remove(ctx, CurrentUserKey); err != nil {
			s.log.Warn(ctx, "failed to remove persisted user", "error", err)
		}
		return nil
	}
	return &u
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *SessionManager) CurrentUser() *models.User {
	return s.user.Value().Clone()
}

func (s *SessionManager) IsAuthenticated() bool {
	return s.user.Value().Complete()
}

// Subscribe yields the current user immediately and then every change.
// Values must be treated as read-only.
func (s *SessionManager) Subscribe() (<-chan *models.User, func()) {
	return s.user.Subscribe()
}

// Register creates an account. It never changes the session.
func (s *SessionManager) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}
	if !s.registering.begin() {
		return nil, ErrInFlight
	}
	defer s.registering.end()

	resp, err := s.client.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := logicalFailure(resp.Success, resp.Error); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return resp, nil
}

func validateRegistration(reg *models.Registration) error {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)

	switch {
	case reg.FirstName == "":
		return invalid("first_name", "First name is required.")
	case reg.LastName == "":
		return invalid("last_name", "Last name is required.")
	case reg.Email == "":
		return invalid("email", "Email is required.")
	case reg.Password == "":
		return invalid("password", "Password is required.")
	case reg.Confirm != "" && reg.Confirm != reg.Password:
		return invalid("confirm", "Passwords do not match.")
	}
	return nil
}

// Login authenticates and, on success, publishes and persists the user.
// On failure the session is left as it was.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("", "Email and password are required.")
	}
	if !s.loggingIn.begin() {
		return nil, ErrInFlight
	}
	defer s.loggingIn.end()

	resp, err := s.client.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("login: %w", &client.APIError{Status: 200, Message: resp.Error})
	}
	if !resp.User.Complete() {
		return nil, ErrNoUser
	}

	s.setUser(ctx, resp.User.Clone())
	s.log.Info(ctx, "logged in", "user_id", resp.User.ID)
	return resp, nil
}

// Logout ends the session on the backend and always clears it locally, even
// when the request fails; the request error is returned after clearing.
func (s *SessionManager) Logout(ctx context.Context) error {
	if !s.loggingOut.begin() {
		return ErrInFlight
	}
	defer s.loggingOut.end()

	err := s.client.Logout(ctx)
	s.Clear(ctx)
	if err != nil {
		s.log.Warn(ctx, "logout request failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Clear drops the session without a network call.
func (s *SessionManager) Clear(ctx context.Context) {
	s.user.Publish(nil)
	if err := s.store.Remove(ctx, CurrentUserKey); err != nil {
		s.log.Warn(ctx, "failed to remove persisted user", "error", err)
	}
}

func (s *SessionManager) setUser(ctx context.Context, u *models.User) {
	s.user.Publish(u)

	b, err := json.Marshal(u)
	if err != nil {
		s.log.Error(ctx, "failed to encode user", "error", err)
		return
	}
	if err := s.store.Set(ctx, CurrentUserKey, string(b)); err != nil {
		s.log.Warn(ctx, "failed to persist user", "error", err)
	}
}

// logicalFailure reports a 2xx body that still says it failed. Bodies without
// an explicit success flag decode as false, so only an error text counts.
func logicalFailure(success bool, msg string) error {
	if success || strings.TrimSpace(msg) == "" {
		return nil
	}
	return &client.APIError{Status: 200, Message: msg}
}
