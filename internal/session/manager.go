package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/auth"
	"github.com/sigmatax/console/internal/util"
)

var (
	// ErrExpired is returned by Login when the API hands out an already expired token.
	ErrExpired = errors.New("session expired")
	// ErrProfile is returned when the profile cannot be fetched after login.
	ErrProfile = errors.New("session profile unavailable")
)

// Session is an authenticated browser session. It is the TokenSource for
// API calls made on the user's behalf.
type Session struct {
	ID        string
	SubjectID util.ID
	Role      string
	IsAdmin   bool
	ExpiresAt time.Time
	Profile   api.Profile

	token string
	key   string
}

// Token returns the bearer token.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// DisplayName prefers the profile name over the role.
func (s *Session) DisplayName() string {
	if s.Profile.Name != "" {
		return s.Profile.Name
	}
	return s.Role
}

// Manager creates, restores and destroys sessions.
type Manager struct {
	store  Store
	api    *api.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager wires a store with the unauthenticated API client.
func NewManager(store Store, client *api.Client, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		api:    client,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Login authenticates against the API, loads the profile and persists the session.
func (m *Manager) Login(ctx context.Context, creds api.Credentials) (*Session, error) {
	token, err := m.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if claims.Expired(now) {
		return nil, ErrExpired
	}

	client := m.api.WithSession(api.StaticToken(token))
	profile, err := client.Profile(ctx)
	if err != nil {
		m.logger.Error().Err(err).Str("staff_id", claims.StaffID.String()).Msg("profile fetch failed after login")
		if lerr := client.Logout(ctx); lerr != nil {
			m.logger.Debug().Err(lerr).Msg("remote logout failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}

	raw, hashed, err := auth.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	key := auth.SessionKey(hashed)

	rec := Record{Token: token, Claims: claims, Profile: &profile}
	if err := m.store.Save(ctx, key, rec, claims.ExpiresAtTime().Sub(now)); err != nil {
		return nil, err
	}

	m.logger.Info().Str("staff_id", claims.StaffID.String()).Str("role", claims.Role).Msg("login")
	return newSession(raw, key, rec), nil
}

// Restore rehydrates a session from its cookie value. Expired or unreadable
// entries are removed and reported as ErrNotFound.
func (m *Manager) Restore(ctx context.Context, raw string) (*Session, error) {
	if auth.ValidSessionID(raw) != nil {
		return nil, ErrNotFound
	}
	key := auth.SessionKey(auth.HashSessionID(raw))

	rec, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("discarding unreadable session")
		m.clear(ctx, key)
		return nil, ErrNotFound
	}

	if rec.Claims == nil {
		claims, err := auth.DecodeToken(rec.Token)
		if err != nil {
			m.clear(ctx, key)
			return nil, ErrNotFound
		}
		rec.Claims = claims
	}
	if rec.Claims.Expired(m.now()) {
		m.clear(ctx, key)
		return nil, ErrNotFound
	}

	sess := newSession(raw, key, rec)
	if rec.Profile == nil {
		if err := m.RefreshProfile(ctx, sess); err != nil {
			return nil, ErrNotFound
		}
	}
	return sess, nil
}

// RefreshProfile reloads the extended profile. Failure ends the session.
func (m *Manager) RefreshProfile(ctx context.Context, sess *Session) error {
	profile, err := m.api.WithSession(sess).Profile(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Str("staff_id", sess.SubjectID.String()).Msg("profile refresh failed, ending session")
		m.clear(ctx, sess.key)
		return fmt.Errorf("%w: %v", ErrProfile, err)
	}
	sess.Profile = profile

	claims := &auth.Claims{StaffID: sess.SubjectID, Role: sess.Role, IsAdmin: sess.IsAdmin}
	if decoded, err := auth.DecodeToken(sess.token); err == nil {
		claims = decoded
	}
	rec := Record{Token: sess.token, Claims: claims, Profile: &profile}
	if err := m.store.Save(ctx, sess.key, rec, sess.ExpiresAt.Sub(m.now())); err != nil {
		m.logger.Error().Err(err).Msg("session save after profile refresh failed")
	}
	return nil
}

// Logout invalidates the token remotely when possible and always clears local state.
func (m *Manager) Logout(ctx context.Context, raw string) error {
	if auth.ValidSessionID(raw) != nil {
		return nil
	}
	key := auth.SessionKey(auth.HashSessionID(raw))

	if rec, err := m.store.Load(ctx, key); err == nil && rec.Token != "" {
		if err := m.api.WithSession(api.StaticToken(rec.Token)).Logout(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("remote logout failed")
		}
	}
	return m.store.Delete(ctx, key)
}

// End drops a session after the API rejected its token.
func (m *Manager) End(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	m.clear(ctx, sess.key)
}

// Client returns the API client bound to sess.
func (m *Manager) Client(sess *Session) *api.Client {
	return m.api.WithSession(sess)
}

func (m *Manager) clear(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Error().Err(err).Msg("session delete failed")
	}
}

func newSession(raw, key string, rec Record) *Session {
	s := &Session{
		ID:    raw,
		token: rec.Token,
		key:   key,
	}
	if rec.Claims != nil {
		s.SubjectID = rec.Claims.StaffID
		s.Role = rec.Claims.Role
		s.IsAdmin = rec.Claims.IsAdmin
		s.ExpiresAt = rec.Claims.ExpiresAtTime()
	}
	if rec.Profile != nil {
		s.Profile = *rec.Profile
	}
	return s
}
