package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
	"github.com/99minutos/formauth/internal/pkg/metrics"
)

// SessionManager holds the single session slot of the process. The store entry
// under ports.SessionKey is the only copy; every check reads it.
type SessionManager struct {
	store ports.KeyValueStore
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time

	mu sync.Mutex
}

// NewSessionManager returns a manager whose sessions slide by ttl on every
// successful validation. ttl defaults to 24h.
func NewSessionManager(store ports.KeyValueStore, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &SessionManager{
		store: store,
		ttl:   ttl,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the sliding window applied on issue and validation.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue replaces whatever session exists with a new one for user. A session
// that cannot be written is not kept: the error wraps domain.ErrPersistence.
func (m *SessionManager) Issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	s := domain.NewSession(user, m.now(), m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeLocked(ctx, s); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	m.log.Info().Str("username", s.Username).Time("expires_at", s.ExpiresAt).Msg("session issued")
	return s.Clone(), nil
}

// Validate checks the persisted session. A live session is extended to
// now+ttl and re-persisted; an expired or unreadable one is cleared.
func (m *SessionManager) Validate(ctx context.Context) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, ports.SessionKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			metrics.PersistenceFailuresTotal.WithLabelValues(ports.SessionKey).Inc()
			m.log.Warn().Err(err).Str("key", ports.SessionKey).Msg("failed to read session")
		}
		metrics.SessionValidationsTotal.WithLabelValues("absent").Inc()
		return nil, false
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable session")
		m.clearLocked(ctx)
		metrics.SessionValidationsTotal.WithLabelValues("corrupt").Inc()
		return nil, false
	}

	now := m.now()
	if !s.ValidAt(now) {
		m.log.Info().Str("username", s.Username).Msg("session expired")
		m.clearLocked(ctx)
		metrics.SessionValidationsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}

	s.ExpiresAt = now.Add(m.ttl)
	if err := m.writeLocked(ctx, &s); err != nil {
		// The stored expiry is still in the future, so the session stays valid.
		m.log.Warn().Err(err).Str("username", s.Username).Msg("failed to extend session")
	}
	metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
	return s.Clone(), true
}

// Current returns the session when Validate reports it valid.
func (m *SessionManager) Current(ctx context.Context) (*domain.Session, bool) {
	return m.Validate(ctx)
}

// Revoke drops the session. It is idempotent; a failing store delete is
// reported as domain.ErrPersistence.
func (m *SessionManager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(ctx, ports.SessionKey); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues(ports.SessionKey).Inc()
		return fmt.Errorf("revoke session: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (m *SessionManager) writeLocked(ctx context.Context, s *domain.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode session: %w", domain.ErrPersistence, err)
	}
	if err := m.store.Set(ctx, ports.SessionKey, string(b)); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues(ports.SessionKey).Inc()
		return fmt.Errorf("%w: write session: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (m *SessionManager) clearLocked(ctx context.Context) {
	if err := m.store.Remove(ctx, ports.SessionKey); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues(ports.SessionKey).Inc()
		m.log.Warn().Err(err).Str("key", ports.SessionKey).Msg("failed to clear session")
	}
}
