package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
	"github.com/99minutos/formauth/internal/pkg/metrics"
)

// AuthService implements login, logout and role checks on top of the user
// registry and the session slot.
type AuthService struct {
	users    ports.UserRegistry
	sessions ports.SessionManager
	log      zerolog.Logger
}

func NewAuthService(users ports.UserRegistry, sessions ports.SessionManager, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, log: log}
}

// Authenticate checks the credentials and, on success, opens a new session
// replacing any previous one.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := s.users.Get(username)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("user_not_found").Inc()
		return nil, err
	}
	if !user.Active {
		metrics.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrUserInactive
	}
	// Plaintext comparison; see domain.DefaultAdminPassword.
	if user.Password != password {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		s.log.Info().Str("username", username).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.Issue(ctx, user)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return session, nil
}

// Logout revokes the current session.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Revoke(ctx); err != nil {
		s.log.Warn().Err(err).Msg("logout: session revoke failed")
		return err
	}
	return nil
}

// CurrentUser returns the live session, extending it.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.Session, bool) {
	return s.sessions.Current(ctx)
}

// HasRole reports whether a valid session exists with exactly this role.
func (s *AuthService) HasRole(ctx context.Context, role string) bool {
	session, ok := s.sessions.Current(ctx)
	return ok && session.Role == role
}

func (s *AuthService) IsAdmin(ctx context.Context) bool {
	return s.HasRole(ctx, domain.RoleAdmin)
}

// ChangePassword delegates to the registry.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if _, err := s.users.ChangePassword(ctx, username, oldPassword, newPassword); err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("password changed")
	return nil
}

// ListUsersForAdmin returns the redacted user list to an administrator.
func (s *AuthService) ListUsersForAdmin(ctx context.Context) ([]domain.UserView, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.users.ListUsers(), nil
}

// CreateUser registers a user on behalf of an administrator.
func (s *AuthService) CreateUser(ctx context.Context, in domain.NewUser) (*domain.UserView, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	u, err := s.users.AddUser(ctx, in)
	if err != nil {
		return nil, err
	}
	v := u.View()
	return &v, nil
}

// UpdateUser applies patch on behalf of an administrator.
func (s *AuthService) UpdateUser(ctx context.Context, username string, patch domain.UserPatch) (*domain.UserView, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("update user: %w: empty patch", domain.ErrInvalidInput)
	}
	u, err := s.users.UpdateUser(ctx, username, patch)
	if err != nil {
		return nil, err
	}
	v := u.View()
	return &v, nil
}

// SetUserActive activates or deactivates a user on behalf of an administrator.
func (s *AuthService) SetUserActive(ctx context.Context, username string, active bool) (*domain.UserView, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var (
		u   *domain.User
		err error
	)
	if active {
		u, err = s.users.ActivateUser(ctx, username)
	} else {
		u, err = s.users.DeactivateUser(ctx, username)
	}
	if err != nil {
		return nil, err
	}
	v := u.View()
	return &v, nil
}

func (s *AuthService) requireAdmin(ctx context.Context) error {
	session, ok := s.sessions.Current(ctx)
	if !ok {
		return fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrNoSession)
	}
	if session.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
