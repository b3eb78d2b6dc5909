package ports

import (
	"context"

	"github.com/99minutos/formauth/internal/core/domain"
)

// AuthService is the query surface offered to the UI layer.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Session, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.Session, bool)
	HasRole(ctx context.Context, role string) bool
	IsAdmin(ctx context.Context) bool
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error

	// Admin-gated operations; they fail with domain.ErrForbidden unless the
	// current session belongs to an administrator.
	ListUsersForAdmin(ctx context.Context) ([]domain.UserView, error)
	CreateUser(ctx context.Context, in domain.NewUser) (*domain.UserView, error)
	UpdateUser(ctx context.Context, username string, patch domain.UserPatch) (*domain.UserView, error)
	SetUserActive(ctx context.Context, username string, active bool) (*domain.UserView, error)
}
