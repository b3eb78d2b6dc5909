package ports

import (
	"context"

	"github.com/99minutos/formauth/internal/core/domain"
)

// UserRegistry owns the set of user records.
type UserRegistry interface {
	Load(ctx context.Context) domain.RegistryOrigin
	Save(ctx context.Context) error
	Get(username string) (*domain.User, error)
	AddUser(ctx context.Context, in domain.NewUser) (*domain.User, error)
	UpdateUser(ctx context.Context, username string, patch domain.UserPatch) (*domain.User, error)
	ActivateUser(ctx context.Context, username string) (*domain.User, error)
	DeactivateUser(ctx context.Context, username string) (*domain.User, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) (*domain.User, error)
	ListUsers() []domain.UserView
}
