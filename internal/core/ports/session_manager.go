package ports

import (
	"context"

	"github.com/99minutos/formauth/internal/core/domain"
)

// SessionManager owns the single current session of the process.
type SessionManager interface {
	Issue(ctx context.Context, user *domain.User) (*domain.Session, error)
	// Validate reports whether a live session exists, extending it if so.
	Validate(ctx context.Context) (*domain.Session, bool)
	Current(ctx context.Context) (*domain.Session, bool)
	Revoke(ctx context.Context) error
}
