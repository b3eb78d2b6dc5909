package ports

import (
	"context"

	"github.com/99minutos/formauth/internal/core/domain"
)

// BootstrapSource provides the initial user set, keyed by username.
type BootstrapSource interface {
	Fetch(ctx context.Context) (map[string]domain.BootstrapUser, error)
}
