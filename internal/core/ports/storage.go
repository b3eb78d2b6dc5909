package ports

import "context"

// Storage keys of the two independent persisted entries.
const (
	UsersKey   = "users"
	SessionKey = "session"
)

// KeyValueStore is the persistence capability the core depends on. Get returns
// domain.ErrKeyNotFound when the key is absent; Remove of an absent key is not
// an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
