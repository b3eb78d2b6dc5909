package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
	"github.com/99minutos/formauth/internal/pkg/metrics"
)

const defaultBootstrapDeadline = 15 * time.Second

// UserRegistry keeps every user record in memory and mirrors the full set to
// the store under ports.UsersKey after each mutation.
type UserRegistry struct {
	store    ports.KeyValueStore
	source   ports.BootstrapSource // nil disables the remote bootstrap
	deadline time.Duration
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRegistry returns an empty registry. Call Load before use. source may
// be nil; deadline bounds the whole bootstrap fetch and defaults to 15s.
func NewUserRegistry(store ports.KeyValueStore, source ports.BootstrapSource, deadline time.Duration, log zerolog.Logger) *UserRegistry {
	if deadline <= 0 {
		deadline = defaultBootstrapDeadline
	}
	return &UserRegistry{
		store:    store,
		source:   source,
		deadline: deadline,
		validate: validator.New(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[string]*domain.User),
	}
}

// Load fills the registry from the bootstrap source, then the persisted
// snapshot, then the default administrator, in that order of preference. The
// registry always holds at least one user afterwards.
func (r *UserRegistry) Load(ctx context.Context) domain.RegistryOrigin {
	origin := r.load(ctx)
	metrics.RegistryLoadsTotal.WithLabelValues(string(origin)).Inc()

	r.mu.RLock()
	n := len(r.users)
	r.mu.RUnlock()
	metrics.RegistryUsers.Set(float64(n))

	r.log.Info().Str("origin", string(origin)).Int("users", n).Msg("user registry loaded")
	return origin
}

func (r *UserRegistry) load(ctx context.Context) domain.RegistryOrigin {
	if users, err := r.fetchBootstrap(ctx); err != nil {
		r.log.Warn().Err(err).Msg("bootstrap unavailable, falling back to local snapshot")
	} else {
		r.replace(users)
		r.persist(ctx)
		return domain.OriginRemote
	}

	if users, err := r.readSnapshot(ctx); err != nil {
		r.log.Warn().Err(err).Msg("no usable user snapshot, seeding default administrator")
	} else {
		r.mu.Lock()
		r.users = users
		r.mu.Unlock()
		return domain.OriginSnapshot
	}

	r.seedDefault()
	r.persist(ctx)
	return domain.OriginDefault
}

func (r *UserRegistry) fetchBootstrap(ctx context.Context) (map[string]domain.BootstrapUser, error) {
	if r.source == nil {
		return nil, fmt.Errorf("%w: no source configured", domain.ErrBootstrapUnavailable)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	start := time.Now()
	users, err := r.source.Fetch(fetchCtx)
	result := "ok"
	if err == nil {
		err = r.checkBootstrap(users)
	}
	if err != nil {
		result = "error"
	}
	metrics.BootstrapFetchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBootstrapUnavailable, err)
	}
	return users, nil
}

// checkBootstrap rejects an empty set and entries without credentials.
func (r *UserRegistry) checkBootstrap(users map[string]domain.BootstrapUser) error {
	if len(users) == 0 {
		return errors.New("empty user set")
	}
	for name, bu := range users {
		if name == "" {
			return errors.New("entry with empty username")
		}
		if err := r.validate.Struct(bu); err != nil {
			return fmt.Errorf("entry %q: %w", name, err)
		}
	}
	return nil
}

func (r *UserRegistry) replace(src map[string]domain.BootstrapUser) {
	now := r.now()
	users := make(map[string]*domain.User, len(src))
	for name, bu := range src {
		perms := bu.Permissions
		if perms == nil {
			perms = []string{}
		}
		users[name] = &domain.User{
			Username:    name,
			Password:    bu.Password,
			DisplayName: bu.DisplayName,
			Role:        bu.Role,
			Permissions: perms,
			Active:      true,
			CreatedAt:   now,
		}
	}

	r.mu.Lock()
	r.users = users
	r.mu.Unlock()
}

func (r *UserRegistry) readSnapshot(ctx context.Context) (map[string]*domain.User, error) {
	raw, err := r.store.Get(ctx, ports.UsersKey)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var list []*domain.User
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	users := make(map[string]*domain.User, len(list))
	for _, u := range list {
		if u == nil || u.Username == "" {
			continue
		}
		if u.Permissions == nil {
			u.Permissions = []string{}
		}
		users[u.Username] = u
	}
	if len(users) == 0 {
		return nil, errors.New("snapshot is empty")
	}
	return users, nil
}

func (r *UserRegistry) seedDefault() {
	admin := &domain.User{
		Username:    domain.DefaultAdminUsername,
		Password:    domain.DefaultAdminPassword,
		DisplayName: domain.DefaultAdminDisplayName,
		Role:        domain.RoleAdmin,
		Permissions: []string{},
		Active:      true,
		CreatedAt:   r.now(),
	}

	r.mu.Lock()
	r.users = map[string]*domain.User{admin.Username: admin}
	r.mu.Unlock()
}

// Save writes the full registry to the store. A failure is reported as
// domain.ErrPersistence; the in-memory state is unaffected.
func (r *UserRegistry) Save(ctx context.Context) error {
	r.mu.RLock()
	b, err := json.Marshal(r.sortedLocked())
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: encode users: %w", domain.ErrPersistence, err)
	}
	if err := r.store.Set(ctx, ports.UsersKey, string(b)); err != nil {
		return fmt.Errorf("%w: write users: %w", domain.ErrPersistence, err)
	}
	return nil
}

// persist is the best-effort Save used after mutations.
func (r *UserRegistry) persist(ctx context.Context) {
	if err := r.Save(ctx); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues(ports.UsersKey).Inc()
		r.log.Warn().Err(err).Str("key", ports.UsersKey).Msg("failed to persist user registry")
	}
}

// Get returns a copy of the named user.
func (r *UserRegistry) Get(username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Len returns the number of records in the registry.
func (r *UserRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// AddUser registers a new active account.
func (r *UserRegistry) AddUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	if err := r.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("add user: %w: %w", domain.ErrInvalidInput, err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	perms := append([]string{}, in.Permissions...)

	r.mu.Lock()
	if _, exists := r.users[in.Username]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("add user %q: %w", in.Username, domain.ErrUserExists)
	}
	u := &domain.User{
		Username:    in.Username,
		Password:    in.Password,
		DisplayName: in.DisplayName,
		Role:        role,
		Permissions: perms,
		Active:      true,
		CreatedAt:   r.now(),
	}
	r.users[u.Username] = u
	out := u.Clone()
	n := len(r.users)
	r.mu.Unlock()

	metrics.RegistryUsers.Set(float64(n))
	r.persist(ctx)
	r.log.Info().Str("username", u.Username).Str("role", u.Role).Msg("user added")
	return out, nil
}

// UpdateUser merges the fields present in patch into the named user.
func (r *UserRegistry) UpdateUser(ctx context.Context, username string, patch domain.UserPatch) (*domain.User, error) {
	if err := r.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("update user: %w: %w", domain.ErrInvalidInput, err)
	}

	r.mu.Lock()
	u, ok := r.users[username]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("update user %q: %w", username, domain.ErrUserNotFound)
	}
	out := r.applyLocked(u, patch)
	r.mu.Unlock()

	r.persist(ctx)
	return out, nil
}

func (r *UserRegistry) applyLocked(u *domain.User, patch domain.UserPatch) *domain.User {
	patch.ApplyTo(u)
	now := r.now()
	u.UpdatedAt = &now
	return u.Clone()
}

// ActivateUser marks the user active.
func (r *UserRegistry) ActivateUser(ctx context.Context, username string) (*domain.User, error) {
	active := true
	return r.UpdateUser(ctx, username, domain.UserPatch{Active: &active})
}

// DeactivateUser marks the user inactive. Records are never removed.
func (r *UserRegistry) DeactivateUser(ctx context.Context, username string) (*domain.User, error) {
	active := false
	return r.UpdateUser(ctx, username, domain.UserPatch{Active: &active})
}

// ChangePassword replaces the password after checking the current one.
// Comparison is plain equality: passwords are stored unhashed.
func (r *UserRegistry) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) (*domain.User, error) {
	patch := domain.UserPatch{Password: &newPassword}
	if err := r.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("change password: %w: %w", domain.ErrInvalidInput, err)
	}

	r.mu.Lock()
	u, ok := r.users[username]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("change password %q: %w", username, domain.ErrUserNotFound)
	}
	if u.Password != oldPassword {
		r.mu.Unlock()
		return nil, fmt.Errorf("change password %q: %w", username, domain.ErrInvalidCredentials)
	}
	out := r.applyLocked(u, patch)
	r.mu.Unlock()

	r.persist(ctx)
	return out, nil
}

// ListUsers returns every record without its password, ordered by username.
// Authorization is the caller's concern.
func (r *UserRegistry) ListUsers() []domain.UserView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.sortedLocked()
	views := make([]domain.UserView, 0, len(list))
	for _, u := range list {
		views = append(views, u.View())
	}
	return views
}

func (r *UserRegistry) sortedLocked() []*domain.User {
	list := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list
}
