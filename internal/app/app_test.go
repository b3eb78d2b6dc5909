package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
	"github.com/99minutos/formauth/internal/pkg/config"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	a, err := New(context.Background(), loadConfig(t, env), zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew_MemoryBackendSeedsAdmin(t *testing.T) {
	a := newApp(t, map[string]string{"STORAGE_BACKEND": "memory"})

	if a.Origin != domain.OriginDefault {
		t.Fatalf("expected default origin, got %q", a.Origin)
	}
	if _, err := a.Auth.Authenticate(context.Background(), domain.DefaultAdminUsername, domain.DefaultAdminPassword); err != nil {
		t.Fatalf("default admin login: %v", err)
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNew_FileBackendSurvivesRestart(t *testing.T) {
	env := map[string]string{"STORAGE_BACKEND": "file", "STORAGE_DIR": t.TempDir()}
	ctx := context.Background()

	first := newApp(t, env)
	if _, err := first.Users.AddUser(ctx, domain.NewUser{Username: "clerk", Password: "pw"}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if _, err := first.Auth.Authenticate(ctx, "clerk", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second := newApp(t, env)
	if second.Origin != domain.OriginSnapshot {
		t.Fatalf("expected snapshot origin after restart, got %q", second.Origin)
	}
	cur, ok := second.Auth.CurrentUser(ctx)
	if !ok || cur.Username != "clerk" {
		t.Fatalf("expected session to survive restart, got %+v", cur)
	}
}

func TestNew_BootstrapFromSeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "users.yaml")
	writeFile(t, seed, "users:\n  inspector:\n    password: pw\n    role: inspector\n")

	a := newApp(t, map[string]string{"STORAGE_BACKEND": "memory", "BOOTSTRAP_URL": seed})
	if a.Origin != domain.OriginRemote {
		t.Fatalf("expected remote origin, got %q", a.Origin)
	}
	if _, err := a.Users.Get("inspector"); err != nil {
		t.Fatalf("expected bootstrapped user: %v", err)
	}
	if _, err := a.Store.Get(context.Background(), ports.UsersKey); err != nil {
		t.Fatalf("expected bootstrapped set to be persisted: %v", err)
	}
}

func TestNew_SQLiteBackend(t *testing.T) {
	a := newApp(t, map[string]string{
		"STORAGE_BACKEND": "sqlite",
		"SQLITE_PATH":     filepath.Join(t.TempDir(), "formauth.db"),
	})
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := a.Store.Get(context.Background(), ports.UsersKey); err != nil {
		t.Fatalf("expected seeded users row: %v", err)
	}
}

func TestNew_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newApp(t, map[string]string{"STORAGE_BACKEND": "redis", "REDIS_ADDR": mr.Addr()})

	if !mr.Exists("formauth:" + ports.UsersKey) {
		t.Fatalf("expected users key under default prefix, keys: %v", mr.Keys())
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := loadConfig(t, map[string]string{"STORAGE_BACKEND": "redis", "REDIS_ADDR": addr})
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected connect error")
	}
}
