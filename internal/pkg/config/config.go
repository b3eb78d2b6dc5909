package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR,  default=127.0.0.1:8080"`
	Env       string `env:"ENV,        default=production"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	Storage   StorageConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
}

type StorageConfig struct {
	Backend    string `env:"STORAGE_BACKEND,    default=file"`
	Dir        string `env:"STORAGE_DIR,        default=./data"`
	SQLitePath string `env:"SQLITE_PATH,        default=./data/formauth.db"`
	KeyPrefix  string `env:"STORAGE_KEY_PREFIX, default=formauth"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=formauth"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type BootstrapConfig struct {
	// URL is an http(s) URL, a file:// URL or a path. Empty disables the
	// bootstrap fetch.
	URL      string        `env:"BOOTSTRAP_URL"`
	Timeout  time.Duration `env:"BOOTSTRAP_TIMEOUT,  default=5s"`
	Attempts int           `env:"BOOTSTRAP_ATTEMPTS, default=1"`
	Deadline time.Duration `env:"BOOTSTRAP_DEADLINE, default=15s"`
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development":
		return true
	}
	return false
}

// Load reads configuration from the process environment. When ENV is
// "development" a .env file in the working directory is applied first;
// variables already set take precedence.
func Load(ctx context.Context) (*Config, error) {
	switch strings.ToLower(os.Getenv("ENV")) {
	case "dev", "development":
		_ = godotenv.Load()
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendFile, BackendMemory, BackendSQLite, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.Bootstrap.Attempts < 1 {
		return fmt.Errorf("BOOTSTRAP_ATTEMPTS must be at least 1, got %d", c.Bootstrap.Attempts)
	}
	if c.Bootstrap.Timeout <= 0 || c.Bootstrap.Deadline <= 0 {
		return fmt.Errorf("bootstrap timeouts must be positive")
	}
	return nil
}
