// Package bootstrap reads the initial user set from an HTTP resource or a
// local seed file. Both carry the same document:
//
//	{"users": {"<username>": {"password": "...", "displayName": "...", "role": "...", "permissions": [...]}}}
//
// Seed files may also be written in YAML.
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
)

var errMalformed = errors.New("malformed bootstrap document")

type document struct {
	Users map[string]domain.BootstrapUser `json:"users" yaml:"users"`
}

func (d *document) validate() error {
	if d.Users == nil {
		return fmt.Errorf("%w: missing users", errMalformed)
	}
	for name, u := range d.Users {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty username", errMalformed)
		}
		if u.Password == "" || u.Role == "" {
			return fmt.Errorf("%w: user %q needs a password and a role", errMalformed, name)
		}
	}
	return nil
}

// Config selects and bounds the bootstrap source.
type Config struct {
	// Location is an http(s) URL, a file:// URL or a plain path. Empty
	// disables the bootstrap.
	Location string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// Attempts caps HTTP attempts; 1 means no retry.
	Attempts int
}

// New returns the source for cfg.Location, or nil when it is empty.
func New(cfg Config, log zerolog.Logger) ports.BootstrapSource {
	loc := strings.TrimSpace(cfg.Location)
	switch {
	case loc == "":
		return nil
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return NewHTTPSource(HTTPConfig{URL: loc, Timeout: cfg.Timeout, Attempts: cfg.Attempts}, log)
	default:
		return NewFileSource(strings.TrimPrefix(loc, "file://"))
	}
}
