package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
)

const (
	defaultTimeout  = 5 * time.Second
	maxDocumentSize = 1 << 20
)

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	URL      string
	Timeout  time.Duration
	Attempts int
	Client   *http.Client
}

// HTTPSource fetches the bootstrap document with a GET request. Each attempt
// is bounded by Timeout; network errors and 5xx responses are retried up to
// Attempts in total.
type HTTPSource struct {
	url     string
	client  *http.Client
	timeout time.Duration
	retrier retry.Retry[map[string]domain.BootstrapUser]
	log     zerolog.Logger
}

func NewHTTPSource(cfg HTTPConfig, log zerolog.Logger) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPSource{
		url:     cfg.URL,
		client:  client,
		timeout: timeout,
		retrier: retry.New[map[string]domain.BootstrapUser](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
		log: log,
	}
}

// Fetch downloads and decodes the document.
func (s *HTTPSource) Fetch(ctx context.Context) (map[string]domain.BootstrapUser, error) {
	return s.retrier.Do(ctx, s.fetchOnce)
}

func (s *HTTPSource) fetchOnce(ctx context.Context) (map[string]domain.BootstrapUser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug().Err(err).Str("url", s.url).Msg("bootstrap fetch failed")
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))
		return nil, &statusError{Code: resp.StatusCode}
	}

	var doc document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc.Users, nil
}

type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, errMalformed) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	var ne net.Error
	return errors.As(err, &ne)
}
