package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const usersDoc = `{"users":{"admin":{"password":"1234","displayName":"Admin","role":"admin"},"clerk":{"password":"pw","displayName":"Clerk","role":"user","permissions":["reports:submit"]}}}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHTTPSource_Fetch_Success(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usersDoc))
	})

	src := NewHTTPSource(HTTPConfig{URL: srv.URL + "/users.json"}, zerolog.Nop())
	users, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	clerk := users["clerk"]
	if clerk.Password != "pw" || clerk.DisplayName != "Clerk" || len(clerk.Permissions) != 1 {
		t.Fatalf("unexpected clerk entry: %+v", clerk)
	}
}

func TestHTTPSource_Fetch_NonSuccessStatus(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})

	src := NewHTTPSource(HTTPConfig{URL: srv.URL, Attempts: 3}, zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error on 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPSource_Fetch_RetriesServerErrors(t *testing.T) {
	var (
		srv   *httptest.Server
		calls *atomic.Int32
	)
	srv, calls = newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Load() == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(usersDoc))
	})

	src := NewHTTPSource(HTTPConfig{URL: srv.URL, Attempts: 2}, zerolog.Nop())
	users, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if len(users) != 2 || calls.Load() != 2 {
		t.Fatalf("expected 2 users after 2 calls, got %d users / %d calls", len(users), calls.Load())
	}
}

func TestHTTPSource_Fetch_SingleAttemptByDefault(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	src := NewHTTPSource(HTTPConfig{URL: srv.URL}, zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestHTTPSource_Fetch_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "<html>oops</html>",
		"missing users": `{"accounts":{}}`,
		"null entry":    `{"users":{"bob":null}}`,
		"empty entry":   `{"users":{"bob":{}}}`,
		"no role":       `{"users":{"bob":{"password":"pw"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, calls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			src := NewHTTPSource(HTTPConfig{URL: srv.URL, Attempts: 3}, zerolog.Nop())
			_, err := src.Fetch(context.Background())
			if err == nil || !strings.Contains(err.Error(), errMalformed.Error()) {
				t.Fatalf("expected malformed error, got %v", err)
			}
			if calls.Load() != 1 {
				t.Fatalf("malformed documents must not be retried, got %d calls", calls.Load())
			}
		})
	}
}

func TestHTTPSource_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	src := NewHTTPSource(HTTPConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop())
	start := time.Now()
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("fetch was not bounded by its timeout: %v", elapsed)
	}
}
