package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/classscan/pkg/cache"
)

func TestNewClient(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(c, "test:", time.Hour, headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != c {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestNewClientNilCache(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)
	if client.cache == nil {
		t.Fatal("nil cache should be replaced by a null cache")
	}
}

func TestClientGetText(t *testing.T) {
	var agent, custom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		custom = r.Header.Get("X-Custom")
		w.Write([]byte("plain text response"))
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, map[string]string{"X-Custom": "custom"})
	client.SetHTTPClient(server.Client())

	text, err := client.GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if text != "plain text response" {
		t.Errorf("GetText() = %q, want %q", text, "plain text response")
	}
	if !strings.HasPrefix(agent, "classscan/") {
		t.Errorf("User-Agent = %q", agent)
	}
	if custom != "custom" {
		t.Errorf("X-Custom = %q", custom)
	}
}

func TestClientGetText404(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	_, err := client.GetText(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetText() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls)
	}
}

func TestClientOpen500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	_, err := client.Open(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Open() should return error for 500")
	}
	if !cache.IsRetryable(err) {
		t.Errorf("Open() error should be retryable, got %T", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Open() error = %v, want ErrNetwork", err)
	}
}

func TestClientCached(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()
	client := NewClient(c, "test:", time.Hour, nil)
	ctx := context.Background()

	fetches := 0
	fetch := func() ([]byte, error) {
		fetches++
		return []byte("fetched"), nil
	}

	for range 2 {
		data, err := client.Cached(ctx, "key", false, fetch)
		if err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
		if string(data) != "fetched" {
			t.Errorf("Cached() = %q", data)
		}
	}
	if fetches != 1 {
		t.Errorf("fetch count = %d, want 1", fetches)
	}

	if _, err := client.Cached(ctx, "key", true, fetch); err != nil {
		t.Fatalf("Cached(refresh) error: %v", err)
	}
	if fetches != 2 {
		t.Errorf("refresh should fetch again, count = %d", fetches)
	}

	if _, ok, _ := c.Get(ctx, "test:key"); !ok {
		t.Error("value should be stored under the prefixed key")
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)
	fetches := 0
	_, err := client.Cached(context.Background(), "key", false, func() ([]byte, error) {
		fetches++
		return nil, ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v", err)
	}
	if fetches != 1 {
		t.Errorf("non-retryable error fetched %d times", fetches)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantErr   bool
		wantType  error
		retryable bool
	}{
		{name: "200 OK", code: 200},
		{name: "404 Not Found", code: 404, wantErr: true, wantType: ErrNotFound},
		{name: "429 Too Many Requests", code: 429, wantErr: true, retryable: true},
		{name: "500 Internal Server Error", code: 500, wantErr: true, retryable: true},
		{name: "503 Service Unavailable", code: 503, wantErr: true, retryable: true},
		{name: "403 Forbidden", code: 403, wantErr: true, wantType: ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if tt.wantType != nil && !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
			if cache.IsRetryable(err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", cache.IsRetryable(err), tt.retryable)
			}
		})
	}
}
