package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "snapshot:x", []byte(`{"version":1}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, "snapshot:x"); hit || data != nil || err != nil {
		t.Errorf("Get after Set = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "snapshot:x"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	clearer, ok := c.(Clearer)
	if !ok {
		t.Fatal("NullCache should be a Clearer")
	}
	if err := clearer.Clear(ctx); err != nil {
		t.Errorf("Clear: %v", err)
	}
}

func TestDigest(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []any
		equal bool
	}{
		{"same parts", []any{"fp", 1}, []any{"fp", 1}, true},
		{"different fingerprint", []any{"fp", 1}, []any{"other", 1}, false},
		{"part boundaries", []any{"ab", "c"}, []any{"a", "bc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			da, db := digest(tt.a...), digest(tt.b...)
			if len(da) != 64 {
				t.Errorf("digest length = %d, want 64", len(da))
			}
			if (da == db) != tt.equal {
				t.Errorf("digest(%v) == digest(%v) is %v, want %v", tt.a, tt.b, da == db, tt.equal)
			}
		})
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := SnapshotKeyOpts{AcceptPackages: []string{"com.a", "com.b"}, Dependencies: true}
	key := k.SnapshotKey("fp", base)
	if !strings.HasPrefix(key, "snapshot:") || len(key) != len("snapshot:")+64 {
		t.Errorf("SnapshotKey unexpected: %s", key)
	}

	// Options that change a scan change the key
	changed := base
	changed.ConstantPool = true
	if k.SnapshotKey("fp", changed) == key {
		t.Error("Different SnapshotKeyOpts should produce different keys")
	}
	if k.SnapshotKey("other", base) == key {
		t.Error("Different fingerprints should produce different keys")
	}

	// Rule order does not
	reordered := base
	reordered.AcceptPackages = []string{"com.b", "com.a"}
	if k.SnapshotKey("fp", reordered) != key {
		t.Error("Rule order should not change the key")
	}
	if base.AcceptPackages[0] != "com.a" {
		t.Error("SnapshotKey must not reorder the caller's slices")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	opts := SnapshotKeyOpts{Dependencies: true}

	billing := NewScopedKeyer(inner, "billing:")
	want := "billing:" + inner.SnapshotKey("fp", opts)
	if got := billing.SnapshotKey("fp", opts); got != want {
		t.Errorf("SnapshotKey = %s, want %s", got, want)
	}
	if billing.SnapshotKey("fp", opts) == NewScopedKeyer(inner, "search:").SnapshotKey("fp", opts) {
		t.Error("scopes should not share snapshot keys")
	}

	if NewScopedKeyer(inner, "") != inner {
		t.Error("empty scope should return the inner keyer")
	}
	if key := NewScopedKeyer(nil, "p:").SnapshotKey("fp", opts); !strings.HasPrefix(key, "p:snapshot:") {
		t.Errorf("nil inner key = %s, want default keyer behind the scope", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get(key) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "expired", []byte("old"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "expired"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete(missing): %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted entry should be a miss")
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.(Clearer).Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Clear should remove every entry")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CLASSSCAN_TEST_REDIS")
	if addr == "" {
		t.Skip("CLASSSCAN_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "classscan-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	defer c.Clear(ctx)

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted key should be a miss")
	}
}

func TestNewRedisCacheRequiresAddr(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{}); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errPermanent
	})
	if err != errPermanent {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
