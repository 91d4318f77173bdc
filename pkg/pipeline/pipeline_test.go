package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/observability"
	"github.com/matzehuels/classscan/pkg/scan"
)

// memCache is a Cache backed by a map.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.set++
	h.mu.Unlock()
}

func writeClassDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"com/example/Base.class": classfiletest.New("com.example.Base").Bytes(),
		"com/example/Service.class": classfiletest.New("com.example.Service").
			Super("com.example.Base").
			Field(classfile.AccPrivate, "names", "Ljava/util/List;").Done().
			Bytes(),
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestRunner_CachesSnapshot(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	dir := writeClassDir(t)
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Scan: scan.DefaultOptions(dir)}

	first, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer first.Close()
	if first.CacheHit || first.Scan == nil {
		t.Fatal("first Scan() should miss the cache")
	}
	if first.Stats.Classes != 2 || first.Stats.Externals != 2 {
		t.Errorf("Stats = %+v, want 2 classes and 2 externals", first.Stats)
	}

	second, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer second.Close()
	if !second.CacheHit || second.Scan != nil {
		t.Fatal("second Scan() should hit the cache")
	}
	if second.Key != first.Key {
		t.Errorf("keys differ: %s vs %s", first.Key, second.Key)
	}
	if second.Stats.Classes != first.Stats.Classes || second.Stats.Edges != first.Stats.Edges {
		t.Errorf("cached stats %+v differ from scanned %+v", second.Stats, first.Stats)
	}
	svc := second.Graph.Get("com.example.Service")
	if svc == nil || svc.SuperclassName != "com.example.Base" {
		t.Errorf("cached graph lost com.example.Service: %+v", svc)
	}

	if hooks.hits != 1 || hooks.misses != 1 || hooks.set != 1 {
		t.Errorf("hooks = hits %d misses %d sets %d, want 1/1/1", hooks.hits, hooks.misses, hooks.set)
	}
}

func TestRunner_NoDependencies(t *testing.T) {
	ctx := context.Background()
	dir := writeClassDir(t)
	r := quietRunner(newMemCache())
	opts := Options{Scan: scan.DefaultOptions(dir)}
	opts.Scan.EnableInterClassDependencies = false

	for _, pass := range []string{"scan", "cache"} {
		res, err := r.Scan(ctx, opts)
		if err != nil {
			t.Fatalf("%s: Scan: %v", pass, err)
		}
		if res.Snapshot.Dependencies || len(res.Snapshot.Edges) != 0 {
			t.Errorf("%s: snapshot dependencies=%v edges=%d, want none",
				pass, res.Snapshot.Dependencies, len(res.Snapshot.Edges))
		}
		if res.Stats.Edges != 0 || res.Graph.EdgeCount() != 0 {
			t.Errorf("%s: stats edges %d graph edges %d, want 0", pass, res.Stats.Edges, res.Graph.EdgeCount())
		}
		if res.Graph.Get("com.example.Service") == nil {
			t.Errorf("%s: classes missing from graph", pass)
		}
		res.Close()
	}
}

func TestRunner_KeyChanges(t *testing.T) {
	ctx := context.Background()
	dir := writeClassDir(t)
	c := newMemCache()
	r := quietRunner(c)

	base, err := r.Scan(ctx, Options{Scan: scan.DefaultOptions(dir)})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	base.Close()

	noDeps := scan.DefaultOptions(dir)
	noDeps.EnableInterClassDependencies = false
	res, err := r.Scan(ctx, Options{Scan: noDeps})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	if res.CacheHit || res.Key == base.Key {
		t.Error("changing scan options should change the key")
	}

	// A new class changes the fingerprint.
	path := filepath.Join(dir, "com", "example", "Extra.class")
	if err := os.WriteFile(path, classfiletest.New("com.example.Extra").Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	res, err = r.Scan(ctx, Options{Scan: scan.DefaultOptions(dir)})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	if res.CacheHit {
		t.Error("adding a class should invalidate the snapshot")
	}
	if res.Stats.Classes != 3 {
		t.Errorf("Classes = %d, want 3", res.Stats.Classes)
	}
}

func TestRunner_RefreshAndInvalidate(t *testing.T) {
	ctx := context.Background()
	dir := writeClassDir(t)
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Scan: scan.DefaultOptions(dir)}

	res, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()

	opts.Refresh = true
	res, err = r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	if res.CacheHit {
		t.Error("Refresh should bypass the cache")
	}
	if c.sets != 2 {
		t.Errorf("sets = %d, want 2", c.sets)
	}

	if err := r.Invalidate(ctx, opts.Scan); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	opts.Refresh = false
	res, err = r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	if res.CacheHit {
		t.Error("Scan() after Invalidate should miss")
	}
}

func TestRunner_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := writeClassDir(t)
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Scan: scan.DefaultOptions(dir)}

	res, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	c.data[res.Key] = []byte("{not json")

	res, err = r.Scan(ctx, opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res.Close()
	if res.CacheHit {
		t.Error("corrupt entry should be a miss")
	}
}

func TestRunner_CancelledNotCached(t *testing.T) {
	dir := writeClassDir(t)
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Scan: scan.DefaultOptions(dir)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Scan(ctx, opts)
	if err != nil {
		// Cancellation before enumeration is reported as an error.
		return
	}
	defer res.Close()
	if res.Cancelled() && c.sets != 0 {
		t.Error("cancelled snapshot should not be cached")
	}
}

func TestExecute_Formats(t *testing.T) {
	dir := writeClassDir(t)
	r := quietRunner(nil)

	res, err := r.Execute(context.Background(), Options{
		Scan:    scan.DefaultOptions(dir),
		Formats: []string{FormatJSON, FormatYAML, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	defer res.Close()

	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"name": "com.example.Service"`) {
		t.Error("json artifact missing class")
	}
	if !strings.Contains(string(res.Artifacts[FormatYAML]), "name: com.example.Service") {
		t.Error("yaml artifact missing class")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"com.example.Service" -> "com.example.Base"`) {
		t.Error("dot artifact missing edge")
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"yaml", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errs.GetCode(err))
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	var empty Options
	if err := empty.Validate(); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Validate() on empty classpath = %v", err)
	}

	opts := Options{Scan: scan.DefaultOptions("x")}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if opts.TTL != DefaultTTL || opts.PNGScale != DefaultPNGScale {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Scan.Workers == 0 {
		t.Error("scan defaults not applied")
	}
}

func TestKeyOpts(t *testing.T) {
	o := scan.DefaultOptions()
	o.EnableConstantPoolDependencies = true
	o.EnableInterClassDependencies = false
	if KeyOpts(o).ConstantPool {
		t.Error("constant pool flag should be ignored without dependency tracking")
	}
}
