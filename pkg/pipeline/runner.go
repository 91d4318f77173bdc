package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/classgraph"
	"github.com/matzehuels/classscan/pkg/classpath"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/observability"
	"github.com/matzehuels/classscan/pkg/scan"
)

// cacheKeyType labels snapshot entries in cache hooks.
const cacheKeyType = "snapshot"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute scans with caching and renders the requested formats.
// The caller must Close the result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	res, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(opts.Formats) == 0 {
		return res, nil
	}

	renderStart := time.Now()
	artifacts, err := Render(res.Graph, res.Snapshot, opts)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// Scan returns the snapshot of the classpath named by opts, from the cache
// when the classpath is unchanged, by scanning otherwise. A scan that was
// cancelled is returned but not cached.
func (r *Runner) Scan(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	cp, err := classpath.New(opts.Scan.Classpath, opts.Scan.Filter)
	if err != nil {
		return nil, err
	}
	fingerprint, err := cp.Fingerprint(ctx)
	if err != nil {
		cp.Close()
		return nil, fmt.Errorf("fingerprint classpath: %w", err)
	}
	key := r.Keyer.SnapshotKey(fingerprint, KeyOpts(opts.Scan))
	hooks := observability.Cache()

	if !opts.Refresh {
		if res, ok := r.lookup(ctx, key); ok {
			cp.Close()
			hooks.OnCacheHit(ctx, cacheKeyType)
			res.Stats.ScanTime = time.Since(start)
			r.Logger.Info("loaded snapshot from cache",
				"classes", res.Stats.Classes,
				"edges", res.Stats.Edges,
				"duration", res.Stats.ScanTime)
			return res, nil
		}
		hooks.OnCacheMiss(ctx, cacheKeyType)
	}

	sr, err := scan.ScanClasspath(ctx, cp, opts.Scan)
	if err != nil {
		return nil, err
	}
	snap := pkgio.FromResult(sr)
	g := sr.Graph()
	if !snap.Dependencies {
		// Without dependency tracking the graph offers classes only.
		if g, err = snap.Graph(); err != nil {
			sr.Close()
			return nil, fmt.Errorf("snapshot graph: %w", err)
		}
	}
	res := newResult(snap, g, key)
	res.Scan = sr
	res.Stats.ScanTime = time.Since(start)

	if sr.Cancelled() {
		r.Logger.Warn("scan cancelled, snapshot not cached", "classes", res.Stats.Classes)
		return res, nil
	}
	if data, err := pkgio.Marshal(snap); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return res, nil
}

// lookup returns the cached snapshot for key. Entries that fail to decode
// are treated as misses.
func (r *Runner) lookup(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	snap, err := pkgio.Unmarshal(data)
	if err != nil {
		r.Logger.Debug("discarding cached snapshot", "err", err)
		return nil, false
	}
	g, err := snap.Graph()
	if err != nil {
		r.Logger.Debug("discarding cached snapshot", "err", err)
		return nil, false
	}
	res := newResult(snap, g, key)
	res.CacheHit = true
	return res, true
}

func newResult(snap *pkgio.Snapshot, g *classgraph.Graph, key string) *Result {
	return &Result{
		Snapshot: snap,
		Graph:    g,
		Key:      key,
		Stats: Stats{
			Classes:   len(g.Classes()),
			Externals: len(g.Externals()),
			Edges:     g.EdgeCount(),
			Failures:  len(snap.Failures),
		},
	}
}

// Invalidate removes the cached snapshot of the classpath named by opts.
func (r *Runner) Invalidate(ctx context.Context, opts scan.Options) error {
	cp, err := classpath.New(opts.Classpath, opts.Filter)
	if err != nil {
		return err
	}
	defer cp.Close()
	fingerprint, err := cp.Fingerprint(ctx)
	if err != nil {
		return err
	}
	return r.Cache.Delete(ctx, r.Keyer.SnapshotKey(fingerprint, KeyOpts(opts)))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
