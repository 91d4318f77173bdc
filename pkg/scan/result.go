package scan

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classgraph"
	"github.com/matzehuels/classscan/pkg/classpath"
)

// ErrClosed is the cause of load failures after [Result.Close].
var ErrClosed = errors.New("scan result closed")

// Result is the outcome of a scan. Its graph is read-only; queries may be
// issued from multiple goroutines. A Result holds the classpath open for
// on-demand loading until Close.
type Result struct {
	id        string
	graph     *classgraph.Graph
	deps      *classgraph.DependencyMap
	units     []Unit
	cancelled bool
	err       error
	duration  time.Duration

	cp        *classpath.Classpath
	parseOpts classfile.Options

	mu     sync.Mutex
	loaded *lru.Cache[string, *classgraph.LoadedClass]
	closed bool
}

func newResult(cp *classpath.Classpath, opts Options) (*Result, error) {
	cache, err := lru.New[string, *classgraph.LoadedClass](opts.LoadCacheSize)
	if err != nil {
		return nil, err
	}
	return &Result{
		id:        uuid.NewString(),
		graph:     classgraph.NewGraph(),
		cp:        cp,
		parseOpts: classfile.Options{IncludeInvisibleAnnotations: opts.IncludeInvisibleAnnotations},
		loaded:    cache,
	}, nil
}

func (r *Result) finish(units []Unit, trackDeps bool) {
	r.units = units
	r.graph.Finalize(r)
	if trackDeps {
		r.deps = r.graph.DependencyMap()
	}
}

// ID returns the scan's unique identifier.
func (r *Result) ID() string { return r.id }

// Graph returns the class graph.
func (r *Result) Graph() *classgraph.Graph { return r.graph }

// GetClassInfo returns the class with the given binary name, or nil.
// Classes that were only referenced are returned as external nodes; see
// [classgraph.ClassInfo.IsExternal].
func (r *Result) GetClassInfo(name string) *classgraph.ClassInfo { return r.graph.Get(name) }

// AllClasses returns the scanned classes sorted by name.
func (r *Result) AllClasses() []*classgraph.ClassInfo { return r.graph.Classes() }

// ExternalClasses returns the referenced classes that were not scanned,
// sorted by name.
func (r *Result) ExternalClasses() []*classgraph.ClassInfo { return r.graph.Externals() }

// ClassDependencyMap returns the dependency map, or nil when the scan ran
// without EnableInterClassDependencies.
func (r *Result) ClassDependencyMap() *classgraph.DependencyMap { return r.deps }

// Units returns every unit in enumeration order.
func (r *Result) Units() []Unit {
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Failures returns the FAILED units in enumeration order.
func (r *Result) Failures() []Unit {
	var out []Unit
	for _, u := range r.units {
		if u.State == UnitFailed {
			out = append(out, u)
		}
	}
	return out
}

// Cancelled reports whether the scan stopped early.
func (r *Result) Cancelled() bool { return r.cancelled }

// Err returns the context error of a cancelled scan, or nil.
func (r *Result) Err() error { return r.err }

// Duration returns how long the scan took.
func (r *Result) Duration() time.Duration { return r.duration }

// Close releases the classpath and drops loaded classes. Later calls
// return nil; lookups keep working, loads fail with [ErrClosed].
func (r *Result) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.loaded.Purge()
	return r.cp.Close()
}

// LoadClass decodes a class from the classpath on demand. Array names
// carry one "[]" per dimension ("com.example.X[][]"); primitive names
// ("int", "void") load without touching the classpath. Loads are cached,
// so repeated calls return the same value. Failures are
// [*classgraph.ClassNotAvailableError].
func (r *Result) LoadClass(name string) (*classgraph.LoadedClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &classgraph.ClassNotAvailableError{Name: name, Err: ErrClosed}
	}
	return r.load(name)
}

func (r *Result) load(name string) (*classgraph.LoadedClass, error) {
	if c, ok := r.loaded.Get(name); ok {
		return c, nil
	}

	elem, dims := name, 0
	for strings.HasSuffix(elem, "[]") {
		elem = strings.TrimSuffix(elem, "[]")
		dims++
	}

	var c *classgraph.LoadedClass
	switch {
	case elem == "":
		return nil, &classgraph.ClassNotAvailableError{Name: name}
	case dims > 0:
		e, err := r.load(elem)
		if err != nil {
			return nil, &classgraph.ClassNotAvailableError{Name: name, Err: err}
		}
		c = &classgraph.LoadedClass{Name: name, Dimensions: dims, Element: e}
	case isPrimitiveName(elem):
		c = &classgraph.LoadedClass{Name: elem}
	default:
		cf, err := r.readClass(elem)
		if err != nil {
			return nil, &classgraph.ClassNotAvailableError{Name: name, Err: err}
		}
		c = &classgraph.LoadedClass{Name: elem, File: cf}
	}
	r.loaded.Add(name, c)
	return c, nil
}

func (r *Result) readClass(name string) (*classfile.ClassFile, error) {
	res, ok := r.cp.Find(name)
	if !ok {
		return nil, errors.New("not found on classpath")
	}
	data, err := res.Read()
	if err != nil {
		return nil, err
	}
	opts := r.parseOpts
	opts.CheckName = true
	return classfile.Parse(res.Path, data, opts)
}

func isPrimitiveName(s string) bool {
	switch s {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double", "void":
		return true
	}
	return false
}

var _ classgraph.Loader = (*Result)(nil)
