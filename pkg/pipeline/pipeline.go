// Package pipeline runs a classpath scan with snapshot caching and renders
// the result.
//
// The CLI, the HTTP server and watch mode all go through a [Runner], so a
// classpath that has not changed since the last run is served from the
// cache instead of being scanned again.
//
// # Stages
//
//  1. Scan: fingerprint the classpath, look the snapshot up in the cache,
//     and scan on a miss
//  2. Render: produce artifacts (JSON, YAML, DOT, SVG, PNG, PDF) from the
//     snapshot and its graph
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Scan:    scan.DefaultOptions("target/classes", "lib/guava.jar"),
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Close()
//	svg := res.Artifacts["svg"]
//
// A cache key covers the classpath fingerprint (element paths, entry names,
// sizes and modification times) and every scan option that changes the
// outcome, see [cache.SnapshotKeyOpts].
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/classgraph"
	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/render/nodelink"
	"github.com/matzehuels/classscan/pkg/scan"
)

// DefaultTTL is how long a snapshot stays in the cache.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultPNGScale is the PNG resolution multiplier.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// Options configures a pipeline run.
type Options struct {
	// Scan configures the classpath scan.
	Scan scan.Options `json:"scan"`

	// Refresh bypasses the cache lookup. The fresh snapshot is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// TTL is the cache lifetime of a stored snapshot. Zero means DefaultTTL.
	TTL time.Duration `json:"ttl,omitempty"`

	// Formats lists the artifacts to render. Empty renders nothing.
	Formats []string `json:"formats,omitempty"`

	// Graph configures DOT output and everything rendered from it.
	Graph nodelink.Options `json:"-"`

	// PNGScale is the PNG resolution multiplier. Zero means DefaultPNGScale.
	PNGScale float64 `json:"png_scale,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the serializable form of the scan.
	Snapshot *pkgio.Snapshot

	// Graph is the class graph. On a cache hit it is rebuilt from the
	// snapshot and cannot load classes on demand.
	Graph *classgraph.Graph

	// Scan is the live scan result, or nil when the snapshot came from the
	// cache.
	Scan *scan.Result

	// Key is the cache key of the snapshot.
	Key string

	// CacheHit reports whether the snapshot came from the cache.
	CacheHit bool

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Classes    int
	Externals  int
	Edges      int
	Failures   int
	ScanTime   time.Duration
	RenderTime time.Duration
}

// Close releases the classpath held by a live scan result.
func (r *Result) Close() error {
	if r.Scan != nil {
		return r.Scan.Close()
	}
	return nil
}

// Cancelled reports whether the scan was interrupted. Cancelled snapshots
// are never cached.
func (r *Result) Cancelled() bool {
	return r.Scan != nil && r.Scan.Cancelled()
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, yaml, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if len(o.Scan.Classpath) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "classpath is empty")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "ttl must not be negative")
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Scan.Logger == nil {
		o.Scan.Logger = o.Logger
	}
	if err := o.Scan.Validate(); err != nil {
		return fmt.Errorf("scan options: %w", err)
	}
	return nil
}

// KeyOpts returns the cache key options of a scan.
func KeyOpts(o scan.Options) cache.SnapshotKeyOpts {
	return cache.SnapshotKeyOpts{
		AcceptPackages:             o.Filter.AcceptPackages,
		AcceptPackagesNonRecursive: o.Filter.AcceptPackagesNonRecursive,
		RejectPackages:             o.Filter.RejectPackages,
		AcceptClasses:              o.Filter.AcceptClasses,
		RejectClasses:              o.Filter.RejectClasses,
		InfoClasses:                o.Filter.IncludeInfoClasses,
		ClassInfo:                  o.EnableClassInfo,
		Dependencies:               o.EnableInterClassDependencies,
		ConstantPool:               o.EnableInterClassDependencies && o.EnableConstantPoolDependencies,
		InvisibleAnnotations:       o.IncludeInvisibleAnnotations,
		StrictNames:                o.StrictNames,
	}
}
