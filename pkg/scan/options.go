package scan

import (
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/classscan/pkg/classpath"
	errs "github.com/matzehuels/classscan/pkg/errors"
)

const (
	// DefaultQueueFactor sizes the hand-off queue relative to the worker count.
	DefaultQueueFactor = 2

	// DefaultLoadCacheSize is the number of classes kept by Result.LoadClass.
	DefaultLoadCacheSize = 1024
)

// Options configures a scan. The zero value scans nothing useful; start
// from [DefaultOptions].
type Options struct {
	// Classpath lists directories and jar/zip files in lookup order.
	Classpath []string `json:"classpath"`

	// Filter selects the classes to scan. It is applied to resource paths
	// before any bytes are read.
	Filter classpath.Filter `json:"filter"`

	// EnableClassInfo keeps field, method and annotation metadata on the
	// scanned classes. Without it classes carry only their names, kinds,
	// modifiers and supertypes.
	EnableClassInfo bool `json:"class_info"`

	// EnableInterClassDependencies builds the class dependency map. The
	// setting is read once when the scan starts.
	EnableInterClassDependencies bool `json:"dependencies"`

	// EnableConstantPoolDependencies also counts every class named in a
	// classfile's constant pool as a dependency. It has no effect unless
	// EnableInterClassDependencies is set.
	EnableConstantPoolDependencies bool `json:"constant_pool_deps"`

	// IncludeInvisibleAnnotations also decodes CLASS-retention annotations.
	IncludeInvisibleAnnotations bool `json:"invisible_annotations"`

	// StrictNames fails units whose declared class name disagrees with
	// their resource path.
	StrictNames bool `json:"strict_names"`

	// Workers is the number of parsing goroutines. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int `json:"-"`

	// QueueSize bounds the records waiting to be merged. Zero means
	// Workers * DefaultQueueFactor.
	QueueSize int `json:"-"`

	// LoadCacheSize bounds the classes cached by Result.LoadClass. Zero
	// means DefaultLoadCacheSize.
	LoadCacheSize int `json:"-"`

	// Logger receives per-unit warnings and the scan summary. Nil means
	// log.Default().
	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns options with class info and dependency tracking
// enabled.
func DefaultOptions(paths ...string) Options {
	return Options{
		Classpath:                    paths,
		EnableClassInfo:              true,
		EnableInterClassDependencies: true,
	}
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "workers must not be negative")
	}
	if o.QueueSize < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "queue size must not be negative")
	}
	if err := o.Filter.Validate(); err != nil {
		return err
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.QueueSize == 0 {
		o.QueueSize = o.Workers * DefaultQueueFactor
	}
	if o.LoadCacheSize <= 0 {
		o.LoadCacheSize = DefaultLoadCacheSize
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}
