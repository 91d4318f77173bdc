package classpath

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// MaxResourceSize bounds the size of a single resource read into memory.
const MaxResourceSize = 64 << 20

// Entry describes one file of an element.
type Entry struct {
	Name    string // Slash-separated path relative to the element root
	Size    int64
	ModTime time.Time
}

// Element is one entry of a classpath.
//
// Implementations must allow Open to be called from multiple goroutines
// while no Walk is in progress.
type Element interface {
	// Path returns the filesystem path the element was opened from.
	Path() string

	// Walk calls fn for every regular file of the element in lexical
	// order. Returning an error from fn stops the walk with that error.
	Walk(ctx context.Context, fn func(Entry) error) error

	// Open opens a resource previously reported by Walk.
	Open(resource string) (io.ReadCloser, error)

	// Close releases the element. It is safe to call more than once.
	Close() error
}

// Open opens a classpath element. Directories become a [Dir]; regular files
// are read as zip archives.
func Open(path string) (Element, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeClasspath, err, "classpath element not found: %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeClasspath, err, "cannot stat %s", path)
	}
	if info.IsDir() {
		return NewDir(path), nil
	}
	if !info.Mode().IsRegular() {
		return nil, errs.New(errs.ErrCodeClasspath, "not a directory or archive: %s", path)
	}
	return OpenArchive(path)
}

// ReadResource reads a resource fully. Resources larger than
// [MaxResourceSize] are rejected.
func ReadResource(e Element, resource string) ([]byte, error) {
	rc, err := e.Open(resource)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxResourceSize+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeClasspath, err, "read %s!%s", e.Path(), resource)
	}
	if len(data) > MaxResourceSize {
		return nil, errs.New(errs.ErrCodeClasspath, "resource too large: %s!%s", e.Path(), resource)
	}
	return data, nil
}

func isClassResource(name string) bool {
	return strings.HasSuffix(name, ".class") && !strings.HasSuffix(name, "/.class") && name != ".class"
}
