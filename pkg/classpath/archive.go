package classpath

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// Archive is a classpath element backed by a jar or zip file. The file
// stays open until Close.
type Archive struct {
	path    string
	zr      *zip.ReadCloser
	entries []*zip.File          // Regular files sorted by name
	index   map[string]*zip.File // First entry wins for repeated names

	mu     sync.Mutex
	closed bool
}

// OpenArchive opens a jar or zip file.
func OpenArchive(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeClasspath, err, "cannot read archive %s", path)
	}
	a := &Archive{path: path, zr: zr, index: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || f.Mode().IsDir() {
			continue
		}
		if _, dup := a.index[f.Name]; dup {
			continue
		}
		a.index[f.Name] = f
		a.entries = append(a.entries, f)
	}
	slices.SortFunc(a.entries, func(x, y *zip.File) int { return strings.Compare(x.Name, y.Name) })
	return a, nil
}

func (a *Archive) Path() string { return a.path }

func (a *Archive) Walk(ctx context.Context, fn func(Entry) error) error {
	if a.isClosed() {
		return errs.New(errs.ErrCodeClasspath, "archive closed: %s", a.path)
	}
	for _, f := range a.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(Entry{Name: f.Name, Size: int64(f.UncompressedSize64), ModTime: f.Modified}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) Open(resource string) (io.ReadCloser, error) {
	if a.isClosed() {
		return nil, errs.New(errs.ErrCodeClasspath, "archive closed: %s", a.path)
	}
	f, ok := a.index[resource]
	if !ok {
		return nil, errs.New(errs.ErrCodeNotFound, "%s not found in %s", resource, a.path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeClasspath, err, "open %s!%s", a.path, resource)
	}
	return rc, nil
}

// Close closes the underlying file. Later calls return nil.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.zr.Close()
}

func (a *Archive) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

var _ Element = (*Archive)(nil)
