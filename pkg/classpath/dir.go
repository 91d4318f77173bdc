package classpath

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// Dir is a classpath element backed by a directory tree.
type Dir struct {
	root string
}

// NewDir returns a directory element. The directory is not checked until
// it is walked.
func NewDir(root string) *Dir {
	return &Dir{root: filepath.Clean(root)}
}

func (d *Dir) Path() string { return d.root }

func (d *Dir) Walk(ctx context.Context, fn func(Entry) error) error {
	return filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return errs.Wrap(errs.ErrCodeClasspath, err, "walk %s", d.root)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !de.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		info, err := de.Info()
		if err != nil {
			return errs.Wrap(errs.ErrCodeClasspath, err, "stat %s", path)
		}
		return fn(Entry{Name: filepath.ToSlash(rel), Size: info.Size(), ModTime: info.ModTime()})
	})
}

func (d *Dir) Open(resource string) (io.ReadCloser, error) {
	if err := errs.ValidatePath(resource); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(resource)))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeClasspath, err, "open %s", resource)
	}
	return f, nil
}

// Close does nothing for directories.
func (d *Dir) Close() error { return nil }

var _ Element = (*Dir)(nil)
