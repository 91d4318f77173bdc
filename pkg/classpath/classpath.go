package classpath

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/matzehuels/classscan/pkg/classfile"
	errs "github.com/matzehuels/classscan/pkg/errors"
)

// Resource is one classfile selected for a scan.
type Resource struct {
	Element   Element
	Path      string // Path inside the element ("com/example/Foo.class")
	ClassName string // Class name implied by Path
	Size      int64
	Index     int // Position of Element in the classpath
}

// Read reads the resource's bytes.
func (r Resource) Read() ([]byte, error) { return ReadResource(r.Element, r.Path) }

// String returns "element!path".
func (r Resource) String() string { return r.Element.Path() + "!" + r.Path }

// Classpath is an ordered set of opened elements with a filter.
type Classpath struct {
	elements []Element
	filter   Filter
}

// New opens every path in order. If any path cannot be opened, the
// elements opened so far are closed and the error is returned.
func New(paths []string, filter Filter) (*Classpath, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	cp := &Classpath{filter: filter}
	for _, p := range paths {
		e, err := Open(p)
		if err != nil {
			_ = cp.Close()
			return nil, err
		}
		cp.elements = append(cp.elements, e)
	}
	return cp, nil
}

// FromElements builds a classpath from already opened elements. The
// classpath takes ownership of them.
func FromElements(filter Filter, elements ...Element) *Classpath {
	return &Classpath{elements: elements, filter: filter}
}

// Elements returns the elements in classpath order.
func (c *Classpath) Elements() []Element { return c.elements }

// Filter returns the classpath's filter.
func (c *Classpath) Filter() Filter { return c.filter }

// Resources enumerates the accepted classfiles. Each class appears once:
// a class found in an earlier element masks the same class in later ones.
// The result is ordered by element, then by path.
func (c *Classpath) Resources(ctx context.Context) ([]Resource, error) {
	var out []Resource
	seen := make(map[string]bool)
	for i, e := range c.elements {
		err := e.Walk(ctx, func(en Entry) error {
			if !c.filter.AcceptResource(en.Name) {
				return nil
			}
			name := classfile.ResourceClassName(en.Name)
			if seen[name] {
				return nil
			}
			seen[name] = true
			out = append(out, Resource{Element: e, Path: en.Name, ClassName: name, Size: en.Size, Index: i})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Find locates the first resource for a class name, ignoring the filter.
// It returns false when no element contains the class.
func (c *Classpath) Find(className string) (Resource, bool) {
	path := classfile.ResourcePath(className)
	for i, e := range c.elements {
		rc, err := e.Open(path)
		if err != nil {
			continue
		}
		_ = rc.Close()
		return Resource{Element: e, Path: path, ClassName: className, Index: i}, true
	}
	return Resource{}, false
}

// Fingerprint hashes the element paths together with the name, size and
// modification time of every file they contain. Any change to the
// classpath's contents changes the fingerprint.
func (c *Classpath) Fingerprint(ctx context.Context) (string, error) {
	h := sha256.New()
	for _, e := range c.elements {
		fmt.Fprintf(h, "E %s\n", e.Path())
		err := e.Walk(ctx, func(en Entry) error {
			fmt.Fprintf(h, "%s %d %d\n", en.Name, en.Size, en.ModTime.UnixNano())
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Close closes every element and joins their errors. It is safe to call
// more than once.
func (c *Classpath) Close() error {
	var all []error
	for _, e := range c.elements {
		if err := e.Close(); err != nil {
			all = append(all, errs.Wrap(errs.ErrCodeClasspath, err, "close %s", e.Path()))
		}
	}
	return errors.Join(all...)
}
