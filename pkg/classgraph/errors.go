package classgraph

import (
	"errors"
	"fmt"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

var (
	// ErrNotBound is the cause of a [ClassNotAvailableError] for references
	// whose graph has not been finalized with a loader.
	ErrNotBound = errors.New("reference is not bound to a scan result")

	// ErrPrimitive is the cause of a [ClassNotAvailableError] for primitive
	// and void class literals, which have no classfile.
	ErrPrimitive = errors.New("primitive types have no classfile")

	errTypeVariable = errors.New("type variables have no classfile")
)

// ClassNotAvailableError is returned by explicit load operations when the
// referenced classfile cannot be located or read.
type ClassNotAvailableError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *ClassNotAvailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("class %s not available: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("class %s not available", e.Name)
}

// Unwrap returns the underlying cause.
func (e *ClassNotAvailableError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *ClassNotAvailableError) Code() errs.Code { return errs.ErrCodeClassNotAvailable }

// DuplicateClassError reports two units defining the same class. The unit
// with the lower order is kept.
type DuplicateClassError struct {
	Name         string
	Kept         string // Resource of the unit that defines the node
	Dropped      string // Resource of the unit that was discarded
	DroppedOrder int
}

// Error implements the error interface.
func (e *DuplicateClassError) Error() string {
	return fmt.Sprintf("class %s in %s is masked by %s", e.Name, e.Dropped, e.Kept)
}

// Code returns the error code for this error type.
func (e *DuplicateClassError) Code() errs.Code { return errs.ErrCodeInvalidClass }
