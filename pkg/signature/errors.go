package signature

import (
	"fmt"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// MalformedSignatureError reports a descriptor or signature that does not
// follow the grammar.
type MalformedSignatureError struct {
	Input  string // The complete input string
	Pos    int    // Byte offset of the defect
	Reason string
}

// Error implements the error interface.
func (e *MalformedSignatureError) Error() string {
	return fmt.Sprintf("malformed signature %q at %d: %s", e.Input, e.Pos, e.Reason)
}

// Code returns the error code for this error type.
func (e *MalformedSignatureError) Code() errs.Code { return errs.ErrCodeMalformedSignature }
