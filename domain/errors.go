package domain

import (
	"errors"
	"fmt"
)

// ErrDeclarationNotFound is returned by mutators when the named declaration
// cannot be located in the target file. The file is left untouched.
var ErrDeclarationNotFound = errors.New("declaration not found")

// ParseError wraps a per-file parse failure. During a scan it is recoverable:
// the file is recorded as a ScanFailure and the walk continues.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// QueryError wraps a structural query failure against a parsed manifest.
// During mutation it is fatal for that operation.
type QueryError struct {
	Path string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to query %s: %v", e.Path, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
