package export

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a record lacks one of the requested fields.
var ErrMissingField = errors.New("record is missing a requested field")

// Kind classifies export failures.
type Kind string

const (
	// KindDataSource covers query, connection and schema failures.
	KindDataSource Kind = "datasource"
	// KindResource covers temporary file create/write/read failures.
	KindResource Kind = "resource"
)

// ExportError wraps a failure that aborted an export.
type ExportError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s error during %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewDataSourceError wraps err as a data source failure.
func NewDataSourceError(op string, err error) *ExportError {
	return &ExportError{Kind: KindDataSource, Op: op, Err: err}
}

// NewResourceError wraps err as a temporary resource failure.
func NewResourceError(op string, err error) *ExportError {
	return &ExportError{Kind: KindResource, Op: op, Err: err}
}

// IsKind reports whether err is an ExportError of kind k.
func IsKind(err error, k Kind) bool {
	var ee *ExportError
	return errors.As(err, &ee) && ee.Kind == k
}
