package projector

import "fmt"

// ProjectError is returned when a scanned result row cannot be decoded
// back into typed values -- a column count mismatch, an unrecognized
// value_type_tag, or a raw value of the wrong Go kind for its tag.
type ProjectError struct {
	Code    ProjectErrorCode
	Message string
}

// ProjectErrorCode categorizes projection failures.
type ProjectErrorCode string

const (
	ErrCodeColumnCountMismatch ProjectErrorCode = "COLUMN_COUNT_MISMATCH"
	ErrCodeUnknownTypeTag      ProjectErrorCode = "UNKNOWN_TYPE_TAG"
	ErrCodeMalformedValue      ProjectErrorCode = "MALFORMED_VALUE"
)

// Error implements the error interface.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ProjectErrorCode, format string, args ...interface{}) *ProjectError {
	return &ProjectError{Code: code, Message: fmt.Sprintf(format, args...)}
}
