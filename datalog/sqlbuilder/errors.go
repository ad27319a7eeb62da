package sqlbuilder

import "fmt"

// BuildError is returned when a SelectQuery cannot be rendered to SQL.
type BuildError struct {
	Code    BuildErrorCode
	Message string
}

// BuildErrorCode categorizes build failures.
type BuildErrorCode string

const (
	ErrCodeInvalidParameterName       BuildErrorCode = "INVALID_PARAMETER_NAME"
	ErrCodeBindParamCouldBeGenerated  BuildErrorCode = "BIND_PARAM_COULD_BE_GENERATED"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newBuildError(code BuildErrorCode, format string, args ...interface{}) *BuildError {
	return &BuildError{Code: code, Message: fmt.Sprintf(format, args...)}
}
