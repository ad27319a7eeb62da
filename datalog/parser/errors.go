package parser

import (
	"errors"
	"fmt"
)

// ParseError is returned by Parse when the EDN node tree does not form a
// valid query. Code categorizes the failure so callers can react to
// specific cases (errors.As) without string-matching the message.
type ParseError struct {
	Code    ParseErrorCode
	Message string
	Line    int
	Col     int
}

// ParseErrorCode categorizes parse failures.
type ParseErrorCode string

const (
	ErrCodeMissingFind      ParseErrorCode = "MISSING_FIND"
	ErrCodeMissingWhere     ParseErrorCode = "MISSING_WHERE"
	ErrCodeDuplicateVar     ParseErrorCode = "DUPLICATE_VARIABLE"
	ErrCodeNotAVariable     ParseErrorCode = "NOT_A_VARIABLE"
	ErrCodeInvalidFind      ParseErrorCode = "INVALID_FIND_SPEC"
	ErrCodeInvalidClause    ParseErrorCode = "INVALID_CLAUSE"
	ErrCodeInvalidPattern   ParseErrorCode = "INVALID_PATTERN"
	ErrCodeInvalidPredicate ParseErrorCode = "INVALID_PREDICATE"
	ErrCodeInvalidLimit     ParseErrorCode = "INVALID_LIMIT"
	ErrCodeUnknownLimitVar  ParseErrorCode = "UNKNOWN_LIMIT_VAR"
	ErrCodeInvalidOrderBy   ParseErrorCode = "INVALID_ORDER_BY"
	ErrCodeInvalidInput     ParseErrorCode = "INVALID_INPUT_SPEC"
	ErrCodeInvalidKeyword   ParseErrorCode = "INVALID_KEYWORD"
	ErrCodeInvalidValue     ParseErrorCode = "INVALID_VALUE"
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line != 0 {
		return fmt.Sprintf("%s: %s (line %d, col %d)", e.Code, e.Message, e.Line, e.Col)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newParseError(code ParseErrorCode, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the ParseErrorCode of err, if any, using errors.As to
// look through wrapping.
func CodeOf(err error) (ParseErrorCode, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}
