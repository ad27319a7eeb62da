package algebrizer

import "fmt"

// AlgebrizeError is returned when a parsed query is structurally invalid
// rather than merely unsatisfiable: an unbound predicate variable, an
// or/or-join with no common variable, an unsupported clause shape, and so
// on. A clause that's well-formed but can never match anything (an unknown
// attribute, a type conflict) marks the CC known-empty instead.
type AlgebrizeError struct {
	Code    AlgebrizeErrorCode
	Message string
}

// AlgebrizeErrorCode categorizes algebrization failures.
type AlgebrizeErrorCode string

const (
	ErrCodeTypeConflict      AlgebrizeErrorCode = "TYPE_CONFLICT"
	ErrCodeUnboundVariable   AlgebrizeErrorCode = "UNBOUND_VARIABLE"
	ErrCodeInvalidReversal   AlgebrizeErrorCode = "INVALID_REVERSAL"
	ErrCodeEmptyOrBranches   AlgebrizeErrorCode = "EMPTY_OR_BRANCHES"
	ErrCodeOrJoinVarsUnbound AlgebrizeErrorCode = "OR_JOIN_VARS_UNBOUND"
	ErrCodeUnsupportedClause AlgebrizeErrorCode = "UNSUPPORTED_CLAUSE"
)

// Error implements the error interface.
func (e *AlgebrizeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code AlgebrizeErrorCode, format string, args ...interface{}) *AlgebrizeError {
	return &AlgebrizeError{Code: code, Message: fmt.Sprintf(format, args...)}
}
