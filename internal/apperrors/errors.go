package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a referenced row does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates an insert that would violate a uniqueness invariant.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnsupportedOperator indicates a comparison or sort token outside the
// supported set. Unreachable with typed callers.
var ErrUnsupportedOperator = errors.New("unsupported operator")

// TxError reports a failed multi-statement mutation. The transaction has
// already been rolled back by the time a TxError is returned; Err carries
// the statement error that triggered the rollback.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }
