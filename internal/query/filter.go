// Package query builds parameterized SQL from abstract filter and sort
// predicates. Query text and positional arguments are assembled in
// lock-step; runtime values are never interpolated into the text.
package query

import (
	"fmt"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
)

// Operator is an abstract comparison applied by a filter.
type Operator int

const (
	Fuzzy Operator = iota
	Exact
	GreaterThan
	LessThan
)

// Direction orders a sort.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Property names a logical column of one ledger. Each ledger maps its
// properties onto physical columns through a Spec.
type Property string

// Filter matches rows whose property compares to Value under Operator.
type Filter struct {
	Property Property `json:"property"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Sort orders results by a property.
type Sort struct {
	Property  Property  `json:"property"`
	Direction Direction `json:"direction"`
}

// Token returns the SQL comparison token for op.
func (op Operator) Token() (string, error) {
	switch op {
	case Fuzzy:
		return "LIKE", nil
	case Exact:
		return "=", nil
	case GreaterThan:
		return ">", nil
	case LessThan:
		return "<", nil
	}
	return "", fmt.Errorf("%w: operator %d", apperrors.ErrUnsupportedOperator, int(op))
}

// Token returns the SQL ordering token for d.
func (d Direction) Token() (string, error) {
	switch d {
	case Asc:
		return "ASC", nil
	case Desc:
		return "DESC", nil
	}
	return "", fmt.Errorf("%w: direction %d", apperrors.ErrUnsupportedOperator, int(d))
}
