package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
)

var testSpec = Spec{
	Columns: map[Property]string{
		"date":     "g.date",
		"title":    "g.title",
		"category": "g.category",
	},
	Aggregate:     "amount",
	AggregateExpr: "SUM(r.quantity * r.amount)",
	GroupBy:       "g.id",
}

func TestBuildNoPredicates(t *testing.T) {
	q, args, err := Build("SELECT * FROM t", nil, nil, testSpec)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t GROUP BY g.id", q)
	assert.Empty(t, args)
}

func TestBuildWhereAndHavingRouting(t *testing.T) {
	filters := []Filter{
		{Property: "title", Operator: Exact, Value: "rent"},
		{Property: "amount", Operator: GreaterThan, Value: 100.0},
		{Property: "category", Operator: Exact, Value: "housing"},
	}
	q, args, err := Build("SELECT * FROM t", filters, nil, testSpec)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM t WHERE g.title = ? AND g.category = ? GROUP BY g.id"+
			" HAVING SUM(r.quantity * r.amount) > ?", q)
	// Pre-aggregation values first, post-aggregation last, matching the
	// order of the placeholders in the text.
	assert.Equal(t, []any{"rent", "housing", 100.0}, args)
}

func TestBuildFuzzyWrapsValueAsParameter(t *testing.T) {
	q, args, err := Build("SELECT * FROM t",
		[]Filter{{Property: "title", Operator: Fuzzy, Value: "rent"}}, nil, testSpec)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE g.title LIKE ? GROUP BY g.id", q)
	assert.Equal(t, []any{"%rent%"}, args)
}

func TestBuildValueNeverReachesQueryText(t *testing.T) {
	build := func(v string) string {
		q, _, err := Build("SELECT * FROM t",
			[]Filter{{Property: "title", Operator: Exact, Value: v}}, nil, testSpec)
		require.NoError(t, err)
		return q
	}
	assert.Equal(t, build("abc"), build("'; DROP TABLE t; --"))
}

func TestBuildSortKeepsCallerOrder(t *testing.T) {
	sorts := []Sort{
		{Property: "amount", Direction: Desc},
		{Property: "date", Direction: Asc},
	}
	q, args, err := Build("SELECT * FROM t", nil, sorts, testSpec)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM t GROUP BY g.id ORDER BY SUM(r.quantity * r.amount) DESC, g.date ASC", q)
	assert.Empty(t, args)
}

func TestBuildWithoutGroupBy(t *testing.T) {
	flat := Spec{Columns: map[Property]string{"date": "s.date"}}
	q, args, err := Build("SELECT * FROM s",
		[]Filter{{Property: "date", Operator: Exact, Value: "2026-01-01"}},
		[]Sort{{Property: "date", Direction: Desc}}, flat)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM s WHERE s.date = ? ORDER BY s.date DESC", q)
	assert.Equal(t, []any{"2026-01-01"}, args)
}

func TestBuildUnknownProperty(t *testing.T) {
	_, _, err := Build("SELECT * FROM t",
		[]Filter{{Property: "nope", Operator: Exact, Value: 1}}, nil, testSpec)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = Build("SELECT * FROM t", nil,
		[]Sort{{Property: "nope", Direction: Asc}}, testSpec)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildUnknownOperatorAndDirection(t *testing.T) {
	_, _, err := Build("SELECT * FROM t",
		[]Filter{{Property: "title", Operator: Operator(42), Value: "x"}}, nil, testSpec)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedOperator)

	_, _, err = Build("SELECT * FROM t", nil,
		[]Sort{{Property: "title", Direction: Direction(42)}}, testSpec)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedOperator)
}

func TestOperatorTokens(t *testing.T) {
	cases := map[Operator]string{Fuzzy: "LIKE", Exact: "=", GreaterThan: ">", LessThan: "<"}
	for op, want := range cases {
		tok, err := op.Token()
		require.NoError(t, err)
		assert.Equal(t, want, tok)
	}
}
