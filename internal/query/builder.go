package query

import (
	"fmt"
	"strings"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
)

// Spec binds one ledger's logical properties to its SQL shape.
type Spec struct {
	// Columns maps each filterable/sortable property to a physical column
	// or expression valid before aggregation.
	Columns map[Property]string
	// Aggregate names the property whose filters apply after aggregation.
	// Empty means the ledger has no aggregate column.
	Aggregate Property
	// AggregateExpr is the expression the aggregate property compares and
	// sorts against.
	AggregateExpr string
	// GroupBy is emitted between the WHERE and HAVING clauses when set.
	GroupBy string
}

// Build appends WHERE, GROUP BY, HAVING and ORDER BY clauses derived from
// filters and sorts onto base, which must hold the projection and joins
// only. Filter values are emitted as positional parameters in the same
// order their clauses appear in the text: pre-aggregation clauses first,
// post-aggregation clauses after. Fuzzy values are padded with % wildcards
// before being pushed as a parameter.
func Build(base string, filters []Filter, sorts []Sort, spec Spec) (string, []any, error) {
	var where, having []string
	var whereArgs, havingArgs []any

	for _, f := range filters {
		tok, err := f.Operator.Token()
		if err != nil {
			return "", nil, err
		}
		val := f.Value
		if f.Operator == Fuzzy {
			val = fmt.Sprintf("%%%v%%", val)
		}
		if spec.Aggregate != "" && f.Property == spec.Aggregate {
			having = append(having, spec.AggregateExpr+" "+tok+" ?")
			havingArgs = append(havingArgs, val)
			continue
		}
		col, ok := spec.Columns[f.Property]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown property %q", apperrors.ErrValidation, f.Property)
		}
		where = append(where, col+" "+tok+" ?")
		whereArgs = append(whereArgs, val)
	}

	var b strings.Builder
	b.WriteString(base)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if spec.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(spec.GroupBy)
	}
	if len(having) > 0 {
		b.WriteString(" HAVING ")
		b.WriteString(strings.Join(having, " AND "))
	}

	if len(sorts) > 0 {
		order := make([]string, 0, len(sorts))
		for _, s := range sorts {
			dir, err := s.Direction.Token()
			if err != nil {
				return "", nil, err
			}
			col := ""
			if spec.Aggregate != "" && s.Property == spec.Aggregate {
				col = spec.AggregateExpr
			} else if c, ok := spec.Columns[s.Property]; ok {
				col = c
			} else {
				return "", nil, fmt.Errorf("%w: unknown sort property %q", apperrors.ErrValidation, s.Property)
			}
			// Sorts keep caller order; no implicit secondary key, so
			// equal-key rows come back in storage order.
			order = append(order, col+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}

	return b.String(), append(whereArgs, havingArgs...), nil
}
