package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
	"github.com/dotshell-org/ico-sub000/internal/database"
	"github.com/dotshell-org/ico-sub000/internal/query"
)

// Logical filter/sort properties shared by the ledger views.
const (
	PropDate     query.Property = "date"
	PropTitle    query.Property = "title"
	PropCategory query.Property = "category"
	PropAmount   query.Property = "amount"
	PropObject   query.Property = "object"
	PropStock    query.Property = "stock"
	PropPrice    query.Property = "price"
	PropQuantity query.Property = "quantity"
)

const creditTotalExpr = "COALESCE(SUM(r.quantity * r.amount), 0)"

// creditsSpec maps the credits ledger onto the (group, table, row) join.
var creditsSpec = query.Spec{
	Columns: map[query.Property]string{
		PropDate:     "g.date",
		PropTitle:    "g.title",
		PropCategory: "g.category",
	},
	Aggregate:     PropAmount,
	AggregateExpr: creditTotalExpr,
	GroupBy:       "t.id, g.date, g.title, g.category, t.type",
}

// creditsListSpec aggregates the same join per group instead of per table.
var creditsListSpec = query.Spec{
	Columns: map[query.Property]string{
		PropDate:     "g.date",
		PropTitle:    "g.title",
		PropCategory: "g.category",
	},
	Aggregate:     PropAmount,
	AggregateExpr: creditTotalExpr,
	GroupBy:       "g.id",
}

// CreditRepo handles the cash credits ledger.
type CreditRepo struct {
	db *sql.DB
}

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// GetCredits returns the per-table view: one row per credit table with the
// owning group's date/title/category and the table's summed amount. Titles
// are decorated with the table type's emoji.
func (r *CreditRepo) GetCredits(ctx context.Context, filters []query.Filter, sorts []query.Sort) ([]Credit, error) {
	base := `
	SELECT t.id, g.date, g.title, g.category, t.type, ` + creditTotalExpr + `
	FROM credit_tables t
	JOIN credit_groups g ON g.id = t.group_id
	LEFT JOIN credit_rows r ON r.table_id = t.id`

	q, args, err := query.Build(base, filters, sorts, creditsSpec)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	var out []Credit
	for rows.Next() {
		var c Credit
		var typ CreditTableType
		if err := rows.Scan(&c.ID, &c.Date, &c.Title, &c.Category, &typ, &c.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		if emoji := typ.Emoji(); emoji != "" {
			c.Title = emoji + " " + c.Title
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCreditsList returns the per-group view. The numeric total comes from
// one aggregate query; table ids and types come from a second query per
// group rather than a JSON-encoded aggregate column.
func (r *CreditRepo) GetCreditsList(ctx context.Context, filters []query.Filter, sorts []query.Sort) ([]CreditSummary, error) {
	base := `
	SELECT g.id, g.title, g.date, g.category, ` + creditTotalExpr + `
	FROM credit_groups g
	LEFT JOIN credit_tables t ON t.group_id = g.id
	LEFT JOIN credit_rows r ON r.table_id = t.id`

	q, args, err := query.Build(base, filters, sorts, creditsListSpec)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query credits list: %w", err)
	}
	defer rows.Close()

	var out []CreditSummary
	for rows.Next() {
		var s CreditSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Date, &s.Category, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan credit summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, types, err := r.groupTables(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].TableIDs = ids
		out[i].Types = types
	}
	return out, nil
}

// groupTables returns a group's table ids and its distinct table types with
// Other appended last.
func (r *CreditRepo) groupTables(ctx context.Context, groupID int64) ([]int64, []CreditTableType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, type FROM credit_tables WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("query group tables: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var types []CreditTableType
	seen := map[CreditTableType]bool{}
	for rows.Next() {
		var id int64
		var typ CreditTableType
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, nil, fmt.Errorf("scan group table: %w", err)
		}
		ids = append(ids, id)
		if typ != TableOther && !seen[typ] {
			seen[typ] = true
			types = append(types, typ)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	// Other closes the list regardless of whether such a table exists; the
	// list view uses it as the catch-all bucket.
	types = append(types, TableOther)
	return ids, types, nil
}

// GetTableFromID returns one table with its rows. A table without rows
// falls back to a type-only lookup; a missing table yields an empty Other
// table rather than an error.
func (r *CreditRepo) GetTableFromID(ctx context.Context, tableID int64) (CreditTableDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.type, r.id, r.amount, r.quantity
		FROM credit_tables t
		JOIN credit_rows r ON r.table_id = t.id
		WHERE t.id = ?
		ORDER BY r.amount DESC`, tableID)
	if err != nil {
		return CreditTableDetail{}, fmt.Errorf("query credit table: %w", err)
	}
	defer rows.Close()

	var detail CreditTableDetail
	for rows.Next() {
		var row CreditRow
		if err := rows.Scan(&detail.Type, &row.ID, &row.Amount, &row.Quantity); err != nil {
			return CreditTableDetail{}, fmt.Errorf("scan credit row: %w", err)
		}
		row.TableID = tableID
		detail.Rows = append(detail.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return CreditTableDetail{}, err
	}
	if len(detail.Rows) > 0 {
		return detail, nil
	}

	err = r.db.QueryRowContext(ctx, `SELECT type FROM credit_tables WHERE id = ?`, tableID).Scan(&detail.Type)
	if err == sql.ErrNoRows {
		return CreditTableDetail{Type: TableOther}, nil
	}
	if err != nil {
		return CreditTableDetail{}, fmt.Errorf("query credit table type: %w", err)
	}
	return detail, nil
}

// AddRow inserts a denomination row. The amount must not repeat within the
// table; the pre-check is not atomic against concurrent writers, which is
// acceptable for a single-process embedded store.
func (r *CreditRepo) AddRow(ctx context.Context, tableID int64, amount float64, quantity int) (CreditRow, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_rows WHERE table_id = ? AND amount = ?`,
		tableID, amount).Scan(&count)
	if err != nil {
		return CreditRow{}, fmt.Errorf("check denomination: %w", err)
	}
	if count > 0 {
		return CreditRow{}, fmt.Errorf("%w: amount %v already present in table %d", apperrors.ErrDuplicate, amount, tableID)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_rows(table_id, quantity, amount) VALUES(?, ?, ?)`,
		tableID, quantity, amount)
	if err != nil {
		return CreditRow{}, fmt.Errorf("insert credit row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return CreditRow{}, err
	}
	return CreditRow{ID: id, TableID: tableID, Quantity: quantity, Amount: amount}, nil
}

// UpdateRowQuantity sets a row's quantity. Returns false when the row does
// not exist.
func (r *CreditRepo) UpdateRowQuantity(ctx context.Context, rowID int64, quantity int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE credit_rows SET quantity = ? WHERE id = ?`, quantity, rowID)
	if err != nil {
		return false, fmt.Errorf("update credit row: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteRow removes a single denomination row.
func (r *CreditRepo) DeleteRow(ctx context.Context, rowID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credit_rows WHERE id = ?`, rowID)
	if err != nil {
		return false, fmt.Errorf("delete credit row: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddTable creates a table under a group. A group carries at most one
// Other table; asking for a second returns the existing one's id.
func (r *CreditRepo) AddTable(ctx context.Context, groupID int64, typ CreditTableType) (int64, error) {
	if typ == TableOther {
		var existing int64
		err := r.db.QueryRowContext(ctx,
			`SELECT id FROM credit_tables WHERE group_id = ? AND type = ?`,
			groupID, TableOther).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("check other table: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_tables(group_id, type) VALUES(?, ?)`, groupID, typ)
	if err != nil {
		return 0, fmt.Errorf("insert credit table: %w", err)
	}
	return res.LastInsertId()
}

// DeleteTable removes a table and its rows in one transaction. Returns
// false when the table does not exist.
func (r *CreditRepo) DeleteTable(ctx context.Context, tableID int64) (bool, error) {
	var deleted bool
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credit_rows WHERE table_id = ?`, tableID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM credit_tables WHERE id = ?`, tableID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, &apperrors.TxError{Op: "delete credit table", Err: err}
	}
	return deleted, nil
}

// AddGroup creates a deposit event dated today.
func (r *CreditRepo) AddGroup(ctx context.Context, title, category string) (Credit, error) {
	date := database.Today()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_groups(date, title, category) VALUES(?, ?, ?)`,
		date, title, category)
	if err != nil {
		return Credit{}, fmt.Errorf("insert credit group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Credit{}, err
	}
	return Credit{ID: id, Date: date, Title: title, Category: category}, nil
}

// DeleteGroup removes a group with all of its tables and rows in one
// transaction. Errors propagate after rollback.
func (r *CreditRepo) DeleteGroup(ctx context.Context, groupID int64) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM credit_rows
			WHERE table_id IN (SELECT id FROM credit_tables WHERE group_id = ?)`, groupID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM credit_tables WHERE group_id = ?`, groupID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM credit_groups WHERE id = ?`, groupID)
		return err
	})
	if err != nil {
		return &apperrors.TxError{Op: "delete credit group", Err: err}
	}
	return nil
}
