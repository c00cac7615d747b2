package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotshell-org/ico-sub000/internal/query"
)

// salesSpec maps the sales ledger. Sales carry their amount per row, so
// nothing routes to a post-aggregation clause.
var salesSpec = query.Spec{
	Columns: map[query.Property]string{
		PropDate:     "s.date",
		PropObject:   "s.object",
		PropStock:    "s.stock",
		PropPrice:    "s.price",
		PropQuantity: "s.quantity",
	},
}

// SalesRepo handles point-of-sale records.
type SalesRepo struct {
	db *sql.DB
}

func NewSalesRepo(db *sql.DB) *SalesRepo { return &SalesRepo{db: db} }

// GetSales returns sale rows with a per-(object, stock) running quantity,
// cumulative in (date, id) order regardless of the requested sort.
func (r *SalesRepo) GetSales(ctx context.Context, filters []query.Filter, sorts []query.Sort) ([]Sale, error) {
	base := `
	SELECT s.id, s.date, s.object, s.quantity, s.price, s.stock,
	       SUM(s.quantity) OVER (PARTITION BY s.object, s.stock ORDER BY s.date, s.id) AS running
	FROM sales s`

	q, args, err := query.Build(base, filters, sorts, salesSpec)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.Date, &s.Object, &s.Quantity, &s.Price, &s.Stock, &s.RunningStock); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Add records a sale.
func (r *SalesRepo) Add(ctx context.Context, s Sale) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sales(date, object, quantity, price, stock) VALUES(?, ?, ?, ?, ?)`,
		s.Date, s.Object, s.Quantity, s.Price, s.Stock)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	return res.LastInsertId()
}

// Delete removes a sale row.
func (r *SalesRepo) Delete(ctx context.Context, saleID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, saleID)
	if err != nil {
		return false, fmt.Errorf("delete sale: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
