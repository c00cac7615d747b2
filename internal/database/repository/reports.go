package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReportsRepo computes the dashboard rollups over both money ledgers.
type ReportsRepo struct {
	db *sql.DB
}

func NewReportsRepo(db *sql.DB) *ReportsRepo { return &ReportsRepo{db: db} }

const productTotalExpr = `
	p.amount_excl_tax * p.quantity
	* (1 - p.discount_percentage / 100)
	* (1 + p.tax_rate / 100)
	- p.discount_amount`

// TransactionsByMonth returns credit and debit sums for the trailing
// 12 calendar months ending with now's month, oldest first. Months without
// activity hold zero.
func (r *ReportsRepo) TransactionsByMonth(ctx context.Context, now time.Time) (credits, debits []float64, err error) {
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	from := windowStart.Format("2006-01-02")

	creditSums, err := r.monthSums(ctx, `
		SELECT strftime('%Y-%m', g.date) AS month, SUM(r.quantity * r.amount)
		FROM credit_groups g
		JOIN credit_tables t ON t.group_id = g.id
		JOIN credit_rows r ON r.table_id = t.id
		WHERE g.date >= ?
		GROUP BY month`, from)
	if err != nil {
		return nil, nil, err
	}
	debitSums, err := r.monthSums(ctx, `
		SELECT strftime('%Y-%m', i.issue_date) AS month, SUM(`+productTotalExpr+`)
		FROM invoices i
		JOIN invoice_products p ON p.invoice_id = i.id
		WHERE i.issue_date >= ?
		GROUP BY month`, from)
	if err != nil {
		return nil, nil, err
	}

	credits = make([]float64, 12)
	debits = make([]float64, 12)
	for i := 0; i < 12; i++ {
		key := windowStart.AddDate(0, i, 0).Format("2006-01")
		credits[i] = creditSums[key]
		debits[i] = debitSums[key]
	}
	return credits, debits, nil
}

func (r *ReportsRepo) monthSums(ctx context.Context, q, from string) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, q, from)
	if err != nil {
		return nil, fmt.Errorf("query month sums: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var month string
		var sum float64
		if err := rows.Scan(&month, &sum); err != nil {
			return nil, fmt.Errorf("scan month sum: %w", err)
		}
		out[month] = sum
	}
	return out, rows.Err()
}

// CreditsSumByCategory totals the credits ledger per category, largest
// first. limit <= 0 returns every category.
func (r *ReportsRepo) CreditsSumByCategory(ctx context.Context, limit int) (CategorySums, error) {
	return r.categorySums(ctx, `
		SELECT g.category, SUM(r.quantity * r.amount) AS total
		FROM credit_groups g
		JOIN credit_tables t ON t.group_id = g.id
		JOIN credit_rows r ON r.table_id = t.id
		GROUP BY g.category
		ORDER BY total DESC`, limit)
}

// DebitsSumByCategory totals the invoices ledger per category, largest
// first. limit <= 0 returns every category.
func (r *ReportsRepo) DebitsSumByCategory(ctx context.Context, limit int) (CategorySums, error) {
	return r.categorySums(ctx, `
		SELECT i.category, SUM(`+productTotalExpr+`) AS total
		FROM invoices i
		JOIN invoice_products p ON p.invoice_id = i.id
		GROUP BY i.category
		ORDER BY total DESC`, limit)
}

func (r *ReportsRepo) categorySums(ctx context.Context, q string, limit int) (CategorySums, error) {
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return CategorySums{}, fmt.Errorf("query category sums: %w", err)
	}
	defer rows.Close()

	var out CategorySums
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return CategorySums{}, fmt.Errorf("scan category sum: %w", err)
		}
		out.Categories = append(out.Categories, category)
		out.Values = append(out.Values, total)
	}
	return out, rows.Err()
}
