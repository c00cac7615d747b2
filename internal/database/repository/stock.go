package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
	"github.com/dotshell-org/ico-sub000/internal/database"
)

// StockRepo handles stock movements and their link to invoice products.
type StockRepo struct {
	db *sql.DB
}

func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

// Inventory returns every object with a positive net quantity as of the
// cutoff date: additions(date <= cutoff) minus deletions(date <= cutoff),
// sorted by name. Item ids are the object's first addition id.
func (r *StockRepo) Inventory(ctx context.Context, asOf string) ([]InventoryItem, error) {
	added, firstIDs, err := r.sumMovements(ctx, "stock_additions", asOf)
	if err != nil {
		return nil, err
	}
	removed, _, err := r.sumMovements(ctx, "stock_deletions", asOf)
	if err != nil {
		return nil, err
	}

	var out []InventoryItem
	for name, qty := range added {
		net := qty - removed[name]
		if net <= 0 {
			continue
		}
		out = append(out, InventoryItem{ID: firstIDs[name], Name: name, Quantity: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// sumMovements returns per-object quantity sums for one movement table up
// to and including the cutoff date, along with each object's first row id.
func (r *StockRepo) sumMovements(ctx context.Context, table, asOf string) (map[string]int, map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT object, SUM(quantity), MIN(id) FROM `+table+` WHERE date <= ? GROUP BY object`, asOf)
	if err != nil {
		return nil, nil, fmt.Errorf("sum %s: %w", table, err)
	}
	defer rows.Close()

	sums := map[string]int{}
	firstIDs := map[string]int64{}
	for rows.Next() {
		var object string
		var qty int
		var first int64
		if err := rows.Scan(&object, &qty, &first); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", table, err)
		}
		sums[object] = qty
		firstIDs[object] = first
	}
	return sums, firstIDs, rows.Err()
}

// ObjectAmountCurve returns 12 trailing monthly net-quantity snapshots for
// one object, oldest first. The first 11 buckets are snapshots strictly
// before each bucket's month start; the most recent bucket uses all-time
// totals so same-month activity shows up immediately.
func (r *StockRepo) ObjectAmountCurve(ctx context.Context, object string, now time.Time) ([]int, error) {
	curve := make([]int, 12)
	for i := 0; i < 11; i++ {
		// bucket i covers the month starting (11-i) months back
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i-11, 0)
		net, err := r.netBefore(ctx, object, start.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		curve[i] = net
	}
	net, err := r.netAllTime(ctx, object)
	if err != nil {
		return nil, err
	}
	curve[11] = net
	return curve, nil
}

func (r *StockRepo) netBefore(ctx context.Context, object, date string) (int, error) {
	var added, removed int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_additions WHERE object = ? AND date < ?`,
		object, date).Scan(&added)
	if err != nil {
		return 0, fmt.Errorf("sum additions before %s: %w", date, err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_deletions WHERE object = ? AND date < ?`,
		object, date).Scan(&removed)
	if err != nil {
		return 0, fmt.Errorf("sum deletions before %s: %w", date, err)
	}
	return added - removed, nil
}

func (r *StockRepo) netAllTime(ctx context.Context, object string) (int, error) {
	var added, removed int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_additions WHERE object = ?`, object).Scan(&added)
	if err != nil {
		return 0, fmt.Errorf("sum additions: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_deletions WHERE object = ?`, object).Scan(&removed)
	if err != nil {
		return 0, fmt.Errorf("sum deletions: %w", err)
	}
	return added - removed, nil
}

// ensureStock returns the id of the named stock, creating it if missing.
func ensureStock(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM stocks WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO stocks(name) VALUES(?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LinkProduct ties an invoice product to a stock addition. With
// additionID > 0 the product links to that existing addition; otherwise a
// new addition is recorded (dated with the invoice's sale/service date)
// and linked. A previously linked addition is removed first. All of it
// runs in one transaction.
func (r *StockRepo) LinkProduct(ctx context.Context, productID, additionID int64, object string, quantity int, stockName string) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		var current int64
		var invoiceID int64
		err := tx.QueryRowContext(ctx,
			`SELECT addition_id, invoice_id FROM invoice_products WHERE id = ?`, productID).
			Scan(&current, &invoiceID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: invoice product %d", apperrors.ErrNotFound, productID)
		}
		if err != nil {
			return err
		}
		if current > 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM stock_additions WHERE id = ?`, current); err != nil {
				return err
			}
		}

		target := additionID
		if target <= 0 {
			var date string
			if err := tx.QueryRowContext(ctx,
				`SELECT sale_service_date FROM invoices WHERE id = ?`, invoiceID).Scan(&date); err != nil {
				return err
			}
			stockID, err := ensureStock(ctx, tx, stockName)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO stock_additions(stock_id, date, object, quantity) VALUES(?, ?, ?, ?)`,
				stockID, date, object, quantity)
			if err != nil {
				return err
			}
			if target, err = res.LastInsertId(); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE invoice_products SET addition_id = ? WHERE id = ?`, target, productID)
		return err
	})
	if err != nil {
		return &apperrors.TxError{Op: "link invoice product", Err: err}
	}
	return nil
}

// IgnoreProduct marks a product as explicitly excluded from stock
// tracking, deleting any addition it was linked to.
func (r *StockRepo) IgnoreProduct(ctx context.Context, productID int64) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		var current int64
		err := tx.QueryRowContext(ctx,
			`SELECT addition_id FROM invoice_products WHERE id = ?`, productID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: invoice product %d", apperrors.ErrNotFound, productID)
		}
		if err != nil {
			return err
		}
		if current > 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM stock_additions WHERE id = ?`, current); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE invoice_products SET addition_id = ? WHERE id = ?`,
			StockLink{State: LinkIgnored}.column(), productID)
		return err
	})
	if err != nil {
		return &apperrors.TxError{Op: "ignore invoice product", Err: err}
	}
	return nil
}

// AddAddition records an inbound movement.
func (r *StockRepo) AddAddition(ctx context.Context, date, object string, quantity int, stockName string) (int64, error) {
	var id int64
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		stockID, err := ensureStock(ctx, tx, stockName)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO stock_additions(stock_id, date, object, quantity) VALUES(?, ?, ?, ?)`,
			stockID, date, object, quantity)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &apperrors.TxError{Op: "add stock addition", Err: err}
	}
	return id, nil
}

// AddDeletion records an outbound movement.
func (r *StockRepo) AddDeletion(ctx context.Context, date, object string, quantity int, stockName string) (int64, error) {
	var id int64
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		stockID, err := ensureStock(ctx, tx, stockName)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO stock_deletions(stock_id, date, object, quantity) VALUES(?, ?, ?, ?)`,
			stockID, date, object, quantity)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &apperrors.TxError{Op: "add stock deletion", Err: err}
	}
	return id, nil
}

// DeleteAddition removes an inbound movement and unlinks any invoice
// product pointing at it.
func (r *StockRepo) DeleteAddition(ctx context.Context, additionID int64) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE invoice_products SET addition_id = 0 WHERE addition_id = ?`, additionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM stock_additions WHERE id = ?`, additionID)
		return err
	})
	if err != nil {
		return &apperrors.TxError{Op: "delete stock addition", Err: err}
	}
	return nil
}

// DeleteDeletion removes an outbound movement.
func (r *StockRepo) DeleteDeletion(ctx context.Context, deletionID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stock_deletions WHERE id = ?`, deletionID)
	return err
}

// RecentAdditions returns the newest inbound movements, used by the link
// suggestion service.
func (r *StockRepo) RecentAdditions(ctx context.Context, limit int) ([]StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stock_id, date, object, quantity
		FROM stock_additions
		ORDER BY date DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent additions: %w", err)
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.StockID, &m.Date, &m.Object, &m.Quantity); err != nil {
			return nil, fmt.Errorf("scan addition: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
