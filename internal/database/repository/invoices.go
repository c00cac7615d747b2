package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotshell-org/ico-sub000/internal/apperrors"
	"github.com/dotshell-org/ico-sub000/internal/database"
	"github.com/dotshell-org/ico-sub000/internal/query"
)

// Per-product total, compounded in the stored order: discount percentage
// first, tax on the discounted base, flat discount off the taxed amount.
const invoiceTotalExpr = `COALESCE(SUM(
	p.amount_excl_tax * p.quantity
	* (1 - p.discount_percentage / 100)
	* (1 + p.tax_rate / 100)
	- p.discount_amount), 0)`

// invoicesSpec maps the debits ledger. The logical "date" is the issue
// date; amount filters compare against the aggregated total.
var invoicesSpec = query.Spec{
	Columns: map[query.Property]string{
		PropDate:     "i.issue_date",
		PropTitle:    "i.title",
		PropCategory: "i.category",
	},
	Aggregate:     PropAmount,
	AggregateExpr: invoiceTotalExpr,
	GroupBy:       "i.id",
}

// InvoiceRepo handles the invoices/debits ledger.
type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// GetInvoices returns invoices with their product-sum totals. Amount
// filters route to HAVING, everything else to WHERE.
func (r *InvoiceRepo) GetInvoices(ctx context.Context, filters []query.Filter, sorts []query.Sort) ([]Invoice, error) {
	base := `
	SELECT i.id, i.title, i.category, i.issue_date, i.sale_service_date, i.country_code, i.no, ` + invoiceTotalExpr + `
	FROM invoices i
	LEFT JOIN invoice_products p ON p.invoice_id = i.id`

	q, args, err := query.Build(base, filters, sorts, invoicesSpec)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Get returns one invoice with its total.
func (r *InvoiceRepo) Get(ctx context.Context, invoiceID int64) (Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.title, i.category, i.issue_date, i.sale_service_date, i.country_code, i.no, `+invoiceTotalExpr+`
		FROM invoices i
		LEFT JOIN invoice_products p ON p.invoice_id = i.id
		WHERE i.id = ?
		GROUP BY i.id`, invoiceID)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return Invoice{}, fmt.Errorf("%w: invoice %d", apperrors.ErrNotFound, invoiceID)
	}
	return inv, err
}

func scanInvoice(row scanner) (Invoice, error) {
	var inv Invoice
	var no sql.NullString
	if err := row.Scan(&inv.ID, &inv.Title, &inv.Category, &inv.IssueDate,
		&inv.SaleServiceDate, &inv.CountryCode, &no, &inv.TotalAmount); err != nil {
		return Invoice{}, err
	}
	if no.Valid {
		inv.No = &no.String
	}
	return inv, nil
}

// Add creates an invoice with both dates defaulting to today.
func (r *InvoiceRepo) Add(ctx context.Context, title, category, countryCode string) (Invoice, error) {
	date := database.Today()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices(title, category, issue_date, sale_service_date, country_code, no)
		VALUES(?, ?, ?, ?, ?, NULL)`,
		title, category, date, date, countryCode)
	if err != nil {
		return Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Invoice{}, err
	}
	return Invoice{
		ID:              id,
		Title:           title,
		Category:        category,
		IssueDate:       date,
		SaleServiceDate: date,
		CountryCode:     countryCode,
	}, nil
}

// Field-by-field updates; there is no generic patch operation.

func (r *InvoiceRepo) UpdateTitle(ctx context.Context, invoiceID int64, title string) error {
	return r.updateField(ctx, invoiceID, "title", title)
}

func (r *InvoiceRepo) UpdateCategory(ctx context.Context, invoiceID int64, category string) error {
	return r.updateField(ctx, invoiceID, "category", category)
}

func (r *InvoiceRepo) UpdateIssueDate(ctx context.Context, invoiceID int64, date string) error {
	return r.updateField(ctx, invoiceID, "issue_date", date)
}

func (r *InvoiceRepo) UpdateSaleServiceDate(ctx context.Context, invoiceID int64, date string) error {
	return r.updateField(ctx, invoiceID, "sale_service_date", date)
}

func (r *InvoiceRepo) UpdateNo(ctx context.Context, invoiceID int64, no *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE invoices SET no = ? WHERE id = ?`, no, invoiceID)
	return err
}

func (r *InvoiceRepo) updateField(ctx context.Context, invoiceID int64, column, value string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE invoices SET `+column+` = ? WHERE id = ?`, value, invoiceID)
	return err
}

// Delete removes an invoice and everything it owns in one transaction:
// products first, then the stock additions those products were linked to,
// then country specifications, then the invoice row.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID int64) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT addition_id FROM invoice_products WHERE invoice_id = ? AND addition_id > 0`, invoiceID)
		if err != nil {
			return err
		}
		var additionIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			additionIDs = append(additionIDs, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_products WHERE invoice_id = ?`, invoiceID); err != nil {
			return err
		}
		for _, id := range additionIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM stock_additions WHERE id = ?`, id); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_country_specifications WHERE invoice_id = ?`, invoiceID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, invoiceID)
		return err
	})
	if err != nil {
		return &apperrors.TxError{Op: "delete invoice", Err: err}
	}
	return nil
}

// GetProducts returns an invoice's line items.
func (r *InvoiceRepo) GetProducts(ctx context.Context, invoiceID int64) ([]InvoiceProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, addition_id, name, amount_excl_tax, quantity, tax_rate, discount_percentage, discount_amount
		FROM invoice_products
		WHERE invoice_id = ?
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice products: %w", err)
	}
	defer rows.Close()

	var out []InvoiceProduct
	for rows.Next() {
		var p InvoiceProduct
		var link int64
		if err := rows.Scan(&p.ID, &p.InvoiceID, &link, &p.Name, &p.AmountExclTax,
			&p.Quantity, &p.TaxRate, &p.DiscountPercentage, &p.DiscountAmount); err != nil {
			return nil, fmt.Errorf("scan invoice product: %w", err)
		}
		p.Link = linkFromColumn(link)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddProduct inserts a line item, unlinked from stock.
func (r *InvoiceRepo) AddProduct(ctx context.Context, p InvoiceProduct) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_products(invoice_id, addition_id, name, amount_excl_tax, quantity, tax_rate, discount_percentage, discount_amount)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		p.InvoiceID, p.Link.column(), p.Name, p.AmountExclTax, p.Quantity,
		p.TaxRate, p.DiscountPercentage, p.DiscountAmount)
	if err != nil {
		return fmt.Errorf("insert invoice product: %w", err)
	}
	return nil
}

// UpdateProduct rewrites a line item's editable fields. The stock link is
// owned by the reconciliation operations and left untouched.
func (r *InvoiceRepo) UpdateProduct(ctx context.Context, p InvoiceProduct) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE invoice_products
		SET name = ?, amount_excl_tax = ?, quantity = ?, tax_rate = ?, discount_percentage = ?, discount_amount = ?
		WHERE id = ?`,
		p.Name, p.AmountExclTax, p.Quantity, p.TaxRate, p.DiscountPercentage, p.DiscountAmount, p.ID)
	return err
}

// DeleteProduct removes a line item. A linked stock addition goes with it,
// in the same transaction.
func (r *InvoiceRepo) DeleteProduct(ctx context.Context, productID int64) error {
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		var link int64
		err := tx.QueryRowContext(ctx,
			`SELECT addition_id FROM invoice_products WHERE id = ?`, productID).Scan(&link)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: invoice product %d", apperrors.ErrNotFound, productID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_products WHERE id = ?`, productID); err != nil {
			return err
		}
		if link > 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM stock_additions WHERE id = ?`, link); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &apperrors.TxError{Op: "delete invoice product", Err: err}
	}
	return nil
}

// ExclTaxTotal sums the invoice's product totals before tax.
func (r *InvoiceRepo) ExclTaxTotal(ctx context.Context, invoiceID int64) (float64, error) {
	products, err := r.GetProducts(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	total := decimalZero
	for _, p := range products {
		total = total.Add(p.ExclTaxTotal())
	}
	return total.InexactFloat64(), nil
}

// InclTaxTotal sums the invoice's tax- and discount-adjusted product totals.
func (r *InvoiceRepo) InclTaxTotal(ctx context.Context, invoiceID int64) (float64, error) {
	products, err := r.GetProducts(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	total := decimalZero
	for _, p := range products {
		total = total.Add(p.InclTaxTotal())
	}
	return total.InexactFloat64(), nil
}

// GetCountrySpecifications returns an invoice's key/value pairs.
func (r *InvoiceRepo) GetCountrySpecifications(ctx context.Context, invoiceID int64) ([]CountrySpecification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, key, value
		FROM invoice_country_specifications
		WHERE invoice_id = ?
		ORDER BY key`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query country specifications: %w", err)
	}
	defer rows.Close()

	var out []CountrySpecification
	for rows.Next() {
		var s CountrySpecification
		if err := rows.Scan(&s.ID, &s.InvoiceID, &s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("scan country specification: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetCountrySpecification upserts one key/value pair on an invoice.
func (r *InvoiceRepo) SetCountrySpecification(ctx context.Context, invoiceID int64, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_country_specifications(invoice_id, key, value)
		VALUES(?, ?, ?)
		ON CONFLICT(invoice_id, key) DO UPDATE SET
			value = excluded.value`,
		invoiceID, key, value)
	return err
}
