package repository

import (
	"github.com/shopspring/decimal"

	"github.com/dotshell-org/ico-sub000/internal/query"
)

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

var decimalZero decimal.Decimal

// CreditTableType classifies a credit table by the kind of money it counts.
type CreditTableType int

const (
	TableOther     CreditTableType = 0
	TableBanknotes CreditTableType = 1
	TableCoins     CreditTableType = 2
	TableCheques   CreditTableType = 3
)

// Emoji returns the decoration used in credit list titles. Unknown types
// map to the empty string rather than an error.
func (t CreditTableType) Emoji() string {
	switch t {
	case TableOther:
		return "💳"
	case TableBanknotes:
		return "💵"
	case TableCoins:
		return "🪙"
	case TableCheques:
		return "🖋"
	}
	return ""
}

// CreditGroup is one deposit event. It owns zero or more credit tables.
type CreditGroup struct {
	ID       int64
	Date     string
	Title    string
	Category string
}

// CreditTable groups denomination rows of one type under a group.
type CreditTable struct {
	ID      int64
	GroupID int64
	Type    CreditTableType
}

// CreditRow counts one denomination. Amount is unique within its table.
type CreditRow struct {
	ID       int64
	TableID  int64
	Quantity int
	Amount   float64
}

// Credit is the per-table view row returned by GetCredits.
type Credit struct {
	ID          int64
	Date        string
	Title       string
	TotalAmount float64
	Category    string
}

// CreditSummary is the per-group view row returned by GetCreditsList.
type CreditSummary struct {
	ID          int64
	Title       string
	Date        string
	Category    string
	TableIDs    []int64
	Types       []CreditTableType
	TotalAmount float64
}

// CreditTableDetail is one table with its rows.
type CreditTableDetail struct {
	Type CreditTableType
	Rows []CreditRow
}

// Invoice is a debit entry. TotalAmount is the sum of its product totals.
type Invoice struct {
	ID              int64
	Title           string
	Category        string
	IssueDate       string
	SaleServiceDate string
	CountryCode     string
	No              *string
	TotalAmount     float64
}

// LinkState describes how an invoice product relates to the stock ledger.
type LinkState int

const (
	LinkUnlinked LinkState = iota
	LinkIgnored
	LinkLinked
)

// StockLink is the explicit form of the addition_id column: unlinked,
// explicitly ignored, or linked to a stock addition.
type StockLink struct {
	State      LinkState
	AdditionID int64
}

// LinkTo returns a link to the given stock addition.
func LinkTo(additionID int64) StockLink {
	return StockLink{State: LinkLinked, AdditionID: additionID}
}

// column encodes the link to its stored sentinel form: 0 unlinked,
// -1 ignored, >0 the linked addition id.
func (l StockLink) column() int64 {
	switch l.State {
	case LinkIgnored:
		return -1
	case LinkLinked:
		return l.AdditionID
	}
	return 0
}

func linkFromColumn(v int64) StockLink {
	switch {
	case v < 0:
		return StockLink{State: LinkIgnored}
	case v > 0:
		return StockLink{State: LinkLinked, AdditionID: v}
	}
	return StockLink{State: LinkUnlinked}
}

// InvoiceProduct is one invoice line item.
type InvoiceProduct struct {
	ID                 int64
	InvoiceID          int64
	Link               StockLink
	Name               string
	AmountExclTax      float64
	Quantity           float64
	TaxRate            float64
	DiscountPercentage float64
	DiscountAmount     float64
}

// ExclTaxTotal returns the line total before tax:
// amount × quantity × (1 − discount%/100) − discount amount.
func (p InvoiceProduct) ExclTaxTotal() decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return decimal.NewFromFloat(p.AmountExclTax).
		Mul(decimal.NewFromFloat(p.Quantity)).
		Mul(one.Sub(decimal.NewFromFloat(p.DiscountPercentage).Div(hundred))).
		Sub(decimal.NewFromFloat(p.DiscountAmount))
}

// InclTaxTotal returns the tax- and discount-adjusted line total:
// amount × quantity × (1 − discount%/100) × (1 + tax%/100) − discount amount.
func (p InvoiceProduct) InclTaxTotal() decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return decimal.NewFromFloat(p.AmountExclTax).
		Mul(decimal.NewFromFloat(p.Quantity)).
		Mul(one.Sub(decimal.NewFromFloat(p.DiscountPercentage).Div(hundred))).
		Mul(one.Add(decimal.NewFromFloat(p.TaxRate).Div(hundred))).
		Sub(decimal.NewFromFloat(p.DiscountAmount))
}

// CountrySpecification is a free-form key/value pair attached to an
// invoice (vendor SIRET and the like). One row per key, upserted.
type CountrySpecification struct {
	ID        int64
	InvoiceID int64
	Key       string
	Value     string
}

// Stock is a named storage location.
type Stock struct {
	ID   int64
	Name string
}

// StockMovement is one addition or deletion row.
type StockMovement struct {
	ID       int64
	StockID  int64
	Date     string
	Object   string
	Quantity int
}

// InventoryItem is one object's net quantity as of a cutoff date.
type InventoryItem struct {
	ID       int64
	Name     string
	Quantity int
}

// Sale is a point-of-sale record. RunningStock is the cumulative movement
// for this sale's (object, stock) partition up to and including this row.
type Sale struct {
	ID           int64
	Date         string
	Object       string
	Quantity     int
	Price        float64
	Stock        string
	RunningStock int
}

// CategorySums pairs category labels with their totals, parallel by index.
type CategorySums struct {
	Categories []string
	Values     []float64
}

// FilterPreset is a named, persisted (filters, sorts) set for one ledger.
type FilterPreset struct {
	ID        string
	Name      string
	Ledger    string
	Filters   []query.Filter
	Sorts     []query.Sort
	UpdatedAt string
}
