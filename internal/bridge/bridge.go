// Package bridge exposes the ledger operations as a flat table of named
// operations, mirroring the channel-name dispatch of the desktop shell.
// Handlers only decode arguments, call through, and encode the result; no
// ledger logic lives here.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dotshell-org/ico-sub000/internal/database/repository"
	"github.com/dotshell-org/ico-sub000/internal/query"
	"github.com/dotshell-org/ico-sub000/internal/service"
)

// Handler executes one named operation.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Deps collects everything the operation table calls into.
type Deps struct {
	Credits     *repository.CreditRepo
	Invoices    *repository.InvoiceRepo
	Stock       *repository.StockRepo
	Sales       *repository.SalesRepo
	Reports     *repository.ReportsRepo
	Presets     *repository.PresetRepo
	Linker      *service.StockLinker
	Maintenance *service.MaintenanceService
	// CategoryLimit caps category rollups when the caller requests the
	// limited view.
	CategoryLimit int
	// Now is the clock used by time-bucketed reports. Defaults to time.Now.
	Now func() time.Time
}

// Bridge maps operation names onto handlers.
type Bridge struct {
	deps     Deps
	handlers map[string]Handler
}

// New builds the full operation table.
func New(deps Deps) *Bridge {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := &Bridge{deps: deps, handlers: map[string]Handler{}}
	b.register()
	return b
}

// Invoke runs one operation by name.
func (b *Bridge) Invoke(ctx context.Context, op string, args json.RawMessage) (any, error) {
	h, ok := b.handlers[op]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	return h(ctx, args)
}

// Operations returns the registered operation names.
func (b *Bridge) Operations() []string {
	out := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		out = append(out, name)
	}
	return out
}

type predicateArgs struct {
	Filters []query.Filter `json:"filters"`
	Sorts   []query.Sort   `json:"sorts"`
}

type idArgs struct {
	ID int64 `json:"id"`
}

func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("decode args: %w", err)
	}
	return v, nil
}

func (b *Bridge) register() {
	d := b.deps

	// credits
	b.handlers["getCredits"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[predicateArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.GetCredits(ctx, a.Filters, a.Sorts)
	}
	b.handlers["getCreditsList"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[predicateArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.GetCreditsList(ctx, a.Filters, a.Sorts)
	}
	b.handlers["getCreditTableFromId"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			TableID int64 `json:"tableId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.GetTableFromID(ctx, a.TableID)
	}
	b.handlers["addCreditRow"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			TableID  int64   `json:"tableId"`
			Amount   float64 `json:"amount"`
			Quantity int     `json:"quantity"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.AddRow(ctx, a.TableID, a.Amount, a.Quantity)
	}
	b.handlers["updateCreditRow"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			RowID    int64 `json:"rowId"`
			Quantity int   `json:"quantity"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.UpdateRowQuantity(ctx, a.RowID, a.Quantity)
	}
	b.handlers["deleteCreditRow"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			RowID int64 `json:"rowId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.DeleteRow(ctx, a.RowID)
	}
	b.handlers["addCreditTable"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			GroupID int64 `json:"groupId"`
			Type    int   `json:"type"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.AddTable(ctx, a.GroupID, repository.CreditTableType(a.Type))
	}
	b.handlers["deleteCreditTable"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			TableID int64 `json:"tableId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.DeleteTable(ctx, a.TableID)
	}
	b.handlers["addCreditGroup"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Title    string `json:"title"`
			Category string `json:"category"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Credits.AddGroup(ctx, a.Title, a.Category)
	}
	b.handlers["deleteCreditGroup"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			GroupID int64 `json:"groupId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Credits.DeleteGroup(ctx, a.GroupID)
	}

	// invoices
	b.handlers["getInvoices"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[predicateArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.GetInvoices(ctx, a.Filters, a.Sorts)
	}
	b.handlers["addInvoice"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Title       string `json:"title"`
			Category    string `json:"category"`
			CountryCode string `json:"countryCode"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.Add(ctx, a.Title, a.Category, a.CountryCode)
	}
	b.handlers["deleteInvoice"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64 `json:"invoiceId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.Delete(ctx, a.InvoiceID)
	}
	b.handlers["updateInvoiceTitle"] = b.invoiceFieldHandler(func(ctx context.Context, id int64, v string) error {
		return d.Invoices.UpdateTitle(ctx, id, v)
	})
	b.handlers["updateInvoiceCategory"] = b.invoiceFieldHandler(func(ctx context.Context, id int64, v string) error {
		return d.Invoices.UpdateCategory(ctx, id, v)
	})
	b.handlers["updateInvoiceIssueDate"] = b.invoiceFieldHandler(func(ctx context.Context, id int64, v string) error {
		return d.Invoices.UpdateIssueDate(ctx, id, v)
	})
	b.handlers["updateInvoiceSaleServiceDate"] = b.invoiceFieldHandler(func(ctx context.Context, id int64, v string) error {
		return d.Invoices.UpdateSaleServiceDate(ctx, id, v)
	})
	b.handlers["updateInvoiceNo"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64   `json:"invoiceId"`
			No        *string `json:"no"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.UpdateNo(ctx, a.InvoiceID, a.No)
	}
	b.handlers["getInvoiceProducts"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64 `json:"invoiceId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.GetProducts(ctx, a.InvoiceID)
	}
	b.handlers["addInvoiceProduct"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[productArgs](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.AddProduct(ctx, a.product())
	}
	b.handlers["updateInvoiceProduct"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[productArgs](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.UpdateProduct(ctx, a.product())
	}
	b.handlers["deleteInvoiceProduct"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			ProductID int64 `json:"productId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.DeleteProduct(ctx, a.ProductID)
	}
	b.handlers["getInvoiceExclTaxTotal"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64 `json:"invoiceId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.ExclTaxTotal(ctx, a.InvoiceID)
	}
	b.handlers["getInvoiceInclTaxTotal"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64 `json:"invoiceId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.InclTaxTotal(ctx, a.InvoiceID)
	}
	b.handlers["getInvoiceCountrySpecifications"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64 `json:"invoiceId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Invoices.GetCountrySpecifications(ctx, a.InvoiceID)
	}
	b.handlers["setInvoiceCountrySpecification"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64  `json:"invoiceId"`
			Key       string `json:"key"`
			Value     string `json:"value"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Invoices.SetCountrySpecification(ctx, a.InvoiceID, a.Key, a.Value)
	}

	// reports
	b.handlers["getTransactionsByMonth"] = func(ctx context.Context, _ json.RawMessage) (any, error) {
		credits, debits, err := d.Reports.TransactionsByMonth(ctx, d.Now())
		if err != nil {
			return nil, err
		}
		return [2][]float64{credits, debits}, nil
	}
	b.handlers["getCreditsSumByCategory"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[limitedArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Reports.CreditsSumByCategory(ctx, a.limit(d.CategoryLimit))
	}
	b.handlers["getDebitsSumByCategory"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[limitedArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Reports.DebitsSumByCategory(ctx, a.limit(d.CategoryLimit))
	}

	// stock
	b.handlers["getInventory"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			AsOfDate string `json:"asOfDate"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Stock.Inventory(ctx, a.AsOfDate)
	}
	b.handlers["getObjectAmountCurve"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Object string `json:"object"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Stock.ObjectAmountCurve(ctx, a.Object, d.Now())
	}
	b.handlers["linkInvoiceProductInStock"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			ProductID  int64  `json:"productId"`
			AdditionID int64  `json:"additionId"`
			Name       string `json:"name"`
			Quantity   int    `json:"quantity"`
			Stock      string `json:"stock"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Stock.LinkProduct(ctx, a.ProductID, a.AdditionID, a.Name, a.Quantity, a.Stock)
	}
	b.handlers["ignoreInvoiceProductInStock"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			ProductID int64 `json:"productId"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Stock.IgnoreProduct(ctx, a.ProductID)
	}
	b.handlers["suggestStockAdditions"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Name  string `json:"name"`
			Limit int    `json:"limit"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Linker.Suggest(ctx, a.Name, a.Limit)
	}
	b.handlers["addStockAddition"] = b.movementHandler(d.Stock.AddAddition)
	b.handlers["addStockDeletion"] = b.movementHandler(d.Stock.AddDeletion)
	b.handlers["deleteStockAddition"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[idArgs](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Stock.DeleteAddition(ctx, a.ID)
	}
	b.handlers["deleteStockDeletion"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[idArgs](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Stock.DeleteDeletion(ctx, a.ID)
	}

	// sales
	b.handlers["getSalesList"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[predicateArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Sales.GetSales(ctx, a.Filters, a.Sorts)
	}
	b.handlers["addSale"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Date     string  `json:"date"`
			Object   string  `json:"object"`
			Quantity int     `json:"quantity"`
			Price    float64 `json:"price"`
			Stock    string  `json:"stock"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Sales.Add(ctx, repository.Sale{
			Date: a.Date, Object: a.Object, Quantity: a.Quantity, Price: a.Price, Stock: a.Stock,
		})
	}
	b.handlers["deleteSale"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[idArgs](args)
		if err != nil {
			return nil, err
		}
		return d.Sales.Delete(ctx, a.ID)
	}

	// filter presets
	b.handlers["listFilterPresets"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Ledger string `json:"ledger"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Presets.List(ctx, a.Ledger)
	}
	b.handlers["saveFilterPreset"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			ID      string         `json:"id"`
			Name    string         `json:"name"`
			Ledger  string         `json:"ledger"`
			Filters []query.Filter `json:"filters"`
			Sorts   []query.Sort   `json:"sorts"`
		}](args)
		if err != nil {
			return nil, err
		}
		return d.Presets.Save(ctx, repository.FilterPreset{
			ID: a.ID, Name: a.Name, Ledger: a.Ledger, Filters: a.Filters, Sorts: a.Sorts,
		})
	}
	b.handlers["deleteFilterPreset"] = func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			ID string `json:"id"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, d.Presets.Delete(ctx, a.ID)
	}

	// maintenance
	b.handlers["maintenanceReset"] = func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, d.Maintenance.Reset(ctx)
	}
}

type productArgs struct {
	ProductID          int64   `json:"productId"`
	InvoiceID          int64   `json:"invoiceId"`
	Name               string  `json:"name"`
	AmountExclTax      float64 `json:"amountExclTax"`
	Quantity           float64 `json:"quantity"`
	TaxRate            float64 `json:"taxRate"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountAmount     float64 `json:"discountAmount"`
}

func (a productArgs) product() repository.InvoiceProduct {
	return repository.InvoiceProduct{
		ID:                 a.ProductID,
		InvoiceID:          a.InvoiceID,
		Name:               a.Name,
		AmountExclTax:      a.AmountExclTax,
		Quantity:           a.Quantity,
		TaxRate:            a.TaxRate,
		DiscountPercentage: a.DiscountPercentage,
		DiscountAmount:     a.DiscountAmount,
	}
}

type limitedArgs struct {
	Limited bool `json:"limited"`
}

func (a limitedArgs) limit(configured int) int {
	if a.Limited {
		return configured
	}
	return 0
}

func (b *Bridge) invoiceFieldHandler(update func(ctx context.Context, invoiceID int64, value string) error) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			InvoiceID int64  `json:"invoiceId"`
			Value     string `json:"value"`
		}](args)
		if err != nil {
			return nil, err
		}
		return nil, update(ctx, a.InvoiceID, a.Value)
	}
}

func (b *Bridge) movementHandler(add func(ctx context.Context, date, object string, quantity int, stock string) (int64, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		a, err := decode[struct {
			Date     string `json:"date"`
			Object   string `json:"object"`
			Quantity int    `json:"quantity"`
			Stock    string `json:"stock"`
		}](args)
		if err != nil {
			return nil, err
		}
		return add(ctx, a.Date, a.Object, a.Quantity, a.Stock)
	}
}
