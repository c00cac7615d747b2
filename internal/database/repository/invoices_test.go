package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dotshell-org/ico-sub000/internal/query"
)

func TestProductTotalFormula(t *testing.T) {
	p := InvoiceProduct{
		AmountExclTax:      100,
		Quantity:           2,
		DiscountPercentage: 10,
		DiscountAmount:     5,
		TaxRate:            20,
	}
	// (100 × 2 × 0.9 × 1.2) − 5 = 211 exactly
	if got := p.InclTaxTotal(); !got.Equal(decimal.NewFromInt(211)) {
		t.Fatalf("incl tax total = %s, want 211", got)
	}
	// (100 × 2 × 0.9) − 5 = 175
	if got := p.ExclTaxTotal(); !got.Equal(decimal.NewFromInt(175)) {
		t.Fatalf("excl tax total = %s, want 175", got)
	}
}

func TestSimpleDebitScenario(t *testing.T) {
	db := newTestDB(t)
	repo := NewInvoiceRepo(db)
	ctx := context.Background()

	inv, err := repo.Add(ctx, "office chairs", "equipment", "FR")
	if err != nil {
		t.Fatalf("add invoice: %v", err)
	}
	err = repo.AddProduct(ctx, InvoiceProduct{
		InvoiceID:     inv.ID,
		Name:          "debit.simple-amount",
		AmountExclTax: 50,
		Quantity:      1,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}

	total, err := repo.InclTaxTotal(ctx, inv.ID)
	if err != nil {
		t.Fatalf("incl tax total: %v", err)
	}
	if total != 50.00 {
		t.Fatalf("expected 50.00, got %v", total)
	}

	if err := repo.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}
	if n := countRows(t, db, "invoice_products", "invoice_id = ?", inv.ID); n != 0 {
		t.Fatalf("products survived: %d", n)
	}
	invoices, err := repo.GetInvoices(ctx, nil, nil)
	if err != nil {
		t.Fatalf("get invoices: %v", err)
	}
	if len(invoices) != 0 {
		t.Fatalf("expected no invoices, got %+v", invoices)
	}
}

func TestGetInvoicesTotalsAndHavingFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewInvoiceRepo(db)
	ctx := context.Background()

	small, _ := repo.Add(ctx, "stationery", "supplies", "FR")
	repo.AddProduct(ctx, InvoiceProduct{InvoiceID: small.ID, Name: "pens", AmountExclTax: 100, Quantity: 1})

	big, _ := repo.Add(ctx, "server rack", "it", "FR")
	repo.AddProduct(ctx, InvoiceProduct{InvoiceID: big.ID, Name: "rack", AmountExclTax: 150, Quantity: 2})

	empty, _ := repo.Add(ctx, "pending", "misc", "FR")

	all, err := repo.GetInvoices(ctx, nil, []query.Sort{{Property: PropAmount, Direction: query.Desc}})
	if err != nil {
		t.Fatalf("get invoices: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 invoices, got %d", len(all))
	}
	if all[0].ID != big.ID || !almostEqual(all[0].TotalAmount, 300) {
		t.Fatalf("unexpected first invoice: %+v", all[0])
	}
	if all[2].ID != empty.ID || all[2].TotalAmount != 0 {
		t.Fatalf("expected empty invoice with zero total last, got %+v", all[2])
	}

	filtered, err := repo.GetInvoices(ctx, []query.Filter{
		{Property: PropAmount, Operator: query.GreaterThan, Value: 200},
	}, nil)
	if err != nil {
		t.Fatalf("get invoices filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != big.ID {
		t.Fatalf("expected only the big invoice, got %+v", filtered)
	}

	byTitle, err := repo.GetInvoices(ctx, []query.Filter{
		{Property: PropTitle, Operator: query.Fuzzy, Value: "rack"},
	}, nil)
	if err != nil {
		t.Fatalf("get invoices by title: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].ID != big.ID {
		t.Fatalf("expected fuzzy title match, got %+v", byTitle)
	}
}

func TestDeleteInvoiceRemovesLinkedAdditions(t *testing.T) {
	db := newTestDB(t)
	invoices := NewInvoiceRepo(db)
	stock := NewStockRepo(db)
	ctx := context.Background()

	inv, _ := invoices.Add(ctx, "resale goods", "stock", "FR")
	invoices.AddProduct(ctx, InvoiceProduct{InvoiceID: inv.ID, Name: "crate of mugs", AmountExclTax: 80, Quantity: 1})
	products, _ := invoices.GetProducts(ctx, inv.ID)
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}

	if err := stock.LinkProduct(ctx, products[0].ID, 0, "mug", 24, "main"); err != nil {
		t.Fatalf("link product: %v", err)
	}
	if n := countRows(t, db, "stock_additions", ""); n != 1 {
		t.Fatalf("expected one addition, got %d", n)
	}

	if err := invoices.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}
	if n := countRows(t, db, "stock_additions", ""); n != 0 {
		t.Fatalf("linked addition survived invoice delete: %d", n)
	}
	if n := countRows(t, db, "invoice_country_specifications", "invoice_id = ?", inv.ID); n != 0 {
		t.Fatalf("specs survived: %d", n)
	}
}

func TestDeleteProductRemovesLinkedAddition(t *testing.T) {
	db := newTestDB(t)
	invoices := NewInvoiceRepo(db)
	stock := NewStockRepo(db)
	ctx := context.Background()

	inv, _ := invoices.Add(ctx, "resale", "stock", "FR")
	invoices.AddProduct(ctx, InvoiceProduct{InvoiceID: inv.ID, Name: "lamp", AmountExclTax: 30, Quantity: 2})
	products, _ := invoices.GetProducts(ctx, inv.ID)
	stock.LinkProduct(ctx, products[0].ID, 0, "lamp", 2, "main")

	if err := invoices.DeleteProduct(ctx, products[0].ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if n := countRows(t, db, "invoice_products", "id = ?", products[0].ID); n != 0 {
		t.Fatalf("product survived: %d", n)
	}
	if n := countRows(t, db, "stock_additions", ""); n != 0 {
		t.Fatalf("addition survived product delete: %d", n)
	}
}

func TestInvoiceFieldUpdates(t *testing.T) {
	db := newTestDB(t)
	repo := NewInvoiceRepo(db)
	ctx := context.Background()

	inv, _ := repo.Add(ctx, "draft", "misc", "FR")
	if err := repo.UpdateTitle(ctx, inv.ID, "final"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if err := repo.UpdateIssueDate(ctx, inv.ID, "2026-01-15"); err != nil {
		t.Fatalf("update issue date: %v", err)
	}
	no := "INV-0042"
	if err := repo.UpdateNo(ctx, inv.ID, &no); err != nil {
		t.Fatalf("update no: %v", err)
	}

	got, err := repo.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if got.Title != "final" || got.IssueDate != "2026-01-15" {
		t.Fatalf("unexpected invoice: %+v", got)
	}
	if got.No == nil || *got.No != "INV-0042" {
		t.Fatalf("unexpected invoice no: %v", got.No)
	}
}

func TestCountrySpecificationUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewInvoiceRepo(db)
	ctx := context.Background()

	inv, _ := repo.Add(ctx, "fr vendor", "misc", "FR")
	if err := repo.SetCountrySpecification(ctx, inv.ID, "siret", "123 456 789 00010"); err != nil {
		t.Fatalf("set spec: %v", err)
	}
	if err := repo.SetCountrySpecification(ctx, inv.ID, "siret", "987 654 321 00015"); err != nil {
		t.Fatalf("upsert spec: %v", err)
	}
	if err := repo.SetCountrySpecification(ctx, inv.ID, "tva", "FR12345678901"); err != nil {
		t.Fatalf("set second spec: %v", err)
	}

	specs, err := repo.GetCountrySpecifications(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get specs: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Key != "siret" || specs[0].Value != "987 654 321 00015" {
		t.Fatalf("upsert did not replace value: %+v", specs[0])
	}
}
