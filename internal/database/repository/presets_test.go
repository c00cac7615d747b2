package repository

import (
	"context"
	"testing"

	"github.com/dotshell-org/ico-sub000/internal/query"
)

func TestPresetSaveAssignsIDAndRoundTrips(t *testing.T) {
	db := newTestDB(t)
	repo := NewPresetRepo(db)
	ctx := context.Background()

	id, err := repo.Save(ctx, FilterPreset{
		Name:   "big credits",
		Ledger: "credits",
		Filters: []query.Filter{
			{Property: PropAmount, Operator: query.GreaterThan, Value: 100.0},
			{Property: PropTitle, Operator: query.Fuzzy, Value: "deposit"},
		},
		Sorts: []query.Sort{{Property: PropDate, Direction: query.Desc}},
	})
	if err != nil {
		t.Fatalf("save preset: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated preset id")
	}

	presets, err := repo.List(ctx, "credits")
	if err != nil {
		t.Fatalf("list presets: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	p := presets[0]
	if p.ID != id || p.Name != "big credits" {
		t.Fatalf("round trip mismatch: %+v", p)
	}
	if len(p.Filters) != 2 || p.Filters[0].Property != PropAmount || p.Filters[0].Operator != query.GreaterThan {
		t.Fatalf("filters did not survive: %+v", p.Filters)
	}
	if len(p.Sorts) != 1 || p.Sorts[0].Direction != query.Desc {
		t.Fatalf("sorts did not survive: %+v", p.Sorts)
	}
}

func TestPresetSaveUpsertsByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPresetRepo(db)
	ctx := context.Background()

	id, err := repo.Save(ctx, FilterPreset{Name: "first", Ledger: "invoices"})
	if err != nil {
		t.Fatalf("save preset: %v", err)
	}
	if _, err := repo.Save(ctx, FilterPreset{ID: id, Name: "renamed", Ledger: "invoices"}); err != nil {
		t.Fatalf("resave preset: %v", err)
	}

	presets, _ := repo.List(ctx, "invoices")
	if len(presets) != 1 || presets[0].Name != "renamed" {
		t.Fatalf("expected single renamed preset, got %+v", presets)
	}
}

func TestPresetListScopedByLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewPresetRepo(db)
	ctx := context.Background()

	repo.Save(ctx, FilterPreset{Name: "a", Ledger: "credits"})
	repo.Save(ctx, FilterPreset{Name: "b", Ledger: "sales"})

	credits, err := repo.List(ctx, "credits")
	if err != nil {
		t.Fatalf("list credits presets: %v", err)
	}
	if len(credits) != 1 || credits[0].Ledger != "credits" {
		t.Fatalf("expected only credits presets, got %+v", credits)
	}
	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list all presets: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 presets total, got %d", len(all))
	}
}

func TestPresetSaveValidatesNameAndLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewPresetRepo(db)
	ctx := context.Background()

	if _, err := repo.Save(ctx, FilterPreset{Name: "  ", Ledger: "credits"}); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := repo.Save(ctx, FilterPreset{Name: "ok", Ledger: ""}); err == nil {
		t.Error("expected error for blank ledger")
	}
}

func TestPresetDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewPresetRepo(db)
	ctx := context.Background()

	id, _ := repo.Save(ctx, FilterPreset{Name: "gone soon", Ledger: "credits"})
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete preset: %v", err)
	}
	presets, _ := repo.List(ctx, "")
	if len(presets) != 0 {
		t.Fatalf("expected no presets, got %+v", presets)
	}
}
