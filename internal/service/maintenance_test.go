package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotshell-org/ico-sub000/internal/database/repository"
)

func TestResetWipesEveryLedger(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	credits := repository.NewCreditRepo(db)
	group, err := credits.AddGroup(ctx, "deposit", "sales")
	require.NoError(t, err)
	tableID, err := credits.AddTable(ctx, group.ID, repository.TableCoins)
	require.NoError(t, err)
	_, err = credits.AddRow(ctx, tableID, 0.5, 4)
	require.NoError(t, err)

	stock := repository.NewStockRepo(db)
	_, err = stock.AddAddition(ctx, "2026-01-01", "mug", 10, "main")
	require.NoError(t, err)

	svc := &MaintenanceService{DB: db}
	require.NoError(t, svc.Reset(ctx))

	for _, table := range []string{"credit_rows", "credit_tables", "credit_groups", "stock_additions", "stocks"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "table %s not emptied", table)
	}

	// The schema survives; the app keeps working on the empty database.
	_, err = credits.AddGroup(ctx, "fresh start", "sales")
	require.NoError(t, err)
}

func TestResetRequiresDB(t *testing.T) {
	svc := &MaintenanceService{}
	assert.Error(t, svc.Reset(context.Background()))
}
