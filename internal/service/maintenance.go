package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dotshell-org/ico-sub000/internal/database"
)

// MaintenanceService houses destructive/ops actions surfaced through the
// account settings.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes all user data. It keeps the schema intact so the app can
// continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"credit_rows",
			"credit_tables",
			"credit_groups",
			"invoice_country_specifications",
			"invoice_products",
			"invoices",
			"stock_additions",
			"stock_deletions",
			"stocks",
			"sales",
			"filter_presets",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
