package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dotshell-org/ico-sub000/internal/query"
)

// presetExpr is the stored JSON form of a preset's predicate set.
type presetExpr struct {
	Filters []query.Filter `json:"filters"`
	Sorts   []query.Sort   `json:"sorts"`
}

// PresetRepo persists named filter/sort sets per ledger.
type PresetRepo struct {
	db *sql.DB
}

func NewPresetRepo(db *sql.DB) *PresetRepo { return &PresetRepo{db: db} }

// List returns every preset for one ledger, or all presets when ledger is
// empty.
func (r *PresetRepo) List(ctx context.Context, ledger string) ([]FilterPreset, error) {
	q := `SELECT id, name, ledger, expr, updated_at FROM filter_presets`
	var args []any
	if ledger != "" {
		q += ` WHERE ledger = ?`
		args = append(args, ledger)
	}
	q += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query filter presets: %w", err)
	}
	defer rows.Close()

	var out []FilterPreset
	for rows.Next() {
		var p FilterPreset
		var raw string
		if err := rows.Scan(&p.ID, &p.Name, &p.Ledger, &raw, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan filter preset: %w", err)
		}
		var expr presetExpr
		if err := json.Unmarshal([]byte(raw), &expr); err != nil {
			return nil, fmt.Errorf("decode preset %s: %w", p.ID, err)
		}
		p.Filters = expr.Filters
		p.Sorts = expr.Sorts
		out = append(out, p)
	}
	return out, rows.Err()
}

// Save upserts a preset. A blank id gets a fresh uuid; the assigned id is
// returned.
func (r *PresetRepo) Save(ctx context.Context, p FilterPreset) (string, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Ledger = strings.TrimSpace(strings.ToLower(p.Ledger))
	if p.Name == "" {
		return "", fmt.Errorf("preset name is required")
	}
	if p.Ledger == "" {
		return "", fmt.Errorf("preset ledger is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	raw, err := json.Marshal(presetExpr{Filters: p.Filters, Sorts: p.Sorts})
	if err != nil {
		return "", fmt.Errorf("encode preset: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO filter_presets(id, name, ledger, expr, created_at, updated_at)
		VALUES(?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			ledger = excluded.ledger,
			expr = excluded.expr,
			updated_at = datetime('now')`,
		p.ID, p.Name, p.Ledger, string(raw))
	if err != nil {
		return "", fmt.Errorf("upsert filter preset: %w", err)
	}
	return p.ID, nil
}

// Delete removes a preset by id.
func (r *PresetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE id = ?`, id)
	return err
}
