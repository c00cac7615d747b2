package database

import "database/sql"

// Schema DDL. Applied idempotently at startup; there is no migration
// system, the schema is its own latest version.
const schema = `
CREATE TABLE IF NOT EXISTS credit_groups (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date      TEXT NOT NULL,
	title     TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS credit_tables (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	group_id  INTEGER NOT NULL REFERENCES credit_groups(id),
	type      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS credit_rows (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id  INTEGER NOT NULL REFERENCES credit_tables(id),
	quantity  INTEGER NOT NULL,
	amount    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	title              TEXT NOT NULL,
	category           TEXT NOT NULL DEFAULT '',
	issue_date         TEXT NOT NULL,
	sale_service_date  TEXT NOT NULL,
	country_code       TEXT NOT NULL DEFAULT '',
	no                 TEXT
);

CREATE TABLE IF NOT EXISTS invoice_products (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id           INTEGER NOT NULL REFERENCES invoices(id),
	addition_id          INTEGER NOT NULL DEFAULT 0,
	name                 TEXT NOT NULL,
	amount_excl_tax      REAL NOT NULL DEFAULT 0,
	quantity             REAL NOT NULL DEFAULT 1,
	tax_rate             REAL NOT NULL DEFAULT 0,
	discount_percentage  REAL NOT NULL DEFAULT 0,
	discount_amount      REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS invoice_country_specifications (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id  INTEGER NOT NULL REFERENCES invoices(id),
	key         TEXT NOT NULL,
	value       TEXT NOT NULL DEFAULT '',
	UNIQUE(invoice_id, key)
);

CREATE TABLE IF NOT EXISTS stocks (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	name  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS stock_additions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	stock_id  INTEGER NOT NULL DEFAULT 0,
	date      TEXT NOT NULL,
	object    TEXT NOT NULL,
	quantity  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_deletions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	stock_id  INTEGER NOT NULL DEFAULT 0,
	date      TEXT NOT NULL,
	object    TEXT NOT NULL,
	quantity  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date      TEXT NOT NULL,
	object    TEXT NOT NULL,
	quantity  INTEGER NOT NULL,
	price     REAL NOT NULL DEFAULT 0,
	stock     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS filter_presets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	ledger      TEXT NOT NULL,
	expr        TEXT NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_credit_tables_group ON credit_tables(group_id);
CREATE INDEX IF NOT EXISTS idx_credit_rows_table ON credit_rows(table_id);
CREATE INDEX IF NOT EXISTS idx_invoice_products_invoice ON invoice_products(invoice_id);
CREATE INDEX IF NOT EXISTS idx_invoice_specs_invoice ON invoice_country_specifications(invoice_id);
CREATE INDEX IF NOT EXISTS idx_stock_additions_object ON stock_additions(object, date);
CREATE INDEX IF NOT EXISTS idx_stock_deletions_object ON stock_deletions(object, date);
CREATE INDEX IF NOT EXISTS idx_sales_object ON sales(object, stock, date);
`

// Init creates any missing tables and indexes. Safe to call on every start.
func Init(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
