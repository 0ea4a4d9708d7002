package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/GuiaBolso/darwin"
)

// defineMigrations returns the versioned schema migrations.
// *NEVER* change or remove a step once released; darwin stores a checksum of
// each script alongside the applied version.
func defineMigrations() []darwin.Migration {
	return []darwin.Migration{
		{Version: 1.00, Description: "Create Table 'clients'", Script: `
		CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			debt_code TEXT NOT NULL DEFAULT '',
			users INTEGER NOT NULL DEFAULT 0,
			billing_model TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'ZAR',
			jan NUMERIC NOT NULL DEFAULT 0,
			feb NUMERIC NOT NULL DEFAULT 0,
			mar NUMERIC NOT NULL DEFAULT 0,
			apr NUMERIC NOT NULL DEFAULT 0,
			may NUMERIC NOT NULL DEFAULT 0,
			jun NUMERIC NOT NULL DEFAULT 0,
			jul NUMERIC NOT NULL DEFAULT 0,
			aug NUMERIC NOT NULL DEFAULT 0,
			sep NUMERIC NOT NULL DEFAULT 0,
			oct NUMERIC NOT NULL DEFAULT 0,
			nov NUMERIC NOT NULL DEFAULT 0,
			dec NUMERIC NOT NULL DEFAULT 0,
			total NUMERIC NOT NULL DEFAULT 0,
			comments TEXT NOT NULL DEFAULT '',
			deal_start_date TEXT,
			anniversary_month INTEGER NOT NULL DEFAULT 0,
			billing_frequency TEXT NOT NULL DEFAULT '',
			subscription_duration INTEGER NOT NULL DEFAULT 0,
			subscription_start_date TEXT,
			monthly_license_rate NUMERIC NOT NULL DEFAULT 0,
			implementation_fee NUMERIC NOT NULL DEFAULT 0,
			implementation_months INTEGER NOT NULL DEFAULT 0,
			implementation_start_date TEXT,
			implementation_complete_date TEXT,
			installment_months INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT
		);`},

		{Version: 1.01, Description: "Create Table 'var_partners'", Script: `
		CREATE TABLE IF NOT EXISTS var_partners (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			contact_person TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			commission_rate NUMERIC NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1
		);`},

		{Version: 1.02, Description: "Create Table 'var_clients'", Script: `
		CREATE TABLE IF NOT EXISTS var_clients (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			debt_code TEXT NOT NULL DEFAULT '',
			users INTEGER NOT NULL DEFAULT 0,
			billing_model TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'ZAR',
			jan NUMERIC NOT NULL DEFAULT 0,
			feb NUMERIC NOT NULL DEFAULT 0,
			mar NUMERIC NOT NULL DEFAULT 0,
			apr NUMERIC NOT NULL DEFAULT 0,
			may NUMERIC NOT NULL DEFAULT 0,
			jun NUMERIC NOT NULL DEFAULT 0,
			jul NUMERIC NOT NULL DEFAULT 0,
			aug NUMERIC NOT NULL DEFAULT 0,
			sep NUMERIC NOT NULL DEFAULT 0,
			oct NUMERIC NOT NULL DEFAULT 0,
			nov NUMERIC NOT NULL DEFAULT 0,
			dec NUMERIC NOT NULL DEFAULT 0,
			total NUMERIC NOT NULL DEFAULT 0,
			comments TEXT NOT NULL DEFAULT '',
			deal_start_date TEXT,
			anniversary_month INTEGER NOT NULL DEFAULT 0,
			billing_frequency TEXT NOT NULL DEFAULT '',
			subscription_duration INTEGER NOT NULL DEFAULT 0,
			subscription_start_date TEXT,
			monthly_license_rate NUMERIC NOT NULL DEFAULT 0,
			implementation_fee NUMERIC NOT NULL DEFAULT 0,
			implementation_months INTEGER NOT NULL DEFAULT 0,
			implementation_start_date TEXT,
			implementation_complete_date TEXT,
			installment_months INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT,
			var_partner_id TEXT NOT NULL,
			commission_rate NUMERIC NOT NULL DEFAULT 0,
			FOREIGN KEY (var_partner_id) REFERENCES var_partners (id)
		);`},

		{Version: 1.03, Description: "Create Table 'additional_licenses'", Script: `
		CREATE TABLE IF NOT EXISTS additional_licenses (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			license_type TEXT NOT NULL DEFAULT 'Standard',
			quantity INTEGER NOT NULL,
			price_per_unit NUMERIC NOT NULL DEFAULT 0,
			start_date TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT
		);`},

		{Version: 1.04, Description: "Create Index 'idx_additional_licenses_client'", Script: `
		CREATE INDEX IF NOT EXISTS idx_additional_licenses_client ON additional_licenses (client_id);`},

		{Version: 1.05, Description: "Create Table 'annual_increases'", Script: `
		CREATE TABLE IF NOT EXISTS annual_increases (
			id TEXT PRIMARY KEY,
			year INTEGER NOT NULL,
			percentage NUMERIC NOT NULL,
			client_id TEXT NOT NULL DEFAULT ''
		);`},

		{Version: 1.06, Description: "Create Index 'idx_annual_increases_year'", Script: `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_annual_increases_year ON annual_increases (year, client_id);`},

		{Version: 1.07, Description: "Create Table 'license_events'", Script: `
		CREATE TABLE IF NOT EXISTS license_events (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			effective_month TEXT NOT NULL,
			price_per_unit NUMERIC NOT NULL DEFAULT 0,
			apply_at_month TEXT,
			credit_amount NUMERIC NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT ''
		);`},

		{Version: 1.08, Description: "Create Index 'idx_license_events_client'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_events_client ON license_events (client_id, effective_month);`},

		{Version: 1.09, Description: "Create Table 'invoice_tracking'", Script: `
		CREATE TABLE IF NOT EXISTS invoice_tracking (
			client_id TEXT NOT NULL,
			billing_month TEXT NOT NULL,
			is_invoiced INTEGER NOT NULL DEFAULT 0,
			invoiced_date TEXT,
			CONSTRAINT pk_invoice_tracking PRIMARY KEY (client_id, billing_month)
		);`},
	}
}

// migrate applies pending migrations in order.
func migrate(db *sql.DB) error {
	driver := darwin.NewGenericDriver(db, darwin.SqliteDialect{})
	if err := darwin.New(driver, defineMigrations(), nil).Migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
