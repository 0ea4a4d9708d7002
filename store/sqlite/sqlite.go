/*
Package sqlite is the SQLite-backed persistence collaborator.

PURPOSE:
  Owns every entity the calculation engine borrows: clients, VAR partners
  and their clients, additional licenses, annual increases, the license
  event ledger, and the per-month invoice-tracking flags. The engine never
  sees this package; HTTP handlers load snapshots here and pass them in by
  value.

KEY TABLES:
  clients / var_clients:  billable accounts with the jan..dec snapshot
  additional_licenses:    structured seat additions
  annual_increases:       (year -> percentage), global or per-client
  license_events:         append-only ledger of Added/Decreased events
  invoice_tracking:       "has this month been invoiced" flags

APPEND-ONLY LEDGER:
  license_events has no UPDATE or DELETE path. Corrections happen by
  appending a compensating event, never by editing history.

SOFT DELETE:
  Clients, partners and licenses deactivate via is_active; rows are kept
  so historical calculations stay reproducible.

WAL MODE:
  Opened with WAL and foreign keys on. Use ":memory:" for tests.

SEE ALSO:
  - store/sqlite/migrate.go: versioned schema migrations
  - billing/types.go: the entity structs persisted here
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

// Store implements the persistence interfaces over SQLite.
type Store struct {
	db *sqlx.DB
}

// New opens (creating if needed) the database at path and applies pending
// migrations. Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func newID() string { return ulid.Make().String() }

// =============================================================================
// CLIENTS
// =============================================================================

const clientColumns = `id, client_name, debt_code, users, billing_model, currency,
	jan, feb, mar, apr, may, jun, jul, aug, sep, oct, nov, dec, total,
	comments, deal_start_date, anniversary_month, billing_frequency,
	subscription_duration, subscription_start_date, monthly_license_rate,
	implementation_fee, implementation_months, implementation_start_date,
	implementation_complete_date, installment_months, is_active, created_at`

const clientValues = `:id, :client_name, :debt_code, :users, :billing_model, :currency,
	:jan, :feb, :mar, :apr, :may, :jun, :jul, :aug, :sep, :oct, :nov, :dec, :total,
	:comments, :deal_start_date, :anniversary_month, :billing_frequency,
	:subscription_duration, :subscription_start_date, :monthly_license_rate,
	:implementation_fee, :implementation_months, :implementation_start_date,
	:implementation_complete_date, :installment_months, :is_active, :created_at`

const clientUpdateSet = `client_name = :client_name, debt_code = :debt_code,
	users = :users, billing_model = :billing_model, currency = :currency,
	jan = :jan, feb = :feb, mar = :mar, apr = :apr, may = :may, jun = :jun,
	jul = :jul, aug = :aug, sep = :sep, oct = :oct, nov = :nov, dec = :dec,
	total = :total, comments = :comments, deal_start_date = :deal_start_date,
	anniversary_month = :anniversary_month, billing_frequency = :billing_frequency,
	subscription_duration = :subscription_duration,
	subscription_start_date = :subscription_start_date,
	monthly_license_rate = :monthly_license_rate,
	implementation_fee = :implementation_fee,
	implementation_months = :implementation_months,
	implementation_start_date = :implementation_start_date,
	implementation_complete_date = :implementation_complete_date,
	installment_months = :installment_months, is_active = :is_active`

func (s *Store) CreateClient(ctx context.Context, c *billing.Client) error {
	if c.ID == "" {
		c.ID = billing.ClientID(newID())
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (`+clientValues+`)`, c)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c *billing.Client) error {
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE clients SET `+clientUpdateSet+` WHERE id = :id`, c)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res, billing.ErrClientNotFound)
}

func (s *Store) GetClient(ctx context.Context, id billing.ClientID) (*billing.Client, error) {
	var c billing.Client
	err := s.db.GetContext(ctx, &c, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// ListClients returns active clients; pass includeInactive for everything.
func (s *Store) ListClients(ctx context.Context, includeInactive bool) ([]billing.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY client_name`
	var out []billing.Client
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// DeactivateClient soft-deletes: the row stays for historical calculations.
func (s *Store) DeactivateClient(ctx context.Context, id billing.ClientID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE clients SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	return requireRow(res, billing.ErrClientNotFound)
}

// =============================================================================
// VAR PARTNERS
// =============================================================================

func (s *Store) CreateVarPartner(ctx context.Context, p *billing.VarPartner) error {
	if p.ID == "" {
		p.ID = billing.PartnerID(newID())
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO var_partners (id, name, region, contact_person, email, phone, commission_rate, is_active)
		VALUES (:id, :name, :region, :contact_person, :email, :phone, :commission_rate, :is_active)`, p)
	if err != nil {
		return fmt.Errorf("create var partner: %w", err)
	}
	return nil
}

func (s *Store) UpdateVarPartner(ctx context.Context, p *billing.VarPartner) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE var_partners SET name = :name, region = :region,
			contact_person = :contact_person, email = :email, phone = :phone,
			commission_rate = :commission_rate, is_active = :is_active
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("update var partner: %w", err)
	}
	return requireRow(res, billing.ErrPartnerNotFound)
}

func (s *Store) GetVarPartner(ctx context.Context, id billing.PartnerID) (*billing.VarPartner, error) {
	var p billing.VarPartner
	err := s.db.GetContext(ctx, &p, `SELECT * FROM var_partners WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrPartnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get var partner: %w", err)
	}
	return &p, nil
}

func (s *Store) ListVarPartners(ctx context.Context, includeInactive bool) ([]billing.VarPartner, error) {
	q := `SELECT * FROM var_partners`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`
	var out []billing.VarPartner
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list var partners: %w", err)
	}
	return out, nil
}

func (s *Store) DeactivateVarPartner(ctx context.Context, id billing.PartnerID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE var_partners SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate var partner: %w", err)
	}
	return requireRow(res, billing.ErrPartnerNotFound)
}

// =============================================================================
// VAR CLIENTS
// =============================================================================

func (s *Store) CreateVarClient(ctx context.Context, vc *billing.VarClient) error {
	if vc.ID == "" {
		vc.ID = billing.ClientID(newID())
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO var_clients (`+clientColumns+`, var_partner_id, commission_rate)
		VALUES (`+clientValues+`, :var_partner_id, :commission_rate)`, vc)
	if err != nil {
		return fmt.Errorf("create var client: %w", err)
	}
	return nil
}

func (s *Store) UpdateVarClient(ctx context.Context, vc *billing.VarClient) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE var_clients SET `+clientUpdateSet+`,
			var_partner_id = :var_partner_id, commission_rate = :commission_rate
		WHERE id = :id`, vc)
	if err != nil {
		return fmt.Errorf("update var client: %w", err)
	}
	return requireRow(res, billing.ErrClientNotFound)
}

func (s *Store) GetVarClient(ctx context.Context, id billing.ClientID) (*billing.VarClient, error) {
	var vc billing.VarClient
	err := s.db.GetContext(ctx, &vc,
		`SELECT `+clientColumns+`, var_partner_id, commission_rate FROM var_clients WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get var client: %w", err)
	}
	return &vc, nil
}

func (s *Store) ListVarClients(ctx context.Context, includeInactive bool) ([]billing.VarClient, error) {
	q := `SELECT ` + clientColumns + `, var_partner_id, commission_rate FROM var_clients`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY client_name`
	var out []billing.VarClient
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list var clients: %w", err)
	}
	return out, nil
}

func (s *Store) DeactivateVarClient(ctx context.Context, id billing.ClientID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE var_clients SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate var client: %w", err)
	}
	return requireRow(res, billing.ErrClientNotFound)
}

// =============================================================================
// ADDITIONAL LICENSES
// =============================================================================

func (s *Store) AddLicense(ctx context.Context, lic *billing.AdditionalLicense) error {
	if lic.ID == "" {
		lic.ID = billing.LicenseID(newID())
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO additional_licenses (id, client_id, license_type, quantity, price_per_unit, start_date, is_active, created_at)
		VALUES (:id, :client_id, :license_type, :quantity, :price_per_unit, :start_date, :is_active, :created_at)`, lic)
	if err != nil {
		return fmt.Errorf("add license: %w", err)
	}
	return nil
}

func (s *Store) ListLicenses(ctx context.Context) ([]billing.AdditionalLicense, error) {
	var out []billing.AdditionalLicense
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM additional_licenses ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return out, nil
}

func (s *Store) ListClientLicenses(ctx context.Context, clientID billing.ClientID) ([]billing.AdditionalLicense, error) {
	var out []billing.AdditionalLicense
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM additional_licenses WHERE client_id = ? ORDER BY start_date, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client licenses: %w", err)
	}
	return out, nil
}

func (s *Store) DeactivateLicense(ctx context.Context, id billing.LicenseID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE additional_licenses SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate license: %w", err)
	}
	return requireRow(res, sql.ErrNoRows)
}

// =============================================================================
// ANNUAL INCREASES
// =============================================================================

// AddIncrease inserts or replaces the effective percentage for the
// (year, client-or-global) slot; at most one entry is effective per slot.
func (s *Store) AddIncrease(ctx context.Context, inc *billing.AnnualIncrease) error {
	if inc.ID == "" {
		inc.ID = newID()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO annual_increases (id, year, percentage, client_id)
		VALUES (:id, :year, :percentage, :client_id)
		ON CONFLICT (year, client_id) DO UPDATE SET percentage = excluded.percentage`, inc)
	if err != nil {
		return fmt.Errorf("add increase: %w", err)
	}
	return nil
}

func (s *Store) ListIncreases(ctx context.Context) ([]billing.AnnualIncrease, error) {
	var out []billing.AnnualIncrease
	err := s.db.SelectContext(ctx, &out, `SELECT * FROM annual_increases ORDER BY year, client_id`)
	if err != nil {
		return nil, fmt.Errorf("list increases: %w", err)
	}
	return out, nil
}

// ResetIncreases clears the whole table (the bulk reset action).
func (s *Store) ResetIncreases(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM annual_increases`); err != nil {
		return fmt.Errorf("reset increases: %w", err)
	}
	return nil
}

// =============================================================================
// LICENSE EVENT LEDGER - append-only
// =============================================================================

// AppendEvent adds one event to the ledger. There is no update or delete;
// corrections are compensating events.
func (s *Store) AppendEvent(ctx context.Context, e *billing.LicenseEvent) error {
	if e.ID == "" {
		e.ID = newID()
	}
	applyAt := sql.NullString{}
	if !e.ApplyAt.IsZero() {
		applyAt = sql.NullString{String: e.ApplyAt.Key(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO license_events (id, client_id, kind, quantity, effective_month, price_per_unit, apply_at_month, credit_amount, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ClientID, e.Kind, e.Quantity, e.Effective.Key(),
		e.PricePerUnit, applyAt, e.CreditAmount, e.Reason)
	if err != nil {
		return fmt.Errorf("append license event: %w", err)
	}
	return nil
}

type eventRow struct {
	billing.LicenseEvent
	EffectiveMonth string         `db:"effective_month"`
	ApplyAtMonth   sql.NullString `db:"apply_at_month"`
}

// ListEvents returns a client's ledger in chronological order. An empty
// clientID returns every client's events.
func (s *Store) ListEvents(ctx context.Context, clientID billing.ClientID) ([]billing.LicenseEvent, error) {
	q := `SELECT * FROM license_events`
	args := []any{}
	if clientID != "" {
		q += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	q += ` ORDER BY effective_month, id`

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list license events: %w", err)
	}
	out := make([]billing.LicenseEvent, 0, len(rows))
	for _, r := range rows {
		e := r.LicenseEvent
		e.Effective, _ = billing.ParseYearMonth(r.EffectiveMonth)
		if r.ApplyAtMonth.Valid {
			e.ApplyAt, _ = billing.ParseYearMonth(r.ApplyAtMonth.String)
		}
		out = append(out, e)
	}
	return out, nil
}

// =============================================================================
// INVOICE TRACKING
// =============================================================================

// SetInvoiced upserts the "has this month been invoiced" flag.
func (s *Store) SetInvoiced(ctx context.Context, clientID billing.ClientID, month billing.YearMonth, invoiced bool, invoicedDate billing.Date) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_tracking (client_id, billing_month, is_invoiced, invoiced_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, billing_month) DO UPDATE SET
			is_invoiced = excluded.is_invoiced,
			invoiced_date = excluded.invoiced_date`,
		clientID, month.Key(), invoiced, invoicedDate)
	if err != nil {
		return fmt.Errorf("set invoiced: %w", err)
	}
	return nil
}

// IsInvoiced reports the flag; an absent row means not invoiced.
func (s *Store) IsInvoiced(ctx context.Context, clientID billing.ClientID, month billing.YearMonth) (bool, error) {
	var invoiced bool
	err := s.db.GetContext(ctx, &invoiced,
		`SELECT is_invoiced FROM invoice_tracking WHERE client_id = ? AND billing_month = ?`,
		clientID, month.Key())
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get invoiced flag: %w", err)
	}
	return invoiced, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
