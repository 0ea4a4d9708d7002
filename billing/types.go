/*
Package billing is the core billing calculation engine.

PURPOSE:
  This package contains the pure, deterministic functions that compute the
  monetary amount billed to a client for any (year, month). Four billing
  models are supported (perpetual S&M, subscription, installment, rentals)
  plus a VAR reseller commission channel. The engine performs no I/O and
  never mutates its inputs: callers hand in read-only snapshots of clients,
  additional-license events, and annual-increase tables, and receive plain
  amounts back.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client / VarClient / VarPartner: billable account records
  - AdditionalLicense: an immutable seat-addition event
  - AnnualIncrease: a (year -> percentage) override, global or per-client
  - MonthlyValues: the stored jan..dec snapshot on a client record
  - BillingModel: which calculation path applies

DESIGN PRINCIPLES:
  1. Purity: every calculation is a transform over its arguments
  2. Precision: decimal.Decimal for all money, never float64
  3. Totality: missing optional fields default to zero, lenient paths
     never fail (strict paths surface typed errors instead)
  4. Immutability: the engine borrows snapshots, it never writes

SEE ALSO:
  - calculator.go: orchestration entry points (the public API)
  - increase.go:   compounded annual increase resolution
  - licenses.go:   additional-license ledger with proration
  - events.go:     the tagged license event ledger and comment log
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID string
type PartnerID string
type LicenseID string

// =============================================================================
// BILLING MODEL
// =============================================================================

// BillingModel selects the calculation path for a client.
// Exactly one model applies to a record at a time.
type BillingModel string

const (
	ModelPerpetual    BillingModel = "perpetual"
	ModelSubscription BillingModel = "subscription"
	ModelInstallment  BillingModel = "installment"
	ModelRentals      BillingModel = "rentals"
)

// Valid reports whether m is one of the four recognized models.
func (m BillingModel) Valid() bool {
	switch m {
	case ModelPerpetual, ModelSubscription, ModelInstallment, ModelRentals:
		return true
	}
	return false
}

// BillingFrequency controls how often a subscription invoices.
// Non-monthly frequencies accrue and bill the full period's amount in the
// invoice month, zero in the months between.
type BillingFrequency string

const (
	FrequencyMonthly    BillingFrequency = "monthly"
	FrequencyQuarterly  BillingFrequency = "quarterly"
	FrequencySemiAnnual BillingFrequency = "semi-annual"
	FrequencyAnnual     BillingFrequency = "annual"
)

// PeriodMonths returns the invoice period length in months.
// Unknown or empty frequencies bill monthly.
func (f BillingFrequency) PeriodMonths() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 1
	}
}

// =============================================================================
// MONTHLY VALUES - the stored jan..dec snapshot
// =============================================================================

// MonthlyValues is the twelve-month snapshot stored on a client record.
// For perpetual, installment and rental clients these values are entered or
// imported directly and are authoritative; for subscription clients they are
// a cache re-derived by SubscriptionMonthlyBreakdown at form-submit time.
type MonthlyValues struct {
	Jan   decimal.Decimal `db:"jan" json:"jan"`
	Feb   decimal.Decimal `db:"feb" json:"feb"`
	Mar   decimal.Decimal `db:"mar" json:"mar"`
	Apr   decimal.Decimal `db:"apr" json:"apr"`
	May   decimal.Decimal `db:"may" json:"may"`
	Jun   decimal.Decimal `db:"jun" json:"jun"`
	Jul   decimal.Decimal `db:"jul" json:"jul"`
	Aug   decimal.Decimal `db:"aug" json:"aug"`
	Sep   decimal.Decimal `db:"sep" json:"sep"`
	Oct   decimal.Decimal `db:"oct" json:"oct"`
	Nov   decimal.Decimal `db:"nov" json:"nov"`
	Dec   decimal.Decimal `db:"dec" json:"dec"`
	Total decimal.Decimal `db:"total" json:"total"`
}

// ValueFor returns the stored value for a calendar month.
func (mv MonthlyValues) ValueFor(month time.Month) decimal.Decimal {
	switch month {
	case time.January:
		return mv.Jan
	case time.February:
		return mv.Feb
	case time.March:
		return mv.Mar
	case time.April:
		return mv.Apr
	case time.May:
		return mv.May
	case time.June:
		return mv.Jun
	case time.July:
		return mv.Jul
	case time.August:
		return mv.Aug
	case time.September:
		return mv.Sep
	case time.October:
		return mv.Oct
	case time.November:
		return mv.Nov
	case time.December:
		return mv.Dec
	}
	return decimal.Zero
}

// SetValueFor stores a value for a calendar month.
func (mv *MonthlyValues) SetValueFor(month time.Month, v decimal.Decimal) {
	switch month {
	case time.January:
		mv.Jan = v
	case time.February:
		mv.Feb = v
	case time.March:
		mv.Mar = v
	case time.April:
		mv.Apr = v
	case time.May:
		mv.May = v
	case time.June:
		mv.Jun = v
	case time.July:
		mv.Jul = v
	case time.August:
		mv.Aug = v
	case time.September:
		mv.Sep = v
	case time.October:
		mv.Oct = v
	case time.November:
		mv.Nov = v
	case time.December:
		mv.Dec = v
	}
}

// Sum returns the sum of the twelve monthly fields (not the stored Total).
func (mv MonthlyValues) Sum() decimal.Decimal {
	sum := decimal.Zero
	for m := time.January; m <= time.December; m++ {
		sum = sum.Add(mv.ValueFor(m))
	}
	return sum
}

// =============================================================================
// CLIENT - one billable account
// =============================================================================

// Client is a billable account. Commercial terms select and parameterize the
// calculation path; the embedded MonthlyValues carry the stored snapshot.
//
// Invariants: AnniversaryMonth is 1-12 (January assumed when unset); exactly
// one billing model applies; DealStartDate is required for every model except
// a subscription that has not started yet.
type Client struct {
	ID         ClientID `db:"id" json:"id"`
	ClientName string   `db:"client_name" json:"clientName"`
	DebtCode   string   `db:"debt_code" json:"debtCode"`

	Users        int          `db:"users" json:"users"`
	BillingModel BillingModel `db:"billing_model" json:"billingModel"`
	Currency     string       `db:"currency" json:"currency"`

	MonthlyValues

	// Comments doubles as an append-only human-readable event log: lines
	// matching "Added N license(s) ..." or "Decreased N license(s) ..." are
	// parsed back out for display. Computation reads the structured event
	// ledger, never this field.
	Comments string `db:"comments" json:"comments"`

	DealStartDate    Date       `db:"deal_start_date" json:"dealStartDate"`
	AnniversaryMonth time.Month `db:"anniversary_month" json:"anniversaryMonth"`

	// Subscription terms.
	BillingFrequency           BillingFrequency `db:"billing_frequency" json:"billingFrequency"`
	SubscriptionDuration       int              `db:"subscription_duration" json:"subscriptionDuration"`
	SubscriptionStartDate      Date             `db:"subscription_start_date" json:"subscriptionStartDate"`
	MonthlyLicenseRate         decimal.Decimal  `db:"monthly_license_rate" json:"monthlyLicenseRate"`
	ImplementationFee          decimal.Decimal  `db:"implementation_fee" json:"implementationFee"`
	ImplementationMonths       int              `db:"implementation_months" json:"implementationMonths"`
	ImplementationStartDate    Date             `db:"implementation_start_date" json:"implementationStartDate"`
	ImplementationCompleteDate Date             `db:"implementation_complete_date" json:"implementationCompleteDate"`

	// Installment terms.
	InstallmentMonths int `db:"installment_months" json:"installmentMonths"`

	// Soft delete. Inactive clients are excluded from aggregate totals.
	IsActive  bool `db:"is_active" json:"isActive"`
	CreatedAt Date `db:"created_at" json:"createdAt"`
}

// Anniversary returns the billing-cycle alignment month, defaulting to the
// deal start month, then January, when unset.
func (c *Client) Anniversary() time.Month {
	if c.AnniversaryMonth >= time.January && c.AnniversaryMonth <= time.December {
		return c.AnniversaryMonth
	}
	if !c.DealStartDate.IsZero() {
		return c.DealStartDate.Month()
	}
	return time.January
}

// =============================================================================
// VAR CHANNEL - reseller partners and their clients
// =============================================================================

// VarPartner is a reseller identity. CommissionRate is the partner's nominal
// rate and is informational only: commission amounts on VarClient records are
// entered pre-computed.
type VarPartner struct {
	ID             PartnerID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Region         string          `db:"region" json:"region"`
	ContactPerson  string          `db:"contact_person" json:"contactPerson"`
	Email          string          `db:"email" json:"email"`
	Phone          string          `db:"phone" json:"phone"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commissionRate"`
	IsActive       bool            `db:"is_active" json:"isActive"`
}

// VarClient is a Client billed through a reseller. The stored monthly values
// already embed the commission amount; CommissionRate is display-only and is
// deliberately not consulted by any calculation.
type VarClient struct {
	Client
	VarPartnerID   PartnerID       `db:"var_partner_id" json:"varPartnerId"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commissionRate"`
}

// =============================================================================
// ADDITIONAL LICENSE - immutable seat-addition event
// =============================================================================

// AdditionalLicense records a positive seat addition after a client's deal
// start. PricePerUnit is the annual per-seat value for perpetual clients and
// the monthly per-seat value for the other models. Decreases are not rows in
// this table; see events.go.
type AdditionalLicense struct {
	ID           LicenseID       `db:"id" json:"id"`
	ClientID     ClientID        `db:"client_id" json:"clientId"`
	LicenseType  string          `db:"license_type" json:"licenseType"`
	Quantity     int             `db:"quantity" json:"quantity"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`
	StartDate    Date            `db:"start_date" json:"startDate"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    Date            `db:"created_at" json:"createdAt"`
}

// =============================================================================
// ANNUAL INCREASE - per-year percentage, global or per-client
// =============================================================================

// AnnualIncrease is a (year -> percentage) entry. An empty ClientID marks a
// global default; a client-specific entry fully overrides the global entry
// for that year. At most one entry is effective per (year, client-or-global).
type AnnualIncrease struct {
	ID         string          `db:"id" json:"id"`
	Year       int             `db:"year" json:"year"`
	Percentage decimal.Decimal `db:"percentage" json:"percentage"`
	ClientID   ClientID        `db:"client_id" json:"clientId"`
}

// IsGlobal reports whether the entry is a global default.
func (a AnnualIncrease) IsGlobal() bool { return a.ClientID == "" }

// =============================================================================
// SNAPSHOT - the read-only data set a calculation runs against
// =============================================================================

// Snapshot bundles the tables a calculation consults. Callers assemble it
// from the persistence collaborator; the engine only reads it.
type Snapshot struct {
	Increases []AnnualIncrease
	Licenses  []AdditionalLicense
	Events    []LicenseEvent
}
