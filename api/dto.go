/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request bodies carry
  go-playground/validator tags and are checked before any store or engine
  call; responses reuse the json-tagged domain structs where they already
  fit and wrap them only when the payload adds computed fields (billing
  amounts, formatted currency strings).

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types the domain structs cannot express directly

DATE FORMATS:
  Full dates are "YYYY-MM-DD"; billing months are "YYYY-MM". Both are
  parsed by the billing package's Date/YearMonth types.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: the domain structs returned directly
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

// =============================================================================
// CLIENT REQUESTS
// =============================================================================

// ClientRequest creates or replaces a client record. MonthlyValues are
// accepted as entered for perpetual/installment/rental clients; for
// subscription clients they are recomputed server-side.
type ClientRequest struct {
	ClientName   string `json:"clientName" validate:"required"`
	DebtCode     string `json:"debtCode"`
	Users        int    `json:"users" validate:"gte=0"`
	BillingModel string `json:"billingModel" validate:"required,oneof=perpetual subscription installment rentals"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`

	Jan decimal.Decimal `json:"jan"`
	Feb decimal.Decimal `json:"feb"`
	Mar decimal.Decimal `json:"mar"`
	Apr decimal.Decimal `json:"apr"`
	May decimal.Decimal `json:"may"`
	Jun decimal.Decimal `json:"jun"`
	Jul decimal.Decimal `json:"jul"`
	Aug decimal.Decimal `json:"aug"`
	Sep decimal.Decimal `json:"sep"`
	Oct decimal.Decimal `json:"oct"`
	Nov decimal.Decimal `json:"nov"`
	Dec decimal.Decimal `json:"dec"`

	Total    decimal.Decimal `json:"total"`
	Comments string          `json:"comments"`

	DealStartDate    string `json:"dealStartDate" validate:"omitempty,datetime=2006-01-02"`
	AnniversaryMonth int    `json:"anniversaryMonth" validate:"gte=0,lte=12"`

	// Subscription terms.
	BillingFrequency           string          `json:"billingFrequency" validate:"omitempty,oneof=monthly quarterly semi-annual annual"`
	SubscriptionDuration       int             `json:"subscriptionDuration" validate:"gte=0"`
	SubscriptionStartDate      string          `json:"subscriptionStartDate" validate:"omitempty,datetime=2006-01-02"`
	MonthlyLicenseRate         decimal.Decimal `json:"monthlyLicenseRate"`
	ImplementationFee          decimal.Decimal `json:"implementationFee"`
	ImplementationMonths       int             `json:"implementationMonths" validate:"gte=0"`
	ImplementationStartDate    string          `json:"implementationStartDate" validate:"omitempty,datetime=2006-01-02"`
	ImplementationCompleteDate string          `json:"implementationCompleteDate" validate:"omitempty,datetime=2006-01-02"`

	// Installment terms.
	InstallmentMonths int `json:"installmentMonths" validate:"gte=0"`
}

// ToClient converts the request into a domain record. Date strings have
// already passed validation; parse errors here are unreachable.
func (req *ClientRequest) ToClient() *billing.Client {
	c := &billing.Client{
		ClientName:       req.ClientName,
		DebtCode:         req.DebtCode,
		Users:            req.Users,
		BillingModel:     billing.BillingModel(req.BillingModel),
		Currency:         req.Currency,
		Comments:         req.Comments,
		AnniversaryMonth: time.Month(req.AnniversaryMonth),

		BillingFrequency:     billing.BillingFrequency(req.BillingFrequency),
		SubscriptionDuration: req.SubscriptionDuration,
		MonthlyLicenseRate:   req.MonthlyLicenseRate,
		ImplementationFee:    req.ImplementationFee,
		ImplementationMonths: req.ImplementationMonths,
		InstallmentMonths:    req.InstallmentMonths,

		IsActive: true,
	}
	if c.Currency == "" {
		c.Currency = "ZAR"
	}
	c.MonthlyValues = billing.MonthlyValues{
		Jan: req.Jan, Feb: req.Feb, Mar: req.Mar, Apr: req.Apr,
		May: req.May, Jun: req.Jun, Jul: req.Jul, Aug: req.Aug,
		Sep: req.Sep, Oct: req.Oct, Nov: req.Nov, Dec: req.Dec,
		Total: req.Total,
	}
	c.DealStartDate, _ = billing.ParseDate(req.DealStartDate)
	c.SubscriptionStartDate, _ = billing.ParseDate(req.SubscriptionStartDate)
	c.ImplementationStartDate, _ = billing.ParseDate(req.ImplementationStartDate)
	c.ImplementationCompleteDate, _ = billing.ParseDate(req.ImplementationCompleteDate)
	return c
}

// =============================================================================
// LICENSE REQUESTS
// =============================================================================

// AddLicenseRequest records a seat addition. PricePerUnit is annual per
// seat for perpetual clients, monthly per seat otherwise.
type AddLicenseRequest struct {
	LicenseType  string          `json:"licenseType"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	StartDate    string          `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// DecreaseLicensesRequest removes seats effective a billing month; the
// credit is computed server-side and returned in the response.
type DecreaseLicensesRequest struct {
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Effective string `json:"effective" validate:"required,datetime=2006-01"`
	Reason    string `json:"reason"`
}

// =============================================================================
// INCREASE REQUESTS
// =============================================================================

// IncreaseRequest sets the effective percentage for a (year, client) slot;
// an empty clientId sets the global default. Writing an existing slot
// replaces it.
type IncreaseRequest struct {
	Year       int             `json:"year" validate:"required,gte=2000,lte=2100"`
	Percentage decimal.Decimal `json:"percentage"`
	ClientID   string          `json:"clientId"`
}

// =============================================================================
// VAR REQUESTS
// =============================================================================

// VarPartnerRequest creates or replaces a reseller partner.
type VarPartnerRequest struct {
	Name           string          `json:"name" validate:"required"`
	Region         string          `json:"region"`
	ContactPerson  string          `json:"contactPerson"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Phone          string          `json:"phone"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

// VarClientRequest is a ClientRequest routed through a reseller.
type VarClientRequest struct {
	ClientRequest
	VarPartnerID   string          `json:"varPartnerId" validate:"required"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

// =============================================================================
// INVOICE TRACKING REQUESTS
// =============================================================================

// SetInvoicedRequest flags a billing month as invoiced (or clears it).
type SetInvoicedRequest struct {
	Month        string `json:"month" validate:"required,datetime=2006-01"`
	Invoiced     bool   `json:"invoiced"`
	InvoicedDate string `json:"invoicedDate" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AmountDTO is a computed billing figure plus its display form.
type AmountDTO struct {
	Year      int             `json:"year"`
	Month     string          `json:"month,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Formatted string          `json:"formatted"`
}

// DecreaseResultDTO reports the outcome of a license decrease.
type DecreaseResultDTO struct {
	Event     billing.LicenseEvent `json:"event"`
	Credit    decimal.Decimal      `json:"credit"`
	AppliedIn string               `json:"appliedIn"`
	Users     int                  `json:"users"`
}

// EventsDTO is a client's license-change history. Source is "ledger" when
// structured events exist, "comments" when reconstructed from the legacy
// comment log.
type EventsDTO struct {
	Events []billing.LicenseEvent `json:"events"`
	Source string                 `json:"source"`
}

// InvoicedDTO reports the invoice-tracking flag for one billing month.
type InvoicedDTO struct {
	Month    string `json:"month"`
	Invoiced bool   `json:"invoiced"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
