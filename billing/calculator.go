/*
calculator.go - Orchestration entry points

PURPOSE:
  The public API consumed by the HTTP handlers and form collaborators.
  Every entry point exists in two flavors:

  Strict:  returns (Amount, error) with typed errors for an unrecognized
           billing model, a missing required field, or an inverted date
           range. Use these when correctness matters more than display.

  Lenient: returns a plain Amount, substituting zero wherever the strict
           path would error. This preserves the "never throw, default to
           zero" contract UI call sites rely on.

ANNUAL TOTALS:
  ClientAnnualTotal sums twelve monthly calls for every model EXCEPT
  perpetual, whose annual figure is computed directly by PerpetualSM. For a
  mid-year deal start the two disagree (the monthly path keeps the exact
  first-twelve-months free window, the annual path frees whole calendar
  years). Both behaviors are preserved on purpose; unifying them would
  change historical output.

DECREASE CREDITS:
  Every monthly amount is reduced by the decrease credits landing in that
  month, taken from the license event ledger.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY BILLING
// =============================================================================

// ClientMonthlyBilling computes the amount billed to a client in one
// calendar month, dispatching on the billing model.
func ClientMonthlyBilling(c *Client, year int, month time.Month, snap Snapshot) (Amount, error) {
	if err := validateForModel(c); err != nil {
		return ZeroAmount(c.Currency), err
	}
	return lenientMonthly(c, year, month, snap), nil
}

// ClientMonthlyBillingLenient is the zero-defaulting variant.
func ClientMonthlyBillingLenient(c *Client, year int, month time.Month, snap Snapshot) Amount {
	if !c.BillingModel.Valid() {
		return ZeroAmount(c.Currency)
	}
	return lenientMonthly(c, year, month, snap)
}

func lenientMonthly(c *Client, year int, month time.Month, snap Snapshot) Amount {
	var value decimal.Decimal
	switch c.BillingModel {
	case ModelPerpetual:
		value = perpetualMonthly(c, year, month, snap)
	case ModelSubscription:
		value = subscriptionMonthly(c, year, month, snap)
	case ModelInstallment:
		value = installmentMonthly(c, year, month, snap)
	case ModelRentals:
		value = rentalMonthly(c, year, month, snap)
	default:
		return ZeroAmount(c.Currency)
	}

	cell := YearMonth{Year: year, Month: month}
	value = value.Sub(DecreaseCreditFor(c.ID, cell, snap.Events))
	return Amount{Value: value, Currency: c.Currency}
}

// =============================================================================
// ANNUAL TOTALS
// =============================================================================

// ClientAnnualTotal computes a client's total for a calendar year. Perpetual
// clients take the direct annual path; every other model sums twelve
// monthly calls.
func ClientAnnualTotal(c *Client, year int, snap Snapshot) (Amount, error) {
	if err := validateForModel(c); err != nil {
		return ZeroAmount(c.Currency), err
	}
	return lenientAnnual(c, year, snap), nil
}

// ClientAnnualTotalLenient is the zero-defaulting variant.
func ClientAnnualTotalLenient(c *Client, year int, snap Snapshot) Amount {
	if !c.BillingModel.Valid() {
		return ZeroAmount(c.Currency)
	}
	return lenientAnnual(c, year, snap)
}

func lenientAnnual(c *Client, year int, snap Snapshot) Amount {
	if c.BillingModel == ModelPerpetual {
		return Amount{Value: perpetualAnnual(c, year, snap), Currency: c.Currency}
	}
	total := ZeroAmount(c.Currency)
	for m := time.January; m <= time.December; m++ {
		total = total.Add(lenientMonthly(c, year, m, snap))
	}
	return total
}

// PerpetualSM computes the direct full-year S&M amount for a perpetual
// client: stored base total, compounded, plus license contributions.
func PerpetualSM(c *Client, year int, snap Snapshot) (Amount, error) {
	if c.BillingModel != ModelPerpetual {
		return ZeroAmount(c.Currency), &UnknownModelError{ClientID: c.ID, Model: c.BillingModel}
	}
	if c.DealStartDate.IsZero() {
		return ZeroAmount(c.Currency), &MissingFieldError{ClientID: c.ID, Field: "dealStartDate"}
	}
	return Amount{Value: perpetualAnnual(c, year, snap), Currency: c.Currency}, nil
}

// =============================================================================
// VAR COMMISSION TOTAL
// =============================================================================

// VarClientTotal computes a VAR client's annual commission: the twelve
// stored monthly values summed directly (the display-only commission rate
// is never applied) plus the annualized value of additional licenses tied
// to the VAR client. The increase table is not consulted; VAR amounts are
// entered pre-computed.
func VarClientTotal(vc *VarClient, licenses []AdditionalLicense) Amount {
	total := vc.MonthlyValues.Sum()
	for _, lic := range licenses {
		if lic.ClientID != vc.ID || !lic.IsActive {
			continue
		}
		total = total.Add(lic.PricePerUnit.Mul(decimal.NewFromInt(int64(lic.Quantity))))
	}
	return Amount{Value: total, Currency: vc.Currency}
}

// =============================================================================
// SUBSCRIPTION BREAKDOWN
// =============================================================================

// SubscriptionMonthlyBreakdown produces the twelve-month snapshot for a
// freshly-entered subscription client, used at form-submit time to
// pre-populate the stored monthly fields. The snapshot's Total is the sum
// of the twelve months.
func SubscriptionMonthlyBreakdown(c *Client, year int, snap Snapshot) (MonthlyValues, error) {
	var mv MonthlyValues
	if c.BillingModel != ModelSubscription {
		return mv, &UnknownModelError{ClientID: c.ID, Model: c.BillingModel}
	}
	if err := validateForModel(c); err != nil {
		return mv, err
	}
	for m := time.January; m <= time.December; m++ {
		mv.SetValueFor(m, subscriptionMonthly(c, year, m, snap).Round(2))
	}
	mv.Total = mv.Sum()
	return mv, nil
}

// =============================================================================
// STRICT VALIDATION
// =============================================================================

// validateForModel surfaces the conditions the lenient path papers over.
func validateForModel(c *Client) error {
	if !c.BillingModel.Valid() {
		return &UnknownModelError{ClientID: c.ID, Model: c.BillingModel}
	}
	switch c.BillingModel {
	case ModelPerpetual, ModelInstallment, ModelRentals:
		if c.DealStartDate.IsZero() {
			return &MissingFieldError{ClientID: c.ID, Field: "dealStartDate"}
		}
	case ModelSubscription:
		if !c.ImplementationStartDate.IsZero() && !c.ImplementationCompleteDate.IsZero() &&
			c.ImplementationCompleteDate.Before(c.ImplementationStartDate) {
			return &DateRangeError{
				ClientID: c.ID,
				Field:    "implementation",
				From:     c.ImplementationStartDate,
				To:       c.ImplementationCompleteDate,
			}
		}
	}
	return nil
}
