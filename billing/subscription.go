/*
subscription.go - Subscription billing (two phases)

PURPOSE:
  Subscription billing has two independent components per month:

  Phase 1 - implementation fee:
    If an implementation start date is set, the fee spreads evenly over
    ImplementationMonths starting at that date. Months inside the window
    bill fee/months; months outside bill zero for this component.

  Phase 2 - recurring subscription:
    Begins only once ImplementationCompleteDate is set (or immediately when
    no implementation fee was configured). The monthly amount is
    MonthlyLicenseRate * Users plus the license ledger's incremental value.
    Non-monthly billing frequencies accrue: the full period's amount bills
    in the invoice month (aligned to the recurring start), zero in between.

  A subscription with no start date and an incomplete implementation bills
  zero for the recurring component.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// subscriptionMonthly computes one month's subscription billing: the
// implementation fee share plus the recurring amount due that month.
func subscriptionMonthly(c *Client, year int, month time.Month, snap Snapshot) decimal.Decimal {
	cell := YearMonth{Year: year, Month: month}
	total := implementationFeeFor(c, cell)

	recurring, start, ok := recurringMonthly(c, cell, snap)
	if !ok {
		return total
	}

	period := c.BillingFrequency.PeriodMonths()
	if period <= 1 {
		return total.Add(recurring)
	}

	// Quarterly/semi-annual/annual: the full period's accrued amount bills
	// only in the invoice month.
	if cell.MonthsSince(start)%period != 0 {
		return total
	}
	return total.Add(recurring.Mul(decimal.NewFromInt(int64(period))))
}

// implementationFeeFor returns the fee share for one month: fee/months
// inside the spread window, zero outside it.
func implementationFeeFor(c *Client, cell YearMonth) decimal.Decimal {
	if c.ImplementationFee.IsZero() || c.ImplementationMonths <= 0 || c.ImplementationStartDate.IsZero() {
		return decimal.Zero
	}
	start := c.ImplementationStartDate.YearMonth()
	end := start.AddMonths(c.ImplementationMonths - 1)
	if cell.Before(start) || cell.After(end) {
		return decimal.Zero
	}
	return c.ImplementationFee.Div(decimal.NewFromInt(int64(c.ImplementationMonths)))
}

// recurringMonthly returns the per-month recurring amount in effect for the
// cell, the month the recurring phase started (for invoice alignment), and
// whether the recurring phase is active at all for this cell.
func recurringMonthly(c *Client, cell YearMonth, snap Snapshot) (decimal.Decimal, YearMonth, bool) {
	implConfigured := !c.ImplementationFee.IsZero() && !c.ImplementationStartDate.IsZero()
	implComplete := !c.ImplementationCompleteDate.IsZero()

	if implConfigured && !implComplete {
		return decimal.Zero, YearMonth{}, false
	}

	// Recurring starts at the subscription start, pushed out to the
	// implementation completion when that lands later.
	var start YearMonth
	switch {
	case !c.SubscriptionStartDate.IsZero():
		start = c.SubscriptionStartDate.YearMonth()
		if implComplete && c.ImplementationCompleteDate.YearMonth().After(start) {
			start = c.ImplementationCompleteDate.YearMonth()
		}
	case implComplete:
		start = c.ImplementationCompleteDate.YearMonth()
	default:
		return decimal.Zero, YearMonth{}, false
	}

	if cell.Before(start) {
		return decimal.Zero, YearMonth{}, false
	}
	if c.SubscriptionDuration > 0 && cell.AfterOrEqual(start.AddMonths(c.SubscriptionDuration)) {
		return decimal.Zero, YearMonth{}, false
	}

	amount := c.MonthlyLicenseRate.Mul(decimal.NewFromInt(int64(c.Users)))
	impact := NetLicenseImpact(c, cell.Year, cell.Month, snap.Licenses, snap.Increases)
	return amount.Add(impact.IncrementalValue), start, true
}
