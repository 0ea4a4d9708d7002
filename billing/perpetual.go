/*
perpetual.go - Perpetual license S&M billing

PURPOSE:
  A perpetual client pays a recurring Support & Maintenance fee: the stored
  base-year total, compounded by the annual increase table, plus the
  prorated or full contribution of each additional license.

FIRST-YEAR-FREE:
  The entire first contract year bills zero. The annual path gates on the
  deal-start calendar year; the monthly path gates on the exact first twelve
  months after the deal start. The two gates intentionally disagree for
  mid-year deal starts: the annual figure is computed directly, not summed
  from twelve monthly calls, mirroring the observed behavior of the system
  this engine reproduces.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// perpetualAnnual computes the direct full-year S&M amount.
func perpetualAnnual(c *Client, year int, snap Snapshot) decimal.Decimal {
	if c.DealStartDate.IsZero() || year <= c.DealStartDate.Year() {
		// First contract year is free.
		return decimal.Zero
	}
	multiplier := ResolveMultiplier(c.ID, c.DealStartDate, year, snap.Increases)
	base := c.Total.Mul(multiplier)
	return base.Add(PerpetualLicenseAnnualImpact(c, year, snap.Licenses, snap.Increases))
}

// perpetualMonthly computes one month's share of the annual S&M. Billing
// stays zero through the first twelve months after the deal start and
// resumes the month after the first anniversary.
func perpetualMonthly(c *Client, year int, month time.Month, snap Snapshot) decimal.Decimal {
	if c.DealStartDate.IsZero() {
		return decimal.Zero
	}
	cell := YearMonth{Year: year, Month: month}
	firstBillable := c.DealStartDate.YearMonth().AddMonths(12)
	if cell.Before(firstBillable) {
		return decimal.Zero
	}

	multiplier := ResolveMultiplier(c.ID, c.DealStartDate, year, snap.Increases)
	monthly := twelfth(c.Total.Mul(multiplier))
	impact := NetLicenseImpact(c, year, month, snap.Licenses, snap.Increases)
	return monthly.Add(impact.IncrementalValue)
}
