/*
installment.go - Installment billing

PURPOSE:
  The stored total divides evenly across InstallmentMonths consecutive
  months starting at the deal start, zero before and after the window.

  An additional license opens a NEW parallel installment schedule on top of
  the original: quantity * pricePerUnit per month from the license's start
  month for the same number of months. The original spread is never
  recomputed.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// installmentMonthly computes one month's installment billing: the base
// schedule plus any parallel license schedules in effect.
func installmentMonthly(c *Client, year int, month time.Month, snap Snapshot) decimal.Decimal {
	cell := YearMonth{Year: year, Month: month}
	total := decimal.Zero

	if c.InstallmentMonths > 0 && !c.DealStartDate.IsZero() {
		start := c.DealStartDate.YearMonth()
		end := start.AddMonths(c.InstallmentMonths - 1)
		if cell.AfterOrEqual(start) && cell.BeforeOrEqual(end) {
			total = c.Total.Div(decimal.NewFromInt(int64(c.InstallmentMonths)))
		}
	}

	for _, lic := range snap.Licenses {
		if lic.ClientID != c.ID || !lic.IsActive || lic.StartDate.IsZero() {
			continue
		}
		start := lic.StartDate.YearMonth()
		if cell.Before(start) {
			continue
		}
		// Parallel schedule runs the client's installment length; with no
		// length configured the contribution is open-ended.
		if c.InstallmentMonths > 0 && cell.After(start.AddMonths(c.InstallmentMonths-1)) {
			continue
		}
		total = total.Add(lic.PricePerUnit.Mul(decimal.NewFromInt(int64(lic.Quantity))))
	}
	return total
}
