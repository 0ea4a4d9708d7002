/*
rental.go - Rental billing

PURPOSE:
  Rentals are pass-through: the stored monthly value for the queried month
  is billed as entered or imported, never recomputed from a formula. The
  only dynamic component is the license ledger's incremental value at full
  monthly rate from each license's start month.
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

func rentalMonthly(c *Client, year int, month time.Month, snap Snapshot) decimal.Decimal {
	impact := NetLicenseImpact(c, year, month, snap.Licenses, snap.Increases)
	return c.ValueFor(month).Add(impact.IncrementalValue)
}
