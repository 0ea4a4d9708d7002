/*
licenses.go - Additional license ledger

PURPOSE:
  Computes, for any (year, month), the net incremental seats and incremental
  monetary value contributed by licenses added after a client's deal start.

PRORATION RULES:
  Perpetual licenses align to the client's anniversary month:
    - Added BEFORE the anniversary in its start year: the first partial year
      bills the remainder up to and including the anniversary month
      (annual * (anniversary - start + 1) / 12), full annual value from the
      next year onward.
    - Added ON/AFTER the anniversary: free for the remainder of its first
      twelve months, then the accumulated partial period
      (annual * (12 - (start - anniversary)) / 12) bills in the following
      year, full annual value thereafter.
  Full-value years compound with the annual increase table, anchored at the
  license's own start year.

  Subscription, installment and rental licenses are not anniversary-aligned:
  they contribute quantity * pricePerUnit per month from their start month,
  with no proration.

EXAMPLES (anniversary July, annual value 2000):
  Added Mar 2025 -> 2025: 2000 * 5/12 = 833.33, 2026 on: 2000 (compounded)
  Added Sep 2025 -> 2025: 0, 2026: 2000 * 10/12 = 1666.67, 2027 on: 2000
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// LicenseImpact is the net contribution of additional licenses to one
// billing cell: extra seats in effect and extra monetary value.
type LicenseImpact struct {
	IncrementalUsers int
	IncrementalValue decimal.Decimal
}

// NetLicenseImpact computes the impact of a client's active additional
// licenses on the given (year, month). The increase table is consulted only
// for perpetual licenses, whose full-value years compound forward.
func NetLicenseImpact(c *Client, year int, month time.Month, licenses []AdditionalLicense, increases []AnnualIncrease) LicenseImpact {
	cell := YearMonth{Year: year, Month: month}
	impact := LicenseImpact{IncrementalValue: decimal.Zero}

	for _, lic := range licenses {
		if lic.ClientID != c.ID || !lic.IsActive || lic.StartDate.IsZero() {
			continue
		}
		if lic.StartDate.YearMonth().After(cell) {
			continue
		}
		impact.IncrementalUsers += lic.Quantity

		if c.BillingModel == ModelPerpetual {
			// Annual attribution spread evenly across the year's months.
			annual := perpetualLicenseAnnualValue(c, lic, year, increases)
			impact.IncrementalValue = impact.IncrementalValue.Add(twelfth(annual))
			continue
		}
		monthly := lic.PricePerUnit.Mul(decimal.NewFromInt(int64(lic.Quantity)))
		impact.IncrementalValue = impact.IncrementalValue.Add(monthly)
	}
	return impact
}

// PerpetualLicenseAnnualImpact sums the annual value attributed to a
// perpetual client's additional licenses for a calendar year. Used by the
// direct annual S&M path.
func PerpetualLicenseAnnualImpact(c *Client, year int, licenses []AdditionalLicense, increases []AnnualIncrease) decimal.Decimal {
	total := decimal.Zero
	for _, lic := range licenses {
		if lic.ClientID != c.ID || !lic.IsActive || lic.StartDate.IsZero() {
			continue
		}
		total = total.Add(perpetualLicenseAnnualValue(c, lic, year, increases))
	}
	return total
}

// perpetualLicenseAnnualValue attributes one license's value to a calendar
// year under the anniversary proration rules.
func perpetualLicenseAnnualValue(c *Client, lic AdditionalLicense, year int, increases []AnnualIncrease) decimal.Decimal {
	startYear := lic.StartDate.Year()
	startMonth := lic.StartDate.Month()
	anniversary := c.Anniversary()

	if year < startYear {
		return decimal.Zero
	}

	annual := lic.PricePerUnit.Mul(decimal.NewFromInt(int64(lic.Quantity)))

	if year == startYear {
		if startMonth < anniversary {
			// Partial year up to and including the anniversary month.
			months := int(anniversary) - int(startMonth) + 1
			return annual.Mul(decimal.NewFromInt(int64(months))).Div(decimalTwelve)
		}
		// On/after the anniversary: free until the next anniversary.
		return decimal.Zero
	}

	multiplier := ResolveMultiplier(c.ID, lic.StartDate, year, increases)

	if year == startYear+1 && startMonth >= anniversary {
		// First invoice after the free stretch covers the accumulated
		// partial period.
		months := 12 - (int(startMonth) - int(anniversary))
		return annual.Mul(decimal.NewFromInt(int64(months))).Div(decimalTwelve).Mul(multiplier)
	}

	return annual.Mul(multiplier)
}
