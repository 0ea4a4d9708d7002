/*
increase.go - Compounded annual increase resolution

PURPOSE:
  Answers "by what factor has this client's base billing grown by year Y?".
  Percentage increases are recorded per year, either globally or as a
  client-specific override, and compound forward from the year after the
  deal-start (base) year.

RESOLUTION ORDER (per intermediate year):
  1. Client-specific entry for that year, if present (fully overrides)
  2. Global entry for that year
  3. 0% (no-op factor)

COMPOUNDING:
  Global increases {2026: 5%, 2027: 10%} on a 2025 deal give
    factor(2025) = 1.0
    factor(2026) = 1.05
    factor(2027) = 1.05 * 1.10 = 1.155
  Increases never retroactively change prior years' stored totals; they
  only compound forward.
*/
package billing

import "github.com/shopspring/decimal"

// ResolveMultiplier returns the compounded increase factor applicable to
// year, relative to the base year (the deal-start year). The base year and
// any earlier year resolve to 1.0. Missing entries contribute 0%.
func ResolveMultiplier(clientID ClientID, dealStart Date, year int, increases []AnnualIncrease) decimal.Decimal {
	factor := decimalOne
	if dealStart.IsZero() {
		return factor
	}
	for y := dealStart.Year() + 1; y <= year; y++ {
		pct := percentageFor(clientID, y, increases)
		if pct.IsZero() {
			continue
		}
		factor = factor.Mul(decimalOne.Add(pct.Div(decimalHundred)))
	}
	return factor
}

// percentageFor finds the effective percentage for one year: the
// client-specific entry wins outright over the global entry.
func percentageFor(clientID ClientID, year int, increases []AnnualIncrease) decimal.Decimal {
	global := decimal.Zero
	for _, inc := range increases {
		if inc.Year != year {
			continue
		}
		if clientID != "" && inc.ClientID == clientID {
			return inc.Percentage
		}
		if inc.IsGlobal() {
			global = inc.Percentage
		}
	}
	return global
}
