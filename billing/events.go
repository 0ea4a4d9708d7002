/*
events.go - The license event ledger and the comment log

PURPOSE:
  License changes arrive as two historically asymmetric shapes: additions
  are structured AdditionalLicense rows, while decreases were only recorded
  as free-text lines inside Client.Comments. This file unifies both into a
  single ordered, append-only ledger of tagged LicenseEvent values, which is
  what the calculators consume for decrease credits.

THE COMMENT LOG:
  The human-readable log lines are still written and still parsed, because
  they are the display-facing history and the only migration path for
  legacy records:

    Added 5 license(s) effective Mar 2025 at ZAR 200.00 per unit
    Decreased 2 license(s) effective Sep 2025. Credit ZAR 1,666.67 applied in Sep 2025. Reason: downsizing

  ParseEventLog reconstructs events from these lines with the same pattern
  tolerances the original UI used (applied "at" or "in", optional reason).

DECREASE CREDIT:
  A decrease produces a one-time credit in its apply-at month:

    credit = (stored total / users / 12) * seats removed * months to next invoice

  The per-seat monthly rate derives from the stored annual (or period)
  total. This is exact for perpetual and an approximation for rate-based
  models; the approximation is preserved deliberately.
*/
package billing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LICENSE EVENT - tagged variant: Added | Decreased
// =============================================================================

type LicenseEventKind string

const (
	EventAdded     LicenseEventKind = "added"
	EventDecreased LicenseEventKind = "decreased"
)

// LicenseEvent is one entry in a client's ordered license-change ledger.
// Added events carry PricePerUnit; Decreased events carry the pre-computed
// CreditAmount, the month it lands in (ApplyAt), and an optional reason.
type LicenseEvent struct {
	ID        string           `db:"id" json:"id"`
	ClientID  ClientID         `db:"client_id" json:"clientId"`
	Kind      LicenseEventKind `db:"kind" json:"kind"`
	Quantity  int              `db:"quantity" json:"quantity"`
	Effective YearMonth        `db:"-" json:"effective"`

	// Added only.
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`

	// Decreased only.
	ApplyAt      YearMonth       `db:"-" json:"applyAt"`
	CreditAmount decimal.Decimal `db:"credit_amount" json:"creditAmount"`
	Reason       string          `db:"reason" json:"reason"`
}

// SortEvents orders a ledger chronologically by effective month, in place.
func SortEvents(events []LicenseEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Effective.Before(events[j].Effective)
	})
}

// EventsFromLicenses lifts structured addition rows into the event ledger.
func EventsFromLicenses(licenses []AdditionalLicense) []LicenseEvent {
	var events []LicenseEvent
	for _, lic := range licenses {
		if !lic.IsActive {
			continue
		}
		events = append(events, LicenseEvent{
			ID:           string(lic.ID),
			ClientID:     lic.ClientID,
			Kind:         EventAdded,
			Quantity:     lic.Quantity,
			Effective:    lic.StartDate.YearMonth(),
			PricePerUnit: lic.PricePerUnit,
		})
	}
	SortEvents(events)
	return events
}

// =============================================================================
// DECREASE CREDIT
// =============================================================================

// MonthsToNextInvoice returns how many whole months remain from the
// effective month (inclusive) to the client's next anniversary invoice.
// A decrease effective in the anniversary month itself has a full year
// remaining on the invoice it credits against.
func MonthsToNextInvoice(c *Client, effective YearMonth) int {
	anniversary := c.Anniversary()
	remaining := (int(anniversary) - int(effective.Month) + 12) % 12
	if remaining == 0 {
		remaining = 12
	}
	return remaining
}

// ComputeDecreaseCredit derives the one-time credit for removing seats,
// using the stored total as the rate source:
//
//	credit = (total / users / 12) * quantity * months remaining
//
// Zero users or a zero stored total yield a zero credit rather than failing.
func ComputeDecreaseCredit(c *Client, quantity int, effective YearMonth) decimal.Decimal {
	if c.Users <= 0 || c.Total.IsZero() || quantity <= 0 {
		return decimal.Zero
	}
	perSeatMonthly := twelfth(c.Total.Div(decimal.NewFromInt(int64(c.Users))))
	months := decimal.NewFromInt(int64(MonthsToNextInvoice(c, effective)))
	return perSeatMonthly.Mul(decimal.NewFromInt(int64(quantity))).Mul(months)
}

// NewDecreaseEvent builds the Decreased ledger entry for a seat removal.
// The credit lands in the effective month.
func NewDecreaseEvent(c *Client, quantity int, effective YearMonth, reason string) LicenseEvent {
	return LicenseEvent{
		ClientID:     c.ID,
		Kind:         EventDecreased,
		Quantity:     quantity,
		Effective:    effective,
		ApplyAt:      effective,
		CreditAmount: ComputeDecreaseCredit(c, quantity, effective),
		Reason:       reason,
	}
}

// DecreaseCreditFor sums the credits that land in the given month.
func DecreaseCreditFor(clientID ClientID, month YearMonth, events []LicenseEvent) decimal.Decimal {
	credit := decimal.Zero
	for _, e := range events {
		if e.ClientID != clientID || e.Kind != EventDecreased {
			continue
		}
		if e.ApplyAt.Equal(month) {
			credit = credit.Add(e.CreditAmount)
		}
	}
	return credit
}

// NetEventSeats returns the net seat delta from the ledger up to and
// including the given month (additions minus decreases).
func NetEventSeats(clientID ClientID, upTo YearMonth, events []LicenseEvent) int {
	net := 0
	for _, e := range events {
		if e.ClientID != clientID || e.Effective.After(upTo) {
			continue
		}
		switch e.Kind {
		case EventAdded:
			net += e.Quantity
		case EventDecreased:
			net -= e.Quantity
		}
	}
	return net
}

// =============================================================================
// COMMENT LOG - append and parse the human-readable history
// =============================================================================

var (
	addedLineRe     = regexp.MustCompile(`Added (\d+) license`)
	decreasedLineRe = regexp.MustCompile(`Decreased (\d+) licen[sc]es?`)
	effectiveRe     = regexp.MustCompile(`effective ([A-Za-z]+ \d{4})`)
	perUnitRe       = regexp.MustCompile(`at [A-Z]{3}\s?([\d,]+(?:\.\d{1,2})?) per unit`)
	creditRe        = regexp.MustCompile(`Credit [A-Z]{3}\s?([\d,]+(?:\.\d{1,2})?)`)
	applyAtRe       = regexp.MustCompile(`applied (?:at|in) ([A-Za-z]+ \d{4})`)
	reasonRe        = regexp.MustCompile(`Reason: (.+)$`)
)

// LogLine renders the comment-log form of an event.
func (e LicenseEvent) LogLine(currencyCode string) string {
	switch e.Kind {
	case EventAdded:
		return "Added " + strconv.Itoa(e.Quantity) + " license(s) effective " + e.Effective.String() +
			" at " + logCurrency(currencyCode, e.PricePerUnit) + " per unit"
	case EventDecreased:
		line := "Decreased " + strconv.Itoa(e.Quantity) + " license(s) effective " + e.Effective.String() +
			". Credit " + logCurrency(currencyCode, e.CreditAmount) + " applied in " + e.ApplyAt.String()
		if e.Reason != "" {
			line += ". Reason: " + e.Reason
		}
		return line
	}
	return ""
}

// AppendEventLog appends an event's log line to a comments blob.
func AppendEventLog(comments string, e LicenseEvent, currencyCode string) string {
	line := e.LogLine(currencyCode)
	if line == "" {
		return comments
	}
	if comments == "" {
		return line
	}
	return strings.TrimRight(comments, "\n") + "\n" + line
}

// ParseEventLog reconstructs license events from comment-log lines. Lines
// that mention licenses but don't parse cleanly are skipped, matching the
// tolerance of the original display code.
func ParseEventLog(clientID ClientID, comments string) []LicenseEvent {
	if comments == "" {
		return nil
	}
	var events []LicenseEvent
	for _, line := range strings.Split(comments, "\n") {
		if !strings.Contains(line, "license") {
			continue
		}
		if m := decreasedLineRe.FindStringSubmatch(line); m != nil {
			e := LicenseEvent{ClientID: clientID, Kind: EventDecreased}
			e.Quantity, _ = strconv.Atoi(m[1])
			if em := effectiveRe.FindStringSubmatch(line); em != nil {
				e.Effective, _ = ParseYearMonth(em[1])
			}
			e.ApplyAt = e.Effective
			if am := applyAtRe.FindStringSubmatch(line); am != nil {
				e.ApplyAt, _ = ParseYearMonth(am[1])
			}
			if cm := creditRe.FindStringSubmatch(line); cm != nil {
				e.CreditAmount = parseLoggedDecimal(cm[1])
			}
			if rm := reasonRe.FindStringSubmatch(line); rm != nil {
				e.Reason = strings.TrimSpace(rm[1])
			}
			if e.Quantity > 0 {
				events = append(events, e)
			}
			continue
		}
		if m := addedLineRe.FindStringSubmatch(line); m != nil {
			e := LicenseEvent{ClientID: clientID, Kind: EventAdded}
			e.Quantity, _ = strconv.Atoi(m[1])
			if em := effectiveRe.FindStringSubmatch(line); em != nil {
				e.Effective, _ = ParseYearMonth(em[1])
			}
			if pm := perUnitRe.FindStringSubmatch(line); pm != nil {
				e.PricePerUnit = parseLoggedDecimal(pm[1])
			}
			if e.Quantity > 0 {
				events = append(events, e)
			}
		}
	}
	SortEvents(events)
	return events
}

func parseLoggedDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
