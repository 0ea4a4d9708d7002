package billing_test

import (
	"testing"
	"time"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func perpetualClient() *billing.Client {
	return &billing.Client{
		ID:               "c-perp",
		ClientName:       "Acme Mining",
		Users:            10,
		BillingModel:     billing.ModelPerpetual,
		Currency:         "ZAR",
		MonthlyValues:    billing.MonthlyValues{Total: dec("12000")},
		DealStartDate:    date(2023, time.July, 1),
		AnniversaryMonth: time.July,
		IsActive:         true,
	}
}

func license(id string, clientID billing.ClientID, qty int, ppu string, start billing.Date) billing.AdditionalLicense {
	return billing.AdditionalLicense{
		ID:           billing.LicenseID(id),
		ClientID:     clientID,
		LicenseType:  "Standard",
		Quantity:     qty,
		PricePerUnit: dec(ppu),
		StartDate:    start,
		IsActive:     true,
	}
}

// =============================================================================
// PERPETUAL PRORATION
// =============================================================================

func TestPerpetualLicense_AddedBeforeAnniversary(t *testing.T) {
	// GIVEN: anniversary July, a 2,000/year license added March 2025
	// THEN: 2025 bills the remainder to the anniversary (5/12), full value
	//       from 2026 onward.

	c := perpetualClient()
	lics := []billing.AdditionalLicense{
		license("l-1", c.ID, 1, "2000", date(2025, time.March, 1)),
	}

	assertDecimal(t, "833.33", billing.PerpetualLicenseAnnualImpact(c, 2025, lics, nil))
	assertDecimal(t, "2000.00", billing.PerpetualLicenseAnnualImpact(c, 2026, lics, nil))
	assertDecimal(t, "0.00", billing.PerpetualLicenseAnnualImpact(c, 2024, lics, nil))
}

func TestPerpetualLicense_AddedAfterAnniversary(t *testing.T) {
	// GIVEN: anniversary July, the same license added September 2025
	// THEN: 2025 is free, 2026 bills the accumulated partial period (10/12),
	//       full value from 2027.

	c := perpetualClient()
	lics := []billing.AdditionalLicense{
		license("l-1", c.ID, 1, "2000", date(2025, time.September, 1)),
	}

	assertDecimal(t, "0.00", billing.PerpetualLicenseAnnualImpact(c, 2025, lics, nil))
	assertDecimal(t, "1666.67", billing.PerpetualLicenseAnnualImpact(c, 2026, lics, nil))
	assertDecimal(t, "2000.00", billing.PerpetualLicenseAnnualImpact(c, 2027, lics, nil))
}

func TestPerpetualLicense_FullYearsCompound(t *testing.T) {
	// Full-value years compound with the increase table, anchored at the
	// license's own start year (increases apply from the year after it).
	c := perpetualClient()
	lics := []billing.AdditionalLicense{
		license("l-1", c.ID, 1, "2000", date(2025, time.March, 1)),
	}
	increases := []billing.AnnualIncrease{globalIncrease(2026, "10")}

	// Partial first year is not compounded.
	assertDecimal(t, "833.33", billing.PerpetualLicenseAnnualImpact(c, 2025, lics, increases))
	assertDecimal(t, "2200.00", billing.PerpetualLicenseAnnualImpact(c, 2026, lics, increases))
}

// =============================================================================
// NET IMPACT FILTERING AND NON-PERPETUAL MODELS
// =============================================================================

func TestNetLicenseImpact_FiltersByClientActiveAndDate(t *testing.T) {
	c := &billing.Client{ID: "c-sub", BillingModel: billing.ModelSubscription, Currency: "ZAR"}
	lics := []billing.AdditionalLicense{
		license("l-mine", c.ID, 5, "50", date(2025, time.February, 1)),
		license("l-other", "someone-else", 3, "50", date(2025, time.February, 1)),
		license("l-future", c.ID, 2, "50", date(2025, time.October, 1)),
		func() billing.AdditionalLicense {
			l := license("l-inactive", c.ID, 4, "50", date(2025, time.January, 1))
			l.IsActive = false
			return l
		}(),
	}

	impact := billing.NetLicenseImpact(c, 2025, time.March, lics, nil)
	if impact.IncrementalUsers != 5 {
		t.Errorf("want 5 incremental users, got %d", impact.IncrementalUsers)
	}
	assertDecimal(t, "250.00", impact.IncrementalValue)

	// October picks up the later license as well.
	impact = billing.NetLicenseImpact(c, 2025, time.October, lics, nil)
	if impact.IncrementalUsers != 7 {
		t.Errorf("want 7 incremental users, got %d", impact.IncrementalUsers)
	}
	assertDecimal(t, "350.00", impact.IncrementalValue)
}

func TestNetLicenseImpact_NonPerpetualHasNoProration(t *testing.T) {
	// Subscription licenses bill the full monthly rate from the month they
	// take effect, regardless of the anniversary month.
	c := &billing.Client{
		ID:               "c-sub",
		BillingModel:     billing.ModelSubscription,
		Currency:         "ZAR",
		AnniversaryMonth: time.July,
	}
	lics := []billing.AdditionalLicense{
		license("l-1", c.ID, 2, "100", date(2025, time.March, 1)),
	}

	for _, m := range []time.Month{time.March, time.June, time.December} {
		impact := billing.NetLicenseImpact(c, 2025, m, lics, nil)
		assertDecimal(t, "200.00", impact.IncrementalValue)
	}

	impact := billing.NetLicenseImpact(c, 2025, time.February, lics, nil)
	assertDecimal(t, "0.00", impact.IncrementalValue)
}
