package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testClient() *billing.Client {
	c := &billing.Client{
		ClientName:   "Acme Mining",
		DebtCode:     "ACM001",
		Users:        10,
		BillingModel: billing.ModelPerpetual,
		Currency:     "ZAR",
		IsActive:     true,
	}
	c.Total = decimal.NewFromInt(12000)
	c.DealStartDate, _ = billing.ParseDate("2023-07-01")
	c.AnniversaryMonth = time.July
	return c
}

func TestClientRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN a created client
	c := testClient()
	require.NoError(t, s.CreateClient(ctx, c))
	require.NotEmpty(t, c.ID, "create should assign an id")

	// WHEN it is read back
	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)

	// THEN every field survives, decimals included
	assert.Equal(t, "Acme Mining", got.ClientName)
	assert.Equal(t, billing.ModelPerpetual, got.BillingModel)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(12000)), "total: %s", got.Total)
	assert.Equal(t, time.July, got.AnniversaryMonth)
	assert.Equal(t, 2023, got.DealStartDate.Year())
	assert.True(t, got.IsActive)
}

func TestClientUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testClient()
	require.NoError(t, s.CreateClient(ctx, c))

	c.Users = 12
	c.Comments = "Added 2 licenses effective Sep 2025 at ZAR 1,200.00 per unit"
	require.NoError(t, s.UpdateClient(ctx, c))

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Users)
	assert.Contains(t, got.Comments, "Added 2 licenses")
}

func TestClientNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, billing.ErrClientNotFound)

	err = s.UpdateClient(ctx, &billing.Client{ID: "missing", BillingModel: billing.ModelPerpetual})
	assert.ErrorIs(t, err, billing.ErrClientNotFound)

	err = s.DeactivateClient(ctx, "missing")
	assert.ErrorIs(t, err, billing.ErrClientNotFound)
}

func TestDeactivateClientIsSoft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testClient()
	require.NoError(t, s.CreateClient(ctx, c))
	require.NoError(t, s.DeactivateClient(ctx, c.ID))

	// Excluded from the active listing...
	active, err := s.ListClients(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	// ...but the row survives for historical calculations.
	all, err := s.ListClients(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	got, err := s.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestVarPartnerAndClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &billing.VarPartner{
		Name:           "Gulf Build Systems",
		Region:         "Middle East",
		CommissionRate: decimal.NewFromInt(20),
		IsActive:       true,
	}
	require.NoError(t, s.CreateVarPartner(ctx, p))

	vc := &billing.VarClient{
		Client:         *testClient(),
		VarPartnerID:   p.ID,
		CommissionRate: decimal.NewFromInt(20),
	}
	require.NoError(t, s.CreateVarClient(ctx, vc))

	got, err := s.GetVarClient(ctx, vc.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.VarPartnerID)
	assert.True(t, got.CommissionRate.Equal(decimal.NewFromInt(20)))

	// Partner listing respects the active filter.
	require.NoError(t, s.DeactivateVarPartner(ctx, p.ID))
	partners, err := s.ListVarPartners(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, partners)
}

func TestVarClientRequiresPartner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vc := &billing.VarClient{Client: *testClient(), VarPartnerID: "no-such-partner"}

	// GIVEN foreign keys are on, WHEN the partner row is absent
	err := s.CreateVarClient(ctx, vc)

	// THEN the insert is rejected
	assert.Error(t, err)
}

func TestLicenses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testClient()
	require.NoError(t, s.CreateClient(ctx, c))

	start, _ := billing.ParseDate("2025-03-01")
	lic := &billing.AdditionalLicense{
		ClientID:     c.ID,
		LicenseType:  "Standard",
		Quantity:     2,
		PricePerUnit: decimal.NewFromInt(1000),
		StartDate:    start,
		IsActive:     true,
	}
	require.NoError(t, s.AddLicense(ctx, lic))

	got, err := s.ListClientLicenses(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quantity)
	assert.True(t, got[0].PricePerUnit.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, s.DeactivateLicense(ctx, lic.ID))
	got, err = s.ListClientLicenses(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 1, "deactivated licenses stay listed")
	assert.False(t, got[0].IsActive)
}

func TestIncreasesUpsertPerSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN a global 5% for 2024
	require.NoError(t, s.AddIncrease(ctx, &billing.AnnualIncrease{
		Year: 2024, Percentage: decimal.NewFromInt(5),
	}))

	// WHEN the same slot is written again with 7%
	require.NoError(t, s.AddIncrease(ctx, &billing.AnnualIncrease{
		Year: 2024, Percentage: decimal.NewFromInt(7),
	}))

	// AND a client-specific entry for the same year
	require.NoError(t, s.AddIncrease(ctx, &billing.AnnualIncrease{
		Year: 2024, Percentage: decimal.NewFromInt(3), ClientID: "c-1",
	}))

	// THEN one global row (7%) and one client row coexist
	got, err := s.ListIncreases(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsGlobal())
	assert.True(t, got[0].Percentage.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, billing.ClientID("c-1"), got[1].ClientID)

	require.NoError(t, s.ResetIncreases(ctx))
	got, err = s.ListIncreases(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEventLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added := &billing.LicenseEvent{
		ClientID:     "c-1",
		Kind:         billing.EventAdded,
		Quantity:     2,
		Effective:    billing.YearMonth{Year: 2025, Month: time.March},
		PricePerUnit: decimal.NewFromInt(1200),
	}
	require.NoError(t, s.AppendEvent(ctx, added))

	decreased := &billing.LicenseEvent{
		ClientID:     "c-1",
		Kind:         billing.EventDecreased,
		Quantity:     1,
		Effective:    billing.YearMonth{Year: 2025, Month: time.September},
		ApplyAt:      billing.YearMonth{Year: 2025, Month: time.September},
		CreditAmount: decimal.NewFromInt(1000),
		Reason:       "Site closure",
	}
	require.NoError(t, s.AppendEvent(ctx, decreased))

	got, err := s.ListEvents(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, billing.EventAdded, got[0].Kind)
	assert.Equal(t, billing.YearMonth{Year: 2025, Month: time.March}, got[0].Effective)
	assert.True(t, got[0].PricePerUnit.Equal(decimal.NewFromInt(1200)))

	assert.Equal(t, billing.EventDecreased, got[1].Kind)
	assert.Equal(t, billing.YearMonth{Year: 2025, Month: time.September}, got[1].ApplyAt)
	assert.True(t, got[1].CreditAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Site closure", got[1].Reason)

	// Other clients' ledgers stay separate.
	other, err := s.ListEvents(ctx, "c-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInvoiceTracking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	month := billing.YearMonth{Year: 2025, Month: time.June}

	// Absent row means not invoiced.
	invoiced, err := s.IsInvoiced(ctx, "c-1", month)
	require.NoError(t, err)
	assert.False(t, invoiced)

	when, _ := billing.ParseDate("2025-06-05")
	require.NoError(t, s.SetInvoiced(ctx, "c-1", month, true, when))
	invoiced, err = s.IsInvoiced(ctx, "c-1", month)
	require.NoError(t, err)
	assert.True(t, invoiced)

	// Upsert flips it back.
	require.NoError(t, s.SetInvoiced(ctx, "c-1", month, false, billing.Date{}))
	invoiced, err = s.IsInvoiced(ctx, "c-1", month)
	require.NoError(t, err)
	assert.False(t, invoiced)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	// Darwin records applied versions; a second run is a no-op.
	require.NoError(t, migrate(s.db.DB))
}
