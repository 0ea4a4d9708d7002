package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/store/memory"
)

func newTestRouter(t *testing.T) (*chi.Mux, *memory.Store) {
	t.Helper()
	store := memory.New()
	h := NewHandler(store, zerolog.Nop())
	return NewRouter(h, zerolog.Nop()), store
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func perpetualRequest() ClientRequest {
	return ClientRequest{
		ClientName:       "Acme Mining",
		DebtCode:         "ACM001",
		Users:            10,
		BillingModel:     "perpetual",
		Currency:         "ZAR",
		Total:            decimal.NewFromInt(12000),
		DealStartDate:    "2023-07-01",
		AnniversaryMonth: 7,
	}
}

func createClient(t *testing.T, router http.Handler, req ClientRequest) billing.Client {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/clients", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c billing.Client
	decodeInto(t, rec, &c)
	require.NotEmpty(t, c.ID)
	return c
}

// =============================================================================
// CLIENT CRUD
// =============================================================================

func TestClientLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodGet, "/api/clients/"+string(c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got billing.Client
	decodeInto(t, rec, &got)
	assert.Equal(t, "Acme Mining", got.ClientName)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(12000)))

	// Update changes users, keeps identity.
	update := perpetualRequest()
	update.Users = 12
	rec = do(t, router, http.MethodPut, "/api/clients/"+string(c.ID), update)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 12, got.Users)

	// Deactivate removes it from the default listing.
	rec = do(t, router, http.MethodDelete, "/api/clients/"+string(c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/clients", nil)
	var active []billing.Client
	decodeInto(t, rec, &active)
	assert.Empty(t, active)

	rec = do(t, router, http.MethodGet, "/api/clients?include_inactive=true", nil)
	var all []billing.Client
	decodeInto(t, rec, &all)
	assert.Len(t, all, 1)
}

func TestCreateClient_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	req := perpetualRequest()
	req.BillingModel = "freemium"
	rec := do(t, router, http.MethodPost, "/api/clients", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = perpetualRequest()
	req.ClientName = ""
	rec = do(t, router, http.MethodPost, "/api/clients", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetClient_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/clients/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// BILLING ENDPOINTS
// =============================================================================

func TestMonthlyBillingEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	// First 12 months are covered by the license purchase.
	rec := do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing?year=2024&month=6", c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var amt AmountDTO
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.IsZero(), "got %s", amt.Amount)

	// From month 13 the annual value bills in twelfths.
	rec = do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing?year=2024&month=7", c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.Equal(decimal.NewFromInt(1000)), "got %s", amt.Amount)
	assert.Equal(t, "ZAR", amt.Currency)
	assert.NotEmpty(t, amt.Formatted)
}

func TestAnnualBillingEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing/annual?year=2024", c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var amt AmountDTO
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.Equal(decimal.NewFromInt(12000)), "got %s", amt.Amount)
}

func TestBillingEndpoint_BadInput(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing?year=2024&month=13", c.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing?month=6", c.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionBreakdownEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := ClientRequest{
		ClientName:            "SaaS Co",
		Users:                 10,
		BillingModel:          "subscription",
		Currency:              "ZAR",
		MonthlyLicenseRate:    decimal.NewFromInt(50),
		SubscriptionStartDate: "2025-01-01",
		BillingFrequency:      "monthly",
	}
	c := createClient(t, router, req)

	// The stored jan..dec cache was derived at create time.
	assert.True(t, c.Jan.Equal(decimal.NewFromInt(500)), "got %s", c.Jan)

	rec := do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing/breakdown?year=2025", c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mv billing.MonthlyValues
	decodeInto(t, rec, &mv)
	assert.True(t, mv.Total.Equal(decimal.NewFromInt(6000)), "got %s", mv.Total)
}

func TestBreakdownEndpoint_RejectsPerpetual(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing/breakdown?year=2025", c.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LICENSE FLOW
// =============================================================================

func TestAddLicenseFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	// WHEN 2 seats are added
	rec := do(t, router, http.MethodPost, "/api/clients/"+string(c.ID)+"/licenses",
		AddLicenseRequest{
			Quantity:     2,
			PricePerUnit: decimal.NewFromInt(1200),
			StartDate:    "2025-03-01",
		})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN the user count, comment log and event ledger all moved
	rec = do(t, router, http.MethodGet, "/api/clients/"+string(c.ID), nil)
	var got billing.Client
	decodeInto(t, rec, &got)
	assert.Equal(t, 12, got.Users)
	assert.Contains(t, got.Comments, "Added 2 license(s) effective Mar 2025")

	rec = do(t, router, http.MethodGet, "/api/clients/"+string(c.ID)+"/events", nil)
	var events EventsDTO
	decodeInto(t, rec, &events)
	assert.Equal(t, "ledger", events.Source)
	require.Len(t, events.Events, 1)
	assert.Equal(t, billing.EventAdded, events.Events[0].Kind)
}

func TestDecreaseLicenseFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	// WHEN 2 of 10 seats are dropped effective Sep 2025 (10 months to the
	// July anniversary)
	rec := do(t, router, http.MethodPost, "/api/clients/"+string(c.ID)+"/licenses/decrease",
		DecreaseLicensesRequest{
			Quantity:  2,
			Effective: "2025-09",
			Reason:    "Site closure",
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN the credit is (12000/10/12) * 2 * 10 = 2000
	var result DecreaseResultDTO
	decodeInto(t, rec, &result)
	assert.True(t, result.Credit.Equal(decimal.NewFromInt(2000)), "got %s", result.Credit)
	assert.Equal(t, "2025-09", result.AppliedIn)
	assert.Equal(t, 8, result.Users)

	// AND September's billing absorbs it: 1000 - 2000
	rec = do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing?year=2025&month=9", c.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var amt AmountDTO
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.Equal(decimal.NewFromInt(-1000)), "got %s", amt.Amount)

	// AND the comment log carries the audit line
	rec = do(t, router, http.MethodGet, "/api/clients/"+string(c.ID), nil)
	var got billing.Client
	decodeInto(t, rec, &got)
	assert.Contains(t, got.Comments, "Decreased 2 license(s) effective Sep 2025")
	assert.Contains(t, got.Comments, "Reason: Site closure")
}

func TestEventsFallBackToCommentLog(t *testing.T) {
	router, store := newTestRouter(t)

	// GIVEN a legacy record whose history lives only in comments
	req := perpetualRequest()
	c := req.ToClient()
	c.Comments = "Imported from spreadsheet\nAdded 3 licenses effective Feb 2024 at ZAR 1,100.00 per unit"
	require.NoError(t, store.CreateClient(context.Background(), c))

	rec := do(t, router, http.MethodGet, "/api/clients/"+string(c.ID)+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events EventsDTO
	decodeInto(t, rec, &events)
	assert.Equal(t, "comments", events.Source)
	require.Len(t, events.Events, 1)
	assert.Equal(t, 3, events.Events[0].Quantity)
	assert.Equal(t, billing.YearMonth{Year: 2024, Month: time.February}, events.Events[0].Effective)
}

// =============================================================================
// INCREASES
// =============================================================================

func TestIncreaseEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodPost, "/api/increases",
		IncreaseRequest{Year: 2024, Percentage: decimal.NewFromInt(10)})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The increase compounds into the annual figure from the year after
	// deal start: 12000 * 1.10.
	rec = do(t, router, http.MethodGet,
		fmt.Sprintf("/api/clients/%s/billing/annual?year=2024", c.ID), nil)
	var amt AmountDTO
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.Equal(decimal.NewFromInt(13200)), "got %s", amt.Amount)

	rec = do(t, router, http.MethodPost, "/api/increases/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/increases", nil)
	var increases []billing.AnnualIncrease
	decodeInto(t, rec, &increases)
	assert.Empty(t, increases)
}

func TestIncreaseValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/increases",
		IncreaseRequest{Year: 1850, Percentage: decimal.NewFromInt(5)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// VAR CHANNEL
// =============================================================================

func TestVarChannel(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/var/partners", VarPartnerRequest{
		Name:           "Gulf Build Systems",
		Region:         "Middle East",
		CommissionRate: decimal.NewFromInt(20),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var partner billing.VarPartner
	decodeInto(t, rec, &partner)

	vcReq := VarClientRequest{
		ClientRequest:  perpetualRequest(),
		VarPartnerID:   string(partner.ID),
		CommissionRate: decimal.NewFromInt(20),
	}
	vcReq.Jan = decimal.NewFromInt(1000)
	vcReq.Feb = decimal.NewFromInt(1000)
	rec = do(t, router, http.MethodPost, "/api/var/clients", vcReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var vc billing.VarClient
	decodeInto(t, rec, &vc)

	// The total sums stored months; the commission rate changes nothing.
	rec = do(t, router, http.MethodGet, "/api/var/clients/"+string(vc.ID)+"/total", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var amt AmountDTO
	decodeInto(t, rec, &amt)
	assert.True(t, amt.Amount.Equal(decimal.NewFromInt(2000)), "got %s", amt.Amount)
}

func TestVarClient_UnknownPartnerRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/var/clients", VarClientRequest{
		ClientRequest: perpetualRequest(),
		VarPartnerID:  "no-such-partner",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// INVOICE TRACKING
// =============================================================================

func TestInvoicedFlag(t *testing.T) {
	router, _ := newTestRouter(t)
	c := createClient(t, router, perpetualRequest())

	rec := do(t, router, http.MethodGet,
		"/api/clients/"+string(c.ID)+"/invoiced?month=2025-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flag InvoicedDTO
	decodeInto(t, rec, &flag)
	assert.False(t, flag.Invoiced)

	rec = do(t, router, http.MethodPut, "/api/clients/"+string(c.ID)+"/invoiced",
		SetInvoicedRequest{Month: "2025-06", Invoiced: true, InvoicedDate: "2025-06-05"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet,
		"/api/clients/"+string(c.ID)+"/invoiced?month=2025-06", nil)
	decodeInto(t, rec, &flag)
	assert.True(t, flag.Invoiced)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
