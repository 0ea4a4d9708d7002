/*
handlers.go - HTTP API handlers for the billing management system

PURPOSE:
  Exposes the billing calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Clients:
    GET    /api/clients                        List clients
    POST   /api/clients                        Create client
    GET    /api/clients/{id}                   Get client
    PUT    /api/clients/{id}                   Replace client
    DELETE /api/clients/{id}                   Deactivate (soft delete)

  Billing:
    GET    /api/clients/{id}/billing           ?year=&month= monthly amount
    GET    /api/clients/{id}/billing/annual    ?year= annual total
    GET    /api/clients/{id}/billing/breakdown ?year= subscription jan..dec

  Licenses:
    GET    /api/clients/{id}/licenses          List seat additions
    POST   /api/clients/{id}/licenses          Add seats
    POST   /api/clients/{id}/licenses/decrease Remove seats with credit
    GET    /api/clients/{id}/events            License-change history

  Invoice tracking:
    GET    /api/clients/{id}/invoiced          ?month= flag for a month
    PUT    /api/clients/{id}/invoiced          Set/clear the flag

  Increases:
    GET    /api/increases                      List
    POST   /api/increases                      Set a (year, client) slot
    POST   /api/increases/reset                Clear all

  VAR channel:
    /api/var/partners, /api/var/clients        CRUD
    GET    /api/var/clients/{id}/total         Contract total

REQUEST FLOW:
  1. Decode and validate input (go-playground/validator)
  2. Load the calculation snapshot from the store
  3. Call the billing engine
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, engine client errors
  - 404: Record not found
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/calculator.go: the engine entry points called here
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need. Both store/sqlite
// and store/memory satisfy it.
type Store interface {
	CreateClient(ctx context.Context, c *billing.Client) error
	UpdateClient(ctx context.Context, c *billing.Client) error
	GetClient(ctx context.Context, id billing.ClientID) (*billing.Client, error)
	ListClients(ctx context.Context, includeInactive bool) ([]billing.Client, error)
	DeactivateClient(ctx context.Context, id billing.ClientID) error

	CreateVarPartner(ctx context.Context, p *billing.VarPartner) error
	UpdateVarPartner(ctx context.Context, p *billing.VarPartner) error
	GetVarPartner(ctx context.Context, id billing.PartnerID) (*billing.VarPartner, error)
	ListVarPartners(ctx context.Context, includeInactive bool) ([]billing.VarPartner, error)
	DeactivateVarPartner(ctx context.Context, id billing.PartnerID) error

	CreateVarClient(ctx context.Context, vc *billing.VarClient) error
	UpdateVarClient(ctx context.Context, vc *billing.VarClient) error
	GetVarClient(ctx context.Context, id billing.ClientID) (*billing.VarClient, error)
	ListVarClients(ctx context.Context, includeInactive bool) ([]billing.VarClient, error)
	DeactivateVarClient(ctx context.Context, id billing.ClientID) error

	AddLicense(ctx context.Context, lic *billing.AdditionalLicense) error
	ListLicenses(ctx context.Context) ([]billing.AdditionalLicense, error)
	ListClientLicenses(ctx context.Context, clientID billing.ClientID) ([]billing.AdditionalLicense, error)
	DeactivateLicense(ctx context.Context, id billing.LicenseID) error

	AddIncrease(ctx context.Context, inc *billing.AnnualIncrease) error
	ListIncreases(ctx context.Context) ([]billing.AnnualIncrease, error)
	ResetIncreases(ctx context.Context) error

	AppendEvent(ctx context.Context, e *billing.LicenseEvent) error
	ListEvents(ctx context.Context, clientID billing.ClientID) ([]billing.LicenseEvent, error)

	SetInvoiced(ctx context.Context, clientID billing.ClientID, month billing.YearMonth, invoiced bool, invoicedDate billing.Date) error
	IsInvoiced(ctx context.Context, clientID billing.ClientID, month billing.YearMonth) (bool, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    Store
	log      zerolog.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// snapshot loads the read-only data set a calculation runs against.
func (h *Handler) snapshot(ctx context.Context, clientID billing.ClientID) (billing.Snapshot, error) {
	increases, err := h.store.ListIncreases(ctx)
	if err != nil {
		return billing.Snapshot{}, err
	}
	licenses, err := h.store.ListClientLicenses(ctx, clientID)
	if err != nil {
		return billing.Snapshot{}, err
	}
	events, err := h.store.ListEvents(ctx, clientID)
	if err != nil {
		return billing.Snapshot{}, err
	}
	return billing.Snapshot{Increases: increases, Licenses: licenses, Events: events}, nil
}

// refreshSubscriptionCache re-derives the stored jan..dec snapshot for
// subscription clients so list views stay consistent with the engine.
func (h *Handler) refreshSubscriptionCache(ctx context.Context, c *billing.Client) {
	if c.BillingModel != billing.ModelSubscription {
		return
	}
	snap, err := h.snapshot(ctx, c.ID)
	if err != nil {
		return
	}
	year := time.Now().Year()
	if !c.SubscriptionStartDate.IsZero() {
		year = c.SubscriptionStartDate.Year()
	}
	if mv, err := billing.SubscriptionMonthlyBreakdown(c, year, snap); err == nil {
		c.MonthlyValues = mv
	}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns clients, active only unless ?include_inactive=true.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context(), boolQuery(r, "include_inactive"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// CreateClient creates a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := req.ToClient()
	h.refreshSubscriptionCache(r.Context(), c)
	if err := h.store.CreateClient(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}

	h.log.Info().Str("client_id", string(c.ID)).Str("model", string(c.BillingModel)).Msg("client created")
	writeJSON(w, http.StatusCreated, c)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateClient replaces a client's record.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.store.GetClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}

	c := req.ToClient()
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	h.refreshSubscriptionCache(r.Context(), c)
	if err := h.store.UpdateClient(r.Context(), c); err != nil {
		writeError(w, httpStatus(err), "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeactivateClient soft-deletes a client.
func (h *Handler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeactivateClient(r.Context(), clientID(r)); err != nil {
		writeError(w, httpStatus(err), "Failed to deactivate client", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

// =============================================================================
// BILLING HANDLERS
// =============================================================================

// GetMonthlyBilling returns the amount billed for one (year, month) cell.
// GET /api/clients/{id}/billing?year=2025&month=6
func (h *Handler) GetMonthlyBilling(w http.ResponseWriter, r *http.Request) {
	year, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	monthNum, err := intQuery(r, "month")
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month (1-12)", err)
		return
	}
	month := time.Month(monthNum)

	c, err := h.store.GetClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}
	snap, err := h.snapshot(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	amount, err := billing.ClientMonthlyBilling(c, year, month, snap)
	if err != nil {
		writeError(w, httpStatus(err), "Billing calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO(amount, year, billing.YearMonth{Year: year, Month: month}.Key()))
}

// GetAnnualBilling returns the total billed across a calendar year.
// GET /api/clients/{id}/billing/annual?year=2025
func (h *Handler) GetAnnualBilling(w http.ResponseWriter, r *http.Request) {
	year, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	c, err := h.store.GetClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}
	snap, err := h.snapshot(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	amount, err := billing.ClientAnnualTotal(c, year, snap)
	if err != nil {
		writeError(w, httpStatus(err), "Billing calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO(amount, year, ""))
}

// GetBillingBreakdown returns a subscription client's derived jan..dec row.
// GET /api/clients/{id}/billing/breakdown?year=2025
func (h *Handler) GetBillingBreakdown(w http.ResponseWriter, r *http.Request) {
	year, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	c, err := h.store.GetClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}
	snap, err := h.snapshot(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	mv, err := billing.SubscriptionMonthlyBreakdown(c, year, snap)
	if err != nil {
		writeError(w, httpStatus(err), "Breakdown failed", err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

// =============================================================================
// LICENSE HANDLERS
// =============================================================================

// ListClientLicenses returns a client's seat additions.
func (h *Handler) ListClientLicenses(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.store.ListClientLicenses(r.Context(), clientID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list licenses", err)
		return
	}
	writeJSON(w, http.StatusOK, licenses)
}

// AddLicense records a seat addition: the license row, an Added ledger
// event, a comment-log line, and the client's user count all move together.
func (h *Handler) AddLicense(w http.ResponseWriter, r *http.Request) {
	var req AddLicenseRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	c, err := h.store.GetClient(ctx, clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}

	start, _ := billing.ParseDate(req.StartDate)
	lic := &billing.AdditionalLicense{
		ClientID:     c.ID,
		LicenseType:  req.LicenseType,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		StartDate:    start,
		IsActive:     true,
		CreatedAt:    billing.NewDate(time.Now().Year(), time.Now().Month(), time.Now().Day()),
	}
	if lic.LicenseType == "" {
		lic.LicenseType = "Standard"
	}
	if err := h.store.AddLicense(ctx, lic); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add license", err)
		return
	}

	event := billing.LicenseEvent{
		ClientID:     c.ID,
		Kind:         billing.EventAdded,
		Quantity:     req.Quantity,
		Effective:    start.YearMonth(),
		PricePerUnit: req.PricePerUnit,
	}
	if err := h.store.AppendEvent(ctx, &event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record event", err)
		return
	}

	c.Users += req.Quantity
	c.Comments = billing.AppendEventLog(c.Comments, event, c.Currency)
	if err := h.store.UpdateClient(ctx, c); err != nil {
		writeError(w, httpStatus(err), "Failed to update client", err)
		return
	}

	h.log.Info().
		Str("client_id", string(c.ID)).
		Int("quantity", req.Quantity).
		Str("effective", event.Effective.Key()).
		Msg("licenses added")
	writeJSON(w, http.StatusCreated, lic)
}

// DecreaseLicenses removes seats. The credit for already-billed months is
// computed here and lands in the effective month's billing.
func (h *Handler) DecreaseLicenses(w http.ResponseWriter, r *http.Request) {
	var req DecreaseLicensesRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	c, err := h.store.GetClient(ctx, clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get client", err)
		return
	}

	effective, err := billing.ParseYearMonth(req.Effective)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective month (use YYYY-MM)", err)
		return
	}

	event := billing.NewDecreaseEvent(c, req.Quantity, effective, req.Reason)
	if err := h.store.AppendEvent(ctx, &event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record event", err)
		return
	}

	c.Users -= req.Quantity
	if c.Users < 0 {
		c.Users = 0
	}
	c.Comments = billing.AppendEventLog(c.Comments, event, c.Currency)
	if err := h.store.UpdateClient(ctx, c); err != nil {
		writeError(w, httpStatus(err), "Failed to update client", err)
		return
	}

	h.log.Info().
		Str("client_id", string(c.ID)).
		Int("quantity", req.Quantity).
		Str("credit", event.CreditAmount.String()).
		Msg("licenses decreased")
	writeJSON(w, http.StatusOK, DecreaseResultDTO{
		Event:     event,
		Credit:    event.CreditAmount,
		AppliedIn: event.ApplyAt.Key(),
		Users:     c.Users,
	})
}

// GetClientEvents returns the license-change history. Falls back to
// parsing the legacy comment log when no structured events exist yet.
func (h *Handler) GetClientEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := clientID(r)

	events, err := h.store.ListEvents(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	source := "ledger"
	if len(events) == 0 {
		c, err := h.store.GetClient(ctx, id)
		if err != nil {
			writeError(w, httpStatus(err), "Failed to get client", err)
			return
		}
		events = billing.ParseEventLog(id, c.Comments)
		source = "comments"
	}
	if events == nil {
		events = []billing.LicenseEvent{}
	}
	writeJSON(w, http.StatusOK, EventsDTO{Events: events, Source: source})
}

// =============================================================================
// INVOICE TRACKING HANDLERS
// =============================================================================

// GetInvoiced reports whether a billing month has been invoiced.
// GET /api/clients/{id}/invoiced?month=2025-06
func (h *Handler) GetInvoiced(w http.ResponseWriter, r *http.Request) {
	month, err := billing.ParseYearMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	invoiced, err := h.store.IsInvoiced(r.Context(), clientID(r), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get invoiced flag", err)
		return
	}
	writeJSON(w, http.StatusOK, InvoicedDTO{Month: month.Key(), Invoiced: invoiced})
}

// SetInvoiced sets or clears the invoiced flag for a billing month.
func (h *Handler) SetInvoiced(w http.ResponseWriter, r *http.Request) {
	var req SetInvoicedRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	month, _ := billing.ParseYearMonth(req.Month)
	when, _ := billing.ParseDate(req.InvoicedDate)

	if err := h.store.SetInvoiced(r.Context(), clientID(r), month, req.Invoiced, when); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set invoiced flag", err)
		return
	}
	writeJSON(w, http.StatusOK, InvoicedDTO{Month: month.Key(), Invoiced: req.Invoiced})
}

// =============================================================================
// INCREASE HANDLERS
// =============================================================================

// ListIncreases returns all annual increase entries.
func (h *Handler) ListIncreases(w http.ResponseWriter, r *http.Request) {
	increases, err := h.store.ListIncreases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list increases", err)
		return
	}
	if increases == nil {
		increases = []billing.AnnualIncrease{}
	}
	writeJSON(w, http.StatusOK, increases)
}

// SetIncrease writes the (year, client-or-global) percentage slot.
func (h *Handler) SetIncrease(w http.ResponseWriter, r *http.Request) {
	var req IncreaseRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inc := &billing.AnnualIncrease{
		Year:       req.Year,
		Percentage: req.Percentage,
		ClientID:   billing.ClientID(req.ClientID),
	}
	if err := h.store.AddIncrease(r.Context(), inc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set increase", err)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

// ResetIncreases clears every increase entry.
func (h *Handler) ResetIncreases(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetIncreases(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset increases", err)
		return
	}
	h.log.Info().Msg("annual increases reset")
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// =============================================================================
// VAR PARTNER HANDLERS
// =============================================================================

func (h *Handler) ListVarPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.store.ListVarPartners(r.Context(), boolQuery(r, "include_inactive"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list partners", err)
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

func (h *Handler) CreateVarPartner(w http.ResponseWriter, r *http.Request) {
	var req VarPartnerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := &billing.VarPartner{
		Name:           req.Name,
		Region:         req.Region,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
		IsActive:       true,
	}
	if err := h.store.CreateVarPartner(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create partner", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetVarPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetVarPartner(r.Context(), billing.PartnerID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get partner", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateVarPartner(w http.ResponseWriter, r *http.Request) {
	var req VarPartnerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := &billing.VarPartner{
		ID:             billing.PartnerID(chi.URLParam(r, "id")),
		Name:           req.Name,
		Region:         req.Region,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
		IsActive:       true,
	}
	if err := h.store.UpdateVarPartner(r.Context(), p); err != nil {
		writeError(w, httpStatus(err), "Failed to update partner", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeactivateVarPartner(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeactivateVarPartner(r.Context(), billing.PartnerID(chi.URLParam(r, "id"))); err != nil {
		writeError(w, httpStatus(err), "Failed to deactivate partner", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

// =============================================================================
// VAR CLIENT HANDLERS
// =============================================================================

func (h *Handler) ListVarClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListVarClients(r.Context(), boolQuery(r, "include_inactive"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list VAR clients", err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) CreateVarClient(w http.ResponseWriter, r *http.Request) {
	var req VarClientRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	vc := &billing.VarClient{
		Client:         *req.ToClient(),
		VarPartnerID:   billing.PartnerID(req.VarPartnerID),
		CommissionRate: req.CommissionRate,
	}
	if err := h.store.CreateVarClient(r.Context(), vc); err != nil {
		writeError(w, httpStatus(err), "Failed to create VAR client", err)
		return
	}
	writeJSON(w, http.StatusCreated, vc)
}

func (h *Handler) GetVarClient(w http.ResponseWriter, r *http.Request) {
	vc, err := h.store.GetVarClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get VAR client", err)
		return
	}
	writeJSON(w, http.StatusOK, vc)
}

func (h *Handler) UpdateVarClient(w http.ResponseWriter, r *http.Request) {
	var req VarClientRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.store.GetVarClient(r.Context(), clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get VAR client", err)
		return
	}

	vc := &billing.VarClient{
		Client:         *req.ToClient(),
		VarPartnerID:   billing.PartnerID(req.VarPartnerID),
		CommissionRate: req.CommissionRate,
	}
	vc.ID = existing.ID
	vc.CreatedAt = existing.CreatedAt
	if err := h.store.UpdateVarClient(r.Context(), vc); err != nil {
		writeError(w, httpStatus(err), "Failed to update VAR client", err)
		return
	}
	writeJSON(w, http.StatusOK, vc)
}

func (h *Handler) DeactivateVarClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeactivateVarClient(r.Context(), clientID(r)); err != nil {
		writeError(w, httpStatus(err), "Failed to deactivate VAR client", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

// GetVarClientTotal returns the VAR contract total: stored monthly values
// plus active additional licenses. The commission rate does not change it.
// GET /api/var/clients/{id}/total
func (h *Handler) GetVarClientTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vc, err := h.store.GetVarClient(ctx, clientID(r))
	if err != nil {
		writeError(w, httpStatus(err), "Failed to get VAR client", err)
		return
	}
	licenses, err := h.store.ListClientLicenses(ctx, vc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list licenses", err)
		return
	}

	total := billing.VarClientTotal(vc, licenses)
	writeJSON(w, http.StatusOK, amountDTO(total, 0, ""))
}

// =============================================================================
// HELPERS
// =============================================================================

func clientID(r *http.Request) billing.ClientID {
	return billing.ClientID(chi.URLParam(r, "id"))
}

func intQuery(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(name))
}

func boolQuery(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}

func amountDTO(a billing.Amount, year int, month string) AmountDTO {
	rounded := a.Round2()
	return AmountDTO{
		Year:      year,
		Month:     month,
		Amount:    rounded.Value,
		Currency:  rounded.Currency,
		Formatted: rounded.String(),
	}
}

// httpStatus maps engine and store errors onto status codes.
func httpStatus(err error) int {
	switch {
	case billing.IsNotFound(err):
		return http.StatusNotFound
	case billing.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
