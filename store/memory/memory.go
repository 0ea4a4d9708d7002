// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Musecode-Studio/BuildSmart-Billing-Pro/billing"
)

// Store holds everything in maps behind a RWMutex. It mirrors the SQLite
// store's semantics: soft deletes, append-only license events, one effective
// increase per (year, client-or-global) slot.
type Store struct {
	mu         sync.RWMutex
	seq        int
	clients    map[billing.ClientID]billing.Client
	partners   map[billing.PartnerID]billing.VarPartner
	varClients map[billing.ClientID]billing.VarClient
	licenses   map[billing.LicenseID]billing.AdditionalLicense
	increases  map[increaseKey]billing.AnnualIncrease
	events     []billing.LicenseEvent
	invoiced   map[invoiceKey]invoiceFlag
}

type increaseKey struct {
	Year     int
	ClientID billing.ClientID
}

type invoiceKey struct {
	ClientID billing.ClientID
	Month    string
}

type invoiceFlag struct {
	Invoiced bool
	Date     billing.Date
}

func New() *Store {
	return &Store{
		clients:    make(map[billing.ClientID]billing.Client),
		partners:   make(map[billing.PartnerID]billing.VarPartner),
		varClients: make(map[billing.ClientID]billing.VarClient),
		licenses:   make(map[billing.LicenseID]billing.AdditionalLicense),
		increases:  make(map[increaseKey]billing.AnnualIncrease),
		invoiced:   make(map[invoiceKey]invoiceFlag),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) nextID() string {
	s.seq++
	return fmt.Sprintf("mem-%06d", s.seq)
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) CreateClient(_ context.Context, c *billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = billing.ClientID(s.nextID())
	}
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) UpdateClient(_ context.Context, c *billing.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return billing.ErrClientNotFound
	}
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) GetClient(_ context.Context, id billing.ClientID) (*billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, billing.ErrClientNotFound
	}
	return &c, nil
}

func (s *Store) ListClients(_ context.Context, includeInactive bool) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if c.IsActive || includeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientName < out[j].ClientName })
	return out, nil
}

func (s *Store) DeactivateClient(_ context.Context, id billing.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return billing.ErrClientNotFound
	}
	c.IsActive = false
	s.clients[id] = c
	return nil
}

// =============================================================================
// VAR PARTNERS
// =============================================================================

func (s *Store) CreateVarPartner(_ context.Context, p *billing.VarPartner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = billing.PartnerID(s.nextID())
	}
	s.partners[p.ID] = *p
	return nil
}

func (s *Store) UpdateVarPartner(_ context.Context, p *billing.VarPartner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[p.ID]; !ok {
		return billing.ErrPartnerNotFound
	}
	s.partners[p.ID] = *p
	return nil
}

func (s *Store) GetVarPartner(_ context.Context, id billing.PartnerID) (*billing.VarPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, billing.ErrPartnerNotFound
	}
	return &p, nil
}

func (s *Store) ListVarPartners(_ context.Context, includeInactive bool) ([]billing.VarPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.VarPartner, 0, len(s.partners))
	for _, p := range s.partners {
		if p.IsActive || includeInactive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeactivateVarPartner(_ context.Context, id billing.PartnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[id]
	if !ok {
		return billing.ErrPartnerNotFound
	}
	p.IsActive = false
	s.partners[id] = p
	return nil
}

// =============================================================================
// VAR CLIENTS
// =============================================================================

func (s *Store) CreateVarClient(_ context.Context, vc *billing.VarClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[vc.VarPartnerID]; !ok {
		return billing.ErrPartnerNotFound
	}
	if vc.ID == "" {
		vc.ID = billing.ClientID(s.nextID())
	}
	s.varClients[vc.ID] = *vc
	return nil
}

func (s *Store) UpdateVarClient(_ context.Context, vc *billing.VarClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.varClients[vc.ID]; !ok {
		return billing.ErrClientNotFound
	}
	s.varClients[vc.ID] = *vc
	return nil
}

func (s *Store) GetVarClient(_ context.Context, id billing.ClientID) (*billing.VarClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vc, ok := s.varClients[id]
	if !ok {
		return nil, billing.ErrClientNotFound
	}
	return &vc, nil
}

func (s *Store) ListVarClients(_ context.Context, includeInactive bool) ([]billing.VarClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.VarClient, 0, len(s.varClients))
	for _, vc := range s.varClients {
		if vc.IsActive || includeInactive {
			out = append(out, vc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientName < out[j].ClientName })
	return out, nil
}

func (s *Store) DeactivateVarClient(_ context.Context, id billing.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vc, ok := s.varClients[id]
	if !ok {
		return billing.ErrClientNotFound
	}
	vc.IsActive = false
	s.varClients[id] = vc
	return nil
}

// =============================================================================
// ADDITIONAL LICENSES
// =============================================================================

func (s *Store) AddLicense(_ context.Context, lic *billing.AdditionalLicense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lic.ID == "" {
		lic.ID = billing.LicenseID(s.nextID())
	}
	s.licenses[lic.ID] = *lic
	return nil
}

func (s *Store) ListLicenses(_ context.Context) ([]billing.AdditionalLicense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.AdditionalLicense, 0, len(s.licenses))
	for _, lic := range s.licenses {
		out = append(out, lic)
	}
	sortLicenses(out)
	return out, nil
}

func (s *Store) ListClientLicenses(_ context.Context, clientID billing.ClientID) ([]billing.AdditionalLicense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.AdditionalLicense
	for _, lic := range s.licenses {
		if lic.ClientID == clientID {
			out = append(out, lic)
		}
	}
	sortLicenses(out)
	return out, nil
}

func (s *Store) DeactivateLicense(_ context.Context, id billing.LicenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lic, ok := s.licenses[id]
	if !ok {
		return fmt.Errorf("license %s not found", id)
	}
	lic.IsActive = false
	s.licenses[id] = lic
	return nil
}

func sortLicenses(out []billing.AdditionalLicense) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Time.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.Time.Before(out[j].StartDate.Time)
		}
		return out[i].ID < out[j].ID
	})
}

// =============================================================================
// ANNUAL INCREASES
// =============================================================================

func (s *Store) AddIncrease(_ context.Context, inc *billing.AnnualIncrease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inc.ID == "" {
		inc.ID = s.nextID()
	}
	s.increases[increaseKey{Year: inc.Year, ClientID: inc.ClientID}] = *inc
	return nil
}

func (s *Store) ListIncreases(_ context.Context) ([]billing.AnnualIncrease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]billing.AnnualIncrease, 0, len(s.increases))
	for _, inc := range s.increases {
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}

func (s *Store) ResetIncreases(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increases = make(map[increaseKey]billing.AnnualIncrease)
	return nil
}

// =============================================================================
// LICENSE EVENT LEDGER - append-only
// =============================================================================

func (s *Store) AppendEvent(_ context.Context, e *billing.LicenseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID()
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *Store) ListEvents(_ context.Context, clientID billing.ClientID) ([]billing.LicenseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []billing.LicenseEvent
	for _, e := range s.events {
		if clientID == "" || e.ClientID == clientID {
			out = append(out, e)
		}
	}
	billing.SortEvents(out)
	return out, nil
}

// =============================================================================
// INVOICE TRACKING
// =============================================================================

func (s *Store) SetInvoiced(_ context.Context, clientID billing.ClientID, month billing.YearMonth, invoiced bool, invoicedDate billing.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoiced[invoiceKey{ClientID: clientID, Month: month.Key()}] = invoiceFlag{Invoiced: invoiced, Date: invoicedDate}
	return nil
}

func (s *Store) IsInvoiced(_ context.Context, clientID billing.ClientID, month billing.YearMonth) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invoiced[invoiceKey{ClientID: clientID, Month: month.Key()}].Invoiced, nil
}
