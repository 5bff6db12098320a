package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/windowcalc/internal/calculator"
	"github.com/Simplici0/windowcalc/internal/catalog"
	"github.com/Simplici0/windowcalc/internal/pricing"
)

type windowTypeView struct {
	ID          catalog.WindowType `json:"id"`
	Label       string             `json:"label"`
	SashCount   int                `json:"sashCount"`
	Coefficient float64            `json:"coefficient"`
}

type catalogView struct {
	WindowTypes []windowTypeView `json:"windowTypes"`
	catalog.Catalog
}

type calculatorView struct {
	calculator.Snapshot
	Unresolved []pricing.Miss `json:"unresolved"`
}

// Dimensions are bounded to ±1e6 so prices stay finite and encodable. Values
// inside the bound are priced even when they fail ValidateDimensions.
type priceRequest struct {
	WindowType          string   `json:"windowType" validate:"required"`
	Width               *float64 `json:"width" validate:"required,min=-1000000,max=1000000"`
	Height              *float64 `json:"height" validate:"required,min=-1000000,max=1000000"`
	ProfileID           string   `json:"profileId" validate:"max=64"`
	GlazingID           string   `json:"glazingId" validate:"max=64"`
	HardwareID          string   `json:"hardwareId" validate:"max=64"`
	Extras              []string `json:"extras" validate:"max=32,dive,max=64"`
	IncludeInstallation bool     `json:"includeInstallation"`
}

type priceResponse struct {
	Breakdown      pricing.Breakdown  `json:"breakdown"`
	Validation     pricing.Validation `json:"validation"`
	Unresolved     []pricing.Miss     `json:"unresolved"`
	TotalFormatted string             `json:"totalFormatted"`
}

type windowTypeRequest struct {
	WindowType string `json:"windowType" validate:"required"`
}

type dimensionsRequest struct {
	Width  *float64 `json:"width" validate:"required,min=-1000000,max=1000000"`
	Height *float64 `json:"height" validate:"required,min=-1000000,max=1000000"`
}

type optionRequest struct {
	ID string `json:"id" validate:"required,max=64"`
}

type installationRequest struct {
	Include *bool `json:"include" validate:"required"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	types := catalog.WindowTypes()
	view := catalogView{WindowTypes: make([]windowTypeView, 0, len(types)), Catalog: s.catalog}
	for _, t := range types {
		view.WindowTypes = append(view.WindowTypes, windowTypeView{
			ID:          t,
			Label:       t.Label(),
			SashCount:   t.SashCount(),
			Coefficient: t.Coefficient(),
		})
	}
	s.writeData(w, r, http.StatusOK, view)
}

// handlePrice prices a posted configuration without touching any session.
func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	windowType, err := parseWindowType(req.WindowType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg := pricing.Configuration{
		WindowType:          windowType,
		Width:               *req.Width,
		Height:              *req.Height,
		ProfileID:           req.ProfileID,
		GlazingID:           req.GlazingID,
		HardwareID:          req.HardwareID,
		Extras:              pricing.NewExtraSet(req.Extras...),
		IncludeInstallation: req.IncludeInstallation,
	}
	b := pricing.Calculate(cfg, s.catalog)
	s.metrics.ObserveCalculation(string(cfg.WindowType), b.TotalPrice)

	s.writeData(w, r, http.StatusOK, priceResponse{
		Breakdown:      b,
		Validation:     pricing.ValidateDimensions(cfg.Width, cfg.Height),
		Unresolved:     nonNilMisses(pricing.Unresolved(cfg, s.catalog)),
		TotalFormatted: pricing.FormatPrice(b.TotalPrice),
	})
}

func (s *server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	s.writeCalculator(w, r, store)
}

func (s *server) handleSetWindowType(w http.ResponseWriter, r *http.Request) {
	var req windowTypeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	windowType, err := parseWindowType(req.WindowType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	store.SetWindowType(r.Context(), windowType)
	s.writeCalculator(w, r, store)
}

func (s *server) handleSetDimensions(w http.ResponseWriter, r *http.Request) {
	var req dimensionsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	store.SetDimensions(r.Context(), *req.Width, *req.Height)
	s.writeCalculator(w, r, store)
}

// handleSetOption decodes {"id": ...} and applies it with set, one of the
// store's catalog selection setters.
func (s *server) handleSetOption(set func(*calculator.Store, context.Context, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req optionRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		store, ok := s.calculatorFor(w, r)
		if !ok {
			return
		}
		set(store, r.Context(), req.ID)
		s.writeCalculator(w, r, store)
	}
}

func (s *server) handleSetInstallation(w http.ResponseWriter, r *http.Request) {
	var req installationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	store.SetIncludeInstallation(r.Context(), *req.Include)
	s.writeCalculator(w, r, store)
}

func (s *server) handleToggleExtra(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 64 {
		s.writeError(w, r, newAPIError(http.StatusBadRequest, codeValidation, "invalid extra id"))
		return
	}
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	// Unknown ids can only be removed, e.g. after loading an entry saved
	// against an older catalog.
	if !s.catalog.Has(catalog.CategoryExtra, id) && !store.Config().Extras.Has(id) {
		e := newAPIError(http.StatusBadRequest, codeValidation, "validation failed")
		e.details = map[string]string{"id": fmt.Sprintf("unknown extra option %q", id)}
		s.writeError(w, r, e)
		return
	}
	store.ToggleExtra(r.Context(), id)
	s.writeCalculator(w, r, store)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	store.ResetConfig(r.Context())
	s.writeCalculator(w, r, store)
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	store.Calculate(r.Context())
	s.writeCalculator(w, r, store)
}

func (s *server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	s.writeData(w, r, http.StatusOK, store.History())
}

func (s *server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	entry, err := store.SaveCalculation(r.Context())
	if errors.Is(err, calculator.ErrNoBreakdown) {
		s.writeError(w, r, newAPIError(http.StatusConflict, codeConflict, "calculate a price before saving"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusCreated, entry)
}

func (s *server) handleHistoryLoad(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	if !store.LoadFromHistory(r.Context(), chi.URLParam(r, "id")) {
		s.writeError(w, r, newAPIError(http.StatusNotFound, codeNotFound, "history entry not found"))
		return
	}
	s.writeCalculator(w, r, store)
}

func (s *server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	if err := store.DeleteFromHistory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, store.History())
}

func (s *server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	if err := store.ClearAllHistory(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, store.History())
}

// handleSummary renders the current calculation as plain text. It prices the
// live configuration on the fly when nothing has been calculated yet.
func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	store, ok := s.calculatorFor(w, r)
	if !ok {
		return
	}
	cfg := store.Config()
	b, ok := store.Breakdown()
	if !ok {
		b = pricing.Calculate(cfg, s.catalog)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.summaryText(cfg, b)))
}

func (s *server) summaryText(cfg pricing.Configuration, b pricing.Breakdown) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Window: %s\n", cfg.WindowType.Label())
	fmt.Fprintf(&sb, "Size: %g x %g cm (%.2f m²)\n", cfg.Width, cfg.Height, b.Area)
	fmt.Fprintf(&sb, "Profile: %s\n", s.profileName(cfg.ProfileID))
	fmt.Fprintf(&sb, "Glazing: %s\n", s.glazingName(cfg.GlazingID))
	fmt.Fprintf(&sb, "Hardware: %s x%d\n", s.hardwareName(cfg.HardwareID), b.SashCount)

	extras := make([]string, 0, cfg.Extras.Len())
	for _, e := range s.catalog.Extras {
		if cfg.Extras.Has(e.ID) {
			extras = append(extras, e.Name)
		}
	}
	if len(extras) == 0 {
		sb.WriteString("Extras: none\n")
	} else {
		fmt.Fprintf(&sb, "Extras: %s\n", strings.Join(extras, ", "))
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Base price: %s\n", pricing.FormatPrice(b.BasePrice))
	fmt.Fprintf(&sb, "Hardware cost: %s\n", pricing.FormatPrice(b.HardwareCost))
	fmt.Fprintf(&sb, "Extras cost: %s\n", pricing.FormatPrice(b.ExtrasCost))
	if cfg.IncludeInstallation {
		fmt.Fprintf(&sb, "Installation: %s\n", pricing.FormatPrice(b.InstallationCost))
	} else {
		sb.WriteString("Installation: not included\n")
	}
	fmt.Fprintf(&sb, "Waste allowance: %s\n", pricing.FormatPrice(b.WasteFactor))
	fmt.Fprintf(&sb, "Total: %s\n", pricing.FormatPrice(b.TotalPrice))

	return sb.String()
}

func (s *server) profileName(id string) string {
	if p, ok := s.catalog.Profile(id); ok {
		return p.Name
	}
	return id
}

func (s *server) glazingName(id string) string {
	if g, ok := s.catalog.Glazing(id); ok {
		return g.Name
	}
	return id
}

func (s *server) hardwareName(id string) string {
	if h, ok := s.catalog.HardwareByID(id); ok {
		return h.Name
	}
	return id
}

func (s *server) calculatorFor(w http.ResponseWriter, r *http.Request) (*calculator.Store, bool) {
	store, err := s.sessions.get(r.Context(), sessionIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return store, true
}

func (s *server) writeCalculator(w http.ResponseWriter, r *http.Request, store *calculator.Store) {
	snap := store.Snapshot()
	s.writeData(w, r, http.StatusOK, calculatorView{
		Snapshot:   snap,
		Unresolved: nonNilMisses(pricing.Unresolved(snap.Config, s.catalog)),
	})
}

func parseWindowType(raw string) (catalog.WindowType, error) {
	t, err := catalog.ParseWindowType(raw)
	if err != nil {
		e := newAPIError(http.StatusBadRequest, codeValidation, "validation failed")
		e.details = map[string]string{"windowType": err.Error()}
		return "", e
	}
	return t, nil
}

func nonNilMisses(m []pricing.Miss) []pricing.Miss {
	if m == nil {
		return []pricing.Miss{}
	}
	return m
}
