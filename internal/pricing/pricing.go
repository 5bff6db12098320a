package pricing

import (
	"math"

	"github.com/Simplici0/windowcalc/internal/catalog"
)

const (
	// glazingReferenceRate normalizes the glazing rate into a multiplier on
	// the profile cost.
	glazingReferenceRate = 2000.0
	installationRate     = 0.15
	wasteRate            = 0.10
	sqcmPerSqm           = 10000.0
)

// Breakdown contains every line of a price calculation. It is built fresh by
// Calculate and never patched afterwards.
type Breakdown struct {
	Area             float64 `json:"area"`
	BasePrice        float64 `json:"basePrice"`
	ProfilePrice     float64 `json:"profilePrice"`
	GlazingPrice     float64 `json:"glazingPrice"`
	HardwareCost     float64 `json:"hardwareCost"`
	SashCount        int     `json:"sashCount"`
	ExtrasCost       float64 `json:"extrasCost"`
	InstallationCost float64 `json:"installationCost"`
	WasteFactor      float64 `json:"wasteFactor"`
	TotalPrice       float64 `json:"totalPrice"`
}

// Subtotal is the cost before installation and waste surcharges.
func (b Breakdown) Subtotal() float64 {
	return b.BasePrice + b.HardwareCost + b.ExtrasCost
}

// Calculate prices cfg against cat. It never fails: ids missing from the
// catalog contribute nothing and out-of-range dimensions are priced as given.
// Use ValidateDimensions to reject bad input before showing a price.
func Calculate(cfg Configuration, cat catalog.Catalog) Breakdown {
	r := resolve(cfg, cat)

	area := (cfg.Width * cfg.Height) / sqcmPerSqm
	basePrice := area * r.profile * (r.glazing / glazingReferenceRate) * cfg.WindowType.Coefficient()

	sashCount := cfg.WindowType.SashCount()
	hardwareCost := float64(sashCount) * r.hardware
	extrasCost := r.extras

	subtotal := basePrice + hardwareCost + extrasCost

	installationCost := 0.0
	if cfg.IncludeInstallation {
		installationCost = subtotal * installationRate
	}
	wasteFactor := subtotal * wasteRate

	// Lines are rounded independently of the total, so the displayed lines
	// may sum to within a cent of TotalPrice rather than exactly to it.
	return Breakdown{
		Area:             roundCents(area),
		BasePrice:        roundCents(basePrice),
		ProfilePrice:     r.profile,
		GlazingPrice:     r.glazing,
		HardwareCost:     roundCents(hardwareCost),
		SashCount:        sashCount,
		ExtrasCost:       extrasCost,
		InstallationCost: roundCents(installationCost),
		WasteFactor:      roundCents(wasteFactor),
		TotalPrice:       roundCents(subtotal + installationCost + wasteFactor),
	}
}

// roundCents rounds half up to two decimals.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Miss names a configuration id that has no catalog entry.
type Miss struct {
	Category catalog.Category `json:"category"`
	ID       string           `json:"id"`
}

// Unresolved lists the ids of cfg that Calculate priced as zero because the
// catalog does not know them.
func Unresolved(cfg Configuration, cat catalog.Catalog) []Miss {
	return resolve(cfg, cat).misses
}

type rates struct {
	profile  float64
	glazing  float64
	hardware float64
	extras   float64
	misses   []Miss
}

// resolve is the only place where catalog misses are turned into zero rates.
func resolve(cfg Configuration, cat catalog.Catalog) rates {
	var r rates

	if p, ok := cat.Profile(cfg.ProfileID); ok {
		r.profile = p.PricePerSqm
	} else {
		r.misses = append(r.misses, Miss{Category: catalog.CategoryProfile, ID: cfg.ProfileID})
	}
	if g, ok := cat.Glazing(cfg.GlazingID); ok {
		r.glazing = g.PricePerSqm
	} else {
		r.misses = append(r.misses, Miss{Category: catalog.CategoryGlazing, ID: cfg.GlazingID})
	}
	if h, ok := cat.HardwareByID(cfg.HardwareID); ok {
		r.hardware = h.PricePerSash
	} else {
		r.misses = append(r.misses, Miss{Category: catalog.CategoryHardware, ID: cfg.HardwareID})
	}

	// Summed in catalog order so the result does not depend on map iteration.
	for _, e := range cat.Extras {
		if cfg.Extras.Has(e.ID) {
			r.extras += e.Price
		}
	}
	for _, id := range cfg.Extras.IDs() {
		if !cat.Has(catalog.CategoryExtra, id) {
			r.misses = append(r.misses, Miss{Category: catalog.CategoryExtra, ID: id})
		}
	}

	return r
}
