package pricing

import (
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Simplici0/windowcalc/internal/catalog"
)

func buildConfig(windowType string, width, height float64, profile, glazing, hardware string, extras []string, install bool) Configuration {
	return Configuration{
		WindowType:          catalog.WindowType(windowType),
		Width:               width,
		Height:              height,
		ProfileID:           profile,
		GlazingID:           glazing,
		HardwareID:          hardware,
		Extras:              NewExtraSet(extras...),
		IncludeInstallation: install,
	}
}

// configGens returns generators matching buildConfig's parameters. Unknown ids
// are mixed in so lookup misses are covered too.
func configGens() []gopter.Gen {
	return []gopter.Gen{
		gen.OneConstOf("single", "double", "triple", "balcony", "door"),
		gen.Float64Range(MinDimension, MaxDimension),
		gen.Float64Range(MinDimension, MaxDimension),
		gen.OneConstOf("economy", "standard", "premium", "elite", "retired"),
		gen.OneConstOf("single", "double", "energy", "retired"),
		gen.OneConstOf("roto", "maco", "siegenia", "elementis", "retired"),
		gen.SliceOf(gen.OneConstOf("vent", "child-lock", "limit", "anti-burglary", "retired")),
		gen.Bool(),
	}
}

func TestCalculateProperties(t *testing.T) {
	cat := catalog.Default()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("Calculate is deterministic", prop.ForAll(
		func(wt string, w, h float64, p, g, hw string, extras []string, install bool) bool {
			cfg := buildConfig(wt, w, h, p, g, hw, extras, install)
			return reflect.DeepEqual(Calculate(cfg, cat), Calculate(cfg, cat))
		},
		configGens()...,
	))

	properties.Property("total equals the sum of its lines", prop.ForAll(
		func(wt string, w, h float64, p, g, hw string, extras []string, install bool) bool {
			b := Calculate(buildConfig(wt, w, h, p, g, hw, extras, install), cat)
			sum := b.BasePrice + b.HardwareCost + b.ExtrasCost + b.InstallationCost + b.WasteFactor
			return math.Abs(b.TotalPrice-sum) <= 0.01+1e-6
		},
		configGens()...,
	))

	properties.Property("total is the unrounded sum rounded to cents", prop.ForAll(
		func(wt string, w, h float64, p, g, hw string, extras []string, install bool) bool {
			cfg := buildConfig(wt, w, h, p, g, hw, extras, install)
			b := Calculate(cfg, cat)
			return b.TotalPrice == roundCents(unroundedTotal(cfg, cat))
		},
		configGens()...,
	))

	properties.Property("installation strictly raises a positive subtotal", prop.ForAll(
		func(wt string, w, h float64, p, g, hw string, extras []string, _ bool) bool {
			without := Calculate(buildConfig(wt, w, h, p, g, hw, extras, false), cat)
			with := Calculate(buildConfig(wt, w, h, p, g, hw, extras, true), cat)
			if without.Subtotal() <= 0 {
				return true
			}
			return with.TotalPrice > without.TotalPrice
		},
		configGens()...,
	))

	properties.Property("waste is ten percent of the subtotal", prop.ForAll(
		func(wt string, w, h float64, p, g, hw string, extras []string, install bool) bool {
			b := Calculate(buildConfig(wt, w, h, p, g, hw, extras, install), cat)
			return math.Abs(b.WasteFactor-b.Subtotal()*wasteRate) <= 0.01
		},
		configGens()...,
	))

	properties.TestingRun(t)
}

func TestExtraSetToggleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("double toggle leaves the set unchanged", prop.ForAll(
		func(ids []string, id string) bool {
			before := NewExtraSet(ids...)
			after := before.Toggle(id).Toggle(id)
			return reflect.DeepEqual(before.IDs(), after.IDs())
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.Property("toggle never mutates its receiver", prop.ForAll(
		func(ids []string, id string) bool {
			before := NewExtraSet(ids...)
			snapshot := before.IDs()
			_ = before.Toggle(id)
			return reflect.DeepEqual(snapshot, before.IDs())
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// unroundedTotal prices cfg step by step without rounding any line.
func unroundedTotal(cfg Configuration, cat catalog.Catalog) float64 {
	var profile, glazing, hardware, extras float64
	if p, ok := cat.Profile(cfg.ProfileID); ok {
		profile = p.PricePerSqm
	}
	if g, ok := cat.Glazing(cfg.GlazingID); ok {
		glazing = g.PricePerSqm
	}
	if h, ok := cat.HardwareByID(cfg.HardwareID); ok {
		hardware = h.PricePerSash
	}
	for _, e := range cat.Extras {
		if cfg.Extras.Has(e.ID) {
			extras += e.Price
		}
	}

	area := (cfg.Width * cfg.Height) / 10000
	base := area * profile * (glazing / 2000) * cfg.WindowType.Coefficient()
	subtotal := base + float64(cfg.WindowType.SashCount())*hardware + extras
	installation := 0.0
	if cfg.IncludeInstallation {
		installation = subtotal * 0.15
	}
	return subtotal + installation + subtotal*0.10
}
