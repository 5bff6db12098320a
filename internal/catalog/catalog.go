package catalog

// Category names one of the catalog tables.
type Category string

const (
	CategoryProfile  Category = "profile"
	CategoryGlazing  Category = "glazing"
	CategoryHardware Category = "hardware"
	CategoryExtra    Category = "extra"
)

// Profile is a structural-profile tier priced per square meter.
type Profile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Cameras     int     `json:"cameras"`
	WidthMM     int     `json:"widthMm"`
	PricePerSqm float64 `json:"pricePerSqm"`
	Description string  `json:"description"`
}

// Glazing is a glass-unit tier priced per square meter.
type Glazing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ThicknessMM int     `json:"thicknessMm"`
	PricePerSqm float64 `json:"pricePerSqm"`
	Description string  `json:"description"`
}

// Hardware is a fittings tier priced per sash.
type Hardware struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Class        string  `json:"class"`
	PricePerSash float64 `json:"pricePerSash"`
	Description  string  `json:"description"`
}

// ExtraOption is an add-on with a flat price.
type ExtraOption struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Catalog holds the reference tables used for pricing. A Catalog is built once
// at start-up and treated as read-only afterwards.
type Catalog struct {
	Profiles []Profile     `json:"profiles"`
	Glazings []Glazing     `json:"glazings"`
	Hardware []Hardware    `json:"hardware"`
	Extras   []ExtraOption `json:"extras"`
}

var defaultProfiles = []Profile{
	{ID: "economy", Name: "Economy", Cameras: 3, WidthMM: 60, PricePerSqm: 2800, Description: "Budget option"},
	{ID: "standard", Name: "Standard", Cameras: 5, WidthMM: 70, PricePerSqm: 3500, Description: "Best value"},
	{ID: "premium", Name: "Premium", Cameras: 6, WidthMM: 80, PricePerSqm: 4200, Description: "Premium quality"},
	{ID: "elite", Name: "Elite", Cameras: 7, WidthMM: 86, PricePerSqm: 5000, Description: "Top-tier profile"},
}

var defaultGlazings = []Glazing{
	{ID: "single", Name: "Single-chamber", ThicknessMM: 24, PricePerSqm: 1900, Description: "Basic option"},
	{ID: "double", Name: "Double-chamber", ThicknessMM: 32, PricePerSqm: 2400, Description: "Standard"},
	{ID: "energy", Name: "Energy-saving", ThicknessMM: 40, PricePerSqm: 3100, Description: "Maximum thermal insulation"},
}

var defaultHardware = []Hardware{
	{ID: "roto", Name: "Roto NT", Brand: "Roto", Class: "Premium", PricePerSash: 2800, Description: "German quality"},
	{ID: "maco", Name: "MACO", Brand: "MACO", Class: "Premium", PricePerSash: 2600, Description: "Austrian reliability"},
	{ID: "siegenia", Name: "Siegenia TITAN", Brand: "Siegenia", Class: "Standard", PricePerSash: 2000, Description: "German engineering"},
	{ID: "elementis", Name: "Elementis", Brand: "Elementis", Class: "Economy", PricePerSash: 1500, Description: "Affordable quality"},
}

var defaultExtras = []ExtraOption{
	{ID: "vent", Name: "Ventilation valve", Price: 1800, Description: "Supply valve for airing"},
	{ID: "child-lock", Name: "Child lock", Price: 850, Description: "Prevents opening by children"},
	{ID: "limit", Name: "Opening limiter", Price: 650, Description: "Fixes the opening angle"},
	{ID: "anti-burglary", Name: "Anti-burglary hardware", Price: 3500, Description: "Increased security"},
}

// Default returns a copy of the built-in catalog.
func Default() Catalog {
	return Catalog{
		Profiles: append([]Profile(nil), defaultProfiles...),
		Glazings: append([]Glazing(nil), defaultGlazings...),
		Hardware: append([]Hardware(nil), defaultHardware...),
		Extras:   append([]ExtraOption(nil), defaultExtras...),
	}
}

// Profile looks up a profile by id.
func (c Catalog) Profile(id string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Glazing looks up a glazing by id.
func (c Catalog) Glazing(id string) (Glazing, bool) {
	for _, g := range c.Glazings {
		if g.ID == id {
			return g, true
		}
	}
	return Glazing{}, false
}

// HardwareByID looks up a hardware tier by id.
func (c Catalog) HardwareByID(id string) (Hardware, bool) {
	for _, h := range c.Hardware {
		if h.ID == id {
			return h, true
		}
	}
	return Hardware{}, false
}

// Extra looks up an add-on option by id.
func (c Catalog) Extra(id string) (ExtraOption, bool) {
	for _, e := range c.Extras {
		if e.ID == id {
			return e, true
		}
	}
	return ExtraOption{}, false
}

// Has reports whether id exists in the given category.
func (c Catalog) Has(category Category, id string) bool {
	var ok bool
	switch category {
	case CategoryProfile:
		_, ok = c.Profile(id)
	case CategoryGlazing:
		_, ok = c.Glazing(id)
	case CategoryHardware:
		_, ok = c.HardwareByID(id)
	case CategoryExtra:
		_, ok = c.Extra(id)
	}
	return ok
}
