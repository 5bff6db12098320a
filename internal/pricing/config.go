package pricing

import (
	"encoding/json"
	"sort"

	"github.com/Simplici0/windowcalc/internal/catalog"
)

// Configuration describes the window a customer is pricing. Width and height
// are in centimeters.
type Configuration struct {
	WindowType          catalog.WindowType `json:"windowType"`
	Width               float64            `json:"width"`
	Height              float64            `json:"height"`
	ProfileID           string             `json:"profileId"`
	GlazingID           string             `json:"glazingId"`
	HardwareID          string             `json:"hardwareId"`
	Extras              ExtraSet           `json:"extras"`
	IncludeInstallation bool               `json:"includeInstallation"`
}

// DefaultConfiguration is the configuration a new calculator starts from.
func DefaultConfiguration() Configuration {
	return Configuration{
		WindowType:          catalog.WindowDouble,
		Width:               150,
		Height:              150,
		ProfileID:           "standard",
		GlazingID:           "double",
		HardwareID:          "siegenia",
		IncludeInstallation: true,
	}
}

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	c.Extras = c.Extras.Clone()
	return c
}

// ExtraSet is a set of add-on option ids. The empty set is represented as nil
// and every mutating helper returns a fresh set, so a set shared between two
// configurations is never modified through either of them.
type ExtraSet map[string]struct{}

// NewExtraSet builds a set from ids, dropping duplicates.
func NewExtraSet(ids ...string) ExtraSet {
	if len(ids) == 0 {
		return nil
	}
	s := make(ExtraSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s ExtraSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s ExtraSet) Len() int {
	return len(s)
}

// IDs returns the ids in sorted order.
func (s ExtraSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of s.
func (s ExtraSet) Clone() ExtraSet {
	if len(s) == 0 {
		return nil
	}
	out := make(ExtraSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Toggle returns a copy of s with id added if it was absent or removed if it
// was present.
func (s ExtraSet) Toggle(id string) ExtraSet {
	out := s.Clone()
	if out.Has(id) {
		delete(out, id)
		if len(out) == 0 {
			return nil
		}
		return out
	}
	if out == nil {
		out = make(ExtraSet, 1)
	}
	out[id] = struct{}{}
	return out
}

// MarshalJSON encodes the set as a sorted array of ids.
func (s ExtraSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes an array of ids, dropping duplicates.
func (s *ExtraSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewExtraSet(ids...)
	return nil
}
