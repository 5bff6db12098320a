package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Simplici0/windowcalc/internal/kv"
	"github.com/Simplici0/windowcalc/internal/logger"
	"github.com/Simplici0/windowcalc/internal/metrics"
	"github.com/Simplici0/windowcalc/internal/pricing"
)

const (
	// MaxEntries is how many saved calculations are retained, newest first.
	MaxEntries = 20
	// DefaultKey is the storage record holding the history list.
	DefaultKey = "uws-calculator-history"
)

// Entry is a saved calculation. Its configuration is a private copy, so later
// changes to the live configuration never reach it.
type Entry struct {
	ID         string                `json:"id"`
	Timestamp  time.Time             `json:"timestamp"`
	Config     pricing.Configuration `json:"config"`
	TotalPrice float64               `json:"totalPrice"`
	Breakdown  pricing.Breakdown     `json:"breakdown"`
}

// NewEntry snapshots cfg and b under the given id and time.
func NewEntry(id string, at time.Time, cfg pricing.Configuration, b pricing.Breakdown) Entry {
	return Entry{
		ID:         id,
		Timestamp:  at.UTC(),
		Config:     cfg.Clone(),
		TotalPrice: b.TotalPrice,
		Breakdown:  b,
	}
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	e.Config = e.Config.Clone()
	return e
}

// Prepend returns a new list with e first, trimmed to MaxEntries by dropping
// the oldest entries.
func Prepend(entries []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, e)
	out = append(out, entries...)
	return trim(out)
}

// Remove returns a new list without the entry id, and whether it was present.
func Remove(entries []Entry, id string) ([]Entry, bool) {
	out := make([]Entry, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e.ID == id {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

// Find returns a copy of the entry with the given id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// CloneAll deep-copies a list.
func CloneAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func trim(entries []Entry) []Entry {
	if len(entries) > MaxEntries {
		return entries[:MaxEntries]
	}
	return entries
}

// Persistence reads and writes the whole history list as a single record.
type Persistence struct {
	store   kv.Store
	key     string
	log     *logger.Logger
	metrics *metrics.Calculator
}

// New builds a Persistence over store using the record key. An empty key uses
// DefaultKey. log and m may be nil.
func New(store kv.Store, key string, log *logger.Logger, m *metrics.Calculator) *Persistence {
	if key == "" {
		key = DefaultKey
	}
	return &Persistence{store: store, key: key, log: log, metrics: m}
}

// Key is the storage record this Persistence owns.
func (p *Persistence) Key() string {
	return p.key
}

// Save replaces the stored list with entries, keeping at most MaxEntries.
func (p *Persistence) Save(ctx context.Context, entries []Entry) error {
	entries = trim(entries)
	if entries == nil {
		entries = []Entry{}
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		p.metrics.IncStorageError("save")
		return fmt.Errorf("encode history: %w", err)
	}
	if err := p.store.Put(ctx, p.key, payload); err != nil {
		p.metrics.IncStorageError("save")
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load returns the stored list, newest first. An absent, unreadable or
// malformed record yields an empty list.
func (p *Persistence) Load(ctx context.Context) []Entry {
	payload, found, err := p.store.Get(ctx, p.key)
	if err != nil {
		p.metrics.IncStorageError("load")
		p.log.Warn(ctx, "history read failed, starting empty", err)
		return []Entry{}
	}
	if !found || len(payload) == 0 {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		p.metrics.IncStorageError("decode")
		p.log.Warn(ctx, "history record is corrupt, starting empty", err)
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return trim(entries)
}

// Clear deletes the stored list.
func (p *Persistence) Clear(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.key); err != nil {
		p.metrics.IncStorageError("clear")
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
