package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/windowcalc/internal/catalog"
	"github.com/Simplici0/windowcalc/internal/history"
	"github.com/Simplici0/windowcalc/internal/kv"
	"github.com/Simplici0/windowcalc/internal/logger"
	"github.com/Simplici0/windowcalc/internal/metrics"
	"github.com/Simplici0/windowcalc/internal/pricing"
)

// DefaultConfigKey is the storage record holding the live configuration.
const DefaultConfigKey = "uws-calculator"

// ErrNoBreakdown is returned when saving before any price has been computed.
var ErrNoBreakdown = errors.New("no calculation to save")

// Options wires a Store to its collaborators. Only Catalog and History are
// required; ConfigStore may be nil to skip live-configuration persistence.
type Options struct {
	Catalog     catalog.Catalog
	History     *history.Persistence
	ConfigStore kv.Store
	ConfigKey   string
	Logger      *logger.Logger
	Metrics     *metrics.Calculator
}

// Snapshot is an isolated copy of a Store's state.
type Snapshot struct {
	Config     pricing.Configuration `json:"config"`
	Breakdown  *pricing.Breakdown    `json:"breakdown"`
	Validation pricing.Validation    `json:"validation"`
	History    []history.Entry       `json:"history"`
}

// Store holds one visitor's calculator: the live configuration, its most
// recent breakdown and a cached copy of the saved history. Every setter
// recomputes the breakdown before returning. Methods are safe for concurrent
// use; callers racing on the same store resolve last-write-wins.
type Store struct {
	mu sync.Mutex

	catalog     catalog.Catalog
	history     *history.Persistence
	configStore kv.Store
	configKey   string
	log         *logger.Logger
	metrics     *metrics.Calculator

	now   func() time.Time
	newID func() string

	config    pricing.Configuration
	breakdown *pricing.Breakdown
	entries   []history.Entry
}

// NewStore builds a Store, loading saved history and restoring the last live
// configuration. Unreadable records fall back to empty history and the
// default configuration.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.History == nil {
		return nil, errors.New("history persistence is required")
	}
	key := opts.ConfigKey
	if key == "" {
		key = DefaultConfigKey
	}
	s := &Store{
		catalog:     opts.Catalog,
		history:     opts.History,
		configStore: opts.ConfigStore,
		configKey:   key,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		now:         time.Now,
		newID:       uuid.NewString,
		config:      pricing.DefaultConfiguration(),
	}
	s.entries = s.history.Load(ctx)
	s.restoreConfig(ctx)
	return s, nil
}

// SetWindowType replaces the window type.
func (s *Store) SetWindowType(ctx context.Context, t catalog.WindowType) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.WindowType = t })
}

// SetDimensions replaces width and height, in centimeters. Out-of-range
// values are accepted and priced; see Validation.
func (s *Store) SetDimensions(ctx context.Context, width, height float64) {
	s.mutate(ctx, func(c *pricing.Configuration) {
		c.Width = width
		c.Height = height
	})
}

// SetProfile selects a profile tier by catalog id.
func (s *Store) SetProfile(ctx context.Context, id string) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.ProfileID = id })
}

// SetGlazing selects a glazing tier by catalog id.
func (s *Store) SetGlazing(ctx context.Context, id string) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.GlazingID = id })
}

// SetHardware selects a hardware tier by catalog id.
func (s *Store) SetHardware(ctx context.Context, id string) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.HardwareID = id })
}

// SetIncludeInstallation switches the installation surcharge on or off.
func (s *Store) SetIncludeInstallation(ctx context.Context, include bool) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.IncludeInstallation = include })
}

// ToggleExtra adds id to the selected extras, or removes it if present.
func (s *Store) ToggleExtra(ctx context.Context, id string) {
	s.mutate(ctx, func(c *pricing.Configuration) { c.Extras = c.Extras.Toggle(id) })
}

// ResetConfig restores the default configuration.
func (s *Store) ResetConfig(ctx context.Context) {
	s.mutate(ctx, func(c *pricing.Configuration) { *c = pricing.DefaultConfiguration() })
}

// Calculate recomputes the breakdown for the current configuration.
func (s *Store) Calculate(ctx context.Context) pricing.Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute(ctx)
}

// SaveCalculation records the current configuration and breakdown as the
// newest history entry. The cached history changes only after the durable
// write succeeds.
func (s *Store) SaveCalculation(ctx context.Context) (history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.breakdown == nil {
		return history.Entry{}, ErrNoBreakdown
	}
	entry := history.NewEntry(s.newID(), s.now(), s.config, *s.breakdown)
	next := history.Prepend(s.entries, entry)
	if err := s.history.Save(ctx, next); err != nil {
		return history.Entry{}, fmt.Errorf("save calculation: %w", err)
	}
	s.entries = next
	s.metrics.IncHistory("save")
	return entry.Clone(), nil
}

// LoadFromHistory replaces the live configuration and breakdown with copies
// of the saved entry. It reports whether the entry exists.
func (s *Store) LoadFromHistory(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := history.Find(s.entries, id)
	if !ok {
		return false
	}
	s.config = entry.Config
	b := entry.Breakdown
	s.breakdown = &b
	s.persistConfig(ctx)
	s.metrics.IncHistory("load")
	return true
}

// DeleteFromHistory removes an entry from cached and durable history. An
// unknown id is a no-op.
func (s *Store) DeleteFromHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := history.Remove(s.entries, id)
	if !removed {
		return nil
	}
	if err := s.history.Save(ctx, next); err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	s.entries = next
	s.metrics.IncHistory("delete")
	return nil
}

// ClearAllHistory empties cached and durable history.
func (s *Store) ClearAllHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.history.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.entries = []history.Entry{}
	s.metrics.IncHistory("clear")
	return nil
}

// Config returns a copy of the live configuration.
func (s *Store) Config() pricing.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Breakdown returns the current breakdown, or false before the first
// calculation.
func (s *Store) Breakdown() (pricing.Breakdown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.breakdown == nil {
		return pricing.Breakdown{}, false
	}
	return *s.breakdown, true
}

// History returns a copy of the saved entries, newest first.
func (s *Store) History() []history.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return history.CloneAll(s.entries)
}

// Validation checks the live dimensions. It never blocks pricing.
func (s *Store) Validation() pricing.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ValidateDimensions(s.config.Width, s.config.Height)
}

// Snapshot returns a copy of the whole state, safe to modify or encode.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Config:     s.config.Clone(),
		Validation: pricing.ValidateDimensions(s.config.Width, s.config.Height),
		History:    history.CloneAll(s.entries),
	}
	if s.breakdown != nil {
		b := *s.breakdown
		snap.Breakdown = &b
	}
	return snap
}

func (s *Store) mutate(ctx context.Context, apply func(*pricing.Configuration)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	apply(&next)
	s.config = next
	s.recompute(ctx)
	s.persistConfig(ctx)
}

// recompute must be called with mu held.
func (s *Store) recompute(ctx context.Context) pricing.Breakdown {
	b := pricing.Calculate(s.config, s.catalog)
	s.breakdown = &b
	s.metrics.ObserveCalculation(string(s.config.WindowType), b.TotalPrice)
	if misses := pricing.Unresolved(s.config, s.catalog); len(misses) > 0 {
		s.log.Debug(s.log.WithField(ctx, "unresolved", misses), "configuration references unknown catalog ids")
	}
	return b
}

// persistConfig is best effort; failures are logged and counted.
func (s *Store) persistConfig(ctx context.Context) {
	if s.configStore == nil {
		return
	}
	payload, err := json.Marshal(s.config)
	if err != nil {
		s.metrics.IncStorageError("config_save")
		s.log.Warn(ctx, "encode configuration", err)
		return
	}
	if err := s.configStore.Put(ctx, s.configKey, payload); err != nil {
		s.metrics.IncStorageError("config_save")
		s.log.Warn(ctx, "persist configuration", err)
	}
}

func (s *Store) restoreConfig(ctx context.Context) {
	if s.configStore == nil {
		return
	}
	payload, found, err := s.configStore.Get(ctx, s.configKey)
	if err != nil {
		s.metrics.IncStorageError("config_load")
		s.log.Warn(ctx, "configuration read failed, using defaults", err)
		return
	}
	if !found || len(payload) == 0 {
		return
	}
	cfg := pricing.DefaultConfiguration()
	if err := json.Unmarshal(payload, &cfg); err != nil {
		s.metrics.IncStorageError("config_decode")
		s.log.Warn(ctx, "configuration record is corrupt, using defaults", err)
		return
	}
	s.config = cfg
}
