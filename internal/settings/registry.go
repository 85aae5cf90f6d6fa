// Package settings holds the per-column transform configuration and its
// registry. Settings are keyed by column name and live independently of
// any single unified table: loading new data re-associates existing
// entries by name match and creates defaults for unseen names.
package settings

import (
	"errors"
	"sync"

	apperrors "github.com/mizzou-racing/monolith/internal/errors"
)

const (
	// Ceiling is the absolute bound for user-supplied settings values.
	// Fields set beyond it silently revert to the prior stored value.
	Ceiling = 17e18

	// Unbounded encodes an unset range bound or max step. It is the
	// float64 rounding of 2^64-1, deliberately above Ceiling so that
	// defaults read as "no-op" everywhere the ceiling is checked.
	Unbounded = 18446744073709551615
)

// Settings is the transform configuration for one column.
type Settings struct {
	// ConversionRate is multiplied into every raw value (unit change).
	ConversionRate float64

	// Unit is the display unit label. "unknown" suppresses the label.
	Unit string

	// Precision divides every raw value, for integer streams transmitted
	// at 10x or 100x scale.
	Precision float64

	// RangeMin and RangeMax bound the converted value. Defaults are
	// ±Unbounded, meaning no clamping.
	RangeMin float64
	RangeMax float64

	// MaxStep is the largest allowed per-sample delta, a crude low-pass.
	// Unbounded means disabled.
	MaxStep float64

	// StartPos shifts the series so its first sample equals this value.
	// Zero means disabled.
	StartPos float64
}

// Default returns the factory settings for an unseen column.
func Default() Settings {
	return Settings{
		ConversionRate: 1,
		Unit:           "unknown",
		Precision:      1,
		RangeMin:       -Unbounded,
		RangeMax:       Unbounded,
		MaxStep:        Unbounded,
		StartPos:       0,
	}
}

// IsDefault reports whether s is exactly the factory settings. Shipped
// CONFIG.CSV defaults only apply to columns the user never touched.
func (s Settings) IsDefault() bool { return s == Default() }

// HasRange reports whether either bound is active.
func (s Settings) HasRange() bool {
	return s.RangeMin > -Ceiling || s.RangeMax < Ceiling
}

// HasMaxStep reports whether step limiting is active.
func (s Settings) HasMaxStep() bool { return s.MaxStep < Ceiling }

// HasStartPos reports whether the start offset is active.
func (s Settings) HasStartPos() bool { return s.StartPos != 0 }

// Scale returns the combined multiplier applied to raw values.
func (s Settings) Scale() float64 {
	if s.Precision == 0 {
		return s.ConversionRate
	}
	return s.ConversionRate / s.Precision
}

// DirtyState records which halves of the session state have unsaved
// changes. Every mutating operation returns the resulting state so
// callers can assert exact transitions.
type DirtyState struct {
	Data     bool
	Settings bool
}

// Registry maps column names to their settings.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Settings
	dirty   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Settings)}
}

// Get returns the settings for name, registering and returning defaults
// if the column was never seen.
func (r *Registry) Get(name string) Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.entries[name]
	if !ok {
		s = Default()
		r.entries[name] = s
	}
	return s
}

// Set validates and stores settings for name, marking the registry
// dirty. Fields beyond the absolute ceiling are not stored: the prior
// value is retained for that field and a range-rejected warning is
// returned. The warning is informational; the remaining fields are
// still applied.
func (r *Registry) Set(name string, s Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, ok := r.entries[name]
	if !ok {
		prior = Default()
	}

	var warnings []error
	if s.RangeMin != -Unbounded && (s.RangeMin < -Ceiling || s.RangeMin > Ceiling) {
		warnings = append(warnings, apperrors.NewRangeRejected(name, "range_min", s.RangeMin))
		s.RangeMin = prior.RangeMin
	}
	if s.RangeMax != Unbounded && (s.RangeMax < -Ceiling || s.RangeMax > Ceiling) {
		warnings = append(warnings, apperrors.NewRangeRejected(name, "range_max", s.RangeMax))
		s.RangeMax = prior.RangeMax
	}
	if s.MaxStep != Unbounded && (s.MaxStep < -Ceiling || s.MaxStep > Ceiling) {
		warnings = append(warnings, apperrors.NewRangeRejected(name, "max_step", s.MaxStep))
		s.MaxStep = prior.MaxStep
	}
	if s.StartPos < -Ceiling || s.StartPos > Ceiling {
		warnings = append(warnings, apperrors.NewRangeRejected(name, "start_pos", s.StartPos))
		s.StartPos = prior.StartPos
	}

	if s != prior {
		r.entries[name] = s
		r.dirty = true
	}
	return s, errors.Join(warnings...)
}

// Swap exchanges the settings stored under two column labels for the
// remainder of the session. It is explicitly non-persistent and does
// not mark the registry dirty.
func (r *Registry) Swap(a, b string) error {
	if a == b {
		return apperrors.Wrap(apperrors.ErrNotFound, "cannot swap a label with itself")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sa, ok := r.entries[a]
	if !ok {
		sa = Default()
	}
	sb, ok := r.entries[b]
	if !ok {
		sb = Default()
	}
	r.entries[a] = sb
	r.entries[b] = sa
	return nil
}

// ApplyDefaults merges shipped defaults into columns that are both known
// and still at factory settings. User-modified entries are never
// overwritten. Does not mark the registry dirty.
func (r *Registry) ApplyDefaults(defaults map[string]Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, d := range defaults {
		current, ok := r.entries[name]
		if ok && current.IsDefault() {
			r.entries[name] = d
		}
	}
}

// Has reports whether an entry exists for name without registering one.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	return ok
}

// Register ensures an entry exists for every given column name.
func (r *Registry) Register(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if _, ok := r.entries[name]; !ok {
			r.entries[name] = Default()
		}
	}
}

// All returns a copy of every entry, for persistence.
func (r *Registry) All() map[string]Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Settings, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Replace swaps in a loaded entry set and clears the dirty flag.
func (r *Registry) Replace(entries map[string]Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]Settings, len(entries))
	for k, v := range entries {
		r.entries[k] = v
	}
	r.dirty = false
}

// Dirty reports whether the registry changed since the last persist.
func (r *Registry) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// ClearDirty marks the registry as persisted.
func (r *Registry) ClearDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}
