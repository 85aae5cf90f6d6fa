// Package transform turns raw stored samples into display-ready series.
//
// The pipeline is a pure function of (samples, settings, policy): it
// never mutates the column store, and applying it twice with identical
// inputs yields identical output. Steps, in order:
//
//  1. scale: value * conversion_rate / precision
//  2. range policy: drop leading out-of-range samples or clamp them
//  3. max-step: cumulative delta clipping against the smoothed predecessor
//  4. start position: shift the series so its first sample matches
package transform

import (
	"math"

	"github.com/mizzou-racing/monolith/internal/settings"
)

// RangePolicy selects how out-of-range values are handled.
type RangePolicy int

const (
	// RangeClamp clamps every out-of-range value to the nearest bound.
	RangeClamp RangePolicy = iota

	// RangeDropLeading drops leading out-of-range samples entirely until
	// the first in-range sample, then clamps any later excursions.
	RangeDropLeading
)

// String returns the policy name used in preset and CLI surfaces.
func (p RangePolicy) String() string {
	switch p {
	case RangeDropLeading:
		return "drop-leading"
	default:
		return "clamp"
	}
}

// ResolvedSeries is a display-only series derived from one column. It is
// re-derivable from its unified table at any time, unlike a frozen
// snapshot.
type ResolvedSeries struct {
	Name   string
	Unit   string
	Time   []float64
	Values []float64
}

// Label returns the axis label, appending the unit unless it is the
// "unknown" placeholder.
func (r ResolvedSeries) Label() string {
	if r.Unit == "" || r.Unit == "unknown" {
		return r.Name
	}
	return r.Name + " (" + r.Unit + ")"
}

// Len returns the number of resolved points.
func (r ResolvedSeries) Len() int { return len(r.Values) }

// LeadingOutOfRange counts how many leading samples of raw fall outside
// the settings range after scaling. Zero when no range is active. The
// caller uses the maximum across all plotted columns so that dropped
// rows stay aligned between the axes.
func LeadingOutOfRange(raw []float64, s settings.Settings) int {
	if !s.HasRange() {
		return 0
	}
	scale := s.Scale()
	for i, v := range raw {
		sv := v * scale
		if sv >= s.RangeMin && sv <= s.RangeMax {
			return i
		}
	}
	return len(raw)
}

// Resolve applies the full pipeline to one column. skip is the number of
// leading rows to drop before any processing; pass 0 under RangeClamp,
// or the joint LeadingOutOfRange count under RangeDropLeading.
func Resolve(name string, time, raw []float64, s settings.Settings, policy RangePolicy, skip int) ResolvedSeries {
	out := ResolvedSeries{Name: name, Unit: s.Unit}
	if skip < 0 {
		skip = 0
	}
	if skip >= len(raw) {
		return out
	}

	n := len(raw) - skip
	out.Time = make([]float64, n)
	out.Values = make([]float64, n)
	copy(out.Time, time[skip:])

	scale := s.Scale()
	for i := 0; i < n; i++ {
		out.Values[i] = raw[skip+i] * scale
	}

	if s.HasRange() {
		for i := range out.Values {
			if out.Values[i] < s.RangeMin {
				out.Values[i] = s.RangeMin
			} else if out.Values[i] > s.RangeMax {
				out.Values[i] = s.RangeMax
			}
		}
	}

	if s.HasMaxStep() {
		for i := 1; i < len(out.Values); i++ {
			delta := out.Values[i] - out.Values[i-1]
			if math.Abs(delta) > s.MaxStep {
				out.Values[i] = out.Values[i-1] + math.Copysign(s.MaxStep, delta)
			}
		}
	}

	if s.HasStartPos() && len(out.Values) > 0 {
		offset := s.StartPos - out.Values[0]
		for i := range out.Values {
			out.Values[i] += offset
		}
	}

	return out
}
