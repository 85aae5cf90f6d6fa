// Package unify merges raw tables of different sampling rates onto a
// single reference time axis.
//
// The reference axis is the time column of the densest source. Every
// lower-rate column is resampled with zero-order hold: each reference
// timestamp takes the most recent lower-rate sample at or before it.
// Reference timestamps preceding a source's first sample take the first
// available value, so no slot is ever left empty.
package unify

import (
	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
)

// Merge combines one or more raw tables into a unified table. A single
// source passes through trivially. Column names must be unique across
// all sources (the time columns are unified into one).
func Merge(tables []*frame.RawTable) (*frame.UnifiedTable, error) {
	if len(tables) == 0 {
		return nil, errors.NewFormat("", "no sources to merge")
	}

	for _, t := range tables {
		if err := t.CheckMonotonic(); err != nil {
			return nil, err
		}
	}

	// Reference axis: the source with the most rows, interpreted as the
	// highest sampling rate.
	ref := tables[0]
	for _, t := range tables[1:] {
		if t.Len() > ref.Len() {
			ref = t
		}
	}

	out := frame.NewUnifiedTable(ref.Time)

	for i := range ref.Columns {
		c := ref.Columns[i]
		vals := make([]float64, len(c.Values))
		copy(vals, c.Values)
		if err := out.AddColumn(frame.Column{Name: c.Name, SourceRate: c.SourceRate, Values: vals}); err != nil {
			return nil, err
		}
	}

	for _, t := range tables {
		if t == ref {
			continue
		}
		for i := range t.Columns {
			c := t.Columns[i]
			held := hold(ref.Time, t.Time, c.Values)
			if err := out.AddColumn(frame.Column{Name: c.Name, SourceRate: c.SourceRate, Values: held}); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// hold resamples values from srcTime onto refTime with zero-order hold.
// Both axes are sorted, so a single forward-advancing cursor covers the
// whole reference axis in O(R+L).
func hold(refTime, srcTime, values []float64) []float64 {
	out := make([]float64, len(refTime))
	if len(srcTime) == 0 {
		return out
	}

	cursor := -1 // index of the last source sample with time <= refTime[i]
	for i, t := range refTime {
		for cursor+1 < len(srcTime) && srcTime[cursor+1] <= t {
			cursor++
		}
		if cursor < 0 {
			// Reference tick precedes the source's first sample: hold the
			// first available value rather than leaving a gap.
			out[i] = values[0]
			continue
		}
		out[i] = values[cursor]
	}
	return out
}
