package transform

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Stats summarizes a resolved series for the inspection surface.
// Quantiles come from a DDSketch with 1% relative accuracy; min, max,
// mean and stddev are exact.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	P95    float64
	P99    float64
}

// Summarize computes statistics over the series values. An empty series
// yields a zero Stats.
func Summarize(values []float64) (Stats, error) {
	var st Stats
	if len(values) == 0 {
		return st, nil
	}

	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		return st, err
	}

	st.Min = values[0]
	st.Max = values[0]
	var sum, sumSq float64
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
		sumSq += v * v
		if err := sketch.Add(v); err != nil {
			return st, err
		}
	}

	n := float64(len(values))
	st.Count = len(values)
	st.Mean = sum / n

	variance := sumSq/n - st.Mean*st.Mean
	if variance > 0 {
		st.StdDev = math.Sqrt(variance)
	}

	if st.P50, err = sketch.GetValueAtQuantile(0.50); err != nil {
		return st, err
	}
	if st.P90, err = sketch.GetValueAtQuantile(0.90); err != nil {
		return st, err
	}
	if st.P95, err = sketch.GetValueAtQuantile(0.95); err != nil {
		return st, err
	}
	if st.P99, err = sketch.GetValueAtQuantile(0.99); err != nil {
		return st, err
	}
	return st, nil
}
