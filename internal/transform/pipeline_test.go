package transform

import (
	"math"
	"testing"

	"github.com/mizzou-racing/monolith/internal/settings"
)

func axis(n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	return t
}

func TestResolvePassthrough(t *testing.T) {
	raw := []float64{1, 2, 3}
	got := Resolve("rpm", axis(3), raw, settings.Default(), RangeClamp, 0)

	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	for i, v := range raw {
		if got.Values[i] != v {
			t.Errorf("Values[%d] = %v, want %v", i, got.Values[i], v)
		}
	}
}

func TestResolveScale(t *testing.T) {
	s := settings.Default()
	s.ConversionRate = 3.6
	s.Precision = 10

	got := Resolve("speed", axis(2), []float64{100, 200}, s, RangeClamp, 0)
	if got.Values[0] != 36 || got.Values[1] != 72 {
		t.Fatalf("scaled values = %v, want [36 72]", got.Values)
	}
}

func TestResolveClampBoundsInclusive(t *testing.T) {
	s := settings.Default()
	s.RangeMin = 0
	s.RangeMax = 10

	got := Resolve("temp", axis(4), []float64{-5, 0, 10, 15}, s, RangeClamp, 0)
	want := []float64{0, 0, 10, 10}
	for i := range want {
		if got.Values[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got.Values[i], want[i])
		}
	}
}

func TestResolveMaxStepCumulative(t *testing.T) {
	// A jump from 0 to 100 with max step 10 is clipped against the
	// smoothed predecessor, not the raw one: the second sample lands at
	// 10, not 90.
	s := settings.Default()
	s.MaxStep = 10

	got := Resolve("load", axis(2), []float64{0, 100}, s, RangeClamp, 0)
	if got.Values[0] != 0 || got.Values[1] != 10 {
		t.Fatalf("values = %v, want [0 10]", got.Values)
	}
}

func TestResolveMaxStepSigned(t *testing.T) {
	s := settings.Default()
	s.MaxStep = 5

	got := Resolve("load", axis(3), []float64{50, 0, 0}, s, RangeClamp, 0)
	want := []float64{50, 45, 40}
	for i := range want {
		if got.Values[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got.Values[i], want[i])
		}
	}
}

func TestResolveStartPos(t *testing.T) {
	s := settings.Default()
	s.StartPos = 100

	got := Resolve("alt", axis(3), []float64{40, 42, 45}, s, RangeClamp, 0)
	want := []float64{100, 102, 105}
	for i := range want {
		if got.Values[i] != want[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got.Values[i], want[i])
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	s := settings.Default()
	s.ConversionRate = 2
	s.RangeMin = 0
	s.RangeMax = 50
	s.MaxStep = 7
	s.StartPos = 1

	raw := []float64{3, 9, 30, -2, 18}
	first := Resolve("x", axis(5), raw, s, RangeClamp, 0)
	second := Resolve("x", axis(5), raw, s, RangeClamp, 0)

	for i := range first.Values {
		if first.Values[i] != second.Values[i] {
			t.Fatalf("Values[%d] differs between runs: %v vs %v", i, first.Values[i], second.Values[i])
		}
	}
	// Input untouched.
	if raw[3] != -2 {
		t.Fatalf("input mutated: %v", raw)
	}
}

func TestLeadingOutOfRange(t *testing.T) {
	s := settings.Default()
	s.RangeMin = 10
	s.RangeMax = 20

	raw := []float64{0, 5, 12, 3, 15}
	if n := LeadingOutOfRange(raw, s); n != 2 {
		t.Fatalf("LeadingOutOfRange = %d, want 2", n)
	}

	// No active range: nothing counts as out of range.
	if n := LeadingOutOfRange(raw, settings.Default()); n != 0 {
		t.Fatalf("LeadingOutOfRange with defaults = %d, want 0", n)
	}
}

func TestResolveSkipDropsLeadingRows(t *testing.T) {
	s := settings.Default()
	s.RangeMin = 10
	s.RangeMax = 20

	raw := []float64{0, 5, 12, 30, 15}
	skip := LeadingOutOfRange(raw, s)
	got := Resolve("x", axis(5), raw, s, RangeDropLeading, skip)

	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	if got.Time[0] != 2 {
		t.Fatalf("Time[0] = %v, want 2", got.Time[0])
	}
	// Later excursions clamp rather than drop.
	if got.Values[1] != 20 {
		t.Fatalf("Values[1] = %v, want 20 (clamped)", got.Values[1])
	}
}

func TestResolveSkipBeyondLength(t *testing.T) {
	got := Resolve("x", axis(2), []float64{1, 2}, settings.Default(), RangeDropLeading, 5)
	if got.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", got.Len())
	}
}

func TestSummarize(t *testing.T) {
	st, err := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if st.Count != 8 {
		t.Errorf("Count = %d, want 8", st.Count)
	}
	if st.Min != 2 || st.Max != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", st.Min, st.Max)
	}
	if st.Mean != 5 {
		t.Errorf("Mean = %v, want 5", st.Mean)
	}
	if math.Abs(st.StdDev-2) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", st.StdDev)
	}
	// 1% relative accuracy sketch.
	if math.Abs(st.P50-4.5) > 0.5 {
		t.Errorf("P50 = %v, want ~4.5", st.P50)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	st, err := Summarize(nil)
	if err != nil {
		t.Fatalf("Summarize(nil): %v", err)
	}
	if st.Count != 0 {
		t.Fatalf("Count = %d, want 0", st.Count)
	}
}

func TestFitLinear(t *testing.T) {
	s := ResolvedSeries{Time: []float64{0, 1, 2, 3}, Values: []float64{1, 3, 5, 7}}
	tr, err := Fit(s, TrendLinear, 0, 0)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.Abs(tr.Coeffs[0]-1) > 1e-9 || math.Abs(tr.Coeffs[1]-2) > 1e-9 {
		t.Fatalf("coeffs = %v, want [1 2]", tr.Coeffs)
	}
}

func TestFitPolynomial(t *testing.T) {
	// y = x^2 exactly.
	s := ResolvedSeries{Time: []float64{0, 1, 2, 3, 4}, Values: []float64{0, 1, 4, 9, 16}}
	tr, err := Fit(s, TrendPolynomial, 2, 0)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for i, x := range s.Time {
		if math.Abs(tr.Values[i]-x*x) > 1e-6 {
			t.Errorf("fitted[%d] = %v, want %v", i, tr.Values[i], x*x)
		}
	}
}

func TestFitMovingAverage(t *testing.T) {
	s := ResolvedSeries{Time: axis(5), Values: []float64{0, 10, 20, 30, 40}}
	tr, err := Fit(s, TrendMovingAverage, 0, 3)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(tr.Values) != 5 {
		t.Fatalf("len = %d, want 5", len(tr.Values))
	}
	if tr.Values[2] != 20 {
		t.Fatalf("Values[2] = %v, want 20", tr.Values[2])
	}
	// Edge windows shrink rather than pad.
	if tr.Values[0] != 5 {
		t.Fatalf("Values[0] = %v, want 5", tr.Values[0])
	}
}

func TestFitLogarithmicRejectsNonPositiveTime(t *testing.T) {
	s := ResolvedSeries{Time: []float64{0, 1, 2}, Values: []float64{1, 2, 3}}
	if _, err := Fit(s, TrendLogarithmic, 0, 0); err == nil {
		t.Fatal("expected error for non-positive timestamps")
	}
}
