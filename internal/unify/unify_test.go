package unify

import (
	"testing"

	"github.com/mizzou-racing/monolith/internal/errors"
	"github.com/mizzou-racing/monolith/internal/frame"
)

func table(t *testing.T, source string, rate float64, time []float64, name string, values []float64) *frame.RawTable {
	t.Helper()
	return &frame.RawTable{
		Source: source,
		Rate:   rate,
		Time:   time,
		Columns: []frame.Column{
			{Name: name, SourceRate: rate, Values: values},
		},
	}
}

func TestMergeSingleSource(t *testing.T) {
	tb := table(t, "a", 10, []float64{0, 0.1, 0.2}, "Speed", []float64{0, 1, 2})
	u, err := Merge([]*frame.RawTable{tb})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if u.Len() != 3 {
		t.Fatalf("Len = %d, want 3", u.Len())
	}
	vals, _ := u.Values("Speed")
	if vals[2] != 2 {
		t.Fatalf("Speed[2] = %v, want 2", vals[2])
	}
}

func TestMergeZeroOrderHold(t *testing.T) {
	fast := table(t, "fast", 100, []float64{0, 0.01, 0.02, 0.03, 0.04}, "RPM", []float64{1, 2, 3, 4, 5})
	slow := table(t, "slow", 50, []float64{0, 0.02, 0.04}, "Coolant", []float64{80, 81, 82})

	u, err := Merge([]*frame.RawTable{slow, fast})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if u.Len() != 5 {
		t.Fatalf("Len = %d, want 5 (densest axis)", u.Len())
	}

	coolant, _ := u.Values("Coolant")
	want := []float64{80, 80, 81, 81, 82}
	for i := range want {
		if coolant[i] != want[i] {
			t.Errorf("Coolant[%d] = %v, want %v", i, coolant[i], want[i])
		}
	}
}

func TestMergeHoldsFirstValueBeforeFirstSample(t *testing.T) {
	fast := table(t, "fast", 100, []float64{0, 0.01, 0.02}, "RPM", []float64{1, 2, 3})
	late := table(t, "late", 50, []float64{0.015}, "Oil", []float64{42})

	u, err := Merge([]*frame.RawTable{fast, late})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	oil, _ := u.Values("Oil")
	// Slots before the late source's first sample are back-filled, never
	// left empty.
	if oil[0] != 42 || oil[1] != 42 || oil[2] != 42 {
		t.Fatalf("Oil = %v, want all 42", oil)
	}
}

func TestMergeRejectsUnsorted(t *testing.T) {
	bad := table(t, "bad", 10, []float64{0, 2, 1}, "Speed", []float64{0, 1, 2})
	_, err := Merge([]*frame.RawTable{bad})
	if !errors.Is(err, errors.ErrUnsortedTime) {
		t.Fatalf("err = %v, want unsorted-time", err)
	}
}

func TestMergeRejectsDuplicateColumns(t *testing.T) {
	a := table(t, "a", 100, []float64{0, 0.01}, "RPM", []float64{1, 2})
	b := table(t, "b", 10, []float64{0}, "RPM", []float64{3})
	_, err := Merge([]*frame.RawTable{a, b})
	if !errors.Is(err, errors.ErrDuplicateColumn) {
		t.Fatalf("err = %v, want duplicate-column", err)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if _, err := Merge(nil); !errors.Is(err, errors.ErrFormat) {
		t.Fatalf("err = %v, want format error", err)
	}
}
