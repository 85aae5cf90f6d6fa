package transform

import (
	"math"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// TrendKind selects the fit family for an overlay line.
type TrendKind int

const (
	TrendLinear TrendKind = iota
	TrendPolynomial
	TrendMovingAverage
	TrendLogarithmic
)

// Trend is a fitted overlay for one resolved series. For the fit
// families, Coeffs holds the polynomial coefficients in ascending degree
// order; for a moving average, Values holds the smoothed samples
// directly and Coeffs is nil.
type Trend struct {
	Kind   TrendKind
	Coeffs []float64
	Time   []float64
	Values []float64
}

// Fit computes a trend overlay over a resolved series. degree applies to
// TrendPolynomial; window applies to TrendMovingAverage.
func Fit(s ResolvedSeries, kind TrendKind, degree, window int) (Trend, error) {
	switch kind {
	case TrendLinear:
		return fitPolynomial(s, 1, TrendLinear)
	case TrendPolynomial:
		if degree < 1 {
			return Trend{}, errors.NewFormat("", "polynomial degree must be at least 1")
		}
		return fitPolynomial(s, degree, TrendPolynomial)
	case TrendMovingAverage:
		return movingAverage(s, window)
	case TrendLogarithmic:
		return fitLogarithmic(s)
	default:
		return Trend{}, errors.NewFormat("", "unknown trend kind")
	}
}

func fitPolynomial(s ResolvedSeries, degree int, kind TrendKind) (Trend, error) {
	if len(s.Values) < degree+1 {
		return Trend{}, errors.NewFormat("", "not enough samples for fit")
	}

	coeffs, err := polyfit(s.Time, s.Values, degree)
	if err != nil {
		return Trend{}, err
	}

	t := Trend{Kind: kind, Coeffs: coeffs, Time: s.Time}
	t.Values = make([]float64, len(s.Time))
	for i, x := range s.Time {
		t.Values[i] = evalPoly(coeffs, x)
	}
	return t, nil
}

// fitLogarithmic fits y = a + b*ln(x) via a linear fit in ln(x). Samples
// at or before time zero cannot be represented and fail the fit.
func fitLogarithmic(s ResolvedSeries) (Trend, error) {
	if len(s.Values) < 2 {
		return Trend{}, errors.NewFormat("", "not enough samples for fit")
	}

	lx := make([]float64, len(s.Time))
	for i, x := range s.Time {
		if x <= 0 {
			return Trend{}, errors.NewFormat("", "logarithmic fit requires positive timestamps")
		}
		lx[i] = math.Log(x)
	}

	coeffs, err := polyfit(lx, s.Values, 1)
	if err != nil {
		return Trend{}, err
	}

	t := Trend{Kind: TrendLogarithmic, Coeffs: coeffs, Time: s.Time}
	t.Values = make([]float64, len(s.Time))
	for i := range lx {
		t.Values[i] = coeffs[0] + coeffs[1]*lx[i]
	}
	return t, nil
}

// movingAverage smooths with a centered window, shrinking the window at
// the edges so the output keeps the input length.
func movingAverage(s ResolvedSeries, window int) (Trend, error) {
	if window < 1 {
		return Trend{}, errors.NewFormat("", "moving average window must be at least 1")
	}

	t := Trend{Kind: TrendMovingAverage, Time: s.Time}
	t.Values = make([]float64, len(s.Values))
	half := window / 2
	for i := range s.Values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + (window - half - 1)
		if hi >= len(s.Values) {
			hi = len(s.Values) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += s.Values[j]
		}
		t.Values[i] = sum / float64(hi-lo+1)
	}
	return t, nil
}

// polyfit solves the least-squares polynomial fit of the given degree
// through the normal equations, returning coefficients in ascending
// degree order.
func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	n := degree + 1

	// Power sums of x up to 2*degree, then the augmented normal matrix.
	pow := make([]float64, 2*degree+1)
	for _, x := range xs {
		p := 1.0
		for k := range pow {
			pow[k] += p
			p *= x
		}
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n+1)
		for j := 0; j < n; j++ {
			m[i][j] = pow[i+j]
		}
	}
	for k, y := range ys {
		p := 1.0
		for i := 0; i < n; i++ {
			m[i][n] += y * p
			p *= xs[k]
		}
	}

	return solve(m)
}

// solve runs Gaussian elimination with partial pivoting on an augmented
// matrix, returning the solution vector.
func solve(m [][]float64) ([]float64, error) {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, errors.NewFormat("", "singular system in trend fit")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * out[j]
		}
		out[i] = sum / m[i][i]
	}
	return out, nil
}

func evalPoly(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}
