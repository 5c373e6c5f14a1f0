package arima

import "math"

// startClamp bounds partial autocorrelations used as start values so atanh stays finite.
const startClamp = 0.95

// constrain maps unconstrained reals to the coefficients of a stationary AR
// polynomial 1 - sum(phi_j z^j). Each value becomes a partial autocorrelation
// in (-1, 1) through tanh, and the Durbin-Levinson recursion turns those into
// polynomial coefficients.
func constrain(x []float64) []float64 {
	p := len(x)
	phi := make([]float64, p)
	prev := make([]float64, p)
	for k := 0; k < p; k++ {
		r := math.Tanh(x[k] / 2)
		copy(prev, phi[:k])
		for j := 0; j < k; j++ {
			phi[j] = prev[j] - r*prev[k-1-j]
		}
		phi[k] = r
	}
	return phi
}

// unconstrain inverts constrain. It reports false when phi is not stationary.
func unconstrain(phi []float64) ([]float64, bool) {
	p := len(phi)
	x := make([]float64, p)
	cur := make([]float64, p)
	copy(cur, phi)

	for k := p - 1; k >= 0; k-- {
		r := cur[k]
		if math.IsNaN(r) || math.Abs(r) >= 1 {
			return nil, false
		}
		clamped := math.Max(-startClamp, math.Min(startClamp, r))
		x[k] = 2 * math.Atanh(clamped)

		prev := make([]float64, k)
		for j := 0; j < k; j++ {
			prev[j] = (cur[j] + r*cur[k-1-j]) / (1 - r*r)
		}
		cur = prev
	}
	return x, true
}

// invertibleMA maps unconstrained reals to MA coefficients whose polynomial
// 1 + sum(theta_j z^j) has all roots outside the unit circle.
func invertibleMA(x []float64) []float64 {
	theta := constrain(x)
	for i := range theta {
		theta[i] = -theta[i]
	}
	return theta
}
