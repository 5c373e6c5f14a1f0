// Package arima fits ARIMA(p,d,q) models by conditional sum of squares and
// produces multi-step point forecasts.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/ratecast/internal/domain"
)

// MaxOrder is the largest accepted value for any of P, D or Q.
const MaxOrder = 5

// maxEvaluations caps objective evaluations per fit.
const maxEvaluations = 20000

var (
	// ErrInsufficientData means the series is too short for the orders.
	ErrInsufficientData = errors.New("insufficient observations for model orders")
	// ErrInvalidOrder means an order is negative or above MaxOrder.
	ErrInvalidOrder = errors.New("invalid model order")
	// ErrNotConverged means the optimiser stopped without converging.
	ErrNotConverged = errors.New("optimiser did not converge")
	// ErrNonFinite means the data, objective or forecast contained NaN or Inf.
	ErrNonFinite = errors.New("non-finite value")
)

// MinObservations returns the shortest series an ARIMA(p,d,q) with a constant
// can be estimated from: d values are lost to differencing, p to the
// conditional start, and the remaining residuals must outnumber the p+q+1
// coefficients.
func MinObservations(cfg domain.ModelConfig) int {
	return cfg.D + 2*cfg.P + cfg.Q + 2
}

// Model is a fitted ARIMA model. Forecasts continue the fitted series.
type Model struct {
	Config    domain.ModelConfig
	Intercept float64   // mean of the differenced series
	AR        []float64 // phi_1..phi_p
	MA        []float64 // theta_1..theta_q
	Sigma2    float64   // residual variance

	levels    [][]float64 // levels[k] is the series differenced k times
	residuals []float64
}

// Fit estimates the model on series.
func Fit(series []float64, cfg domain.ModelConfig) (*Model, error) {
	fail := func(err error) (*Model, error) {
		return nil, &domain.ModelFitError{Config: cfg, SeriesLen: len(series), Err: err}
	}

	if err := validateOrders(cfg); err != nil {
		return fail(err)
	}
	if need := MinObservations(cfg); len(series) < need {
		return fail(fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(series), need))
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail(fmt.Errorf("%w: observation %d is %v", ErrNonFinite, i, v))
		}
	}

	levels := make([][]float64, cfg.D+1)
	levels[0] = append([]float64(nil), series...)
	for k := 1; k <= cfg.D; k++ {
		levels[k] = difference(levels[k-1])
	}
	w := levels[cfg.D]

	mean := stat.Mean(w, nil)
	scale := meanSquare(w, mean)
	sd := math.Sqrt(scale)
	if scale == 0 {
		scale, sd = 1, 1
	}

	m := &Model{Config: cfg, levels: levels}
	p, q := cfg.P, cfg.Q

	unpack := func(x []float64) (float64, []float64, []float64) {
		return mean + x[0]*sd, constrain(x[1 : 1+p]), invertibleMA(x[1+p:])
	}

	x := startParams(w, p, q)
	if p+q > 0 {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				mu, phi, theta := unpack(x)
				sum, _ := conditionalSumOfSquares(w, mu, phi, theta)
				return sum / scale
			},
		}

		result, err := optimize.Minimize(problem, x, &optimize.Settings{FuncEvaluations: maxEvaluations}, &optimize.NelderMead{})
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrNotConverged, err))
		}
		if !converged(result.Status) {
			return fail(fmt.Errorf("%w: status %v", ErrNotConverged, result.Status))
		}
		if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
			return fail(fmt.Errorf("%w: objective %v", ErrNonFinite, result.F))
		}
		x = result.X
	}

	m.Intercept, m.AR, m.MA = unpack(x)
	sum, residuals := conditionalSumOfSquares(w, m.Intercept, m.AR, m.MA)
	m.residuals = residuals
	m.Sigma2 = sum / float64(len(w)-p)

	return m, nil
}

// Forecast returns horizon point forecasts on the original (undifferenced) scale.
func (m *Model) Forecast(horizon int) ([]float64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	w := m.levels[m.Config.D]
	n := len(w)
	p := len(m.AR)

	ext := make([]float64, n, n+horizon)
	copy(ext, w)
	shocks := make([]float64, n, n+horizon)
	copy(shocks, m.residuals)

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		t := n + h
		pred := m.Intercept
		for i, phi := range m.AR {
			pred += phi * (ext[t-1-i] - m.Intercept)
		}
		for j, theta := range m.MA {
			if t-1-j >= p {
				pred += theta * shocks[t-1-j]
			}
		}
		ext = append(ext, pred)
		shocks = append(shocks, 0)
		out[h] = pred
	}

	for k := m.Config.D - 1; k >= 0; k-- {
		acc := m.levels[k][len(m.levels[k])-1]
		for i := range out {
			acc += out[i]
			out[i] = acc
		}
	}

	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &domain.ModelFitError{
				Config:    m.Config,
				SeriesLen: len(m.levels[0]),
				Err:       fmt.Errorf("%w: forecast step %d is %v", ErrNonFinite, i+1, v),
			}
		}
	}
	return out, nil
}

func validateOrders(cfg domain.ModelConfig) error {
	for _, order := range []int{cfg.P, cfg.D, cfg.Q} {
		if order < 0 || order > MaxOrder {
			return fmt.Errorf("%w: orders must be within [0,%d], got %s", ErrInvalidOrder, MaxOrder, cfg)
		}
	}
	return nil
}

func difference(x []float64) []float64 {
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

func meanSquare(x []float64, mean float64) float64 {
	var sum float64
	for _, v := range x {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(x))
}

// conditionalSumOfSquares runs the ARMA recursion on w with pre-sample shocks
// set to zero. Residuals before index p are zero and excluded from the sum.
func conditionalSumOfSquares(w []float64, mu float64, phi, theta []float64) (float64, []float64) {
	p := len(phi)
	residuals := make([]float64, len(w))
	var sum float64
	for t := p; t < len(w); t++ {
		pred := mu
		for i, c := range phi {
			pred += c * (w[t-1-i] - mu)
		}
		for j, c := range theta {
			if t-1-j >= p {
				pred += c * residuals[t-1-j]
			}
		}
		e := w[t] - pred
		residuals[t] = e
		sum += e * e
	}
	return sum, residuals
}

// startParams returns the optimiser start point [intercept offset, AR..., MA...].
// AR values come from an OLS regression on lags when it yields a stationary
// polynomial, MA values start at zero.
func startParams(w []float64, p, q int) []float64 {
	x := make([]float64, 1+p+q)
	if p == 0 {
		return x
	}

	rows := len(w) - p
	design := mat.NewDense(rows, p+1, nil)
	target := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		design.Set(r, 0, 1)
		for i := 1; i <= p; i++ {
			design.Set(r, i, w[t-i])
		}
		target.SetVec(r, w[t])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, target); err != nil {
		return x
	}

	phi := make([]float64, p)
	for i := range phi {
		phi[i] = beta.AtVec(i + 1)
	}
	if ar, ok := unconstrain(phi); ok {
		copy(x[1:], ar)
	}
	return x
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.FunctionThreshold,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	default:
		return false
	}
}
