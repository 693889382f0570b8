package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/524D/mzquant/internal/fit"
	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var errLMFailed = errors.New("Levenberg-Marquardt fit failed")

// solve computes calibration parameters that best fit the calibrants:
// expected m/z = method.Apply(observed m/z, p)
func solve(method Method, cals []Calibrant) ([]float64, error) {
	if len(cals) < method.NrParams() {
		return nil, fmt.Errorf("%w: %d calibrants, %d parameters", fit.ErrUnderdetermined,
			len(cals), method.NrParams())
	}
	observed := make([]float64, len(cals))
	expected := make([]float64, len(cals))
	for i, c := range cals {
		observed[i] = c.Observed
		expected[i] = c.Expected
	}

	switch {
	case method == Offset:
		diff := make([]float64, len(cals))
		for i := range cals {
			diff[i] = expected[i] - observed[i]
		}
		return []float64{stat.Mean(diff, nil)}, nil
	case method.degree() > 0:
		return fit.Polynomial(observed, expected, method.degree())
	}

	p, err := solveLM(method, observed, expected)
	if err == nil {
		return p, nil
	}
	return solveMinimize(method, observed, expected)
}

// solveLM fits a non-linear calibration function with Levenberg-Marquardt
func solveLM(method Method, observed, expected []float64) (p []float64, err error) {
	fnc := func(dst, x []float64) {
		for i, mz := range observed {
			dst[i] = method.Apply(mz, x) - expected[i]
		}
	}
	jac := lm.NumJac{Func: fnc}
	problem := lm.LMProblem{
		Dim:        method.NrParams(),
		Size:       len(observed),
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: method.initialParams(),
		Tau:        1e-13,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	// lm panics on singular matrices
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", errLMFailed, r)
		}
	}()

	res, err := lm.LM(problem, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errLMFailed, err)
	}
	for _, v := range res.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errLMFailed
		}
	}
	return res.X, nil
}

// solveMinimize minimizes the root of the summed squared residuals with
// the default gonum optimizer
func solveMinimize(method Method, observed, expected []float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sumOfResiduals := float64(0.0)
			for i, mz := range observed {
				diff := method.Apply(mz, x) - expected[i]
				sumOfResiduals += diff * diff
			}
			return math.Sqrt(sumOfResiduals)
		},
	}
	res, err := optimize.Minimize(problem, method.initialParams(), nil, nil)
	if err != nil {
		return nil, err
	}
	return res.X, nil
}
