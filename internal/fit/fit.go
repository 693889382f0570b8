// Package fit contains least squares curve fitting used for calibration
// and baseline correction
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrUnderdetermined means there are fewer points than parameters
var ErrUnderdetermined = errors.New("fewer points than parameters")

// Polynomial fits y = p[0] + p[1]*x + ... + p[degree]*x^degree in the
// least squares sense and returns p.
func Polynomial(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	m := degree + 1
	if len(y) != n {
		return nil, fmt.Errorf("fit: %d x values, %d y values", n, len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("fit: invalid degree %d", degree)
	}
	if n < m {
		return nil, fmt.Errorf("%w: %d points, %d parameters", ErrUnderdetermined, n, m)
	}

	// Scale x to [-1, 1] to keep the Vandermonde matrix well conditioned
	scale := math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	if scale == 0 {
		scale = 1
	}
	a := mat.NewDense(n, m, nil)
	for i, xi := range x {
		v := float64(1)
		for j := 0; j < m; j++ {
			a.Set(i, j, v)
			v *= xi / scale
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	p := make([]float64, m)
	s := float64(1)
	for j := range p {
		p[j] = c.AtVec(j) / s
		s *= scale
	}
	return p, nil
}

// Eval evaluates the polynomial p at x
func Eval(p []float64, x float64) float64 {
	v := float64(0)
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}
