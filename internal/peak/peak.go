// Package peak finds the accurate apex of a peak and integrates its area
package peak

import (
	"errors"
	"fmt"

	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/spectrum"
	"gonum.org/v1/gonum/interp"
)

// SamplesPerDalton is the resolution of the resampled spline
const SamplesPerDalton = 2500

// Minimum number of points for a not-a-knot cubic spline
const minSplinePoints = 4

var errTooFewPoints = errors.New("too few points for spline")
var errNotIncreasing = errors.New("m/z not strictly increasing")

// Apex is the top of a peak
type Apex struct {
	Mz        float64
	Intensity float64
	// False when the raw maximum was used instead of the spline
	Interpolated bool
}

// LocateApex fits a cubic spline through points and returns the maximum
// of the spline, sampled at SamplesPerDalton points per Dalton. If the
// spline can't be made, the point with the highest intensity is
// returned and a warning is logged. An empty window gives a zero Apex.
func LocateApex(points []spectrum.Point, log logging.Logger) Apex {
	apex, err := splineApex(points)
	if err == nil {
		return apex
	}
	apex = RawMaximum(points)
	if len(points) > 0 {
		logging.OrNop(log).Warn("spline interpolation failed, using raw maximum", logging.Fields{
			"error":  err.Error(),
			"mzMin":  points[0].Mz,
			"mzMax":  points[len(points)-1].Mz,
			"points": len(points),
		})
	}
	return apex
}

func splineApex(points []spectrum.Point) (apex Apex, err error) {
	if len(points) < minSplinePoints {
		return apex, fmt.Errorf("%w: %d", errTooFewPoints, len(points))
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if i > 0 && !(p.Mz > points[i-1].Mz) {
			return apex, errNotIncreasing
		}
		xs[i] = p.Mz
		ys[i] = p.Intens
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("spline: %v", r)
		}
	}()

	var spline interp.NotAKnotCubic
	if err := spline.Fit(xs, ys); err != nil {
		return apex, err
	}
	first, last := xs[0], xs[len(xs)-1]
	n := int(SamplesPerDalton * (last - first))
	if n < 2 {
		n = 2
	}
	step := (last - first) / float64(n-1)
	for i := 0; i < n; i++ {
		x := first + float64(i)*step
		if i == n-1 {
			x = last
		}
		y := spline.Predict(x)
		if i == 0 || y > apex.Intensity {
			apex = Apex{Mz: x, Intensity: y, Interpolated: true}
		}
	}
	return apex, nil
}

// RawMaximum returns the point with the highest intensity.
// The first point wins on equal intensities.
func RawMaximum(points []spectrum.Point) Apex {
	var apex Apex
	for i, p := range points {
		if i == 0 || p.Intens > apex.Intensity {
			apex = Apex{Mz: p.Mz, Intensity: p.Intens}
		}
	}
	return apex
}

// MaxIntensity returns the highest intensity in points, 0 if there are
// no points
func MaxIntensity(points []spectrum.Point) float64 {
	return RawMaximum(points).Intensity
}

// IntegrateArea returns the area under points as
// sum(intensity) * (last m/z - first m/z) / (number of points - 1)
func IntegrateArea(points []spectrum.Point) float64 {
	return spectrum.Area(points)
}
