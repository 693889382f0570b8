// Package background estimates the local background intensity, the
// background area and the noise around a mass of interest.
package background

import (
	"errors"
	"fmt"

	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/spectrum"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoBackground means none of the examined windows contained any points
var ErrNoBackground = errors.New("no points in background windows")

// Params controls the background search
type Params struct {
	// Windows are examined at offsets -OuterBorder .. OuterBorder-1
	// isotope spacings from the center
	OuterBorder int
	// Number of consecutive windows pooled into one candidate region
	ChunkSize int
	// config.NoiseRMS or config.NoiseMM
	Noise string
}

// ParamsFromConfig returns the background parameters of a configuration
func ParamsFromConfig(cfg config.Config) Params {
	return Params{
		OuterBorder: cfg.BackgroundWindow,
		ChunkSize:   cfg.BackgroundChunkSize,
		Noise:       cfg.Noise,
	}
}

// Result of a background estimation
type Result struct {
	// Average intensity of the pooled region
	Intensity float64
	// Average area of the windows in the region
	Area float64
	Noise float64
	// Offset (in isotope spacings) of the first window of the region
	Offset int
}

type window struct {
	offset int
	intens []float64
	area   float64
}

// windows extracts the candidate windows, lowest offset first
func windows(s *spectrum.Spectrum, center, halfWidth, spacing float64, outer int) ([]window, error) {
	w := make([]window, 0, 2*outer)
	for k := -outer; k < outer; k++ {
		c := center - float64(k)*spacing
		points, err := s.Window(c-halfWidth, c+halfWidth)
		if err != nil {
			return nil, fmt.Errorf("background window at m/z %.4f: %w", c, err)
		}
		intens := make([]float64, len(points))
		for i, p := range points {
			intens[i] = p.Intens
		}
		w = append(w, window{offset: k, intens: intens, area: spectrum.Area(points)})
	}
	return w, nil
}

// pool concatenates the intensities of a run of windows and returns the
// average of their areas
func pool(run []window) ([]float64, float64) {
	var intens []float64
	area := float64(0)
	for _, w := range run {
		intens = append(intens, w.intens...)
		area += w.area
	}
	return intens, area / float64(len(run))
}

// Estimate searches the windows around center for the run of ChunkSize
// consecutive windows with the lowest average intensity, and returns the
// background and noise of that run. On equal averages the first run wins.
// Every window must be inside the spectrum, otherwise an error wrapping
// spectrum.ErrOutOfRange is returned.
func Estimate(s *spectrum.Spectrum, center, halfWidth, spacing float64, p Params) (Result, error) {
	if p.ChunkSize < 1 || 2*p.OuterBorder < p.ChunkSize {
		return Result{}, fmt.Errorf("%w: background window %d too small for chunk size %d",
			config.ErrInvalid, p.OuterBorder, p.ChunkSize)
	}
	w, err := windows(s, center, halfWidth, spacing, p.OuterBorder)
	if err != nil {
		return Result{}, err
	}

	found := false
	var res Result
	for j := 0; j+p.ChunkSize <= len(w); j++ {
		intens, area := pool(w[j : j+p.ChunkSize])
		if len(intens) == 0 {
			continue
		}
		avg := stat.Mean(intens, nil)
		if found && avg >= res.Intensity {
			continue
		}
		found = true
		res = Result{Intensity: avg, Area: area, Offset: w[j].offset}
		switch p.Noise {
		case config.NoiseMM:
			res.Noise = floats.Max(intens) - floats.Min(intens)
		default:
			res.Noise = stat.PopStdDev(intens, nil)
		}
	}
	if !found {
		return Result{}, fmt.Errorf("%w around m/z %.4f", ErrNoBackground, center)
	}
	return res, nil
}
