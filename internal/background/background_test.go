package background

import (
	"errors"
	"math"
	"testing"

	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/spectrum"
	"gonum.org/v1/gonum/stat"
)

const spacing = 1.00335

// flatSpectrum returns a spectrum from 975 to 1025 with points every
// 0.01, alternating between 100-noise and 100+noise, with a Gaussian
// peak of the given height on top of the background at m/z 1000.
func flatSpectrum(t *testing.T, noise, height float64) *spectrum.Spectrum {
	t.Helper()
	var points []spectrum.Point
	for i := 0; i <= 5000; i++ {
		mz := 975 + float64(i)*0.01
		intens := 100 + noise
		if i%2 == 1 {
			intens = 100 - noise
		}
		d := mz - 1000
		intens += height * math.Exp(-d*d/(2*0.03*0.03))
		points = append(points, spectrum.Point{Mz: mz, Intens: intens})
	}
	s, err := spectrum.New("flat", points)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func defaultParams() Params {
	return ParamsFromConfig(config.Default())
}

func TestEstimateFlat(t *testing.T) {
	s := flatSpectrum(t, 5, 100)
	res, err := Estimate(s, 1000, 0.2, spacing, defaultParams())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if math.Abs(res.Intensity-100) > 5 {
		t.Errorf("Expected background 100 within 5%%, got: %v", res.Intensity)
	}
	if math.Abs(res.Noise-5) > 0.25 {
		t.Errorf("Expected noise 5 within 5%%, got: %v", res.Noise)
	}
	// 41 points of ~100 at spacing 0.01
	if math.Abs(res.Area-41) > 2 {
		t.Errorf("Expected background area about 41, got: %v", res.Area)
	}
}

func TestEstimateMinMax(t *testing.T) {
	s := flatSpectrum(t, 5, 0)
	p := defaultParams()
	p.Noise = config.NoiseMM
	res, err := Estimate(s, 1000, 0.2, spacing, p)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Noise != 10 {
		t.Errorf("Expected noise 10, got: %v", res.Noise)
	}
}

// The chosen region has the lowest average of all runs
func TestEstimateLowestRun(t *testing.T) {
	var points []spectrum.Point
	for i := 0; i <= 5000; i++ {
		mz := 975 + float64(i)*0.01
		// slowly varying background with a dip below m/z 990
		intens := 200 + 50*math.Sin(mz/3)
		if mz < 990 {
			intens -= 150
		}
		points = append(points, spectrum.Point{Mz: mz, Intens: intens})
	}
	s, _ := spectrum.New("varying", points)
	p := defaultParams()
	res, err := Estimate(s, 1000, 0.2, spacing, p)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	w, err := windows(s, 1000, 0.2, spacing, p.OuterBorder)
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j+p.ChunkSize <= len(w); j++ {
		intens, _ := pool(w[j : j+p.ChunkSize])
		if avg := stat.Mean(intens, nil); res.Intensity > avg {
			t.Errorf("Run %d has average %v below chosen background %v", j, avg, res.Intensity)
		}
	}
	if res.Offset < 10 {
		t.Errorf("Expected region below m/z 990 (offset >= 10), got offset %d", res.Offset)
	}
}

func TestEstimateOutOfRange(t *testing.T) {
	s := flatSpectrum(t, 5, 100)
	_, err := Estimate(s, 1010, 0.2, spacing, defaultParams())
	if !errors.Is(err, spectrum.ErrOutOfRange) {
		t.Errorf("Expected error: %v, got: %v", spectrum.ErrOutOfRange, err)
	}
}

func TestEstimateInvalidParams(t *testing.T) {
	s := flatSpectrum(t, 5, 100)
	_, err := Estimate(s, 1000, 0.2, spacing, Params{OuterBorder: 2, ChunkSize: 5})
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected error: %v, got: %v", config.ErrInvalid, err)
	}
}

func TestEstimateEmptyWindows(t *testing.T) {
	s, _ := spectrum.New("sparse", []spectrum.Point{{Mz: 900, Intens: 1}, {Mz: 1100, Intens: 1}})
	_, err := Estimate(s, 1000, 0.2, spacing, defaultParams())
	if !errors.Is(err, ErrNoBackground) {
		t.Errorf("Expected error: %v, got: %v", ErrNoBackground, err)
	}
}
