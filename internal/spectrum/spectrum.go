// Package spectrum holds a mass spectrum as a list of (m/z, intensity)
// points and provides windowed access to it.
package spectrum

import (
	"errors"
	"fmt"
	"sort"

	"github.com/524D/mzquant/internal/mzml"
)

var (
	// ErrOutOfRange means a requested m/z window is (partly) outside
	// the m/z range of the spectrum
	ErrOutOfRange = errors.New("m/z window outside spectrum range")
	// ErrNotSorted means the m/z values are not strictly increasing
	ErrNotSorted = errors.New("m/z values not strictly increasing")
	// ErrEmpty means the spectrum has no points
	ErrEmpty = errors.New("empty spectrum")
)

// Point is a single (m/z, intensity) pair
type Point = mzml.Peak

// Spectrum is a list of points, ordered by strictly increasing m/z
type Spectrum struct {
	Name   string
	Points []Point
	// Mass analyzer as found in the input file (TOF, FTICR, Orbitrap),
	// empty if unknown
	Analyzer string
	// mzML scan id, empty for xy files
	ScanID string
	// Points are centroided peaks instead of profile data
	Centroid bool
	// Total ion current as stored in the file, 0 if not stored
	TIC float64
}

// New creates a spectrum. Points are sorted by m/z; duplicate m/z
// values are an error.
func New(name string, points []Point) (*Spectrum, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Mz < points[j].Mz })
	for i := 1; i < len(points); i++ {
		if points[i].Mz <= points[i-1].Mz {
			return nil, fmt.Errorf("%s: %w at m/z %v", name, ErrNotSorted, points[i].Mz)
		}
	}
	return &Spectrum{Name: name, Points: points}, nil
}

// Len returns the number of points
func (s *Spectrum) Len() int {
	return len(s.Points)
}

// Range returns the lowest and highest m/z
func (s *Spectrum) Range() (float64, float64) {
	if len(s.Points) == 0 {
		return 0, 0
	}
	return s.Points[0].Mz, s.Points[len(s.Points)-1].Mz
}

// Contains reports whether [lo, hi] lies within the m/z range
func (s *Spectrum) Contains(lo, hi float64) bool {
	first, last := s.Range()
	return len(s.Points) > 0 && lo >= first && hi <= last
}

// LeftBound returns the index of the first point with m/z >= t.
// ok is false when t is outside the m/z range of the spectrum.
func (s *Spectrum) LeftBound(t float64) (idx int, ok bool) {
	if !s.Contains(t, t) {
		return 0, false
	}
	return sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Mz >= t }), true
}

// RightBound returns the index of the first point with m/z > t
// (which is Len() for the highest m/z).
// ok is false when t is outside the m/z range of the spectrum.
func (s *Spectrum) RightBound(t float64) (idx int, ok bool) {
	if !s.Contains(t, t) {
		return 0, false
	}
	return sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Mz > t }), true
}

// Window returns the points with lo <= m/z <= hi. The result shares
// memory with the spectrum and must not be modified. The window may
// contain no points at all.
func (s *Spectrum) Window(lo, hi float64) ([]Point, error) {
	l, ok1 := s.LeftBound(lo)
	r, ok2 := s.RightBound(hi)
	if !ok1 || !ok2 {
		first, last := s.Range()
		return nil, fmt.Errorf("%w: [%.4f, %.4f] not in [%.4f, %.4f]", ErrOutOfRange, lo, hi, first, last)
	}
	if r < l {
		return s.Points[l:l], nil
	}
	return s.Points[l:r], nil
}

// Uplift adds a constant to all intensities when the spectrum contains
// negative intensities, so that the lowest intensity becomes 0.
// It returns the offset that was added.
func (s *Spectrum) Uplift() float64 {
	min := float64(0)
	for _, p := range s.Points {
		if p.Intens < min {
			min = p.Intens
		}
	}
	if min >= 0 {
		return 0
	}
	for i := range s.Points {
		s.Points[i].Intens -= min
	}
	return -min
}

// TotalArea returns the area of the whole spectrum: every intensity is
// multiplied by the m/z distance to the next point. The last point uses
// the distance to its predecessor.
func (s *Spectrum) TotalArea() float64 {
	n := len(s.Points)
	if n < 2 {
		return 0
	}
	total := float64(0)
	for i, p := range s.Points {
		if i+1 < n {
			total += p.Intens * (s.Points[i+1].Mz - p.Mz)
		} else {
			total += p.Intens * (p.Mz - s.Points[i-1].Mz)
		}
	}
	return total
}

// Area approximates the area under points as
// sum(intensity) * (last m/z - first m/z) / (number of points - 1).
// Fewer than 2 points have no area.
func Area(points []Point) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	sum := float64(0)
	for _, p := range points {
		sum += p.Intens
	}
	return sum * (points[n-1].Mz - points[0].Mz) / float64(n-1)
}

// Transform returns a new spectrum with f applied to every m/z value.
// Intensities are copied unchanged. The new m/z values must still be
// strictly increasing.
func (s *Spectrum) Transform(f func(mz float64) float64) (*Spectrum, error) {
	points := make([]Point, len(s.Points))
	for i, p := range s.Points {
		points[i] = Point{Mz: f(p.Mz), Intens: p.Intens}
		if i > 0 && !(points[i].Mz > points[i-1].Mz) {
			return nil, fmt.Errorf("%s: %w after transformation at m/z %v", s.Name, ErrNotSorted, p.Mz)
		}
	}
	c := *s
	c.Points = points
	return &c, nil
}
