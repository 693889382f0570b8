package isotope

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/524D/mzquant/internal/blocks"
)

// MaxCombinations limits the size of the cartesian product of the
// elemental distributions
const MaxCombinations = 2000000

// ErrTooManyCombinations is returned when an envelope would need more
// than MaxCombinations isotope combinations
var ErrTooManyCombinations = errors.New("too many isotope combinations")

// Envelope is the isotopic envelope of an analyte: m/z values with
// their theoretical fraction, ordered by m/z
type Envelope []Peak

// Sum returns the summed fraction of the envelope
func (e Envelope) Sum() float64 {
	return Distribution(e).Sum()
}

// Highest returns the index of the peak with the highest fraction.
// The lowest m/z wins ties.
func (e Envelope) Highest() int {
	best := 0
	for i, p := range e {
		if p.Fraction > e[best].Fraction {
			best = i
		}
	}
	return best
}

// Span returns the lowest and highest m/z of the envelope
func (e Envelope) Span() (float64, float64) {
	if len(e) == 0 {
		return 0, 0
	}
	return e[0].Mass, e[len(e)-1].Mass
}

// Distributions returns the elemental distributions for el, in the
// order 13C, 2H, 15N, 17O, 18O, 33S, 34S, 36S
func Distributions(el blocks.Elements, minContribution float64) []Distribution {
	return []Distribution{
		NewDistribution(Carbon13, el.C, minContribution),
		NewDistribution(Hydrogen2, el.H, minContribution),
		NewDistribution(Nitrogen15, el.N, minContribution),
		NewDistribution(Oxygen17, el.O, minContribution),
		NewDistribution(Oxygen18, el.O, minContribution),
		NewDistribution(Sulfur33, el.S, minContribution),
		NewDistribution(Sulfur34, el.S, minContribution),
		NewDistribution(Sulfur36, el.S, minContribution),
	}
}

// BuildEnvelope computes the isotopic envelope of an analyte with
// monoisotopic mass mass (including charge carriers) and elemental
// composition el, at the given charge.
// Isotope combinations closer than epsilon (in m/z) are merged, after
// which the most abundant peaks are kept until their summed fraction
// exceeds minTotal.
// The result may be shared through a Cache and must not be modified.
func BuildEnvelope(mass float64, el blocks.Elements, charge int,
	epsilon, minTotal, minContribution float64) (Envelope, error) {
	if charge < 1 {
		return nil, fmt.Errorf("invalid charge %d", charge)
	}
	combis, err := combine(mass, Distributions(el, minContribution), float64(charge))
	if err != nil {
		return nil, err
	}

	merged := mergeAll(combis, epsilon)
	if len(merged) == 1 {
		merged[0].Fraction = 1
		return Envelope(merged), nil
	}
	return truncate(merged, minTotal), nil
}

// combine computes the cartesian product of the distributions. The
// last distribution varies fastest.
func combine(mass float64, dists []Distribution, charge float64) ([]Peak, error) {
	total := 1
	for _, d := range dists {
		total *= len(d)
		if total > MaxCombinations {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyCombinations, MaxCombinations)
		}
	}
	combis := make([]Peak, 0, total)
	idx := make([]int, len(dists))
	for {
		m := mass
		f := float64(1)
		for i, d := range dists {
			m += d[idx[i]].Mass
			f *= d[idx[i]].Fraction
		}
		combis = append(combis, Peak{Mass: m / charge, Fraction: f})

		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(dists[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return combis, nil
		}
	}
}

// mergeAll merges peaks until no two peaks are within epsilon. Peaks
// can end up merged through a chain of intermediate peaks.
func mergeAll(peaks []Peak, epsilon float64) []Peak {
	merged := mergePeaks(peaks, epsilon)
	for {
		next := mergePeaks(merged, epsilon)
		if len(next) == len(merged) {
			return merged
		}
		merged = next
	}
}

// mergePeaks takes each peak that is not yet consumed, in order,
// and merges all later unconsumed peaks within epsilon into it.
// The merged mass is the fraction weighted average.
func mergePeaks(peaks []Peak, epsilon float64) []Peak {
	consumed := make([]bool, len(peaks))
	merged := make([]Peak, 0, len(peaks))
	for i, p := range peaks {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		sumMF := p.Mass * p.Fraction
		sumF := p.Fraction
		for j := i + 1; j < len(peaks); j++ {
			if !consumed[j] && math.Abs(p.Mass-peaks[j].Mass) < epsilon {
				sumMF += peaks[j].Mass * peaks[j].Fraction
				sumF += peaks[j].Fraction
				consumed[j] = true
			}
		}
		m := p.Mass
		if sumF > 0 {
			m = sumMF / sumF
		}
		merged = append(merged, Peak{Mass: m, Fraction: sumF})
	}
	return merged
}

// truncate keeps the most abundant peaks until their summed fraction
// exceeds minTotal, and returns them ordered by m/z
func truncate(peaks []Peak, minTotal float64) Envelope {
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Fraction > peaks[j].Fraction })
	sum := float64(0)
	n := len(peaks)
	for i, p := range peaks {
		sum += p.Fraction
		if sum > minTotal {
			n = i + 1
			break
		}
	}
	env := make(Envelope, n)
	copy(env, peaks[:n])
	sort.SliceStable(env, func(i, j int) bool { return env[i].Mass < env[j].Mass })
	return env
}
