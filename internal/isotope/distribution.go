// Package isotope computes isotopic distributions of single elements and
// combines them into the isotopic envelope of an analyte.
package isotope

import "math"

// Increment describes one heavy isotope of an element: the chance that
// an atom is this isotope and the mass difference with the lightest
// isotope.
type Increment struct {
	Label       string
	Probability float64
	Mass        float64
}

// Heavy isotopes taken into account for analyte envelopes
var (
	Carbon13   = Increment{Label: "13C", Probability: 0.0107, Mass: 1.00335}
	Hydrogen2  = Increment{Label: "2H", Probability: 0.00012, Mass: 1.00628}
	Nitrogen15 = Increment{Label: "15N", Probability: 0.00364, Mass: 0.99703}
	Oxygen17   = Increment{Label: "17O", Probability: 0.00038, Mass: 1.00422}
	Oxygen18   = Increment{Label: "18O", Probability: 0.00205, Mass: 2.00425}
	Sulfur33   = Increment{Label: "33S", Probability: 0.0076, Mass: 0.99939}
	Sulfur34   = Increment{Label: "34S", Probability: 0.0429, Mass: 1.9958}
	Sulfur36   = Increment{Label: "36S", Probability: 0.0002, Mass: 3.99501}
)

// Peak is a mass with the fraction of the total intensity found at
// that mass. In a Distribution, Mass is the offset from the lightest
// isotope.
type Peak struct {
	Mass     float64
	Fraction float64
}

// Distribution is the isotopic distribution of a number of atoms of
// one element, ordered by mass offset
type Distribution []Peak

// Sum returns the summed fraction of all peaks
func (d Distribution) Sum() float64 {
	s := float64(0)
	for _, p := range d {
		s += p.Fraction
	}
	return s
}

// NewDistribution computes the binomial distribution of inc over atoms
// atoms. Entries are generated for 0, 1, 2... heavy atoms, until the
// fraction is at or below minContribution while already decreasing;
// that last entry is still included. A negative number of atoms is
// a programming error and panics.
func NewDistribution(inc Increment, atoms int, minContribution float64) Distribution {
	if atoms < 0 {
		panic("isotope: negative atom count")
	}
	if atoms == 0 || inc.Probability <= 0 {
		return Distribution{{Mass: 0, Fraction: 1}}
	}
	n := float64(atoms)
	lgN, _ := math.Lgamma(n + 1)
	logP := math.Log(inc.Probability)
	logQ := math.Log1p(-inc.Probability)

	d := make(Distribution, 0, 8)
	prev := float64(-1)
	for j := 0; j <= atoms; j++ {
		k := float64(j)
		lgK, _ := math.Lgamma(k + 1)
		lgNK, _ := math.Lgamma(n - k + 1)
		f := math.Exp(lgN - lgK - lgNK + k*logP + (n-k)*logQ)
		d = append(d, Peak{Mass: k * inc.Mass, Fraction: f})
		if f <= minContribution && f < prev {
			break
		}
		prev = f
	}
	return d
}
