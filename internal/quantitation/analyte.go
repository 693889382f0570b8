package quantitation

import (
	"strconv"

	"github.com/524D/mzquant/internal/background"
)

// BackgroundIndex is the index of the isotope that holds the background
const BackgroundIndex = -1

// Isotope is one peak of the envelope of an analyte, as observed in the
// spectrum
type Isotope struct {
	// Position in the envelope, BackgroundIndex for the background
	Index    int
	Mz       float64
	Fraction float64
	Area     float64
	// Highest intensity in the integration window
	MaxIntensity float64
	SN           float64
	// Contribution to the isotopic pattern quality
	QC float64
}

// Analyte holds the quantitation of one composition at one charge state
type Analyte struct {
	Composition string
	Charge      int
	// Monoisotopic m/z
	Mz float64
	// m/z of the isotope with the highest theoretical fraction
	ExactMz float64
	// Half width of the integration windows
	Window float64
	// Summed theoretical fraction of the isotopes
	Distribution float64
	Background   background.Result
	// The background first, then the envelope by increasing m/z
	Isotopes []Isotope

	AccurateMz float64
	PPM        float64
	HasPPM     bool
	// Isotopic pattern quality, lower is better
	IPQ    float64
	HasIPQ bool
}

// Label returns the composition, with the charge appended for charge
// states above 1
func (a *Analyte) Label() string {
	if a.Charge <= 1 {
		return a.Composition
	}
	return a.Composition + "_" + strconv.Itoa(a.Charge) + "+"
}

// Peaks returns the isotopes without the background
func (a *Analyte) Peaks() []Isotope {
	if len(a.Isotopes) > 0 && a.Isotopes[0].Index == BackgroundIndex {
		return a.Isotopes[1:]
	}
	return a.Isotopes
}

// TotalArea returns the summed area of all isotopes
func (a *Analyte) TotalArea() float64 {
	total := float64(0)
	for _, iso := range a.Peaks() {
		total += iso.Area
	}
	return total
}

// BackgroundSubtractedArea returns the summed area of all isotopes
// minus the background area. Isotopes below the background don't
// contribute.
func (a *Analyte) BackgroundSubtractedArea() float64 {
	total := float64(0)
	for _, iso := range a.Peaks() {
		if iso.Area > a.Background.Area {
			total += iso.Area - a.Background.Area
		}
	}
	return total
}

// CorrectedArea returns the background subtracted area, extrapolated to
// the full isotopic distribution
func (a *Analyte) CorrectedArea() float64 {
	if a.Distribution <= 0 {
		return 0
	}
	return a.BackgroundSubtractedArea() / a.Distribution
}

// MaxSN returns the highest S/N of the isotopes, 0 if all are negative
func (a *Analyte) MaxSN() float64 {
	max := float64(0)
	for _, iso := range a.Peaks() {
		if iso.SN > max {
			max = iso.SN
		}
	}
	return max
}

// AboveSN reports whether the best isotope is above the S/N cutoff
func (a *Analyte) AboveSN(cutoff float64) bool {
	return a.MaxSN() > cutoff
}

// IsotopesAboveSN returns the number of isotopes above the S/N cutoff
func (a *Analyte) IsotopesAboveSN(cutoff float64) int {
	n := 0
	for _, iso := range a.Peaks() {
		if iso.SN > cutoff {
			n++
		}
	}
	return n
}
