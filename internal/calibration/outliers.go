package calibration

import (
	"sort"

	"github.com/524D/mzquant/internal/logging"
)

func relErr(c Calibrant, method Method, p []float64) float64 {
	return (c.Expected - method.Apply(c.Observed, p)) / c.Expected
}

// Remove calibrants with relative error outside range.
// satisfied is true if no calibrant was removed.
func removeOutliersPPM(cals []Calibrant, method Method, p []float64,
	lowLim float64, highLim float64) (kept []Calibrant, satisfied bool) {

	acceptedIdx := 0
	for _, c := range cals {
		e := relErr(c, method, p)
		if e >= lowLim && e <= highLim {
			cals[acceptedIdx] = c
			acceptedIdx++
		}
	}
	return cals[:acceptedIdx], acceptedIdx == len(cals)
}

// Remove calibrants that are outliers according to mzQC specification
// (The HUPO-PSI Quality Control Working Group, 2020)
func removeOutliersMzQC(cals []Calibrant, method Method, p []float64, log logging.Logger) ([]Calibrant, bool) {
	errs := make(map[Calibrant]float64, len(cals))
	for _, c := range cals {
		errs[c] = relErr(c, method, p)
	}
	sort.SliceStable(cals, func(i, j int) bool {
		return errs[cals[i]] < errs[cals[j]]
	})

	// mzQC definition of outliers uses Q1, Q3 and IQR of the distribution
	var q1i1, q1i2 int
	if len(cals) < 6 {
		// For less than 4 calibrants, we omit outlier detection
		if len(cals) < 4 {
			return cals, true
		}
		// For 4 to 5 calibrants, Q1 and Q3 are the values 1 position from extreme
		q1i1 = 1
		q1i2 = 1
	} else {
		nq1 := len(cals) / 2 // count of samples that Q1 is based on (odd numbers are rounded down)
		q1i1 = (nq1 - 1) / 2
		q1i2 = nq1 / 2
	}
	q1 := (errs[cals[q1i1]] + errs[cals[q1i2]]) / 2
	q3i1 := len(cals) - q1i1 - 1
	q3i2 := len(cals) - q1i2 - 1
	q3 := (errs[cals[q3i1]] + errs[cals[q3i2]]) / 2
	iqr := q3 - q1
	lowLim := q1 - 1.5*iqr
	highLim := q3 + 1.5*iqr

	log.Debug("mzQC outlier limits", logging.Fields{
		"q1": q1, "q3": q3, "iqr": iqr, "low": lowLim, "high": highLim, "calibrants": len(cals),
	})
	return removeOutliersPPM(cals, method, p, lowLim, highLim)
}
