// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"fmt"
	"io"
	"math"

	"github.com/524D/mzquant/internal/batch"
	"github.com/524D/mzquant/internal/config"
)

// debugLogSpectra prints the calibrants and analytes of the spectra in
// the --debug range. Spectrum numbers count the processed spectra,
// starting at 0. With --debugmz, only calibrants and analytes in that
// m/z range are printed.
func debugLogSpectra(w io.Writer, par *params, sum *batch.Summary) error {
	if par.debugSpecs == `` || len(sum.Entries) == 0 {
		return nil
	}
	debugMin, debugMax, err := config.ParseIntRange(par.debugSpecs, 0, len(sum.Entries)-1)
	if err != nil {
		return fmt.Errorf("--debug %s: %w", par.debugSpecs, err)
	}
	mzMin, mzMax := 0.0, math.MaxFloat64
	if par.debugMz != `` {
		mzMin, mzMax, err = config.ParseFloat64Range(par.debugMz, 0, math.MaxFloat64)
		if err != nil {
			return fmt.Errorf("--debugmz %s: %w", par.debugMz, err)
		}
	}
	inRange := func(mz float64) bool { return mz >= mzMin && mz <= mzMax }

	for i := debugMin; i <= debugMax && i < len(sum.Entries); i++ {
		e := sum.Entries[i]
		fmt.Fprintf(w, "Spectrum:%d name:%s\n", i, e.Name)
		if res := e.Calibration; res != nil {
			fmt.Fprintf(w, "calibrated:%t state:%s found:%d used:%d", res.Calibrated, res.State, res.Found, len(res.Calibrants))
			if res.Reason != `` {
				fmt.Fprintf(w, " reason:%s", res.Reason)
			}
			fmt.Fprintf(w, "\n")
			var ppmSum float64
			for j, c := range res.Calibrants {
				r := res.Residuals[j]
				ppmSum += math.Abs(r.PPM)
				if !inRange(c.Expected) {
					continue
				}
				fmt.Fprintf(w, "%d cal:%s mzCalc:%f mzMeas:%f mzRecal:%f(%0.2fppm) s/n:%0.1f\n",
					j, c.Name, c.Expected, c.Observed, r.Calibrated, r.PPM, c.SN)
			}
			if len(res.Calibrants) > 0 {
				fmt.Fprintf(w, "Mean absolute error after recalibration: %0.2f ppm\n",
					ppmSum/float64(len(res.Calibrants)))
			}
		}
		if q := e.Quantitation; q != nil {
			for _, a := range q.Analytes {
				if !inRange(a.Mz) {
					continue
				}
				fmt.Fprintf(w, "analyte:%s mz:%f area:%f bck:%f noise:%f", a.Label(), a.Mz,
					a.BackgroundSubtractedArea(), a.Background.Area, a.Background.Noise)
				if a.HasPPM {
					fmt.Fprintf(w, " ppm:%0.2f", a.PPM)
				}
				if a.HasIPQ {
					fmt.Fprintf(w, " ipq:%0.4f", a.IPQ)
				}
				fmt.Fprintf(w, "\n")
			}
		}
	}
	return nil
}
