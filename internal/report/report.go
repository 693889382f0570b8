// Package report writes the result files of a run: the calibration
// error table, the per spectrum analyte table, the summary of all
// spectra and the calibration parameters in JSON format.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/524D/mzquant/internal/calibration"
	"github.com/524D/mzquant/internal/quantitation"
)

// Entry holds the results of one spectrum. Calibration is nil when no
// calibration was done, Quantitation when no analytes were quantified.
type Entry struct {
	Name         string
	Calibration  *calibration.Result
	Quantitation *quantitation.Result
}

// Calibrated reports whether the spectrum was calibrated
func (e *Entry) Calibrated() bool {
	return e.Calibration != nil && e.Calibration.Calibrated
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatMz(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// WriteCalibrationErrors writes the expected and calibrated m/z of the
// calibrants, with the remaining error in ppm
func WriteCalibrationErrors(w io.Writer, res calibration.Result, decimals int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Expected\tObserved\tPPM Error\n")
	for _, r := range res.Residuals {
		fmt.Fprintf(bw, "%s\t%s\t%s\n", formatMz(r.Expected, decimals),
			formatMz(r.Calibrated, decimals), formatFloat(r.PPM))
	}
	return bw.Flush()
}

// WriteRaw writes one line per analyte with area, S/N and quality
// values of every isotope. The background is written as isotope -1.
func WriteRaw(w io.Writer, name string, q *quantitation.Result, decimals int) error {
	bw := bufio.NewWriter(w)
	maxIso := 0
	for i := range q.Analytes {
		if n := len(q.Analytes[i].Isotopes); n > maxIso {
			maxIso = n
		}
	}
	fmt.Fprintf(bw, "%s\n", name)
	fmt.Fprintf(bw, "Composition\tMass\tWindow\tPercentage of Distribution\tTotal\tMaximum SN\tNoise\tPPM Error of Main Isotope")
	for i := -1; i < maxIso-1; i++ {
		fmt.Fprintf(bw, "\tIso_%d\tS/N Ratio\tQC Value", i)
	}
	fmt.Fprintf(bw, "\n")

	for i := range q.Analytes {
		a := &q.Analytes[i]
		ppm := "NA"
		if a.HasPPM {
			ppm = formatFloat(a.PPM)
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s", a.Label(), formatMz(a.Mz, decimals),
			formatFloat(a.Window), formatFloat(a.Distribution), formatFloat(a.TotalArea()),
			formatFloat(a.MaxSN()), formatFloat(a.Background.Noise), ppm)
		for _, iso := range a.Isotopes {
			fmt.Fprintf(bw, "\t%s\t%s\t%s", formatFloat(iso.Area), formatFloat(iso.SN), formatFloat(iso.QC))
		}
		fmt.Fprintf(bw, "\n")
	}
	return bw.Flush()
}
