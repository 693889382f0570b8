package report

import (
	"encoding/json"
	"os"

	"github.com/524D/mzquant/internal/calibration"
)

// CalibrationDebugInfo is written for every spectrum in debug mode
type CalibrationDebugInfo struct {
	CalibrantsFound int
	CalibrantsUsed  int
	State           string
}

// SpectrumCalibration contains the calibration of one spectrum. Method
// determines which computation must be done with P to obtain the
// calibrated m/z.
type SpectrumCalibration struct {
	Spectrum   string
	Calibrated bool
	Reason     string `json:",omitempty"`
	Method     string `json:",omitempty"`
	P          []float64
	Residuals  []calibration.Residual `json:",omitempty"`
	DebugInfo  *CalibrationDebugInfo  `json:",omitempty"`
}

// Calibration contains the calibration parameters of all spectra of a
// run
type Calibration struct {
	// Version of the software that wrote the parameters
	MzQuantVersion string
	// Configured calibration function, "auto" when selected per instrument
	RecalMethod  string
	SpecRecalPar []SpectrumCalibration
}

// NewCalibration collects the calibration results of the entries.
// Entries without calibration are left out.
func NewCalibration(version, method string, entries []Entry, debug bool) Calibration {
	if method == "" {
		method = "auto"
	}
	c := Calibration{MzQuantVersion: version, RecalMethod: method}
	for _, e := range entries {
		res := e.Calibration
		if res == nil {
			continue
		}
		sc := SpectrumCalibration{
			Spectrum:   e.Name,
			Calibrated: res.Calibrated,
			Reason:     res.Reason,
			Residuals:  res.Residuals,
		}
		if res.Calibrated {
			sc.Method = res.Model.Method.String()
			sc.P = res.Model.P
		}
		if debug {
			sc.DebugInfo = &CalibrationDebugInfo{
				CalibrantsFound: res.Found,
				CalibrantsUsed:  len(res.Calibrants),
				State:           res.State.String(),
			}
		}
		c.SpecRecalPar = append(c.SpecRecalPar, sc)
	}
	return c
}

// WriteCalibrationJSON writes the calibration parameters to a file
func WriteCalibrationJSON(path string, c Calibration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	e := json.NewEncoder(f)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	return e.Encode(c)
}

// ReadCalibrationJSON reads calibration parameters written by
// WriteCalibrationJSON
func ReadCalibrationJSON(path string) (Calibration, error) {
	var c Calibration
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	d := json.NewDecoder(f)
	err = d.Decode(&c)
	return c, err
}
