// Package calibration corrects the m/z axis of a spectrum using
// calibrants with known m/z.
//
// A calibration passes through the states CollectingCalibrants,
// Validating, Fitting and Applying, and ends as Done or Rejected. A
// rejected spectrum is returned unchanged; it is not an error.
package calibration

import (
	"errors"
	"fmt"

	"github.com/524D/mzquant/internal/background"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/fit"
	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/peak"
	"github.com/524D/mzquant/internal/reflist"
	"github.com/524D/mzquant/internal/spectrum"
)

// IsotopeSpacing is the m/z distance between the background windows
// of a (singly charged) calibrant
const IsotopeSpacing = 1.00335

// State of a calibration
type State int

const (
	Idle State = iota
	CollectingCalibrants
	Validating
	Fitting
	Applying
	Done
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case CollectingCalibrants:
		return "CollectingCalibrants"
	case Validating:
		return "Validating"
	case Fitting:
		return "Fitting"
	case Applying:
		return "Applying"
	case Done:
		return "Done"
	case Rejected:
		return "Rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Calibrant is a reference that was found in the spectrum
type Calibrant struct {
	Name      string
	Expected  float64
	Observed  float64
	Intensity float64
	// (apex - background) / noise
	SN float64
}

// Residual of a calibrant after calibration
type Residual struct {
	Expected   float64
	Calibrated float64
	PPM        float64
}

// Model is a fitted calibration function
type Model struct {
	Method Method
	P      []float64
}

// Apply returns the calibrated m/z
func (m Model) Apply(mz float64) float64 {
	return m.Method.Apply(mz, m.P)
}

// Result of the calibration of one spectrum
type Result struct {
	State      State
	Calibrated bool
	// Why the calibration was rejected
	Reason string
	Model  Model
	// Number of calibrants found above the S/N cutoff
	Found int
	// Calibrants used for the final fit
	Calibrants []Calibrant
	Residuals  []Residual
	// The calibrated spectrum, or the input spectrum if rejected
	Spectrum *spectrum.Spectrum
}

// Engine calibrates spectra. It holds no state between spectra.
type Engine struct {
	cfg    config.Config
	method Method
	bg     background.Params
	log    logging.Logger
}

// NewEngine creates a calibration engine. An empty calibration function
// selects the function from the mass analyzer of each spectrum.
func NewEngine(cfg config.Config, log logging.Logger) (*Engine, error) {
	e := &Engine{
		cfg: cfg,
		bg:  background.ParamsFromConfig(cfg),
		log: logging.OrNop(log),
	}
	if cfg.CalibrationFunction != "" {
		m, err := ParseMethod(cfg.CalibrationFunction)
		if err != nil {
			return nil, err
		}
		e.method = m
	}
	return e, nil
}

// methodFor returns the calibration function for a spectrum
func (e *Engine) methodFor(s *spectrum.Spectrum) Method {
	if e.method != None {
		return e.method
	}
	m, ok := MethodForAnalyzer(s.Analyzer)
	if !ok {
		e.log.Warn("no calibration function for instrument, using POLY2", logging.Fields{
			"spectrum": s.Name, "analyzer": s.Analyzer,
		})
	}
	return m
}

func reject(s *spectrum.Spectrum, res Result, reason string) Result {
	res.State = Rejected
	res.Calibrated = false
	res.Reason = reason
	res.Spectrum = s
	return res
}

// Calibrate fits a calibration function through the calibrants that are
// found in s, and returns the calibrated spectrum. s is not modified.
// An error is only returned for invalid parameters.
func (e *Engine) Calibrate(s *spectrum.Spectrum, refs []reflist.Calibrant) (Result, error) {
	log := e.log.WithFields(logging.Fields{"spectrum": s.Name})
	res := Result{State: CollectingCalibrants, Model: Model{Method: e.methodFor(s)}}

	cals, err := e.collect(s, refs, log)
	if err != nil {
		return res, err
	}
	res.Found = len(cals)

	res.State = Validating
	if reason := e.validate(s, cals); reason != "" {
		log.Info("calibration rejected", logging.Fields{"reason": reason})
		return reject(s, res, reason), nil
	}

	res.State = Fitting
	method := res.Model.Method
	var p []float64
	satisfied := false
	for !satisfied {
		p, err = solve(method, cals)
		if errors.Is(err, fit.ErrUnderdetermined) {
			return reject(s, res, err.Error()), nil
		}
		if err != nil {
			return reject(s, res, fmt.Sprintf("fit failed: %v", err)), nil
		}
		n := len(cals)
		switch e.cfg.OutlierRemoval {
		case config.OutliersPPM:
			lim := e.cfg.OutlierPPM * 1e-6
			cals, satisfied = removeOutliersPPM(cals, method, p, -lim, lim)
		case config.OutliersMzQC:
			cals, satisfied = removeOutliersMzQC(cals, method, p, log)
		default:
			satisfied = true
		}
		if !satisfied {
			log.Debug("removed outlier calibrants", logging.Fields{"removed": n - len(cals)})
			if reason := e.validate(s, cals); reason != "" {
				log.Info("calibration rejected after outlier removal", logging.Fields{"reason": reason})
				return reject(s, res, reason), nil
			}
		}
	}
	res.Model.P = p

	res.State = Applying
	calibrated, err := s.Transform(res.Model.Apply)
	if err != nil {
		return reject(s, res, err.Error()), nil
	}
	res.Calibrants = cals
	for _, c := range cals {
		mz := res.Model.Apply(c.Observed)
		res.Residuals = append(res.Residuals, Residual{
			Expected:   c.Expected,
			Calibrated: mz,
			PPM:        (mz - c.Expected) / c.Expected * 1e6,
		})
	}
	res.State = Done
	res.Calibrated = true
	res.Spectrum = calibrated
	log.Info("spectrum calibrated", logging.Fields{
		"function": method.String(), "calibrants": len(cals),
	})
	return res, nil
}

// collect looks up every reference in the spectrum and returns the ones
// whose apex is above the S/N cutoff. References whose windows are
// outside the spectrum are discarded.
func (e *Engine) collect(s *spectrum.Spectrum, refs []reflist.Calibrant, log logging.Logger) ([]Calibrant, error) {
	window := e.cfg.CalibrationWindow
	var cals []Calibrant
	for _, ref := range refs {
		fields := logging.Fields{"calibrant": ref.Name, "mz": ref.Mz}
		bg, err := background.Estimate(s, ref.Mz, window, IsotopeSpacing, e.bg)
		if errors.Is(err, config.ErrInvalid) {
			return nil, err
		}
		if err != nil {
			log.Warn("calibrant discarded: "+err.Error(), fields)
			continue
		}
		points, err := s.Window(ref.Mz-window, ref.Mz+window)
		if err != nil {
			log.Warn("calibrant discarded: "+err.Error(), fields)
			continue
		}
		apex := peak.LocateApex(points, log)
		cutoff := bg.Intensity + e.cfg.CalibrationSNCutoff*bg.Noise
		if len(points) == 0 || !(apex.Intensity > cutoff) {
			fields["intensity"] = apex.Intensity
			fields["cutoff"] = cutoff
			log.Warn("calibrant below S/N cutoff", fields)
			continue
		}
		sn := float64(0)
		if bg.Noise > 0 {
			sn = (apex.Intensity - bg.Intensity) / bg.Noise
		}
		cals = append(cals, Calibrant{
			Name:      ref.Name,
			Expected:  ref.Mz,
			Observed:  apex.Mz,
			Intensity: apex.Intensity,
			SN:        sn,
		})
	}
	return cals, nil
}

// validate checks that there are enough calibrants in each third of the
// m/z range of the spectrum. It returns the reason for rejection, or ""
func (e *Engine) validate(s *spectrum.Spectrum, cals []Calibrant) string {
	first, last := s.Range()
	third := (last - first) / 3
	var low, medium, high int
	for _, c := range cals {
		switch {
		case c.Expected < first+third:
			low++
		case c.Expected < first+2*third:
			medium++
		default:
			high++
		}
	}
	switch {
	case low < e.cfg.NumLowCalibrants:
		return fmt.Sprintf("%d calibrants in low m/z range, need %d", low, e.cfg.NumLowCalibrants)
	case medium < e.cfg.NumMediumCalibrants:
		return fmt.Sprintf("%d calibrants in medium m/z range, need %d", medium, e.cfg.NumMediumCalibrants)
	case high < e.cfg.NumHighCalibrants:
		return fmt.Sprintf("%d calibrants in high m/z range, need %d", high, e.cfg.NumHighCalibrants)
	case len(cals) < e.cfg.NumTotalCalibrants:
		return fmt.Sprintf("%d calibrants, need %d", len(cals), e.cfg.NumTotalCalibrants)
	}
	return ""
}
