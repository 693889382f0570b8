// Package quantitation extracts the isotopic envelopes of analytes from
// a (calibrated) spectrum, and computes their areas, signal to noise
// ratios, mass accuracy and isotopic pattern quality.
package quantitation

import (
	"errors"
	"fmt"
	"math"

	"github.com/524D/mzquant/internal/background"
	"github.com/524D/mzquant/internal/blocks"
	"github.com/524D/mzquant/internal/composition"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/isotope"
	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/peak"
	"github.com/524D/mzquant/internal/reflist"
	"github.com/524D/mzquant/internal/spectrum"
	"gonum.org/v1/gonum/floats"
)

// Skip records an analyte that was not quantified
type Skip struct {
	Composition string
	Charge      int
	Reason      string
}

// Result of the quantitation of one spectrum
type Result struct {
	Spectrum string
	// Area of the complete spectrum
	TotalArea float64
	// Analytes in input order, lowest charge first
	Analytes []Analyte
	Skipped  []Skip
}

// Engine quantifies analytes in spectra. The envelope cache is shared
// between spectra; an Engine must not be used concurrently.
type Engine struct {
	cfg    config.Config
	parser *composition.Parser
	cache  *isotope.Cache
	bg     background.Params
	log    logging.Logger
}

// NewEngine creates a quantitation engine. Unknown mass modifiers or
// charge carrier are a configuration error.
func NewEngine(cfg config.Config, t *blocks.Table, log logging.Logger) (*Engine, error) {
	parser, err := composition.NewParserFromConfig(t, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		parser: parser,
		cache:  isotope.NewCache(),
		bg:     background.ParamsFromConfig(cfg),
		log:    logging.OrNop(log),
	}, nil
}

// Cache returns the envelope cache of the engine
func (e *Engine) Cache() *isotope.Cache {
	return e.cache
}

// Check parses all analytes at all charge states, so that composition
// errors of a strict parser are found before any spectrum is processed
func (e *Engine) Check(analytes []reflist.Analyte) error {
	for _, z := range e.cfg.Charges() {
		for _, a := range analytes {
			if _, err := e.parser.Parse(a.Composition, z); err != nil {
				return err
			}
		}
	}
	return nil
}

// envelope returns the (cached) envelope of a composition
func (e *Engine) envelope(c composition.Composition) (isotope.Envelope, error) {
	k := isotope.NewKey(c.Code, c.Charge, e.cfg.MassModifiers, e.cfg.ChargeCarrier,
		e.cfg.Epsilon, e.cfg.MinTotalContribution, e.cfg.MinContribution)
	return e.cache.Get(k, func() (isotope.Envelope, error) {
		return isotope.BuildEnvelope(c.Mass, c.Elements, c.Charge,
			e.cfg.Epsilon, e.cfg.MinTotalContribution, e.cfg.MinContribution)
	})
}

// Quantify extracts all analytes at all charge states from s.
// Analytes that can't be quantified are skipped and logged. An error
// wrapping spectrum.ErrOutOfRange means the spectrum can't be processed
// at all.
func (e *Engine) Quantify(s *spectrum.Spectrum, analytes []reflist.Analyte) (Result, error) {
	log := e.log.WithFields(logging.Fields{"spectrum": s.Name})
	res := Result{Spectrum: s.Name, TotalArea: s.TotalArea()}
	skip := func(comp string, z int, reason string) {
		log.Warn("analyte skipped: "+reason, logging.Fields{"composition": comp, "charge": z})
		res.Skipped = append(res.Skipped, Skip{Composition: comp, Charge: z, Reason: reason})
	}

	for _, z := range e.cfg.Charges() {
		for _, ref := range analytes {
			c, err := e.parser.Parse(ref.Composition, z)
			if err != nil {
				return res, err
			}
			env, err := e.envelope(c)
			if errors.Is(err, isotope.ErrTooManyCombinations) {
				skip(ref.Composition, z, err.Error())
				continue
			}
			if err != nil {
				return res, err
			}
			window := ref.Window
			if window <= 0 {
				window = e.cfg.MassWindow
			}
			lo, hi := env.Span()
			if !s.Contains(lo-window, hi+window) {
				skip(ref.Composition, z, fmt.Sprintf("m/z %.4f-%.4f outside spectrum", lo, hi))
				continue
			}
			a, err := e.analyte(s, c, env, window, log)
			if err != nil {
				return res, fmt.Errorf("analyte %s, charge %d: %w", ref.Composition, z, err)
			}
			res.Analytes = append(res.Analytes, a)
		}
	}
	return res, nil
}

// analyte quantifies one envelope
func (e *Engine) analyte(s *spectrum.Spectrum, c composition.Composition,
	env isotope.Envelope, window float64, log logging.Logger) (Analyte, error) {
	log = log.WithFields(logging.Fields{"composition": c.Code, "charge": c.Charge})
	highest := env.Highest()
	a := Analyte{
		Composition:  c.Code,
		Charge:       c.Charge,
		Mz:           c.MZ(),
		ExactMz:      env[highest].Mass,
		Window:       window,
		Distribution: env.Sum(),
	}

	bg, err := background.Estimate(s, env[0].Mass, window, isotope.Carbon13.Mass/float64(c.Charge), e.bg)
	if err != nil {
		return a, err
	}
	a.Background = bg
	a.Isotopes = append(a.Isotopes, Isotope{
		Index: BackgroundIndex,
		Mz:    env[0].Mass,
		Area:  bg.Area,
	})
	if bg.Noise <= 0 {
		log.Warn("zero noise, S/N set to 0")
	}

	for i, p := range env {
		points, err := s.Window(p.Mass-window, p.Mass+window)
		if err != nil {
			return a, err
		}
		iso := Isotope{
			Index:        i,
			Mz:           p.Mass,
			Fraction:     p.Fraction,
			Area:         peak.IntegrateArea(points),
			MaxIntensity: peak.MaxIntensity(points),
		}
		if bg.Noise > 0 {
			iso.SN = (iso.MaxIntensity - bg.Intensity) / bg.Noise
		}
		if i == highest && len(points) > 0 {
			apex := peak.LocateApex(points, log)
			a.AccurateMz = apex.Mz
			a.PPM = (apex.Mz - a.ExactMz) / a.ExactMz * 1e6
			a.HasPPM = true
		}
		a.Isotopes = append(a.Isotopes, iso)
	}

	e.qualityControl(&a, log)
	return a, nil
}

// qualityControl compares the observed fraction of each isotope with
// its theoretical fraction. Observed fractions are background
// subtracted areas relative to their sum; isotopes below the background
// contribute negative fractions.
func (e *Engine) qualityControl(a *Analyte, log logging.Logger) {
	peaks := a.Peaks()
	observed := make([]float64, len(peaks))
	for i, iso := range peaks {
		observed[i] = iso.Area - a.Background.Area
	}
	total := floats.Sum(observed)
	if total <= 0 {
		log.Warn("no isotopic pattern quality, total area is 0")
		return
	}
	noiseQC := e.cfg.NoiseQC
	if noiseQC && a.Background.Noise <= 0 {
		log.Warn("no isotopic pattern quality, noise is 0")
		return
	}
	ipq := float64(0)
	for i := range peaks {
		d := peaks[i].Fraction - observed[i]/total
		if noiseQC {
			peaks[i].QC = d * d / (a.Background.Noise * a.Background.Noise)
		} else {
			peaks[i].QC = math.Abs(d)
		}
		ipq += peaks[i].QC
	}
	a.IPQ = ipq
	a.HasIPQ = true
}
