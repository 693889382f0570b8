// Package config contains the processing parameters of a run.
// A Config is filled once (defaults, settings file, command line),
// validated, and then only read.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalid means the configuration can't be used; processing must not start
var ErrInvalid = errors.New("invalid configuration")

// Noise estimation methods
const (
	NoiseRMS = "RMS" // standard deviation of background intensities
	NoiseMM  = "MM"  // max - min of background intensities
)

// Outlier removal methods for calibration
const (
	OutliersNone = "none"
	OutliersMzQC = "mzqc"
	OutliersPPM  = "ppm"
)

// Config holds all processing parameters
type Config struct {
	MassModifiers []string `json:"mass_modifiers"`
	ChargeCarrier string   `json:"charge_carrier"`
	MinCharge     int      `json:"min_charge"`
	MaxCharge     int      `json:"max_charge"`

	// Half width (m/z) of the window around each isotope
	MassWindow float64 `json:"mass_window"`
	// Number of isotope spacings searched on each side for background
	BackgroundWindow    int     `json:"background_window"`
	BackgroundChunkSize int     `json:"background_chunk_size"`
	Noise               string  `json:"noise"`
	SNCutoff            float64 `json:"sn_cutoff"`
	// IPQ terms are weighted by the squared noise
	NoiseQC bool `json:"noise_qc"`

	CalibrationWindow    float64 `json:"calibration_window"`
	CalibrationSNCutoff  float64 `json:"calibration_sn_cutoff"`
	NumLowCalibrants     int     `json:"num_low_calibrants"`
	NumMediumCalibrants  int     `json:"num_medium_calibrants"`
	NumHighCalibrants    int     `json:"num_high_calibrants"`
	NumTotalCalibrants   int     `json:"num_total_calibrants"`
	CalibrationFunction  string  `json:"calibration_function"`
	OutlierRemoval       string  `json:"outlier_removal"`
	OutlierPPM           float64 `json:"outlier_ppm"`
	MinTotalContribution float64 `json:"min_total_contribution"`
	MinContribution      float64 `json:"min_isotope_contribution"`
	Epsilon              float64 `json:"epsilon"`
	DecimalPlaces        int     `json:"decimal_places"`

	// Subtract a polynomial baseline before calibration
	BaselineCorrection bool `json:"baseline_correction"`

	// Unknown composition units are an error instead of being skipped
	StrictComposition bool `json:"strict_composition"`
	// Directory with extra building block definitions
	BlocksDir string `json:"blocks_dir,omitempty"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		MassModifiers:        []string{"free"},
		ChargeCarrier:        "sodium",
		MinCharge:            1,
		MaxCharge:            1,
		MassWindow:           0.2,
		BackgroundWindow:     20,
		BackgroundChunkSize:  5,
		Noise:                NoiseRMS,
		SNCutoff:             9,
		CalibrationWindow:    0.4,
		CalibrationSNCutoff:  9,
		NumLowCalibrants:     3,
		NumMediumCalibrants:  2,
		NumHighCalibrants:    0,
		NumTotalCalibrants:   5,
		CalibrationFunction:  "POLY2",
		OutlierRemoval:       OutliersNone,
		MinTotalContribution: 0.95,
		MinContribution:      1e-4,
		Epsilon:              0.1,
		DecimalPlaces:        8,
	}
}

// Load reads a JSON settings file. Settings that are not present in
// the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	d := json.NewDecoder(f)
	d.DisallowUnknownFields()
	if err := d.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Save writes the configuration as JSON
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	e := json.NewEncoder(f)
	e.SetIndent(``, `  `)
	return e.Encode(c)
}

// Validate checks the numeric parameters and the method names.
// Building block codes are checked when the composition parser is made.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	check(c.ChargeCarrier != "", "no charge carrier")
	check(c.MinCharge >= 1, "min_charge must be >= 1, got %d", c.MinCharge)
	check(c.MaxCharge >= c.MinCharge, "max_charge (%d) < min_charge (%d)", c.MaxCharge, c.MinCharge)
	check(c.MassWindow > 0, "mass_window must be > 0, got %g", c.MassWindow)
	check(c.CalibrationWindow > 0, "calibration_window must be > 0, got %g", c.CalibrationWindow)
	check(c.BackgroundChunkSize >= 1, "background_chunk_size must be >= 1, got %d", c.BackgroundChunkSize)
	check(2*c.BackgroundWindow >= c.BackgroundChunkSize,
		"background_window (%d) too small for chunk size %d", c.BackgroundWindow, c.BackgroundChunkSize)
	check(c.SNCutoff >= 0, "sn_cutoff must be >= 0, got %g", c.SNCutoff)
	check(c.CalibrationSNCutoff >= 0, "calibration_sn_cutoff must be >= 0, got %g", c.CalibrationSNCutoff)
	check(c.NumLowCalibrants >= 0 && c.NumMediumCalibrants >= 0 && c.NumHighCalibrants >= 0 && c.NumTotalCalibrants >= 0,
		"calibrant counts must be >= 0")
	check(c.MinTotalContribution > 0 && c.MinTotalContribution <= 1,
		"min_total_contribution must be in (0,1], got %g", c.MinTotalContribution)
	check(c.MinContribution > 0 && c.MinContribution < 1,
		"min_isotope_contribution must be in (0,1), got %g", c.MinContribution)
	check(c.Epsilon > 0, "epsilon must be > 0, got %g", c.Epsilon)
	check(c.DecimalPlaces >= 0, "decimal_places must be >= 0, got %d", c.DecimalPlaces)

	c.Noise = strings.ToUpper(c.Noise)
	check(c.Noise == NoiseRMS || c.Noise == NoiseMM, "unknown noise method %q", c.Noise)

	c.OutlierRemoval = strings.ToLower(c.OutlierRemoval)
	if c.OutlierRemoval == "" {
		c.OutlierRemoval = OutliersNone
	}
	switch c.OutlierRemoval {
	case OutliersNone, OutliersMzQC:
	case OutliersPPM:
		check(c.OutlierPPM > 0, "outlier_ppm must be > 0 for ppm outlier removal")
	default:
		check(false, "unknown outlier removal method %q", c.OutlierRemoval)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Charges returns the charge states to process, lowest first
func (c Config) Charges() []int {
	var charges []int
	for z := c.MinCharge; z <= c.MaxCharge; z++ {
		charges = append(charges, z)
	}
	return charges
}
