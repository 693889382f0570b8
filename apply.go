package main

import (
	"fmt"
	"os"

	"github.com/524D/mzquant/internal/calibration"
	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/report"
	"github.com/524D/mzquant/internal/spectrum"
)

// apply calibrates files with the parameters of an earlier run, read
// from par.calFile. Spectra are matched by name. Spectra without
// (accepted) calibration are not written.
func apply(par *params, files []string) error {
	log, err := newLogger(par)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(par)
	if err != nil {
		return err
	}
	c, err := report.ReadCalibrationJSON(par.calFile)
	if err != nil {
		return fmt.Errorf("failed to read calibration file: %w", err)
	}
	bySpectrum := make(map[string]report.SpectrumCalibration, len(c.SpecRecalPar))
	for _, sc := range c.SpecRecalPar {
		bySpectrum[sc.Spectrum] = sc
	}
	if err := os.MkdirAll(par.outDir, 0755); err != nil {
		return err
	}

	written := 0
	for _, file := range files {
		sc, ok := bySpectrum[spectrum.Name(file)]
		if !ok || !sc.Calibrated {
			log.Warn("no calibration for spectrum", logging.Fields{"file": file})
			continue
		}
		if err := applyFile(file, par.outDir, sc, cfg.DecimalPlaces); err != nil {
			log.Error(err, "spectrum skipped", logging.Fields{"file": file})
			continue
		}
		log.Debug("spectrum calibrated", logging.Fields{"file": file, "function": sc.Method})
		written++
	}
	if !par.quiet {
		fmt.Fprintf(os.Stderr, "Calibrated %d of %d spectra\n", written, len(files))
	}
	return nil
}

func applyFile(file, outDir string, sc report.SpectrumCalibration, decimals int) error {
	method, err := calibration.ParseMethod(sc.Method)
	if err != nil {
		return err
	}
	if len(sc.P) != method.NrParams() {
		return fmt.Errorf("%s needs %d parameters, got %d", sc.Method, method.NrParams(), len(sc.P))
	}
	model := calibration.Model{Method: method, P: sc.P}
	s, err := spectrum.Read(file)
	if err != nil {
		return err
	}
	calibrated, err := s.Transform(model.Apply)
	if err != nil {
		return err
	}
	return spectrum.WriteCalibrated(file, spectrum.CalibratedPath(outDir, file), calibrated,
		decimals, progName, progVersion)
}
