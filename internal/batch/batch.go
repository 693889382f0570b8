// Package batch processes a list of spectrum files one after the
// other: every spectrum is calibrated and quantified before the next
// one is read. A spectrum that can't be processed is skipped; the batch
// continues with the next one.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/524D/mzquant/internal/blocks"
	"github.com/524D/mzquant/internal/calibration"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/quantitation"
	"github.com/524D/mzquant/internal/reflist"
	"github.com/524D/mzquant/internal/report"
	"github.com/524D/mzquant/internal/spectrum"
	"github.com/524D/mzquant/internal/store"
	"github.com/google/uuid"
)

// Output file names
const (
	SummaryFile     = "summary.txt"
	CalibrationFile = "calibration.json"
)

// Runner holds everything that is shared by the spectra of a batch.
// Config and Table are only read.
type Runner struct {
	Config config.Config
	Table  *blocks.Table
	Log    logging.Logger

	Software string
	Version  string
	// Directory for the result files; nothing is written when empty
	OutDir string
	// Results database; not used when empty
	DB string
	// Add debug info to the calibration file
	Debug bool
}

// Skipped is a spectrum that could not be processed
type Skipped struct {
	File   string
	Reason string
}

// Summary of a batch
type Summary struct {
	RunID   uuid.UUID
	Entries []report.Entry
	Skipped []Skipped
	Elapsed time.Duration
}

// Calibrated returns the number of calibrated spectra
func (s *Summary) Calibrated() int {
	n := 0
	for i := range s.Entries {
		if s.Entries[i].Calibrated() {
			n++
		}
	}
	return n
}

type engines struct {
	cal   *calibration.Engine
	quant *quantitation.Engine
}

// newEngines checks the configuration and creates the engines that are
// needed. Errors are configuration errors.
func (r *Runner) newEngines(cals []reflist.Calibrant, analytes []reflist.Analyte) (engines, error) {
	var e engines
	if err := r.Config.Validate(); err != nil {
		return e, err
	}
	var err error
	if len(cals) > 0 {
		e.cal, err = calibration.NewEngine(r.Config, r.Log)
		if err != nil {
			return e, err
		}
	}
	if len(analytes) > 0 {
		e.quant, err = quantitation.NewEngine(r.Config, r.Table, r.Log)
		if err != nil {
			return e, err
		}
		if err := e.quant.Check(analytes); err != nil {
			return e, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
	}
	return e, nil
}

// Run processes files. Calibration is done when calibrants are given,
// quantitation when analytes are given. An error is only returned when
// the batch could not run at all, or when the results can't be written.
func (r *Runner) Run(files []string, cals []reflist.Calibrant, analytes []reflist.Analyte) (*Summary, error) {
	r.Log = logging.OrNop(r.Log)
	if r.Table == nil {
		r.Table = blocks.Default()
	}
	t := time.Now()
	e, err := r.newEngines(cals, analytes)
	if err != nil {
		return nil, err
	}
	if r.OutDir != "" {
		if err := os.MkdirAll(r.OutDir, 0755); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	for i, file := range files {
		r.Log.Info("processing spectrum", logging.Fields{"file": file, "nr": i + 1, "of": len(files)})
		entry, err := r.process(file, e, cals, analytes)
		if errors.Is(err, config.ErrInvalid) {
			return sum, err
		}
		if err != nil {
			r.Log.Error(err, "spectrum skipped", logging.Fields{"file": file})
			sum.Skipped = append(sum.Skipped, Skipped{File: file, Reason: err.Error()})
			continue
		}
		sum.Entries = append(sum.Entries, entry)
	}

	if err := r.writeResults(sum, e); err != nil {
		return sum, err
	}
	sum.Elapsed = time.Since(t)
	r.Log.Info("batch done", logging.Fields{
		"spectra": len(sum.Entries), "skipped": len(sum.Skipped),
		"calibrated": sum.Calibrated(), "elapsed": sum.Elapsed.String(),
	})
	return sum, nil
}

// process calibrates and quantifies one spectrum
func (r *Runner) process(file string, e engines, cals []reflist.Calibrant, analytes []reflist.Analyte) (report.Entry, error) {
	log := r.Log.WithFields(logging.Fields{"file": file})
	s, err := spectrum.Read(file)
	if err != nil {
		return report.Entry{}, err
	}
	entry := report.Entry{Name: s.Name}
	log.Debug("spectrum read", logging.Fields{"points": s.Len(), "scan": s.ScanID, "tic": s.TIC})
	if s.Centroid {
		log.Warn("centroided spectrum, areas and background are approximate")
	}
	if offset := s.Uplift(); offset > 0 {
		log.Debug("negative intensities, spectrum uplifted", logging.Fields{"offset": offset})
	}
	if r.Config.BaselineCorrection {
		if err := s.BaselineCorrect(); err != nil {
			log.Warn("no baseline correction: " + err.Error())
		}
	}

	if e.cal != nil {
		res, err := e.cal.Calibrate(s, cals)
		if err != nil {
			return entry, err
		}
		entry.Calibration = &res
		s = res.Spectrum
		if err := r.writeCalibrated(file, &res); err != nil {
			return entry, err
		}
	}

	if e.quant != nil {
		q, err := e.quant.Quantify(s, analytes)
		if err != nil {
			return entry, err
		}
		entry.Quantitation = &q
		if r.OutDir != "" {
			err := writeFile(filepath.Join(r.OutDir, s.Name+".raw"), func(f *os.File) error {
				return report.WriteRaw(f, s.Name, &q, r.Config.DecimalPlaces)
			})
			if err != nil {
				return entry, err
			}
		}
	}
	return entry, nil
}

// writeCalibrated writes the calibrated spectrum and its calibration
// errors. Nothing is written for rejected calibrations.
func (r *Runner) writeCalibrated(file string, res *calibration.Result) error {
	if r.OutDir == "" || !res.Calibrated {
		return nil
	}
	dst := spectrum.CalibratedPath(r.OutDir, file)
	err := spectrum.WriteCalibrated(file, dst, res.Spectrum, r.Config.DecimalPlaces, r.Software, r.Version)
	if err != nil {
		return err
	}
	errFile := strings.TrimSuffix(dst, filepath.Ext(dst)) + ".error"
	return writeFile(errFile, func(f *os.File) error {
		return report.WriteCalibrationErrors(f, *res, r.Config.DecimalPlaces)
	})
}

// writeResults writes the files and database records of the whole batch
func (r *Runner) writeResults(sum *Summary, e engines) error {
	if r.OutDir != "" {
		p := report.Parameters{
			Software:     r.Software,
			Version:      r.Version,
			Config:       r.Config,
			Calibration:  e.cal != nil,
			Quantitation: e.quant != nil,
		}
		err := writeFile(filepath.Join(r.OutDir, SummaryFile), func(f *os.File) error {
			return report.WriteSummary(f, p, sum.Entries)
		})
		if err != nil {
			return err
		}
		if e.cal != nil {
			c := report.NewCalibration(r.Version, r.Config.CalibrationFunction, sum.Entries, r.Debug)
			if err := report.WriteCalibrationJSON(filepath.Join(r.OutDir, CalibrationFile), c); err != nil {
				return err
			}
		}
	}

	if r.DB != "" {
		db, err := store.Open(r.DB)
		if err != nil {
			return err
		}
		run := store.NewRun(r.Software, r.Version, r.Config)
		if err := db.SaveRun(run, sum.Entries); err != nil {
			db.Close()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		sum.RunID = run.ID
	}
	return nil
}

// writeFile creates path and calls write
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
