// Package store saves the results of a run in a SQLite database, so
// that results of many runs can be queried together
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/report"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02T15:04:05Z07:00"

// Run describes one invocation of the program
type Run struct {
	ID       uuid.UUID
	Software string
	Version  string
	Started  time.Time
	Config   config.Config
}

// NewRun returns a run with a new random ID
func NewRun(software, version string, cfg config.Config) Run {
	return Run{
		ID:       uuid.New(),
		Software: software,
		Version:  version,
		Started:  time.Now(),
		Config:   cfg,
	}
}

// Store is a results database
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and if needed creates) a results database
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// createTables creates the required database schema
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		Software TEXT,
		Version TEXT,
		StartDate TEXT,
		Settings TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		Name TEXT,
		Calibrated BOOL,
		Reason TEXT,
		Method TEXT,
		blobParams BLOB,
		TotalArea DOUBLE
	);

	CREATE TABLE IF NOT EXISTS CalibrantTable (
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		Expected DOUBLE,
		Calibrated DOUBLE,
		PPM DOUBLE
	);

	CREATE TABLE IF NOT EXISTS AnalyteTable (
		AnalyteId INTEGER PRIMARY KEY,
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		Composition TEXT,
		Charge INTEGER,
		Mz DOUBLE,
		Window DOUBLE,
		Distribution DOUBLE,
		Background DOUBLE,
		BackgroundArea DOUBLE,
		Noise DOUBLE,
		Area DOUBLE,
		BackgroundSubtractedArea DOUBLE,
		MaxSN DOUBLE,
		PPM DOUBLE,
		IPQ DOUBLE
	);

	CREATE TABLE IF NOT EXISTS IsotopeTable (
		AnalyteId INTEGER REFERENCES AnalyteTable(AnalyteId),
		IsotopeIndex INTEGER,
		Mz DOUBLE,
		Fraction DOUBLE,
		Area DOUBLE,
		MaxIntensity DOUBLE,
		SN DOUBLE,
		QC DOUBLE
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

type statements struct {
	spectrum  *sql.Stmt
	calibrant *sql.Stmt
	analyte   *sql.Stmt
	isotope   *sql.Stmt
}

func prepare(tx *sql.Tx) (*statements, error) {
	var st statements
	var err error
	st.spectrum, err = tx.Prepare(`
		INSERT INTO SpectrumTable (
			RunId, Name, Calibrated, Reason, Method, blobParams, TotalArea
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}
	st.calibrant, err = tx.Prepare(`
		INSERT INTO CalibrantTable (SpectrumId, Expected, Calibrated, PPM) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare calibrant statement: %w", err)
	}
	st.analyte, err = tx.Prepare(`
		INSERT INTO AnalyteTable (
			SpectrumId, Composition, Charge, Mz, Window, Distribution, Background,
			BackgroundArea, Noise, Area, BackgroundSubtractedArea, MaxSN, PPM, IPQ
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare analyte statement: %w", err)
	}
	st.isotope, err = tx.Prepare(`
		INSERT INTO IsotopeTable (
			AnalyteId, IsotopeIndex, Mz, Fraction, Area, MaxIntensity, SN, QC
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare isotope statement: %w", err)
	}
	return &st, nil
}

func (st *statements) close() {
	for _, s := range []*sql.Stmt{st.spectrum, st.calibrant, st.analyte, st.isotope} {
		if s != nil {
			s.Close()
		}
	}
}

// SaveRun writes a run with the results of all its spectra. Either
// everything is written, or nothing.
func (s *Store) SaveRun(run Run, entries []report.Entry) (err error) {
	settings, err := json.Marshal(run.Config)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO RunTable (RunId, Software, Version, StartDate, Settings)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID.String(), run.Software, run.Version, run.Started.Format(runDateFormat), string(settings))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	st, err := prepare(tx)
	if err != nil {
		return err
	}
	defer st.close()
	for i := range entries {
		if err = st.saveSpectrum(run.ID, &entries[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func (st *statements) saveSpectrum(runID uuid.UUID, e *report.Entry) error {
	var reason, method any
	var params []byte
	if c := e.Calibration; c != nil {
		reason = c.Reason
		if c.Calibrated {
			method = c.Model.Method.String()
			params = encodeFloat64(c.Model.P)
		}
	}
	var totalArea any
	if e.Quantitation != nil {
		totalArea = e.Quantitation.TotalArea
	}
	res, err := st.spectrum.Exec(runID.String(), e.Name, e.Calibrated(), reason, method, params, totalArea)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum %s: %w", e.Name, err)
	}
	specID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if c := e.Calibration; c != nil {
		for _, r := range c.Residuals {
			if _, err := st.calibrant.Exec(specID, r.Expected, r.Calibrated, r.PPM); err != nil {
				return fmt.Errorf("failed to insert calibrant: %w", err)
			}
		}
	}
	if e.Quantitation == nil {
		return nil
	}
	for i := range e.Quantitation.Analytes {
		a := &e.Quantitation.Analytes[i]
		var ppm, ipq any
		if a.HasPPM {
			ppm = a.PPM
		}
		if a.HasIPQ {
			ipq = a.IPQ
		}
		res, err := st.analyte.Exec(
			specID,
			a.Composition,
			a.Charge,
			a.Mz,
			a.Window,
			a.Distribution,
			a.Background.Intensity,
			a.Background.Area,
			a.Background.Noise,
			a.TotalArea(),
			a.BackgroundSubtractedArea(),
			a.MaxSN(),
			ppm,
			ipq,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analyte %s: %w", a.Label(), err)
		}
		analyteID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, iso := range a.Isotopes {
			_, err := st.isotope.Exec(analyteID, iso.Index, iso.Mz, iso.Fraction,
				iso.Area, iso.MaxIntensity, iso.SN, iso.QC)
			if err != nil {
				return fmt.Errorf("failed to insert isotope: %w", err)
			}
		}
	}
	return nil
}

// encodeFloat64 encodes values as little-endian float64 blob
func encodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeFloat64 is the inverse of encodeFloat64
func decodeFloat64(buf []byte) []float64 {
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values
}
