package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SpectrumRow is a spectrum as stored in the database
type SpectrumRow struct {
	Name       string
	Calibrated bool
	Method     string
	P          []float64
	Calibrants int
	Analytes   int
}

// Runs returns the IDs of all runs, oldest first
func (s *Store) Runs() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT RunId FROM RunTable ORDER BY StartDate, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", id, err)
		}
		ids = append(ids, u)
	}
	return ids, rows.Err()
}

// Spectra returns the spectra of a run in the order they were saved
func (s *Store) Spectra(runID uuid.UUID) ([]SpectrumRow, error) {
	rows, err := s.db.Query(`
		SELECT s.Name, s.Calibrated, s.Method, s.blobParams,
			(SELECT COUNT(*) FROM CalibrantTable c WHERE c.SpectrumId = s.SpectrumId),
			(SELECT COUNT(*) FROM AnalyteTable a WHERE a.SpectrumId = s.SpectrumId)
		FROM SpectrumTable s WHERE s.RunId = ? ORDER BY s.SpectrumId
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query spectra: %w", err)
	}
	defer rows.Close()
	var spectra []SpectrumRow
	for rows.Next() {
		var r SpectrumRow
		var method sql.NullString
		var params []byte
		if err := rows.Scan(&r.Name, &r.Calibrated, &method, &params, &r.Calibrants, &r.Analytes); err != nil {
			return nil, err
		}
		r.Method = method.String
		if params != nil {
			r.P = decodeFloat64(params)
		}
		spectra = append(spectra, r)
	}
	return spectra, rows.Err()
}

// AnalyteArea returns the background subtracted area of an analyte in
// every spectrum of a run where it was quantified
func (s *Store) AnalyteArea(runID uuid.UUID, composition string, charge int) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT s.Name, a.BackgroundSubtractedArea
		FROM AnalyteTable a JOIN SpectrumTable s ON a.SpectrumId = s.SpectrumId
		WHERE s.RunId = ? AND a.Composition = ? AND a.Charge = ?
	`, runID.String(), composition, charge)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyte: %w", err)
	}
	defer rows.Close()
	areas := make(map[string]float64)
	for rows.Next() {
		var name string
		var area float64
		if err := rows.Scan(&name, &area); err != nil {
			return nil, err
		}
		areas[name] = area
	}
	return areas, rows.Err()
}
