package store

import (
	"path/filepath"
	"testing"

	"github.com/524D/mzquant/internal/background"
	"github.com/524D/mzquant/internal/calibration"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/quantitation"
	"github.com/524D/mzquant/internal/report"
	"github.com/google/go-cmp/cmp"
)

func entries() []report.Entry {
	q := &quantitation.Result{
		TotalArea: 1000,
		Analytes: []quantitation.Analyte{{
			Composition: "H4N4",
			Charge:      1,
			Background:  background.Result{Area: 10},
			Isotopes: []quantitation.Isotope{
				{Index: quantitation.BackgroundIndex, Area: 10},
				{Index: 0, Area: 110, SN: 20},
				{Index: 1, Area: 60, SN: 10},
			},
			HasPPM: true,
		}},
	}
	return []report.Entry{
		{
			Name: "a",
			Calibration: &calibration.Result{
				Calibrated: true,
				Model:      calibration.Model{Method: calibration.Poly2, P: []float64{0.01, 0.99999, 1e-9}},
				Residuals:  []calibration.Residual{{Expected: 1000}, {Expected: 1500}, {Expected: 2000}},
			},
			Quantitation: q,
		},
		{
			Name:         "b",
			Calibration:  &calibration.Result{Reason: "too few calibrants"},
			Quantitation: &quantitation.Result{},
		},
	}
}

func TestSaveRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	run := NewRun("mzQuant", "1.0", config.Default())
	if err := s.SaveRun(run, entries()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Reopen to check that the results were committed
	s, err = Open(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer s.Close()
	runs, err := s.Runs()
	if err != nil || len(runs) != 1 || runs[0] != run.ID {
		t.Fatalf("Expected run %v, got: %v (%v)", run.ID, runs, err)
	}

	spectra, err := s.Spectra(run.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := []SpectrumRow{
		{Name: "a", Calibrated: true, Method: "POLY2", P: []float64{0.01, 0.99999, 1e-9}, Calibrants: 3, Analytes: 1},
		{Name: "b"},
	}
	if diff := cmp.Diff(want, spectra); diff != "" {
		t.Errorf("Spectra mismatch (-want +got):\n%s", diff)
	}

	areas, err := s.AnalyteArea(run.ID, "H4N4", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"a": 150}, areas); diff != "" {
		t.Errorf("Area mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRunTwice(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer s.Close()
	run := NewRun("mzQuant", "1.0", config.Default())
	if err := s.SaveRun(run, entries()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// Same run ID violates the primary key; nothing of the second run
	// may be left behind
	if err := s.SaveRun(run, entries()); err == nil {
		t.Errorf("Expected error for duplicate run")
	}
	spectra, err := s.Spectra(run.ID)
	if err != nil || len(spectra) != 2 {
		t.Errorf("Expected 2 spectra, got: %d (%v)", len(spectra), err)
	}

	other := NewRun("mzQuant", "1.0", config.Default())
	if err := s.SaveRun(other, entries()[:1]); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	runs, err := s.Runs()
	if err != nil || len(runs) != 2 {
		t.Errorf("Expected 2 runs, got: %v (%v)", runs, err)
	}
}

func TestEncodeFloat64(t *testing.T) {
	v := []float64{0, -1.5, 1e-300, 12345.678}
	if diff := cmp.Diff(v, decodeFloat64(encodeFloat64(v))); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}
