package spectrum

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/524D/mzquant/internal/mzml"
)

// ErrUnknownFormat means the file extension is not a known spectrum format
var ErrUnknownFormat = errors.New("unknown spectrum file format")

// Data processing step added to calibrated mzML files
func calibrationProcessing(software string) mzml.DataProcessing {
	return mzml.DataProcessing{
		ID: software,
		ProcessingMeth: []mzml.ProcessingMethod{
			{
				Order:       0,
				SoftwareRef: software,
				CvPar: []mzml.CVParam{
					{
						CvRef:     `MS`,
						Accession: `MS:1001485`,
						Name:      `m/z calibration`,
					},
				},
			},
		},
	}
}

// Name returns the spectrum name for a file: the base name without
// extension
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isMzML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mzml")
}

// Read reads a spectrum file. Files with extension .mzML are read as
// mzML, using the first MS1 scan; .xy and .txt files are read as xy.
func Read(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := Name(path)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xy", ".txt":
		return ReadXY(f, name)
	case ".mzml":
		mzML, err := mzml.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		idx, err := mzML.FirstScan(1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		peaks, err := mzML.ReadScan(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s, err := New(name, peaks)
		if err != nil {
			return nil, err
		}
		// Missing instrument info is not an error
		s.Analyzer, _ = mzML.Analyzer()
		if s.ScanID, err = mzML.ScanID(idx); err != nil {
			return nil, err
		}
		if s.Centroid, err = mzML.Centroid(idx); err != nil {
			return nil, err
		}
		tic, err := mzML.TotalIonCurrent(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: total ion current: %w", path, err)
		}
		if !math.IsNaN(tic) {
			s.TIC = tic
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownFormat, ext)
	}
}

// WriteCalibrated writes the calibrated spectrum s to dst, in the same
// format as the source file src. For mzML, the source file is copied
// with the m/z values of its first MS1 scan replaced, and the software
// and data processing lists are extended.
func WriteCalibrated(src, dst string, s *Spectrum, decimals int, software, version string) error {
	if !isMzML(src) {
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		if err := WriteXY(f, s, decimals); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	mzML, err := mzml.Read(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	idx, err := mzML.FirstScan(1)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := mzML.UpdateScan(idx, s.Points, true, false); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	mzML.AppendSoftwareInfo(software, version)
	mzML.AppendDataProcessing(calibrationProcessing(software))

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := mzML.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CalibratedPath returns the output file name of a calibrated spectrum
func CalibratedPath(outDir, src string) string {
	return filepath.Join(outDir, "calibrated_"+filepath.Base(src))
}
