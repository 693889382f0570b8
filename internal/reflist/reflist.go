// Package reflist reads calibrant and analyte reference lists.
//
// Both are plain text files with one entry per line and fields separated
// by tabs or spaces. Empty lines and lines starting with # are skipped,
// as are header lines whose numeric columns don't parse as numbers.
package reflist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Calibrant is a reference compound with known m/z
type Calibrant struct {
	Name string
	Mz   float64
}

// Analyte is a composition to quantify. Window is the half width of the
// integration window around each isotope; 0 means the configured
// default.
type Analyte struct {
	Composition string
	Window      float64
}

// eachLine calls f with the fields of every non-comment line
func eachLine(r io.Reader, f func(lineNr int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	lineNr := 0
	for scanner.Scan() {
		lineNr++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := f(lineNr, strings.Fields(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// isHeader reports whether the first line contains a column title
// instead of a number
func isHeader(lineNr int, field string) bool {
	if lineNr != 1 {
		return false
	}
	_, err := strconv.ParseFloat(field, 64)
	return err != nil
}

// ReadCalibrants reads lines of the form "name m/z [ignored...]"
func ReadCalibrants(r io.Reader) ([]Calibrant, error) {
	var cals []Calibrant
	err := eachLine(r, func(lineNr int, fields []string) error {
		if len(fields) < 2 {
			return fmt.Errorf("line %d: expected name and m/z", lineNr)
		}
		if isHeader(lineNr, fields[1]) {
			return nil
		}
		mz, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNr, err)
		}
		cals = append(cals, Calibrant{Name: fields[0], Mz: mz})
		return nil
	})
	return cals, err
}

// ReadAnalytes reads lines of the form "composition [window [ignored...]]"
func ReadAnalytes(r io.Reader) ([]Analyte, error) {
	var analytes []Analyte
	err := eachLine(r, func(lineNr int, fields []string) error {
		a := Analyte{Composition: fields[0]}
		if len(fields) > 1 {
			if isHeader(lineNr, fields[1]) {
				return nil
			}
			w, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNr, err)
			}
			if w < 0 {
				return fmt.Errorf("line %d: negative window %v", lineNr, w)
			}
			a.Window = w
		}
		analytes = append(analytes, a)
		return nil
	})
	return analytes, err
}

// ReadCalibrantsFile reads a calibrant list from a file
func ReadCalibrantsFile(path string) ([]Calibrant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cals, err := ReadCalibrants(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cals, nil
}

// ReadAnalytesFile reads an analyte list from a file
func ReadAnalytesFile(path string) ([]Analyte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	analytes, err := ReadAnalytes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return analytes, nil
}
