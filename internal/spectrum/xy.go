package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadXY reads a spectrum in xy format: one point per line, m/z and
// intensity separated by white space. Lines starting with # and empty
// lines are skipped, extra columns are ignored.
func ReadXY(r io.Reader, name string) (*Spectrum, error) {
	var points []Point
	scanner := bufio.NewScanner(r)
	lineNr := 0
	for scanner.Scan() {
		lineNr++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s line %d: expected m/z and intensity", name, lineNr)
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, lineNr, err)
		}
		intens, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, lineNr, err)
		}
		points = append(points, Point{Mz: mz, Intens: intens})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return New(name, points)
}

// WriteXY writes the spectrum in xy format. m/z values are written with
// the given number of decimals, intensities in the shortest exact form.
func WriteXY(w io.Writer, s *Spectrum, decimals int) error {
	bw := bufio.NewWriter(w)
	for _, p := range s.Points {
		bw.WriteString(strconv.FormatFloat(p.Mz, 'f', decimals, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(p.Intens, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
