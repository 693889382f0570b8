package quantitation

// Projections over a Result used by the reports. Fractions with a zero
// denominator are 0.

// AnalyteArea returns the summed area of all analytes
func (r *Result) AnalyteArea() float64 {
	total := float64(0)
	for i := range r.Analytes {
		total += r.Analytes[i].TotalArea()
	}
	return total
}

// BackgroundSubtractedArea returns the summed background subtracted area
// of all analytes
func (r *Result) BackgroundSubtractedArea() float64 {
	total := float64(0)
	for i := range r.Analytes {
		total += r.Analytes[i].BackgroundSubtractedArea()
	}
	return total
}

// CorrectedArea returns the summed corrected area of all analytes
func (r *Result) CorrectedArea() float64 {
	total := float64(0)
	for i := range r.Analytes {
		total += r.Analytes[i].CorrectedArea()
	}
	return total
}

func fraction(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// RelativeArea returns the area of analyte i relative to all analytes
func (r *Result) RelativeArea(i int) float64 {
	return fraction(r.Analytes[i].TotalArea(), r.AnalyteArea())
}

// RelativeBackgroundSubtractedArea returns the background subtracted
// area of analyte i relative to all analytes
func (r *Result) RelativeBackgroundSubtractedArea(i int) float64 {
	return fraction(r.Analytes[i].BackgroundSubtractedArea(), r.BackgroundSubtractedArea())
}

// RelativeCorrectedArea returns the corrected area of analyte i
// relative to all analytes
func (r *Result) RelativeCorrectedArea(i int) float64 {
	return fraction(r.Analytes[i].CorrectedArea(), r.CorrectedArea())
}

// FractionInAnalytes returns the fraction of the spectrum area that is
// explained by the analytes
func (r *Result) FractionInAnalytes() float64 {
	return fraction(r.AnalyteArea(), r.TotalArea)
}

// FractionAboveSN returns the fraction of the analytes with an isotope
// above the S/N cutoff
func (r *Result) FractionAboveSN(cutoff float64) float64 {
	n := 0
	for i := range r.Analytes {
		if r.Analytes[i].AboveSN(cutoff) {
			n++
		}
	}
	return fraction(float64(n), float64(len(r.Analytes)))
}

// FractionAreaAboveSN returns the fraction of the background subtracted
// analyte area in analytes above the S/N cutoff
func (r *Result) FractionAreaAboveSN(cutoff float64) float64 {
	area := float64(0)
	for i := range r.Analytes {
		if r.Analytes[i].AboveSN(cutoff) {
			area += r.Analytes[i].BackgroundSubtractedArea()
		}
	}
	return fraction(area, r.BackgroundSubtractedArea())
}

// Find returns the index of an analyte, or -1
func (r *Result) Find(composition string, charge int) int {
	for i := range r.Analytes {
		if r.Analytes[i].Composition == composition && r.Analytes[i].Charge == charge {
			return i
		}
	}
	return -1
}
