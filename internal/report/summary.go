package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/quantitation"
)

// Parameters describes the run in the header of the summary
type Parameters struct {
	Software string
	Version  string
	Config   config.Config
	// Calibration and quantitation parameters are only written when
	// that step was done
	Calibration  bool
	Quantitation bool
}

// Block tags of the summary file
const (
	AnalyteAreaTag         = "Analyte Area"
	AnalyteBckAreaTag      = "Analyte Area - Background Area"
	BackgroundAreaTag      = "Analyte Background Area"
	NoiseTag               = "Analyte Noise"
	RelAreaTag             = "Relative Area"
	RelBckAreaTag          = "Relative Area - Background Area"
	CorrRelBckAreaTag      = "Corrected Relative Area - Background Area"
	FracAnalSpecTag        = "Fraction of spectrum in analytes"
	FracAnalSNTag          = "Fraction of Analyte above S/N cut-off ("
	FracAreaSNTag          = "Fraction of Analyte Area above S/N cut-off ("
	SignalNoiseTag         = "S/N"
	IPQTag                 = "IPQ"
	MassAccuracyTag        = "Mass Accuracy [ppm]"
	totalAreaTag           = "Total Area"
	fractionOfDistribution = "Fraction"
)

// column is an analyte in the summary
type column struct {
	composition string
	charge      int
	label       string
	mz          float64
	dist        float64
}

// columns returns all analytes of the entries, in order of first
// appearance
func columns(entries []Entry) []column {
	type key struct {
		comp   string
		charge int
	}
	seen := make(map[key]bool)
	var cols []column
	for _, e := range entries {
		if e.Quantitation == nil {
			continue
		}
		for i := range e.Quantitation.Analytes {
			a := &e.Quantitation.Analytes[i]
			k := key{a.Composition, a.Charge}
			if seen[k] {
				continue
			}
			seen[k] = true
			cols = append(cols, column{
				composition: a.Composition,
				charge:      a.Charge,
				label:       a.Label(),
				mz:          a.Mz,
				dist:        a.Distribution,
			})
		}
	}
	return cols
}

// massHeader returns the ion notation of the charge carrier
func massHeader(carrier string) string {
	switch carrier {
	case "sodium":
		return "[M+Na]+"
	case "potassium":
		return "[M+K]+"
	case "proton":
		return "[M+H]+"
	case "neg_electron":
		return "[M]+"
	case "neg_proton":
		return "[M-H]-"
	}
	return "[M+" + carrier + "]"
}

type summaryWriter struct {
	w        *bufio.Writer
	entries  []Entry
	cols     []column
	header   string
	decimals int
}

// analyteBlock writes a block with one value per analyte. value returns
// "" for a missing value. total, if not nil, adds a column with a
// value for the spectrum.
func (s *summaryWriter) analyteBlock(tag string, value func(q *quantitation.Result, i int) string,
	total func(q *quantitation.Result) string, fractionRow bool) {
	fmt.Fprintf(s.w, "%s\tCalibrated", tag)
	for _, c := range s.cols {
		fmt.Fprintf(s.w, "\t%s", c.label)
	}
	if total != nil {
		fmt.Fprintf(s.w, "\t%s", totalAreaTag)
	}
	fmt.Fprintf(s.w, "\n\t%s", s.header)
	for _, c := range s.cols {
		fmt.Fprintf(s.w, "\t%s", formatMz(c.mz, s.decimals))
	}
	fmt.Fprintf(s.w, "\n")
	if fractionRow {
		fmt.Fprintf(s.w, "\t%s", fractionOfDistribution)
		for _, c := range s.cols {
			fmt.Fprintf(s.w, "\t%s", formatFloat(c.dist))
		}
		fmt.Fprintf(s.w, "\n")
	}

	for _, e := range s.entries {
		fmt.Fprintf(s.w, "%s\t%s", e.Name, flag(e.Calibrated()))
		q := e.Quantitation
		for _, c := range s.cols {
			v := ""
			if q != nil {
				if i := q.Find(c.composition, c.charge); i >= 0 {
					v = value(q, i)
				}
			}
			fmt.Fprintf(s.w, "\t%s", v)
		}
		if total != nil && q != nil {
			fmt.Fprintf(s.w, "\t%s", total(q))
		}
		fmt.Fprintf(s.w, "\n")
	}
	fmt.Fprintf(s.w, "\n")
}

// spectrumBlock writes a block with one value per spectrum
func (s *summaryWriter) spectrumBlock(tag, valueName string, value func(q *quantitation.Result) float64) {
	fmt.Fprintf(s.w, "%s\tCalibrated\t%s\n", tag, valueName)
	for _, e := range s.entries {
		fmt.Fprintf(s.w, "%s\t%s", e.Name, flag(e.Calibrated()))
		if e.Quantitation != nil {
			fmt.Fprintf(s.w, "\t%s", formatFloat(value(e.Quantitation)))
		}
		fmt.Fprintf(s.w, "\n")
	}
	fmt.Fprintf(s.w, "\n")
}

func writeParameters(w io.Writer, p Parameters) {
	c := p.Config
	fmt.Fprintf(w, "Processing Parameters\n")
	fmt.Fprintf(w, "%s Version\t%s\n", p.Software, p.Version)
	if p.Calibration {
		fmt.Fprintf(w, "Calibration window (peak detection)\t%s\n", formatFloat(c.CalibrationWindow))
		fmt.Fprintf(w, "Minimum signal-to-noise ratio for calibrants\t%s\n", formatFloat(c.CalibrationSNCutoff))
		fmt.Fprintf(w, "Minimum number of calibrants in lower region of spectrum\t%d\n", c.NumLowCalibrants)
		fmt.Fprintf(w, "Minimum number of calibrants in middle region of spectrum\t%d\n", c.NumMediumCalibrants)
		fmt.Fprintf(w, "Minimum number of calibrants in upper region of spectrum\t%d\n", c.NumHighCalibrants)
		fmt.Fprintf(w, "Minimum number of calibrants throughout entire spectrum\t%d\n", c.NumTotalCalibrants)
		fmt.Fprintf(w, "Calibration function\t%s\n", c.CalibrationFunction)
	}
	if p.Quantitation {
		fmt.Fprintf(w, "Charge carrier used for all analytes\t%s\n", c.ChargeCarrier)
		fmt.Fprintf(w, "Mass modifiers applied to all analytes\t%s\n", strings.Join(c.MassModifiers, "\t"))
		fmt.Fprintf(w, "Charge states\t%d-%d\n", c.MinCharge, c.MaxCharge)
		fmt.Fprintf(w, "Extraction width\t%s\n", formatFloat(c.MassWindow))
		fmt.Fprintf(w, "Background detection window\t%d\n", c.BackgroundWindow)
		fmt.Fprintf(w, "Minimum signal-to-noise ratio used in percentage based QC\t%s\n", formatFloat(c.SNCutoff))
		fmt.Fprintf(w, "Minimum fraction of total isotopic distribution used for extraction\t%s\n",
			formatFloat(c.MinTotalContribution))
	}
	fmt.Fprintf(w, "\n")
}

// WriteSummary writes the processing parameters, followed by blocks
// that compare the analytes over all spectra. Spectra are sorted by name.
func WriteSummary(w io.Writer, p Parameters, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	bw := bufio.NewWriter(w)
	writeParameters(bw, p)
	if !p.Quantitation {
		return bw.Flush()
	}

	s := &summaryWriter{
		w:        bw,
		entries:  sorted,
		cols:     columns(entries),
		header:   massHeader(p.Config.ChargeCarrier),
		decimals: p.Config.DecimalPlaces,
	}
	cutoff := p.Config.SNCutoff
	val := func(f func(a *quantitation.Analyte) float64) func(q *quantitation.Result, i int) string {
		return func(q *quantitation.Result, i int) string {
			return formatFloat(f(&q.Analytes[i]))
		}
	}
	rel := func(f func(q *quantitation.Result, i int) float64) func(q *quantitation.Result, i int) string {
		return func(q *quantitation.Result, i int) string {
			return formatFloat(f(q, i))
		}
	}

	s.analyteBlock(AnalyteAreaTag, val((*quantitation.Analyte).TotalArea), nil, false)
	s.analyteBlock(AnalyteBckAreaTag, val((*quantitation.Analyte).BackgroundSubtractedArea), nil, false)
	s.analyteBlock(BackgroundAreaTag, val(func(a *quantitation.Analyte) float64 { return a.Background.Area }), nil, false)
	s.analyteBlock(NoiseTag, val(func(a *quantitation.Analyte) float64 { return a.Background.Noise }), nil, false)
	s.analyteBlock(RelAreaTag, rel((*quantitation.Result).RelativeArea),
		func(q *quantitation.Result) string { return formatFloat(q.AnalyteArea()) }, false)
	s.analyteBlock(RelBckAreaTag, rel((*quantitation.Result).RelativeBackgroundSubtractedArea),
		func(q *quantitation.Result) string { return formatFloat(q.BackgroundSubtractedArea()) }, false)
	s.analyteBlock(CorrRelBckAreaTag, rel((*quantitation.Result).RelativeCorrectedArea),
		func(q *quantitation.Result) string { return formatFloat(q.CorrectedArea()) }, true)

	s.spectrumBlock(FracAnalSpecTag, "Fraction", (*quantitation.Result).FractionInAnalytes)
	s.spectrumBlock(FracAnalSNTag+formatFloat(cutoff)+")", "Percentage",
		func(q *quantitation.Result) float64 { return q.FractionAboveSN(cutoff) })
	s.spectrumBlock(FracAreaSNTag+formatFloat(cutoff)+")", "Percentage",
		func(q *quantitation.Result) float64 { return q.FractionAreaAboveSN(cutoff) })

	s.analyteBlock(SignalNoiseTag, val((*quantitation.Analyte).MaxSN), nil, false)
	s.analyteBlock(IPQTag, func(q *quantitation.Result, i int) string {
		if !q.Analytes[i].HasIPQ {
			return "NA"
		}
		return formatFloat(q.Analytes[i].IPQ)
	}, nil, false)
	s.analyteBlock(MassAccuracyTag, func(q *quantitation.Result, i int) string {
		if !q.Analytes[i].HasPPM {
			return "NA"
		}
		return formatFloat(q.Analytes[i].PPM)
	}, nil, false)
	return bw.Flush()
}
