package calibration

import (
	"fmt"
	"math"
	"strings"

	"github.com/524D/mzquant/internal/config"
)

// Method is a calibration function
type Method int

// The calibration functions that we can handle
const (
	None Method = iota
	FTICR
	TOF
	Orbitrap
	Offset
	Poly1
	Poly2
	Poly3
	Poly4
	Poly5
)

var methodNames = map[Method]string{
	None:     `NONE`,
	FTICR:    `FTICR`,
	TOF:      `TOF`,
	Orbitrap: `Orbitrap`,
	Offset:   `OFFSET`,
	Poly1:    `POLY1`,
	Poly2:    `POLY2`,
	Poly3:    `POLY3`,
	Poly4:    `POLY4`,
	Poly5:    `POLY5`,
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a (case insensitive) function name into a Method
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if m != None && strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: unknown calibration function %q", config.ErrInvalid, s)
}

// MethodForAnalyzer returns the calibration function that fits a mass
// analyzer type. ok is false when there is no specific function for the
// analyzer, in which case POLY2 is returned.
func MethodForAnalyzer(analyzer string) (m Method, ok bool) {
	switch analyzer {
	case `FTICR`:
		return FTICR, true
	case `TOF`:
		return TOF, true
	case `Orbitrap`:
		return Orbitrap, true
	}
	return Poly2, false
}

// NrParams returns the number of calibration parameters
func (m Method) NrParams() int {
	switch m {
	case FTICR:
		return 2
	case TOF:
		return 3
	case Orbitrap:
		return 2
	case Offset:
		return 1
	case Poly1:
		return 2
	case Poly2:
		return 3
	case Poly3:
		return 4
	case Poly4:
		return 5
	case Poly5:
		return 6
	}
	return 0
}

// degree returns the polynomial degree, or -1 for non-polynomial functions
func (m Method) degree() int {
	if m >= Poly1 && m <= Poly5 {
		return int(m-Poly1) + 1
	}
	return -1
}

func polyN(mzMeas float64, p []float64, degree int) float64 {
	mp := float64(1.0)
	mzCalib := float64(0.0)
	for i := 0; i <= degree; i++ {
		mzCalib += p[i] * mp
		mp *= mzMeas
	}
	return mzCalib
}

// Apply computes the calibrated m/z according to calibration parameters
func (m Method) Apply(mzMeas float64, p []float64) float64 {
	switch m {
	case FTICR:
		// mzCalib = Ca/((1/mzMeas)-Cb)
		return p[1] / ((1 / mzMeas) - p[0])
	case TOF:
		return p[2]*math.Sqrt(mzMeas) + p[1]*mzMeas + p[0]
	case Orbitrap:
		// mzCalib = A/((f-B)^2) =
		//      A / ((1/sqrt(mzMeas))-B)^2
		a := p[1]
		b := p[0]
		fb := 1/math.Sqrt(mzMeas) - b
		return a / (fb * fb)
	case Offset:
		return mzMeas + p[0]
	case Poly1, Poly2, Poly3, Poly4, Poly5:
		return polyN(mzMeas, p, m.degree())
	}
	return mzMeas
}

// initialParams returns parameters for which Apply is the identity
func (m Method) initialParams() []float64 {
	p := make([]float64, m.NrParams())
	if len(p) > 1 {
		p[1] = 1.0
	}
	return p
}
