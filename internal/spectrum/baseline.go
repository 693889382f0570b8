package spectrum

import (
	"math"

	"github.com/524D/mzquant/internal/fit"
	"gonum.org/v1/gonum/stat"
)

const baselineDegree = 3

// BaselineCorrect subtracts a baseline from the intensities. The
// baseline is a third degree polynomial fitted through the points whose
// intensity lies within one standard deviation of the mean intensity.
// Intensities below the baseline are set to 0. When too few points qualify, an error is returned and the intensities
// are not changed.
func (s *Spectrum) BaselineCorrect() error {
	intens := make([]float64, len(s.Points))
	for i, p := range s.Points {
		intens[i] = p.Intens
	}
	mean, std := stat.PopMeanStdDev(intens, nil)

	var x, y []float64
	for _, p := range s.Points {
		if p.Intens >= mean-std && p.Intens <= mean+std {
			x = append(x, p.Mz)
			y = append(y, p.Intens)
		}
	}
	coef, err := fit.Polynomial(x, y, baselineDegree)
	if err != nil {
		return err
	}
	for i := range s.Points {
		s.Points[i].Intens = math.Max(s.Points[i].Intens-fit.Eval(coef, s.Points[i].Mz), 0)
	}
	return nil
}
