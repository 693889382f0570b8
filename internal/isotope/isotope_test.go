package isotope

import (
	"errors"
	"math"
	"testing"

	"github.com/524D/mzquant/internal/blocks"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestDistributionZeroAtoms(t *testing.T) {
	d := NewDistribution(Carbon13, 0, 1e-4)
	want := Distribution{{Mass: 0, Fraction: 1}}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("Distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestDistributionNegativeAtoms(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for negative atom count")
		}
	}()
	NewDistribution(Carbon13, -1, 1e-4)
}

func TestDistributionCarbon(t *testing.T) {
	// 10 carbons: the entry for 4 heavy atoms is the first one below
	// 1e-4 and is still included
	d := NewDistribution(Carbon13, 10, 1e-4)
	want := Distribution{
		{Mass: 0, Fraction: 0.8980077624805511},
		{Mass: 1.00335, Fraction: 0.09712607963754065},
		{Mass: 2.0067, Fraction: 0.0047272017937406065},
		{Mass: 3.01005, Fraction: 0.00013634168049603962},
		{Mass: 4.0134, Fraction: 2.5806104996344298e-06},
	}
	if diff := cmp.Diff(want, d, approx); diff != "" {
		t.Errorf("Distribution mismatch (-want +got):\n%s", diff)
	}
}

// Probabilities below the minimum contribution while still rising
// must not stop the distribution before the mode
func TestDistributionRising(t *testing.T) {
	inc := Increment{Label: "X", Probability: 0.5, Mass: 1}
	d := NewDistribution(inc, 20, 0.01)
	if len(d) < 11 {
		t.Fatalf("Expected distribution to pass the mode, got %d entries", len(d))
	}
	if d[0].Fraction > 0.01 {
		t.Errorf("Expected first fraction below minimum contribution, got: %g", d[0].Fraction)
	}
}

func TestDistributionNormalization(t *testing.T) {
	incs := []Increment{Carbon13, Hydrogen2, Nitrogen15, Oxygen17, Oxygen18,
		Sulfur33, Sulfur34, Sulfur36, {Label: "X", Probability: 0.3, Mass: 1}}
	for _, inc := range incs {
		for _, n := range []int{0, 1, 2, 5, 10, 56, 100, 500, 1000} {
			d := NewDistribution(inc, n, 1e-4)
			sum := d.Sum()
			if sum <= 0 || sum > 1+1e-12 {
				t.Errorf("%s n=%d: expected 0 < sum <= 1, got: %v", inc.Label, n, sum)
			}
			mode := int(math.Floor(float64(n+1) * inc.Probability))
			for j := mode + 1; j < len(d); j++ {
				if d[j].Fraction > d[j-1].Fraction {
					t.Errorf("%s n=%d: fraction rises after mode at %d", inc.Label, n, j)
				}
			}
		}
	}
}

func TestEnvelopeSingleEntry(t *testing.T) {
	env, err := BuildEnvelope(22.98922070, blocks.Elements{}, 1, 0.1, 0.95, 1e-4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := Envelope{{Mass: 22.98922070, Fraction: 1}}
	if diff := cmp.Diff(want, env); diff != "" {
		t.Errorf("Envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvelopeCharge(t *testing.T) {
	el := blocks.Elements{C: 56, H: 94, N: 4, O: 41}
	env1, err := BuildEnvelope(1501.52856913574, el, 1, 0.1, 0.95, 1e-4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	env2, err := BuildEnvelope(1501.52856913574, el, 2, 0.05, 0.95, 1e-4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(env1) != len(env2) {
		t.Fatalf("Expected envelopes of equal length, got: %d and %d", len(env1), len(env2))
	}
	for i := range env1 {
		if math.Abs(env1[i].Mass/2-env2[i].Mass) > 1e-9 {
			t.Errorf("Expected m/z %v at charge 2, got: %v", env1[i].Mass/2, env2[i].Mass)
		}
	}
	if _, err := BuildEnvelope(100, el, 0, 0.1, 0.95, 1e-4); err == nil {
		t.Errorf("Expected error for charge 0, got nil")
	}
}

func TestEnvelopeTruncation(t *testing.T) {
	el := blocks.Elements{C: 56, H: 94, N: 4, O: 41}
	const eps, minTotal = 0.1, 0.95
	env, err := BuildEnvelope(1501.52856913574, el, 1, eps, minTotal, 1e-4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(env) < 2 {
		t.Fatalf("Expected more than one isotope, got: %d", len(env))
	}
	smallest := math.Inf(1)
	for i := range env {
		if i > 0 {
			if env[i].Mass <= env[i-1].Mass {
				t.Errorf("Envelope not sorted by mass at %d", i)
			}
		}
		for j := i + 1; j < len(env); j++ {
			if math.Abs(env[i].Mass-env[j].Mass) < eps {
				t.Errorf("Entries %d and %d closer than epsilon", i, j)
			}
		}
		smallest = math.Min(smallest, env[i].Fraction)
	}
	sum := env.Sum()
	if sum <= minTotal {
		t.Errorf("Expected total fraction > %v, got: %v", minTotal, sum)
	}
	if sum-smallest > minTotal {
		t.Errorf("Envelope is not the smallest set exceeding %v: %v without smallest entry", minTotal, sum-smallest)
	}
	if env.Highest() != 0 {
		t.Errorf("Expected monoisotopic peak to be the highest, got index %d", env.Highest())
	}
}

func TestEnvelopeTooLarge(t *testing.T) {
	inc := blocks.Elements{C: 100000, H: 100000, N: 100000, O: 100000, S: 100000}
	_, err := BuildEnvelope(1e6, inc, 1, 0.1, 0.95, 1e-4)
	if !errors.Is(err, ErrTooManyCombinations) {
		t.Errorf("Expected error: %v, got: %v", ErrTooManyCombinations, err)
	}
}

func TestMergeChaining(t *testing.T) {
	peaks := []Peak{{Mass: 100.00, Fraction: 1}, {Mass: 100.08, Fraction: 3}, {Mass: 100.15, Fraction: 1}}

	// A single pass only merges the first two
	first := mergePeaks(peaks, 0.1)
	if len(first) != 2 {
		t.Fatalf("Expected 2 peaks after one pass, got: %d", len(first))
	}

	got := mergeAll(peaks, 0.1)
	want := []Peak{{Mass: 100.078, Fraction: 5}}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	builds := 0
	build := func() (Envelope, error) {
		builds++
		return Envelope{{Mass: 1, Fraction: 1}}, nil
	}
	k1 := NewKey("H4N4", 1, []string{"free", "Ac"}, "sodium", 0.1, 0.95, 1e-4)
	k2 := NewKey("H4N4", 1, []string{"Ac", "free"}, "sodium", 0.1, 0.95, 1e-4)
	k3 := NewKey("H4N4", 2, []string{"Ac", "free"}, "sodium", 0.1, 0.95, 1e-4)
	for _, k := range []Key{k1, k2, k3} {
		if _, err := c.Get(k, build); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}
	if builds != 2 || c.Len() != 2 {
		t.Errorf("Expected 2 builds and 2 cached envelopes, got: %d and %d", builds, c.Len())
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Expected 1 hit and 2 misses, got: %d and %d", hits, misses)
	}

	// A different minimum isotope contribution is a different envelope
	k5 := NewKey("H4N4", 1, []string{"free", "Ac"}, "sodium", 0.1, 0.95, 1e-3)
	if k5 == k1 {
		t.Errorf("Expected keys to differ in minimum contribution")
	}
	if _, err := c.Get(k5, build); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if builds != 3 || c.Len() != 3 {
		t.Errorf("Expected 3 builds and 3 cached envelopes, got: %d and %d", builds, c.Len())
	}

	failing := func() (Envelope, error) { return nil, ErrTooManyCombinations }
	k4 := NewKey("H400", 1, nil, "sodium", 0.1, 0.95, 1e-4)
	if _, err := c.Get(k4, failing); !errors.Is(err, ErrTooManyCombinations) {
		t.Errorf("Expected error: %v, got: %v", ErrTooManyCombinations, err)
	}
	if c.Len() != 3 {
		t.Errorf("Expected failed build not to be cached")
	}
}
