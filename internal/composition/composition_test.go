package composition

import (
	"errors"
	"math"
	"testing"

	"github.com/524D/mzquant/internal/blocks"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/isotope"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const (
	massHex    = 162.0528234185
	massHexNAc = 203.07937251951
	massWater  = 18.0105646837
	massNa     = 22.98922070
)

func newParser(t *testing.T, modifiers []string, carrier string, strict bool) *Parser {
	t.Helper()
	p, err := NewParser(blocks.Default(), modifiers, carrier, strict)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return p
}

// H4N4 with a free reducing end and sodium charge carrier
func TestParseHexNAc(t *testing.T) {
	p := newParser(t, []string{"free"}, "sodium", false)
	c, err := p.Parse("H4N4", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := Composition{
		Code:     "H4N4",
		Charge:   1,
		Mass:     4*massHex + 4*massHexNAc + massWater + massNa,
		Elements: blocks.Elements{C: 56, H: 94, N: 4, O: 41},
		Units:    8,
	}
	if diff := cmp.Diff(want, c, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Composition mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(c.Mass-1501.52856913574) > 1e-6 {
		t.Errorf("Expected mass 1501.52857, got: %v", c.Mass)
	}

	// The most abundant isotope is the monoisotopic peak
	env, err := isotope.BuildEnvelope(c.Mass, c.Elements, c.Charge, 0.1, 0.95, 1e-4)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	top := env[env.Highest()]
	if math.Abs(top.Mass-c.Mass) > 0.003 {
		t.Errorf("Expected most abundant isotope at %v, got: %v", c.Mass, top.Mass)
	}
}

func TestParseUnknownUnit(t *testing.T) {
	p := newParser(t, []string{"free"}, "sodium", false)
	want, err := p.Parse("H4N4", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	got, err := p.Parse("H4Z9N4", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.Mass != want.Mass || got.Elements != want.Elements || got.Units != want.Units {
		t.Errorf("Expected H4Z9N4 to equal H4N4, got: %+v", got)
	}

	strict := newParser(t, []string{"free"}, "sodium", true)
	if _, err := strict.Parse("H4Z9N4", 1); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("Expected error: %v, got: %v", ErrUnknownUnit, err)
	}
	if _, err := strict.Parse("H4N4", 1); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestParsePermethylation(t *testing.T) {
	p := newParser(t, []string{"Per", "free"}, "sodium", false)
	c, err := p.Parse("H5N4", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// 46 oxygens, 9 units: 46 - 16 - 1 = 29 sites
	const sites = 29
	wantMass := 5*massHex + 4*massHexNAc + massWater + massNa + sites*14.01565006
	if math.Abs(c.Mass-wantMass) > 1e-9 {
		t.Errorf("Expected mass %v, got: %v", wantMass, c.Mass)
	}
	wantEl := blocks.Elements{C: 62 + sites, H: 104 + 2*sites, N: 4, O: 46}
	if c.Elements != wantEl {
		t.Errorf("Expected elements %+v, got: %+v", wantEl, c.Elements)
	}

	// Sialic acids have one site less
	c2, err := p.Parse("H5N4S1", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// 54 oxygens, 10 units: 54 - 18 - 1 - 1 = 34 sites
	if got := c2.Elements.C - (62 + 11); got != 34 {
		t.Errorf("Expected 34 methylation sites, got: %d", got)
	}
}

func TestParseProtonLoss(t *testing.T) {
	p := newParser(t, []string{"free", "sodium"}, "sodium", false)
	c, err := p.Parse("H3", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := 3*massHex + massWater + massNa - 1.007276466812 + massNa
	if math.Abs(c.Mass-want) > 1e-9 {
		t.Errorf("Expected mass %v, got: %v", want, c.Mass)
	}
}

func TestParseProtonLossOnce(t *testing.T) {
	p := newParser(t, []string{"free", "sodium", "potassium"}, "sodium", false)
	c, err := p.Parse("H3", 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// Two cation modifiers still lose a single proton
	want := 3*massHex + massWater + massNa + 38.9631581 - 1.007276466812 + massNa
	if math.Abs(c.Mass-want) > 1e-9 {
		t.Errorf("Expected mass %v, got: %v", want, c.Mass)
	}
}

func TestParseCharge(t *testing.T) {
	p := newParser(t, []string{"free"}, "proton", false)
	c1, _ := p.Parse("H4N4", 1)
	c2, err := p.Parse("H4N4", 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if math.Abs(c2.Mass-c1.Mass-1.007276466812) > 1e-9 {
		t.Errorf("Expected one extra proton, got mass difference %v", c2.Mass-c1.Mass)
	}
	if math.Abs(c2.MZ()-(c1.Mass+1.007276466812)/2) > 1e-9 {
		t.Errorf("Unexpected m/z at charge 2: %v", c2.MZ())
	}
	if _, err := p.Parse("H4N4", 0); err == nil {
		t.Errorf("Expected error for charge 0, got nil")
	}
}

func TestNewParserErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		modifiers []string
		carrier   string
		unknown   bool
	}{
		{"unknown modifier", []string{"free", "xyz"}, "sodium", true},
		{"unknown carrier", []string{"free"}, "lithium", true},
		{"not a modifier", []string{"H"}, "sodium", false},
		{"not a carrier", []string{"free"}, "Ac", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser(blocks.Default(), tc.modifiers, tc.carrier, false)
			if !errors.Is(err, config.ErrInvalid) {
				t.Errorf("Expected error: %v, got: %v", config.ErrInvalid, err)
			}
			if tc.unknown && !errors.Is(err, blocks.ErrUnknownBlock) {
				t.Errorf("Expected error: %v, got: %v", blocks.ErrUnknownBlock, err)
			}
		})
	}
}

func TestSplitGroups(t *testing.T) {
	got := splitGroups("H5N4F1S2")
	want := []string{"H", "5", "N", "4", "F", "1", "S", "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
	if got := splitGroups(""); len(got) != 0 {
		t.Errorf("Expected no groups, got: %v", got)
	}
}
