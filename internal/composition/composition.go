// Package composition parses analyte compositions like "H5N4F1S2"
// into a mass and element counts, including the configured mass
// modifiers and charge carrier.
package composition

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/524D/mzquant/internal/blocks"
	"github.com/524D/mzquant/internal/config"
)

// ErrUnknownUnit is returned in strict mode for composition units that
// are not in the building block table
var ErrUnknownUnit = errors.New("unknown composition unit")

// Composition is a parsed analyte
type Composition struct {
	Code     string // composition as specified, e.g. "H4N4"
	Charge   int
	Mass     float64 // monoisotopic mass, including modifiers and charge carriers
	Elements blocks.Elements
	Units    int // number of building block units in Code
	Sialic   int // number of sialic acid units
}

// MZ returns the monoisotopic m/z
func (c Composition) MZ() float64 {
	return c.Mass / float64(c.Charge)
}

// Parser converts composition strings into compositions. A Parser is
// immutable after creation.
type Parser struct {
	table      *blocks.Table
	modifiers  []blocks.Block // applied once, in configured order
	perMethyl  *blocks.Block
	carrier    blocks.Block
	protonLoss bool // a sodium or potassium modifier is present
	strict     bool
}

// NewParser creates a parser for the given mass modifiers and charge
// carrier. Unknown codes, or codes that are not flagged as modifier or
// charge carrier, are a configuration error.
func NewParser(t *blocks.Table, modifiers []string, carrier string, strict bool) (*Parser, error) {
	p := &Parser{table: t, strict: strict}
	for _, code := range modifiers {
		b, err := t.Get(code)
		if err != nil {
			return nil, fmt.Errorf("%w: mass modifier: %w", config.ErrInvalid, err)
		}
		if !b.Modifier {
			return nil, fmt.Errorf("%w: %q can't be used as mass modifier", config.ErrInvalid, code)
		}
		if code == blocks.Permethylation {
			p.perMethyl = &b
			continue
		}
		p.modifiers = append(p.modifiers, b)
		if code == blocks.Sodium || code == blocks.Potassium {
			p.protonLoss = true
		}
	}
	if p.protonLoss {
		if _, err := t.Get(blocks.ProtonLoss); err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
	}

	b, err := t.Get(carrier)
	if err != nil {
		return nil, fmt.Errorf("%w: charge carrier: %w", config.ErrInvalid, err)
	}
	if !b.ChargeCarrier {
		return nil, fmt.Errorf("%w: %q can't be used as charge carrier", config.ErrInvalid, carrier)
	}
	p.carrier = b
	return p, nil
}

// NewParserFromConfig creates a parser using the modifiers, charge
// carrier and strictness of cfg
func NewParserFromConfig(t *blocks.Table, cfg config.Config) (*Parser, error) {
	return NewParser(t, cfg.MassModifiers, cfg.ChargeCarrier, cfg.StrictComposition)
}

// Parse computes mass and elements of composition s at the given
// charge. The charge carrier is added charge times. Units that are not
// in the building block table are skipped, unless the parser is strict.
func (p *Parser) Parse(s string, charge int) (Composition, error) {
	c := Composition{Code: s, Charge: charge}
	if charge < 1 {
		return c, fmt.Errorf("composition %s: invalid charge %d", s, charge)
	}
	groups := splitGroups(s)
	for i := 0; i < len(groups); i++ {
		g := groups[i]
		if !isAlpha(g) {
			if p.strict {
				return c, fmt.Errorf("composition %s: %w: %q", s, ErrUnknownUnit, g)
			}
			continue
		}
		b, ok := p.table.Lookup(g)
		if !ok || i+1 >= len(groups) || isAlpha(groups[i+1]) {
			if p.strict {
				return c, fmt.Errorf("composition %s: %w: %q", s, ErrUnknownUnit, g)
			}
			continue
		}
		n, err := strconv.Atoi(groups[i+1])
		if err != nil {
			return c, fmt.Errorf("composition %s: %w", s, err)
		}
		i++
		c.add(b, n)
		c.Units += n
		if g == blocks.SialicAcid {
			c.Sialic += n
		}
	}

	for _, m := range p.modifiers {
		c.add(m, 1)
	}
	if p.protonLoss {
		pl, _ := p.table.Lookup(blocks.ProtonLoss)
		c.add(pl, 1)
	}
	c.add(p.carrier, charge)

	// Permethylation goes last, it also methylates the other modifiers
	if p.perMethyl != nil {
		sites := c.Elements.O - (2*c.Units - 2) - 1 - c.Sialic
		c.Mass += p.perMethyl.Mass * float64(sites)
		c.Elements = c.Elements.Add(p.perMethyl.Elements.Scale(sites))
	}
	return c, nil
}

func (c *Composition) add(b blocks.Block, n int) {
	c.Mass += b.Mass * float64(n)
	c.Elements = c.Elements.Add(b.Elements.Scale(n))
}

// splitGroups splits s into runs of letters and runs of other characters
func splitGroups(s string) []string {
	var groups []string
	start := 0
	rs := []rune(s)
	for i := 1; i <= len(rs); i++ {
		if i == len(rs) || unicode.IsLetter(rs[i]) != unicode.IsLetter(rs[start]) {
			groups = append(groups, string(rs[start:i]))
			start = i
		}
	}
	return groups
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
