// Package blocks holds the building blocks that analyte compositions,
// mass modifiers and charge carriers are made of.
package blocks

import (
	"errors"
	"fmt"
	"sort"
)

// Codes with special meaning during composition parsing
const (
	Permethylation = "Per"
	ProtonLoss     = "protonLoss"
	SialicAcid     = "S"
	Sodium         = "sodium"
	Potassium      = "potassium"
)

// ErrUnknownBlock means a block code is not present in the table
var ErrUnknownBlock = errors.New("unknown building block")

// Elements counts the atoms of the elements that have isotopes
// of interest
type Elements struct {
	C int
	H int
	N int
	O int
	S int
}

// Add returns the element-wise sum of e and o
func (e Elements) Add(o Elements) Elements {
	return Elements{C: e.C + o.C, H: e.H + o.H, N: e.N + o.N, O: e.O + o.O, S: e.S + o.S}
}

// Scale returns e with every count multiplied by n
func (e Elements) Scale(n int) Elements {
	return Elements{C: e.C * n, H: e.H * n, N: e.N * n, O: e.O * n, S: e.S * n}
}

// Block is a single building block
type Block struct {
	Code          string
	Name          string
	Mass          float64 // monoisotopic mass
	Elements      Elements
	Modifier      bool // usable as mass modifier
	ChargeCarrier bool // usable as charge carrier
}

// Table is an immutable lookup table of building blocks
type Table struct {
	blocks map[string]Block
}

// NewTable creates a table from a list of blocks. Duplicate codes
// are an error.
func NewTable(bb []Block) (*Table, error) {
	t := &Table{blocks: make(map[string]Block, len(bb))}
	for _, b := range bb {
		if b.Code == "" {
			return nil, errors.New("building block without code")
		}
		if _, ok := t.blocks[b.Code]; ok {
			return nil, fmt.Errorf("duplicate building block %q", b.Code)
		}
		t.blocks[b.Code] = b
	}
	return t, nil
}

// Lookup returns the block with the given code
func (t *Table) Lookup(code string) (Block, bool) {
	b, ok := t.blocks[code]
	return b, ok
}

// Get returns the block with the given code, or ErrUnknownBlock
func (t *Table) Get(code string) (Block, error) {
	b, ok := t.blocks[code]
	if !ok {
		return b, fmt.Errorf("%w: %q", ErrUnknownBlock, code)
	}
	return b, nil
}

// Codes returns all codes in alphabetical order
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.blocks))
	for c := range t.blocks {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Modifiers returns the codes of the blocks that can be used as
// mass modifier
func (t *Table) Modifiers() []string {
	var codes []string
	for _, c := range t.Codes() {
		if t.blocks[c].Modifier {
			codes = append(codes, c)
		}
	}
	return codes
}

// ChargeCarriers returns the codes of the blocks that can be used as
// charge carrier
func (t *Table) ChargeCarriers() []string {
	var codes []string
	for _, c := range t.Codes() {
		if t.blocks[c].ChargeCarrier {
			codes = append(codes, c)
		}
	}
	return codes
}

// Len returns the number of blocks
func (t *Table) Len() int {
	return len(t.blocks)
}
