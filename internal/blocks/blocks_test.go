package blocks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	h, err := tbl.Get("H")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := Block{Code: "H", Name: "Hexose", Mass: 162.0528234185, Elements: Elements{C: 6, H: 10, O: 5}}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("Hexose mismatch (-want +got):\n%s", diff)
	}

	_, err = tbl.Get("Z")
	if !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("Expected error: %v, got: %v", ErrUnknownBlock, err)
	}

	for _, c := range []string{"sodium", "potassium", "proton"} {
		b, ok := tbl.Lookup(c)
		if !ok || !b.ChargeCarrier {
			t.Errorf("Expected %s to be a charge carrier", c)
		}
	}
	for _, c := range []string{"free", "Per", "sodium"} {
		b, ok := tbl.Lookup(c)
		if !ok || !b.Modifier {
			t.Errorf("Expected %s to be a mass modifier", c)
		}
	}
	if b, _ := tbl.Lookup("H"); b.Modifier || b.ChargeCarrier {
		t.Errorf("Expected hexose to be neither modifier nor carrier")
	}
}

func TestNewTableDuplicate(t *testing.T) {
	_, err := NewTable([]Block{{Code: "A", Mass: 1}, {Code: "A", Mass: 2}})
	if err == nil {
		t.Errorf("Expected error for duplicate code, got nil")
	}
}

func TestElementsArithmetic(t *testing.T) {
	e := Elements{C: 1, H: 2, N: 3, O: 4, S: 5}
	got := e.Scale(2).Add(Elements{C: 1})
	want := Elements{C: 3, H: 4, N: 6, O: 8, S: 10}
	if got != want {
		t.Errorf("Expected %+v, got: %+v", want, got)
	}
}

func TestReadBlock(t *testing.T) {
	def := `# custom sugar
name: Custom Hexose
mass: 162.0528234185
carbons: 6
hydrogens: 10
oxygens: 5
available_for_mass_modifiers: 0
available_for_charge_carrier: 0
comment: ignored
`
	b, err := Read(strings.NewReader(def), "Q")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := Block{Code: "Q", Name: "Custom Hexose", Mass: 162.0528234185, Elements: Elements{C: 6, H: 10, O: 5}}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("Block mismatch (-want +got):\n%s", diff)
	}

	if _, err := Read(strings.NewReader("name: x\n"), "R"); err == nil {
		t.Errorf("Expected error for missing mass, got nil")
	}
	if _, err := Read(strings.NewReader("mass: abc\n"), "R"); err == nil {
		t.Errorf("Expected error for invalid mass, got nil")
	}
	if _, err := Read(strings.NewReader("mass 12\n"), "R"); err == nil {
		t.Errorf("Expected error for line without colon, got nil")
	}
}

func TestLoadDirAndMerge(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"T.block":   "mass: 100.5\ncarbons: 4\n",
		"Na2.block": "code: sodium\nmass: 22.98922070\navailable_for_charge_carrier: 1\n",
		"notes.txt": "not a block",
	}
	for fn, content := range files {
		if err := os.WriteFile(filepath.Join(dir, fn), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	bb, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(bb) != 2 {
		t.Fatalf("Expected 2 blocks, got: %d", len(bb))
	}

	tbl, err := Default().WithBlocks(bb)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if tbl.Len() != Default().Len()+1 {
		t.Errorf("Expected one new block, got table of %d", tbl.Len())
	}
	b, ok := tbl.Lookup("T")
	if !ok || b.Mass != 100.5 || b.Elements.C != 4 || b.Name != "T" {
		t.Errorf("Unexpected block T: %+v", b)
	}
	na, _ := tbl.Lookup("sodium")
	if na.Modifier {
		t.Errorf("Expected sodium definition to be replaced")
	}
}
