package blocks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// BlockFileExt is the extension of building block definition files
const BlockFileExt = ".block"

// Read parses a single building block definition. Each line holds a
// "key: value" pair, lines starting with # are comments. When the
// definition has no "code" key, defaultCode is used.
//
// Recognised keys: code, name, mass, carbons, hydrogens, nitrogens,
// oxygens, sulfurs, available_for_mass_modifiers,
// available_for_charge_carrier.
func Read(r io.Reader, defaultCode string) (Block, error) {
	b := Block{Code: defaultCode}
	haveMass := false
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return b, fmt.Errorf("line %d: expected 'key: value', got %q", lineNum, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "code":
			b.Code = value
		case "name", "human_readable_name":
			b.Name = value
		case "mass":
			b.Mass, err = strconv.ParseFloat(value, 64)
			haveMass = err == nil
		case "carbons":
			b.Elements.C, err = strconv.Atoi(value)
		case "hydrogens":
			b.Elements.H, err = strconv.Atoi(value)
		case "nitrogens":
			b.Elements.N, err = strconv.Atoi(value)
		case "oxygens":
			b.Elements.O, err = strconv.Atoi(value)
		case "sulfurs":
			b.Elements.S, err = strconv.Atoi(value)
		case "available_for_mass_modifiers":
			b.Modifier, err = parseFlag(value)
		case "available_for_charge_carrier":
			b.ChargeCarrier, err = parseFlag(value)
		default:
			// Unknown keys are ignored, definition files may carry
			// extra information
		}
		if err != nil {
			return b, fmt.Errorf("line %d: invalid value for %s: %w", lineNum, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return b, err
	}
	if b.Code == "" {
		return b, fmt.Errorf("building block definition without code")
	}
	if !haveMass {
		return b, fmt.Errorf("building block %q: no mass specified", b.Code)
	}
	if b.Name == "" {
		b.Name = b.Code
	}
	return b, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}

// LoadDir reads all building block files (*.block) in a directory.
// The file name without extension is the default block code.
func LoadDir(dir string) ([]Block, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+BlockFileExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	bb := make([]Block, 0, len(files))
	for _, fn := range files {
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		code := strings.TrimSuffix(filepath.Base(fn), BlockFileExt)
		b, err := Read(f, code)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		bb = append(bb, b)
	}
	return bb, nil
}

// WithBlocks returns a new table containing the blocks of t, with
// extra blocks added. Extra blocks replace blocks with the same code.
func (t *Table) WithBlocks(extra []Block) (*Table, error) {
	merged := make(map[string]Block, len(t.blocks)+len(extra))
	for c, b := range t.blocks {
		merged[c] = b
	}
	for _, b := range extra {
		if b.Code == "" {
			return nil, fmt.Errorf("building block without code")
		}
		merged[b.Code] = b
	}
	return &Table{blocks: merged}, nil
}
