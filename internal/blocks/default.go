package blocks

// defaultBlocks are the monosaccharides, modifiers, charge carriers and
// single elements that are always available
var defaultBlocks = []Block{
	// Monosaccharides
	{Code: "F", Name: "Fucose", Mass: 146.05790879894, Elements: Elements{C: 6, H: 10, O: 4}},
	{Code: "H", Name: "Hexose", Mass: 162.0528234185, Elements: Elements{C: 6, H: 10, O: 5}},
	{Code: "N", Name: "N-Acetyl Hexosamine", Mass: 203.07937251951, Elements: Elements{C: 8, H: 13, N: 1, O: 5}},
	{Code: "S", Name: "N-Acetyl Neuraminic Acid", Mass: 291.09541650647, Elements: Elements{C: 11, H: 17, N: 1, O: 8}},
	{Code: "L", Name: "Lactonized N-Acetyl Neuraminic Acid", Mass: 273.08485182277, Elements: Elements{C: 11, H: 15, N: 1, O: 7}},
	{Code: "M", Name: "Methylated N-Acetyl Neuraminic Acid", Mass: 305.11106657061, Elements: Elements{C: 12, H: 19, N: 1, O: 8}},
	{Code: "E", Name: "Ethylated N-Acetyl Neuraminic Acid", Mass: 319.12671663475, Elements: Elements{C: 13, H: 21, N: 1, O: 8}},
	{Code: "G", Name: "N-Glycolyl Neuraminic Acid", Mass: 307.0903311261, Elements: Elements{C: 11, H: 17, N: 1, O: 9}},
	{Code: "Gl", Name: "Lactonized N-Glycolyl Neuraminic Acid", Mass: 289.0797664424, Elements: Elements{C: 11, H: 15, N: 1, O: 8}},
	{Code: "Ge", Name: "Ethylated N-Glycolyl Neuraminic Acid", Mass: 335.1216312544, Elements: Elements{C: 13, H: 21, N: 1, O: 9}},

	// Mass modifiers
	{Code: "P", Name: "Phosphate", Mass: 79.96633088875, Elements: Elements{H: 1, O: 3}, Modifier: true},
	{Code: "Su", Name: "Sulfate", Mass: 79.95681485868, Elements: Elements{O: 3, S: 1}, Modifier: true},
	{Code: "Ac", Name: "Acetyl", Mass: 42.0105646837, Elements: Elements{C: 2, H: 2, O: 1}, Modifier: true},
	{Code: "Per", Name: "Permethylation", Mass: 14.01565006, Elements: Elements{C: 1, H: 2}, Modifier: true},
	{Code: "aa", Name: "2-Aminobenzoic Acid", Mass: 139.06332853255, Elements: Elements{C: 7, H: 9, N: 1, O: 2}, Modifier: true},
	{Code: "ab", Name: "2-Aminobenzamide", Mass: 138.07931294986, Elements: Elements{C: 7, H: 10, N: 2, O: 1}, Modifier: true},
	{Code: "free", Name: "Free Reducing End", Mass: 18.0105646837, Elements: Elements{H: 2, O: 1}, Modifier: true},

	// Charge carriers; sodium and potassium can also be modifiers
	{Code: "sodium", Name: "Sodium", Mass: 22.98922070, Modifier: true, ChargeCarrier: true},
	{Code: "potassium", Name: "Potassium", Mass: 38.9631581, Modifier: true, ChargeCarrier: true},
	{Code: "proton", Name: "Proton", Mass: 1.007276466812, ChargeCarrier: true},
	{Code: "protonLoss", Name: "Proton Loss", Mass: -1.007276466812, ChargeCarrier: true},
	{Code: "chloride", Name: "Chloride", Mass: 34.969402, ChargeCarrier: true},
	{Code: "acetate", Name: "Acetate", Mass: 59.013851, Elements: Elements{C: 2, H: 3, O: 2}, ChargeCarrier: true},
	{Code: "formate", Name: "Formate", Mass: 44.998201, Elements: Elements{C: 1, H: 1, O: 2}, ChargeCarrier: true},
	{Code: "electron", Name: "Electron", Mass: 0.00054857990946, ChargeCarrier: true},

	// Single elements
	{Code: "_H", Name: "Hydrogen", Mass: 1.007825, Elements: Elements{H: 1}},
	{Code: "_C", Name: "Carbon", Mass: 12.000000, Elements: Elements{C: 1}},
	{Code: "_N", Name: "Nitrogen", Mass: 14.003074, Elements: Elements{N: 1}},
	{Code: "_O", Name: "Oxygen", Mass: 15.994915, Elements: Elements{O: 1}},
	{Code: "_S", Name: "Sulfur", Mass: 31.972071, Elements: Elements{S: 1}},
}

// Default returns the table with the built-in building blocks
func Default() *Table {
	t, err := NewTable(defaultBlocks)
	if err != nil {
		panic(err) // built-in table is broken
	}
	return t
}

// DefaultBlocks returns a copy of the built-in block list
func DefaultBlocks() []Block {
	bb := make([]Block, len(defaultBlocks))
	copy(bb, defaultBlocks)
	return bb
}
