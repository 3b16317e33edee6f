package sumstats

import (
	"sort"
	"strings"
)

// Column is the canonical name of a variant field. These are also the column
// names used in output tables and by the "generic" input layout.
type Column string

const (
	ColChromosome    Column = "chromosome"
	ColRSID          Column = "rsid"
	ColAlleleA       Column = "alleleA"
	ColAlleleB       Column = "alleleB"
	ColPosition      Column = "position"
	ColAllTotal      Column = "all_total"
	ColCasesTotal    Column = "cases_total"
	ColControlsTotal Column = "controls_total"
	ColMAF           Column = "all_maf"
	ColPValue        Column = "pvalue"
	ColBeta          Column = "beta"
	ColSE            Column = "se"
	ColGenotypeAA    Column = "all_AA"
	ColGenotypeAB    Column = "all_AB"
	ColGenotypeBB    Column = "all_BB"

	// Input-only columns which are converted on read.
	ColNegLog10P Column = "log10p"
	ColOddsRatio Column = "or"
)

// OutputColumns is the order in which variant fields are written.
var OutputColumns = []Column{
	ColChromosome,
	ColRSID,
	ColAlleleA,
	ColAlleleB,
	ColPosition,
	ColAllTotal,
	ColCasesTotal,
	ColControlsTotal,
	ColMAF,
	ColPValue,
	ColBeta,
	ColSE,
}

// RequiredColumns must be present in every input.
var RequiredColumns = []Column{ColChromosome, ColPosition, ColRSID, ColPValue}

// ColumnSet records which fields an input provided.
type ColumnSet map[Column]struct{}

func NewColumnSet(cols ...Column) ColumnSet {
	out := make(ColumnSet, len(cols))
	for _, c := range cols {
		out[c] = struct{}{}
	}
	return out
}

func (c ColumnSet) Has(col Column) bool {
	_, exists := c[col]
	return exists
}

func (c ColumnSet) Add(col Column) {
	c[col] = struct{}{}
}

// Missing returns the members of want that are absent, in the order given.
func (c ColumnSet) Missing(want ...Column) []Column {
	out := make([]Column, 0)
	for _, w := range want {
		if !c.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

func (c ColumnSet) String() string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
