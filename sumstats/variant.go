// Package sumstats holds GWAS summary statistics: one Variant per tested
// site, grouped into single-chromosome Tables that support range queries by
// position.
package sumstats

import (
	"fmt"

	"gopkg.in/guregu/null.v3"
)

// Variant is one row of a summary statistics file. Fields that not every
// format provides are nullable.
type Variant struct {
	RSID       string
	Chromosome string
	Position   int
	AlleleA    string
	AlleleB    string

	PValue float64

	// MAF is always <= 0.5; frequencies above 0.5 are flipped on input.
	MAF  null.Float
	Beta null.Float
	SE   null.Float

	AllTotal      null.Int
	CasesTotal    null.Int
	ControlsTotal null.Int

	// Genotype counts, used for HWE QC when present.
	GenotypeAA null.Int
	GenotypeAB null.Int
	GenotypeBB null.Int

	// Record is the 0-based order of this variant in its input file. Ties are
	// broken by this value throughout.
	Record int
}

func (v Variant) String() string {
	return fmt.Sprintf("%s (%s:%d)", v.RSID, v.Chromosome, v.Position)
}

// ToMAF converts an allele frequency to a minor allele frequency.
func ToMAF(freq float64) float64 {
	if freq > 0.5 {
		return 1 - freq
	}

	return freq
}
