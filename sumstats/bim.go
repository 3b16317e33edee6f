package sumstats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/craft"
)

// Map columns in the BIM file to their positions
const (
	bimChromosome int = iota
	bimVariantID
	bimMorgans
	bimCoordinate
	bimAllele1
	bimAllele2
)

type BIMRow struct {
	Chromosome string
	Coordinate int    // Labeled "position" by most applications
	VariantID  string // E.g., RSID
	Allele1    string // Can contain > 1 character
	Allele2    string // Can contain > 1 character
}

// ReadBIM parses a PLINK .bim file, keyed by variant ID. The first
// occurrence of a repeated ID wins.
func ReadBIM(r io.Reader) (map[string]BIMRow, error) {
	scanner := bufio.NewScanner(r)
	out := make(map[string]BIMRow)

	for line := 1; scanner.Scan(); line++ {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < bimAllele2+1 {
			return nil, fmt.Errorf("bim line %d: expected %d fields, saw %d", line, bimAllele2+1, len(cols))
		}

		coord, err := strconv.Atoi(cols[bimCoordinate])
		if err != nil {
			return nil, fmt.Errorf("bim line %d: %w", line, err)
		}

		if _, exists := out[cols[bimVariantID]]; exists {
			continue
		}
		out[cols[bimVariantID]] = BIMRow{
			Chromosome: craft.NormalizeChromosome(cols[bimChromosome]),
			Coordinate: coord,
			VariantID:  cols[bimVariantID],
			Allele1:    cols[bimAllele1],
			Allele2:    cols[bimAllele2],
		}
	}

	return out, scanner.Err()
}

// JoinBIM fills in alleles by RSID and drops variants that are absent from
// the BIM, mirroring an inner join. The number of dropped variants is
// returned.
func JoinBIM(variants []Variant, bim map[string]BIMRow) ([]Variant, int) {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		row, exists := bim[v.RSID]
		if !exists {
			continue
		}
		v.AlleleA = row.Allele1
		v.AlleleB = row.Allele2
		out = append(out, v)
	}

	return out, len(variants) - len(out)
}
