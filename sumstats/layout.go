package sumstats

import (
	"sort"
	"strings"
)

const (
	// DelimiterWhitespace splits on runs of spaces and tabs.
	DelimiterWhitespace rune = 0

	// DelimiterDetect guesses the delimiter from the head of the file.
	DelimiterDetect rune = -1
)

// Layout maps the header names of one summary statistics format onto
// canonical columns.
type Layout struct {
	Name      string
	Delimiter rune
	Comment   rune

	// Header name in the file -> canonical column
	Columns map[string]Column
}

var Layouts = map[string]Layout{
	"snptest": {
		Name:      "snptest",
		Delimiter: DelimiterWhitespace,
		Comment:   '#',
		Columns: map[string]Column{
			"chromosome":             ColChromosome,
			"alleleA":                ColAlleleA,
			"alleleB":                ColAlleleB,
			"rsid":                   ColRSID,
			"position":               ColPosition,
			"all_total":              ColAllTotal,
			"cases_total":            ColCasesTotal,
			"controls_total":         ColControlsTotal,
			"all_maf":                ColMAF,
			"frequentist_add_pvalue": ColPValue,
			"frequentist_add_beta_1": ColBeta,
			"frequentist_add_se_1":   ColSE,
			"all_AA":                 ColGenotypeAA,
			"all_AB":                 ColGenotypeAB,
			"all_BB":                 ColGenotypeBB,
		},
	},
	"generic": {
		Name:      "generic",
		Delimiter: DelimiterDetect,
		Comment:   '#',
		Columns:   canonicalColumns(),
	},
	// PLINK v1 --logistic output. Alleles come from the matching .bim file.
	"plink": {
		Name:      "plink",
		Delimiter: DelimiterWhitespace,
		Columns: map[string]Column{
			"CHR":   ColChromosome,
			"SNP":   ColRSID,
			"BP":    ColPosition,
			"P":     ColPValue,
			"SE":    ColSE,
			"OR":    ColOddsRatio,
			"BETA":  ColBeta,
			"NMISS": ColAllTotal,
		},
	},
	// SNP	CHR	BP	GENPOS	ALLELE1	ALLELE0	A1FREQ	INFO	CHISQ_LINREG	P_LINREG	BETA	SE	CHISQ_BOLT_LMM_INF	P_BOLT_LMM_INF	CHISQ_BOLT_LMM	P_BOLT_LMM
	"bolt": {
		Name:      "bolt",
		Delimiter: '\t',
		Comment:   '#',
		Columns: map[string]Column{
			"SNP":        ColRSID,
			"CHR":        ColChromosome,
			"BP":         ColPosition,
			"ALLELE1":    ColAlleleA,
			"ALLELE0":    ColAlleleB,
			"A1FREQ":     ColMAF,
			"BETA":       ColBeta,
			"SE":         ColSE,
			"P_BOLT_LMM": ColPValue,
		},
	},
	// CHROM GENPOS ID ALLELE0 ALLELE1 A1FREQ INFO N TEST BETA SE CHISQ LOG10P
	"regenie": {
		Name:      "regenie",
		Delimiter: ' ',
		Comment:   '#',
		Columns: map[string]Column{
			"CHROM":   ColChromosome,
			"GENPOS":  ColPosition,
			"ID":      ColRSID,
			"ALLELE0": ColAlleleB,
			"ALLELE1": ColAlleleA,
			"A1FREQ":  ColMAF,
			"N":       ColAllTotal,
			"BETA":    ColBeta,
			"SE":      ColSE,
			"LOG10P":  ColNegLog10P,
		},
	},
}

func canonicalColumns() map[string]Column {
	out := make(map[string]Column)
	for _, c := range OutputColumns {
		out[string(c)] = c
	}
	for _, c := range []Column{ColGenotypeAA, ColGenotypeAB, ColGenotypeBB} {
		out[string(c)] = c
	}
	return out
}

// LayoutNames lists the known layouts, sorted.
func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
