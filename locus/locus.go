// Package locus carves the variants around each index variant out of a
// summary statistics table.
package locus

import (
	"fmt"

	"github.com/carbocation/craft/indexsnp"
	"github.com/carbocation/craft/sumstats"
)

// Locus is the set of variants within one index variant's region.
type Locus struct {
	Index    indexsnp.IndexVariant
	Variants []sumstats.Variant
}

// IndexRSID identifies the locus by its index variant.
func (l Locus) IndexRSID() string {
	return l.Index.RSID
}

func (l Locus) Len() int {
	return len(l.Variants)
}

// Extract returns one locus per index variant, in the same order. Each locus
// holds every row of t whose position lies within the index variant's region,
// inclusive, in input order. t is the table that selection ran on, after QC
// such as the HWE filter but before MHC dropping, which only restricts
// which variants may become index variants. Overlapping regions yield
// overlapping loci.
func Extract(t *sumstats.Table, index []indexsnp.IndexVariant) []Locus {
	out := make([]Locus, 0, len(index))
	for _, iv := range index {
		out = append(out, Locus{
			Index:    iv,
			Variants: t.Range(iv.RegionStart, iv.RegionEnd),
		})
	}

	return out
}

// FileStems names the per-locus output files. The index rsid is used when
// it is set; otherwise chr<chromosome>_<position>. A stem that is already
// taken gets a _2, _3, ... suffix, so every locus keeps its own files.
func FileStems(loci []Locus) []string {
	out := make([]string, len(loci))
	seen := make(map[string]int, len(loci))
	for i, l := range loci {
		stem := l.IndexRSID()
		if stem == "" {
			stem = fmt.Sprintf("chr%s_%d", l.Index.Chromosome, l.Index.Position)
		}

		base := stem
		for seen[stem] > 0 {
			seen[base]++
			stem = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[stem]++

		out[i] = stem
	}

	return out
}
