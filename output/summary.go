package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/craft/abf"
	"github.com/carbocation/craft/locus"
	"github.com/gocarina/gocsv"
)

// Status values for LocusSummary
const (
	StatusOK         = "ok"
	StatusDegenerate = "degenerate"
)

// LocusSummary is one row of the per-input <name>.loci table. Numbers are
// preformatted so that they keep full precision.
type LocusSummary struct {
	IndexRSID       string `csv:"index_rsid"`
	Chromosome      string `csv:"chromosome"`
	Position        int    `csv:"position"`
	PValue          string `csv:"pvalue"`
	RegionStart     int    `csv:"region_start"`
	RegionEnd       int    `csv:"region_end"`
	Variants        int    `csv:"n_variants"`
	CredibleSetSize string `csv:"credible_set_size"`
	TopRSID         string `csv:"top_rsid"`
	TopPostProb     string `csv:"top_postprob"`
	Status          string `csv:"status"`
}

// Summaries pairs each locus with its credible set. sets[i] is nil when
// locus i was degenerate.
func Summaries(loci []locus.Locus, sets []*abf.CredibleSet) []*LocusSummary {
	out := make([]*LocusSummary, 0, len(loci))
	for i, l := range loci {
		s := &LocusSummary{
			IndexRSID:       l.IndexRSID(),
			Chromosome:      l.Index.Chromosome,
			Position:        l.Index.Position,
			PValue:          FormatFloat(l.Index.PValue),
			RegionStart:     l.Index.RegionStart,
			RegionEnd:       l.Index.RegionEnd,
			Variants:        l.Len(),
			CredibleSetSize: Missing,
			TopRSID:         Missing,
			TopPostProb:     Missing,
			Status:          StatusDegenerate,
		}

		if i < len(sets) && sets[i] != nil && len(sets[i].Rows) > 0 {
			cs := sets[i]
			s.CredibleSetSize = strconv.Itoa(cs.Size)
			s.TopRSID = cs.Rows[0].RSID
			s.TopPostProb = FormatFloat(cs.Rows[0].PostProb)
			s.Status = StatusOK
		}

		out = append(out, s)
	}

	return out
}

// WriteSummaries writes the summaries as a tab-delimited table with a header.
func WriteSummaries(w io.Writer, rows []*LocusSummary) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw))
}
