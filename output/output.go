// Package output writes the tab-delimited result tables. Floats are written
// with the shortest representation that round-trips, so tiny P values and
// posteriors are never rounded to zero.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/craft/abf"
	"github.com/carbocation/craft/indexsnp"
	"github.com/carbocation/craft/sumstats"
	"gopkg.in/guregu/null.v3"
)

// Missing is written for absent optional values.
const Missing = "NA"

// FormatFloat writes f at full precision.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// VariantColumns returns the output columns that the input provided, in
// output order.
func VariantColumns(have sumstats.ColumnSet) []sumstats.Column {
	out := make([]sumstats.Column, 0, len(sumstats.OutputColumns))
	for _, c := range sumstats.OutputColumns {
		if have.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Field formats one variant field.
func Field(v sumstats.Variant, col sumstats.Column) string {
	switch col {
	case sumstats.ColChromosome:
		return v.Chromosome
	case sumstats.ColRSID:
		return v.RSID
	case sumstats.ColAlleleA:
		return v.AlleleA
	case sumstats.ColAlleleB:
		return v.AlleleB
	case sumstats.ColPosition:
		return strconv.Itoa(v.Position)
	case sumstats.ColPValue:
		return FormatFloat(v.PValue)
	case sumstats.ColMAF:
		return nullFloat(v.MAF)
	case sumstats.ColBeta:
		return nullFloat(v.Beta)
	case sumstats.ColSE:
		return nullFloat(v.SE)
	case sumstats.ColAllTotal:
		return nullInt(v.AllTotal)
	case sumstats.ColCasesTotal:
		return nullInt(v.CasesTotal)
	case sumstats.ColControlsTotal:
		return nullInt(v.ControlsTotal)
	case sumstats.ColGenotypeAA:
		return nullInt(v.GenotypeAA)
	case sumstats.ColGenotypeAB:
		return nullInt(v.GenotypeAB)
	case sumstats.ColGenotypeBB:
		return nullInt(v.GenotypeBB)
	}

	return Missing
}

func nullFloat(f null.Float) string {
	if !f.Valid {
		return Missing
	}
	return FormatFloat(f.Float64)
}

func nullInt(i null.Int) string {
	if !i.Valid {
		return Missing
	}
	return strconv.FormatInt(i.Int64, 10)
}

func variantFields(v sumstats.Variant, columns []sumstats.Column) []string {
	out := make([]string, 0, len(columns)+5)
	for _, c := range columns {
		out = append(out, Field(v, c))
	}
	return out
}

func header(columns []sumstats.Column, extra ...string) string {
	fields := make([]string, 0, len(columns)+len(extra))
	for _, c := range columns {
		fields = append(fields, string(c))
	}
	fields = append(fields, extra...)

	return strings.Join(fields, "\t")
}

// IndexHeader lists the region columns for the unit.
func IndexHeader(unit indexsnp.Unit) []string {
	if unit == indexsnp.UnitCM {
		return []string{"region_start_cm", "region_end_cm", "region_size_kb"}
	}
	return []string{"region_start_bp", "region_end_bp"}
}

// WriteIndex writes one row per index variant, in selection order. The
// header is written even when there are no index variants.
func WriteIndex(w io.Writer, columns []sumstats.Column, unit indexsnp.Unit, index []indexsnp.IndexVariant) error {
	if _, err := fmt.Fprintln(w, header(columns, IndexHeader(unit)...)); err != nil {
		return err
	}

	for _, iv := range index {
		fields := variantFields(iv.Variant, columns)
		fields = append(fields, strconv.Itoa(iv.RegionStart), strconv.Itoa(iv.RegionEnd))
		if unit == indexsnp.UnitCM {
			fields = append(fields, FormatFloat(iv.RegionSizeKB))
		}

		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// WriteCredibleSet writes the credible set rows, by descending posterior.
func WriteCredibleSet(w io.Writer, columns []sumstats.Column, cs *abf.CredibleSet) error {
	if _, err := fmt.Fprintln(w, header(columns, cs.Column, "postprob", "postprob_cumsum", "index_rsid")); err != nil {
		return err
	}

	for _, row := range cs.Set() {
		fields := variantFields(row.Variant, columns)
		fields = append(fields,
			FormatFloat(row.Value),
			FormatFloat(row.PostProb),
			FormatFloat(row.Cumulative),
			cs.IndexRSID,
		)

		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// WriteLocus writes every row of the locus, flagging membership in the
// configured credible set and in the 95% and 99% sets under the same
// boundary rule.
func WriteLocus(w io.Writer, columns []sumstats.Column, cs *abf.CredibleSet, boundary abf.Boundary) error {
	if _, err := fmt.Fprintln(w, header(columns, cs.Column, "postprob", "postprob_cumsum", "index_rsid", "in_credible_set", "in_cs95", "in_cs99")); err != nil {
		return err
	}

	size95 := cs.Truncate(abf.Coverage95, boundary)
	size99 := cs.Truncate(abf.Coverage99, boundary)

	for i, row := range cs.Rows {
		fields := variantFields(row.Variant, columns)
		fields = append(fields,
			FormatFloat(row.Value),
			FormatFloat(row.PostProb),
			FormatFloat(row.Cumulative),
			cs.IndexRSID,
			flag(i < cs.Size),
			flag(i < size95),
			flag(i < size99),
		)

		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
