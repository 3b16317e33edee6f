package sumstats

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const snptestBody = `# SNPTEST output
chromosome alleleA alleleB rsid position all_AA all_AB all_BB all_total cases_total controls_total all_maf frequentist_add_pvalue frequentist_add_beta_1 frequentist_add_se_1
01 A G rs1 1000 500 400 100 1000 400 600 0.3 1e-12 0.25 0.03
01 C T rs2 2000 10 80 910 1000 400 600 0.9 0.04 NA NA
01 C T rs3 3000 10 80 910 1000 400 600 0.2 NA 0.1 0.1
01 C T rs4 4000 10 80 910 1000 400 600 0 0.5 0.1 0.1
`

func TestReadSNPTEST(t *testing.T) {
	variants, rdr, err := ReadAll(strings.NewReader(snptestBody), Layouts["snptest"])
	if err != nil {
		t.Fatal(err)
	}

	if len(variants) != 2 {
		t.Fatalf("Expected 2 variants, got %d", len(variants))
	}
	if rdr.Skipped != 2 {
		t.Errorf("Expected 2 skipped rows, got %d", rdr.Skipped)
	}

	v := variants[0]
	if v.RSID != "rs1" || v.Chromosome != "1" || v.Position != 1000 || v.AlleleA != "A" || v.AlleleB != "G" {
		t.Errorf("Unexpected identity fields: %+v", v)
	}
	if v.PValue != 1e-12 || v.MAF.Float64 != 0.3 || v.Beta.Float64 != 0.25 || v.SE.Float64 != 0.03 {
		t.Errorf("Unexpected stats: %+v", v)
	}
	if v.AllTotal.Int64 != 1000 || v.CasesTotal.Int64 != 400 || v.ControlsTotal.Int64 != 600 {
		t.Errorf("Unexpected counts: %+v", v)
	}
	if v.GenotypeAA.Int64 != 500 || v.GenotypeAB.Int64 != 400 || v.GenotypeBB.Int64 != 100 {
		t.Errorf("Unexpected genotype counts: %+v", v)
	}

	// Frequency above 0.5 is flipped
	if math.Abs(variants[1].MAF.Float64-0.1) > 1e-12 {
		t.Errorf("Expected MAF 0.1, got %v", variants[1].MAF.Float64)
	}
	if variants[1].Beta.Valid || variants[1].SE.Valid {
		t.Errorf("Expected missing beta and se, got %+v", variants[1])
	}
	if variants[1].Record != 1 {
		t.Errorf("Expected record 1, got %d", variants[1].Record)
	}

	for _, col := range []Column{ColMAF, ColBeta, ColSE, ColCasesTotal} {
		if !rdr.Columns().Has(col) {
			t.Errorf("Expected column %s to be present", col)
		}
	}
}

func TestMissingRequiredColumn(t *testing.T) {
	body := "chromosome\trsid\tpvalue\n1\trs1\t0.1\n"
	_, _, err := ReadAll(strings.NewReader(body), Layouts["generic"])

	var schemaErr *InputSchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected an InputSchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != ColPosition {
		t.Errorf("Expected position to be missing, got %v", schemaErr.Missing)
	}
}

func TestInvalidPValue(t *testing.T) {
	body := "chromosome\trsid\tposition\tpvalue\n1\trs1\t100\t1.5\n"
	_, _, err := ReadAll(strings.NewReader(body), Layouts["generic"])

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("Expected a RowError, got %v", err)
	}
	if rowErr.RSID != "rs1" || rowErr.Line != 2 {
		t.Errorf("Unexpected error contents: %+v", rowErr)
	}
}

func TestCaseControlMismatch(t *testing.T) {
	body := "chromosome\trsid\tposition\tpvalue\tall_total\tcases_total\tcontrols_total\n1\trs1\t100\t0.5\t10\t3\t3\n"
	if _, _, err := ReadAll(strings.NewReader(body), Layouts["generic"]); err == nil {
		t.Error("Expected an error when cases and controls do not sum to the total")
	}
}

func TestReadREGENIE(t *testing.T) {
	body := "CHROM GENPOS ID ALLELE0 ALLELE1 A1FREQ INFO N TEST BETA SE CHISQ LOG10P EXTRA\n" +
		"chr2 500 rs9 A C 0.75 1 5000 ADD 0.1 0.01 100 8 NA\n"
	variants, _, err := ReadAll(strings.NewReader(body), Layouts["regenie"])
	if err != nil {
		t.Fatal(err)
	}
	if len(variants) != 1 {
		t.Fatalf("Expected 1 variant, got %d", len(variants))
	}
	v := variants[0]
	if v.Chromosome != "2" || v.AlleleA != "C" || v.AlleleB != "A" || v.AllTotal.Int64 != 5000 {
		t.Errorf("Unexpected variant %+v", v)
	}
	if math.Abs(v.PValue-1e-8)/1e-8 > 1e-12 {
		t.Errorf("Expected P of 1e-8, got %v", v.PValue)
	}
	if math.Abs(v.MAF.Float64-0.25) > 1e-12 {
		t.Errorf("Expected MAF 0.25, got %v", v.MAF.Float64)
	}
}

func TestReadPLINKWithBIM(t *testing.T) {
	assoc := " CHR         SNP         BP   A1       TEST    NMISS         OR         SE      L95      U95         STAT            P\n" +
		"   1         rs1        100    A        ADD     1000      1.5     0.1    1.2    1.8     4.05    5e-05\n" +
		"   1         rs2        200    G        ADD     1000      0.9     0.1    0.7    1.1    -1.05    0.29\n"
	bim := "1\trs1\t0\t100\tA\tG\n1\trs3\t0\t300\tC\tT\n"

	variants, rdr, err := ReadAll(strings.NewReader(assoc), Layouts["plink"])
	if err != nil {
		t.Fatal(err)
	}
	if !rdr.Columns().Has(ColBeta) {
		t.Error("Expected beta to be derived from OR")
	}
	if math.Abs(variants[0].Beta.Float64-math.Log(1.5)) > 1e-12 {
		t.Errorf("Expected beta ln(1.5), got %v", variants[0].Beta.Float64)
	}

	rows, err := ReadBIM(strings.NewReader(bim))
	if err != nil {
		t.Fatal(err)
	}
	joined, dropped := JoinBIM(variants, rows)
	if dropped != 1 || len(joined) != 1 {
		t.Fatalf("Expected 1 joined and 1 dropped, got %d and %d", len(joined), dropped)
	}
	if joined[0].AlleleA != "A" || joined[0].AlleleB != "G" {
		t.Errorf("Unexpected alleles %s/%s", joined[0].AlleleA, joined[0].AlleleB)
	}
}
