// Package finemap prepares inputs for the FINEMAP shotgun stochastic search,
// runs it, and collects the Bayes factors it reports. LD matrices are not
// computed here; they must already exist as <stem>.ld under the LD
// directory, where the stem is the index rsid (see locus.FileStems).
package finemap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/output"
	"github.com/carbocation/craft/sumstats"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// RequiredColumns are needed to write a Z file.
var RequiredColumns = []sumstats.Column{sumstats.ColAlleleA, sumstats.ColAlleleB, sumstats.ColMAF, sumstats.ColBeta, sumstats.ColSE}

// ZHeader is the FINEMAP Z file header.
const ZHeader = "rsid chromosome position allele1 allele2 maf beta se"

// WriteZ writes one Z file row per variant, in locus order. The row order
// must match the order of the LD matrix.
func WriteZ(w io.Writer, variants []sumstats.Variant) error {
	if _, err := fmt.Fprintln(w, ZHeader); err != nil {
		return err
	}

	for _, v := range variants {
		if !v.MAF.Valid || !v.Beta.Valid || !v.SE.Valid {
			return fmt.Errorf("%s: FINEMAP needs maf, beta and se", v)
		}

		fields := []string{
			v.RSID,
			v.Chromosome,
			strconv.Itoa(v.Position),
			v.AlleleA,
			v.AlleleB,
			output.FormatFloat(v.MAF.Float64),
			output.FormatFloat(v.Beta.Float64),
			output.FormatFloat(v.SE.Float64),
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, " ")); err != nil {
			return err
		}
	}

	return nil
}

// Master is one row of the FINEMAP master file.
type Master struct {
	Z        string
	LD       string
	SNP      string
	Config   string
	Cred     string
	Log      string
	NSamples int64
}

// MasterHeader is the master file header.
const MasterHeader = "z;ld;snp;config;cred;log;n_samples"

// NewMaster names the files for one locus after stem: everything FINEMAP
// writes goes in dir, and the LD matrix is read from ldDir.
func NewMaster(l locus.Locus, stem, dir, ldDir string) Master {
	base := filepath.Join(dir, stem)

	return Master{
		Z:        base + ".z",
		LD:       filepath.Join(ldDir, stem+".ld"),
		SNP:      base + ".snp",
		Config:   base + ".config",
		Cred:     base + ".cred",
		Log:      base + ".log",
		NSamples: SampleSize(l.Variants),
	}
}

// SampleSize is the largest all_total in the locus, or 0 if none is known.
func SampleSize(variants []sumstats.Variant) int64 {
	var n int64
	for _, v := range variants {
		if v.AllTotal.Valid && v.AllTotal.Int64 > n {
			n = v.AllTotal.Int64
		}
	}
	return n
}

// WriteMaster writes the master file for a run over several loci.
func WriteMaster(w io.Writer, rows []Master) error {
	if _, err := fmt.Fprintln(w, MasterHeader); err != nil {
		return err
	}

	for _, m := range rows {
		if _, err := fmt.Fprintf(w, "%s;%s;%s;%s;%s;%s;%d\n", m.Z, m.LD, m.SNP, m.Config, m.Cred, m.Log, m.NSamples); err != nil {
			return err
		}
	}

	return nil
}

// Prepare writes a Z file per locus and a master file named master in dir.
// It returns the path to the master file.
func Prepare(loci []locus.Locus, dir, ldDir string) (string, error) {
	rows := make([]Master, 0, len(loci))
	stems := locus.FileStems(loci)
	for i, l := range loci {
		m := NewMaster(l, stems[i], dir, ldDir)
		if err := writeFile(m.Z, func(w io.Writer) error { return WriteZ(w, l.Variants) }); err != nil {
			return "", fmt.Errorf("locus %s: %w", l.IndexRSID(), err)
		}
		rows = append(rows, m)
	}

	masterFile := filepath.Join(dir, "master")
	if err := writeFile(masterFile, func(w io.Writer) error { return WriteMaster(w, rows) }); err != nil {
		return "", err
	}

	return masterFile, nil
}

func writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return pfx.Err(err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return f.Close()
}

// Run invokes the FINEMAP binary in shotgun stochastic search mode on a
// master file. nCausal <= 0 leaves FINEMAP's default in place.
func Run(ctx context.Context, binary, masterFile string, nCausal int) error {
	args := []string{"--sss", "--in-files", masterFile}
	if nCausal > 0 {
		args = append(args, "--n-causal-snps", strconv.Itoa(nCausal))
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.WithField("output", string(out)).Errorln("FINEMAP failed")
		return fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	log.WithField("master", masterFile).Debugln(string(out))

	return nil
}
