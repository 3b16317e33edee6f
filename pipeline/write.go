package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carbocation/craft/abf"
	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/output"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// WriteOptions select the optional outputs.
type WriteOptions struct {
	// Full also writes every locus row, flagged by credible set membership.
	Full     bool
	Boundary abf.Boundary
}

// Write creates dir and writes <name>.index, <name>.loci, <stem>.abf.cred
// for each non-degenerate locus and, with Full, <stem>.abf.locus. The stem
// is the index rsid unless that is empty or repeated; see locus.FileStems.
func (r *Result) Write(dir string, opts WriteOptions) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	columns := output.VariantColumns(r.Columns)

	if err := createAndWrite(filepath.Join(dir, r.Name+".index"), func(w io.Writer) error {
		return output.WriteIndex(w, columns, r.Unit, r.Index)
	}); err != nil {
		return err
	}

	if err := createAndWrite(filepath.Join(dir, r.Name+".loci"), func(w io.Writer) error {
		return output.WriteSummaries(w, output.Summaries(r.Loci, r.Sets))
	}); err != nil {
		return err
	}

	stems := locus.FileStems(r.Loci)
	for i, cs := range r.Sets {
		if cs == nil {
			continue
		}
		cs := cs

		if stems[i] != cs.IndexRSID {
			log.WithFields(log.Fields{
				"input":      r.Name,
				"chromosome": r.Loci[i].Index.Chromosome,
				"position":   r.Loci[i].Index.Position,
				"index_rsid": cs.IndexRSID,
			}).Warnln("Index rsid is missing or repeated; writing the locus as", stems[i])
		}

		if err := createAndWrite(filepath.Join(dir, stems[i]+".abf.cred"), func(w io.Writer) error {
			return output.WriteCredibleSet(w, columns, cs)
		}); err != nil {
			return err
		}

		if !opts.Full {
			continue
		}
		if err := createAndWrite(filepath.Join(dir, stems[i]+".abf.locus"), func(w io.Writer) error {
			return output.WriteLocus(w, columns, cs, opts.Boundary)
		}); err != nil {
			return err
		}
	}

	return nil
}

func createAndWrite(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		return pfx.Err(err)
	}

	return f.Close()
}
