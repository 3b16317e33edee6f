package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/carbocation/craft"
	"github.com/carbocation/craft/finemap"
	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/pipeline"
	"github.com/carbocation/craft/sumstats"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// compressionSuffixes are trimmed when naming outputs after their input.
var compressionSuffixes = []string{".gz", ".bgz", ".bz2", ".xz", ".zip", ".zlib"}

func inputName(file string) string {
	name := path.Base(file)
	for _, suffix := range compressionSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

func (f flags) process(ctx context.Context, file string, layout sumstats.Layout, maps geneticmap.Maps, opts pipeline.Options) error {
	in, err := f.readInput(ctx, file, layout)
	if err != nil {
		return err
	}
	in.Maps = maps

	res, err := pipeline.Run(ctx, in, opts)
	if err != nil {
		return err
	}

	dir := filepath.Join(f.outDir, in.Name)
	if err := res.Write(dir, pipeline.WriteOptions{Full: f.full, Boundary: opts.Credible.Boundary}); err != nil {
		return err
	}
	log.WithField("input", in.Name).Infoln("Wrote results to", dir)

	if f.finemap == "" {
		return nil
	}

	return f.runFinemap(ctx, in, res.Loci, filepath.Join(dir, f.finemap))
}

func (f flags) readInput(ctx context.Context, file string, layout sumstats.Layout) (pipeline.Input, error) {
	in := pipeline.Input{Name: inputName(file)}

	rdr, err := craft.Open(ctx, file, client)
	if err != nil {
		return in, err
	}
	defer rdr.Close()

	variants, sr, err := sumstats.ReadAll(rdr, layout)
	if err != nil {
		return in, fmt.Errorf("%s: %w", file, err)
	}
	in.Columns = sr.Columns()

	if sr.Skipped > 0 {
		log.WithField("input", in.Name).Infoln("Skipped", sr.Skipped, "rows without a usable association")
	}

	if f.bim != "" {
		br, err := craft.Open(ctx, f.bim, client)
		if err != nil {
			return in, err
		}
		defer br.Close()

		bim, err := sumstats.ReadBIM(br)
		if err != nil {
			return in, fmt.Errorf("%s: %w", f.bim, err)
		}

		var dropped int
		variants, dropped = sumstats.JoinBIM(variants, bim)
		in.Columns.Add(sumstats.ColAlleleA)
		in.Columns.Add(sumstats.ColAlleleB)
		if dropped > 0 {
			log.WithField("input", in.Name).Warnln("Dropped", dropped, "variants absent from", f.bim)
		}
	}

	in.Variants = variants
	log.WithFields(log.Fields{
		"input":    in.Name,
		"variants": len(variants),
	}).Infoln("Read", file)

	return in, nil
}

func (f flags) runFinemap(ctx context.Context, in pipeline.Input, loci []locus.Locus, dir string) error {
	if err := sumstats.CheckColumns(in.Name, in.Columns, finemap.RequiredColumns...); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	master, err := finemap.Prepare(loci, dir, f.ldDir)
	if err != nil {
		return err
	}
	log.WithField("input", in.Name).Infoln("Wrote FINEMAP inputs to", master)

	if f.finemapBinary == "" {
		return nil
	}

	return finemap.Run(ctx, f.finemapBinary, master, f.nCausal)
}
