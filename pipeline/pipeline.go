// Package pipeline runs summary statistics through index variant selection,
// locus extraction and credible set construction.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/carbocation/craft/abf"
	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/hwe"
	"github.com/carbocation/craft/indexsnp"
	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/sumstats"
	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Input is one summary statistics file.
type Input struct {
	Name     string
	Variants []sumstats.Variant
	Columns  sumstats.ColumnSet

	// Maps are required in cM mode.
	Maps geneticmap.Maps
}

// Result holds everything one input produced. Index, Loci and Sets follow
// selection order, chromosome by chromosome in order of first appearance.
// Sets[i] is nil when locus i was degenerate.
type Result struct {
	Name    string
	Columns sumstats.ColumnSet
	Unit    indexsnp.Unit

	Index   []indexsnp.IndexVariant
	Skipped []indexsnp.SkippedVariant
	Loci    []locus.Locus
	Sets    []*abf.CredibleSet

	// Failed holds the per-locus errors, which did not stop the run.
	Failed []error

	// HWEDropped counts variants removed by genotype QC.
	HWEDropped int
}

// Run processes one input. Schema problems, a missing genetic map and
// internal errors are fatal. Out-of-map index variants and degenerate loci
// are logged and recorded in the result.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := sumstats.CheckColumns(in.Name, in.Columns, sumstats.RequiredColumns...); err != nil {
		return nil, err
	}
	if err := sumstats.CheckColumns(in.Name, in.Columns, opts.Model.RequiredColumns()...); err != nil {
		return nil, err
	}

	tables, err := sumstats.SplitByChromosome(in.Variants, in.Columns)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:    in.Name,
		Columns: in.Columns,
		Unit:    opts.Select.Unit,
		Index:   []indexsnp.IndexVariant{},
		Skipped: []indexsnp.SkippedVariant{},
		Loci:    []locus.Locus{},
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t = res.qc(t, opts.HWEThreshold)

		selOpts := opts.Select
		if selOpts.Unit == indexsnp.UnitCM {
			if selOpts.Map, err = in.Maps.Get(t.Chromosome); err != nil {
				return nil, fmt.Errorf("%s: %w", in.Name, err)
			}
		}

		sel, err := indexsnp.Select(t, selOpts)
		if err != nil {
			return nil, fmt.Errorf("%s: chromosome %s: %w", in.Name, t.Chromosome, err)
		}
		for _, s := range sel.Skipped {
			log.WithFields(log.Fields{
				"input":      in.Name,
				"chromosome": s.Chromosome,
				"index_rsid": s.RSID,
			}).Warnln("Skipping index variant:", s.Err)
		}

		log.WithFields(log.Fields{
			"input":      in.Name,
			"chromosome": t.Chromosome,
			"variants":   t.Len(),
			"index":      len(sel.Index),
		}).Infoln("Selected index variants")

		res.Index = append(res.Index, sel.Index...)
		res.Skipped = append(res.Skipped, sel.Skipped...)
		res.Loci = append(res.Loci, locus.Extract(t, sel.Index)...)
	}

	if err := res.credibleSets(ctx, opts); err != nil {
		return nil, err
	}

	res.summarize()

	return res, nil
}

// qc drops variants that fail Hardy-Weinberg equilibrium. Variants without
// genotype counts are kept.
func (r *Result) qc(t *sumstats.Table, threshold float64) *sumstats.Table {
	if threshold <= 0 || len(t.Columns.Missing(sumstats.ColGenotypeAA, sumstats.ColGenotypeAB, sumstats.ColGenotypeBB)) > 0 {
		return t
	}

	out := t.Filter(func(v sumstats.Variant) bool {
		if !v.GenotypeAA.Valid || !v.GenotypeAB.Valid || !v.GenotypeBB.Valid {
			return true
		}
		counts := hwe.Counts{HomA: v.GenotypeAA.Int64, Het: v.GenotypeAB.Int64, HomB: v.GenotypeBB.Int64}
		return counts.Fast(threshold) >= threshold
	})

	if dropped := t.Len() - out.Len(); dropped > 0 {
		r.HWEDropped += dropped
		log.WithFields(log.Fields{
			"input":      r.Name,
			"chromosome": t.Chromosome,
			"dropped":    dropped,
		}).Infoln("Dropped variants failing HWE")
	}

	return out
}

// credibleSets computes every locus independently, in parallel.
func (r *Result) credibleSets(ctx context.Context, opts Options) error {
	r.Sets = make([]*abf.CredibleSet, len(r.Loci))
	failed := make([]error, len(r.Loci))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := range r.Loci {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cs, err := abf.Compute(r.Loci[i], opts.Model, opts.Credible)
			var degenerate *abf.DegenerateLocusError
			if errors.As(err, &degenerate) {
				failed[i] = err
				return nil
			} else if err != nil {
				return err
			}

			r.Sets[i] = cs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Reported in locus order
	for i, err := range failed {
		if err == nil {
			continue
		}
		log.WithFields(log.Fields{
			"input":      r.Name,
			"chromosome": r.Loci[i].Index.Chromosome,
			"index_rsid": r.Loci[i].IndexRSID(),
		}).Warnln("Excluding locus:", err)
		r.Failed = append(r.Failed, err)
	}

	return nil
}

func (r *Result) summarize() {
	regionKB := make([]float64, 0, len(r.Index))
	for _, iv := range r.Index {
		regionKB = append(regionKB, float64(iv.RegionEnd-iv.RegionStart)/1000)
	}

	setSizes := make([]float64, 0, len(r.Sets))
	for _, cs := range r.Sets {
		if cs != nil {
			setSizes = append(setSizes, float64(cs.Size))
		}
	}

	locusSizes := runningvariance.NewRunningStat()
	for _, l := range r.Loci {
		locusSizes.Push(float64(l.Len()))
	}

	fields := log.Fields{
		"input":    r.Name,
		"index":    len(r.Index),
		"skipped":  len(r.Skipped),
		"excluded": len(r.Failed),
	}
	if median, err := stats.Median(regionKB); err == nil {
		fields["median_region_kb"] = median
	}
	if median, err := stats.Median(setSizes); err == nil {
		fields["median_credible_set_size"] = median
	}
	if locusSizes.N > 0 {
		fields["mean_locus_variants"] = locusSizes.Mean()
	}
	if locusSizes.N > 1 {
		fields["sd_locus_variants"] = locusSizes.StandardDeviation()
	}

	log.WithFields(fields).Infoln("Finished")
}
