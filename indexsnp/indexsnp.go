// Package indexsnp picks independent association signals from summary
// statistics. The most significant remaining variant becomes an index
// variant, everything within its exclusion region is discarded, and the
// process repeats until nothing at or below alpha remains.
package indexsnp

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carbocation/craft"
	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/sumstats"
)

// The MHC region on chromosome 6, in base pairs, inclusive.
const (
	MHCChromosome = "6"
	MHCStart      = 25_000_000
	MHCEnd        = 35_000_000
)

// GenomeWideSignificance is the conventional default for alpha.
const GenomeWideSignificance = 5e-8

// Unit is the unit in which exclusion distances are expressed.
type Unit string

const (
	UnitBP Unit = "bp"
	UnitCM Unit = "cm"
)

// ParseUnit accepts "bp" or "cm" in any case.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitBP, UnitCM:
		return u, nil
	}

	return "", fmt.Errorf("unknown distance unit %q, expected %s or %s", s, UnitBP, UnitCM)
}

// Options control index variant selection.
type Options struct {
	// Variants with P <= Alpha are eligible to become index variants.
	Alpha float64

	// Distance is the exclusion half-width around each index variant. In bp
	// mode it must be a whole number of base pairs.
	Distance float64
	Unit     Unit

	// DropMHCRegion, when true, removes chromosome 6 variants within
	// [MHCStart, MHCEnd] from consideration before any selection.
	DropMHCRegion bool

	// Map is the genetic map for the table's chromosome. Required in cM mode.
	Map *geneticmap.Map
}

func (o Options) validate(t *sumstats.Table) error {
	if math.IsNaN(o.Alpha) || o.Alpha < 0 || o.Alpha > 1 {
		return fmt.Errorf("alpha %v is outside [0, 1]", o.Alpha)
	}
	if math.IsNaN(o.Distance) || math.IsInf(o.Distance, 0) || o.Distance < 0 {
		return fmt.Errorf("distance %v must be a non-negative number", o.Distance)
	}

	switch o.Unit {
	case UnitBP:
		if o.Distance != math.Trunc(o.Distance) {
			return fmt.Errorf("distance %v must be a whole number of base pairs", o.Distance)
		}
	case UnitCM:
		if t.Len() == 0 {
			// Nothing will be looked up
			return nil
		}
		if o.Map == nil {
			return fmt.Errorf("chromosome %s: a genetic map is required for cM distances", t.Chromosome)
		}
		if craft.NormalizeChromosome(o.Map.Chromosome) != craft.NormalizeChromosome(t.Chromosome) {
			return fmt.Errorf("the genetic map is for chromosome %s, but the variants are on chromosome %s", o.Map.Chromosome, t.Chromosome)
		}
	default:
		return fmt.Errorf("unknown distance unit %q", o.Unit)
	}

	return nil
}

// IndexVariant is a selected variant together with its exclusion region.
// RegionStart and RegionEnd are base pair positions in both modes; in cM
// mode they are derived from the genetic map and always contain the index
// variant's own position. RegionSizeKB is only set in cM
// mode.
type IndexVariant struct {
	sumstats.Variant

	RegionStart  int
	RegionEnd    int
	RegionSizeKB float64
	Unit         Unit
}

// Contains reports whether position lies within the region, inclusive.
func (iv IndexVariant) Contains(position int) bool {
	return position >= iv.RegionStart && position <= iv.RegionEnd
}

// SkippedVariant is a candidate whose region could not be computed. It was
// removed from the pool without excluding its neighbors.
type SkippedVariant struct {
	sumstats.Variant
	Err error
}

// Selection is the result of one run of Select.
type Selection struct {
	// Index variants in selection order, which is ascending P.
	Index []IndexVariant

	// Skipped lists eligible variants whose genetic-map lookup fell outside
	// the map.
	Skipped []SkippedVariant

	// Remaining holds the pool left after selection, in input order. None has
	// P <= alpha.
	Remaining []sumstats.Variant
}

// Select runs greedy index-variant selection over one chromosome. Ties on P
// go to the variant that appeared first in the input.
func Select(t *sumstats.Table, opts Options) (Selection, error) {
	sel := Selection{
		Index:     []IndexVariant{},
		Skipped:   []SkippedVariant{},
		Remaining: []sumstats.Variant{},
	}

	if err := opts.validate(t); err != nil {
		return sel, err
	}

	p := newPool(t)

	if opts.DropMHCRegion && craft.NormalizeChromosome(t.Chromosome) == MHCChromosome {
		p.removeRange(MHCStart, MHCEnd)
	}

	for _, i := range bySignificance(t) {
		if p.removed(i) {
			continue
		}

		v := t.At(i)
		if !(v.PValue <= opts.Alpha) {
			// Everything after this is less significant
			break
		}

		iv, err := opts.region(v)
		var oor *geneticmap.OutOfRangeError
		if errors.As(err, &oor) {
			sel.Skipped = append(sel.Skipped, SkippedVariant{Variant: v, Err: err})
			p.remove(i)
			continue
		} else if err != nil {
			return sel, err
		}

		before := p.size
		p.removeRange(iv.RegionStart, iv.RegionEnd)
		if p.size >= before || !p.removed(i) {
			return sel, &ConvergenceError{
				RSID:       v.RSID,
				PoolBefore: before,
				PoolAfter:  p.size,
			}
		}

		sel.Index = append(sel.Index, iv)
	}

	sel.Remaining = p.alive()

	return sel, nil
}

// region computes the exclusion region around v.
func (o Options) region(v sumstats.Variant) (IndexVariant, error) {
	iv := IndexVariant{Variant: v, Unit: o.Unit}

	if o.Unit == UnitBP {
		d := int(o.Distance)
		iv.RegionStart = v.Position - d
		iv.RegionEnd = v.Position + d
		return iv, nil
	}

	cm, err := o.Map.PositionToCM(v.Position)
	if err != nil {
		return iv, err
	}
	if iv.RegionStart, err = o.Map.CMToPosition(cm - o.Distance); err != nil {
		return iv, err
	}
	if iv.RegionEnd, err = o.Map.CMToPosition(cm + o.Distance); err != nil {
		return iv, err
	}

	// On a flat stretch of the map the inverse lands on the first position
	// with that cM value, which may lie left of v.
	if iv.RegionStart > v.Position {
		iv.RegionStart = v.Position
	}
	if iv.RegionEnd < v.Position {
		iv.RegionEnd = v.Position
	}
	iv.RegionSizeKB = math.Round(float64(iv.RegionEnd-iv.RegionStart)/1000*10) / 10

	return iv, nil
}

// bySignificance returns table offsets ordered by ascending P, with input
// order breaking ties.
func bySignificance(t *sumstats.Table) []int {
	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return t.At(order[a]).PValue < t.At(order[b]).PValue
	})

	return order
}
