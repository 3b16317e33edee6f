package sumstats

import (
	"fmt"
	"sort"
)

// Table is an ordered collection of variants on one chromosome. Variants are
// kept in input order; a secondary index sorted by position serves range
// queries.
type Table struct {
	Chromosome string
	Columns    ColumnSet

	variants   []Variant
	byPosition []int
}

// NewTable builds a table. All variants must share one chromosome.
func NewTable(variants []Variant, columns ColumnSet) (*Table, error) {
	t := &Table{
		Columns:    columns,
		variants:   variants,
		byPosition: make([]int, len(variants)),
	}
	if t.Columns == nil {
		t.Columns = NewColumnSet()
	}

	for i, v := range variants {
		if i == 0 {
			t.Chromosome = v.Chromosome
		} else if v.Chromosome != t.Chromosome {
			return nil, fmt.Errorf("NewTable: variant %s is on chromosome %s, but the table is for chromosome %s", v.RSID, v.Chromosome, t.Chromosome)
		}
		t.byPosition[i] = i
	}

	sort.SliceStable(t.byPosition, func(i, j int) bool {
		return variants[t.byPosition[i]].Position < variants[t.byPosition[j]].Position
	})

	return t, nil
}

// SplitByChromosome groups variants into one table per chromosome, ordered by
// each chromosome's first appearance.
func SplitByChromosome(variants []Variant, columns ColumnSet) ([]*Table, error) {
	groups := make(map[string][]Variant)
	order := make([]string, 0)
	for _, v := range variants {
		if _, exists := groups[v.Chromosome]; !exists {
			order = append(order, v.Chromosome)
		}
		groups[v.Chromosome] = append(groups[v.Chromosome], v)
	}

	out := make([]*Table, 0, len(order))
	for _, chr := range order {
		t, err := NewTable(groups[chr], columns)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}

func (t *Table) Len() int {
	return len(t.variants)
}

// At returns the i'th variant in input order.
func (t *Table) At(i int) Variant {
	return t.variants[i]
}

// Variants returns a copy of the table's variants in input order.
func (t *Table) Variants() []Variant {
	out := make([]Variant, len(t.variants))
	copy(out, t.variants)
	return out
}

// SortedIndex returns the input-order indices of the variants sorted by
// position. Variants sharing a position stay in input order. The slice must
// not be modified.
func (t *Table) SortedIndex() []int {
	return t.byPosition
}

// LowerBound returns the first offset into SortedIndex whose variant is at or
// beyond position.
func (t *Table) LowerBound(position int) int {
	return sort.Search(len(t.byPosition), func(k int) bool {
		return t.variants[t.byPosition[k]].Position >= position
	})
}

// Range returns the variants with start <= position <= end, in input order.
func (t *Table) Range(start, end int) []Variant {
	if end < start {
		return []Variant{}
	}

	lo := t.LowerBound(start)
	hi := t.LowerBound(end + 1)

	idx := make([]int, hi-lo)
	copy(idx, t.byPosition[lo:hi])
	sort.Ints(idx)

	out := make([]Variant, len(idx))
	for i, k := range idx {
		out[i] = t.variants[k]
	}

	return out
}

// Filter returns a new table holding the variants for which keep is true.
func (t *Table) Filter(keep func(Variant) bool) *Table {
	kept := make([]Variant, 0, len(t.variants))
	for _, v := range t.variants {
		if keep(v) {
			kept = append(kept, v)
		}
	}

	// Filtering cannot introduce a second chromosome
	out, _ := NewTable(kept, t.Columns)
	if out.Chromosome == "" {
		out.Chromosome = t.Chromosome
	}

	return out
}
