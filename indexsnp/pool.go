package indexsnp

import (
	"sort"

	"github.com/carbocation/craft/sumstats"
	"github.com/theodesp/unionfind"
)

// pool tracks which variants of a table are still eligible. Removal works on
// the table's position index. Each removed offset is joined to the set of
// its right neighbor, so every set is a run of removed offsets ending in one
// live offset (or the sentinel n), and deleting a range visits only live
// entries.
type pool struct {
	t    *sumstats.Table
	size int

	gone []bool // by table offset
	rank []int  // table offset -> position-index offset

	runs *unionfind.ThreadSafeUnionFind
	live []int // set root -> the live offset that ends the run
}

func newPool(t *sumstats.Table) *pool {
	n := t.Len()
	runs := unionfind.NewThreadSafeUnionFind(n + 1)
	p := &pool{
		t:    t,
		size: n,
		gone: make([]bool, n),
		rank: make([]int, n),
		runs: &runs,
		live: make([]int, n+1),
	}

	for k, i := range t.SortedIndex() {
		p.rank[i] = k
	}
	for k := range p.live {
		p.live[k] = k
	}

	return p
}

func (p *pool) removed(i int) bool {
	return p.gone[i]
}

// find returns the first live position-index offset at or after k, or n.
func (p *pool) find(k int) int {
	return p.live[p.runs.Root(k)]
}

// drop removes the live offset k.
func (p *pool) drop(k int) {
	next := p.find(k + 1)

	p.gone[p.t.SortedIndex()[k]] = true
	p.runs.Union(k, k+1)
	p.live[p.runs.Root(k)] = next
	p.size--
}

// remove takes the variant at table offset i out of the pool.
func (p *pool) remove(i int) {
	if !p.gone[i] {
		p.drop(p.rank[i])
	}
}

// removeRange takes every variant with start <= position <= end out of the
// pool and returns how many were removed.
func (p *pool) removeRange(start, end int) int {
	if end < start {
		return 0
	}

	removed := 0
	hi := p.t.LowerBound(end + 1)
	for k := p.find(p.t.LowerBound(start)); k < hi; k = p.find(k) {
		p.drop(k)
		removed++
	}

	return removed
}

// alive lists the variants still in the pool, in input order.
func (p *pool) alive() []sumstats.Variant {
	sorted := p.t.SortedIndex()
	idx := make([]int, 0, p.size)
	for k := p.find(0); k < len(sorted); k = p.find(k + 1) {
		idx = append(idx, sorted[k])
	}
	sort.Ints(idx)

	out := make([]sumstats.Variant, len(idx))
	for j, i := range idx {
		out[j] = p.t.At(i)
	}

	return out
}
