// Package geneticmap converts between physical position (base pairs) and
// genetic distance (centiMorgans) using a recombination map. Positions that
// fall between map entries are linearly interpolated. Nothing is
// extrapolated beyond the first or last entry.
package geneticmap

import (
	"fmt"
	"math"
	"sort"
)

// Entry is one row of a genetic map.
type Entry struct {
	Position int     // base pairs
	CM       float64 // centiMorgans
}

// Map is the genetic map for a single chromosome. Positions are strictly
// increasing and CM values are non-decreasing. A Map is immutable once
// built, so it is safe to query from concurrent goroutines.
type Map struct {
	Chromosome string

	positions []int
	cms       []float64
}

// New validates entries and builds a Map for the chromosome.
func New(chromosome string, entries []Entry) (*Map, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("genetic map for chromosome %s has no entries", chromosome)
	}

	m := &Map{
		Chromosome: chromosome,
		positions:  make([]int, len(entries)),
		cms:        make([]float64, len(entries)),
	}

	for i, e := range entries {
		if math.IsNaN(e.CM) || math.IsInf(e.CM, 0) {
			return nil, fmt.Errorf("genetic map for chromosome %s: entry %d at %d has invalid cM value %v", chromosome, i, e.Position, e.CM)
		}
		if i > 0 {
			if e.Position <= entries[i-1].Position {
				return nil, fmt.Errorf("genetic map for chromosome %s: positions must be strictly increasing, but entry %d (%d) follows %d", chromosome, i, e.Position, entries[i-1].Position)
			}
			if e.CM < entries[i-1].CM {
				return nil, fmt.Errorf("genetic map for chromosome %s: cM must be non-decreasing, but entry %d (%v) follows %v", chromosome, i, e.CM, entries[i-1].CM)
			}
		}
		m.positions[i] = e.Position
		m.cms[i] = e.CM
	}

	return m, nil
}

// Len is the number of map entries.
func (m *Map) Len() int {
	return len(m.positions)
}

// Entry returns the i'th map entry.
func (m *Map) Entry(i int) Entry {
	return Entry{Position: m.positions[i], CM: m.cms[i]}
}

// Bounds returns the first and last entries of the map.
func (m *Map) Bounds() (first, last Entry) {
	return m.Entry(0), m.Entry(m.Len() - 1)
}

// PositionToCM returns the genetic distance at position. If the position is
// present in the map, its recorded value is returned verbatim.
func (m *Map) PositionToCM(position int) (float64, error) {
	first, last := m.Bounds()
	if position < first.Position || position > last.Position {
		return 0, &OutOfRangeError{
			Chromosome: m.Chromosome,
			Unit:       "bp",
			Query:      float64(position),
			Min:        float64(first.Position),
			Max:        float64(last.Position),
		}
	}

	// First entry at or to the right of position
	idx := sort.SearchInts(m.positions, position)
	if m.positions[idx] == position {
		return m.cms[idx], nil
	}

	return m.interpolate(idx-1, position), nil
}

// CMToPosition returns the base-pair position whose interpolated genetic
// distance is numerically closest to cm. Exact floating point matches are
// not expected, so this is a nearest-neighbor search over the integer
// positions between the two bracketing map entries. Ties go to the leftmost
// position, so on a flat stretch of the map the first position attaining the
// value is returned.
func (m *Map) CMToPosition(cm float64) (int, error) {
	first, last := m.Bounds()
	if math.IsNaN(cm) || cm < first.CM || cm > last.CM {
		return 0, &OutOfRangeError{
			Chromosome: m.Chromosome,
			Unit:       "cM",
			Query:      cm,
			Min:        first.CM,
			Max:        last.CM,
		}
	}

	// First entry whose cM is at or beyond the target
	idx := sort.SearchFloat64s(m.cms, cm)
	if m.cms[idx] == cm {
		return m.positions[idx], nil
	}

	// idx > 0 here, since cm > first.CM
	lo, hi := idx-1, idx
	loPos, hiPos := m.positions[lo], m.positions[hi]
	loCM, hiCM := m.cms[lo], m.cms[hi]

	// Invert the linear segment, then compare the integer positions on either
	// side of the real-valued solution.
	x := float64(loPos) + (cm-loCM)*float64(hiPos-loPos)/(hiCM-loCM)
	left := clamp(int(math.Floor(x)), loPos, hiPos)
	right := clamp(left+1, loPos, hiPos)

	if math.Abs(m.interpolate(lo, right)-cm) < math.Abs(m.interpolate(lo, left)-cm) {
		return right, nil
	}

	return left, nil
}

// interpolate evaluates the segment that starts at map entry lo.
// Y3 = Y1 + (Y2 - Y1) / (X2 - X1) * (X3 - X1)
func (m *Map) interpolate(lo, position int) float64 {
	behindPos, aheadPos := m.positions[lo], m.positions[lo+1]
	behindCM, aheadCM := m.cms[lo], m.cms[lo+1]

	return behindCM + (aheadCM-behindCM)/float64(aheadPos-behindPos)*float64(position-behindPos)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OutOfRangeError is returned when a query lies before the first or after the
// last entry of a genetic map.
type OutOfRangeError struct {
	Chromosome string
	Unit       string
	Query      float64
	Min        float64
	Max        float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("chromosome %s: %v %s is outside the genetic map range [%v, %v]", e.Chromosome, e.Query, e.Unit, e.Min, e.Max)
}
