package indexsnp

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/sumstats"
)

func table(t *testing.T, chr string, positions []int, pvalues []float64) *sumstats.Table {
	t.Helper()

	variants := make([]sumstats.Variant, len(positions))
	for i := range positions {
		variants[i] = sumstats.Variant{
			RSID:       "rs" + string(rune('a'+i%26)) + string(rune('a'+i/26%26)) + string(rune('a'+i/676%26)),
			Chromosome: chr,
			Position:   positions[i],
			PValue:     pvalues[i],
			Record:     i,
		}
	}

	tab, err := sumstats.NewTable(variants, nil)
	if err != nil {
		t.Fatal(err)
	}

	return tab
}

func bp(distance float64) Options {
	return Options{Alpha: GenomeWideSignificance, Distance: distance, Unit: UnitBP}
}

func TestSelectWidelySpacedSignals(t *testing.T) {
	tab := table(t, "1",
		[]int{1_000_000, 4_000_000, 7_000_000, 10_000_000, 13_000_000},
		[]float64{1e-9, 0.3, 1e-10, 0.01, 5e-9})

	sel, err := Select(tab, bp(1_000_000))
	if err != nil {
		t.Fatal(err)
	}

	expected := []float64{1e-10, 1e-9, 5e-9}
	if len(sel.Index) != len(expected) {
		t.Fatalf("Expected %d index variants, got %d", len(expected), len(sel.Index))
	}
	for i, p := range expected {
		if sel.Index[i].PValue != p {
			t.Errorf("Index variant %d: expected P %v, got %v", i, p, sel.Index[i].PValue)
		}
	}

	first := sel.Index[0]
	if first.Position != 7_000_000 || first.RegionStart != 6_000_000 || first.RegionEnd != 8_000_000 {
		t.Errorf("Unexpected region for %s: [%d, %d]", first, first.RegionStart, first.RegionEnd)
	}
	if len(sel.Remaining) != 2 {
		t.Errorf("Expected the 2 non-significant variants to remain, got %d", len(sel.Remaining))
	}
}

func TestSelectExclusionIsInclusive(t *testing.T) {
	tab := table(t, "1",
		[]int{1_000_000, 2_000_000, 2_000_001, 0},
		[]float64{1e-10, 1e-9, 2e-9, 3e-9})

	sel, err := Select(tab, bp(1_000_000))
	if err != nil {
		t.Fatal(err)
	}

	// 2,000,000 and 0 sit exactly on the boundaries of the first region
	if len(sel.Index) != 2 {
		t.Fatalf("Expected 2 index variants, got %d", len(sel.Index))
	}
	if sel.Index[1].Position != 2_000_001 {
		t.Errorf("Expected the second index variant at 2000001, got %d", sel.Index[1].Position)
	}
}

func TestSelectNegativeBoundsAreNotClamped(t *testing.T) {
	tab := table(t, "1", []int{500}, []float64{1e-20})

	sel, err := Select(tab, bp(1000))
	if err != nil {
		t.Fatal(err)
	}
	if sel.Index[0].RegionStart != -500 {
		t.Errorf("Expected region start -500, got %d", sel.Index[0].RegionStart)
	}
}

func TestSelectTiesGoToInputOrder(t *testing.T) {
	tab := table(t, "1",
		[]int{9_000_000, 1_000_000, 5_000_000},
		[]float64{1e-9, 1e-9, 1e-9})

	sel, err := Select(tab, bp(100))
	if err != nil {
		t.Fatal(err)
	}
	for i, pos := range []int{9_000_000, 1_000_000, 5_000_000} {
		if sel.Index[i].Position != pos {
			t.Errorf("Tie %d: expected position %d, got %d", i, pos, sel.Index[i].Position)
		}
	}
}

func TestSelectEmpty(t *testing.T) {
	for _, tab := range []*sumstats.Table{
		table(t, "1", nil, nil),
		table(t, "1", []int{1, 2, 3}, []float64{0.5, 0.01, 1}),
	} {
		sel, err := Select(tab, bp(10))
		if err != nil {
			t.Fatal(err)
		}
		if len(sel.Index) != 0 {
			t.Errorf("Expected no index variants, got %d", len(sel.Index))
		}
	}

	// An empty table needs no genetic map
	if _, err := Select(table(t, "1", nil, nil), Options{Alpha: 1, Distance: 0.1, Unit: UnitCM}); err != nil {
		t.Error(err)
	}
}

func TestSelectRejectsFractionalBP(t *testing.T) {
	tab := table(t, "1", []int{1}, []float64{1e-9})
	if _, err := Select(tab, bp(10.5)); err == nil {
		t.Error("Expected an error for a fractional bp distance")
	}
	if _, err := Select(tab, Options{Alpha: 1, Distance: 1, Unit: UnitCM}); err == nil {
		t.Error("Expected an error for cM mode without a map")
	}
}

func TestSelectDropsMHC(t *testing.T) {
	positions := []int{MHCStart, 30_000_000, MHCEnd, MHCEnd + 1000}
	pvalues := []float64{1e-30, 1e-20, 1e-25, 1e-9}

	opts := bp(10)
	opts.DropMHCRegion = true

	sel, err := Select(table(t, "6", positions, pvalues), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Index) != 1 || sel.Index[0].Position != MHCEnd+1000 {
		t.Errorf("Expected only the variant outside the MHC, got %v", sel.Index)
	}
	if len(sel.Remaining) != 0 {
		t.Errorf("MHC variants should not remain in the pool, got %d", len(sel.Remaining))
	}

	// Only chromosome 6 is affected
	sel, err = Select(table(t, "1", positions, pvalues), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Index) != 4 {
		t.Errorf("Expected 4 index variants on chromosome 1, got %d", len(sel.Index))
	}

	// Retained when not dropping
	opts.DropMHCRegion = false
	sel, err = Select(table(t, "6", positions, pvalues), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Index) != 4 || sel.Index[0].Position != MHCStart {
		t.Errorf("Expected the MHC to be retained, got %v", sel.Index)
	}
}

// Random tables exercise the properties that hold for any input.
func TestSelectProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		n := 500 + rng.Intn(2000)
		positions := make([]int, n)
		pvalues := make([]float64, n)
		for i := range positions {
			positions[i] = rng.Intn(50_000_000)
			pvalues[i] = rng.Float64()
			if rng.Intn(10) == 0 {
				pvalues[i] *= 1e-10
			}
		}
		tab := table(t, "6", positions, pvalues)

		opts := bp(float64(rng.Intn(1_000_000)))
		opts.DropMHCRegion = trial%2 == 0

		sel, err := Select(tab, opts)
		if err != nil {
			t.Fatal(err)
		}

		for i, iv := range sel.Index {
			if i > 0 && iv.PValue < sel.Index[i-1].PValue {
				t.Fatalf("Trial %d: P decreased from %v to %v", trial, sel.Index[i-1].PValue, iv.PValue)
			}
			for _, earlier := range sel.Index[:i] {
				if earlier.Contains(iv.Position) {
					t.Fatalf("Trial %d: %s lies within the region of %s", trial, iv, earlier)
				}
			}
			if opts.DropMHCRegion && iv.Position >= MHCStart && iv.Position <= MHCEnd {
				t.Fatalf("Trial %d: %s is in the MHC", trial, iv)
			}
		}

		for _, v := range sel.Remaining {
			if v.PValue <= opts.Alpha {
				t.Fatalf("Trial %d: %s with P %v remained in the pool", trial, v, v.PValue)
			}
			for _, iv := range sel.Index {
				if iv.Contains(v.Position) {
					t.Fatalf("Trial %d: %s remained inside the region of %s", trial, v, iv)
				}
			}
		}

		// What remains yields nothing further
		rest, err := sumstats.NewTable(sel.Remaining, nil)
		if err != nil {
			t.Fatal(err)
		}
		again, err := Select(rest, opts)
		if err != nil {
			t.Fatal(err)
		}
		if len(again.Index) != 0 {
			t.Fatalf("Trial %d: expected nothing from the remaining pool, got %d", trial, len(again.Index))
		}

		// The index variants are a fixed point
		variants := make([]sumstats.Variant, len(sel.Index))
		for i, iv := range sel.Index {
			variants[i] = iv.Variant
		}
		own, err := sumstats.NewTable(variants, nil)
		if err != nil {
			t.Fatal(err)
		}
		again, err = Select(own, opts)
		if err != nil {
			t.Fatal(err)
		}
		if len(again.Index) != len(sel.Index) {
			t.Fatalf("Trial %d: reselecting %d index variants yielded %d", trial, len(sel.Index), len(again.Index))
		}
		for i := range again.Index {
			if again.Index[i].RSID != sel.Index[i].RSID {
				t.Fatalf("Trial %d: reselection order differs at %d", trial, i)
			}
		}
	}
}

// One cM per Mb between 1 and 4 Mb.
func linearMap(t *testing.T) *geneticmap.Map {
	t.Helper()

	m, err := geneticmap.New("1", []geneticmap.Entry{
		{Position: 1_000_000, CM: 0},
		{Position: 2_000_000, CM: 1},
		{Position: 3_000_000, CM: 2},
		{Position: 4_000_000, CM: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func near(a, b int) bool {
	return a-b <= 1 && b-a <= 1
}

func TestSelectCM(t *testing.T) {
	tab := table(t, "1",
		[]int{2_500_000, 2_590_000, 2_650_000, 3_800_000, 950_000},
		[]float64{1e-10, 1e-9, 2e-9, 3e-9, 1e-11})

	opts := Options{Alpha: GenomeWideSignificance, Distance: 0.1, Unit: UnitCM, Map: linearMap(t)}
	sel, err := Select(tab, opts)
	if err != nil {
		t.Fatal(err)
	}

	// 950,000 precedes the map, so it is skipped rather than fatal
	if len(sel.Skipped) != 1 || sel.Skipped[0].Position != 950_000 {
		t.Fatalf("Expected 950000 to be skipped, got %v", sel.Skipped)
	}
	var oor *geneticmap.OutOfRangeError
	if !errors.As(sel.Skipped[0].Err, &oor) {
		t.Errorf("Expected an OutOfRangeError, got %v", sel.Skipped[0].Err)
	}

	if len(sel.Index) != 3 {
		t.Fatalf("Expected 3 index variants, got %d", len(sel.Index))
	}

	first := sel.Index[0]
	if !near(first.RegionStart, 2_400_000) || !near(first.RegionEnd, 2_600_000) {
		t.Errorf("Unexpected region [%d, %d]", first.RegionStart, first.RegionEnd)
	}
	if first.RegionSizeKB != 200 {
		t.Errorf("Expected a 200 kb region, got %v", first.RegionSizeKB)
	}
	if first.Unit != UnitCM {
		t.Errorf("Expected unit %s, got %s", UnitCM, first.Unit)
	}

	if sel.Index[1].Position != 2_650_000 || sel.Index[2].Position != 3_800_000 {
		t.Errorf("Unexpected selection %v", sel.Index)
	}
}

func TestSelectCMRegionBeyondMap(t *testing.T) {
	tab := table(t, "1", []int{3_950_000, 3_000_000}, []float64{1e-10, 1e-9})

	sel, err := Select(tab, Options{Alpha: GenomeWideSignificance, Distance: 0.1, Unit: UnitCM, Map: linearMap(t)})
	if err != nil {
		t.Fatal(err)
	}

	// 3.95 Mb + 0.1 cM runs off the end of the map
	if len(sel.Skipped) != 1 || len(sel.Index) != 1 || sel.Index[0].Position != 3_000_000 {
		t.Errorf("Unexpected selection %v, skipped %v", sel.Index, sel.Skipped)
	}
}

func TestSelectCMWrongMap(t *testing.T) {
	tab := table(t, "2", []int{2_000_000}, []float64{1e-10})
	if _, err := Select(tab, Options{Alpha: 1, Distance: 0.1, Unit: UnitCM, Map: linearMap(t)}); err == nil {
		t.Error("Expected an error when the map is for another chromosome")
	}
}

func TestParseUnit(t *testing.T) {
	for in, expected := range map[string]Unit{"bp": UnitBP, "CM": UnitCM, " cm ": UnitCM} {
		if u, err := ParseUnit(in); err != nil || u != expected {
			t.Errorf("ParseUnit(%q): expected %s, got %s (%v)", in, expected, u, err)
		}
	}
	if _, err := ParseUnit("kb"); err == nil {
		t.Error("Expected an error for kb")
	}
}

func TestSelectCMFlatStretchZeroDistance(t *testing.T) {
	m, err := geneticmap.New("1", []geneticmap.Entry{
		{Position: 1000, CM: 0},
		{Position: 2000, CM: 0.002},
		{Position: 5000, CM: 0.0045},
		{Position: 7000, CM: 0.0045},
		{Position: 9000, CM: 0.0055},
	})
	if err != nil {
		t.Fatal(err)
	}

	tab := table(t, "1", []int{6000, 8000}, []float64{1e-10, 1e-9})
	sel, err := Select(tab, Options{Alpha: GenomeWideSignificance, Distance: 0, Unit: UnitCM, Map: m})
	if err != nil {
		t.Fatal(err)
	}

	if len(sel.Index) != 2 {
		t.Fatalf("Expected 2 index variants, got %d", len(sel.Index))
	}

	// 6000 sits on the flat stretch that starts at 5000
	first := sel.Index[0]
	if first.RegionStart != 5000 || first.RegionEnd != 6000 {
		t.Errorf("Expected region [5000, 6000], got [%d, %d]", first.RegionStart, first.RegionEnd)
	}
	if !first.Contains(first.Position) {
		t.Errorf("Region [%d, %d] does not contain its index variant", first.RegionStart, first.RegionEnd)
	}

	if second := sel.Index[1]; second.RegionStart != 8000 || second.RegionEnd != 8000 {
		t.Errorf("Expected region [8000, 8000], got [%d, %d]", second.RegionStart, second.RegionEnd)
	}
}
