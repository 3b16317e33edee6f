package hwe

import (
	"math"
	"testing"
)

type expectations struct {
	Counts
	P float64
}

// Truth values calculated by https://www.cog-genomics.org/software/stats
var truth = []expectations{
	{Counts{5000, 0, 5000}, 0},
	{Counts{500, 0, 500}, 1.319669097657e-301},
	{Counts{83, 13, 4}, 0.010293},
	{Counts{50, 57, 14}, 0.8422797565708},
	{Counts{2, 1, 3}, 0.15151515151515},
	{Counts{500, 2, 0}, 1},
	{Counts{500, 0, 4}, 1.033376916931e-10},
	{Counts{500, 0, 2}, 0.000002988038880362},
	{Counts{500, 1, 2}, 0.0000148807309415},
	{Counts{500, 4, 2}, 0.0002050449518921},
	{Counts{500, 2, 2}, 0.00004443531076574},
}

func TestExact(t *testing.T) {
	for _, v := range truth {
		if p := v.Exact(); math.Abs(p-v.P) > 1e-6 {
			t.Fatalf("\nError with input: %+v\nP: %.12f\nExpected: %.12f\nDiff: %.12f\n", v.Counts, p, v.P, p-v.P)
		}
	}
}

func TestExactIsSymmetric(t *testing.T) {
	a := Counts{4, 13, 83}.Exact()
	b := Counts{83, 13, 4}.Exact()
	if a != b {
		t.Errorf("Swapping homozygotes changed P: %v vs %v", a, b)
	}
}

func TestChiSquareMonomorphic(t *testing.T) {
	if x := (Counts{100, 0, 0}).ChiSquare(); x != 0 {
		t.Errorf("Expected 0 for a monomorphic site, got %v", x)
	}
}

func TestFast(t *testing.T) {
	c := Counts{500, 0, 4}
	if p := c.Fast(0.05); p != c.Exact() {
		t.Errorf("Expected the exact P below the cutoff, got %v", p)
	}

	c = Counts{50, 57, 14}
	if p := c.Fast(1e-6); p < 0.5 {
		t.Errorf("Expected a large approximate P, got %v", p)
	}
}
