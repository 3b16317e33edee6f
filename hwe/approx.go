package hwe

import (
	"math"

	"github.com/tokenme/probab/dst"
)

var chiSquare1DF = dst.ChiSquareCDF(1)

// Approximate returns the P value of a 1 degree of freedom chi-square test of
// the observed genotypes against Hardy-Weinberg expectations.
func (c Counts) Approximate() (p float64) {
	defer func() {
		if recover() != nil {
			p = math.NaN()
		}
	}()

	return 1.0 - chiSquare1DF(c.ChiSquare())
}

// ChiSquare is the difference between observed and expected genotype counts
// given the observed allele frequencies. Sites where one allele is absent
// yield 0, since the whole population is then trivially homozygous.
func (c Counts) ChiSquare() float64 {
	if !c.Biallelic() {
		return 0.0
	}

	// Allele frequencies come from allele counts, not sample counts
	N := float64(c.N())
	alleles := 2 * N
	pA := float64(2*c.HomA+c.Het) / alleles
	pB := float64(2*c.HomB+c.Het) / alleles

	chisq := 0.0
	for _, v := range []struct{ observed, expected float64 }{
		{float64(c.HomA), pA * pA * N},
		{float64(c.Het), 2 * pA * pB * N},
		{float64(c.HomB), pB * pB * N},
	} {
		chisq += math.Pow(v.observed-v.expected, 2) / v.expected
	}

	return chisq
}

// Fast uses the chi-square approximation and only computes the exact P value
// when the approximation falls below cutoff or cannot be computed.
func (c Counts) Fast(cutoff float64) float64 {
	if p := c.Approximate(); p >= cutoff {
		return p
	}

	return c.Exact()
}
