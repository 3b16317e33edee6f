package hwe

import (
	"math"
	"math/big"

	"github.com/BenLubar/memoize"
)

var memoizedConfigurationP = memoize.Memoize(configurationP)
var memoizedMulRange = memoize.Memoize(mulRange)

// Exact computes an exact Hardy-Weinberg equilibrium P value, based on the
// Abecasis paper, itself based on RA Fisher's method. It is safe to call from
// concurrent goroutines. See
// http://courses.washington.edu/b516/lectures_2009/HWE_Lecture.pdf slides
// 21-22 and https://www.cog-genomics.org/software/stats for sanity checks.
func (c Counts) Exact() float64 {
	c = c.common()
	probability := memoizedConfigurationP.(func(int64, int64, int64) float64)

	// The P value is the sum of the probabilities of every configuration with
	// the same allele counts that is no more likely than the observed one.
	observed := probability(c.HomA, c.Het, c.HomB)
	sumP := observed

	// Walk toward more heterozygotes, then toward fewer. Each step moves two
	// alleles between the homozygote classes and the heterozygotes.
	for _, step := range []int64{+1, -1} {
		AA, Aa, aa := c.HomA, c.Het, c.HomB
		for {
			AA, Aa, aa = AA-step, Aa+2*step, aa-step
			if AA < 0 || Aa < 0 || aa < 0 {
				break
			}

			p := probability(AA, Aa, aa)
			if p > observed {
				continue
			}
			if p <= math.SmallestNonzeroFloat64 {
				break
			}
			sumP += p
		}
	}

	return sumP
}

// configurationP is the probability of observing exactly Aa heterozygotes in
// a sample of AA+Aa+aa individuals with Aa+2*aa minor alleles.
func configurationP(AA, Aa, aa int64) float64 {
	A := AA*2 + Aa
	a := aa*2 + Aa
	N := AA + Aa + aa
	factorial := memoizedMulRange.(func(int64, int64) *big.Int)

	// 2^Aa * A! * a!
	var numerator big.Int
	numerator.Exp(big.NewInt(2), big.NewInt(Aa), nil)
	numerator.Mul(&numerator, factorial(1, A))
	numerator.Mul(&numerator, factorial(1, a))

	// (2N)!/N! * AA! * Aa! * aa!
	denominator := new(big.Int).Set(factorial(N+1, 2*N))
	denominator.Mul(denominator, factorial(1, AA))
	denominator.Mul(denominator, factorial(1, Aa))
	denominator.Mul(denominator, factorial(1, aa))

	p, _ := new(big.Rat).SetFrac(&numerator, denominator).Float64()

	return p
}

// mulRange returns a*(a+1)*...*b, or 1 if a > b.
func mulRange(a, b int64) *big.Int {
	return big.NewInt(1).MulRange(a, b)
}
