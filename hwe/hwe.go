// Package hwe tests genotype counts for departure from Hardy-Weinberg
// equilibrium. It is used to QC summary statistics that carry genotype
// counts before fine-mapping.
package hwe

// Counts are the genotype counts at one biallelic site.
type Counts struct {
	HomA int64 // AA
	Het  int64 // AB
	HomB int64 // BB
}

// N is the number of genotyped samples.
func (c Counts) N() int64 {
	return c.HomA + c.Het + c.HomB
}

// Biallelic is false when one of the two alleles was never observed, in which
// case no test is informative.
func (c Counts) Biallelic() bool {
	return 2*c.HomA+c.Het > 0 && 2*c.HomB+c.Het > 0
}

// common orders the counts so that HomA is the more common homozygote.
func (c Counts) common() Counts {
	if c.HomB > c.HomA {
		c.HomA, c.HomB = c.HomB, c.HomA
	}
	return c
}
