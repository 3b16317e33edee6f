package craft

import (
	"strconv"
	"strings"
)

// NormalizeChromosome canonicalizes chromosome labels so that "chr01", "1"
// and "01" compare equal. Chromosome 23 is reported as X.
func NormalizeChromosome(chr string) string {
	chr = strings.TrimSpace(chr)
	if len(chr) > 3 && strings.EqualFold(chr[:3], "chr") {
		chr = chr[3:]
	}

	if n, err := strconv.Atoi(chr); err == nil && n > 0 {
		if n == 23 {
			return "X"
		}
		return strconv.Itoa(n)
	}

	return strings.ToUpper(chr)
}
