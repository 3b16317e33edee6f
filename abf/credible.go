package abf

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/sumstats"
	"gonum.org/v1/gonum/floats"
)

// Common coverage thresholds.
const (
	Coverage95 = 0.95
	Coverage99 = 0.99
)

// Boundary decides what happens to the row whose cumulative posterior first
// reaches the threshold.
type Boundary int

const (
	// Inclusive keeps rows up to and including the first one whose cumulative
	// posterior is >= the threshold. The set is never empty.
	Inclusive Boundary = iota

	// Exclusive keeps only the rows whose cumulative posterior is strictly
	// below the threshold. The set may be empty.
	Exclusive
)

func (b Boundary) String() string {
	switch b {
	case Inclusive:
		return "inclusive"
	case Exclusive:
		return "exclusive"
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// ParseBoundary accepts "inclusive" or "exclusive".
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inclusive", "":
		return Inclusive, nil
	case "exclusive":
		return Exclusive, nil
	}

	return Inclusive, fmt.Errorf("unknown credible set boundary %q, expected inclusive or exclusive", s)
}

// ParseCoverage accepts a fraction in (0, 1] or a percentage such as "95".
func ParseCoverage(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, err
	}
	if f > 1 && f <= 100 {
		f /= 100
	}
	if !(f > 0 && f <= 1) {
		return 0, fmt.Errorf("coverage %s must be a fraction in (0, 1] or a percentage", s)
	}

	return f, nil
}

// Options control credible set truncation.
type Options struct {
	Threshold float64
	Boundary  Boundary
}

// DefaultOptions: 95% coverage, inclusive boundary.
var DefaultOptions = Options{Threshold: Coverage95, Boundary: Inclusive}

// Row is one variant of a locus with its Bayes factor and posterior.
type Row struct {
	sumstats.Variant

	LogBF float64 // ln BF(H1:H0)
	Value float64 // BF on the model's output scale

	PostProb   float64
	Cumulative float64
}

// CredibleSet holds every variant of one locus, sorted by descending
// posterior. The first Size rows form the credible set.
type CredibleSet struct {
	IndexRSID string
	Column    string
	Threshold float64

	Rows []Row
	Size int
}

// Set returns the rows of the credible set.
func (c *CredibleSet) Set() []Row {
	return c.Rows[:c.Size]
}

// Truncate returns how many leading rows form the credible set at the
// threshold.
func (c *CredibleSet) Truncate(threshold float64, boundary Boundary) int {
	for i, row := range c.Rows {
		if row.Cumulative >= threshold {
			if boundary == Inclusive {
				return i + 1
			}
			return i
		}
	}

	return len(c.Rows)
}

// Compute evaluates model on every variant of l and builds its credible set.
// A *DegenerateLocusError is returned when the locus is empty or when no
// variant has a positive, finite Bayes factor.
func Compute(l locus.Locus, model Model, opts Options) (*CredibleSet, error) {
	if l.Len() == 0 {
		return nil, &DegenerateLocusError{IndexRSID: l.IndexRSID(), Reason: "the locus has no variants"}
	}
	if !(opts.Threshold > 0 && opts.Threshold <= 1) {
		return nil, fmt.Errorf("credible set threshold %v is outside (0, 1]", opts.Threshold)
	}

	rows := make([]Row, l.Len())
	logs := make([]float64, l.Len())
	for i, v := range l.Variants {
		lnBF, err := model.LogBF(v, l.Len())
		if err != nil {
			return nil, &DegenerateLocusError{IndexRSID: l.IndexRSID(), Reason: err.Error()}
		}
		rows[i] = Row{Variant: v, LogBF: lnBF, Value: model.Report(lnBF)}
		logs[i] = lnBF
	}

	logSum := floats.LogSumExp(logs)
	if math.IsInf(logSum, -1) {
		return nil, &DegenerateLocusError{IndexRSID: l.IndexRSID(), Reason: "every Bayes factor is zero"}
	} else if math.IsNaN(logSum) || math.IsInf(logSum, 1) {
		return nil, &DegenerateLocusError{IndexRSID: l.IndexRSID(), Reason: "the Bayes factors do not sum to a finite value"}
	}

	for i := range rows {
		rows[i].PostProb = math.Exp(rows[i].LogBF - logSum)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PostProb > rows[j].PostProb
	})

	cum := 0.0
	for i := range rows {
		cum += rows[i].PostProb
		rows[i].Cumulative = math.Min(cum, 1)
	}
	rows[len(rows)-1].Cumulative = 1

	cs := &CredibleSet{
		IndexRSID: l.IndexRSID(),
		Column:    model.Column(),
		Threshold: opts.Threshold,
		Rows:      rows,
	}
	cs.Size = cs.Truncate(opts.Threshold, opts.Boundary)

	return cs, nil
}
