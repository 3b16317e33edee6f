// Package abf computes approximate Bayes factors for the variants of a locus
// and turns them into posterior probabilities and credible sets.
//
// Several closed forms for the Bayes factor are in use. Each is a Model.
// Internally every model reports ln BF in favor of association (H1:H0), so
// that posteriors are always computed the same way; the value written out is
// the model's own scale.
package abf

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/craft/sumstats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultW is the prior variance on the log relative risk that puts 99% of
// its mass below a relative risk of 1.5.
var DefaultW = math.Pow(math.Log(1.5)/distuv.UnitNormal.Quantile(0.99), 2)

// Model converts the summary statistics of one variant into a Bayes factor.
type Model interface {
	Name() string

	// RequiredColumns must all be present in the input.
	RequiredColumns() []sumstats.Column

	// LogBF returns ln BF(H1:H0) for v, which is one of locusSize variants.
	LogBF(v sumstats.Variant, locusSize int) (float64, error)

	// Column names the output column, and Report converts ln BF(H1:H0) to
	// the value written in it.
	Column() string
	Report(lnBF float64) float64
}

// Model names accepted by ParseModel.
const (
	ModelPValueMAF = "pvalue-maf"
	ModelBetaSE    = "beta-se"
	ModelColoc     = "coloc"
)

// ParseModel returns the named model with default priors. propCases is only
// used by the coloc model; 0 means a quantitative trait.
func ParseModel(name string, propCases float64) (Model, error) {
	switch strings.ToLower(name) {
	case ModelPValueMAF:
		return PValueMAF{W: DefaultW}, nil
	case ModelBetaSE:
		return BetaSE{}, nil
	case ModelColoc:
		if propCases < 0 || propCases >= 1 {
			return nil, fmt.Errorf("proportion of cases %v must be in [0, 1)", propCases)
		}
		return Coloc{PropCases: propCases}, nil
	}

	return nil, fmt.Errorf("unknown ABF model %q, expected one of %s, %s, %s", name, ModelPValueMAF, ModelBetaSE, ModelColoc)
}

// Z is the absolute two-sided normal quantile of a P value.
func Z(p float64) float64 {
	return math.Abs(distuv.UnitNormal.Quantile(p / 2))
}

// PValueMAF is Wakefield's (2009) approximation from the P value, the minor
// allele frequency and the case and control counts. Wakefield's expression
// (see Wakefield) is BF(H0:H1); this model reports its reciprocal, the linear
// Bayes factor in favor of association, and posteriors are proportional to
// that reciprocal. W defaults to DefaultW.
type PValueMAF struct {
	W float64
}

func (PValueMAF) Name() string { return ModelPValueMAF }

func (PValueMAF) RequiredColumns() []sumstats.Column {
	return []sumstats.Column{sumstats.ColPValue, sumstats.ColMAF, sumstats.ColAllTotal, sumstats.ColCasesTotal, sumstats.ColControlsTotal}
}

func (PValueMAF) Column() string { return "ABF" }

func (PValueMAF) Report(lnBF float64) float64 { return math.Exp(lnBF) }

func (m PValueMAF) LogBF(v sumstats.Variant, _ int) (float64, error) {
	if !v.MAF.Valid || !v.CasesTotal.Valid || !v.ControlsTotal.Valid {
		return 0, fmt.Errorf("%s: maf, cases_total and controls_total are required", v.RSID)
	}

	V, err := GenotypeVariance(v.MAF.Float64, v.CasesTotal.Int64, v.ControlsTotal.Int64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", v.RSID, err)
	}

	W := m.W
	if W == 0 {
		W = DefaultW
	}

	// ln(1/Wakefield), kept in log space so that large z cannot underflow
	z := Z(v.PValue)
	VW := V + W
	return finite(v, z*z*W/(2*VW)-0.5*math.Log(VW/V))
}

// GenotypeVariance is the variance of the log odds ratio under an additive
// 0/1/2 genotype coding.
func GenotypeVariance(maf float64, cases, controls int64) (float64, error) {
	if cases <= 0 || controls <= 0 {
		return 0, fmt.Errorf("%d cases and %d controls: both must be positive", cases, controls)
	}
	if !(maf > 0 && maf <= 0.5) {
		return 0, fmt.Errorf("minor allele frequency %v is outside (0, 0.5]", maf)
	}

	hom, het, alt := (1-maf)*(1-maf), 2*maf*(1-maf), maf*maf
	d1 := hom*0 + het*1 + alt*2
	d2 := hom*0 + het*1 + alt*4

	n0, n1 := float64(controls), float64(cases)

	return (n0 + n1) / (n0 * n1 * (d2 - d1*d1)), nil
}

// Wakefield evaluates sqrt(VW/V) * exp(-z²W / 2VW), with VW = V + W. This is
// the Bayes factor in favor of the null (H0:H1); values below 1 favor
// association.
func Wakefield(z, V, W float64) float64 {
	VW := V + W
	return math.Sqrt(VW/V) * math.Exp(-z*z*W/(2*VW))
}

// BetaSE computes the Bayes factor from the effect size and its standard
// error. With PriorSD unset, the prior standard deviation is one over the
// number of variants in the locus. Its output is log10 BF.
type BetaSE struct {
	PriorSD float64
}

func (BetaSE) Name() string { return ModelBetaSE }

func (BetaSE) RequiredColumns() []sumstats.Column {
	return []sumstats.Column{sumstats.ColBeta, sumstats.ColSE}
}

func (BetaSE) Column() string { return "log10ABF" }

func (BetaSE) Report(lnBF float64) float64 { return lnBF / math.Ln10 }

func (m BetaSE) LogBF(v sumstats.Variant, locusSize int) (float64, error) {
	if !v.Beta.Valid || !v.SE.Valid {
		return 0, fmt.Errorf("%s: beta and se are required", v.RSID)
	}

	prior := m.PriorSD
	if prior == 0 {
		if locusSize < 1 {
			return 0, fmt.Errorf("%s: the prior needs a non-empty locus", v.RSID)
		}
		prior = 1 / float64(locusSize)
	}

	V := v.SE.Float64 * v.SE.Float64
	W := prior * prior
	VW := V + W
	z2 := v.Beta.Float64 * v.Beta.Float64 / V

	// log(exp(z²/2 * W/VW) / sqrt(VW/V))
	return finite(v, z2/2*W/VW-0.5*math.Log(VW/V))
}

// Coloc is the form used by the coloc package (Wallace), computed from the P
// value, minor allele frequency and sample size. The prior standard deviation
// defaults to 0.15 for quantitative traits and 0.2 for case-control traits.
// Its output is log10 BF.
type Coloc struct {
	// PropCases is the proportion of samples that are cases. Zero means a
	// quantitative trait.
	PropCases float64
	PriorSD   float64
}

func (Coloc) Name() string { return ModelColoc }

func (Coloc) RequiredColumns() []sumstats.Column {
	return []sumstats.Column{sumstats.ColPValue, sumstats.ColMAF, sumstats.ColAllTotal}
}

func (Coloc) Column() string { return "log10ABF" }

func (Coloc) Report(lnBF float64) float64 { return lnBF / math.Ln10 }

func (m Coloc) LogBF(v sumstats.Variant, _ int) (float64, error) {
	if !v.MAF.Valid || !v.AllTotal.Valid {
		return 0, fmt.Errorf("%s: maf and all_total are required", v.RSID)
	}
	if v.AllTotal.Int64 <= 0 {
		return 0, fmt.Errorf("%s: sample size %d must be positive", v.RSID, v.AllTotal.Int64)
	}

	maf := v.MAF.Float64
	V := 1 / (2 * float64(v.AllTotal.Int64) * maf * (1 - maf))

	sd := m.PriorSD
	if m.PropCases > 0 {
		V /= m.PropCases * (1 - m.PropCases)
		if sd == 0 {
			sd = 0.2
		}
	} else if sd == 0 {
		sd = 0.15
	}

	z := Z(v.PValue)
	r := sd * sd / (sd*sd + V)

	return finite(v, 0.5*(math.Log(1-r)+r*z*z))
}

func finite(v sumstats.Variant, lnBF float64) (float64, error) {
	if math.IsNaN(lnBF) || math.IsInf(lnBF, 1) {
		return 0, fmt.Errorf("%s: Bayes factor is not finite (ln BF = %v)", v.RSID, lnBF)
	}
	return lnBF, nil
}
