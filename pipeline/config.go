package pipeline

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/craft/abf"
	"github.com/carbocation/craft/indexsnp"
)

// Config is the user-facing run configuration. It can be decoded from TOML;
// keys are the snake_case field names.
type Config struct {
	Alpha        float64 `toml:"alpha"`
	DistanceUnit string  `toml:"distance_unit"`
	Distance     float64 `toml:"distance"`

	// DropMHCRegion removes chromosome 6 variants within 25-35 Mb before
	// index variants are selected.
	DropMHCRegion bool `toml:"drop_mhc_region"`

	// CredibleThreshold is "95", "99", or any fraction in (0, 1].
	CredibleThreshold string `toml:"credible_threshold"`
	Boundary          string `toml:"boundary"`

	Model     string  `toml:"model"`
	PropCases float64 `toml:"prop_cases"`

	// Variants whose genotype counts give an exact HWE P below this are
	// dropped before selection. 0 disables the filter.
	HWEThreshold float64 `toml:"hwe_threshold"`

	// Loci are processed in parallel by up to this many goroutines.
	Workers int `toml:"workers"`
}

// DefaultConfig mirrors the command line defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:             indexsnp.GenomeWideSignificance,
		DistanceUnit:      string(indexsnp.UnitCM),
		Distance:          0.1,
		DropMHCRegion:     true,
		CredibleThreshold: "95",
		Boundary:          abf.Inclusive.String(),
		Model:             abf.ModelPValueMAF,
		Workers:           runtime.GOMAXPROCS(0),
	}
}

// DecodeConfigFile overlays the TOML file at path onto cfg. Unknown keys are
// an error, since a typo would otherwise silently fall back to a default.
func DecodeConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown configuration keys: %s", path, strings.Join(keys, ", "))
	}

	return nil
}

// Options are the parsed, validated form of a Config.
type Options struct {
	Select       indexsnp.Options
	Credible     abf.Options
	Model        abf.Model
	HWEThreshold float64
	Workers      int
}

// Options validates the configuration.
func (c Config) Options() (Options, error) {
	var out Options

	unit, err := indexsnp.ParseUnit(c.DistanceUnit)
	if err != nil {
		return out, err
	}

	threshold, err := abf.ParseCoverage(c.CredibleThreshold)
	if err != nil {
		return out, err
	}

	boundary, err := abf.ParseBoundary(c.Boundary)
	if err != nil {
		return out, err
	}

	model, err := abf.ParseModel(c.Model, c.PropCases)
	if err != nil {
		return out, err
	}

	if c.HWEThreshold < 0 || c.HWEThreshold > 1 {
		return out, fmt.Errorf("HWE threshold %v is outside [0, 1]", c.HWEThreshold)
	}

	out = Options{
		Select: indexsnp.Options{
			Alpha:         c.Alpha,
			Distance:      c.Distance,
			Unit:          unit,
			DropMHCRegion: c.DropMHCRegion,
		},
		Credible:     abf.Options{Threshold: threshold, Boundary: boundary},
		Model:        model,
		HWEThreshold: c.HWEThreshold,
		Workers:      c.Workers,
	}
	if out.Workers < 1 {
		out.Workers = 1
	}

	return out, nil
}
