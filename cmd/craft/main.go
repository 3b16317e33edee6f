package main

import (
	"context"
	"flag"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/craft"
	"github.com/carbocation/craft/abf"
	_ "github.com/carbocation/craft/compileinfoprint"
	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/indexsnp"
	"github.com/carbocation/craft/pipeline"
	"github.com/carbocation/craft/sumstats"
	log "github.com/sirupsen/logrus"
)

var client *storage.Client

type flags struct {
	file, layout, bim, outDir, configFile string

	alpha, distance, propCases, hwe float64
	distanceUnit, credThreshold     string
	boundary, model                 string
	includeMHC                      bool
	workers                         int

	mapFile, mapDir, mapPattern string
	mapChromosome               string
	mapColumns                  geneticmap.Columns

	full bool

	finemap, finemapBinary, ldDir string
	nCausal                       int

	verbose bool
}

func main() {
	defaults := pipeline.DefaultConfig()

	var f flags
	f.mapColumns = geneticmap.PLINKColumns
	flag.StringVar(&f.file, "file", "", "Summary statistics file, or a glob of files. May be local or gs://")
	flag.StringVar(&f.layout, "layout", "generic", "Input layout. One of: "+sumstats.LayoutNames())
	flag.StringVar(&f.bim, "bim", "", "PLINK .bim file with the alleles for -layout plink")
	flag.StringVar(&f.outDir, "outdir", ".", "Output directory. Each input gets its own subdirectory")
	flag.StringVar(&f.configFile, "config", "", "(Optional) TOML configuration file. Flags given on the command line take precedence")
	flag.Float64Var(&f.alpha, "alpha", defaults.Alpha, "P value threshold for index variants")
	flag.StringVar(&f.distanceUnit, "distance_unit", defaults.DistanceUnit, "Unit of -distance: cm or bp")
	flag.Float64Var(&f.distance, "distance", defaults.Distance, "Half-width of the exclusion region around each index variant")
	flag.BoolVar(&f.includeMHC, "mhc", !defaults.DropMHCRegion, "Include the MHC region (chr6:25-35Mb). By default it is dropped before selection")
	flag.StringVar(&f.credThreshold, "cred_threshold", defaults.CredibleThreshold, "Credible set coverage: 95, 99, or a fraction in (0, 1]")
	flag.StringVar(&f.boundary, "boundary", defaults.Boundary, "Credible set boundary rule: inclusive or exclusive")
	flag.StringVar(&f.model, "model", defaults.Model, "ABF model: "+strings.Join([]string{abf.ModelPValueMAF, abf.ModelBetaSE, abf.ModelColoc}, ", "))
	flag.Float64Var(&f.propCases, "prop_cases", defaults.PropCases, "Proportion of cases for -model coloc. 0 means a quantitative trait")
	flag.Float64Var(&f.hwe, "hwe", defaults.HWEThreshold, "Drop variants whose genotype counts give an HWE P value below this. 0 disables")
	flag.IntVar(&f.workers, "workers", defaults.Workers, "Number of loci processed in parallel")
	flag.StringVar(&f.mapFile, "map", "", "Genetic map file, required for -distance_unit cm unless -map_dir is given")
	flag.StringVar(&f.mapDir, "map_dir", "", "Directory (or gs:// prefix) of per-chromosome genetic map files")
	flag.StringVar(&f.mapPattern, "map_pattern", "*", "Glob of map file names within -map_dir")
	flag.StringVar(&f.mapChromosome, "map_chromosome", "", "(Optional) chromosome for a single -map file that has no chromosome column")
	flag.IntVar(&f.mapColumns.Chromosome, "map_chr_col", f.mapColumns.Chromosome, "0-based chromosome column of headerless map files")
	flag.IntVar(&f.mapColumns.Position, "map_bp_col", f.mapColumns.Position, "0-based basepair column of headerless map files")
	flag.IntVar(&f.mapColumns.CM, "map_cm_col", f.mapColumns.CM, "0-based centiMorgan column of headerless map files")
	flag.BoolVar(&f.full, "full", false, "Also write every locus row, flagged by credible set membership")
	flag.StringVar(&f.finemap, "finemap", "", "(Optional) subdirectory of each output directory in which to write FINEMAP inputs")
	flag.StringVar(&f.ldDir, "ld_dir", "", "Directory holding <index_rsid>.ld matrices, referenced from the FINEMAP master file")
	flag.StringVar(&f.finemapBinary, "finemap_binary", "", "(Optional) FINEMAP binary to run on the prepared inputs")
	flag.IntVar(&f.nCausal, "n_causal_snps", 0, "Maximum number of causal variants for FINEMAP. 0 keeps its default")
	flag.BoolVar(&f.verbose, "verbose", false, "Log debug output")
	flag.Parse()

	if f.verbose {
		log.SetLevel(log.DebugLevel)
	}

	if f.file == "" {
		flag.Usage()
		log.Fatalln("Must specify a -file")
	}

	cfg, err := f.config()
	if err != nil {
		log.Fatalln(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()

	if craft.IsGoogleStoragePath(f.file) || craft.IsGoogleStoragePath(f.bim) ||
		craft.IsGoogleStoragePath(f.mapFile) || craft.IsGoogleStoragePath(f.mapDir) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	layout, exists := sumstats.Layouts[f.layout]
	if !exists {
		log.Fatalf("Unknown layout %q. Choose one of: %s\n", f.layout, sumstats.LayoutNames())
	}

	var maps geneticmap.Maps
	if opts.Select.Unit == indexsnp.UnitCM {
		if maps, err = f.loadMaps(ctx); err != nil {
			log.Fatalln(err)
		}
	}

	files, err := expandFiles(ctx, f.file)
	if err != nil {
		log.Fatalln(err)
	}
	if len(files) == 0 {
		log.Fatalln("No files matched", f.file)
	}

	for _, file := range files {
		if err := f.process(ctx, file, layout, maps, opts); err != nil {
			log.Fatalln(err)
		}
	}
}

// config layers the TOML file over the defaults, and explicitly set flags
// over both.
func (f flags) config() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if f.configFile != "" {
		if err := pipeline.DecodeConfigFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "alpha":
			cfg.Alpha = f.alpha
		case "distance_unit":
			cfg.DistanceUnit = f.distanceUnit
		case "distance":
			cfg.Distance = f.distance
		case "mhc":
			cfg.DropMHCRegion = !f.includeMHC
		case "cred_threshold":
			cfg.CredibleThreshold = f.credThreshold
		case "boundary":
			cfg.Boundary = f.boundary
		case "model":
			cfg.Model = f.model
		case "prop_cases":
			cfg.PropCases = f.propCases
		case "hwe":
			cfg.HWEThreshold = f.hwe
		case "workers":
			cfg.Workers = f.workers
		}
	})

	return cfg, nil
}

func (f flags) loadMaps(ctx context.Context) (geneticmap.Maps, error) {
	if f.mapDir != "" {
		return geneticmap.LoadDir(ctx, f.mapDir, f.mapPattern, f.mapColumns, client)
	}
	if f.mapFile == "" {
		return nil, fmt.Errorf("must specify a -map or -map_dir when -distance_unit is cm")
	}

	rdr, err := craft.Open(ctx, f.mapFile, client)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	return geneticmap.Load(rdr, f.mapColumns, f.mapChromosome)
}

// expandFiles treats the base name of pattern as a glob.
func expandFiles(ctx context.Context, pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}

	dir, base := path.Split(pattern)
	if dir == "" {
		dir = "."
	}

	return craft.Glob(ctx, dir, base, client)
}
