package geneticmap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/craft"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Header names used by HapMap-style recombination maps:
// Chromosome	Position(bp)	Rate(cM/Mb)	Map(cM)
const (
	HeaderChromosome = "Chromosome"
	HeaderPosition   = "Position(bp)"
	HeaderCM         = "Map(cM)"
)

// Columns describes a headerless map file by 0-based column. The default is
// the PLINK .map / .bim layout: chr, id, cM, bp.
type Columns struct {
	Chromosome int
	Position   int
	CM         int
}

var PLINKColumns = Columns{Chromosome: 0, Position: 3, CM: 2}

// Maps holds one genetic map per (normalized) chromosome.
type Maps map[string]*Map

// Get returns the map for chromosome chr.
func (m Maps) Get(chr string) (*Map, error) {
	gm, exists := m[craft.NormalizeChromosome(chr)]
	if !exists {
		return nil, fmt.Errorf("no genetic map is loaded for chromosome %s", chr)
	}

	return gm, nil
}

// Load reads a whitespace-delimited genetic map, which may hold several
// chromosomes. If the first non-comment line carries the HapMap header, the
// columns are located by name; otherwise cols is used. chromosome overrides
// the chromosome column when non-empty, which is useful for per-chromosome
// files that lack one.
func Load(r io.Reader, cols Columns, chromosome string) (Maps, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	entries := make(map[string][]Entry)
	order := make([]string, 0)
	sawFirst := false

	for line := 0; scanner.Scan(); line++ {
		text := scanner.Text()
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Fields(text)
		if !sawFirst {
			sawFirst = true
			if headerCols, ok := parseHeader(fields); ok {
				cols = headerCols
				continue
			}
		}

		maxCol := cols.Position
		if cols.CM > maxCol {
			maxCol = cols.CM
		}
		if chromosome == "" && cols.Chromosome > maxCol {
			maxCol = cols.Chromosome
		}
		if len(fields) <= maxCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, saw %d", line+1, maxCol+1, len(fields))
		}

		chr := chromosome
		if chr == "" {
			if cols.Chromosome < 0 {
				return nil, fmt.Errorf("line %d: the map has no %s column and no chromosome was given", line+1, HeaderChromosome)
			}
			chr = fields[cols.Chromosome]
		}
		chr = craft.NormalizeChromosome(chr)

		bp, err := strconv.Atoi(fields[cols.Position])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		cm, err := strconv.ParseFloat(fields[cols.CM], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}

		if _, exists := entries[chr]; !exists {
			order = append(order, chr)
		}
		entries[chr] = append(entries[chr], Entry{Position: bp, CM: cm})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	out := make(Maps, len(entries))
	for _, chr := range order {
		m, err := New(chr, entries[chr])
		if err != nil {
			return nil, err
		}
		out[chr] = m
	}

	return out, nil
}

func parseHeader(fields []string) (Columns, bool) {
	cols := Columns{Chromosome: -1, Position: -1, CM: -1}
	for i, v := range fields {
		switch v {
		case HeaderChromosome:
			cols.Chromosome = i
		case HeaderPosition:
			cols.Position = i
		case HeaderCM:
			cols.CM = i
		}
	}

	if cols.Position < 0 || cols.CM < 0 {
		return Columns{}, false
	}

	return cols, true
}

// LoadDir loads every file under dir (local or gs://) whose name matches
// pattern, e.g. "*chr[0-9]*.txt", and merges them. Loading the same
// chromosome twice is an error.
func LoadDir(ctx context.Context, dir, pattern string, cols Columns, client *storage.Client) (Maps, error) {
	files, err := craft.Glob(ctx, dir, pattern, client)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no genetic map files matching %s in %s", pattern, dir)
	}

	out := make(Maps)
	for _, file := range files {
		maps, err := loadFile(ctx, file, cols, client)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(file), err)
		}

		for chr, m := range maps {
			if _, exists := out[chr]; exists {
				return nil, fmt.Errorf("%s: chromosome %s was already loaded from another file", path.Base(file), chr)
			}
			out[chr] = m
			log.WithFields(log.Fields{"chromosome": chr, "entries": m.Len(), "file": file}).Debugln("Loaded genetic map")
		}
	}

	return out, nil
}

func loadFile(ctx context.Context, file string, cols Columns, client *storage.Client) (Maps, error) {
	rc, err := craft.Open(ctx, file, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Load(rc, cols, "")
}
