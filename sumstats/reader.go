package sumstats

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/craft"
	"gopkg.in/guregu/null.v3"
)

// Reader parses a summary statistics file one variant at a time.
type Reader struct {
	Layout Layout

	// Skipped counts rows that were dropped because they carry no usable
	// association (missing P value or a monomorphic site).
	Skipped int

	next    func() ([]string, error)
	index   map[Column]int
	columns ColumnSet
	line    int
	record  int
}

// NewReader consumes the header from r and validates it against the layout.
// An *InputSchemaError is returned if a required column is absent.
func NewReader(r io.Reader, layout Layout) (*Reader, error) {
	rdr := &Reader{Layout: layout}

	br := bufio.NewReaderSize(r, 64*1024)
	delim := layout.Delimiter
	if delim == DelimiterDetect {
		delim = chooseDelimiter(br, layout)
	}

	if delim == DelimiterWhitespace {
		rdr.next = whitespaceSplitter(br, layout.Comment)
	} else {
		cr := csv.NewReader(br)
		cr.Comma = delim
		cr.Comment = layout.Comment
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.ReuseRecord = true
		cr.TrimLeadingSpace = delim != '\t'
		rdr.next = cr.Read
	}

	header, err := rdr.next()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: input is empty", layout.Name)
	} else if err != nil {
		return nil, err
	}
	rdr.line++

	rdr.index = make(map[Column]int)
	rdr.columns = NewColumnSet()
	for i, name := range header {
		col, exists := layout.Columns[strings.TrimSpace(name)]
		if !exists {
			continue
		}
		if _, dup := rdr.index[col]; dup {
			continue
		}
		rdr.index[col] = i
		rdr.columns.Add(col)
	}

	// Converted columns
	if !rdr.columns.Has(ColPValue) && rdr.columns.Has(ColNegLog10P) {
		rdr.columns.Add(ColPValue)
	}
	if !rdr.columns.Has(ColBeta) && rdr.columns.Has(ColOddsRatio) {
		rdr.columns.Add(ColBeta)
	}

	if err := CheckColumns(layout.Name, rdr.columns, RequiredColumns...); err != nil {
		return nil, err
	}

	return rdr, nil
}

// Columns reports which canonical columns the input provides.
func (r *Reader) Columns() ColumnSet {
	return r.columns
}

// Read returns the next usable variant, or io.EOF.
func (r *Reader) Read() (Variant, error) {
	for {
		fields, err := r.next()
		if err != nil {
			return Variant{}, err
		}
		r.line++

		v, skip, err := r.parse(fields)
		if err != nil {
			return Variant{}, err
		}
		if skip {
			r.Skipped++
			continue
		}

		v.Record = r.record
		r.record++

		return v, nil
	}
}

// ReadAll reads every variant from r.
func ReadAll(r io.Reader, layout Layout) ([]Variant, *Reader, error) {
	rdr, err := NewReader(r, layout)
	if err != nil {
		return nil, nil, err
	}

	out := make([]Variant, 0)
	for {
		v, err := rdr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, rdr, err
		}
		out = append(out, v)
	}

	return out, rdr, nil
}

func (r *Reader) field(fields []string, col Column) (string, bool) {
	i, exists := r.index[col]
	if !exists || i >= len(fields) {
		return "", false
	}

	s := strings.TrimSpace(fields[i])
	if isMissing(s) {
		return "", false
	}

	return s, true
}

func (r *Reader) parse(fields []string) (v Variant, skip bool, err error) {
	rowErr := func(rsid string, err error) (Variant, bool, error) {
		return Variant{}, false, &RowError{Line: r.line, RSID: rsid, Err: err}
	}

	for _, col := range RequiredColumns {
		if i := r.index[col]; col != ColPValue && i >= len(fields) {
			return rowErr("", fmt.Errorf("expected at least %d fields, saw %d", i+1, len(fields)))
		}
	}

	v.RSID, _ = r.field(fields, ColRSID)
	v.AlleleA, _ = r.field(fields, ColAlleleA)
	v.AlleleB, _ = r.field(fields, ColAlleleB)

	chr, ok := r.field(fields, ColChromosome)
	if !ok {
		return rowErr(v.RSID, fmt.Errorf("missing chromosome"))
	}
	v.Chromosome = craft.NormalizeChromosome(chr)

	pos, ok := r.field(fields, ColPosition)
	if !ok {
		return rowErr(v.RSID, fmt.Errorf("missing position"))
	}
	if v.Position, err = strconv.Atoi(pos); err != nil {
		return rowErr(v.RSID, err)
	} else if v.Position < 0 {
		return rowErr(v.RSID, fmt.Errorf("negative position %d", v.Position))
	}

	// P value, possibly from -log10(P)
	if s, ok := r.field(fields, ColPValue); ok {
		if v.PValue, err = strconv.ParseFloat(s, 64); err != nil {
			return rowErr(v.RSID, err)
		}
	} else if s, ok := r.field(fields, ColNegLog10P); ok {
		negLogP, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return rowErr(v.RSID, err)
		}
		v.PValue = math.Pow(10, -negLogP)
		if v.PValue == 0 {
			return rowErr(v.RSID, fmt.Errorf("-log10(P) of %v underflows", negLogP))
		}
	} else {
		return v, true, nil
	}
	if !(v.PValue > 0 && v.PValue <= 1) {
		return rowErr(v.RSID, fmt.Errorf("P value %v is outside (0, 1]", v.PValue))
	}

	if s, ok := r.field(fields, ColMAF); ok {
		freq, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return rowErr(v.RSID, err)
		}
		if freq < 0 || freq > 1 {
			return rowErr(v.RSID, fmt.Errorf("allele frequency %v is outside [0, 1]", freq))
		}
		if freq == 0 || freq == 1 {
			// Monomorphic
			return v, true, nil
		}
		v.MAF = null.FloatFrom(ToMAF(freq))
	}

	if v.Beta, err = r.float(fields, ColBeta); err != nil {
		return rowErr(v.RSID, err)
	}
	if !v.Beta.Valid {
		// ln(OR) is the logistic regression coefficient
		or, err := r.float(fields, ColOddsRatio)
		if err != nil {
			return rowErr(v.RSID, err)
		}
		if or.Valid {
			if or.Float64 <= 0 {
				return rowErr(v.RSID, fmt.Errorf("odds ratio %v must be positive", or.Float64))
			}
			v.Beta = null.FloatFrom(math.Log(or.Float64))
		}
	}

	if v.SE, err = r.float(fields, ColSE); err != nil {
		return rowErr(v.RSID, err)
	} else if v.SE.Valid && !(v.SE.Float64 > 0) {
		return rowErr(v.RSID, fmt.Errorf("standard error %v must be positive", v.SE.Float64))
	}

	for _, c := range []struct {
		col Column
		dst *null.Int
	}{
		{ColAllTotal, &v.AllTotal},
		{ColCasesTotal, &v.CasesTotal},
		{ColControlsTotal, &v.ControlsTotal},
		{ColGenotypeAA, &v.GenotypeAA},
		{ColGenotypeAB, &v.GenotypeAB},
		{ColGenotypeBB, &v.GenotypeBB},
	} {
		if *c.dst, err = r.count(fields, c.col); err != nil {
			return rowErr(v.RSID, err)
		}
	}

	if v.AllTotal.Valid && v.CasesTotal.Valid && v.ControlsTotal.Valid &&
		v.CasesTotal.Int64+v.ControlsTotal.Int64 != v.AllTotal.Int64 {
		return rowErr(v.RSID, fmt.Errorf("%d cases and %d controls do not sum to %d samples", v.CasesTotal.Int64, v.ControlsTotal.Int64, v.AllTotal.Int64))
	}

	return v, false, nil
}

func (r *Reader) float(fields []string, col Column) (null.Float, error) {
	s, ok := r.field(fields, col)
	if !ok {
		return null.Float{}, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}, fmt.Errorf("%s: %w", col, err)
	}

	return null.FloatFrom(f), nil
}

// count parses a sample or genotype count. Some tools write expected counts
// from dosages with a fractional part, so these are rounded.
func (r *Reader) count(fields []string, col Column) (null.Int, error) {
	f, err := r.float(fields, col)
	if err != nil || !f.Valid {
		return null.Int{}, err
	}
	if f.Float64 < 0 {
		return null.Int{}, fmt.Errorf("%s: negative count %v", col, f.Float64)
	}

	return null.IntFrom(int64(math.Round(f.Float64))), nil
}

// chooseDelimiter starts from the detector's guess and falls back to tab,
// comma and whitespace, keeping whichever recognizes the most header names.
func chooseDelimiter(br *bufio.Reader, layout Layout) rune {
	head, _ := br.Peek(br.Size())
	header := ""
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || (layout.Comment != 0 && strings.HasPrefix(line, string(layout.Comment))) {
			continue
		}
		header = line
		break
	}

	best, bestCount := DelimiterWhitespace, -1
	for _, candidate := range []rune{craft.PeekDelimiter(br), '\t', ',', DelimiterWhitespace} {
		var names []string
		if candidate == DelimiterWhitespace || candidate == ' ' {
			candidate = DelimiterWhitespace
			names = strings.Fields(header)
		} else {
			names = strings.Split(header, string(candidate))
		}

		count := 0
		for _, name := range names {
			if _, exists := layout.Columns[strings.TrimSpace(name)]; exists {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = candidate, count
		}
	}

	return best
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "-nan", ".", "null":
		return true
	}
	return false
}

func whitespaceSplitter(r io.Reader, comment rune) func() ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return func() ([]string, error) {
		for scanner.Scan() {
			line := scanner.Text()
			if comment != 0 && strings.HasPrefix(line, string(comment)) {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			return fields, nil
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
}
