package finemap

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
)

// Log10BFPrefix starts the line of a FINEMAP .log_sss file that carries the
// evidence for at least one causal variant.
const Log10BFPrefix = "- Log10-BF"

// ParseLog10BF returns the value on the first Log10-BF line of r. ok is false
// if there is no such line.
func ParseLog10BF(r io.Reader) (bf float64, ok bool, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, Log10BFPrefix) {
			continue
		}

		colon := strings.LastIndex(line, ":")
		if colon < 0 {
			return 0, false, fmt.Errorf("malformed line %q", line)
		}
		bf, err = strconv.ParseFloat(strings.TrimSpace(line[colon+1:]), 64)
		if err != nil {
			return 0, false, fmt.Errorf("malformed line %q: %w", line, err)
		}

		return bf, true, nil
	}

	return 0, false, scanner.Err()
}

// RSIDFromLogName recovers the index rsid from a file named <rsid>.log_sss.
func RSIDFromLogName(name string) string {
	base := path.Base(name)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		return base[:dot]
	}
	return base
}

// ReadLog10BFs parses each file, which may be local or on Google Storage,
// and returns the Log10-BF keyed by rsid. Files without a Log10-BF line are
// left out.
func ReadLog10BFs(ctx context.Context, files []string, client *storage.Client) (map[string]float64, error) {
	out := make(map[string]float64, len(files))
	for _, file := range files {
		rc, err := craft.Open(ctx, file, client)
		if err != nil {
			return nil, err
		}

		bf, ok, err := ParseLog10BF(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if ok {
			out[RSIDFromLogName(file)] = bf
		}
	}

	return out, nil
}

// AppendLog10BF copies a tab-delimited index table from r to w with a
// Log10-BF column added. Empty cells are kept in place. Index variants
// without a value get 0.
func AppendLog10BF(r io.Reader, w io.Writer, bfs map[string]float64) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	rsidCol := -1
	for line := 0; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")

		if rsidCol < 0 {
			for i, v := range fields {
				if v == "rsid" {
					rsidCol = i
					break
				}
			}
			if rsidCol < 0 {
				return fmt.Errorf("rsid column not found in header. Saw: %v", fields)
			}
			fields = append(fields, "Log10-BF")
		} else {
			if rsidCol >= len(fields) {
				return fmt.Errorf("line %d: expected at least %d fields, saw %d", line+1, rsidCol+1, len(fields))
			}
			fields = append(fields, strconv.FormatFloat(bfs[fields[rsidCol]], 'g', -1, 64))
		}

		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return scanner.Err()
}
