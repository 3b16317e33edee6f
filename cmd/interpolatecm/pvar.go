package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/craft/geneticmap"
	"github.com/carbocation/craft/output"
)

func processPVAR(f io.Reader, w io.Writer, maps geneticmap.Maps) error {
	chrColumn, posColumn, cmColumn := -1, -1, -1
	sawHeader := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "##") {
			fmt.Fprintln(w, line)
			continue
		}

		fields := strings.Split(line, "\t")

		// Setup the header
		if !sawHeader {
			sawHeader = true
			for j, v := range fields {
				switch strings.TrimPrefix(v, "#") {
				case "CHROM":
					chrColumn = j
				case "POS":
					posColumn = j
				case "CM":
					cmColumn = j
				}
			}
			if chrColumn < 0 || posColumn < 0 || cmColumn < 0 {
				return fmt.Errorf("CHROM, POS and CM columns are required. Saw: %v", fields)
			}

			fmt.Fprintln(w, line)
			continue
		}

		if len(fields) <= cmColumn || len(fields) <= posColumn || len(fields) <= chrColumn {
			return fmt.Errorf("line has %d fields: %s", len(fields), line)
		}

		pos, err := strconv.Atoi(fields[posColumn])
		if err != nil {
			return err
		}

		m, err := maps.Get(fields[chrColumn])
		if err != nil {
			return err
		}

		cm, err := positionToCM(m, pos)
		if err != nil {
			return err
		}
		fields[cmColumn] = output.FormatFloat(cm)

		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}

	return scanner.Err()
}

// positionToCM interpolates within the map and holds the edge value for
// positions beyond either end.
func positionToCM(m *geneticmap.Map, pos int) (float64, error) {
	cm, err := m.PositionToCM(pos)

	var oor *geneticmap.OutOfRangeError
	if !errors.As(err, &oor) {
		return cm, err
	}

	first, last := m.Bounds()
	if pos < first.Position {
		return first.CM, nil
	}
	return last.CM, nil
}
