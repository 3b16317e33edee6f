package craft

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// delimiterSampleBytes is how much of the head of a file is inspected when
// guessing its delimiter.
const delimiterSampleBytes = 64 * 1024

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// PeekDelimiter guesses the delimiter from the head of br without consuming
// anything from it.
func PeekDelimiter(br *bufio.Reader) rune {
	sample, _ := br.Peek(delimiterSampleBytes)

	// The detector counts delimiters per line, so a trailing partial line
	// would only add noise.
	if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
		sample = sample[:i+1]
	}

	return DetermineDelimiter(bytes.NewReader(sample))
}
