package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ucicrawl/ucicrawl/internal/model"
)

// Section headers of the results file.
const (
	wordCountsHeader      = "WORD COUNTS"
	wordFrequenciesHeader = "WORD FREQUENCIES"
)

// maxResultsLine bounds one line of a results file; URLs may be long.
const maxResultsLine = 1 << 20

// ErrMalformedResults is returned when a results file cannot be parsed.
var ErrMalformedResults = errors.New("malformed results file")

// WriteResults writes the checkpoint results file: every accepted page with
// its word count, longest first, then the topK most common words.
//
//	WORD COUNTS
//	https://www.ics.uci.edu/about: 1234
//
//	WORD FREQUENCIES
//	research: 987
func WriteResults(w io.Writer, snap model.Snapshot, topK int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, wordCountsHeader)
	for _, p := range snap.PagesByWords() {
		fmt.Fprintf(bw, "%s: %d\n", p.Word, p.Count)
	}

	fmt.Fprintf(bw, "\n%s\n", wordFrequenciesHeader)
	for _, wc := range snap.TopWords(topK) {
		fmt.Fprintf(bw, "%s: %d\n", wc.Word, wc.Count)
	}

	return bw.Flush()
}

// ReadResults parses a file written by WriteResults. The word table of the
// returned snapshot only holds the words that were written, so it is exact
// for report purposes but not a full corpus restore.
func ReadResults(r io.Reader) (model.Snapshot, error) {
	snap := model.NewSnapshot()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxResultsLine)

	var section map[string]int
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		switch line {
		case "":
			continue
		case wordCountsHeader:
			section = snap.Pages
			continue
		case wordFrequenciesHeader:
			section = snap.Words
			continue
		}

		if section == nil {
			return snap, fmt.Errorf("%w: line %d: entry before section header", ErrMalformedResults, lineNo)
		}
		key, count, err := parseResultsLine(line)
		if err != nil {
			return snap, fmt.Errorf("%w: line %d: %w", ErrMalformedResults, lineNo, err)
		}
		section[key] = count
	}
	if err := sc.Err(); err != nil {
		return snap, fmt.Errorf("%w: %w", ErrMalformedResults, err)
	}
	return snap, nil
}

// parseResultsLine splits "key: count". The last separator wins so keys may
// themselves contain ": ".
func parseResultsLine(line string) (string, int, error) {
	i := strings.LastIndex(line, ": ")
	if i <= 0 {
		return "", 0, fmt.Errorf("missing separator in %q", line)
	}
	count, err := strconv.Atoi(strings.TrimSpace(line[i+2:]))
	if err != nil {
		return "", 0, err
	}
	if count < 0 {
		return "", 0, fmt.Errorf("negative count in %q", line)
	}
	return line[:i], count, nil
}
