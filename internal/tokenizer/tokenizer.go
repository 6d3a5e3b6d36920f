package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ucicrawl/ucicrawl/internal/model"
)

// BufferSize is the number of bytes read from the input per chunk.
const BufferSize = 4096

// ErrRead is returned when the input source cannot be read.
var ErrRead = errors.New("tokenizer: read failed")

// Scanner is an incremental tokenizer.
// Callers feed it bytes in any chunking with Write and collect the tokens
// with Flush; a token split across two writes is reassembled.
//
// A Scanner is not safe for concurrent use.
type Scanner struct {
	current []byte
	tokens  []string
}

// NewScanner returns an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Write consumes p. It never fails; the error is always nil so Scanner
// can be used as an io.Writer.
func (s *Scanner) Write(p []byte) (int, error) {
	for _, c := range p {
		lower, ok := foldAlnum(c)
		if !ok {
			s.Break()
			continue
		}
		s.current = append(s.current, lower)
	}
	return len(p), nil
}

// WriteString is the string form of Write.
func (s *Scanner) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Break terminates the in-progress token, if any.
func (s *Scanner) Break() {
	if len(s.current) > 0 {
		s.tokens = append(s.tokens, string(s.current))
		s.current = s.current[:0]
	}
}

// Flush terminates the in-progress token and returns every token seen
// since the previous Flush.
func (s *Scanner) Flush() []string {
	s.Break()
	out := s.tokens
	s.tokens = nil
	return out
}

// foldAlnum returns the lower-cased form of c and whether c is an ASCII
// letter or digit.
func foldAlnum(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return c, true
	case c >= 'A' && c <= 'Z':
		return c + ('a' - 'A'), true
	default:
		return 0, false
	}
}

// Tokenize reads r to EOF in BufferSize chunks and returns its tokens.
// On a read error the tokens collected so far are returned together with
// an error wrapping ErrRead.
func Tokenize(r io.Reader) ([]string, error) {
	br := bufio.NewReaderSize(r, BufferSize)
	buf := make([]byte, BufferSize)
	s := NewScanner()

	for {
		n, err := br.Read(buf)
		if n > 0 {
			_, _ = s.Write(buf[:n]) //nolint:errcheck // Scanner.Write never fails
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.Flush(), fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	return s.Flush(), nil
}

// TokenizeString tokenizes an in-memory string.
func TokenizeString(text string) []string {
	tokens, _ := Tokenize(strings.NewReader(text)) //nolint:errcheck // strings.Reader never fails
	return tokens
}

// ComputeWordFrequencies counts how often each token occurs.
func ComputeWordFrequencies(tokens []string) map[string]int {
	freqs := make(map[string]int)
	for _, token := range tokens {
		freqs[token]++
	}
	return freqs
}

// Sorted returns freqs ordered by descending count, ties broken by
// ascending token.
func Sorted(freqs map[string]int) []model.WordCount {
	out := make([]model.WordCount, 0, len(freqs))
	for word, count := range freqs {
		out = append(out, model.WordCount{Word: word, Count: count})
	}
	model.SortWordCounts(out)
	return out
}

// WriteFrequencies writes "<token> <count>" lines in report order.
func WriteFrequencies(w io.Writer, freqs map[string]int) error {
	for _, wc := range Sorted(freqs) {
		if _, err := fmt.Fprintf(w, "%s %d\n", wc.Word, wc.Count); err != nil {
			return err
		}
	}
	return nil
}
