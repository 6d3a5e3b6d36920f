package simhash

import (
	"encoding/binary"
	"errors"
	"math/bits"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// DefaultNGram is the default feature width in tokens.
	DefaultNGram = 3

	// DefaultBits is the default fingerprint width.
	DefaultBits = 64

	// MaxBits is the widest fingerprint supported.
	MaxBits = 64

	// DefaultThreshold is the default near-duplicate Hamming threshold.
	DefaultThreshold = 5
)

var (
	// ErrInvalidNGram is returned for a feature width below one.
	ErrInvalidNGram = errors.New("simhash: n-gram width must be positive")

	// ErrInvalidBits is returned for a fingerprint width outside 1..64.
	ErrInvalidBits = errors.New("simhash: bit width must be between 1 and 64")
)

// Fingerprint is a simhash value. Only the low Bits bits are meaningful.
type Fingerprint uint64

// Empty is the fingerprint of a document with no features.
const Empty Fingerprint = 0

// Hasher computes fingerprints with a fixed n-gram width and bit width.
// A Hasher holds no mutable state and is safe for concurrent use.
type Hasher struct {
	nGram int
	bits  int
}

// New returns a Hasher. It fails if either width is out of range.
func New(nGram, width int) (*Hasher, error) {
	if nGram < 1 {
		return nil, ErrInvalidNGram
	}
	if width < 1 || width > MaxBits {
		return nil, ErrInvalidBits
	}
	return &Hasher{nGram: nGram, bits: width}, nil
}

// Default returns a Hasher using DefaultNGram and DefaultBits.
func Default() *Hasher {
	return &Hasher{nGram: DefaultNGram, bits: DefaultBits}
}

// Bits returns the fingerprint width.
func (h *Hasher) Bits() int {
	return h.bits
}

// Features returns the term frequency of every n-gram in tokens.
// The key of each feature is its tokens joined by a single space.
func (h *Hasher) Features(tokens []string) map[string]int {
	features := make(map[string]int)
	for i := 0; i+h.nGram <= len(tokens); i++ {
		features[strings.Join(tokens[i:i+h.nGram], " ")]++
	}
	return features
}

// Compute returns the fingerprint of tokens. ok is false when the sequence
// is shorter than the n-gram width, in which case the result is Empty.
func (h *Hasher) Compute(tokens []string) (fp Fingerprint, ok bool) {
	features := h.Features(tokens)
	if len(features) == 0 {
		return Empty, false
	}

	acc := make([]int, h.bits)
	for feature, weight := range features {
		hash := h.hashFeature(feature)
		for i := 0; i < h.bits; i++ {
			// Position 0 is the most significant kept bit.
			if hash&(1<<uint(h.bits-1-i)) != 0 {
				acc[i] += weight
			} else {
				acc[i] -= weight
			}
		}
	}

	for i, v := range acc {
		if v > 0 {
			fp |= 1 << uint(h.bits-1-i)
		}
	}
	return fp, true
}

// hashFeature returns the leading h.bits bits of SHA3-256(feature).
func (h *Hasher) hashFeature(feature string) uint64 {
	sum := sha3.Sum256([]byte(feature))
	v := binary.BigEndian.Uint64(sum[:8])
	return v >> uint(MaxBits-h.bits)
}

// Format renders fp as a bit string of the hasher's width.
func (h *Hasher) Format(fp Fingerprint) string {
	return fp.Format(h.bits)
}

// Format renders the low width bits of fp, most significant first.
func (fp Fingerprint) Format(width int) string {
	var b strings.Builder
	b.Grow(width)
	for i := width - 1; i >= 0; i-- {
		if fp&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// String renders the full 64-bit form.
func (fp Fingerprint) String() string {
	return fp.Format(MaxBits)
}

// Parse reads a bit string produced by Format.
func Parse(s string) (Fingerprint, error) {
	if len(s) == 0 || len(s) > MaxBits {
		return Empty, ErrInvalidBits
	}
	var fp Fingerprint
	for i := 0; i < len(s); i++ {
		fp <<= 1
		switch s[i] {
		case '1':
			fp |= 1
		case '0':
		default:
			return Empty, errors.New("simhash: fingerprint must contain only 0 and 1")
		}
	}
	return fp, nil
}

// Distance returns the number of differing bit positions.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// IsNearDuplicate reports whether a and b are within threshold bits.
func IsNearDuplicate(a, b Fingerprint, threshold int) bool {
	return Distance(a, b) <= threshold
}
