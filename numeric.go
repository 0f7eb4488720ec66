package fpe

import (
	"errors"
	"fmt"
)

// ErrUnknownAlphabetRune is returned when a data character falls outside
// the alphabet a Codec was built from.
var ErrUnknownAlphabetRune = errors.New("fpe: rune not in alphabet")

// ErrDuplicateAlphabetRune is returned when an alphabet passed to NewCodec
// repeats a rune; the numeral <-> rune mapping must be a bijection.
var ErrDuplicateAlphabetRune = errors.New("fpe: alphabet contains a duplicate rune")

// Codec maps between strings over a fixed alphabet and the numeral
// sequences the FF1 core operates on. The alphabet's length is the radix
// handed to the core.
type Codec struct {
	alphabet []rune
	index    map[rune]uint16
}

// NewCodec builds a Codec from an ordered, duplicate-free alphabet. The
// alphabet must contain at least two runes (FF1's minimum radix).
func NewCodec(alphabet string) (*Codec, error) {
	runes := []rune(alphabet)
	if len(runes) < 2 {
		return nil, fmt.Errorf("fpe: alphabet must contain at least 2 runes, got %d", len(runes))
	}

	index := make(map[rune]uint16, len(runes))
	for i, r := range runes {
		if _, ok := index[r]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAlphabetRune, r)
		}
		index[r] = uint16(i)
	}

	return &Codec{alphabet: runes, index: index}, nil
}

// Radix returns the size of the codec's alphabet.
func (c *Codec) Radix() int {
	return len(c.alphabet)
}

// Encode maps each rune of s to its index in the alphabet. It fails if s
// contains a rune outside the alphabet.
func (c *Codec) Encode(s string) ([]uint16, error) {
	runes := []rune(s)
	out := make([]uint16, len(runes))
	for i, r := range runes {
		idx, ok := c.index[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownAlphabetRune, r, i)
		}
		out[i] = idx
	}
	return out, nil
}

// Decode is the inverse of Encode. It fails if any numeral is out of range
// for the codec's radix.
func (c *Codec) Decode(numeric []uint16) (string, error) {
	out := make([]rune, len(numeric))
	for i, n := range numeric {
		if int(n) >= len(c.alphabet) {
			return "", fmt.Errorf("fpe: numeral %d out of range for radix %d", n, len(c.alphabet))
		}
		out[i] = c.alphabet[n]
	}
	return string(out), nil
}

// StringToNumeric converts a string to its numeral representation under
// alphabet, defaulting unrecognized characters to numeral 0. It is a
// lenient convenience wrapper over Codec; Tokenize/Detokenize do not call
// it and use Codec.Encode, which rejects unrecognized characters.
func StringToNumeric(s, alphabet string) []uint16 {
	codec, err := NewCodec(alphabet)
	if err != nil {
		return make([]uint16, len([]rune(s)))
	}
	runes := []rune(s)
	result := make([]uint16, len(runes))
	for i, r := range runes {
		if idx, ok := codec.index[r]; ok {
			result[i] = idx
		}
	}
	return result
}

// NumericToString is the lenient inverse of StringToNumeric, mapping
// numerals straight through alphabet and defaulting out-of-range numerals
// to the alphabet's first character.
func NumericToString(numeric []uint16, alphabet string, length int) string {
	runes := []rune(alphabet)
	out := make([]rune, 0, length)
	for i := 0; i < length && i < len(numeric); i++ {
		if int(numeric[i]) < len(runes) {
			out = append(out, runes[numeric[i]])
		} else {
			out = append(out, runes[0])
		}
	}
	return string(out)
}
