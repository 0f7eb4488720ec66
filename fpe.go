// Package fpe implements Format-Preserving Encryption (FPE) using the FF1 algorithm.
// FF1 is a NIST-standardized format-preserving encryption algorithm (NIST SP 800-38G).
//
// This package provides a clean, provider-agnostic implementation of FF1 that can
// be used with any key management system. It preserves the format of input data
// (e.g., SSN format XXX-XX-XXXX, credit card numbers, email addresses) while
// encrypting the actual data characters.
//
// The package includes both standalone FF1 implementation and Tink-compatible
// primitives (see tink.go). While Tink doesn't natively support FPE, this package
// provides a Tink-compatible interface that follows Tink's design patterns and
// integrates seamlessly with Tink's key management system.
//
// Example usage:
//
//	key := []byte("0123456789abcdef") // 16 bytes, AES-128
//	tweak := []byte("tenant-1234|customer.ssn")
//
//	fpe, err := fpe.NewFF1(key, tweak)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Tokenize (encrypt) while preserving format
//	tokenized, err := fpe.Tokenize("123-45-6789")
//	if err != nil {
//		log.Fatal(err)
//	}
//	// tokenized might be "987-65-4321" (same format, different data)
//
//	// Detokenize (decrypt) to recover original
//	plaintext, err := fpe.Detokenize(tokenized, "123-45-6789", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	// plaintext will be "123-45-6789"
package fpe

import (
	"fmt"

	"github.com/datavault-oss/fpe/subtle"
)

// FF1 implements Format-Preserving Encryption using the NIST SP 800-38G FF1
// algorithm. It wraps the low-level subtle.FF1 core with alphabet inference
// and format-character preservation so callers can tokenize arbitrary
// formatted strings instead of bare numeral sequences.
type FF1 struct {
	core  *subtle.FF1
	tweak []byte
}

// NewFF1 creates a new FF1 FPE instance with the given key and tweak. The
// key must be 16, 24, or 32 bytes; only its first 16 bytes are ever fed to
// the AES-128 core, since FF1-AES128 is the only variant the core
// implements (see subtle.FF1). The tweak is a public, non-secret value
// that ensures different ciphertexts for the same plaintext when the
// tweak changes.
func NewFF1(key, tweak []byte) (*FF1, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("fpe: key must be 16, 24, or 32 bytes, got %d", len(key))
	}
	core, err := subtle.NewFF1(key[:16])
	if err != nil {
		return nil, fmt.Errorf("fpe: failed to initialize FF1 core: %w", err)
	}
	return &FF1{core: core, tweak: tweak}, nil
}

// Tokenize encrypts plaintext using format-preserving encryption.
// It preserves format characters (hyphens, dots, colons, @ signs, etc.) and
// only encrypts the alphanumeric data characters.
//
// Returns the tokenized (encrypted) value that maintains the same format as the input.
func (f *FF1) Tokenize(plaintext string) (string, error) {
	formatMask, dataChars := SeparateFormatAndData(plaintext)
	if dataChars == "" {
		return ReconstructWithFormat("", formatMask, plaintext), nil
	}

	alphabet := DetermineAlphabet(dataChars)
	codec, err := NewCodec(alphabet)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to build codec for tokenize: %w", err)
	}

	dataNumeric, err := codec.Encode(dataChars)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to encode plaintext: %w", err)
	}

	tokenizedNumeric, err := f.core.Encrypt(f.tweak, codec.Radix(), dataNumeric)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to tokenize: %w", err)
	}

	tokenizedData, err := codec.Decode(tokenizedNumeric)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to decode tokenized data: %w", err)
	}

	return ReconstructWithFormat(tokenizedData, formatMask, plaintext), nil
}

// Detokenize decrypts tokenized value using format-preserving encryption.
// The alphabet parameter should match what was used during tokenization.
// If empty, it is inferred from originalPlaintext when that is non-empty,
// otherwise from the tokenized data (which may not match the original).
//
// For best results, pass the alphabet determined from the original plaintext.
func (f *FF1) Detokenize(tokenized string, originalPlaintext string, alphabet string) (string, error) {
	formatMask, dataChars := SeparateFormatAndData(tokenized)
	if dataChars == "" {
		return ReconstructWithFormat("", formatMask, tokenized), nil
	}

	if alphabet == "" {
		if originalPlaintext != "" {
			_, originalDataChars := SeparateFormatAndData(originalPlaintext)
			alphabet = DetermineAlphabet(originalDataChars)
		} else {
			alphabet = DetermineAlphabet(dataChars)
		}
	}

	codec, err := NewCodec(alphabet)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to build codec for detokenize: %w", err)
	}

	tokenizedNumeric, err := codec.Encode(dataChars)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to encode tokenized data: %w", err)
	}

	plaintextNumeric, err := f.core.Decrypt(f.tweak, codec.Radix(), tokenizedNumeric)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to detokenize: %w", err)
	}

	plaintextData, err := codec.Decode(plaintextNumeric)
	if err != nil {
		return "", fmt.Errorf("fpe: failed to decode plaintext: %w", err)
	}

	return ReconstructWithFormat(plaintextData, formatMask, tokenized), nil
}
