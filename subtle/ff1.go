// Package subtle provides low-level cryptographic primitives for Format-Preserving Encryption.
// This package contains the core NIST FF1 algorithm implementation that works with raw keys.
// It should not be used directly by most users; instead use the high-level APIs in the parent package.
package subtle

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// FF1 round and domain constants, per NIST SP 800-38G.
const (
	numRounds     = 10
	minRadix      = 2
	maxRadix      = 1 << 16
	minLength     = 2
	maxLength     = (1 << 32) - 1
	minDomainSize = 1_000_000 // radix^length must be >= 10^6
)

// Error taxonomy for the core. Callers should use errors.Is against these
// sentinels; call sites wrap them with additional context via fmt.Errorf.
var (
	ErrInvalidRadix       = errors.New("fpe: radix out of range [2, 2^16]")
	ErrInvalidLength      = errors.New("fpe: numeral sequence length invalid")
	ErrInvalidNumeral     = errors.New("fpe: numeral out of range for radix")
	ErrInvalidKeyLength   = errors.New("fpe: key must be 16 bytes (AES-128)")
	ErrInternalArithmetic = errors.New("fpe: internal arithmetic failure")
)

// FF1 implements the core NIST SP 800-38G FF1 algorithm using a raw
// AES-128 key. The key schedule is computed once in NewFF1 and reused
// across every Encrypt/Decrypt call and every round within a call.
type FF1 struct {
	block cipher.Block
}

// NewFF1 creates a new FF1 instance from a 16-byte AES-128 key. FF1 as
// specified here is AES-128 only; larger key sizes are a Non-goal of the
// core (see the tinkfpe and fpe packages for callers that want to carry
// 24/32-byte Tink key material down to this 16-byte core).
func NewFF1(key []byte) (*FF1, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalArithmetic, err)
	}
	return &FF1{block: block}, nil
}

// Encrypt performs FF1 format-preserving encryption on a numeral sequence.
// plaintext holds numerals in [0, radix); tweak is arbitrary associated
// data. The returned sequence has the same length as plaintext.
func (f *FF1) Encrypt(tweak []byte, radix int, plaintext []uint16) ([]uint16, error) {
	return f.feistel(tweak, radix, plaintext, true)
}

// Decrypt is the inverse of Encrypt: Decrypt(tweak, radix, Encrypt(tweak,
// radix, X)) == X for any valid (tweak, radix, X).
func (f *FF1) Decrypt(tweak []byte, radix int, ciphertext []uint16) ([]uint16, error) {
	return f.feistel(tweak, radix, ciphertext, false)
}

// feistel drives the ten-round FF1 construction shared by Encrypt and
// Decrypt. encrypting selects the direction of the per-round arithmetic
// and the order rounds are run in.
func (f *FF1) feistel(tweak []byte, radix int, x []uint16, encrypting bool) ([]uint16, error) {
	if radix < minRadix || radix > maxRadix {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadix, radix)
	}

	n := len(x)
	if n < minLength || n > maxLength {
		return nil, fmt.Errorf("%w: length %d must be in [%d, %d]", ErrInvalidLength, n, minLength, maxLength)
	}
	domain := new(big.Int).Exp(big.NewInt(int64(radix)), big.NewInt(int64(n)), nil)
	if domain.Cmp(big.NewInt(minDomainSize)) < 0 {
		return nil, fmt.Errorf("%w: radix^length = %s is below the minimum domain size %d", ErrInvalidLength, domain.String(), minDomainSize)
	}
	for _, digit := range x {
		if int(digit) >= radix {
			return nil, fmt.Errorf("%w: numeral %d >= radix %d", ErrInvalidNumeral, digit, radix)
		}
	}

	u := n / 2
	v := n - u
	a := append([]uint16(nil), x[:u]...)
	b := append([]uint16(nil), x[u:]...)

	radixBig := big.NewInt(int64(radix))
	qpowU := new(big.Int).Exp(radixBig, big.NewInt(int64(u)), nil)
	qpowV := new(big.Int).Exp(radixBig, big.NewInt(int64(v)), nil)

	t := len(tweak)
	// b = ceil(ceil(v*log2(radix))/8); ceil(v*log2(radix)) is the bit
	// length of radix^v - 1.
	bLen := (new(big.Int).Sub(qpowV, big.NewInt(1)).BitLen() + 7) / 8
	d := 4*((bLen+3)/4) + 4
	pad := (((-t-bLen-1)%16)+16) % 16
	qLen := t + pad + 1 + bLen

	p := buildP(radix, u, n, t)

	q := make([]byte, qLen)
	copy(q, tweak)

	pq := make([]byte, 16+qLen)
	copy(pq, p)

	rounds := make([]int, numRounds)
	if encrypting {
		for i := range rounds {
			rounds[i] = i
		}
	} else {
		for i := range rounds {
			rounds[i] = numRounds - 1 - i
		}
	}

	for _, i := range rounds {
		m, qpowM := u, qpowU
		if i%2 == 1 {
			m, qpowM = v, qpowV
		}

		q[t+pad] = byte(i)
		source := b
		if !encrypting {
			source = a
		}
		copy(q[qLen-bLen:], bytesFromBigInt(numradixEncode(source, radix), bLen))
		copy(pq[16:], q)

		r := prf(f.block, pq)
		s := expand(f.block, r, d)
		y := new(big.Int).SetBytes(s)

		var c *big.Int
		if encrypting {
			c = new(big.Int).Add(numradixEncode(a, radix), y)
		} else {
			c = new(big.Int).Sub(numradixEncode(b, radix), y)
		}
		c.Mod(c, qpowM)
		newHalf := numradixDecode(c, radix, m)

		if encrypting {
			a, b = b, newHalf
		} else {
			a, b = newHalf, a
		}
	}

	out := make([]uint16, n)
	copy(out, a)
	copy(out[len(a):], b)
	return out, nil
}

// buildP constructs the 16-byte fixed block P, bit-exact per NIST
// SP 800-38G and big-endian regardless of host byte order.
func buildP(radix, u, n, t int) []byte {
	p := make([]byte, 16)
	p[0] = 0x01 // version
	p[1] = 0x02 // method = FF1
	p[2] = 0x01 // addition mod radix
	p[3] = byte(radix >> 16)
	p[4] = byte(radix >> 8)
	p[5] = byte(radix)
	p[6] = numRounds
	p[7] = byte(u % 256)
	binary.BigEndian.PutUint32(p[8:12], uint32(n))
	binary.BigEndian.PutUint32(p[12:16], uint32(t))
	return p
}

// prf computes AES-128-CBC-MAC over m (whose length must be a positive
// multiple of 16) with a zero IV, returning the final 16-byte block.
func prf(block cipher.Block, m []byte) []byte {
	iv := make([]byte, aes.BlockSize)
	mode := cipher.NewCBCEncrypter(block, iv)
	out := make([]byte, len(m))
	mode.CryptBlocks(out, m)
	return out[len(out)-aes.BlockSize:]
}

// expand produces a d-byte block S from a 16-byte PRF output R by
// concatenating R with AES(R XOR <j>) for j = 1, 2, ... as needed, then
// truncating to d bytes. j is encoded as a big-endian 32-bit word in the
// last 4 bytes of an otherwise-zero 16-byte block.
func expand(block cipher.Block, r []byte, d int) []byte {
	cnt := (d+aes.BlockSize-1)/aes.BlockSize - 1
	s := make([]byte, aes.BlockSize*(cnt+1))
	copy(s, r)

	for j := 1; j <= cnt; j++ {
		var in [aes.BlockSize]byte
		binary.BigEndian.PutUint32(in[aes.BlockSize-4:], uint32(j))
		for k := range in {
			in[k] ^= r[k]
		}
		var out [aes.BlockSize]byte
		block.Encrypt(out[:], in[:])
		copy(s[aes.BlockSize*j:], out[:])
	}

	return s[:d]
}
