// Package subtle provides low-level cryptographic primitives for Format-Preserving Encryption.
package subtle

import (
	"math/big"
)

// numradixEncode converts a numeral sequence (big-endian, base radix) to the
// non-negative integer it denotes: N = sum(X[i] * radix^(len(X)-1-i)).
func numradixEncode(numeric []uint16, radix int) *big.Int {
	result := new(big.Int)
	radixBig := big.NewInt(int64(radix))

	for _, digit := range numeric {
		result.Mul(result, radixBig)
		result.Add(result, big.NewInt(int64(digit)))
	}

	return result
}

// numradixDecode converts a non-negative integer back to its length-long
// big-endian numeral sequence in the given radix, left-padded with zero
// numerals. The caller must ensure 0 <= val < radix^length.
func numradixDecode(val *big.Int, radix int, length int) []uint16 {
	result := make([]uint16, length)
	radixBig := big.NewInt(int64(radix))
	temp := new(big.Int).Set(val)

	for i := length - 1; i >= 0; i-- {
		var remainder big.Int
		temp.DivMod(temp, radixBig, &remainder)
		result[i] = uint16(remainder.Int64())
	}

	return result
}

// bytesFromBigInt renders n as a big-endian byte string of exactly width
// bytes, left-padded with zeros. n must fit within width bytes; callers in
// this package guarantee that by construction (n < radix^v and width = b).
func bytesFromBigInt(n *big.Int, width int) []byte {
	raw := n.Bytes()
	out := make([]byte, width)
	copy(out[width-len(raw):], raw)
	return out
}

// bitLength returns ceil(log2(radix)), the number of bits needed to
// represent any numeral in [0, radix).
func bitLength(radix int) int {
	if radix <= 1 {
		return 1
	}
	bits := 0
	for n := radix - 1; n > 0; n >>= 1 {
		bits++
	}
	return bits
}
