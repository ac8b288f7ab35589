package colm

import (
	"crypto/subtle"
	"encoding/binary"
)

// block is a 128-bit field element. Byte 0 is the most significant byte.
// Its wire form, the byte order of messages, ciphertexts and the block
// cipher, has each 8 byte half reversed; see load and store.
type block = [BlockSize]byte

// swap converts between a field element and its wire form. It reverses
// the bytes of each 64-bit half and is its own inverse.
func swap(x block) block {
	var y block
	binary.LittleEndian.PutUint64(y[:8], binary.BigEndian.Uint64(x[:8]))
	binary.LittleEndian.PutUint64(y[8:], binary.BigEndian.Uint64(x[8:]))
	return y
}

// load reads the first BlockSize bytes of b as a field element.
func load(b []byte) block {
	return swap(block(b[:BlockSize]))
}

// store writes the wire form of x to b, truncated to len(b).
func store(b []byte, x block) {
	y := swap(x)
	copy(b, y[:])
}

// dbl performs the doubling operation in GF(2^128).
// This is a left shift with conditional XOR of the polynomial 0x87.
func dbl(input block) block {
	var output block

	carry := byte(0)
	for i := BlockSize - 1; i >= 0; i-- {
		output[i] = (input[i] << 1) | carry
		carry = input[i] >> 7
	}

	mask := byte(0 - carry) // 0xFF if the top bit was set, 0x00 otherwise
	output[BlockSize-1] ^= 0x87 & mask

	return output
}

// triple returns 3·x.
func triple(x block) block {
	y := dbl(x)
	xorBlock(&y, &x)
	return y
}

// septuple returns 7·x.
func septuple(x block) block {
	x2 := dbl(x)
	y := dbl(x2)
	xorBlock(&y, &x2)
	xorBlock(&y, &x)
	return y
}

// xorBlock XORs src into dst.
func xorBlock(dst, src *block) {
	subtle.XORBytes(dst[:], dst[:], src[:])
}

// xored returns a ⊕ b.
func xored(a, b block) block {
	xorBlock(&a, &b)
	return a
}
