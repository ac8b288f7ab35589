package aesref

// AES works in GF(2^8) modulo the irreducible polynomial
// x⁸ + x⁴ + x³ + x + 1. The S-boxes are generated from it at init.
const poly = 1<<8 | 1<<4 | 1<<3 | 1<<1 | 1<<0

var sbox, invSbox [256]byte

// mul multiplies b and c as GF(2) polynomials modulo poly.
func mul(b, c byte) byte {
	i := uint16(b)
	s := uint16(0)
	for j := c; j != 0; j >>= 1 {
		if j&1 != 0 {
			s ^= i
		}
		i <<= 1
		if i&0x100 != 0 {
			i ^= poly
		}
	}
	return byte(s)
}

// inverse returns the multiplicative inverse of b, with 0 mapping to 0.
func inverse(b byte) byte {
	// b^254 = b^-1
	r := byte(1)
	for i := 0; i < 254; i++ {
		r = mul(r, b)
	}
	if b == 0 {
		return 0
	}
	return r
}

func rotl8(b byte, n uint) byte {
	return b<<n | b>>(8-n)
}

func init() {
	for x := 0; x < 256; x++ {
		v := inverse(byte(x))
		s := v ^ rotl8(v, 1) ^ rotl8(v, 2) ^ rotl8(v, 3) ^ rotl8(v, 4) ^ 0x63
		sbox[x] = s
		invSbox[s] = byte(x)
	}
}
