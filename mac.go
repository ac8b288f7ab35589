package colm

// Nonce parameter bytes following the 8 byte nonce in the MAC seed block.
// Byte 6 carries the intermediate tag interval, so the COLM0 and COLM127
// seeds never coincide.
var (
	colm0Param   = [BlockSize - NonceSize]byte{0, 0, 0, 0, 0, 0x80, 0x00, 0}
	colm127Param = [BlockSize - NonceSize]byte{0, 0, 0, 0, 0, 0x80, TagInterval, 0}
)

// nonceSeed builds the MAC seed block, whose wire form is nonce || param.
func nonceSeed(nonce []byte, param *[BlockSize - NonceSize]byte) block {
	var seed block
	copy(seed[:NonceSize], nonce)
	copy(seed[NonceSize:], param[:])
	return load(seed[:])
}

// mac authenticates the associated data into the initial chaining state.
// l is E(0).
func mac(c BlockCipher, seed block, ad []byte, l block, batched bool) block {
	delta := triple(l)

	v := xored(seed, delta)
	c.Encrypt(&v)

	if batched {
		var x [3]block
		for len(ad) >= 3*BlockSize {
			for j := range x {
				delta = dbl(delta)
				x[j] = load(ad[j*BlockSize:])
				xorBlock(&x[j], &delta)
			}

			c.Encrypt3(&x)

			xorBlock(&v, &x[0])
			xorBlock(&v, &x[1])
			xorBlock(&v, &x[2])

			ad = ad[3*BlockSize:]
		}
	}

	for len(ad) >= BlockSize {
		delta = dbl(delta)

		x := load(ad)
		xorBlock(&x, &delta)
		c.Encrypt(&x)
		xorBlock(&v, &x)

		ad = ad[BlockSize:]
	}

	if len(ad) > 0 {
		delta = septuple(delta)

		var buf block
		copy(buf[:], ad)
		buf[len(ad)] = 0x80

		x := load(buf[:])
		xorBlock(&x, &delta)
		c.Encrypt(&x)
		xorBlock(&v, &x)
	}

	return v
}
