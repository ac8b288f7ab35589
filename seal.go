package colm

// seal encrypts plaintext into out, which must be len(plaintext)+TagSize
// bytes, and writes the intermediate tags into tags.
func (e *engine) seal(out, tags, nonce, plaintext, ad []byte) {
	s := e.init(nonce, ad)
	in := plaintext

	// The final block is always left for sealFinal.
	if e.batched {
		for len(in) > 3*BlockSize {
			tags = e.sealBlocks3(&s, out, in, tags)
			in, out = in[3*BlockSize:], out[3*BlockSize:]
		}
	}

	for len(in) > BlockSize {
		tags = e.sealBlock(&s, out, in, tags)
		in, out = in[BlockSize:], out[BlockSize:]
	}

	e.sealFinal(&s, out, in, tags)
}

func (e *engine) sealBlock(s *state, out, in, tags []byte) []byte {
	s.deltaM = dbl(s.deltaM)
	s.deltaC = dbl(s.deltaC)

	x := load(in)
	xorBlock(&s.checksum, &x)
	xorBlock(&x, &s.deltaM)

	e.c.Encrypt(&x)
	x, s.w = rho(x, s.w)

	if e.tagAfter(s.i) {
		s.deltaC = dbl(s.deltaC)
		tags = e.emitTag(tags, s.w, s.deltaC)
	}

	e.c.Encrypt(&x)
	xorBlock(&x, &s.deltaC)
	store(out, x)

	s.i++
	return tags
}

// sealBlocks3 is three iterations of sealBlock with the cipher passes
// batched. Offsets, checksum and chaining state still advance in block
// order.
func (e *engine) sealBlocks3(s *state, out, in, tags []byte) []byte {
	var x, dm, dc [3]block
	tagIdx := -1

	for j := range x {
		s.deltaM = dbl(s.deltaM)
		dm[j] = s.deltaM

		s.deltaC = dbl(s.deltaC)
		if e.tagAfter(s.i + j) {
			s.deltaC = dbl(s.deltaC)
			tagIdx = j
		}
		dc[j] = s.deltaC

		x[j] = load(in[j*BlockSize:])
		xorBlock(&s.checksum, &x[j])
		xorBlock(&x[j], &dm[j])
	}

	e.c.Encrypt3(&x)

	var states [3]block
	x, states = rho3(x, s.w)
	s.w = states[2]

	if tagIdx >= 0 {
		tags = e.emitTag(tags, states[tagIdx], dc[tagIdx])
	}

	e.c.Encrypt3(&x)

	for j := range x {
		xorBlock(&x[j], &dc[j])
		store(out[j*BlockSize:], x[j])
	}

	s.i += 3
	return tags
}

// sealFinal handles the last 0..16 plaintext bytes in, writing the full
// final ciphertext block and the len(in) byte trailer to out.
func (e *engine) sealFinal(s *state, out, in, tags []byte) {
	n := len(in)

	var buf block
	copy(buf[:], in)

	s.deltaM = septuple(s.deltaM)
	s.deltaC = septuple(s.deltaC)
	if n < BlockSize {
		buf[n] = 0x80
		s.deltaM = septuple(s.deltaM)
		s.deltaC = septuple(s.deltaC)
	}

	x := load(buf[:])
	xorBlock(&s.checksum, &x)

	y := e.encryptBlock(s, s.checksum)
	store(out[:BlockSize], y)

	if e.tagAfter(s.i) {
		s.deltaC = dbl(s.deltaC)
		e.emitTag(tags, s.w, s.deltaC)
	}

	if n == 0 {
		return
	}

	s.deltaM = dbl(s.deltaM)
	s.deltaC = dbl(s.deltaC)

	y = e.encryptBlock(s, s.checksum)
	store(out[BlockSize:BlockSize+n], y)
}

func (e *engine) emitTag(tags []byte, w, delta block) []byte {
	store(tags[:BlockSize], e.intermediateTag(w, delta))
	return tags[BlockSize:]
}
