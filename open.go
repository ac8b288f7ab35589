package colm

import "crypto/subtle"

// open decrypts ciphertext into out, which must be len(ciphertext)-TagSize
// bytes, checking every intermediate tag in tags on the way. out holds
// unauthenticated data if an error is returned.
func (e *engine) open(out, tags, nonce, ciphertext, ad []byte) error {
	s := e.init(nonce, ad)
	in := ciphertext

	var err error
	if e.batched {
		for len(in)-TagSize > 3*BlockSize {
			if tags, err = e.openBlocks3(&s, out, in, tags); err != nil {
				return err
			}
			in, out = in[3*BlockSize:], out[3*BlockSize:]
		}
	}

	for len(in)-TagSize > BlockSize {
		if tags, err = e.openBlock(&s, out, in, tags); err != nil {
			return err
		}
		in, out = in[BlockSize:], out[BlockSize:]
	}

	return e.openFinal(&s, out, in, tags)
}

func (e *engine) openBlock(s *state, out, in, tags []byte) ([]byte, error) {
	s.deltaM = dbl(s.deltaM)
	s.deltaC = dbl(s.deltaC)

	tagged := e.tagAfter(s.i)
	if tagged {
		s.deltaC = dbl(s.deltaC)
	}

	x := load(in)
	xorBlock(&x, &s.deltaC)

	e.c.Decrypt(&x)
	x, s.w = rhoInverse(x, s.w)

	if tagged {
		var err error
		if tags, err = e.verifyTag(tags, s.w, s.deltaC); err != nil {
			return nil, err
		}
	}

	e.c.Decrypt(&x)
	xorBlock(&x, &s.deltaM)
	xorBlock(&s.checksum, &x)
	store(out, x)

	s.i++
	return tags, nil
}

func (e *engine) openBlocks3(s *state, out, in, tags []byte) ([]byte, error) {
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
		xorBlock(&x[j], &dc[j])
	}

	e.c.Decrypt3(&x)

	var states [3]block
	x, states = rhoInverse3(x, s.w)
	s.w = states[2]

	if tagIdx >= 0 {
		var err error
		if tags, err = e.verifyTag(tags, states[tagIdx], dc[tagIdx]); err != nil {
			return nil, err
		}
	}

	e.c.Decrypt3(&x)

	for j := range x {
		xorBlock(&x[j], &dm[j])
		xorBlock(&s.checksum, &x[j])
		store(out[j*BlockSize:], x[j])
	}

	s.i += 3
	return tags, nil
}

// openFinal handles the final ciphertext block and the trailer in, which
// together are BlockSize+n bytes for an n byte final plaintext block.
func (e *engine) openFinal(s *state, out, in, tags []byte) error {
	n := len(in) - TagSize

	s.deltaM = septuple(s.deltaM)
	s.deltaC = septuple(s.deltaC)
	if n < BlockSize {
		s.deltaM = septuple(s.deltaM)
		s.deltaC = septuple(s.deltaC)
	}

	x := load(in)
	xorBlock(&x, &s.deltaC)
	e.c.Decrypt(&x)
	x, s.w = rhoInverse(x, s.w)
	e.c.Decrypt(&x)
	xorBlock(&x, &s.deltaM)

	// x is the full checksum; removing the running checksum leaves the
	// padded final plaintext block.
	var last block
	store(last[:], xored(s.checksum, x))
	copy(out, last[:n])

	if e.tagAfter(s.i) {
		s.deltaC = dbl(s.deltaC)
		if _, err := e.verifyTag(tags, s.w, s.deltaC); err != nil {
			return err
		}
	}

	if n > 0 {
		s.deltaM = dbl(s.deltaM)
		s.deltaC = dbl(s.deltaC)

		var y block
		store(y[:], e.encryptBlock(s, x))
		if subtle.ConstantTimeCompare(y[:n], in[BlockSize:]) != 1 {
			return ErrTagMismatch
		}
	}

	if n < BlockSize {
		if last[n] != 0x80 {
			return ErrBadPaddingMarker
		}
		var tail byte
		for _, b := range last[n+1:] {
			tail |= b
		}
		if tail != 0 {
			return ErrBadPaddingTail
		}
	}

	return nil
}

func (e *engine) verifyTag(tags []byte, w, delta block) ([]byte, error) {
	var t block
	store(t[:], e.intermediateTag(w, delta))
	if subtle.ConstantTimeCompare(t[:], tags[:BlockSize]) != 1 {
		return nil, ErrIntermediateTagMismatch
	}
	return tags[BlockSize:], nil
}
