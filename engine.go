package colm

// engine holds everything fixed for a key: the block cipher, the MAC
// nonce parameter and the intermediate tag interval (0 for COLM0).
type engine struct {
	c        BlockCipher
	param    *[BlockSize - NonceSize]byte
	interval int
	batched  bool
}

// state is the per-message chain. Every field advances in block order.
type state struct {
	deltaM   block
	deltaC   block
	w        block
	checksum block

	// i is the 1-based index of the next message block.
	i int
}

func (e *engine) init(nonce, ad []byte) state {
	var l block
	e.c.Encrypt(&l)

	return state{
		deltaM: l,
		deltaC: triple(triple(l)),
		w:      mac(e.c, nonceSeed(nonce, e.param), ad, l, e.batched),
		i:      1,
	}
}

// tagAfter reports whether an intermediate tag follows block i.
func (e *engine) tagAfter(i int) bool {
	return e.interval > 0 && i%e.interval == 0
}

// intermediateTag returns E(w) ⊕ delta.
func (e *engine) intermediateTag(w, delta block) block {
	e.c.Encrypt(&w)
	xorBlock(&w, &delta)
	return w
}

// encryptBlock runs x through both cipher passes under the current
// offsets, advancing the chaining state.
func (e *engine) encryptBlock(s *state, x block) block {
	xorBlock(&x, &s.deltaM)
	e.c.Encrypt(&x)
	x, s.w = rho(x, s.w)
	e.c.Encrypt(&x)
	xorBlock(&x, &s.deltaC)
	return x
}

// blockCount is the number of message blocks for n plaintext bytes. An
// empty message still has one (padded) block.
func blockCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + BlockSize - 1) / BlockSize
}

func tagCount(interval, n int) int {
	if interval == 0 {
		return 0
	}
	return blockCount(n) / interval
}
