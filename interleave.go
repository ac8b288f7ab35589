package colm

// tagStride is the number of ciphertext bytes between two intermediate
// tags in an interleaved stream.
const tagStride = TagInterval * BlockSize

// InterleavedSize returns the length of the interleaved COLM127 stream for
// a plaintext of plaintextLen bytes.
func InterleavedSize(plaintextLen int) int {
	return plaintextLen + TagSize + IntermediateTagCount(plaintextLen)*TagSize
}

// SealInterleaved is like Seal, but appends a single stream to dst in
// which intermediate tag k directly follows the first 127·16·k bytes of
// ciphertext. This is the order in which a sender produces them, so a
// receiver can check each tag as soon as the blocks it covers arrive.
func (c *COLM127) SealInterleaved(dst, nonce, plaintext, additionalData []byte) []byte {
	ciphertext, tags := c.Seal(nil, nil, nonce, plaintext, additionalData)

	ret, out := sliceForAppend(dst, len(ciphertext)+len(tags))
	for len(tags) > 0 {
		out = out[copy(out, ciphertext[:tagStride]):]
		out = out[copy(out, tags[:TagSize]):]
		ciphertext, tags = ciphertext[tagStride:], tags[TagSize:]
	}
	copy(out, ciphertext)

	return ret
}

// OpenInterleaved decrypts and authenticates a stream produced by
// SealInterleaved, and appends the plaintext to dst.
func (c *COLM127) OpenInterleaved(dst, nonce, stream, additionalData []byte) ([]byte, error) {
	if len(stream) < TagSize {
		return nil, ErrCiphertextTooShort
	}

	n, ok := splitInterleaved(len(stream))
	if !ok {
		return nil, ErrInvalidTagsLength
	}

	count := IntermediateTagCount(n)
	ciphertext := make([]byte, 0, n+TagSize)
	tags := make([]byte, 0, count*TagSize)
	for range count {
		ciphertext = append(ciphertext, stream[:tagStride]...)
		tags = append(tags, stream[tagStride:tagStride+TagSize]...)
		stream = stream[tagStride+TagSize:]
	}
	ciphertext = append(ciphertext, stream...)

	return c.Open(dst, nonce, ciphertext, tags, additionalData)
}

// splitInterleaved returns the plaintext length n for which
// InterleavedSize(n) == size. InterleavedSize is strictly increasing, so
// n is unique when it exists.
func splitInterleaved(size int) (int, bool) {
	for t := 0; ; t++ {
		n := size - TagSize - t*TagSize
		if n < 0 {
			return 0, false
		}
		switch count := IntermediateTagCount(n); {
		case count == t:
			return n, true
		case count < t:
			return 0, false
		}
	}
}
