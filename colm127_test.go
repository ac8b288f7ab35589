package colm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// blockLengths returns message lengths around the intermediate tag
// boundaries.
func blockLengths() []int {
	var lengths []int
	for _, blocks := range []int{1, 125, 126, 127, 128, 129, 130, 253, 254, 255, 381} {
		lengths = append(lengths, blocks*BlockSize-1, blocks*BlockSize, blocks*BlockSize+1)
	}
	return append(lengths, 0, 7)
}

func TestIntermediateTagCount(t *testing.T) {
	for _, tc := range []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{126 * BlockSize, 0},
		{127*BlockSize - 15, 1},
		{127 * BlockSize, 1},
		{128 * BlockSize, 1},
		{254*BlockSize - 1, 2},
		{254 * BlockSize, 2},
		{381 * BlockSize, 3},
	} {
		require.Equal(t, tc.want, IntermediateTagCount(tc.n), "n=%d", tc.n)
	}
}

func TestCOLM127RoundTrip(t *testing.T) {
	ad := []byte("colm127 associated data")

	for _, b := range testBackends {
		for _, batched := range []bool{true, false} {
			aead, err := New127(testKey, WithBackend(b), WithBatching(batched))
			require.NoError(t, err)

			for _, n := range blockLengths() {
				plaintext := pattern(n)

				ciphertext, tags := aead.Seal(nil, nil, testNonce, plaintext, ad)
				require.Len(t, ciphertext, n+TagSize)
				require.Len(t, tags, IntermediateTagCount(n)*TagSize)

				decrypted, err := aead.Open(nil, testNonce, ciphertext, tags, ad)
				require.NoError(t, err, "%s batched=%v n=%d", b, batched, n)
				require.True(t, bytes.Equal(plaintext, decrypted))
			}
		}
	}
}

func TestCOLM127TagCounts(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	_, tags := aead.Seal(nil, nil, testNonce, pattern(254*BlockSize), nil)
	require.Len(t, tags, 2*TagSize)

	_, tags = aead.Seal(nil, nil, testNonce, pattern(126*BlockSize), nil)
	require.Empty(t, tags)
}

func TestCOLM127BatchedMatchesSequential(t *testing.T) {
	for _, b := range testBackends {
		batched, err := New127(testKey, WithBackend(b), WithBatching(true))
		require.NoError(t, err)
		sequential, err := New127(testKey, WithBackend(b), WithBatching(false))
		require.NoError(t, err)

		for _, n := range blockLengths() {
			plaintext := pattern(n)

			wantCT, wantTags := sequential.Seal(nil, nil, testNonce, plaintext, nil)
			gotCT, gotTags := batched.Seal(nil, nil, testNonce, plaintext, nil)
			require.Equal(t, wantCT, gotCT, "%s n=%d", b, n)
			require.Equal(t, wantTags, gotTags, "%s n=%d", b, n)
		}
	}
}

func TestDomainSeparation(t *testing.T) {
	aead0, err := New(testKey)
	require.NoError(t, err)
	aead127, err := New127(testKey)
	require.NoError(t, err)

	for _, n := range []int{0, 5, 16, 100, 126 * BlockSize} {
		plaintext := pattern(n)

		c0 := aead0.Seal(nil, testNonce, plaintext, nil)
		c127, tags := aead127.Seal(nil, nil, testNonce, plaintext, nil)
		require.Empty(t, tags)
		require.NotEqual(t, c0, c127, "n=%d", n)

		_, err = aead0.Open(nil, testNonce, c127, nil)
		require.ErrorIs(t, err, ErrOpen)
		_, err = aead127.Open(nil, testNonce, c0, nil, nil)
		require.ErrorIs(t, err, ErrOpen)
	}
}

func TestCOLM127IntermediateTagTamper(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	plaintext := pattern(300 * BlockSize)
	ciphertext, tags := aead.Seal(nil, nil, testNonce, plaintext, nil)
	require.Len(t, tags, 2*TagSize)

	for _, i := range []int{0, 15, 16, 31} {
		modified := bytes.Clone(tags)
		modified[i] ^= 0x40

		_, err := aead.Open(nil, testNonce, ciphertext, modified, nil)
		require.ErrorIs(t, err, ErrIntermediateTagMismatch, "tag byte %d", i)
	}

	// A change before the first cadence point is caught by the first tag.
	for _, i := range []int{0, 17, 100*BlockSize + 3, 126 * BlockSize} {
		modified := bytes.Clone(ciphertext)
		modified[i] ^= 0x01

		_, err := aead.Open(nil, testNonce, modified, tags, nil)
		require.ErrorIs(t, err, ErrIntermediateTagMismatch, "ciphertext byte %d", i)
	}

	// After the last cadence point only the final tag is left.
	modified := bytes.Clone(ciphertext)
	modified[290*BlockSize] ^= 0x01
	_, err = aead.Open(nil, testNonce, modified, tags, nil)
	require.ErrorIs(t, err, ErrTagMismatch)
}

func TestCOLM127FinalBlockTag(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	// The 127th block is the final block, so the only tag comes after it.
	for _, n := range []int{127 * BlockSize, 127*BlockSize - 1} {
		ciphertext, tags := aead.Seal(nil, nil, testNonce, pattern(n), nil)
		require.Len(t, tags, TagSize)

		modified := bytes.Clone(tags)
		modified[3] ^= 0x01
		_, err = aead.Open(nil, testNonce, ciphertext, modified, nil)
		require.ErrorIs(t, err, ErrIntermediateTagMismatch, "n=%d", n)
	}
}

func TestCOLM127TagsLength(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	ciphertext, tags := aead.Seal(nil, nil, testNonce, pattern(254*BlockSize), nil)

	_, err = aead.Open(nil, testNonce, ciphertext, tags[:TagSize], nil)
	require.ErrorIs(t, err, ErrInvalidTagsLength)

	_, err = aead.Open(nil, testNonce, ciphertext, append(bytes.Clone(tags), 0), nil)
	require.ErrorIs(t, err, ErrInvalidTagsLength)

	_, err = aead.Open(nil, testNonce, ciphertext[:100], tags, nil)
	require.ErrorIs(t, err, ErrInvalidTagsLength)
}

func TestCOLM127AppendToDst(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	plaintext := pattern(130 * BlockSize)
	wantCT, wantTags := aead.Seal(nil, nil, testNonce, plaintext, nil)

	ciphertext, tags := aead.Seal([]byte("c"), []byte("t"), testNonce, plaintext, nil)
	require.Equal(t, append([]byte("c"), wantCT...), ciphertext)
	require.Equal(t, append([]byte("t"), wantTags...), tags)
}

func TestInterleavedRoundTrip(t *testing.T) {
	ad := []byte("stream")

	for _, batched := range []bool{true, false} {
		aead, err := New127(testKey, WithBatching(batched))
		require.NoError(t, err)

		for _, n := range blockLengths() {
			plaintext := pattern(n)

			stream := aead.SealInterleaved(nil, testNonce, plaintext, ad)
			require.Len(t, stream, InterleavedSize(n))

			decrypted, err := aead.OpenInterleaved(nil, testNonce, stream, ad)
			require.NoError(t, err, "batched=%v n=%d", batched, n)
			require.True(t, bytes.Equal(plaintext, decrypted))
		}
	}
}

func TestInterleavedLayout(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	plaintext := pattern(300 * BlockSize)
	ciphertext, tags := aead.Seal(nil, nil, testNonce, plaintext, nil)
	stream := aead.SealInterleaved(nil, testNonce, plaintext, nil)

	want := append([]byte{}, ciphertext[:tagStride]...)
	want = append(want, tags[:TagSize]...)
	want = append(want, ciphertext[tagStride:2*tagStride]...)
	want = append(want, tags[TagSize:]...)
	want = append(want, ciphertext[2*tagStride:]...)
	require.Equal(t, want, stream)
}

func TestInterleavedTamper(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	stream := aead.SealInterleaved(nil, testNonce, pattern(200*BlockSize), nil)

	modified := bytes.Clone(stream)
	modified[tagStride] ^= 0x01
	_, err = aead.OpenInterleaved(nil, testNonce, modified, nil)
	require.ErrorIs(t, err, ErrIntermediateTagMismatch)

	modified = bytes.Clone(stream)
	modified[len(modified)-1] ^= 0x01
	_, err = aead.OpenInterleaved(nil, testNonce, modified, nil)
	require.ErrorIs(t, err, ErrTagMismatch)
}

func TestInterleavedInvalidSize(t *testing.T) {
	aead, err := New127(testKey)
	require.NoError(t, err)

	// 126 blocks give a 2032 byte stream and 127·16-15 bytes give 2049, so
	// nothing produces the sizes in between.
	require.Equal(t, 2032, InterleavedSize(126*BlockSize))
	require.Equal(t, 2049, InterleavedSize(127*BlockSize-15))

	for _, size := range []int{2033, 2040, 2048} {
		_, err = aead.OpenInterleaved(nil, testNonce, make([]byte, size), nil)
		require.ErrorIs(t, err, ErrInvalidTagsLength, "size %d", size)
	}

	_, err = aead.OpenInterleaved(nil, testNonce, make([]byte, TagSize-1), nil)
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func BenchmarkSeal127(b *testing.B) {
	aead, _ := New127(testKey)
	plaintext := make([]byte, 16384)

	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()

	for b.Loop() {
		aead.Seal(nil, nil, testNonce, plaintext, nil)
	}
}
