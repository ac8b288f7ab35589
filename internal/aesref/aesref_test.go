package aesref

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestSbox(t *testing.T) {
	require.Equal(t, byte(0x63), sbox[0x00])
	require.Equal(t, byte(0x7c), sbox[0x01])
	require.Equal(t, byte(0x16), sbox[0xff])
	for x := 0; x < 256; x++ {
		require.Equal(t, byte(x), invSbox[sbox[x]])
	}
}

func TestExpandKeyFIPS197(t *testing.T) {
	// FIPS-197 Appendix A.1
	var key [KeySize]byte
	copy(key[:], mustDecodeHex("2b7e151628aed2a6abf7158809cf4f3c"))

	s := ExpandKey(&key)
	require.Equal(t, key[:], s[0][:])
	require.Equal(t, mustDecodeHex("a0fafe1788542cb123a339392a6c7605"), s[1][:])
	require.Equal(t, mustDecodeHex("d014f9a8c9ee2589e13f0cc8b6630ca6"), s[Rounds][:])
}

func TestDecryptionSchedule(t *testing.T) {
	var key [KeySize]byte
	copy(key[:], mustDecodeHex("2b7e151628aed2a6abf7158809cf4f3c"))

	enc := ExpandKey(&key)
	dec := DecryptionSchedule(&enc)

	require.Equal(t, enc[0], dec[0])
	require.Equal(t, enc[Rounds], dec[Rounds])
	for r := 1; r < Rounds; r++ {
		k := dec[r]
		mixColumns(&k)
		require.Equal(t, enc[r], k, "round %d", r)
	}
}

func TestCipherFIPS197(t *testing.T) {
	// FIPS-197 Appendix C.1
	c, err := New(mustDecodeHex("000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, err)

	var b [BlockSize]byte
	copy(b[:], mustDecodeHex("00112233445566778899aabbccddeeff"))

	c.Encrypt(&b)
	require.Equal(t, mustDecodeHex("69c4e0d86a7b0430d8cdb78070b4c55a"), b[:])

	c.Decrypt(&b)
	require.Equal(t, mustDecodeHex("00112233445566778899aabbccddeeff"), b[:])
}

func TestCipherMatchesRuntime(t *testing.T) {
	for i := 0; i < 32; i++ {
		key := make([]byte, KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)

		ref, err := New(key)
		require.NoError(t, err)
		rt, err := aes.NewCipher(key)
		require.NoError(t, err)

		var b, want [BlockSize]byte
		_, err = rand.Read(b[:])
		require.NoError(t, err)

		rt.Encrypt(want[:], b[:])
		got := b
		ref.Encrypt(&got)
		require.Equal(t, want, got)

		rt.Decrypt(want[:], b[:])
		got = b
		ref.Decrypt(&got)
		require.Equal(t, want, got)
	}
}

func TestThreeWide(t *testing.T) {
	c, err := New(mustDecodeHex("000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, err)

	var blocks [3][BlockSize]byte
	for j := range blocks {
		_, err = rand.Read(blocks[j][:])
		require.NoError(t, err)
	}

	want := blocks
	for j := range want {
		c.Encrypt(&want[j])
	}
	got := blocks
	c.Encrypt3(&got)
	require.Equal(t, want, got)

	c.Decrypt3(&got)
	require.Equal(t, blocks, got)
}

func TestInvalidKeySize(t *testing.T) {
	for _, n := range []int{0, 15, 17, 24, 32} {
		_, err := New(make([]byte, n))
		require.ErrorIs(t, err, ErrInvalidKeySize)
	}
}

func BenchmarkEncrypt(b *testing.B) {
	c, _ := New(make([]byte, KeySize))
	var blk [BlockSize]byte
	b.SetBytes(BlockSize)
	for b.Loop() {
		c.Encrypt(&blk)
	}
}

func BenchmarkEncrypt3(b *testing.B) {
	c, _ := New(make([]byte, KeySize))
	var blks [3][BlockSize]byte
	b.SetBytes(3 * BlockSize)
	for b.Loop() {
		c.Encrypt3(&blks)
	}
}
