// Package aesref is a portable, byte oriented reference AES-128 with explicit
// round-key schedules.
//
// It exists so the COLM engines can be checked against a block cipher
// whose key schedule and round structure are fully visible: the
// encryption schedule is the FIPS-197 expansion into 11 round keys and
// the decryption schedule is derived from it for the equivalent inverse
// cipher (interior keys passed through InvMixColumns, first and last
// reused unchanged). The three-block forms run the rounds of three
// independent blocks interleaved, the way a pipelined hardware
// implementation would issue them.
//
// This implementation is not constant time.
package aesref

import (
	"crypto/aes"
	"errors"
)

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = aes.BlockSize

	// KeySize is the AES-128 key size in bytes.
	KeySize = 16

	// Rounds is the number of AES-128 rounds.
	Rounds = 10
)

// ErrInvalidKeySize is returned when the key is not 16 bytes.
var ErrInvalidKeySize = errors.New("aesref: invalid key size")

// Schedule is an AES-128 round-key schedule: the initial key followed by
// the 10 round keys.
type Schedule [Rounds + 1][BlockSize]byte

var rcon = [Rounds]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

// ExpandKey returns the encryption schedule for key.
func ExpandKey(key *[KeySize]byte) Schedule {
	var s Schedule
	copy(s[0][:], key[:])

	for r := 1; r <= Rounds; r++ {
		prev, cur := &s[r-1], &s[r]

		// SubWord(RotWord(w[i-1])) ^ Rcon
		t := [4]byte{sbox[prev[13]], sbox[prev[14]], sbox[prev[15]], sbox[prev[12]]}
		t[0] ^= rcon[r-1]

		for i := 0; i < 4; i++ {
			cur[i] = prev[i] ^ t[i]
		}
		for i := 4; i < BlockSize; i++ {
			cur[i] = prev[i] ^ cur[i-4]
		}
	}

	return s
}

// DecryptionSchedule derives the equivalent inverse cipher schedule from
// an encryption schedule.
func DecryptionSchedule(enc *Schedule) Schedule {
	dec := *enc
	for r := 1; r < Rounds; r++ {
		invMixColumns(&dec[r])
	}
	return dec
}

// Cipher is AES-128 under a fixed key.
type Cipher struct {
	enc Schedule
	dec Schedule
}

// New returns a Cipher for the 16 byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	c := new(Cipher)
	c.enc = ExpandKey((*[KeySize]byte)(key))
	c.dec = DecryptionSchedule(&c.enc)
	return c, nil
}

// Encrypt encrypts one block in place.
func (c *Cipher) Encrypt(b *[BlockSize]byte) {
	addRoundKey(b, &c.enc[0])
	for r := 1; r < Rounds; r++ {
		encRound(b, &c.enc[r])
	}
	encFinalRound(b, &c.enc[Rounds])
}

// Decrypt decrypts one block in place.
func (c *Cipher) Decrypt(b *[BlockSize]byte) {
	addRoundKey(b, &c.dec[Rounds])
	for r := Rounds - 1; r >= 1; r-- {
		decRound(b, &c.dec[r])
	}
	decFinalRound(b, &c.dec[0])
}

// Encrypt3 encrypts three independent blocks in place, one round at a
// time across all three.
func (c *Cipher) Encrypt3(b *[3][BlockSize]byte) {
	for j := range b {
		addRoundKey(&b[j], &c.enc[0])
	}
	for r := 1; r < Rounds; r++ {
		for j := range b {
			encRound(&b[j], &c.enc[r])
		}
	}
	for j := range b {
		encFinalRound(&b[j], &c.enc[Rounds])
	}
}

// Decrypt3 decrypts three independent blocks in place.
func (c *Cipher) Decrypt3(b *[3][BlockSize]byte) {
	for j := range b {
		addRoundKey(&b[j], &c.dec[Rounds])
	}
	for r := Rounds - 1; r >= 1; r-- {
		for j := range b {
			decRound(&b[j], &c.dec[r])
		}
	}
	for j := range b {
		decFinalRound(&b[j], &c.dec[0])
	}
}

func encRound(s, k *[BlockSize]byte) {
	subBytes(s)
	shiftRows(s)
	mixColumns(s)
	addRoundKey(s, k)
}

func encFinalRound(s, k *[BlockSize]byte) {
	subBytes(s)
	shiftRows(s)
	addRoundKey(s, k)
}

func decRound(s, k *[BlockSize]byte) {
	invSubBytes(s)
	invShiftRows(s)
	invMixColumns(s)
	addRoundKey(s, k)
}

func decFinalRound(s, k *[BlockSize]byte) {
	invSubBytes(s)
	invShiftRows(s)
	addRoundKey(s, k)
}

func addRoundKey(s, k *[BlockSize]byte) {
	for i := range s {
		s[i] ^= k[i]
	}
}

func subBytes(s *[BlockSize]byte) {
	for i := range s {
		s[i] = sbox[s[i]]
	}
}

func invSubBytes(s *[BlockSize]byte) {
	for i := range s {
		s[i] = invSbox[s[i]]
	}
}

// The state is column major: byte i is row i%4 of column i/4.

func shiftRows(s *[BlockSize]byte) {
	t := *s
	for c := 0; c < 4; c++ {
		for r := 1; r < 4; r++ {
			s[r+4*c] = t[r+4*((c+r)%4)]
		}
	}
}

func invShiftRows(s *[BlockSize]byte) {
	t := *s
	for c := 0; c < 4; c++ {
		for r := 1; r < 4; r++ {
			s[r+4*((c+r)%4)] = t[r+4*c]
		}
	}
}

func mixColumns(s *[BlockSize]byte) {
	for c := 0; c < BlockSize; c += 4 {
		a0, a1, a2, a3 := s[c], s[c+1], s[c+2], s[c+3]
		s[c] = mul(a0, 2) ^ mul(a1, 3) ^ a2 ^ a3
		s[c+1] = a0 ^ mul(a1, 2) ^ mul(a2, 3) ^ a3
		s[c+2] = a0 ^ a1 ^ mul(a2, 2) ^ mul(a3, 3)
		s[c+3] = mul(a0, 3) ^ a1 ^ a2 ^ mul(a3, 2)
	}
}

func invMixColumns(s *[BlockSize]byte) {
	for c := 0; c < BlockSize; c += 4 {
		a0, a1, a2, a3 := s[c], s[c+1], s[c+2], s[c+3]
		s[c] = mul(a0, 14) ^ mul(a1, 11) ^ mul(a2, 13) ^ mul(a3, 9)
		s[c+1] = mul(a0, 9) ^ mul(a1, 14) ^ mul(a2, 11) ^ mul(a3, 13)
		s[c+2] = mul(a0, 13) ^ mul(a1, 9) ^ mul(a2, 14) ^ mul(a3, 11)
		s[c+3] = mul(a0, 11) ^ mul(a1, 13) ^ mul(a2, 9) ^ mul(a3, 14)
	}
}
