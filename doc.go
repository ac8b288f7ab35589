/*
Package colm implements the COLM authenticated encryption mode over
AES-128.

COLM is a nonce-misuse resistant AEAD built from two layers of block
cipher calls around a linear mixing function. Reusing a nonce only leaks
whether two messages with the same key, nonce and associated data share a
common prefix of whole blocks.

Two instantiations are provided:
  - COLM0: a single 16 byte tag. Implements cipher.AEAD.
  - COLM127: additionally emits a 16 byte intermediate tag after every
    127 plaintext blocks, so a receiver can reject a tampered stream
    before the whole message has arrived.

Sizes:
  - Key: 16 bytes
  - Nonce: 8 bytes
  - Ciphertext: plaintext length + 16 bytes

Basic Usage:

	key := make([]byte, colm.KeySize)
	// Fill key with random bytes...

	aead, err := colm.New(key)
	if err != nil {
		panic(err)
	}

	nonce := make([]byte, colm.NonceSize)
	plaintext := []byte("secret message")
	ad := []byte("additional authenticated data")

	ciphertext := aead.Seal(nil, nonce, plaintext, ad)

	decrypted, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		panic("authentication failed")
	}

Intermediate Tags:

	aead, err := colm.New127(key)

	// Separate tag stream
	ciphertext, tags := aead.Seal(nil, nil, nonce, plaintext, ad)
	decrypted, err := aead.Open(nil, nonce, ciphertext, tags, ad)

	// Single stream, tags placed where they are produced
	stream := aead.SealInterleaved(nil, nonce, plaintext, ad)
	decrypted, err = aead.OpenInterleaved(nil, nonce, stream, ad)

By default the AES implementation is crypto/aes when the CPU has AES
instructions and a bitsliced constant time implementation otherwise; see
WithBackend. Messages are processed three blocks at a time unless
WithBatching(false) is given. Both settings leave the output unchanged.

Every authentication failure returned by Open wraps ErrOpen.
*/
package colm
