package colm

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const (
	// KeySize is the size of a COLM key in bytes (AES-128).
	KeySize = 16

	// NonceSize is the size of the public message number in bytes.
	NonceSize = 8

	// BlockSize is the block size of the underlying cipher in bytes.
	BlockSize = aes.BlockSize

	// TagSize is the ciphertext expansion, and the size of each
	// intermediate tag, in bytes.
	TagSize = BlockSize

	// TagInterval is the number of plaintext blocks between two COLM127
	// intermediate tags.
	TagInterval = 127
)

var (
	// ErrInvalidKeySize is returned when the key size is not valid.
	ErrInvalidKeySize = errors.New("colm: invalid key size")

	// ErrCiphertextTooShort is returned when the ciphertext is shorter
	// than one block.
	ErrCiphertextTooShort = errors.New("colm: ciphertext too short")

	// ErrInvalidTagsLength is returned when a COLM127 intermediate tag
	// stream does not hold exactly one tag per 127 message blocks.
	ErrInvalidTagsLength = errors.New("colm: invalid intermediate tags length")

	// ErrOpen is returned when decryption fails (authentication error).
	// Every more specific authentication error below wraps it.
	ErrOpen = errors.New("colm: message authentication failed")

	// ErrTagMismatch is returned when the final tag does not verify.
	// An empty message has no tag bytes beyond its single ciphertext
	// block, so any change to it is reported as ErrBadPaddingMarker or
	// ErrBadPaddingTail instead.
	ErrTagMismatch = fmt.Errorf("%w: tag mismatch", ErrOpen)

	// ErrBadPaddingMarker is returned when a partial final block does not
	// carry the 0x80 padding marker.
	ErrBadPaddingMarker = fmt.Errorf("%w: bad padding marker", ErrOpen)

	// ErrBadPaddingTail is returned when the bytes after the padding
	// marker are not zero.
	ErrBadPaddingTail = fmt.Errorf("%w: bad padding", ErrOpen)

	// ErrIntermediateTagMismatch is returned when a COLM127 intermediate
	// tag does not verify.
	ErrIntermediateTagMismatch = fmt.Errorf("%w: intermediate tag mismatch", ErrOpen)
)

// Option configures New and New127.
type Option func(*options)

type options struct {
	backend Backend
	batched bool
}

func defaultOptions() options {
	return options{
		backend: BackendAuto,
		batched: true,
	}
}

// WithBackend selects the AES implementation. The default is BackendAuto.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBatching selects between the three-blocks-at-a-time engine (the
// default) and the one-block-at-a-time engine. Both produce identical
// output.
func WithBatching(enabled bool) Option {
	return func(o *options) {
		o.batched = enabled
	}
}

func newEngine(key []byte, param *[BlockSize - NonceSize]byte, interval int, opts []Option) (*engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c, err := NewBlockCipher(o.backend, key)
	if err != nil {
		return nil, err
	}

	return &engine{
		c:        fieldCipher{c: c},
		param:    param,
		interval: interval,
		batched:  o.batched,
	}, nil
}

func newEngineWithBlockCipher(c BlockCipher, param *[BlockSize - NonceSize]byte, interval int, opts []Option) *engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &engine{
		c:        fieldCipher{c: c},
		param:    param,
		interval: interval,
		batched:  o.batched,
	}
}

// COLM0 implements COLM with a single trailing tag.
// It implements the cipher.AEAD interface.
type COLM0 struct {
	e *engine
}

var _ cipher.AEAD = (*COLM0)(nil)

// New creates a new COLM0 instance with the given 16 byte key.
func New(key []byte, opts ...Option) (*COLM0, error) {
	e, err := newEngine(key, &colm0Param, 0, opts)
	if err != nil {
		return nil, err
	}
	return &COLM0{e: e}, nil
}

// NewWithBlockCipher creates a COLM0 instance over a caller supplied
// block cipher. WithBackend has no effect here.
func NewWithBlockCipher(c BlockCipher, opts ...Option) *COLM0 {
	return &COLM0{e: newEngineWithBlockCipher(c, &colm0Param, 0, opts)}
}

// Seal encrypts and authenticates plaintext with the given nonce and
// additional data, and appends the result to dst. The ciphertext is
// TagSize bytes longer than the plaintext.
func (c *COLM0) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != NonceSize {
		panic("colm: incorrect nonce length given to COLM0")
	}

	ret, out := sliceForAppend(dst, len(plaintext)+TagSize)
	c.e.seal(out, nil, nonce, plaintext, additionalData)
	return ret
}

// Open decrypts and authenticates ciphertext, and appends the plaintext
// to dst. Nothing is appended, and the space used in dst is zeroed, if
// authentication fails.
func (c *COLM0) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		panic("colm: incorrect nonce length given to COLM0")
	}
	if len(ciphertext) < TagSize {
		return nil, ErrCiphertextTooShort
	}

	ret, out := sliceForAppend(dst, len(ciphertext)-TagSize)
	if err := c.e.open(out, nil, nonce, ciphertext, additionalData); err != nil {
		clear(out)
		return nil, err
	}

	return ret, nil
}

// NonceSize returns the nonce size in bytes.
func (c *COLM0) NonceSize() int {
	return NonceSize
}

// Overhead returns the difference between plaintext and ciphertext
// lengths.
func (c *COLM0) Overhead() int {
	return TagSize
}

// COLM127 implements COLM with an intermediate tag after every 127
// plaintext blocks, in addition to the trailing tag.
//
// Seal and Open keep the intermediate tags in a stream separate from the
// ciphertext. SealInterleaved and OpenInterleaved carry them inline.
type COLM127 struct {
	e *engine
}

// New127 creates a new COLM127 instance with the given 16 byte key.
func New127(key []byte, opts ...Option) (*COLM127, error) {
	e, err := newEngine(key, &colm127Param, TagInterval, opts)
	if err != nil {
		return nil, err
	}
	return &COLM127{e: e}, nil
}

// New127WithBlockCipher creates a COLM127 instance over a caller
// supplied block cipher. WithBackend has no effect here.
func New127WithBlockCipher(c BlockCipher, opts ...Option) *COLM127 {
	return &COLM127{e: newEngineWithBlockCipher(c, &colm127Param, TagInterval, opts)}
}

// IntermediateTagCount returns the number of COLM127 intermediate tags
// produced for a plaintext of plaintextLen bytes.
func IntermediateTagCount(plaintextLen int) int {
	return tagCount(TagInterval, plaintextLen)
}

// Seal encrypts and authenticates plaintext, appending the ciphertext
// (TagSize bytes longer than plaintext) to dst and the intermediate tags
// to tagDst.
func (c *COLM127) Seal(dst, tagDst, nonce, plaintext, additionalData []byte) (ciphertext, tags []byte) {
	if len(nonce) != NonceSize {
		panic("colm: incorrect nonce length given to COLM127")
	}

	ret, out := sliceForAppend(dst, len(plaintext)+TagSize)
	tagRet, tagOut := sliceForAppend(tagDst, IntermediateTagCount(len(plaintext))*TagSize)
	c.e.seal(out, tagOut, nonce, plaintext, additionalData)
	return ret, tagRet
}

// Open decrypts and authenticates ciphertext against its intermediate
// tags, and appends the plaintext to dst. Nothing is appended, and the
// space used in dst is zeroed, if authentication fails.
func (c *COLM127) Open(dst, nonce, ciphertext, tags, additionalData []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		panic("colm: incorrect nonce length given to COLM127")
	}
	if len(ciphertext) < TagSize {
		return nil, ErrCiphertextTooShort
	}

	n := len(ciphertext) - TagSize
	if len(tags) != IntermediateTagCount(n)*TagSize {
		return nil, ErrInvalidTagsLength
	}

	ret, out := sliceForAppend(dst, n)
	if err := c.e.open(out, tags, nonce, ciphertext, additionalData); err != nil {
		clear(out)
		return nil, err
	}

	return ret, nil
}

// NonceSize returns the nonce size in bytes.
func (c *COLM127) NonceSize() int {
	return NonceSize
}

// Overhead returns the difference between plaintext and ciphertext
// lengths, not counting intermediate tags.
func (c *COLM127) Overhead() int {
	return TagSize
}

// sliceForAppend extends the input slice to accommodate n more bytes.
// Returns the extended slice and the n-byte slice to write to.
func sliceForAppend(in []byte, n int) (head, tail []byte) {
	if total := len(in) + n; cap(in) >= total {
		head = in[:total]
	} else {
		head = make([]byte, total)
		copy(head, in)
	}
	tail = head[len(in):]
	return
}
