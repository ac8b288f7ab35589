package colm

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"gitlab.com/yawning/bsaes.git"
	"golang.org/x/sys/cpu"

	"github.com/jedisct1/go-colm/internal/aesref"
)

// BlockCipher is the 128-bit block cipher COLM is instantiated with.
// All methods transform their argument in place. The three-block forms
// operate on independent blocks and may interleave their rounds.
type BlockCipher interface {
	Encrypt(b *[BlockSize]byte)
	Decrypt(b *[BlockSize]byte)
	Encrypt3(b *[3][BlockSize]byte)
	Decrypt3(b *[3][BlockSize]byte)
}

// Backend selects the AES implementation used by New and New127.
type Backend int

const (
	// BackendAuto uses the runtime AES when the CPU has AES instructions
	// and the constant time bitsliced AES otherwise.
	BackendAuto Backend = iota

	// BackendRuntime uses crypto/aes. Its three-block forms are three
	// sequential single-block calls.
	BackendRuntime

	// BackendConstantTime uses the bitsliced AES from bsaes. Its
	// three-block forms are three sequential single-block calls.
	BackendConstantTime

	// BackendReference uses the portable reference AES with explicit
	// round-key schedules. It is slow and not constant time. It is the
	// only backend whose three-block forms interleave the rounds of the
	// three blocks.
	BackendReference
)

var backendNames = map[Backend]string{
	BackendAuto:         "auto",
	BackendRuntime:      "runtime",
	BackendConstantTime: "constanttime",
	BackendReference:    "reference",
}

// String returns the configuration name of the backend.
func (b Backend) String() string {
	if s, ok := backendNames[b]; ok {
		return s
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend returns the backend named s.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(s)
	for b, name := range backendNames {
		if name == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("colm: unknown backend %q", s)
}

// HardwareAccelerated returns true iff the CPU provides AES instructions
// that crypto/aes will use.
func HardwareAccelerated() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES || cpu.S390X.HasAES
}

// NewBlockCipher returns the AES-128 BlockCipher for key on the given
// backend.
func NewBlockCipher(backend Backend, key []byte) (BlockCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	switch backend {
	case BackendAuto:
		if HardwareAccelerated() {
			return NewBlockCipher(BackendRuntime, key)
		}
		return NewBlockCipher(BackendConstantTime, key)
	case BackendRuntime:
		b, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return &blockAdapter{b: b}, nil
	case BackendConstantTime:
		b, err := bsaes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return &blockAdapter{b: b}, nil
	case BackendReference:
		c, err := aesref.New(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("colm: unknown backend %d", int(backend))
	}
}

// blockAdapter lifts a cipher.Block to a BlockCipher. The three-block
// forms are three sequential calls.
type blockAdapter struct {
	b cipher.Block
}

func (a *blockAdapter) Encrypt(b *[BlockSize]byte) {
	a.b.Encrypt(b[:], b[:])
}

func (a *blockAdapter) Decrypt(b *[BlockSize]byte) {
	a.b.Decrypt(b[:], b[:])
}

func (a *blockAdapter) Encrypt3(b *[3][BlockSize]byte) {
	a.b.Encrypt(b[0][:], b[0][:])
	a.b.Encrypt(b[1][:], b[1][:])
	a.b.Encrypt(b[2][:], b[2][:])
}

func (a *blockAdapter) Decrypt3(b *[3][BlockSize]byte) {
	a.b.Decrypt(b[0][:], b[0][:])
	a.b.Decrypt(b[1][:], b[1][:])
	a.b.Decrypt(b[2][:], b[2][:])
}

// fieldCipher runs a BlockCipher on field elements. Blocks are passed to
// the cipher in wire form and converted back afterwards.
type fieldCipher struct {
	c BlockCipher
}

func (f fieldCipher) Encrypt(b *block) {
	*b = swap(*b)
	f.c.Encrypt(b)
	*b = swap(*b)
}

func (f fieldCipher) Decrypt(b *block) {
	*b = swap(*b)
	f.c.Decrypt(b)
	*b = swap(*b)
}

func (f fieldCipher) Encrypt3(b *[3]block) {
	swap3(b)
	f.c.Encrypt3(b)
	swap3(b)
}

func (f fieldCipher) Decrypt3(b *[3]block) {
	swap3(b)
	f.c.Decrypt3(b)
	swap3(b)
}

func swap3(b *[3]block) {
	for j := range b {
		b[j] = swap(b[j])
	}
}
