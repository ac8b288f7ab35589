// Package envelope implements the on-disk format of files sealed by the
// colm tool: a magic string, a CBOR header and the sealed body.
package envelope

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/jedisct1/go-colm"
)

// Version is the current envelope version.
const Version = 1

// Magic prefixes every envelope.
var Magic = []byte("COLM")

// Mode is the COLM instantiation a body was sealed with.
type Mode uint8

const (
	// ModeCOLM0 bodies are a COLM0 ciphertext.
	ModeCOLM0 Mode = iota

	// ModeCOLM127 bodies are an interleaved COLM127 stream.
	ModeCOLM127
)

func (m Mode) String() string {
	switch m {
	case ModeCOLM0:
		return "colm0"
	case ModeCOLM127:
		return "colm127"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

var (
	// ErrBadMagic is returned when the input is not an envelope.
	ErrBadMagic = errors.New("envelope: bad magic")

	// ErrUnsupportedVersion is returned for unknown envelope versions.
	ErrUnsupportedVersion = errors.New("envelope: unsupported version")

	// ErrInvalidHeader is returned for structurally invalid headers.
	ErrInvalidHeader = errors.New("envelope: invalid header")
)

// Header is the authenticated-in-the-clear part of an envelope. The
// associated data is bound to the body by the cipher.
type Header struct {
	Version        uint8
	Mode           Mode
	Nonce          []byte
	AssociatedData []byte
}

// Validate returns nil if the header is well formed.
func (h *Header) Validate() error {
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	switch h.Mode {
	case ModeCOLM0, ModeCOLM127:
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidHeader, h.Mode)
	}
	if len(h.Nonce) != colm.NonceSize {
		return fmt.Errorf("%w: nonce is %d bytes", ErrInvalidHeader, len(h.Nonce))
	}
	return nil
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal serializes h followed by body.
func Marshal(h *Header, body []byte) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	hdr, err := encMode.Marshal(h)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(Magic)+len(hdr)+len(body))
	out = append(out, Magic...)
	out = append(out, hdr...)
	return append(out, body...), nil
}

// Unmarshal parses an envelope, returning its validated header and the
// body, which aliases b.
func Unmarshal(b []byte) (*Header, []byte, error) {
	if !bytes.HasPrefix(b, Magic) {
		return nil, nil, ErrBadMagic
	}

	h := new(Header)
	body, err := decMode.UnmarshalFirst(b[len(Magic):], h)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}

	return h, body, nil
}
