package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/op/go-logging.v1"

	"github.com/jedisct1/go-colm"
	"github.com/jedisct1/go-colm/internal/log"
)

var selftestLengths = []int{
	0, 1, 15, 16, 17, 47, 48, 49, 100, 1000,
	126 * colm.BlockSize, 127 * colm.BlockSize, 254*colm.BlockSize + 5,
}

var selftestBackends = []colm.Backend{
	colm.BackendRuntime,
	colm.BackendConstantTime,
	colm.BackendReference,
}

func newSelftestCommand() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Check every backend and engine against each other",
		Long: `Seal and open messages of assorted lengths with a random key on every
AES backend, with and without batching, in both COLM instantiations, and
check that all of them agree, round trip and reject tampering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := log.New("", level, false)
			if err != nil {
				return fmt.Errorf("invalid argument --log-level: %w", err)
			}
			defer backend.Close()

			l := backend.GetLogger("selftest")
			if err := runSelftest(cmd.Context(), l); err != nil {
				return err
			}
			l.Notice("all checks passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "log-level", "NOTICE", "logging level (DEBUG, INFO, NOTICE, WARNING, ERROR)")

	return cmd
}

// selftestCase is the expected output for one message.
type selftestCase struct {
	plaintext []byte
	sealed0   []byte
	sealed127 []byte
}

func runSelftest(ctx context.Context, l *logging.Logger) error {
	key := make([]byte, colm.KeySize)
	nonce := make([]byte, colm.NonceSize)
	ad := []byte("colm selftest")
	if _, err := rand.Read(key); err != nil {
		return err
	}
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	// The runtime backend without batching is the reference every other
	// combination must reproduce.
	ref0, err := colm.New(key, colm.WithBackend(colm.BackendRuntime), colm.WithBatching(false))
	if err != nil {
		return err
	}
	ref127, err := colm.New127(key, colm.WithBackend(colm.BackendRuntime), colm.WithBatching(false))
	if err != nil {
		return err
	}

	cases := make([]selftestCase, 0, len(selftestLengths))
	for _, n := range selftestLengths {
		plaintext := make([]byte, n)
		if _, err := rand.Read(plaintext); err != nil {
			return err
		}
		cases = append(cases, selftestCase{
			plaintext: plaintext,
			sealed0:   ref0.Seal(nil, nonce, plaintext, ad),
			sealed127: ref127.SealInterleaved(nil, nonce, plaintext, ad),
		})
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, b := range selftestBackends {
		for _, batched := range []bool{false, true} {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := checkCombination(key, nonce, ad, cases, b, batched); err != nil {
					l.Errorf("backend %v batched=%v: %v", b, batched, err)
					return fmt.Errorf("selftest: backend %v batched=%v: %w", b, batched, err)
				}
				l.Infof("backend %v batched=%v: ok", b, batched)
				return nil
			})
		}
	}

	return g.Wait()
}

var errSelftest = errors.New("mismatch")

func checkCombination(key, nonce, ad []byte, cases []selftestCase, b colm.Backend, batched bool) error {
	aead0, err := colm.New(key, colm.WithBackend(b), colm.WithBatching(batched))
	if err != nil {
		return err
	}
	aead127, err := colm.New127(key, colm.WithBackend(b), colm.WithBatching(batched))
	if err != nil {
		return err
	}

	for _, c := range cases {
		n := len(c.plaintext)

		sealed := aead0.Seal(nil, nonce, c.plaintext, ad)
		if !bytes.Equal(sealed, c.sealed0) {
			return fmt.Errorf("%w: colm0 ciphertext for %d bytes", errSelftest, n)
		}
		if err := checkOpen(aead0.Open, nonce, sealed, ad, c.plaintext); err != nil {
			return fmt.Errorf("colm0 %d bytes: %w", n, err)
		}

		sealed = aead127.SealInterleaved(nil, nonce, c.plaintext, ad)
		if !bytes.Equal(sealed, c.sealed127) {
			return fmt.Errorf("%w: colm127 stream for %d bytes", errSelftest, n)
		}
		if err := checkOpen(aead127.OpenInterleaved, nonce, sealed, ad, c.plaintext); err != nil {
			return fmt.Errorf("colm127 %d bytes: %w", n, err)
		}
	}

	return nil
}

type openFunc func(dst, nonce, ciphertext, ad []byte) ([]byte, error)

// checkOpen verifies that sealed opens to plaintext and that flipping its
// first and last bits is detected.
func checkOpen(open openFunc, nonce, sealed, ad, plaintext []byte) error {
	opened, err := open(nil, nonce, sealed, ad)
	if err != nil {
		return err
	}
	if !bytes.Equal(opened, plaintext) {
		return fmt.Errorf("%w: round trip", errSelftest)
	}

	for _, i := range []int{0, len(sealed) - 1} {
		tampered := bytes.Clone(sealed)
		tampered[i] ^= 0x01
		if _, err := open(nil, nonce, tampered, ad); !errors.Is(err, colm.ErrOpen) {
			return fmt.Errorf("%w: tampered byte %d accepted (%v)", errSelftest, i, err)
		}
	}

	return nil
}
