package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/op/go-logging.v1"

	"github.com/jedisct1/go-colm"
	"github.com/jedisct1/go-colm/internal/config"
	"github.com/jedisct1/go-colm/internal/envelope"
	"github.com/jedisct1/go-colm/internal/log"
)

const sealedSuffix = ".colm"

// codec is one COLM instantiation as used for envelope bodies.
type codec interface {
	seal(nonce, plaintext, ad []byte) []byte
	open(nonce, body, ad []byte) ([]byte, error)
}

type colm0Codec struct {
	aead *colm.COLM0
}

func (c colm0Codec) seal(nonce, plaintext, ad []byte) []byte {
	return c.aead.Seal(nil, nonce, plaintext, ad)
}

func (c colm0Codec) open(nonce, body, ad []byte) ([]byte, error) {
	return c.aead.Open(nil, nonce, body, ad)
}

// colm127Codec keeps the intermediate tags inline with the ciphertext.
type colm127Codec struct {
	aead *colm.COLM127
}

func (c colm127Codec) seal(nonce, plaintext, ad []byte) []byte {
	return c.aead.SealInterleaved(nil, nonce, plaintext, ad)
}

func (c colm127Codec) open(nonce, body, ad []byte) ([]byte, error) {
	return c.aead.OpenInterleaved(nil, nonce, body, ad)
}

type app struct {
	cfg        *config.Config
	logBackend *log.Backend
	log        *logging.Logger

	mode   envelope.Mode
	codecs map[envelope.Mode]codec
}

func newApp(configFile, module string) (*app, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
	}

	logBackend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, err
	}

	key, opts := cfg.Cipher.RawKey(), cfg.Cipher.Options()
	aead0, err := colm.New(key, opts...)
	if err != nil {
		logBackend.Close()
		return nil, err
	}
	aead127, err := colm.New127(key, opts...)
	if err != nil {
		logBackend.Close()
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logBackend: logBackend,
		log:        logBackend.GetLogger(module),
		mode:       envelope.ModeCOLM0,
		codecs: map[envelope.Mode]codec{
			envelope.ModeCOLM0:   colm0Codec{aead0},
			envelope.ModeCOLM127: colm127Codec{aead127},
		},
	}
	if cfg.Cipher.Mode == config.ModeCOLM127 {
		a.mode = envelope.ModeCOLM127
	}
	a.log.Debugf("mode %v, backend %s, batching %v", a.mode, cfg.Cipher.Backend, !cfg.Cipher.DisableBatching)

	return a, nil
}

func (a *app) Close() {
	a.logBackend.Close()
}

// forEach runs fn on every path, a bounded number at a time, and returns
// the first error.
func (a *app) forEach(ctx context.Context, paths []string, fn func(path string) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return fn(path)
		})
	}

	return g.Wait()
}

func (a *app) sealFile(path string, nonce []byte, ad string, force bool) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if nonce == nil {
		nonce = make([]byte, colm.NonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return err
		}
	}
	if ad == "" {
		ad = filepath.Base(path)
	}

	h := &envelope.Header{
		Version:        envelope.Version,
		Mode:           a.mode,
		Nonce:          nonce,
		AssociatedData: []byte(ad),
	}
	b, err := envelope.Marshal(h, a.codecs[a.mode].seal(nonce, plaintext, h.AssociatedData))
	if err != nil {
		return err
	}

	out := path + sealedSuffix
	if err := writeFile(out, b, force); err != nil {
		return err
	}

	a.log.Noticef("sealed %s (%d bytes, %v) to %s", path, len(plaintext), a.mode, out)
	return nil
}

func (a *app) openFile(path string, force bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	h, body, err := envelope.Unmarshal(b)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	plaintext, err := a.codecs[h.Mode].open(h.Nonce, body, h.AssociatedData)
	if err != nil {
		a.log.Errorf("%s: %v", path, err)
		return fmt.Errorf("%s: %w", path, err)
	}

	out := openedPath(path)
	if err := writeFile(out, plaintext, force); err != nil {
		return err
	}

	a.log.Noticef("opened %s (%d bytes, %v) to %s", path, len(plaintext), h.Mode, out)
	return nil
}

// openedPath strips the sealed suffix, or appends ".out" if there is none.
func openedPath(path string) string {
	if out, ok := strings.CutSuffix(path, sealedSuffix); ok && out != "" {
		return out
	}
	return path + ".out"
}

// writeFile writes data to a new file, refusing to replace an existing one
// unless force is set.
func writeFile(path string, data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
