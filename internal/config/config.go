// Package config implements the configuration of the colm tool.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jedisct1/go-colm"
)

const (
	// ModeCOLM0 selects COLM with a single trailing tag.
	ModeCOLM0 = "colm0"

	// ModeCOLM127 selects COLM with intermediate tags.
	ModeCOLM127 = "colm127"

	defaultMode     = ModeCOLM0
	defaultLogLevel = "NOTICE"
)

var defaultLogging = Logging{
	Disable: false,
	File:    "",
	Level:   defaultLogLevel,
}

// Cipher is the cipher configuration.
type Cipher struct {
	// Key is the hex encoded 16 byte key.
	Key string

	// KeyFile is a file holding the raw 16 byte key. It is used when Key
	// is empty.
	KeyFile string

	// Mode is ModeCOLM0 or ModeCOLM127.
	Mode string

	// Backend is the AES implementation, one of auto, runtime,
	// constanttime or reference.
	Backend string

	// DisableBatching forces the one-block-at-a-time engine.
	DisableBatching bool

	key     []byte
	backend colm.Backend
}

func (cCfg *Cipher) validate() error {
	var err error
	switch {
	case cCfg.Key != "":
		if cCfg.key, err = hex.DecodeString(cCfg.Key); err != nil {
			return fmt.Errorf("config: Cipher: Key is not valid hex: %w", err)
		}
	case cCfg.KeyFile != "":
		if cCfg.key, err = os.ReadFile(cCfg.KeyFile); err != nil {
			return fmt.Errorf("config: Cipher: failed to read KeyFile: %w", err)
		}
	default:
		return errors.New("config: Cipher: neither Key nor KeyFile is set")
	}
	if len(cCfg.key) != colm.KeySize {
		return fmt.Errorf("config: Cipher: key is %d bytes, want %d", len(cCfg.key), colm.KeySize)
	}

	cCfg.Mode = strings.ToLower(cCfg.Mode)
	switch cCfg.Mode {
	case ModeCOLM0, ModeCOLM127:
	case "":
		cCfg.Mode = defaultMode
	default:
		return fmt.Errorf("config: Cipher: Mode '%v' is invalid", cCfg.Mode)
	}

	if cCfg.Backend == "" {
		cCfg.Backend = colm.BackendAuto.String()
	}
	if cCfg.backend, err = colm.ParseBackend(cCfg.Backend); err != nil {
		return fmt.Errorf("config: Cipher: %w", err)
	}

	return nil
}

// RawKey returns the decoded key. It is only valid after
// FixupAndValidate.
func (cCfg *Cipher) RawKey() []byte {
	return cCfg.key
}

// Options returns the colm options selected by the configuration.
func (cCfg *Cipher) Options() []colm.Option {
	return []colm.Option{
		colm.WithBackend(cCfg.backend),
		colm.WithBatching(!cCfg.DisableBatching),
	}
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stderr will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// Config is the top level colm tool configuration.
type Config struct {
	Cipher  *Cipher
	Logging *Logging
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration. Most people should call one of the Load variants
// instead.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Cipher == nil {
		return errors.New("config: No Cipher block was present")
	}
	if cfg.Logging == nil {
		l := defaultLogging
		cfg.Logging = &l
	}

	if err := cfg.Cipher.validate(); err != nil {
		return err
	}
	return cfg.Logging.validate()
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("config: no nil buffer as config file")
	}

	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
