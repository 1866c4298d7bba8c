package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read loads and validates a JSON5 config file.
func Read(filePath string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open config file %q", filePath)
	}
	defer func() {
		_ = f.Close()
	}()
	return FromReader(f)
}

// FromReader parses and validates a JSON5 config. Comments, trailing commas and unquoted keys
// are allowed.
func FromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config")
	}
	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse config as json5")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
