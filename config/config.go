// Package config loads image emission settings from yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pattyshack/nuthatch/backend"
	"github.com/pattyshack/nuthatch/backend/listing"
	"github.com/pattyshack/nuthatch/objwriter"
	"github.com/pattyshack/nuthatch/platform"
	"github.com/pattyshack/nuthatch/platform/amd64"
	"github.com/pattyshack/nuthatch/platform/m68k"
)

const (
	ListingBackend = "listing"
)

var backends = map[string]backend.Factory{
	ListingBackend: listing.NewBackend,
}

type Config struct {
	Architecture    platform.ArchitectureName    `yaml:"architecture"`
	OperatingSystem platform.OperatingSystemName `yaml:"os"`

	Backend string `yaml:"backend"`

	MultiUnit             bool     `yaml:"multi_unit"`
	CheckSymbolUniqueness bool     `yaml:"check_symbol_uniqueness"`
	FoldingExemptions     []string `yaml:"folding_exemptions"`

	// Log backend primitive calls to stderr.
	Trace bool `yaml:"trace"`
}

func Default() *Config {
	return &Config{
		Architecture:    platform.Amd64,
		OperatingSystem: platform.Linux,
		Backend:         ListingBackend,
	}
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Unset fields keep their default values.  Unknown fields are rejected.
func Parse(content []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	err := decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch cfg.OperatingSystem {
	case platform.Linux, platform.Darwin:
	default:
		return fmt.Errorf("unsupported operating system (%s)", cfg.OperatingSystem)
	}

	_, err := cfg.Platform()
	if err != nil {
		return err
	}

	_, ok := backends[cfg.Backend]
	if !ok {
		return fmt.Errorf("unsupported backend (%s)", cfg.Backend)
	}

	return nil
}

func (cfg *Config) Platform() (platform.Platform, error) {
	switch cfg.Architecture {
	case platform.Amd64:
		return amd64.NewPlatform(cfg.OperatingSystem), nil
	case platform.M68k:
		return m68k.NewPlatform(cfg.OperatingSystem), nil
	default:
		return nil, fmt.Errorf("unsupported architecture (%s)", cfg.Architecture)
	}
}

// trace is only used when the config enables tracing.
func (cfg *Config) Options(trace io.Writer) (objwriter.Options, error) {
	targetPlatform, err := cfg.Platform()
	if err != nil {
		return objwriter.Options{}, err
	}

	newBackend, ok := backends[cfg.Backend]
	if !ok {
		return objwriter.Options{}, fmt.Errorf(
			"unsupported backend (%s)",
			cfg.Backend)
	}

	options := objwriter.Options{
		Platform:              targetPlatform,
		NewBackend:            newBackend,
		MultiUnit:             cfg.MultiUnit,
		CheckSymbolUniqueness: cfg.CheckSymbolUniqueness,
		FoldingExemptions:     cfg.FoldingExemptions,
	}

	if cfg.Trace {
		options.Trace = trace
	}

	return options, nil
}
