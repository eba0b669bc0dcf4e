// Package config loads the YAML configuration shared by the ggl command and scripts.
//
// Config file locations (priority order):
//  1. $GGL_CONFIG
//  2. ./ggl.yaml
//  3. ~/.config/ggl/config.yaml
package config

import (
	"os"
	"path/filepath"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig     `yaml:"log"`
	Match    MatchConfig   `yaml:"match"`
	Apply    ApplyConfig   `yaml:"apply"`
	Expand   ExpandConfig  `yaml:"expand"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Ledger   LedgerConfig  `yaml:"ledger"`
	Rules    []string      `yaml:"rules"` // doublestar globs of YAML rule files
	Wildcard *string       `yaml:"wildcard,omitempty"`
}

type LogConfig struct {
	Verbosity int  `yaml:"verbosity"`
	Color     bool `yaml:"color"`
}

type MatchConfig struct {
	MaxHits    int    `yaml:"max_hits"`
	Symmetry   *bool  `yaml:"symmetry,omitempty"`
	Components string `yaml:"components"` // "injective" or "independent"
}

type ApplyConfig struct {
	DistinctTargets bool `yaml:"distinct_targets"`
	Parallel        bool `yaml:"parallel"`
}

type ExpandConfig struct {
	MaxRounds int `yaml:"max_rounds"`
	MaxGraphs int `yaml:"max_graphs"`
}

type CatalogConfig struct {
	Path     string `yaml:"path"` // omit for in-memory
	ReadOnly bool   `yaml:"read_only"`
}

type LedgerConfig struct {
	Path string `yaml:"path"` // omit to disable the ledger
}

const (
	ComponentsInjective   = "injective"
	ComponentsIndependent = "independent"
)

// FindConfigPath returns the first config file found, or "" if there is none.
func FindConfigPath() string {
	if path := os.Getenv("GGL_CONFIG"); path != "" {
		return path
	}
	candidates := []string{"ggl.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "ggl", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load finds and loads the config file, or returns defaults if none is found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	return cfg, path, err
}

// Parse reads a config from a YAML document, applying defaults to fields it omits.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(ggl.ErrBadConfig, err.Error())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the defaults used when no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Match.Symmetry == nil {
		symmetry := true
		c.Match.Symmetry = &symmetry
	}
	if c.Match.Components == "" {
		c.Match.Components = ComponentsInjective
	}
	if c.Wildcard == nil {
		wildcard := ggl.DefaultWildcard
		c.Wildcard = &wildcard
	}
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.Match.MaxHits < 0:
		return errors.Wrapf(ggl.ErrBadConfig, "match.max_hits = %d", c.Match.MaxHits)
	case c.Match.Components != ComponentsInjective && c.Match.Components != ComponentsIndependent:
		return errors.Wrapf(ggl.ErrBadConfig, "match.components = %q", c.Match.Components)
	case c.Expand.MaxRounds < 0:
		return errors.Wrapf(ggl.ErrBadConfig, "expand.max_rounds = %d", c.Expand.MaxRounds)
	case c.Expand.MaxGraphs < 0:
		return errors.Wrapf(ggl.ErrBadConfig, "expand.max_graphs = %d", c.Expand.MaxGraphs)
	case c.Catalog.ReadOnly && c.Catalog.Path == "":
		return errors.Wrap(ggl.ErrBadConfig, "catalog.read_only requires catalog.path")
	}
	return nil
}

func (c *Config) MatchOpts() libggl.MatchOpts {
	opts := libggl.MatchOpts{
		MaxHits: c.Match.MaxHits,
	}
	if c.Match.Components == ComponentsIndependent {
		opts.Components = libggl.ComponentsIndependent
	}
	return opts
}

func (c *Config) ApplyOpts() libggl.ApplyOpts {
	return libggl.ApplyOpts{
		Match:                  c.MatchOpts(),
		Symmetry:               *c.Match.Symmetry,
		RequireDistinctTargets: c.Apply.DistinctTargets,
	}
}

func (c *Config) ExpandOpts() libggl.ExpandOpts {
	return libggl.ExpandOpts{
		MaxRounds: c.Expand.MaxRounds,
		MaxGraphs: c.Expand.MaxGraphs,
	}
}

func (c *Config) CatalogOpts() ggl.CatalogOpts {
	return ggl.CatalogOpts{
		DbPathName: c.Catalog.Path,
		ReadOnly:   c.Catalog.ReadOnly,
	}
}

// LoadRules reads the rules named by c.Rules.  A configured wildcard other than ggl.DefaultWildcard replaces each rule's own.
func (c *Config) LoadRules() ([]*libggl.Rule, error) {
	if len(c.Rules) == 0 {
		return nil, nil
	}
	rules, err := libggl.LoadRuleFiles(c.Rules...)
	if err != nil || c.Wildcard == nil || *c.Wildcard == ggl.DefaultWildcard {
		return rules, err
	}
	for i, r := range rules {
		def := r.Def()
		def.Wildcard = *c.Wildcard
		if rules[i], err = libggl.NewRule(def); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
