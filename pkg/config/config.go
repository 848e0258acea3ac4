// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/action"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

// Record variants
const (
	VariantPlain      = "plain"
	VariantPersistent = "persistent"
)

// Remote kinds
const (
	RemoteMemory = "memory"
	RemoteGitHub = "github"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var parsers []Parser

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🌐 Remote selects the service client
type Remote struct {
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Repo string `json:"repo,omitempty" yaml:"repo,omitempty"`
}

// 🗺️ ServiceEntry is a path with an optional alias. It decodes from either a
// bare string or a {path, alias} object.
type ServiceEntry struct {
	Path  string `json:"path" yaml:"path"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// 🎬 Step is one call of a script
type Step struct {
	Service  string         `json:"service" yaml:"service"`
	Method   string         `json:"method" yaml:"method"`
	ID       any            `json:"id,omitempty" yaml:"id,omitempty"`
	Data     any            `json:"data,omitempty" yaml:"data,omitempty"`
	Query    map[string]any `json:"query,omitempty" yaml:"query,omitempty"`
	Parallel bool           `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// Params builds the call params from the step's query
func (s Step) Params() service.Params {
	if s.Query == nil {
		return nil
	}
	return service.Params{"query": s.Query}
}

// 📚 Config represents the complete configuration
type Config struct {
	Variant  string                      `json:"variant,omitempty" yaml:"variant,omitempty"`
	Remote   Remote                      `json:"remote,omitempty" yaml:"remote,omitempty"`
	Services []ServiceEntry              `json:"services" yaml:"services"`
	Fixtures map[string][]map[string]any `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`
	Script   []Step                      `json:"script,omitempty" yaml:"script,omitempty"`
	Status   []string                    `json:"status,omitempty" yaml:"status,omitempty"`

	location string
}

// Location is the file the config was loaded from
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file. A file named without a known
// extension, e.g. ".reduxify", is tried as YAML and then as HCL.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg, err := parse(ctx, path, data)
	if err != nil {
		return nil, err
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("variant", cfg.Variant).Int("services", len(cfg.Services)).Int("steps", len(cfg.Script)).Msg("configuration loaded")
	return cfg, nil
}

func parse(ctx context.Context, path string, data []byte) (*Config, error) {
	if p := GetParser(path); p != nil {
		cfg, err := p.Parse(ctx, data)
		if err != nil {
			return nil, errors.Errorf("parsing config: %w", err)
		}
		return cfg, nil
	}

	if filepath.Ext(filepath.Base(path)) != filepath.Base(path) {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, yerr := (&YAMLParser{}).Parse(ctx, data)
	if yerr == nil {
		return cfg, nil
	}
	cfg, herr := (&HCLParser{}).Parse(ctx, data)
	if herr == nil {
		return cfg, nil
	}
	return nil, errors.Errorf("parsing %s as YAML or HCL: %w", path, errors.Join(yerr, herr))
}

// 🔍 Validate checks the config and fills in defaults
func (cfg *Config) Validate() error {
	switch cfg.Variant {
	case "":
		cfg.Variant = VariantPlain
	case VariantPlain, VariantPersistent:
	default:
		return errors.Errorf("unknown variant %q, expected %s or %s", cfg.Variant, VariantPlain, VariantPersistent)
	}

	switch cfg.Remote.Kind {
	case "":
		cfg.Remote.Kind = RemoteMemory
	case RemoteMemory:
	case RemoteGitHub:
		if cfg.Remote.Repo == "" {
			return errors.Errorf("remote.repo is required for the github remote")
		}
	default:
		return errors.Errorf("unknown remote kind %q", cfg.Remote.Kind)
	}

	if len(cfg.Services) == 0 {
		return errors.Errorf("at least one service is required")
	}

	names := map[string]bool{}
	upper := map[string]bool{}
	globs := false
	for i, e := range cfg.Services {
		if strings.TrimSpace(e.Path) == "" {
			return errors.Errorf("services[%d]: path is required", i)
		}
		entry := service.Entry(e)
		if entry.IsPattern() {
			globs = true
			continue
		}
		if upper[strings.ToUpper(entry.Name())] {
			return errors.Errorf("services[%d]: duplicate alias %q", i, entry.Name())
		}
		names[entry.Name()] = true
		upper[strings.ToUpper(entry.Name())] = true
	}

	// aliases behind a glob are only known once the client expands it
	known := func(name string) bool {
		return globs || names[name]
	}

	for i, s := range cfg.Script {
		if !known(s.Service) {
			return errors.Errorf("script[%d]: unknown service %q", i, s.Service)
		}
		m, ok := action.ParseMethod(s.Method)
		if !ok {
			return errors.Errorf("script[%d]: unknown method %q", i, s.Method)
		}
		if s.ID == nil && m != action.MethodFind && m != action.MethodCreate {
			return errors.Errorf("script[%d]: %s requires an id", i, m)
		}
	}

	for _, n := range cfg.Status {
		if !known(n) {
			return errors.Errorf("status: unknown service %q", n)
		}
	}

	return nil
}

// Entries converts the configured services for service.Reduxify
func (cfg *Config) Entries() []service.Entry {
	out := make([]service.Entry, 0, len(cfg.Services))
	for _, e := range cfg.Services {
		out = append(out, service.Entry(e))
	}
	return out
}

// Groups splits the script into runs. A run is either one sequential step or
// consecutive parallel steps.
func (cfg *Config) Groups() [][]Step {
	var out [][]Step
	for _, s := range cfg.Script {
		n := len(out)
		if s.Parallel && n > 0 && out[n-1][0].Parallel {
			out[n-1] = append(out[n-1], s)
			continue
		}
		out = append(out, []Step{s})
	}
	return out
}
