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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

type hclService struct {
	Alias string `hcl:"alias,label"`
	Path  string `hcl:"path,optional"`
}

type hclStep struct {
	Service  string    `hcl:"service"`
	Method   string    `hcl:"method"`
	ID       cty.Value `hcl:"id,optional"`
	Data     cty.Value `hcl:"data,optional"`
	Query    cty.Value `hcl:"query,optional"`
	Parallel bool      `hcl:"parallel,optional"`
}

type hclConfig struct {
	Variant string `hcl:"variant,optional"`
	Remote  *struct {
		Kind string `hcl:"kind,optional"`
		Repo string `hcl:"repo,optional"`
	} `hcl:"remote,block"`
	Services []hclService `hcl:"service,block"`
	Fixtures cty.Value    `hcl:"fixtures,optional"`
	Steps    []hclStep    `hcl:"step,block"`
	Status   []string     `hcl:"status,optional"`
}

// 📝 Parse parses the config from HCL. Services are `service "<alias>"`
// blocks and the script is a sequence of `step` blocks. Expressions may read
// the environment through `env`.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "reduxify.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Variant: raw.Variant,
		Status:  raw.Status,
	}
	if raw.Remote != nil {
		cfg.Remote = Remote{Kind: raw.Remote.Kind, Repo: raw.Remote.Repo}
	}

	for _, s := range raw.Services {
		path := s.Path
		if path == "" {
			path = s.Alias
		}
		cfg.Services = append(cfg.Services, ServiceEntry{Path: path, Alias: s.Alias})
	}

	fixtures, err := toGo(raw.Fixtures)
	if err != nil {
		return nil, errors.Errorf("fixtures: %w", err)
	}
	if fixtures != nil {
		cfg.Fixtures, err = fixtureMap(fixtures)
		if err != nil {
			return nil, err
		}
	}

	for i, s := range raw.Steps {
		step := Step{Service: s.Service, Method: s.Method, Parallel: s.Parallel}
		if step.ID, err = toGo(s.ID); err != nil {
			return nil, errors.Errorf("step %d id: %w", i, err)
		}
		if step.Data, err = toGo(s.Data); err != nil {
			return nil, errors.Errorf("step %d data: %w", i, err)
		}
		q, err := toGo(s.Query)
		if err != nil {
			return nil, errors.Errorf("step %d query: %w", i, err)
		}
		if q != nil {
			m, ok := q.(map[string]any)
			if !ok {
				return nil, errors.Errorf("step %d query must be an object", i)
			}
			step.Query = m
		}
		cfg.Script = append(cfg.Script, step)
	}

	return cfg, nil
}

func environment() cty.Value {
	vals := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	if len(vals) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vals)
}

func fixtureMap(v any) (map[string][]map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Errorf("fixtures must be an object of record lists")
	}
	out := make(map[string][]map[string]any, len(m))
	for path, recs := range m {
		list, ok := recs.([]any)
		if !ok {
			return nil, errors.Errorf("fixtures %q must be a list", path)
		}
		for i, r := range list {
			rec, ok := r.(map[string]any)
			if !ok {
				return nil, errors.Errorf("fixtures %q[%d] must be an object", path, i)
			}
			out[path] = append(out[path], rec)
		}
	}
	return out, nil
}

// toGo converts a cty value into plain Go values. Whole numbers become int.
func toGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, errors.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return int(i), nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := toGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := toGo(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported value type %s", ty.FriendlyName())
}
