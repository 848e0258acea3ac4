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

package commands

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/reduxify/pkg/config"
	"github.com/walteh/reduxify/pkg/remote/github"
	"github.com/walteh/reduxify/pkg/remote/memory"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

// NewClient builds the service client the config selects. The memory client
// mounts every literal service path plus every fixture path, seeded from the
// fixtures.
func NewClient(ctx context.Context, cfg *config.Config) (service.Client, error) {
	logger := zerolog.Ctx(ctx)

	switch cfg.Remote.Kind {
	case config.RemoteGitHub:
		c, err := github.New(cfg.Remote.Repo)
		if err != nil {
			return nil, errors.Errorf("creating github client: %w", err)
		}
		logger.Debug().Str("repo", c.Name()).Msg("using github client")
		return c, nil
	case config.RemoteMemory, "":
	default:
		return nil, errors.Errorf("unknown remote kind %q", cfg.Remote.Kind)
	}

	paths := map[string]bool{}
	for _, e := range cfg.Entries() {
		if !e.IsPattern() {
			paths[e.Path] = true
		}
	}
	for p := range cfg.Fixtures {
		paths[p] = true
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	app := memory.New()
	for _, p := range sorted {
		app.Use(p, memory.NewService(cfg.Fixtures[p]...))
		logger.Debug().Str("path", p).Int("records", len(cfg.Fixtures[p])).Msg("mounted memory service")
	}
	return app, nil
}
