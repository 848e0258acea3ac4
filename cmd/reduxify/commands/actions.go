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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/reduxify/cmd/reduxify/opts"
	"github.com/walteh/reduxify/pkg/record"
	"github.com/walteh/reduxify/pkg/service"
	"gitlab.com/tozd/go/errors"
)

// NewActionsCmd creates the actions command
func NewActionsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the action types of every configured service",
		Long: `Actions expands the configured services against the client and prints,
for each alias, the lifecycle types of its six methods followed by its
RESET and STORE types.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := NewClient(ctx, o.Config)
			if err != nil {
				return err
			}

			services, err := service.Reduxify(ctx, client, o.Config.Entries(), record.Plain{})
			if err != nil {
				return errors.Errorf("reduxifying services: %w", err)
			}

			for _, name := range services.Names() {
				fmt.Fprintf(o.Out, "%s (%s)\n", name, services[name].Path)
				for _, typ := range services[name].Types() {
					fmt.Fprintf(o.Out, "  %s\n", typ)
				}
			}
			return nil
		},
	}

	return cmd
}
