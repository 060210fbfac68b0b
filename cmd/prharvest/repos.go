// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sirseerhq/prharvest/internal/collector"
	"github.com/sirseerhq/prharvest/internal/config"
	"github.com/sirseerhq/prharvest/internal/dataset"
	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/output"
	"github.com/sirseerhq/prharvest/internal/store/postgres"
)

type reposOptions struct {
	output   string
	query    string
	language string
	max      int
	format   string
}

func newReposCommand(g *globalFlags) *cobra.Command {
	var opts reposOptions

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Collect the most starred repositories into the repository dataset",
		Long: `Search GitHub for popular repositories and write the repository dataset.

Each row carries the repository's owner, name, stars, URL, creation date and
age in years. Results keep the search order, most starred first by default.

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set GITHUB_TOKEN environment variable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(g, cmd.ErrOrStderr(), func(cfg *config.Config) {
				if cmd.Flags().Changed("output") {
					cfg.Repositories.Output = opts.output
				}
				if cmd.Flags().Changed("query") {
					cfg.Repositories.SearchQuery = opts.query
				}
				if cmd.Flags().Changed("language") {
					cfg.Repositories.Language = opts.language
				}
				if cmd.Flags().Changed("max") {
					cfg.Repositories.MaxRepositories = opts.max
				}
				if cmd.Flags().Changed("format") {
					cfg.Output.Format = opts.format
				}
			})
			if err != nil {
				return err
			}
			return runRepos(cmd.Context(), rt, g.token)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Repository dataset path (default: repositories.csv)")
	cmd.Flags().StringVar(&opts.query, "query", "", "GitHub search query (default: \"stars:>100 sort:stars-desc\")")
	cmd.Flags().StringVar(&opts.language, "language", "", "Restrict the search to a language")
	cmd.Flags().IntVar(&opts.max, "max", 0, "Maximum number of repositories (default: 200)")
	cmd.Flags().Var(newChoiceValue(&opts.format, config.FormatCSV, config.FormatNDJSON), "format", "Output format (default: csv)")

	return cmd
}

func runRepos(ctx context.Context, rt *session, tokenFlag string) error {
	client, err := rt.newClient(tokenFlag)
	if err != nil {
		return err
	}

	cfg := rt.cfg
	tracker := metadata.New()
	logger := rt.logger.With().Str("run_id", tracker.RunID()).Logger()

	c := collector.NewRepositoryCollector(client, cfg,
		collector.WithLogger(logger),
		collector.WithProgress(rt.progress()),
		collector.WithTracker(tracker),
	)

	repos, err := c.Collect(ctx)
	if err != nil {
		return err
	}

	path := cfg.Repositories.Output
	if err := output.WriteFile(path, cfg.Output.Format, dataset.RepositoryHeader, repos); err != nil {
		return err
	}

	rt.saveMetadata(tracker, "repos", path, metadata.RunParams{
		SearchQuery:     c.Query(),
		MaxRepositories: cfg.Repositories.MaxRepositories,
		PageSize:        cfg.Repositories.PageSize,
	}, false)

	if err := rt.withStore(ctx, func(s *postgres.Store) error {
		return s.SaveRepositories(ctx, tracker.RunID(), repos)
	}); err != nil {
		return err
	}

	if !rt.quiet {
		pterm.Success.Printfln("Wrote %d repositories to %s", len(repos), path)
	}
	return nil
}
