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

package collector

import (
	"context"
	"fmt"

	"github.com/sirseerhq/prharvest/internal/config"
	"github.com/sirseerhq/prharvest/internal/dataset"
	"github.com/sirseerhq/prharvest/internal/fetch"
	"github.com/sirseerhq/prharvest/internal/github"
)

// RepositoryCollector builds the repository dataset from a GitHub search.
type RepositoryCollector struct {
	client github.Client
	cfg    config.RepositoriesConfig
	fetch  config.FetchConfig
	opts   options
}

// NewRepositoryCollector creates a collector for the repositories stage.
func NewRepositoryCollector(client github.Client, cfg *config.Config, opts ...Option) *RepositoryCollector {
	return &RepositoryCollector{
		client: client,
		cfg:    cfg.Repositories,
		fetch:  cfg.Fetch,
		opts:   newOptions(opts),
	}
}

// Query returns the search query the collector sends.
func (c *RepositoryCollector) Query() string {
	return github.BuildSearchQuery(c.cfg.SearchQuery, c.cfg.Language)
}

// Collect pages through the search results until max_repositories
// repositories are held or the results run out. Rows keep search order.
func (c *RepositoryCollector) Collect(ctx context.Context) ([]dataset.Repository, error) {
	query := c.Query()
	max := c.cfg.MaxRepositories
	logger := c.opts.logger.With().Str("stage", "repositories").Logger()

	logger.Info().Str("query", query).Int("max", max).Msg("searching repositories")

	page := func(ctx context.Context, cursor string, first int) (*fetch.Page[github.RepositoryNode], error) {
		res, err := c.client.SearchRepositories(ctx, github.SearchOptions{
			Query: query,
			First: first,
			After: cursor,
		})
		if err != nil {
			return nil, err
		}
		return &fetch.Page[github.RepositoryNode]{
			Nodes:       res.Repositories,
			HasNextPage: res.HasNextPage,
			EndCursor:   res.EndCursor,
		}, nil
	}

	nodes, stats, err := fetch.Paginate(ctx, page, max, fetch.Options{
		PageSize:  c.cfg.PageSize,
		PageDelay: c.fetch.PageDelay,
		Retry:     fetch.PolicyFromConfig(c.fetch),
		Logger:    logger,
		Label:     "search",
		OnPage:    func(n int) { c.opts.progress.Collected("repositories", n, max) },
	})
	c.opts.tracker.AddFetchStats(stats.Requests, stats.Retries, stats.Pages)
	if err != nil {
		return nil, fmt.Errorf("repository search failed: %w", err)
	}

	now := c.opts.now()
	repos := make([]dataset.Repository, 0, len(nodes))
	for _, n := range nodes {
		repos = append(repos, dataset.NewRepository(n, now))
	}
	c.opts.tracker.RecordRepositoriesCollected(len(repos))

	logger.Info().Int("repositories", len(repos)).Int("requests", stats.Requests).Msg("repository search complete")
	return repos, nil
}
