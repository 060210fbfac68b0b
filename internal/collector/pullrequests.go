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
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/prharvest/internal/config"
	"github.com/sirseerhq/prharvest/internal/dataset"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/fetch"
	"github.com/sirseerhq/prharvest/internal/github"
	"github.com/sirseerhq/prharvest/internal/state"
)

// PullRequestCollector builds the pull request dataset for a list of
// repositories.
type PullRequestCollector struct {
	client github.Client
	cfg    config.PullRequestsConfig
	fetch  config.FetchConfig
	opts   options
}

// NewPullRequestCollector creates a collector for the pull requests stage.
func NewPullRequestCollector(client github.Client, cfg *config.Config, opts ...Option) *PullRequestCollector {
	return &PullRequestCollector{
		client: client,
		cfg:    cfg.PullRequests,
		fetch:  cfg.Fetch,
		opts:   newOptions(opts),
	}
}

// Collect processes every repository and returns the accepted rows grouped
// by repository in input order, each group in fetch order.
//
// With one worker repositories are processed one after another, pausing
// repository_delay between them. With more, a bounded pool processes them
// concurrently and a shared pacer spaces every request page_delay apart, so
// the request rate never exceeds the sequential run.
func (c *PullRequestCollector) Collect(ctx context.Context, repos []dataset.Repository) ([]dataset.PullRequest, error) {
	c.opts.logger.Info().
		Int("repositories", len(repos)).
		Int("workers", c.cfg.Workers).
		Int("min_resolved", c.cfg.MinResolved).
		Int("max_per_repository", c.cfg.MaxPerRepository).
		Msg("collecting pull requests")

	var (
		slots [][]dataset.PullRequest
		err   error
	)
	if c.cfg.Workers > 1 {
		slots, err = c.collectConcurrent(ctx, repos)
	} else {
		slots, err = c.collectSequential(ctx, repos)
	}
	if err != nil {
		return nil, err
	}

	var rows []dataset.PullRequest
	for _, s := range slots {
		rows = append(rows, s...)
	}
	return rows, nil
}

func (c *PullRequestCollector) collectSequential(ctx context.Context, repos []dataset.Repository) ([][]dataset.PullRequest, error) {
	slots := make([][]dataset.PullRequest, len(repos))
	requested := false

	for i, repo := range repos {
		if requested && c.cfg.RepositoryDelay > 0 {
			if err := fetch.Sleep(ctx, c.cfg.RepositoryDelay); err != nil {
				return nil, err
			}
		}

		c.opts.progress.RepositoryStarted(i+1, len(repos), repo.Key())
		rows, hit, err := c.collectRepository(ctx, repo, nil)
		if err != nil {
			return nil, err
		}
		slots[i] = rows
		requested = hit
	}
	return slots, nil
}

func (c *PullRequestCollector) collectConcurrent(ctx context.Context, repos []dataset.Repository) ([][]dataset.PullRequest, error) {
	slots := make([][]dataset.PullRequest, len(repos))
	pacer := fetch.NewPacer(c.fetch.PageDelay)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, repo := range repos {
		g.Go(func() error {
			c.opts.progress.RepositoryStarted(i+1, len(repos), repo.Key())
			rows, _, err := c.collectRepository(gctx, repo, pacer)
			if err != nil {
				return err
			}
			slots[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Report the caller's cancellation rather than the group's.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return slots, nil
}

// collectRepository returns the accepted rows of one repository. The bool
// reports whether any request was sent, which is false for repositories
// restored from the checkpoint.
func (c *PullRequestCollector) collectRepository(ctx context.Context, repo dataset.Repository, pacer *fetch.Pacer) ([]dataset.PullRequest, bool, error) {
	key := repo.Key()
	logger := c.opts.logger.With().Str("repository", key).Logger()

	if c.opts.recorder != nil {
		if res, ok := c.opts.recorder.Lookup(key); ok {
			logger.Debug().Bool("qualified", res.Qualified).Int("rows", len(res.Rows)).Msg("restored from checkpoint")
			c.opts.tracker.RecordRepository(res.Qualified, true)
			if res.Qualified {
				c.opts.progress.RepositoryDone(key, len(res.Rows), len(res.Rows), true)
			}
			return res.Rows, false, nil
		}
	}

	qualified, err := c.qualifies(ctx, repo, pacer, logger)
	if err != nil {
		return nil, true, err
	}
	c.opts.tracker.RecordRepository(qualified, false)
	if !qualified {
		c.record(key, state.RepositoryResult{Qualified: false}, logger)
		return nil, true, nil
	}

	nodes, err := c.fetchPullRequests(ctx, repo, pacer, logger)
	if err != nil {
		return nil, true, err
	}

	rows := make([]dataset.PullRequest, 0, len(nodes))
	for _, n := range nodes {
		row, ok := Enrich(repo.Owner, repo.Name, n)
		if !ok {
			continue
		}
		rows = append(rows, row)
		c.opts.tracker.UpdatePRStats(row.CreatedAt)
	}
	c.opts.tracker.RecordPullRequests(len(nodes), len(rows))

	logger.Info().Int("fetched", len(nodes)).Int("accepted", len(rows)).Msg("repository complete")
	c.opts.progress.RepositoryDone(key, len(rows), len(nodes), false)

	c.record(key, state.RepositoryResult{Qualified: true, Rows: rows}, logger)
	return rows, true, nil
}

// qualifies runs the threshold pre-check. The pre-check is sent once and
// never retried: any failure counts as not qualifying. Only cancellation is
// returned as an error.
func (c *PullRequestCollector) qualifies(ctx context.Context, repo dataset.Repository, pacer *fetch.Pacer, logger zerolog.Logger) (bool, error) {
	threshold := c.cfg.MinResolved
	if threshold <= 0 {
		return true, nil
	}

	if err := pacer.Wait(ctx); err != nil {
		return false, err
	}

	c.opts.tracker.IncrementAPICall()
	count, err := c.client.CountResolvedPullRequests(ctx, repo.Owner, repo.Name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.Warn().Err(err).Msg("threshold check failed, skipping repository")
		c.opts.progress.RepositorySkipped(repo.Key(), 0, threshold, err)
		return false, nil
	}

	if count < threshold {
		logger.Info().Int("resolved", count).Int("threshold", threshold).Msg("not enough merged or closed pull requests, skipping")
		c.opts.progress.RepositorySkipped(repo.Key(), count, threshold, nil)
		return false, nil
	}

	logger.Debug().Int("resolved", count).Msg("repository qualifies")
	return true, nil
}

func (c *PullRequestCollector) fetchPullRequests(ctx context.Context, repo dataset.Repository, pacer *fetch.Pacer, logger zerolog.Logger) ([]github.PullRequest, error) {
	key := repo.Key()
	max := c.cfg.MaxPerRepository

	page := func(ctx context.Context, cursor string, first int) (*fetch.Page[github.PullRequest], error) {
		res, err := c.client.FetchPullRequests(ctx, repo.Owner, repo.Name, github.FetchOptions{
			First: first,
			After: cursor,
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrRepoNotFound) {
				return nil, fmt.Errorf("%w: %w", fetch.ErrNoMoreData, err)
			}
			return nil, err
		}
		return &fetch.Page[github.PullRequest]{
			Nodes:       res.PullRequests,
			HasNextPage: res.HasNextPage,
			EndCursor:   res.EndCursor,
		}, nil
	}

	nodes, stats, err := fetch.Paginate(ctx, page, max, fetch.Options{
		PageSize:  c.cfg.PageSize,
		PageDelay: c.fetch.PageDelay,
		Retry:     fetch.PolicyFromConfig(c.fetch),
		Pacer:     pacer,
		Logger:    logger,
		Label:     key,
		OnPage:    func(n int) { c.opts.progress.Collected(key, n, max) },
	})
	c.opts.tracker.AddFetchStats(stats.Requests, stats.Retries, stats.Pages)
	if err != nil {
		return nil, fmt.Errorf("fetching pull requests of %s: %w", key, err)
	}
	return nodes, nil
}

// record saves a finished repository to the checkpoint. A failed save only
// costs the ability to resume, so it is logged rather than returned.
func (c *PullRequestCollector) record(key string, res state.RepositoryResult, logger zerolog.Logger) {
	if c.opts.recorder == nil {
		return
	}
	if err := c.opts.recorder.Record(key, res); err != nil {
		logger.Warn().Err(err).Msg("failed to save checkpoint")
	}
}
