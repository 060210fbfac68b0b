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
	"github.com/sirseerhq/prharvest/internal/state"
	"github.com/sirseerhq/prharvest/internal/store/postgres"
)

type pullsOptions struct {
	input       string
	output      string
	maxPerRepo  int
	minResolved int
	workers     int
	format      string
	resume      bool
}

func newPullsCommand(g *globalFlags) *cobra.Command {
	var opts pullsOptions

	cmd := &cobra.Command{
		Use:   "pulls",
		Short: "Collect reviewed pull requests of every repository in the repository dataset",
		Long: `Collect the merged and closed pull requests of every repository listed in
the repository dataset and write the pull request dataset.

Repositories with fewer merged plus closed pull requests than --min-resolved
are skipped after a single count query. Pull requests without a review are
dropped; the rest are enriched with size, time and interaction metrics.

With checkpointing enabled, progress is saved after every repository.
Use --resume to continue an interrupted run without refetching them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(g, cmd.ErrOrStderr(), func(cfg *config.Config) {
				if cmd.Flags().Changed("input") {
					cfg.PullRequests.Input = opts.input
				}
				if cmd.Flags().Changed("output") {
					cfg.PullRequests.Output = opts.output
				}
				if cmd.Flags().Changed("max-per-repo") {
					cfg.PullRequests.MaxPerRepository = opts.maxPerRepo
				}
				if cmd.Flags().Changed("min-resolved") {
					cfg.PullRequests.MinResolved = opts.minResolved
				}
				if cmd.Flags().Changed("workers") {
					cfg.PullRequests.Workers = opts.workers
				}
				if cmd.Flags().Changed("format") {
					cfg.Output.Format = opts.format
				}
				if opts.resume {
					cfg.PullRequests.Checkpoint = true
				}
			})
			if err != nil {
				return err
			}
			return runPulls(cmd.Context(), rt, g.token, opts.resume)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Repository dataset to read (default: repositories.csv)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Pull request dataset path (default: pull_requests.csv)")
	cmd.Flags().IntVar(&opts.maxPerRepo, "max-per-repo", 0, "Maximum pull requests fetched per repository (default: 100)")
	cmd.Flags().IntVar(&opts.minResolved, "min-resolved", 0, "Skip repositories with fewer merged plus closed pull requests (default: 100)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Repositories processed concurrently (default: 1)")
	cmd.Flags().Var(newChoiceValue(&opts.format, config.FormatCSV, config.FormatNDJSON), "format", "Output format (default: csv)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Resume from the checkpoint of an interrupted run")

	return cmd
}

func runPulls(ctx context.Context, rt *session, tokenFlag string, resume bool) error {
	cfg := rt.cfg

	client, err := rt.newClient(tokenFlag)
	if err != nil {
		return err
	}

	repos, err := dataset.ReadRepositories(cfg.PullRequests.Input)
	if err != nil {
		return err
	}

	tracker := metadata.New()
	logger := rt.logger.With().Str("run_id", tracker.RunID()).Logger()

	opts := []collector.Option{
		collector.WithLogger(logger),
		collector.WithProgress(rt.progress()),
		collector.WithTracker(tracker),
	}

	path := cfg.PullRequests.Output
	var (
		recorder *state.Recorder
		resumed  bool
	)
	if cfg.PullRequests.Checkpoint {
		recorder, resumed, err = state.NewRecorder(state.CheckpointPath(path), cfg.PullRequests.Input, tracker.RunID(), resume)
		if err != nil {
			return err
		}
		if resumed {
			logger.Info().Int("repositories", recorder.Completed()).Msg("resuming from checkpoint")
		}
		opts = append(opts, collector.WithCheckpoint(recorder))
	}

	rows, err := collector.NewPullRequestCollector(client, cfg, opts...).Collect(ctx, repos)
	if err != nil {
		return err
	}

	if err := output.WriteFile(path, cfg.Output.Format, dataset.PullRequestHeader, rows); err != nil {
		return err
	}
	if recorder != nil {
		if err := recorder.Remove(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove checkpoint")
		}
	}

	rt.saveMetadata(tracker, "pulls", path, metadata.RunParams{
		Input:            cfg.PullRequests.Input,
		MaxPerRepository: cfg.PullRequests.MaxPerRepository,
		MinResolved:      cfg.PullRequests.MinResolved,
		PageSize:         cfg.PullRequests.PageSize,
		Workers:          cfg.PullRequests.Workers,
	}, resumed)

	if err := rt.withStore(ctx, func(s *postgres.Store) error {
		return s.SavePullRequests(ctx, tracker.RunID(), rows)
	}); err != nil {
		return err
	}

	if !rt.quiet {
		r := tracker.Results()
		pterm.Success.Printfln("Wrote %d pull requests from %d repositories to %s (%d skipped)",
			len(rows), r.RepositoriesProcessed, path, r.RepositoriesSkipped)
	}
	return nil
}
