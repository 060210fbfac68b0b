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
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sirseerhq/prharvest/internal/config"
	"github.com/sirseerhq/prharvest/internal/dataset"
	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/output"
	"github.com/sirseerhq/prharvest/internal/stats"
)

func newSummarizeCommand(g *globalFlags) *cobra.Command {
	var input, out string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Compute metric medians of a pull request dataset",
		Long: `Compute the median of every size, time and interaction metric of a pull
request dataset, overall and split into merged and closed pull requests, and
write them as a CSV summary. Metrics missing from the dataset are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newSession(g, cmd.ErrOrStderr(), func(cfg *config.Config) {
				if cmd.Flags().Changed("input") {
					cfg.Summary.Input = input
				}
				if cmd.Flags().Changed("output") {
					cfg.Summary.Output = out
				}
			})
			if err != nil {
				return err
			}
			return runSummarize(rt)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Pull request dataset to read (default: pull_requests.csv)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Summary path (default: summary.csv)")

	return cmd
}

func runSummarize(rt *session) error {
	cfg := rt.cfg.Summary

	header, rows, err := dataset.ReadPullRequestTable(cfg.Input)
	if err != nil {
		return err
	}

	if md, err := metadata.LoadMetadata(metadata.MetadataPath(cfg.Input)); err != nil {
		rt.logger.Debug().Err(err).Msg("ignoring unreadable dataset metadata")
	} else if md != nil {
		rt.logger.Info().
			Str("run_id", md.RunID).
			Time("collected_at", md.Results.CompletedAt).
			Msg("summarizing dataset")
	}

	summary := stats.Summarize(header, rows)
	if len(summary) == 0 {
		rt.logger.Warn().Str("input", cfg.Input).Msg("no metric columns found")
	}

	if err := output.WriteFile(cfg.Output, output.FormatCSV, stats.Header, summary); err != nil {
		return err
	}

	if rt.quiet {
		return nil
	}

	table := pterm.TableData{stats.Header}
	for _, row := range summary {
		table = append(table, row.CSVRecord())
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("Summary of %d pull requests written to %s", len(rows), cfg.Output)
	return nil
}
