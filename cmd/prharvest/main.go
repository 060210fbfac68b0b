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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/pkg/version"
)

func main() {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(mapErrorToExitCode(err))
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	token      string
	logLevel   string
	quiet      bool
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "prharvest",
		Short: "Build pull request review datasets from GitHub",
		Long: `prharvest collects popular GitHub repositories and the merged or closed
pull requests that went through code review, enriches every pull request with
size, time and interaction metrics, and writes the results as datasets.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file (default: .prharvest.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	rootCmd.PersistentFlags().Var(newChoiceValue(&g.logLevel, "debug", "info", "warn", "error"), "log-level", "Log level (default: info)")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(
		newReposCommand(g),
		newPullsCommand(g),
		newSummarizeCommand(g),
	)
	return rootCmd
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) {
		return 130
	}

	if errors.Is(err, apperrors.ErrRetriesExhausted) ||
		errors.Is(err, apperrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	if errors.Is(err, apperrors.ErrMissingToken) ||
		errors.Is(err, apperrors.ErrInvalidToken) ||
		errors.Is(err, apperrors.ErrInputNotFound) ||
		errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrInvalidConfig) {
		return 2 // Precondition and authentication errors
	}

	return 1 // General error
}
