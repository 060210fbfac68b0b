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

// Package config loads the prharvest configuration from defaults, an optional
// YAML file and environment overrides. The resulting Config is passed by value
// into every component; nothing reads configuration from package state.
package config

import "time"

// Output formats understood by the dataset writers.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// Backoff curves understood by the fetch retry policy.
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// Config represents the complete configuration structure.
type Config struct {
	GitHub       GitHubConfig       `yaml:"github"`
	Repositories RepositoriesConfig `yaml:"repositories"`
	PullRequests PullRequestsConfig `yaml:"pull_requests"`
	Fetch        FetchConfig        `yaml:"fetch"`
	Output       OutputConfig       `yaml:"output"`
	Summary      SummaryConfig      `yaml:"summary"`
	Store        StoreConfig        `yaml:"store"`
	Log          LogConfig          `yaml:"log"`
}

// GitHubConfig contains GitHub API settings.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// RepositoriesConfig drives the repository collector.
type RepositoriesConfig struct {
	// SearchQuery is passed verbatim to GitHub's repository search.
	SearchQuery string `yaml:"search_query"`
	// Language optionally narrows the search with a language: qualifier.
	Language        string `yaml:"language"`
	MaxRepositories int    `yaml:"max_repositories"`
	PageSize        int    `yaml:"page_size"`
	Output          string `yaml:"output"`
}

// PullRequestsConfig drives the pull request collector.
type PullRequestsConfig struct {
	Input            string `yaml:"input"`
	Output           string `yaml:"output"`
	MaxPerRepository int    `yaml:"max_per_repository"`
	PageSize         int    `yaml:"page_size"`
	// MinResolved is the threshold pre-check: repositories with fewer
	// merged+closed pull requests are skipped.
	MinResolved     int           `yaml:"min_resolved"`
	Workers         int           `yaml:"workers"`
	RepositoryDelay time.Duration `yaml:"repository_delay"`
	Checkpoint      bool          `yaml:"checkpoint"`
}

// FetchConfig is shared by both collectors' pagination loops.
type FetchConfig struct {
	PageDelay  time.Duration `yaml:"page_delay"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	// MaxAttempts of 0 retries forever.
	MaxAttempts   int           `yaml:"max_attempts"`
	Backoff       string        `yaml:"backoff"`
	JitterPercent int           `yaml:"jitter_percent"`
	MaxDelay      time.Duration `yaml:"max_delay"`
}

// OutputConfig selects the dataset encoding.
type OutputConfig struct {
	Format   string `yaml:"format"`
	Metadata bool   `yaml:"metadata"`
}

// SummaryConfig drives the summarize command.
type SummaryConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// StoreConfig configures the optional Postgres sink. Empty DSN disables it.
type StoreConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults.
// The delays and the unbounded retry mirror the collection scripts this tool replaced.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Repositories: RepositoriesConfig{
			SearchQuery:     "stars:>100 sort:stars-desc",
			MaxRepositories: 200,
			PageSize:        100,
			Output:          "repositories.csv",
		},
		PullRequests: PullRequestsConfig{
			Input:            "repositories.csv",
			Output:           "pull_requests.csv",
			MaxPerRepository: 100,
			PageSize:         50,
			MinResolved:      100,
			Workers:          1,
			RepositoryDelay:  2 * time.Second,
			Checkpoint:       true,
		},
		Fetch: FetchConfig{
			PageDelay:   1 * time.Second,
			RetryDelay:  10 * time.Second,
			MaxAttempts: 0,
			Backoff:     BackoffConstant,
		},
		Output: OutputConfig{
			Format:   FormatCSV,
			Metadata: true,
		},
		Summary: SummaryConfig{
			Input:  "pull_requests.csv",
			Output: "summary.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
