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

// Package metadata types define the structures used for tracking and
// persisting information about collection runs.
package metadata

import (
	"time"
)

// RunMetadata represents the complete metadata record for a single
// collection run: what was asked for, what came back, and how long it took.
type RunMetadata struct {
	ToolVersion string     `json:"tool_version"`
	RunID       string     `json:"run_id"`
	Command     string     `json:"command"`
	Parameters  RunParams  `json:"parameters"`
	Results     RunResults `json:"results"`
	Resumed     bool       `json:"resumed"`
}

// RunParams captures the input parameters used for a run so the dataset
// can be reproduced.
type RunParams struct {
	Input            string `json:"input,omitempty"`
	Output           string `json:"output"`
	Format           string `json:"format"`
	SearchQuery      string `json:"search_query,omitempty"`
	MaxRepositories  int    `json:"max_repositories,omitempty"`
	MaxPerRepository int    `json:"max_per_repository,omitempty"`
	MinResolved      int    `json:"min_resolved,omitempty"`
	PageSize         int    `json:"page_size"`
	Workers          int    `json:"workers,omitempty"`
	MaxAttempts      int    `json:"max_attempts"`
	PageDelay        string `json:"page_delay"`
	RetryDelay       string `json:"retry_delay"`
}

// RunResults contains statistics about a completed run.
type RunResults struct {
	APICallCount int `json:"api_calls_made"`
	Retries      int `json:"retries"`
	Pages        int `json:"pages"`

	RepositoriesCollected int `json:"repositories_collected,omitempty"`
	RepositoriesProcessed int `json:"repositories_processed,omitempty"`
	RepositoriesSkipped   int `json:"repositories_skipped,omitempty"`
	RepositoriesResumed   int `json:"repositories_resumed,omitempty"`

	PullRequestsFetched  int `json:"pull_requests_fetched,omitempty"`
	PullRequestsAccepted int `json:"pull_requests_accepted,omitempty"`
	PullRequestsRejected int `json:"pull_requests_rejected,omitempty"`

	OldestPR *time.Time `json:"oldest_pr_date,omitempty"`
	NewestPR *time.Time `json:"newest_pr_date,omitempty"`

	Duration    string    `json:"duration"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
