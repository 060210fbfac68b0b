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

// Package metadata tracks and persists metadata about collection runs: the
// parameters used, API calls and retries made, how many repositories were
// skipped by the threshold pre-check, and how many pull requests survived
// the row filter.
//
// Metadata is saved as an indented JSON file next to the dataset it
// describes, so a dataset can always be traced back to the run that made it.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker collects statistics during a run and generates metadata.
// All methods are safe for concurrent use and are no-ops on a nil Tracker,
// so collectors can record unconditionally.
type Tracker struct {
	mu        sync.Mutex
	runID     string
	startTime time.Time
	results   RunResults
}

// New creates a new metadata tracker with a fresh run id and the current time.
// Call this at the beginning of a run to start tracking.
func New() *Tracker {
	return &Tracker{
		runID:     uuid.NewString(),
		startTime: time.Now(),
	}
}

// RunID returns the identifier of the tracked run.
func (t *Tracker) RunID() string {
	if t == nil {
		return ""
	}
	return t.runID
}

// AddFetchStats records the requests, retries and pages of one pagination.
func (t *Tracker) AddFetchStats(requests, retries, pages int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results.APICallCount += requests
	t.results.Retries += retries
	t.results.Pages += pages
}

// IncrementAPICall records a single request made outside a pagination,
// such as the threshold pre-check.
func (t *Tracker) IncrementAPICall() {
	t.AddFetchStats(1, 0, 0)
}

// RecordRepositoriesCollected records the size of a repository dataset.
func (t *Tracker) RecordRepositoriesCollected(n int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results.RepositoriesCollected += n
}

// RecordRepository records one repository's pre-check outcome.
func (t *Tracker) RecordRepository(qualified, resumed bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if qualified {
		t.results.RepositoriesProcessed++
	} else {
		t.results.RepositoriesSkipped++
	}
	if resumed {
		t.results.RepositoriesResumed++
	}
}

// RecordPullRequests records fetched and accepted counts for one repository.
func (t *Tracker) RecordPullRequests(fetched, accepted int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results.PullRequestsFetched += fetched
	t.results.PullRequestsAccepted += accepted
	t.results.PullRequestsRejected += fetched - accepted
}

// UpdatePRStats widens the creation date range covered by accepted rows.
func (t *Tracker) UpdatePRStats(createdAt time.Time) {
	if t == nil || createdAt.IsZero() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.results.OldestPR == nil || createdAt.Before(*t.results.OldestPR) {
		c := createdAt
		t.results.OldestPR = &c
	}
	if t.results.NewestPR == nil || createdAt.After(*t.results.NewestPR) {
		c := createdAt
		t.results.NewestPR = &c
	}
}

// Results returns a snapshot of the counters collected so far.
func (t *Tracker) Results() RunResults {
	if t == nil {
		return RunResults{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.results
}

// GenerateMetadata creates the metadata record for the finished run.
func (t *Tracker) GenerateMetadata(toolVersion, command string, params RunParams, resumed bool) *RunMetadata {
	completedAt := time.Now()
	results := t.Results()
	results.StartedAt = t.startTime
	results.CompletedAt = completedAt
	results.Duration = completedAt.Sub(t.startTime).Round(time.Millisecond).String()

	return &RunMetadata{
		ToolVersion: toolVersion,
		RunID:       t.runID,
		Command:     command,
		Parameters:  params,
		Results:     results,
		Resumed:     resumed,
	}
}

// MetadataPath returns the metadata file kept next to a dataset.
func MetadataPath(output string) string {
	return output + ".meta.json"
}

// SaveMetadata persists a RunMetadata record to path. The file is written
// atomically using a temporary file and rename to prevent corruption.
func SaveMetadata(metadata *RunMetadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmpFile := path + ".tmp"
	// #nosec G304 -- metadata path is derived from the operator's output path
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(metadata); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadMetadata reads the metadata saved next to a dataset. It returns nil
// without error when the dataset has no metadata.
func LoadMetadata(path string) (*RunMetadata, error) {
	// #nosec G304 -- metadata path is derived from the operator's input path
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata RunMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}
