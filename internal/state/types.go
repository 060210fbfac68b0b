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

package state

import (
	"time"

	"github.com/sirseerhq/prharvest/internal/dataset"
)

// CurrentVersion is the current checkpoint schema version.
// Increment this when making breaking changes to the Checkpoint structure.
const CurrentVersion = 1

// Checkpoint records which repositories a pull request collection has
// finished, so an interrupted run can resume without refetching them.
type Checkpoint struct {
	// Version indicates the schema version of this checkpoint file.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the content (excluding this field).
	// Used to detect corruption or tampering.
	Checksum string `json:"checksum"`

	// RunID identifies the run that created the checkpoint.
	RunID string `json:"run_id"`

	// Input is the repository dataset the run iterates over. A checkpoint
	// is only reused for the same input.
	Input string `json:"input"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Repositories maps "owner/name" to its finished result.
	Repositories map[string]RepositoryResult `json:"repositories"`
}

// RepositoryResult is the outcome of one finished repository.
type RepositoryResult struct {
	// Qualified is false when the threshold pre-check skipped the repository.
	Qualified bool `json:"qualified"`

	// Rows holds the accepted pull requests, in fetch order.
	Rows []dataset.PullRequest `json:"rows,omitempty"`

	CompletedAt time.Time `json:"completed_at"`
}
