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
	"errors"
	"fmt"
	"sync"
	"time"
)

// Recorder persists repository results as a collection progresses.
// It is safe for concurrent use by collector workers.
type Recorder struct {
	mu   sync.Mutex
	path string
	cp   *Checkpoint
	now  func() time.Time
}

// NewRecorder opens the checkpoint at path. With resume set, an existing
// checkpoint for the same input is loaded; otherwise a fresh one is started.
// The returned bool reports whether a previous checkpoint was resumed.
func NewRecorder(path, input, runID string, resume bool) (*Recorder, bool, error) {
	r := &Recorder{path: path, now: time.Now}

	if resume {
		cp, err := LoadCheckpoint(path)
		switch {
		case err == nil:
			if cp.Input != input {
				return nil, false, fmt.Errorf("checkpoint %s was written for input %s, not %s", path, cp.Input, input)
			}
			r.cp = cp
			return r, true, nil
		case errors.Is(err, ErrNoCheckpoint):
			// nothing to resume
		default:
			return nil, false, err
		}
	}

	now := r.now().UTC()
	r.cp = &Checkpoint{
		RunID:        runID,
		Input:        input,
		StartedAt:    now,
		UpdatedAt:    now,
		Repositories: make(map[string]RepositoryResult),
	}
	return r, false, nil
}

// Lookup returns the recorded result for "owner/name".
func (r *Recorder) Lookup(key string) (RepositoryResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.cp.Repositories[key]
	return res, ok
}

// Record stores a finished repository and saves the checkpoint.
func (r *Recorder) Record(key string, res RepositoryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if res.CompletedAt.IsZero() {
		res.CompletedAt = now
	}
	r.cp.Repositories[key] = res
	r.cp.UpdatedAt = now
	return SaveCheckpoint(r.cp, r.path)
}

// Completed returns the number of recorded repositories.
func (r *Recorder) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cp.Repositories)
}

// Remove deletes the checkpoint file once the dataset is safely written.
func (r *Recorder) Remove() error {
	return DeleteCheckpoint(r.path)
}
