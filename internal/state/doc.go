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

// Package state provides atomic checkpoint persistence for resumable pull
// request collection.
//
// After each repository the collector records its outcome: whether it passed
// the threshold pre-check and which rows it produced. A run started with
// --resume replays those results instead of fetching the repositories again.
// Every write is atomic, using a write-to-temp-and-rename pattern, and carries
// a SHA256 checksum and a schema version so a damaged file is rejected rather
// than silently reused.
//
// Example usage:
//
//	rec, resumed, err := state.NewRecorder(state.CheckpointPath("pull_requests.csv"), "repositories.csv", runID, true)
//	if err != nil {
//	    return err
//	}
//	err = rec.Record("golang/go", state.RepositoryResult{Qualified: true, Rows: rows})
package state
