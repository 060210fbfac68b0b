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

// Package output writes datasets as CSV (a header row, then one row per
// record) or NDJSON (one JSON object per line).
//
// Collectors hold every row in memory and persist once at the end, so the
// usual entry point is WriteFile, which replaces the destination atomically:
//
//	err := output.WriteFile("pull_requests.csv", output.FormatCSV, dataset.PullRequestHeader, rows)
//
// The streaming writers returned by New are safe for concurrent use.
package output
