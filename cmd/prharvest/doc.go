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

// Package main implements the prharvest command-line interface.
// prharvest builds research datasets from GitHub's GraphQL API in two
// stages, then summarizes them:
//
//   - repos: search popular repositories and write the repository dataset
//   - pulls: collect the reviewed, merged or closed pull requests of every
//     repository in the repository dataset and write the pull request dataset
//   - summarize: compute metric medians of a pull request dataset
//
// Usage:
//
//	prharvest repos [flags]
//	prharvest pulls [flags]
//	prharvest summarize [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	prharvest repos --max 200 --output repositories.csv
//	prharvest pulls --input repositories.csv --output pull_requests.csv
//	prharvest summarize --input pull_requests.csv
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Precondition or authentication error
//   - 3: Network error or retries exhausted
//   - 130: Interrupted
package main
