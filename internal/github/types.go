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

package github

import "time"

// Pull request states requested by the collectors. Open pull requests are
// never fetched.
const (
	StateMerged = "MERGED"
	StateClosed = "CLOSED"
)

// RepositoryNode is one repository returned by the search endpoint.
type RepositoryNode struct {
	Owner     string
	Name      string
	URL       string
	Stars     int
	CreatedAt time.Time
}

// RepositoryPage represents one page of repository search results.
type RepositoryPage struct {
	Repositories []RepositoryNode
	HasNextPage  bool
	EndCursor    string
	// RepositoryCount is the total number of matches reported by the search.
	RepositoryCount int
}

// SearchOptions configures a single repository search request.
type SearchOptions struct {
	// Query uses GitHub's search syntax, e.g. "stars:>100 sort:stars-desc".
	Query string

	// First is the page size. Defaults to 100 if not specified.
	First int

	// After is the cursor for pagination. Empty string fetches from the beginning.
	After string
}

// PullRequest is a merged or closed pull request exactly as GitHub reports it.
// Nullable fields stay pointers so the enricher can tell "absent" from zero.
type PullRequest struct {
	Number       int
	Title        string
	Body         *string
	State        string
	CreatedAt    time.Time
	ClosedAt     *time.Time
	MergedAt     *time.Time
	Additions    *int
	Deletions    *int
	ChangedFiles *int
	Participants int
	Comments     int
	Reviews      int
}

// PullRequestPage represents a page of pull requests from a GraphQL query.
type PullRequestPage struct {
	PullRequests []PullRequest
	HasNextPage  bool
	EndCursor    string
}

// FetchOptions configures how pull requests are fetched.
type FetchOptions struct {
	// First controls how many PRs to fetch per page.
	// Defaults to 50 if not specified. Maximum is 100 per GitHub's API limits.
	First int

	// After is the cursor for pagination.
	// Use PullRequestPage.EndCursor from previous response for next page.
	After string
}

// Default values for fetch operations
const (
	defaultPageSize       = 50
	defaultSearchPageSize = 100
	maxPageSize           = 100
)

func clampPageSize(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
