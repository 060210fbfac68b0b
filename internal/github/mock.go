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

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/sirseerhq/prharvest/internal/errors"
)

// MockClient is a mock implementation of the GitHub Client interface for testing.
// It serves configured data in pages of the requested size using offset cursors,
// and is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Repositories returned by SearchRepositories.
	Repositories []RepositoryNode

	// PullRequests keyed by "owner/name".
	PullRequests map[string][]PullRequest

	// Counts keyed by "owner/name". Missing keys fall back to len(PullRequests[key]).
	Counts map[string]int

	// Scripted failures. Each call pops the first queued error, if any,
	// before serving data.
	SearchErrors []error
	FetchErrors  map[string][]error
	CountErrors  map[string]error

	// Behavior flags
	ShouldFailAuth bool

	// Track calls for verification
	SearchCalls int
	CountCalls  map[string]int
	FetchCalls  map[string]int
	FetchOrder  []string
	LastSearch  SearchOptions
	LastFetch   FetchOptions
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{
		PullRequests: make(map[string][]PullRequest),
		Counts:       make(map[string]int),
		FetchErrors:  make(map[string][]error),
		CountErrors:  make(map[string]error),
		CountCalls:   make(map[string]int),
		FetchCalls:   make(map[string]int),
	}
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithRepositories sets the search results.
func WithRepositories(repos []RepositoryNode) MockClientOption {
	return func(m *MockClient) {
		m.Repositories = repos
	}
}

// WithPullRequests sets the pull requests served for owner/name.
func WithPullRequests(owner, name string, prs []PullRequest) MockClientOption {
	return func(m *MockClient) {
		m.PullRequests[key(owner, name)] = prs
	}
}

// WithCount overrides the resolved pull request count for owner/name.
func WithCount(owner, name string, n int) MockClientOption {
	return func(m *MockClient) {
		m.Counts[key(owner, name)] = n
	}
}

// WithFetchErrors queues errors returned by the next fetches for owner/name.
func WithFetchErrors(owner, name string, errs ...error) MockClientOption {
	return func(m *MockClient) {
		k := key(owner, name)
		m.FetchErrors[k] = append(m.FetchErrors[k], errs...)
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}

// SearchRepositories implements the Client interface
func (m *MockClient) SearchRepositories(ctx context.Context, opts SearchOptions) (*RepositoryPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SearchCalls++
	m.LastSearch = opts

	if err := m.precheck(ctx); err != nil {
		return nil, err
	}
	if len(m.SearchErrors) > 0 {
		err := m.SearchErrors[0]
		m.SearchErrors = m.SearchErrors[1:]
		return nil, err
	}

	start, end, next, err := window(opts.After, opts.First, defaultSearchPageSize, len(m.Repositories))
	if err != nil {
		return nil, err
	}

	page := &RepositoryPage{
		Repositories:    append([]RepositoryNode(nil), m.Repositories[start:end]...),
		HasNextPage:     end < len(m.Repositories),
		EndCursor:       next,
		RepositoryCount: len(m.Repositories),
	}
	return page, nil
}

// CountResolvedPullRequests implements the Client interface
func (m *MockClient) CountResolvedPullRequests(ctx context.Context, owner, repo string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(owner, repo)
	m.CountCalls[k]++

	if err := m.precheck(ctx); err != nil {
		return 0, err
	}
	if err := m.CountErrors[k]; err != nil {
		return 0, err
	}
	if n, ok := m.Counts[k]; ok {
		return n, nil
	}
	prs, ok := m.PullRequests[k]
	if !ok {
		return 0, fmt.Errorf("repository '%s' not found: %w", k, apperrors.ErrRepoNotFound)
	}
	return len(prs), nil
}

// FetchPullRequests implements the Client interface
func (m *MockClient) FetchPullRequests(ctx context.Context, owner, repo string, opts FetchOptions) (*PullRequestPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(owner, repo)
	m.FetchCalls[k]++
	m.FetchOrder = append(m.FetchOrder, k)
	m.LastFetch = opts

	if err := m.precheck(ctx); err != nil {
		return nil, err
	}
	if queued := m.FetchErrors[k]; len(queued) > 0 {
		m.FetchErrors[k] = queued[1:]
		return nil, queued[0]
	}

	prs, ok := m.PullRequests[k]
	if !ok {
		return nil, fmt.Errorf("repository '%s' not found: %w", k, apperrors.ErrRepoNotFound)
	}

	start, end, next, err := window(opts.After, opts.First, defaultPageSize, len(prs))
	if err != nil {
		return nil, err
	}

	return &PullRequestPage{
		PullRequests: append([]PullRequest(nil), prs[start:end]...),
		HasNextPage:  end < len(prs),
		EndCursor:    next,
	}, nil
}

func (m *MockClient) precheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", apperrors.ErrInvalidToken)
	}
	return nil
}

// window resolves an offset cursor into the slice bounds of the next page.
func window(after string, first, def, total int) (start, end int, next string, err error) {
	if after != "" {
		raw, ok := strings.CutPrefix(after, "offset:")
		if !ok {
			return 0, 0, "", fmt.Errorf("invalid cursor %q", after)
		}
		start, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, "", fmt.Errorf("invalid cursor %q: %w", after, err)
		}
	}
	if start > total {
		start = total
	}
	end = start + clampPageSize(first, def)
	if end > total {
		end = total
	}
	return start, end, "offset:" + strconv.Itoa(end), nil
}

func key(owner, name string) string {
	return owner + "/" + name
}
