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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shurcooL/graphql"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/giterror"
)

// GraphQLClient implements the GitHub Client interface using GraphQL API.
type GraphQLClient struct {
	client    *graphql.Client
	inspector giterror.Inspector
}

// ClientOption configures a GraphQLClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger zerolog.Logger
	base   http.RoundTripper
}

// WithLogger sets the logger used to report rate-limit headers.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.base = rt }
}

// NewGraphQLClient creates a new GitHub GraphQL client with the provided token and endpoint.
// The client is configured with:
//   - Authentication via the provided token
//   - Custom GraphQL endpoint URL (e.g., for GitHub Enterprise)
//   - Response size limiting to prevent memory issues
//   - User-Agent header for API compliance
//   - Rate-limit header logging at debug level
func NewGraphQLClient(token, endpoint string, opts ...ClientOption) *GraphQLClient {
	o := clientOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.base == nil {
		o.base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	httpClient := &http.Client{
		Transport: &statusTransport{base: newRateLimitTransport(&authTransport{token: token, base: o.base}, o.logger)},
		Timeout:   60 * time.Second,
	}

	return &GraphQLClient{
		client:    graphql.NewClient(endpoint, httpClient),
		inspector: giterror.NewErrorChainInspector(giterror.NewInspector()),
	}
}

// CountResolvedPullRequests runs the threshold pre-check query: the total
// number of merged and closed pull requests, without fetching any node.
func (c *GraphQLClient) CountResolvedPullRequests(ctx context.Context, owner, repo string) (int, error) {
	var query struct {
		Repository *struct {
			PullRequests struct {
				TotalCount graphql.Int
			} `graphql:"pullRequests(states: [MERGED, CLOSED])"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"name":  graphql.String(repo),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return 0, c.mapError(err, owner, repo)
	}
	if query.Repository == nil {
		return 0, fmt.Errorf("repository '%s/%s' resolved to null: %w", owner, repo, apperrors.ErrRepoNotFound)
	}

	return int(query.Repository.PullRequests.TotalCount), nil
}

// pullRequestNode mirrors the fields selected for each pull request.
type pullRequestNode struct {
	Number       graphql.Int
	Title        graphql.String
	Body         *graphql.String
	State        graphql.String
	CreatedAt    time.Time
	ClosedAt     *time.Time
	MergedAt     *time.Time
	Additions    *graphql.Int
	Deletions    *graphql.Int
	ChangedFiles *graphql.Int
	Participants struct {
		TotalCount graphql.Int
	}
	Comments struct {
		TotalCount graphql.Int
	}
	Reviews struct {
		TotalCount graphql.Int
	}
}

// FetchPullRequests fetches a page of merged and closed pull requests, newest
// first. A repository that resolves to null is reported as ErrRepoNotFound.
func (c *GraphQLClient) FetchPullRequests(ctx context.Context, owner, repo string, opts FetchOptions) (*PullRequestPage, error) {
	var query struct {
		Repository *struct {
			PullRequests struct {
				PageInfo struct {
					HasNextPage graphql.Boolean
					EndCursor   *graphql.String
				}
				Nodes []pullRequestNode
			} `graphql:"pullRequests(states: [MERGED, CLOSED], first: $first, after: $after, orderBy: {field: CREATED_AT, direction: DESC})"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"name":  graphql.String(repo),
		"first": graphql.Int(int32(clampPageSize(opts.First, defaultPageSize))), // #nosec G115 - capped at 100
		"after": cursorVariable(opts.After),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, owner, repo)
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("repository '%s/%s' resolved to null: %w", owner, repo, apperrors.ErrRepoNotFound)
	}

	conn := query.Repository.PullRequests
	page := &PullRequestPage{
		HasNextPage:  bool(conn.PageInfo.HasNextPage),
		EndCursor:    stringValue(conn.PageInfo.EndCursor),
		PullRequests: make([]PullRequest, 0, len(conn.Nodes)),
	}
	for i := range conn.Nodes {
		page.PullRequests = append(page.PullRequests, convertPullRequest(&conn.Nodes[i]))
	}

	return page, nil
}

// convertPullRequest converts a GraphQL pull request node to our domain model.
func convertPullRequest(n *pullRequestNode) PullRequest {
	pr := PullRequest{
		Number:       int(n.Number),
		Title:        string(n.Title),
		State:        string(n.State),
		CreatedAt:    n.CreatedAt,
		ClosedAt:     n.ClosedAt,
		MergedAt:     n.MergedAt,
		Additions:    intPtr(n.Additions),
		Deletions:    intPtr(n.Deletions),
		ChangedFiles: intPtr(n.ChangedFiles),
		Participants: int(n.Participants.TotalCount),
		Comments:     int(n.Comments.TotalCount),
		Reviews:      int(n.Reviews.TotalCount),
	}
	if n.Body != nil {
		body := string(*n.Body)
		pr.Body = &body
	}
	return pr
}

// cursorVariable declares $after as a nullable String so the first page can
// be requested with the same query document as the following ones.
func cursorVariable(after string) *graphql.String {
	if after == "" {
		return nil
	}
	return graphql.NewString(graphql.String(after))
}

func stringValue(s *graphql.String) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func intPtr(i *graphql.Int) *int {
	if i == nil {
		return nil
	}
	v := int(*i)
	return &v
}

// mapError maps GraphQL errors to our domain errors with actionable messages.
// The original error stays in the chain so callers can log its text.
// Only GraphQL errors for a repository query can mean ErrRepoNotFound; a
// non-200 status is classified from the status alone.
func (c *GraphQLClient) mapError(err error, owner, repo string) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.IsRateLimitError():
			return fmt.Errorf("GitHub API rate limit exceeded: %w: %w", apperrors.ErrRateLimit, err)
		case statusErr.IsAuthError():
			return fmt.Errorf("GitHub API authentication failed, provide a valid token via --token or GITHUB_TOKEN: %w: %w", apperrors.ErrInvalidToken, err)
		default:
			return fmt.Errorf("GitHub API returned HTTP %d: %w", statusErr.StatusCode, err)
		}
	}

	switch giterror.Classify(c.inspector, err) {
	case giterror.CategoryRateLimit:
		return fmt.Errorf("GitHub API rate limit exceeded: %w: %w", apperrors.ErrRateLimit, err)
	case giterror.CategoryAuth:
		return fmt.Errorf("GitHub API authentication failed, provide a valid token via --token or GITHUB_TOKEN: %w: %w", apperrors.ErrInvalidToken, err)
	case giterror.CategoryNotFound:
		if owner != "" {
			return fmt.Errorf("repository '%s/%s' not found: %w: %w", owner, repo, apperrors.ErrRepoNotFound, err)
		}
	case giterror.CategoryComplexity:
		return fmt.Errorf("GraphQL query complexity exceeded, reducing page size may help: %w: %w", apperrors.ErrQueryComplexity, err)
	case giterror.CategoryNetwork:
		return fmt.Errorf("network error connecting to GitHub API: %w: %w", apperrors.ErrNetworkFailure, err)
	}
	return fmt.Errorf("graphql request failed: %w", err)
}
