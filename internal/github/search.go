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
	"strings"
	"time"

	"github.com/shurcooL/graphql"
)

// BuildSearchQuery constructs a GitHub repository search query.
// It appends a language qualifier when one is given and the base query does
// not already carry one, and defaults the ordering to stars descending.
func BuildSearchQuery(base, language string) string {
	parts := strings.Fields(base)

	hasLanguage := false
	hasSort := false
	for _, p := range parts {
		lower := strings.ToLower(p)
		if strings.HasPrefix(lower, "language:") {
			hasLanguage = true
		}
		if strings.HasPrefix(lower, "sort:") {
			hasSort = true
		}
	}

	if language != "" && !hasLanguage {
		parts = append(parts, "language:"+language)
	}
	if !hasSort {
		parts = append(parts, "sort:stars-desc")
	}

	return strings.Join(parts, " ")
}

// SearchRepositories pages through GitHub's repository search.
// Non-repository nodes are never selected, so every node maps to a RepositoryNode.
func (c *GraphQLClient) SearchRepositories(ctx context.Context, opts SearchOptions) (*RepositoryPage, error) {
	var query struct {
		Search struct {
			RepositoryCount graphql.Int
			PageInfo        struct {
				HasNextPage graphql.Boolean
				EndCursor   *graphql.String
			}
			Nodes []struct {
				Repository struct {
					Name  graphql.String
					URL   graphql.String
					Owner struct {
						Login graphql.String
					}
					StargazerCount graphql.Int
					CreatedAt      time.Time
				} `graphql:"... on Repository"`
			}
		} `graphql:"search(query: $query, type: REPOSITORY, first: $first, after: $after)"`
	}

	variables := map[string]interface{}{
		"query": graphql.String(opts.Query),
		"first": graphql.Int(int32(clampPageSize(opts.First, defaultSearchPageSize))), // #nosec G115 - capped at 100
		"after": cursorVariable(opts.After),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, "", "")
	}

	page := &RepositoryPage{
		HasNextPage:     bool(query.Search.PageInfo.HasNextPage),
		EndCursor:       stringValue(query.Search.PageInfo.EndCursor),
		RepositoryCount: int(query.Search.RepositoryCount),
		Repositories:    make([]RepositoryNode, 0, len(query.Search.Nodes)),
	}

	for _, node := range query.Search.Nodes {
		r := node.Repository
		page.Repositories = append(page.Repositories, RepositoryNode{
			Owner:     string(r.Owner.Login),
			Name:      string(r.Name),
			URL:       string(r.URL),
			Stars:     int(r.StargazerCount),
			CreatedAt: r.CreatedAt,
		})
	}

	return page, nil
}
