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

package testutil

import (
	"fmt"
	"time"
)

// PullRequestBuilder provides a fluent API for creating pull request nodes
// as the GitHub GraphQL API returns them.
type PullRequestBuilder struct {
	number       int
	title        string
	state        string
	body         *string
	createdAt    time.Time
	mergedAt     *time.Time
	closedAt     *time.Time
	additions    *int
	deletions    *int
	changedFiles *int
	participants int
	comments     int
	reviews      int
}

// NewPullRequestBuilder creates a merged, reviewed pull request with defaults.
func NewPullRequestBuilder(number int) *PullRequestBuilder {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(number) * time.Hour)
	merged := created.Add(36 * time.Hour)
	body := fmt.Sprintf("Body of PR %d", number)
	additions, deletions, files := 10, 5, 2
	return &PullRequestBuilder{
		number:       number,
		title:        fmt.Sprintf("PR %d", number),
		state:        "MERGED",
		body:         &body,
		createdAt:    created,
		mergedAt:     &merged,
		closedAt:     &merged,
		additions:    &additions,
		deletions:    &deletions,
		changedFiles: &files,
		participants: 2,
		comments:     1,
		reviews:      1,
	}
}

// WithTitle sets the PR title
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithBody sets the PR description. An empty body is sent as null.
func (b *PullRequestBuilder) WithBody(body string) *PullRequestBuilder {
	if body == "" {
		b.body = nil
		return b
	}
	b.body = &body
	return b
}

// WithCreatedAt sets when the PR was created
func (b *PullRequestBuilder) WithCreatedAt(t time.Time) *PullRequestBuilder {
	b.createdAt = t
	return b
}

// WithMergedAt marks the PR as merged at the given time
func (b *PullRequestBuilder) WithMergedAt(t time.Time) *PullRequestBuilder {
	b.mergedAt = &t
	b.closedAt = &t
	b.state = "MERGED"
	return b
}

// WithClosedAt marks the PR as closed without merging at the given time
func (b *PullRequestBuilder) WithClosedAt(t time.Time) *PullRequestBuilder {
	b.closedAt = &t
	b.mergedAt = nil
	b.state = "CLOSED"
	return b
}

// WithoutEnd clears both end timestamps.
func (b *PullRequestBuilder) WithoutEnd() *PullRequestBuilder {
	b.closedAt = nil
	b.mergedAt = nil
	return b
}

// WithChanges sets the additions/deletions/files
func (b *PullRequestBuilder) WithChanges(additions, deletions, files int) *PullRequestBuilder {
	b.additions = &additions
	b.deletions = &deletions
	b.changedFiles = &files
	return b
}

// WithInteractions sets the participant, comment and review counts.
func (b *PullRequestBuilder) WithInteractions(participants, comments, reviews int) *PullRequestBuilder {
	b.participants = participants
	b.comments = comments
	b.reviews = reviews
	return b
}

// Build creates the PR node
func (b *PullRequestBuilder) Build() map[string]interface{} {
	return map[string]interface{}{
		"number":       b.number,
		"title":        b.title,
		"body":         optional(b.body),
		"state":        b.state,
		"createdAt":    b.createdAt.Format(time.RFC3339),
		"closedAt":     optionalTime(b.closedAt),
		"mergedAt":     optionalTime(b.mergedAt),
		"additions":    optional(b.additions),
		"deletions":    optional(b.deletions),
		"changedFiles": optional(b.changedFiles),
		"participants": map[string]interface{}{"totalCount": b.participants},
		"comments":     map[string]interface{}{"totalCount": b.comments},
		"reviews":      map[string]interface{}{"totalCount": b.reviews},
	}
}

// RepositoryBuilder creates repository search nodes.
type RepositoryBuilder struct {
	owner     string
	name      string
	stars     int
	createdAt time.Time
}

// NewRepositoryBuilder creates a repository node with defaults.
func NewRepositoryBuilder(owner, name string) *RepositoryBuilder {
	return &RepositoryBuilder{
		owner:     owner,
		name:      name,
		stars:     1000,
		createdAt: time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithStars sets the stargazer count.
func (b *RepositoryBuilder) WithStars(n int) *RepositoryBuilder {
	b.stars = n
	return b
}

// WithCreatedAt sets when the repository was created.
func (b *RepositoryBuilder) WithCreatedAt(t time.Time) *RepositoryBuilder {
	b.createdAt = t
	return b
}

// Build creates the repository node
func (b *RepositoryBuilder) Build() map[string]interface{} {
	return map[string]interface{}{
		"name":           b.name,
		"url":            fmt.Sprintf("https://github.com/%s/%s", b.owner, b.name),
		"owner":          map[string]interface{}{"login": b.owner},
		"stargazerCount": b.stars,
		"createdAt":      b.createdAt.Format(time.RFC3339),
	}
}

// SearchResponse builds a repository search response.
func SearchResponse(nodes []map[string]interface{}, total int, hasNext bool, cursor string) map[string]interface{} {
	return data(map[string]interface{}{
		"search": map[string]interface{}{
			"repositoryCount": total,
			"pageInfo":        pageInfo(hasNext, cursor),
			"nodes":           nodes,
		},
	})
}

// PullRequestsResponse builds a pull request page response.
func PullRequestsResponse(nodes []map[string]interface{}, hasNext bool, cursor string) map[string]interface{} {
	return data(map[string]interface{}{
		"repository": map[string]interface{}{
			"pullRequests": map[string]interface{}{
				"pageInfo": pageInfo(hasNext, cursor),
				"nodes":    nodes,
			},
		},
	})
}

// CountResponse builds a threshold pre-check response.
func CountResponse(total int) map[string]interface{} {
	return data(map[string]interface{}{
		"repository": map[string]interface{}{
			"pullRequests": map[string]interface{}{"totalCount": total},
		},
	})
}

// NotFoundResponse builds the response GitHub sends for an unknown repository.
func NotFoundResponse(owner, name string) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{"repository": nil},
		"errors": []map[string]interface{}{{
			"type":    "NOT_FOUND",
			"message": fmt.Sprintf("Could not resolve to a Repository with the name '%s/%s'.", owner, name),
		}},
	}
}

// ErrorResponse builds a response carrying only GraphQL errors.
func ErrorResponse(messages ...string) map[string]interface{} {
	errs := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]interface{}{"message": m})
	}
	return map[string]interface{}{"errors": errs}
}

func data(d map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"data": d}
}

func pageInfo(hasNext bool, cursor string) map[string]interface{} {
	var c interface{}
	if cursor != "" {
		c = cursor
	}
	return map[string]interface{}{"hasNextPage": hasNext, "endCursor": c}
}

func optional[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
