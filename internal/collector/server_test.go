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

package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/prharvest/internal/dataset"
	"github.com/sirseerhq/prharvest/internal/github"
	"github.com/sirseerhq/prharvest/test/testutil"
)

// Pages are fetched from a real GraphQL client so status codes and
// response bodies go through the same error mapping as production.
func TestPullRequestTransientStatusMidPagination(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "502 with 404 in request id",
			status: http.StatusBadGateway,
			body:   `{"errors":[{"message":"Something went wrong while executing your query. Please include ` + "`C0A4:4041:1A2B3C`" + ` when reporting this issue."}]}`,
		},
		{
			name:   "plain 404",
			status: http.StatusNotFound,
			body:   `{"message":"Not Found"}`,
		},
		{
			name:   "503",
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewGitHubServer(t)
			nodes := make([]map[string]interface{}, 150)
			for i := range nodes {
				nodes[i] = testutil.NewPullRequestBuilder(150 - i).Build()
			}
			server.SetPullRequests("o", "r", nodes...)
			server.FailRequest(2, tt.status, tt.body)

			cfg := testConfig()
			cfg.PullRequests.MinResolved = 0
			cfg.PullRequests.MaxPerRepository = 150
			cfg.PullRequests.PageSize = 100

			client := github.NewGraphQLClient("test-token", server.Endpoint())
			rows, err := NewPullRequestCollector(client, cfg).
				Collect(context.Background(), []dataset.Repository{repo("o", "r")})
			require.NoError(t, err)
			assert.Len(t, rows, 150, "a failed page is retried, not treated as the end of the repository")

			requests := server.Requests()
			require.Len(t, requests, 3)
			assert.Equal(t, "offset:100", requests[1].Variables["after"])
			assert.Equal(t, requests[1].Variables["after"], requests[2].Variables["after"], "retry reuses the cursor")
		})
	}
}

func TestPullRequestUnknownRepositoryFromServer(t *testing.T) {
	server := testutil.NewGitHubServer(t)
	server.SetPullRequests("o", "r", testutil.NewPullRequestBuilder(1).Build())

	cfg := testConfig()
	cfg.PullRequests.MinResolved = 0

	client := github.NewGraphQLClient("test-token", server.Endpoint())
	rows, err := NewPullRequestCollector(client, cfg).
		Collect(context.Background(), []dataset.Repository{repo("o", "gone"), repo("o", "r")})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, server.RequestCount(), "an unresolved repository is not retried")
}
