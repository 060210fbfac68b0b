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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/prharvest/internal/dataset"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/output"
	"github.com/sirseerhq/prharvest/internal/state"
	"github.com/sirseerhq/prharvest/test/testutil"
)

const repositoriesCSV = `Owner,Name,Stars,Url,CreatedAt,IdadeAnos
o,big,900,https://github.com/o/big,2015-06-01T00:00:00Z,9.75
o,small,800,https://github.com/o/small,2016-06-01T00:00:00Z,8.75
`

func writeConfig(t *testing.T, dir, endpoint string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, "config.yaml", fmt.Sprintf(`github:
  graphql_endpoint: %s
fetch:
  page_delay: 0s
  retry_delay: 1ms
pull_requests:
  repository_delay: 0s
output:
  metadata: true
`, endpoint))
}

func execute(ctx context.Context, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("PRHARVEST_POSTGRES_DSN", "")
	t.Setenv("GITHUB_GRAPHQL_ENDPOINT", "")
	t.Setenv("HOME", t.TempDir())
}

func pullsServer(t *testing.T) *testutil.GitHubServer {
	t.Helper()
	server := testutil.NewGitHubServer(t)
	server.SetPullRequests("o", "big",
		testutil.NewPullRequestBuilder(3).WithChanges(50, 10, 4).Build(),
		testutil.NewPullRequestBuilder(2).WithInteractions(1, 0, 0).Build(),
		testutil.NewPullRequestBuilder(1).Build(),
	)
	server.SetCount("o", "big", 150)
	server.SetPullRequests("o", "small", testutil.NewPullRequestBuilder(1).Build())
	server.SetCount("o", "small", 10)
	return server
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"generic", errors.New("boom"), 1},
		{"missing token", fmt.Errorf("x: %w", apperrors.ErrMissingToken), 2},
		{"invalid token", apperrors.ErrInvalidToken, 2},
		{"input not found", apperrors.ErrInputNotFound, 2},
		{"invalid config", apperrors.ErrInvalidConfig, 2},
		{"network", apperrors.ErrNetworkFailure, 3},
		{"retries exhausted", fmt.Errorf("after 3 attempts: %w: %w", apperrors.ErrRetriesExhausted, apperrors.ErrInvalidToken), 3},
		{"cancelled", fmt.Errorf("fetching: %w", context.Canceled), 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToExitCode(tt.err))
		})
	}
}

func TestReposCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	server := testutil.NewGitHubServer(t)
	for i := 0; i < 3; i++ {
		server.AddRepositories(testutil.NewRepositoryBuilder("org", fmt.Sprintf("r%d", i)).WithStars(1000 - i).Build())
	}
	out := filepath.Join(dir, "data", "repositories.csv")

	_, err := execute(context.Background(),
		"repos", "--config", writeConfig(t, dir, server.Endpoint()), "--token", "t",
		"--max", "2", "--output", out)
	require.NoError(t, err)

	lines := testutil.ReadLines(t, out)
	require.Len(t, lines, 3)
	assert.Equal(t, "Owner,Name,Stars,Url,CreatedAt,IdadeAnos", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "org,r0,1000,https://github.com/org/r0,"))

	md, err := metadata.LoadMetadata(metadata.MetadataPath(out))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "repos", md.Command)
	assert.Equal(t, 2, md.Results.RepositoriesCollected)
	assert.Contains(t, md.Parameters.SearchQuery, "sort:stars-desc")
}

func TestPullsCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	server := pullsServer(t)
	input := testutil.WriteFile(t, dir, "repositories.csv", repositoriesCSV)
	out := filepath.Join(dir, "pull_requests.csv")

	_, err := execute(context.Background(),
		"pulls", "--config", writeConfig(t, dir, server.Endpoint()), "--token", "t",
		"--input", input, "--output", out)
	require.NoError(t, err)

	header, rows, err := dataset.ReadPullRequestTable(out)
	require.NoError(t, err)
	assert.Equal(t, dataset.PullRequestHeader, header)
	require.Len(t, rows, 2, "unreviewed pull request dropped, small repository skipped")
	assert.Equal(t, []string{"o", "big", "3"}, rows[0][:3])
	assert.Equal(t, "15.00", rows[0][14], "lines per file")
	assert.Equal(t, "36.00", rows[0][9], "analysis hours")

	assert.Equal(t, 3, server.RequestCount(), "two pre-checks and one page")
	testutil.AssertFileNotExists(t, state.CheckpointPath(out))
	testutil.AssertFileExists(t, metadata.MetadataPath(out))
}

func TestPullsCommandResume(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	server := pullsServer(t)
	input := testutil.WriteFile(t, dir, "repositories.csv", repositoriesCSV)
	out := filepath.Join(dir, "pull_requests.csv")

	rec, _, err := state.NewRecorder(state.CheckpointPath(out), input, "earlier-run", false)
	require.NoError(t, err)
	require.NoError(t, rec.Record("o/big", state.RepositoryResult{
		Qualified: true,
		Rows:      []dataset.PullRequest{{RepoOwner: "o", RepoName: "big", Number: 99, State: "MERGED", PRStatus: 1, Reviews: 1}},
	}))

	_, err = execute(context.Background(),
		"pulls", "--config", writeConfig(t, dir, server.Endpoint()), "--token", "t",
		"--input", input, "--output", out, "--resume")
	require.NoError(t, err)

	_, rows, err := dataset.ReadPullRequestTable(out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "99", rows[0][2])
	assert.Equal(t, 1, server.RequestCount(), "only the unfinished repository is checked")

	md, err := metadata.LoadMetadata(metadata.MetadataPath(out))
	require.NoError(t, err)
	assert.True(t, md.Resumed)
}

func TestPullsCommandPreconditions(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	server := pullsServer(t)
	cfg := writeConfig(t, dir, server.Endpoint())
	input := testutil.WriteFile(t, dir, "repositories.csv", repositoriesCSV)
	out := filepath.Join(dir, "pull_requests.csv")

	t.Run("missing token", func(t *testing.T) {
		_, err := execute(context.Background(), "pulls", "--config", cfg, "--input", input, "--output", out)
		assert.ErrorIs(t, err, apperrors.ErrMissingToken)
		assert.Equal(t, 2, mapErrorToExitCode(err))
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := execute(context.Background(), "pulls", "--config", cfg, "--token", "t",
			"--input", filepath.Join(dir, "nope.csv"), "--output", out)
		assert.ErrorIs(t, err, apperrors.ErrInputNotFound)
		assert.Equal(t, 2, mapErrorToExitCode(err))
	})

	t.Run("invalid flag value", func(t *testing.T) {
		_, err := execute(context.Background(), "pulls", "--config", cfg, "--token", "t",
			"--input", input, "--workers", "-1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	})

	assert.Zero(t, server.RequestCount(), "no request before preconditions hold")
	testutil.AssertFileNotExists(t, out)
}

func TestPullsCommandCancelled(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	server := pullsServer(t)
	input := testutil.WriteFile(t, dir, "repositories.csv", repositoriesCSV)
	out := filepath.Join(dir, "pull_requests.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := execute(ctx,
		"pulls", "--config", writeConfig(t, dir, server.Endpoint()), "--token", "t",
		"--input", input, "--output", out)
	require.Error(t, err)
	assert.Equal(t, 130, mapErrorToExitCode(err))
	testutil.AssertFileNotExists(t, out)
}

func TestSummarizeCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "pull_requests.csv")
	out := filepath.Join(dir, "summary.csv")

	prs := []dataset.PullRequest{
		{RepoOwner: "o", RepoName: "r", Number: 1, State: "MERGED", PRStatus: 1, FilesChanged: 2, Reviews: 1},
		{RepoOwner: "o", RepoName: "r", Number: 2, State: "CLOSED", PRStatus: 0, FilesChanged: 8, Reviews: 3},
	}
	require.NoError(t, output.WriteFile(input, output.FormatCSV, dataset.PullRequestHeader, prs))

	_, err := execute(context.Background(), "summarize", "--input", input, "--output", out)
	require.NoError(t, err)

	lines := testutil.ReadLines(t, out)
	assert.Equal(t, "Metric,Median,MedianMerged,MedianClosed", lines[0])
	assert.Equal(t, "FilesChanged,5.00,2.00,8.00", lines[1])
	assert.Equal(t, "Reviews,2.00,1.00,3.00", lines[len(lines)-1])
}
