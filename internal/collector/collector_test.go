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
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/prharvest/internal/config"
	"github.com/sirseerhq/prharvest/internal/dataset"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/github"
	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/state"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Fetch.PageDelay = 0
	cfg.Fetch.RetryDelay = time.Millisecond
	cfg.PullRequests.RepositoryDelay = 0
	return cfg
}

// reviewed returns n merged pull requests with one review each, newest first.
func reviewed(n int) []github.PullRequest {
	prs := make([]github.PullRequest, n)
	for i := range prs {
		c := created.Add(time.Duration(n-i) * time.Hour)
		prs[i] = github.PullRequest{
			Number:    n - i,
			State:     github.StateMerged,
			CreatedAt: c,
			MergedAt:  timep(c.Add(time.Hour)),
			Reviews:   1,
		}
	}
	return prs
}

func repo(owner, name string) dataset.Repository {
	return dataset.Repository{Owner: owner, Name: name}
}

type recordingProgress struct {
	mu      sync.Mutex
	skipped []string
	done    []string
	counts  []int
}

func (p *recordingProgress) Collected(label string, n, max int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = append(p.counts, n)
}

func (p *recordingProgress) RepositoryStarted(int, int, string) {}

func (p *recordingProgress) RepositorySkipped(key string, count, threshold int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped = append(p.skipped, key)
}

func (p *recordingProgress) RepositoryDone(key string, accepted, fetched int, resumed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, key)
}

func TestRepositoryCollector(t *testing.T) {
	nodes := make([]github.RepositoryNode, 250)
	for i := range nodes {
		nodes[i] = github.RepositoryNode{
			Owner:     "org",
			Name:      fmt.Sprintf("repo-%03d", i),
			Stars:     10000 - i,
			CreatedAt: time.Date(2013, 5, 10, 0, 0, 0, 0, time.UTC),
		}
	}
	client := github.NewMockClientWithOptions(github.WithRepositories(nodes))

	cfg := testConfig()
	cfg.Repositories.MaxRepositories = 200
	cfg.Repositories.Language = "go"

	tracker := metadata.New()
	progress := &recordingProgress{}
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	c := NewRepositoryCollector(client, cfg,
		WithClock(func() time.Time { return now }),
		WithTracker(tracker),
		WithProgress(progress),
	)
	repos, err := c.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, repos, 200)
	assert.Equal(t, "org/repo-000", repos[0].Key())
	assert.Equal(t, "org/repo-199", repos[199].Key())
	assert.InDelta(t, 142.0/12, repos[0].AgeYears, 1e-9)
	assert.Equal(t, 2, client.SearchCalls, "no request past max")
	assert.Contains(t, client.LastSearch.Query, "language:go")
	assert.Contains(t, client.LastSearch.Query, "sort:stars-desc")
	assert.Equal(t, []int{100, 200}, progress.counts)

	r := tracker.Results()
	assert.Equal(t, 2, r.APICallCount)
	assert.Equal(t, 200, r.RepositoriesCollected)
}

func TestRepositoryCollectorRetriesSearch(t *testing.T) {
	client := github.NewMockClientWithOptions(github.WithRepositories([]github.RepositoryNode{{Owner: "a", Name: "b"}}))
	client.SearchErrors = []error{errors.New("non-200 OK status code: 502 Bad Gateway body: \"\"")}

	repos, err := NewRepositoryCollector(client, testConfig()).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, 2, client.SearchCalls)
}

func TestPullRequestPrecheckThreshold(t *testing.T) {
	client := github.NewMockClientWithOptions(
		github.WithPullRequests("o", "small", reviewed(5)),
		github.WithCount("o", "small", 99),
		github.WithPullRequests("o", "big", reviewed(5)),
		github.WithCount("o", "big", 100),
	)
	progress := &recordingProgress{}
	tracker := metadata.New()

	c := NewPullRequestCollector(client, testConfig(), WithProgress(progress), WithTracker(tracker))
	rows, err := c.Collect(context.Background(), []dataset.Repository{repo("o", "small"), repo("o", "big")})
	require.NoError(t, err)

	assert.Len(t, rows, 5)
	assert.Zero(t, client.FetchCalls["o/small"], "99 resolved pull requests is skipped")
	assert.Equal(t, 1, client.FetchCalls["o/big"], "100 resolved pull requests is processed")
	assert.Equal(t, []string{"o/small"}, progress.skipped)
	assert.Equal(t, []string{"o/big"}, progress.done)

	r := tracker.Results()
	assert.Equal(t, 1, r.RepositoriesSkipped)
	assert.Equal(t, 1, r.RepositoriesProcessed)
}

func TestPullRequestPrecheckFailsClosed(t *testing.T) {
	client := github.NewMockClientWithOptions(github.WithPullRequests("o", "r", reviewed(3)))
	client.CountErrors["o/r"] = errors.New("non-200 OK status code: 502 Bad Gateway body: \"\"")

	rows, err := NewPullRequestCollector(client, testConfig()).Collect(context.Background(), []dataset.Repository{repo("o", "r")})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, client.CountCalls["o/r"], "the pre-check is never retried")
	assert.Zero(t, client.FetchCalls["o/r"])
}

func TestPullRequestPrecheckDisabled(t *testing.T) {
	client := github.NewMockClientWithOptions(github.WithPullRequests("o", "r", reviewed(3)))
	cfg := testConfig()
	cfg.PullRequests.MinResolved = 0

	rows, err := NewPullRequestCollector(client, cfg).Collect(context.Background(), []dataset.Repository{repo("o", "r")})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Zero(t, client.CountCalls["o/r"])
}

func TestPullRequestMaxPerRepository(t *testing.T) {
	client := github.NewMockClientWithOptions(github.WithPullRequests("o", "r", reviewed(150)))
	cfg := testConfig()
	cfg.PullRequests.MaxPerRepository = 100
	cfg.PullRequests.PageSize = 100

	rows, err := NewPullRequestCollector(client, cfg).Collect(context.Background(), []dataset.Repository{repo("o", "r")})
	require.NoError(t, err)
	assert.Len(t, rows, 100)
	assert.Equal(t, 1, client.FetchCalls["o/r"], "a next page is never requested once max is held")
	assert.Equal(t, 150, rows[0].Number, "newest first, as served")
}

func TestPullRequestFilterAndTagging(t *testing.T) {
	prs := reviewed(4)
	prs[1].Reviews = 0
	prs[2].MergedAt = nil
	client := github.NewMockClientWithOptions(
		github.WithPullRequests("o", "r", prs),
		github.WithCount("o", "r", 500),
	)
	tracker := metadata.New()

	rows, err := NewPullRequestCollector(client, testConfig(), WithTracker(tracker)).
		Collect(context.Background(), []dataset.Repository{repo("o", "r")})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "o", row.RepoOwner)
		assert.Equal(t, "r", row.RepoName)
		assert.GreaterOrEqual(t, row.Reviews, 1)
		assert.NotNil(t, row.MergedAt)
	}
	assert.Equal(t, []int{4, 1}, []int{rows[0].Number, rows[1].Number})

	r := tracker.Results()
	assert.Equal(t, 4, r.PullRequestsFetched)
	assert.Equal(t, 2, r.PullRequestsAccepted)
	assert.Equal(t, 2, r.PullRequestsRejected)
}

func TestPullRequestMissingRepositoryEndsGracefully(t *testing.T) {
	client := github.NewMockClientWithOptions(
		github.WithCount("o", "gone", 300),
		github.WithPullRequests("o", "r", reviewed(2)),
	)

	rows, err := NewPullRequestCollector(client, testConfig()).
		Collect(context.Background(), []dataset.Repository{repo("o", "gone"), repo("o", "r")})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, client.FetchCalls["o/gone"], "not found is not retried")
}

func TestPullRequestRetriesExhausted(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	client := github.NewMockClientWithOptions(
		github.WithPullRequests("o", "r", reviewed(2)),
		github.WithCount("o", "r", 100),
		github.WithFetchErrors("o", "r", boom, boom, boom),
	)
	cfg := testConfig()
	cfg.Fetch.MaxAttempts = 2

	_, err := NewPullRequestCollector(client, cfg).Collect(context.Background(), []dataset.Repository{repo("o", "r")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)
	assert.Equal(t, 2, client.FetchCalls["o/r"])
}

func TestPullRequestWorkersKeepInputOrder(t *testing.T) {
	opts := []github.MockClientOption{}
	var input []dataset.Repository
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("r%d", i)
		opts = append(opts, github.WithPullRequests("o", name, reviewed(i+1)))
		input = append(input, repo("o", name))
	}
	client := github.NewMockClientWithOptions(opts...)

	cfg := testConfig()
	cfg.PullRequests.MinResolved = 1
	sequential, err := NewPullRequestCollector(client, cfg).Collect(context.Background(), input)
	require.NoError(t, err)

	cfg.PullRequests.Workers = 3
	cfg.Fetch.PageDelay = time.Millisecond
	concurrent, err := NewPullRequestCollector(client, cfg).Collect(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, concurrent, 21)
	assert.Equal(t, sequential, concurrent)
}

func TestPullRequestRepositoryDelay(t *testing.T) {
	client := github.NewMockClientWithOptions(
		github.WithPullRequests("o", "a", reviewed(1)),
		github.WithPullRequests("o", "b", reviewed(1)),
		github.WithPullRequests("o", "c", reviewed(1)),
	)
	cfg := testConfig()
	cfg.PullRequests.MinResolved = 1
	cfg.PullRequests.RepositoryDelay = 25 * time.Millisecond

	start := time.Now()
	_, err := NewPullRequestCollector(client, cfg).
		Collect(context.Background(), []dataset.Repository{repo("o", "a"), repo("o", "b"), repo("o", "c")})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "delay between repositories only")
}

func TestPullRequestCancelled(t *testing.T) {
	client := github.NewMockClientWithOptions(github.WithPullRequests("o", "r", reviewed(2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		cfg := testConfig()
		cfg.PullRequests.MinResolved = 1
		cfg.PullRequests.Workers = workers

		rows, err := NewPullRequestCollector(client, cfg).Collect(ctx, []dataset.Repository{repo("o", "r")})
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
		assert.Nil(t, rows)
	}
}

func TestPullRequestResumeFromCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pull_requests.csv.checkpoint")

	first, resumed, err := state.NewRecorder(path, "repositories.csv", "run-1", false)
	require.NoError(t, err)
	require.False(t, resumed)

	done, ok := Enrich("o", "a", reviewed(1)[0])
	require.True(t, ok)
	require.NoError(t, first.Record("o/a", state.RepositoryResult{Qualified: true, Rows: []dataset.PullRequest{done}}))
	require.NoError(t, first.Record("o/skipped", state.RepositoryResult{Qualified: false}))

	rec, resumed, err := state.NewRecorder(path, "repositories.csv", "run-2", true)
	require.NoError(t, err)
	require.True(t, resumed)

	client := github.NewMockClientWithOptions(
		github.WithPullRequests("o", "b", reviewed(2)),
		github.WithCount("o", "b", 100),
	)
	tracker := metadata.New()

	rows, err := NewPullRequestCollector(client, testConfig(), WithCheckpoint(rec), WithTracker(tracker)).
		Collect(context.Background(), []dataset.Repository{repo("o", "a"), repo("o", "skipped"), repo("o", "b")})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].RepoName, "restored rows keep input order")
	assert.Equal(t, "b", rows[1].RepoName)
	assert.Zero(t, client.CountCalls["o/a"])
	assert.Zero(t, client.CountCalls["o/skipped"])
	assert.Equal(t, 3, rec.Completed())
	assert.Equal(t, 2, tracker.Results().RepositoriesResumed)
}
