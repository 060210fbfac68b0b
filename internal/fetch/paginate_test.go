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

package fetch

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/prharvest/internal/config"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
)

type request struct {
	cursor string
	first  int
}

// provider serves 0..total-1 in pages addressed by offset cursors.
type provider struct {
	mu       sync.Mutex
	total    int
	requests []request
	// failures maps a request index to the error returned for it.
	failures map[int]error
	// alwaysMore reports HasNextPage even on the last record.
	alwaysMore bool
}

func (p *provider) page(ctx context.Context, cursor string, first int) (*Page[int], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.requests)
	p.requests = append(p.requests, request{cursor: cursor, first: first})
	if err, ok := p.failures[idx]; ok {
		return nil, err
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+first, p.total)

	nodes := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		nodes = append(nodes, i)
	}
	return &Page[int]{
		Nodes:       nodes,
		HasNextPage: end < p.total || p.alwaysMore,
		EndCursor:   strconv.Itoa(end),
	}, nil
}

func fastOptions(pageSize int) Options {
	return Options{
		PageSize: pageSize,
		Retry:    RetryPolicy{Delay: time.Millisecond},
	}
}

func sequence(n int) []int {
	if n == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginateLengthIsMinOfAvailableAndMax(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		max       int
		pageSize  int
		wantFirst []int
	}{
		{"more available than max", 250, 200, 100, []int{100, 100}},
		{"fewer available than max", 50, 200, 100, []int{100}},
		{"exact multiple", 200, 200, 100, []int{100, 100}},
		{"last request shrinks to remaining", 500, 70, 30, []int{30, 30, 10}},
		{"empty provider", 0, 10, 100, []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &provider{total: tt.total}

			got, stats, err := Paginate(context.Background(), p.page, tt.max, fastOptions(tt.pageSize))
			require.NoError(t, err)

			want := min(tt.total, tt.max)
			assert.Equal(t, sequence(want), got, "provider order, no duplicates")

			var firsts []int
			for _, r := range p.requests {
				firsts = append(firsts, r.first)
			}
			assert.Equal(t, tt.wantFirst, firsts)
			assert.Equal(t, len(tt.wantFirst), stats.Pages)
			assert.Equal(t, len(tt.wantFirst), stats.Requests)
		})
	}
}

func TestPaginateStopsAtMaxEvenWithNextPage(t *testing.T) {
	p := &provider{total: 100, alwaysMore: true}

	got, _, err := Paginate(context.Background(), p.page, 100, fastOptions(100))
	require.NoError(t, err)
	assert.Len(t, got, 100)
	assert.Len(t, p.requests, 1, "no request may be issued once max is reached")
}

func TestPaginateFollowsCursors(t *testing.T) {
	p := &provider{total: 25}

	_, _, err := Paginate(context.Background(), p.page, 100, fastOptions(10))
	require.NoError(t, err)

	require.Len(t, p.requests, 3)
	assert.Equal(t, "", p.requests[0].cursor)
	assert.Equal(t, "10", p.requests[1].cursor)
	assert.Equal(t, "20", p.requests[2].cursor)
}

func TestPaginateRetriesSameCursor(t *testing.T) {
	boom := errors.New("non-200 OK status code: 502 Bad Gateway body: \"\"")
	p := &provider{total: 30, failures: map[int]error{1: boom, 2: boom}}

	var logs bytes.Buffer
	opts := fastOptions(10)
	opts.Logger = zerolog.New(&logs)
	opts.Label = "octocat/hello"

	got, stats, err := Paginate(context.Background(), p.page, 30, opts)
	require.NoError(t, err)
	assert.Equal(t, sequence(30), got)

	require.Len(t, p.requests, 5)
	assert.Equal(t, "10", p.requests[1].cursor)
	assert.Equal(t, "10", p.requests[2].cursor, "retry reissues the same cursor")
	assert.Equal(t, "10", p.requests[3].cursor)
	assert.Equal(t, 2, stats.Retries)
	assert.Equal(t, 3, stats.Pages)

	out := logs.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, `"cursor":"10"`)
	assert.Contains(t, out, `"category":"server"`)
	assert.Contains(t, out, `"entity":"octocat/hello"`)
}

func TestPaginateBoundedRetryExhaustion(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	p := &provider{total: 30, failures: map[int]error{0: boom, 1: boom, 2: boom}}

	opts := fastOptions(10)
	opts.Retry.MaxAttempts = 3

	got, _, err := Paginate(context.Background(), p.page, 30, opts)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, p.requests, 3)
}

func TestPaginateNoMoreDataKeepsCollected(t *testing.T) {
	p := &provider{total: 30, failures: map[int]error{1: ErrNoMoreData}}

	got, _, err := Paginate(context.Background(), p.page, 30, fastOptions(10))
	require.NoError(t, err)
	assert.Equal(t, sequence(10), got)
	assert.Len(t, p.requests, 2, "no more data is not retried")
}

func TestPaginateInvalidMax(t *testing.T) {
	p := &provider{total: 10}
	for _, max := range []int{0, -1} {
		_, _, err := Paginate(context.Background(), p.page, max, fastOptions(10))
		assert.ErrorIs(t, err, ErrInvalidMax)
	}
	assert.Empty(t, p.requests)
}

func TestPaginateCancelledDuringRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	fn := func(ctx context.Context, cursor string, first int) (*Page[int], error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil, errors.New("502 Bad Gateway")
	}

	opts := fastOptions(10)
	got, _, err := Paginate(ctx, fn, 10, opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestPaginateStopsOnStuckCursor(t *testing.T) {
	var calls int
	fn := func(ctx context.Context, cursor string, first int) (*Page[int], error) {
		calls++
		return &Page[int]{Nodes: []int{calls}, HasNextPage: true, EndCursor: "same"}, nil
	}

	got, _, err := Paginate(context.Background(), fn, 10, fastOptions(1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, calls)
}

func TestPaginateTruncatesOversizedPage(t *testing.T) {
	fn := func(ctx context.Context, cursor string, first int) (*Page[int], error) {
		return &Page[int]{Nodes: sequence(first + 5), HasNextPage: true, EndCursor: "x"}, nil
	}

	got, _, err := Paginate(context.Background(), fn, 7, fastOptions(10))
	require.NoError(t, err)
	assert.Equal(t, sequence(7), got)
}

func TestPaginatePageDelayBetweenPagesOnly(t *testing.T) {
	p := &provider{total: 30}
	opts := fastOptions(10)
	opts.PageDelay = 20 * time.Millisecond

	var progress []int
	opts.OnPage = func(n int) { progress = append(progress, n) }

	start := time.Now()
	_, _, err := Paginate(context.Background(), p.page, 30, opts)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, []int{10, 20, 30}, progress)
}

func TestRetryPolicyBackoff(t *testing.T) {
	t.Run("bounded stops after max attempts", func(t *testing.T) {
		b := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}.newBackoff()
		for i := 0; i < 2; i++ {
			d, stop := b.Next()
			assert.False(t, stop)
			assert.Equal(t, time.Millisecond, d)
		}
		_, stop := b.Next()
		assert.True(t, stop)
	})

	t.Run("unbounded never stops", func(t *testing.T) {
		b := RetryPolicy{Delay: time.Second}.newBackoff()
		for i := 0; i < 1000; i++ {
			_, stop := b.Next()
			require.False(t, stop)
		}
	})

	t.Run("exponential is capped", func(t *testing.T) {
		b := RetryPolicy{Delay: time.Second, Backoff: config.BackoffExponential, MaxDelay: 3 * time.Second}.newBackoff()
		var delays []time.Duration
		for i := 0; i < 4; i++ {
			d, _ := b.Next()
			delays = append(delays, d)
		}
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, delays)
	})

	t.Run("zero delay falls back to default", func(t *testing.T) {
		d, _ := RetryPolicy{}.newBackoff().Next()
		assert.Equal(t, DefaultRetryDelay, d)
	})
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Fetch
	p := PolicyFromConfig(cfg)

	assert.False(t, p.Bounded(), "default policy retries forever")
	assert.Equal(t, 10*time.Second, p.Delay)
	assert.Equal(t, config.BackoffConstant, p.Backoff)
}
