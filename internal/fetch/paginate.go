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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	apperrors "github.com/sirseerhq/prharvest/internal/errors"
	"github.com/sirseerhq/prharvest/internal/giterror"
)

var (
	// ErrNoMoreData is returned by a PageFunc when the entity being paged no
	// longer resolves. Paginate stops and keeps what it has collected.
	ErrNoMoreData = errors.New("no more data")

	// ErrInvalidMax indicates a non-positive maximum was requested.
	ErrInvalidMax = errors.New("max must be a positive integer")
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultPageSize  = 100
	DefaultPageDelay = time.Second
)

// Page is one page of results with its continuation cursor.
type Page[T any] struct {
	Nodes       []T
	HasNextPage bool
	EndCursor   string
}

// PageFunc requests up to first records following cursor. An empty cursor
// requests the first page.
type PageFunc[T any] func(ctx context.Context, cursor string, first int) (*Page[T], error)

// Options configures a pagination run.
type Options struct {
	// PageSize is the preferred number of records per request.
	PageSize int

	// PageDelay is the pause between successful pages. Ignored when Pacer is set.
	PageDelay time.Duration

	Retry RetryPolicy

	// Pacer, when set, spaces every request across all goroutines sharing it.
	Pacer *Pacer

	Logger zerolog.Logger

	// OnPage is called after each page with the number of records collected so far.
	OnPage func(collected int)

	// Label identifies the paged entity in log lines, e.g. "owner/name".
	Label string
}

// Stats counts the work done by one Paginate call.
type Stats struct {
	Pages    int
	Requests int
	Retries  int
}

// Paginate collects up to max records by following cursors from the first
// page. It never issues a request once max records are held, so the result
// has length min(N, max) for a provider holding N records, in provider order.
//
// A failed request is retried with the same cursor per opts.Retry. A PageFunc
// returning ErrNoMoreData ends pagination without error. Context cancellation
// aborts with the context's error and no records.
func Paginate[T any](ctx context.Context, fetchPage PageFunc[T], max int, opts Options) ([]T, Stats, error) {
	var stats Stats
	if max <= 0 {
		return nil, stats, fmt.Errorf("%w: got %d", ErrInvalidMax, max)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	logger := opts.Logger.With().Str("entity", opts.Label).Logger()
	inspector := giterror.NewErrorChainInspector(giterror.NewInspector())

	var (
		out    []T
		cursor string
	)

	for len(out) < max {
		first := min(pageSize, max-len(out))

		page, err := fetchOnce(ctx, fetchPage, cursor, first, opts, logger, inspector, &stats)
		if err != nil {
			if errors.Is(err, ErrNoMoreData) {
				logger.Debug().Int("collected", len(out)).Str("cursor", cursor).Msg("no more data, stopping pagination")
				break
			}
			return nil, stats, err
		}

		stats.Pages++
		out = append(out, page.Nodes...)
		if opts.OnPage != nil {
			opts.OnPage(min(len(out), max))
		}
		logger.Debug().Int("page", stats.Pages).Int("collected", min(len(out), max)).Msg("page fetched")

		if !page.HasNextPage || len(out) >= max {
			break
		}
		if page.EndCursor == "" || page.EndCursor == cursor {
			logger.Warn().Str("cursor", cursor).Msg("provider reported another page without advancing the cursor, stopping")
			break
		}
		cursor = page.EndCursor

		if opts.Pacer == nil {
			delay := opts.PageDelay
			if delay < 0 {
				delay = 0
			}
			if err := Sleep(ctx, delay); err != nil {
				return nil, stats, err
			}
		}
	}

	if len(out) > max {
		out = out[:max]
	}
	return out, stats, nil
}

// fetchOnce issues one page request, retrying it with the same cursor until
// it succeeds or the policy gives up.
func fetchOnce[T any](
	ctx context.Context,
	fetchPage PageFunc[T],
	cursor string,
	first int,
	opts Options,
	logger zerolog.Logger,
	inspector giterror.Inspector,
	stats *Stats,
) (*Page[T], error) {
	var (
		page     *Page[T]
		lastErr  error
		attempts int
	)

	inner := opts.Retry.newBackoff()
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := inner.Next()
		event := logger.Warn()
		if stop {
			event = logger.Error()
		}
		event = event.
			Err(lastErr).
			Int("attempt", attempts).
			Str("cursor", cursor).
			Str("category", string(giterror.Classify(inspector, lastErr)))
		if stop {
			event.Msg("request failed, giving up")
			return delay, stop
		}
		stats.Retries++
		event.Dur("delay", delay).Msg("request failed, retrying")
		return delay, stop
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := opts.Pacer.Wait(ctx); err != nil {
			return err
		}

		stats.Requests++
		p, err := fetchPage(ctx, cursor, first)
		if err != nil {
			if errors.Is(err, ErrNoMoreData) || ctx.Err() != nil {
				return err
			}
			lastErr = err
			return retry.RetryableError(err)
		}
		if p == nil {
			p = &Page[T]{}
		}
		page = p
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if lastErr != nil && errors.Is(err, lastErr) && opts.Retry.Bounded() {
			return nil, fmt.Errorf("after %d attempts: %w: %w", attempts, apperrors.ErrRetriesExhausted, err)
		}
		return nil, err
	}
	return page, nil
}
