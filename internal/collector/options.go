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
	"time"

	"github.com/rs/zerolog"

	"github.com/sirseerhq/prharvest/internal/metadata"
	"github.com/sirseerhq/prharvest/internal/state"
)

// Progress receives user-facing progress as a collection advances.
// Implementations must be safe for concurrent use when workers > 1.
type Progress interface {
	// Collected reports n records held so far for label, out of at most max.
	Collected(label string, n, max int)

	// RepositoryStarted is called before a repository is processed.
	RepositoryStarted(index, total int, key string)

	// RepositorySkipped is called when a repository fails the threshold
	// pre-check. err is set when the pre-check itself failed.
	RepositorySkipped(key string, count, threshold int, err error)

	// RepositoryDone is called once a repository's rows are collected.
	RepositoryDone(key string, accepted, fetched int, resumed bool)
}

// NopProgress discards all progress.
type NopProgress struct{}

// Collected implements Progress.
func (NopProgress) Collected(string, int, int) {}

// RepositoryStarted implements Progress.
func (NopProgress) RepositoryStarted(int, int, string) {}

// RepositorySkipped implements Progress.
func (NopProgress) RepositorySkipped(string, int, int, error) {}

// RepositoryDone implements Progress.
func (NopProgress) RepositoryDone(string, int, int, bool) {}

// Option configures a collector.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	progress Progress
	tracker  *metadata.Tracker
	recorder *state.Recorder
	now      func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:   zerolog.Nop(),
		progress: NopProgress{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProgress sets the progress sink.
func WithProgress(p Progress) Option {
	return func(o *options) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithTracker records run statistics into t.
func WithTracker(t *metadata.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// WithCheckpoint records each finished repository into r and reuses the
// results it already holds.
func WithCheckpoint(r *state.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithClock overrides the time source used to compute repository ages.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
