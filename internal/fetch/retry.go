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
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirseerhq/prharvest/internal/config"
)

// DefaultRetryDelay is the pause before a failed request is reissued.
const DefaultRetryDelay = 10 * time.Second

// RetryPolicy describes how a failed page request is retried.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of attempts for one request,
	// including the first. Zero means unbounded.
	MaxAttempts int

	// Delay is the constant pause, or the base of the exponential curve.
	Delay time.Duration

	// Backoff is config.BackoffConstant or config.BackoffExponential.
	Backoff string

	// JitterPercent randomizes each delay by up to +/- this percentage.
	JitterPercent int

	// MaxDelay caps a single delay. Zero leaves delays uncapped.
	MaxDelay time.Duration
}

// PolicyFromConfig builds the retry policy configured under fetch.
func PolicyFromConfig(cfg config.FetchConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   cfg.MaxAttempts,
		Delay:         cfg.RetryDelay,
		Backoff:       cfg.Backoff,
		JitterPercent: cfg.JitterPercent,
		MaxDelay:      cfg.MaxDelay,
	}
}

// Bounded reports whether the policy eventually gives up.
func (p RetryPolicy) Bounded() bool {
	return p.MaxAttempts > 0
}

// newBackoff returns a fresh backoff for a single request. go-retry backoffs
// carry attempt state, so one must never be shared between requests.
func (p RetryPolicy) newBackoff() retry.Backoff {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var b retry.Backoff
	if p.Backoff == config.BackoffExponential {
		b = retry.NewExponential(delay)
	} else {
		b = retry.NewConstant(delay)
	}

	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(uint64(p.JitterPercent), b) // #nosec G115 - validated 0..100
	}
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	if p.MaxAttempts > 0 {
		b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b) // #nosec G115 - validated positive
	}
	return b
}
