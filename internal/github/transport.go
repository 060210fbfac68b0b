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
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sirseerhq/prharvest/pkg/version"
)

// maxResponseBytes caps a single GraphQL response body.
const maxResponseBytes = 10 * 1024 * 1024

// maxErrorBodyBytes caps the body kept on a StatusError.
const maxErrorBodyBytes = 4 * 1024

// StatusError is a GraphQL response with a status other than 200 OK.
// GitHub reports query errors, including unknown repositories, inside a
// 200 response, so a StatusError is always a failed request and never a
// statement about the repository.
type StatusError struct {
	StatusCode  int
	Status      string
	Body        string
	RateLimited bool
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("github returned %s", e.Status)
	}
	return fmt.Sprintf("github returned %s: %s", e.Status, e.Body)
}

// IsRateLimitError reports a primary or secondary rate limit.
func (e *StatusError) IsRateLimitError() bool {
	return e.RateLimited
}

// IsAuthError reports a rejected or under-scoped token.
func (e *StatusError) IsAuthError() bool {
	return !e.RateLimited && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// statusTransport turns non-200 responses into a *StatusError so they never
// reach the message inspector.
type statusTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil, &StatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Body:        strings.TrimSpace(string(body)),
		RateLimited: isRateLimited(resp, body),
	}
}

// isRateLimited follows GitHub's documented signals: 429, or 403 with an
// exhausted quota, a Retry-After header or a rate limit message.
func isRateLimited(resp *http.Response, body []byte) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != "" {
			return true
		}
		return strings.Contains(strings.ToLower(string(body)), "rate limit")
	}
	return false
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// authTransport adds authentication header and safety limits to HTTP requests
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("User-Agent", fmt.Sprintf("prharvest/%s", version.Version))

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// rateLimitTransport reports GitHub's rate-limit headers. It never waits or
// retries on its own; pacing and retry belong to the fetch loop.
type rateLimitTransport struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

func newRateLimitTransport(base http.RoundTripper, logger zerolog.Logger) http.RoundTripper {
	return &rateLimitTransport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	remaining, okRemaining := headerInt(resp.Header, "X-RateLimit-Remaining")
	if !okRemaining {
		return resp, nil
	}

	event := t.logger.Debug()
	if remaining == 0 {
		event = t.logger.Warn()
	}
	if limit, ok := headerInt(resp.Header, "X-RateLimit-Limit"); ok {
		event = event.Int("limit", limit)
	}
	if reset, ok := headerInt(resp.Header, "X-RateLimit-Reset"); ok {
		event = event.Time("reset", time.Unix(int64(reset), 0).UTC())
	}
	event.Int("remaining", remaining).Int("status", resp.StatusCode).Msg("github rate limit")

	return resp, nil
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := h.Get(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
