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

// Package testutil provides a fake GitHub GraphQL server and response
// builders for prharvest tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// GraphQLRequest is a decoded GraphQL request body.
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// GitHubServer fakes the three queries prharvest sends: repository search,
// the resolved pull request count, and pull request pages. Data is served
// in pages of the requested size using offset cursors.
type GitHubServer struct {
	*httptest.Server

	mu           sync.Mutex
	repositories []map[string]interface{}
	pullRequests map[string][]map[string]interface{}
	counts       map[string]int
	failures     int
	failStatus   int
	scripted     map[int]failure
	requests     []GraphQLRequest
	requestCount int32
}

type failure struct {
	status int
	body   string
}

// NewGitHubServer starts a fake server that is closed when the test ends.
func NewGitHubServer(t *testing.T) *GitHubServer {
	t.Helper()
	s := &GitHubServer{
		pullRequests: make(map[string][]map[string]interface{}),
		counts:       make(map[string]int),
		scripted:     make(map[int]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the GraphQL endpoint URL.
func (s *GitHubServer) Endpoint() string {
	return s.URL + "/graphql"
}

// AddRepositories appends search results.
func (s *GitHubServer) AddRepositories(nodes ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repositories = append(s.repositories, nodes...)
}

// SetPullRequests sets the pull requests of owner/name, newest first.
func (s *GitHubServer) SetPullRequests(owner, name string, nodes ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pullRequests[owner+"/"+name] = nodes
}

// SetCount overrides the resolved count reported for owner/name.
func (s *GitHubServer) SetCount(owner, name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[owner+"/"+name] = n
}

// FailNext makes the next n requests fail with status.
func (s *GitHubServer) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.failStatus = status
}

// FailRequest makes the n-th GraphQL request (1-based) fail with status and
// body. An empty body sends the status text.
func (s *GitHubServer) FailRequest(n, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body == "" {
		body = http.StatusText(status)
	}
	s.scripted[n] = failure{status: status, body: body}
}

// RequestCount returns the number of requests received.
func (s *GitHubServer) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

// Requests returns the decoded requests received so far.
func (s *GitHubServer) Requests() []GraphQLRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GraphQLRequest(nil), s.requests...)
}

func (s *GitHubServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)

	if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	if f, ok := s.scripted[len(s.requests)]; ok {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	if s.failures > 0 {
		s.failures--
		status := s.failStatus
		s.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
		return
	}
	resp := s.respond(req)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "4999")
	w.Header().Set("X-RateLimit-Limit", "5000")
	_ = json.NewEncoder(w).Encode(resp)
}

// respond must be called with mu held.
func (s *GitHubServer) respond(req GraphQLRequest) map[string]interface{} {
	switch {
	case strings.Contains(req.Query, "search("):
		start, end, cursor := window(req.Variables, len(s.repositories))
		return SearchResponse(s.repositories[start:end], len(s.repositories), end < len(s.repositories), cursor)

	default:
		owner, _ := req.Variables["owner"].(string)
		name, _ := req.Variables["name"].(string)
		prs, ok := s.pullRequests[owner+"/"+name]
		if !ok {
			return NotFoundResponse(owner, name)
		}
		if !strings.Contains(req.Query, "pageInfo") {
			if n, ok := s.counts[owner+"/"+name]; ok {
				return CountResponse(n)
			}
			return CountResponse(len(prs))
		}
		start, end, cursor := window(req.Variables, len(prs))
		return PullRequestsResponse(prs[start:end], end < len(prs), cursor)
	}
}

func window(vars map[string]interface{}, total int) (start, end int, cursor string) {
	if after, ok := vars["after"].(string); ok {
		start, _ = strconv.Atoi(strings.TrimPrefix(after, "offset:"))
	}
	first := 100
	if f, ok := vars["first"].(float64); ok && f > 0 {
		first = int(f)
	}
	start = min(start, total)
	end = min(start+first, total)
	return start, end, "offset:" + strconv.Itoa(end)
}
