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

// Package github provides a client for GitHub's GraphQL API covering the three
// queries prharvest needs: repository search, the resolved pull request count
// used as a threshold pre-check, and paged retrieval of merged and closed pull
// requests.
//
// The package includes:
//   - A Client interface so collectors can be tested without the network
//   - A GraphQL implementation using the shurcooL/graphql library
//   - A paging MockClient for tests
//
// Basic usage:
//
//	client := github.NewGraphQLClient(token, "https://api.github.com/graphql")
//	page, err := client.FetchPullRequests(ctx, "golang", "go", github.FetchOptions{
//	    First: 50,
//	})
//	if err != nil {
//	    // Handle error
//	}
//	for _, pr := range page.PullRequests {
//	    // Process pull request
//	}
//
// A single request is never retried here; retry and pacing live in the fetch
// package so every caller shares one policy.
package github
