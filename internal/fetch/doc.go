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

// Package fetch drives cursor-based pagination against the GitHub API.
//
// Paginate requests pages until the provider reports no further page or the
// requested maximum is reached, pausing between pages and retrying a failed
// request with the same cursor according to a RetryPolicy. The default policy
// retries forever with a constant delay; a bounded policy surfaces exhaustion
// as ErrRetriesExhausted.
//
// When several paginations run concurrently they share a Pacer, which spaces
// every request by a global minimum interval.
package fetch
