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

// Package collector drives the two collection stages: searching popular
// repositories, and collecting the reviewed pull requests of each one.
//
// Collectors talk to GitHub only through github.Client and report through
// an injected zerolog.Logger, a Progress sink and an optional metadata
// tracker, so every stage can be exercised with github.MockClient.
package collector
