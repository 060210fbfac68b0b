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
	"unicode/utf8"

	"github.com/sirseerhq/prharvest/internal/dataset"
	"github.com/sirseerhq/prharvest/internal/github"
)

// Enrich applies the row filter to one pull request and derives its metrics.
// It reports false for pull requests that had no review or never reached an
// end state. Accepted rows are tagged with owner and name.
func Enrich(owner, name string, node github.PullRequest) (dataset.PullRequest, bool) {
	if node.Reviews < 1 {
		return dataset.PullRequest{}, false
	}

	end := node.MergedAt
	if end == nil {
		end = node.ClosedAt
	}
	if end == nil {
		return dataset.PullRequest{}, false
	}

	additions := deref(node.Additions)
	deletions := deref(node.Deletions)
	files := deref(node.ChangedFiles)
	total := additions + deletions

	var perFile float64
	if files > 0 {
		perFile = dataset.Round2(float64(total) / float64(files))
	}

	var description int
	if node.Body != nil {
		description = utf8.RuneCountInString(*node.Body)
	}

	status := 0
	if node.State == github.StateMerged {
		status = 1
	}

	return dataset.PullRequest{
		RepoOwner:         owner,
		RepoName:          name,
		Number:            node.Number,
		Title:             node.Title,
		State:             node.State,
		PRStatus:          status,
		CreatedAt:         node.CreatedAt.UTC(),
		ClosedAt:          utc(node.ClosedAt),
		MergedAt:          utc(node.MergedAt),
		AnalysisTimeHours: dataset.Round2(end.Sub(node.CreatedAt).Hours()),
		FilesChanged:      files,
		Additions:         additions,
		Deletions:         deletions,
		TotalLinesChanged: total,
		LinesPerFile:      perFile,
		DescriptionLength: description,
		Participants:      node.Participants,
		Comments:          node.Comments,
		Reviews:           node.Reviews,
	}, true
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
