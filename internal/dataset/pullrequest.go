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

package dataset

import (
	"math"
	"strconv"
	"time"
)

// PullRequestHeader is the column layout of the pull request dataset.
var PullRequestHeader = []string{
	"RepoOwner", "RepoName", "PR_Number", "Title", "State", "PR_Status",
	"CreatedAt", "ClosedAt", "MergedAt", "AnalysisTimeHours", "FilesChanged",
	"Additions", "Deletions", "TotalLinesChanged", "LinesPerFile",
	"DescriptionLength", "Participants", "Comments", "Reviews",
}

// PullRequest is one accepted, enriched row of the pull request dataset.
// RepoOwner, RepoName and Number identify it.
type PullRequest struct {
	RepoOwner         string     `json:"repo_owner"`
	RepoName          string     `json:"repo_name"`
	Number            int        `json:"number"`
	Title             string     `json:"title"`
	State             string     `json:"state"`
	PRStatus          int        `json:"pr_status"`
	CreatedAt         time.Time  `json:"created_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	MergedAt          *time.Time `json:"merged_at,omitempty"`
	AnalysisTimeHours float64    `json:"analysis_time_hours"`
	FilesChanged      int        `json:"files_changed"`
	Additions         int        `json:"additions"`
	Deletions         int        `json:"deletions"`
	TotalLinesChanged int        `json:"total_lines_changed"`
	LinesPerFile      float64    `json:"lines_per_file"`
	DescriptionLength int        `json:"description_length"`
	Participants      int        `json:"participants"`
	Comments          int        `json:"comments"`
	Reviews           int        `json:"reviews"`
}

// Round2 rounds f to the two decimals the dataset carries. Derived metrics
// are stored rounded so CSV, NDJSON and the database sink hold the same value.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// CSVRecord renders the row in PullRequestHeader order.
func (p PullRequest) CSVRecord() []string {
	return []string{
		p.RepoOwner,
		p.RepoName,
		strconv.Itoa(p.Number),
		p.Title,
		p.State,
		strconv.Itoa(p.PRStatus),
		formatTime(p.CreatedAt),
		formatOptionalTime(p.ClosedAt),
		formatOptionalTime(p.MergedAt),
		formatFloat(p.AnalysisTimeHours),
		strconv.Itoa(p.FilesChanged),
		strconv.Itoa(p.Additions),
		strconv.Itoa(p.Deletions),
		strconv.Itoa(p.TotalLinesChanged),
		formatFloat(p.LinesPerFile),
		strconv.Itoa(p.DescriptionLength),
		strconv.Itoa(p.Participants),
		strconv.Itoa(p.Comments),
		strconv.Itoa(p.Reviews),
	}
}
