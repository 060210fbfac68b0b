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

// Package stats computes the median summary of a pull request dataset: the
// central value of each size, time and interaction metric, overall and split
// by whether the pull request was merged or closed without merging.
package stats

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Header is the column layout of the summary file.
var Header = []string{"Metric", "Median", "MedianMerged", "MedianClosed"}

// Metrics lists the dataset columns summarized, in output order.
var Metrics = []string{
	"FilesChanged",
	"Additions",
	"Deletions",
	"TotalLinesChanged",
	"AnalysisTimeHours",
	"DescriptionLength",
	"Participants",
	"Comments",
	"Reviews",
}

const statusColumn = "PR_Status"

// Row is the summary of one metric. A nil median means the group had no
// values for the metric.
type Row struct {
	Metric       string   `json:"metric"`
	Median       *float64 `json:"median"`
	MedianMerged *float64 `json:"median_merged"`
	MedianClosed *float64 `json:"median_closed"`
}

// CSVRecord renders the row in Header order.
func (r Row) CSVRecord() []string {
	return []string{r.Metric, format(r.Median), format(r.MedianMerged), format(r.MedianClosed)}
}

// Summarize computes the median of every metric column present in header.
// Columns missing from the dataset are skipped, as are empty or
// non-numeric cells. Rows are split into merged and closed groups by
// PR_Status when that column exists.
func Summarize(header []string, rows [][]string) []Row {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	statusIdx, hasStatus := cols[statusColumn]

	var out []Row
	for _, metric := range Metrics {
		idx, ok := cols[metric]
		if !ok {
			continue
		}

		var all, merged, closed []float64
		for _, row := range rows {
			v, ok := cell(row, idx)
			if !ok {
				continue
			}
			all = append(all, v)
			if !hasStatus || statusIdx >= len(row) {
				continue
			}
			switch strings.TrimSpace(row[statusIdx]) {
			case "1":
				merged = append(merged, v)
			case "0":
				closed = append(closed, v)
			}
		}

		out = append(out, Row{
			Metric:       metric,
			Median:       Median(all),
			MedianMerged: Median(merged),
			MedianClosed: Median(closed),
		})
	}
	return out
}

// Median returns the median of values rounded to two decimals, or nil when
// values is empty. The input slice is not modified.
func Median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	m := sorted[mid]
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	m = math.Round(m*100) / 100
	return &m
}

func cell(row []string, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	raw := strings.TrimSpace(row[idx])
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func format(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
