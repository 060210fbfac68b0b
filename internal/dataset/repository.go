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
	"strconv"
	"time"

	"github.com/sirseerhq/prharvest/internal/github"
)

// RepositoryHeader is the column layout of the repository dataset.
var RepositoryHeader = []string{"Owner", "Name", "Stars", "Url", "CreatedAt", "IdadeAnos"}

// Repository is one row of the repository dataset. Owner and Name identify it.
type Repository struct {
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Stars     int       `json:"stars"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	AgeYears  float64   `json:"age_years"`
}

// NewRepository builds a dataset row from a search result, computing its age at now.
func NewRepository(node github.RepositoryNode, now time.Time) Repository {
	return Repository{
		Owner:     node.Owner,
		Name:      node.Name,
		Stars:     node.Stars,
		URL:       node.URL,
		CreatedAt: node.CreatedAt.UTC(),
		AgeYears:  AgeYears(node.CreatedAt, now),
	}
}

// AgeYears counts whole calendar months between created and now, in years.
// Days within the month are ignored, so a repository created on the 31st is a
// month old on the 1st.
func AgeYears(created, now time.Time) float64 {
	created = created.UTC()
	now = now.UTC()
	months := (now.Year()-created.Year())*12 + int(now.Month()) - int(created.Month())
	return float64(months) / 12
}

// Key returns "owner/name".
func (r Repository) Key() string {
	return r.Owner + "/" + r.Name
}

// CSVRecord renders the row in RepositoryHeader order.
func (r Repository) CSVRecord() []string {
	return []string{
		r.Owner,
		r.Name,
		strconv.Itoa(r.Stars),
		r.URL,
		formatTime(r.CreatedAt),
		formatFloat(r.AgeYears),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
