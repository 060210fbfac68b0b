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
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/sirseerhq/prharvest/internal/errors"
)

// IsNDJSON reports whether path names a newline-delimited JSON dataset.
func IsNDJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return true
	default:
		return false
	}
}

func open(path string) (*os.File, error) {
	// #nosec G304 -- dataset paths are provided by the operator
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, apperrors.ErrInputNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// ReadRepositories loads a repository dataset in file order. Only the Owner
// and Name columns are required; the others are parsed when present.
func ReadRepositories(path string) ([]Repository, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if IsNDJSON(path) {
		return decodeNDJSON[Repository](f, path)
	}

	header, rows, err := readCSV(f, path)
	if err != nil {
		return nil, err
	}

	cols := columnIndex(header)
	ownerCol, okOwner := cols["Owner"]
	nameCol, okName := cols["Name"]
	if !okOwner || !okName {
		return nil, fmt.Errorf("%s: header must contain Owner and Name columns: %w", path, apperrors.ErrInvalidInput)
	}

	repos := make([]Repository, 0, len(rows))
	for i, row := range rows {
		r := Repository{
			Owner: strings.TrimSpace(row[ownerCol]),
			Name:  strings.TrimSpace(row[nameCol]),
		}
		if r.Owner == "" || r.Name == "" {
			return nil, fmt.Errorf("%s line %d: empty owner or name: %w", path, i+2, apperrors.ErrInvalidInput)
		}
		if c, ok := cols["Stars"]; ok && row[c] != "" {
			if r.Stars, err = strconv.Atoi(row[c]); err != nil {
				return nil, fmt.Errorf("%s line %d: stars: %w: %w", path, i+2, apperrors.ErrInvalidInput, err)
			}
		}
		if c, ok := cols["Url"]; ok {
			r.URL = row[c]
		}
		if c, ok := cols["CreatedAt"]; ok && row[c] != "" {
			if r.CreatedAt, err = time.Parse(time.RFC3339, row[c]); err != nil {
				return nil, fmt.Errorf("%s line %d: created at: %w: %w", path, i+2, apperrors.ErrInvalidInput, err)
			}
		}
		if c, ok := cols["IdadeAnos"]; ok && row[c] != "" {
			if r.AgeYears, err = strconv.ParseFloat(row[c], 64); err != nil {
				return nil, fmt.Errorf("%s line %d: age: %w: %w", path, i+2, apperrors.ErrInvalidInput, err)
			}
		}
		repos = append(repos, r)
	}
	return repos, nil
}

// ReadPullRequestTable loads a pull request dataset as a header and string
// rows, whichever format it was written in.
func ReadPullRequestTable(path string) ([]string, [][]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if !IsNDJSON(path) {
		return readCSV(f, path)
	}

	prs, err := decodeNDJSON[PullRequest](f, path)
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]string, 0, len(prs))
	for _, pr := range prs {
		rows = append(rows, pr.CSVRecord())
	}
	return PullRequestHeader, rows, nil
}

func readCSV(r io.Reader, path string) ([]string, [][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", path, apperrors.ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: missing header row: %w", path, apperrors.ErrInvalidInput)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return header, records[1:], nil
}

func decodeNDJSON[T any](r io.Reader, path string) ([]T, error) {
	var out []T
	dec := json.NewDecoder(bufio.NewReader(r))
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("%s record %d: %w: %w", path, len(out)+1, apperrors.ErrInvalidInput, err)
		}
		out = append(out, v)
	}
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}
