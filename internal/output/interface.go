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

package output

import (
	"fmt"
	"io"
)

// Supported dataset formats.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// OutputWriter defines the interface for writing dataset rows.
// This abstraction lets collectors stay unaware of the file format.
type OutputWriter interface {
	// Write writes a single record to the output.
	Write(record interface{}) error

	// Close flushes buffered output and releases any resources.
	// This should be called when all writing is complete.
	Close() error
}

// Record is a dataset row that knows its CSV rendering.
type Record interface {
	CSVRecord() []string
}

// New returns a writer for format. header is only used by CSV.
func New(format string, w io.Writer, header []string) (OutputWriter, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVWriter(w, header)
	case FormatNDJSON:
		return NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
