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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Writer provides thread-safe NDJSON writing.
type Writer struct {
	mu      sync.Mutex
	encoder *json.Encoder
	count   int
}

// NewWriter creates a new NDJSON writer that writes to the specified output.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{encoder: enc}
}

// Write writes a single record as one JSON line.
func (w *Writer) Write(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close is a no-op; the caller owns the underlying writer.
func (w *Writer) Close() error {
	return nil
}

// CSVWriter writes a header row followed by one row per Record.
type CSVWriter struct {
	mu    sync.Mutex
	csv   *csv.Writer
	width int
	count int
}

// NewCSVWriter writes header immediately and returns the writer.
func NewCSVWriter(w io.Writer, header []string) (*CSVWriter, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("csv output requires a header")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &CSVWriter{csv: cw, width: len(header)}, nil
}

// Write writes record, which must implement Record.
func (w *CSVWriter) Write(record interface{}) error {
	r, ok := record.(Record)
	if !ok {
		return fmt.Errorf("record of type %T cannot be written as csv", record)
	}
	row := r.CSVRecord()
	if len(row) != w.width {
		return fmt.Errorf("record has %d fields, header has %d", len(row), w.width)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written, excluding the header.
func (w *CSVWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered rows.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
