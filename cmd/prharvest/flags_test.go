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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceValue(t *testing.T) {
	var format string
	v := newChoiceValue(&format, "csv", "ndjson")

	require.NoError(t, v.Set(" NDJSON "))
	assert.Equal(t, "ndjson", format)
	assert.Equal(t, "ndjson", v.String())
	assert.Equal(t, "csv|ndjson", v.Type())

	err := v.Set("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, ndjson")
	assert.Equal(t, "ndjson", format, "rejected values leave the flag unchanged")
}

func TestFormatFlagRejectedAtParse(t *testing.T) {
	isolate(t)
	_, err := execute(t.Context(), "repos", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}
