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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCheckpoint is returned by LoadCheckpoint when no file exists.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// CheckpointPath returns the checkpoint file kept next to a dataset.
func CheckpointPath(output string) string {
	return output + ".checkpoint"
}

// SaveCheckpoint atomically saves the checkpoint to disk with integrity validation.
// It uses a write-to-temp-and-rename pattern to ensure atomicity.
func SaveCheckpoint(cp *Checkpoint, path string) error {
	cp.Version = CurrentVersion

	checksum, err := calculateChecksum(cp)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	cp.Checksum = checksum

	if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", mkdirErr)
	}

	tempFile := path + ".tmp"

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary checkpoint file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// LoadCheckpoint reads and validates a checkpoint from disk.
// It verifies the checksum and version compatibility.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	// #nosec G304 -- checkpoint path is derived from the operator's output path
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoCheckpoint)
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}

	var cp Checkpoint
	if unmarshalErr := json.Unmarshal(data, &cp); unmarshalErr != nil {
		return nil, fmt.Errorf("checkpoint is corrupted (invalid JSON): %w", unmarshalErr)
	}

	if cp.Version != CurrentVersion {
		return nil, fmt.Errorf("checkpoint version (%d) is incompatible with current version (%d)",
			cp.Version, CurrentVersion)
	}

	savedChecksum := cp.Checksum
	calculatedChecksum, err := calculateChecksum(&cp)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}
	if savedChecksum != calculatedChecksum {
		return nil, fmt.Errorf("checkpoint is corrupted (checksum mismatch)")
	}

	if cp.Repositories == nil {
		cp.Repositories = make(map[string]RepositoryResult)
	}
	return &cp, nil
}

// DeleteCheckpoint removes a checkpoint file. A missing file is not an error.
func DeleteCheckpoint(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// calculateChecksum computes the SHA256 hash of the checkpoint content.
// The checksum field itself is excluded from the calculation.
func calculateChecksum(cp *Checkpoint) (string, error) {
	cpCopy := *cp
	cpCopy.Checksum = ""

	// encoding/json sorts map keys, so the encoding is stable.
	data, err := json.Marshal(cpCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
