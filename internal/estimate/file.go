package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"versereel/internal/model"
	"versereel/internal/util"
)

// FileStore keeps the estimate as a small JSON record on disk.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

type fileRecord struct {
	Version int            `json:"version"`
	Value   model.Estimate `json:"estimate"`
}

const fileVersion = 1

// Load implements Store.
func (s *FileStore) Load(_ context.Context) model.Estimate {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.Unknown()
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Version != fileVersion {
		return model.Unknown()
	}
	if !usable(rec.Value) {
		return model.Unknown()
	}
	return rec.Value
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, e model.Estimate) error {
	data, err := json.MarshalIndent(fileRecord{Version: fileVersion, Value: e}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal estimate: %w", err)
	}
	if err := util.WriteFileAtomic(s.Path, append(data, '\n')); err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	return nil
}
