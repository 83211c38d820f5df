package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// IFC File Storage
// ============================================================

// FileStorage keeps the raw bytes of uploaded IFC files, one file per
// model id, so the catalog can be reopened after a restart.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) ModelPath(modelID string) string {
	return filepath.Join(s.root, modelID+".ifc")
}

func (s *FileStorage) Save(modelID string, data []byte) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("mkdir storage root: %w", err)
	}
	path := s.ModelPath(modelID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write ifc file: %w", err)
	}
	return path, nil
}

func (s *FileStorage) Read(modelID string) ([]byte, error) {
	return os.ReadFile(s.ModelPath(modelID))
}

// Remove deletes the stored file; a missing file is not an error.
func (s *FileStorage) Remove(modelID string) error {
	err := os.Remove(s.ModelPath(modelID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove ifc file: %w", err)
	}
	return nil
}
