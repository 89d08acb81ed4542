package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore persists a single aggregate as one JSON document on disk.
// Save writes through a temp file and renames it into place, so a reader
// never observes a partially written document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "store.Save.Marshal")
	}
	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "store.Save.MkdirAll")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "store.Save.CreateTemp")
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "store.Save.Write")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "store.Save.Close")
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "store.Save.Rename")
	}
	return nil
}

// Restore reads the document into v. The second return is false when no
// document exists yet, which is normal for a fresh store. A document that
// exists but cannot be read or decoded is an error, never discarded.
func (s *FileStore) Restore(v interface{}) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "store.Restore.ReadFile")
	}
	if err = json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(err, "store.Restore.Unmarshal")
	}
	return true, nil
}
