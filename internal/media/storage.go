// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage is the blob side of the media module. The disk implementation
// is the default; an object-store implementation can slot in behind the
// same contract.
type Storage interface {
	// Save writes the stream to the named file and returns the number of
	// bytes written.
	Save(fileName string, reader io.Reader) (int64, error)

	// Remove deletes the named file. Removing a missing file is not an
	// error.
	Remove(fileName string) error
}

// DiskStorage stores uploads as flat files under a single root directory.
type DiskStorage struct {
	root string
}

// NewDiskStorage ensures the root directory exists and returns the store.
func NewDiskStorage(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media_storage_mkdir_failed: %w", err)
	}
	return &DiskStorage{root: root}, nil
}

// Root returns the directory uploads are written to, for mounting a
// static file server.
func (storage *DiskStorage) Root() string {
	return storage.root
}

func (storage *DiskStorage) Save(fileName string, reader io.Reader) (int64, error) {
	// File names are generated server-side, but never trust a joined path.
	path := filepath.Join(storage.root, filepath.Base(fileName))

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("media_storage_create_failed: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("media_storage_write_failed: %w", err)
	}
	return written, nil
}

func (storage *DiskStorage) Remove(fileName string) error {
	path := filepath.Join(storage.root, filepath.Base(fileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media_storage_remove_failed: %w", err)
	}
	return nil
}

var _ Storage = (*DiskStorage)(nil)
