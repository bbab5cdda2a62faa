package filesystem

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	ErrFileNotFound = fmt.Errorf("filesystem: file not found")
	ErrInvalidPath  = fmt.Errorf("filesystem: invalid path")
)

// Filesystem is the storage the /files/ routes read from and write to.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) error

	FileExists(path string) (bool, error)
	CreateDirectory(path string) error
}

// Resolve joins name onto root. Names that would leave root, such as
// "../secret" or absolute paths, are rejected with ErrInvalidPath.
func Resolve(root, name string) (string, error) {
	if root == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(root, name), nil
}

type localFileSystem struct {
}

func NewLocalFileSystem() Filesystem {
	return &localFileSystem{}
}

func (filesystem *localFileSystem) CreateDirectory(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("filesystem: %s is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	return os.MkdirAll(path, 0770)
}

// FileExists reports whether path names a regular file.
func (filesystem *localFileSystem) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return info.Mode().IsRegular(), nil
}

// ReadFile returns the whole file. Missing paths and directories report
// ErrFileNotFound.
func (filesystem *localFileSystem) ReadFile(path string) ([]byte, error) {
	exists, err := filesystem.FileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return content, err
}

// WriteFile replaces path with content, creating parent directories.
func (filesystem *localFileSystem) WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := filesystem.CreateDirectory(dir); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("closing file error", "error", closeErr)
		}
	}()

	if _, err := file.Write(content); err != nil {
		return err
	}

	return file.Sync()
}
