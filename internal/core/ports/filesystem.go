// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"time"
)

// FileSystem is the I/O surface of the build graph.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// ModTime returns the modification time of the file at path.
	// A missing file is reported with an error satisfying errors.Is(err, fs.ErrNotExist).
	ModTime(ctx context.Context, path string) (time.Time, error)

	// ReadFile reads the entire file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the file at path with data, creating parent directories.
	// A failed write must leave any previous file at path untouched.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Remove deletes the file at path. A missing file is not an error.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes path and everything below it. A missing path is not an error.
	RemoveAll(ctx context.Context, path string) error
}
