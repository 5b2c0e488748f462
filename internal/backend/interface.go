package backend

import (
	"context"
	"time"

	"patrimonio/internal/sources"
	"patrimonio/internal/sources/cached"
	"patrimonio/internal/sources/drive"
	"patrimonio/internal/sources/s3"
)

// Backend is a document source that can also enumerate its names.
type Backend interface {
	sources.DocumentSource
	sources.DocumentLister
}

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult is a created backend. Source is the backend wrapped in the
// document cache when caching is enabled; Cache is nil otherwise.
type BackendResult struct {
	Type    BackendType
	Backend Backend
	Source  sources.DocumentSource
	Cache   *cached.Source
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// file
	DataDirectory string

	// sqlite
	SQLiteDBPath string

	Drive drive.Config
	S3    s3.Config

	// Document cache; CacheSize 0 disables it.
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	DriveBackend  BackendType = "drive"
	S3Backend     BackendType = "s3"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid.
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, DriveBackend, S3Backend:
		return true
	default:
		return false
	}
}

// IsRemote reports whether the backend lives behind a network API.
func (bt BackendType) IsRemote() bool {
	return bt == DriveBackend || bt == S3Backend
}
