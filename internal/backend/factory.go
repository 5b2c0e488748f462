package backend

import (
	"context"
	"fmt"

	"patrimonio/internal/log"
	"patrimonio/internal/sources/cached"
	"patrimonio/internal/sources/drive"
	"patrimonio/internal/sources/file"
	"patrimonio/internal/sources/s3"
	"patrimonio/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentSource)}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case FileBackend:
		res = f.createFileBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case DriveBackend:
		res, err = f.createDriveBackend(ctx, config)
	case S3Backend:
		res, err = f.createS3Backend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Type = config.Type
	res.Source = res.Backend
	if config.CacheSize > 0 {
		res.Cache = cached.New(res.Backend, config.CacheSize, config.CacheTTL, f.logger)
		res.Source = res.Cache
		f.logger.Info("Document cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL)
	}
	if res.Ready == nil {
		b := res.Backend
		res.Ready = func(ctx context.Context) error {
			_, err := b.ListNames(ctx)
			return err
		}
	}
	return res, nil
}

func (f *DefaultFactory) createFileBackend(config Config) *BackendResult {
	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
	return &BackendResult{Backend: file.New(config.DataDirectory)}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Backend: repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createDriveBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := drive.New(ctx, config.Drive, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Drive client: %w", err)
	}
	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createS3Backend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := s3.New(ctx, config.S3, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	f.logger.Info("Initialized S3 backend", "bucket", config.S3.Bucket, "prefix", config.S3.Prefix)
	return &BackendResult{Backend: store}, nil
}
