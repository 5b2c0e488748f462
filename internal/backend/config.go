package backend

import (
	"fmt"

	"patrimonio/internal/config"
	"patrimonio/internal/sources/drive"
	"patrimonio/internal/sources/s3"
)

// FromAppConfig converts the application config to backend config for
// DATA_BACKEND.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return fromAppConfig(appConfig, appConfig.DataBackend, appConfig.CacheSize)
}

// MirrorFromAppConfig converts the application config to the backend the
// mirror worker reads from. Mirrored reads are never cached.
func MirrorFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg, err := fromAppConfig(appConfig, appConfig.MirrorSource, 0)
	if err != nil {
		return Config{}, err
	}
	if !cfg.Type.IsRemote() {
		return Config{}, fmt.Errorf("mirror source must be remote, got %s", cfg.Type)
	}
	return cfg, nil
}

func fromAppConfig(appConfig *config.Config, backend string, cacheSize int) (Config, error) {
	backendType := BackendType(backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", backend)
	}

	return Config{
		Type: backendType,

		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,

		Drive: drive.Config{
			FolderID:        appConfig.GoogleDriveFolderID,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},
		S3: s3.Config{
			Bucket:    appConfig.S3Bucket,
			Prefix:    appConfig.S3Prefix,
			Region:    appConfig.S3Region,
			Endpoint:  appConfig.S3Endpoint,
			AccessKey: appConfig.S3AccessKey,
			SecretKey: appConfig.S3SecretKey,
		},

		CacheSize: cacheSize,
		CacheTTL:  appConfig.CacheTTL,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case DriveBackend:
		if c.Drive.FolderID == "" {
			return fmt.Errorf("Drive folder ID is required for drive backend")
		}
		if c.Drive.CredentialsJSON == "" && c.Drive.CredentialsFile == "" {
			return fmt.Errorf("either CredentialsJSON or CredentialsFile must be provided for drive backend")
		}
	case S3Backend:
		if c.S3.Bucket == "" {
			return fmt.Errorf("bucket is required for s3 backend")
		}
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative")
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend, DriveBackend, S3Backend}
}
