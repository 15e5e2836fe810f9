package database

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".field-survey-router"
	CacheDirName     = "cache"
	RouteCacheFile   = "routes.json"
	SQLiteDBFileName = "routes.db"
	ExportFileName   = "export.json"
)

// GetAppDir returns ~/.field-survey-router, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetCacheDir returns ~/.field-survey-router/cache, creating it if needed
func GetCacheDir() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}

	cacheDir := filepath.Join(appDir, CacheDirName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return cacheDir, nil
}

// GetRouteCachePath returns ~/.field-survey-router/cache/routes.json
func GetRouteCachePath() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, RouteCacheFile), nil
}

// GetDefaultDBPath returns ~/.field-survey-router/cache/routes.db
func GetDefaultDBPath() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, SQLiteDBFileName), nil
}

// GetDefaultExportPath returns ~/.field-survey-router/export.json
func GetDefaultExportPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ExportFileName), nil
}
