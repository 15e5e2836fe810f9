package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStoreData represents the structure of the cache file
type FileStoreData struct {
	Entries map[string]string `json:"entries"`
}

// FileStore is a file-based implementation of KVStore.
// The whole map is rewritten atomically on every change.
type FileStore struct {
	filePath string
	data     *FileStoreData
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewFileStore opens (or creates) the cache file at filePath
func NewFileStore(filePath string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	store := &FileStore{
		filePath: filePath,
		data:     &FileStoreData{Entries: map[string]string{}},
		logger:   logger.Named("file_store"),
	}
	store.logger.Info("using route cache file", zap.String("path", filePath))

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = &FileStoreData{Entries: map[string]string{}}
		return s.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var parsed FileStoreData
	if err := json.Unmarshal(data, &parsed); err != nil {
		// A damaged file only costs recomputation; keep a copy and start empty
		backup := s.filePath + ".corrupt"
		s.logger.Warn("cache file unreadable, starting empty",
			zap.String("path", s.filePath),
			zap.String("backup", backup),
			zap.Error(err),
		)
		if renameErr := os.Rename(s.filePath, backup); renameErr != nil {
			s.logger.Warn("failed to move corrupt cache file aside", zap.Error(renameErr))
		}
		s.data = &FileStoreData{Entries: map[string]string{}}
		return s.saveUnlocked()
	}

	if parsed.Entries == nil {
		parsed.Entries = map[string]string{}
	}
	s.data = &parsed

	s.logger.Info("loaded route cache", zap.Int("entries", len(s.data.Entries)))
	return nil
}

func (s *FileStore) saveUnlocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data.Entries[key]
	return value, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Entries[key] = value
	return s.saveUnlocked()
}

func (s *FileStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := s.data.Entries[key]; ok {
			delete(s.data.Entries, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveUnlocked()
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Entries = map[string]string{}
	return s.saveUnlocked()
}

// HealthCheck verifies the cache directory is still reachable
func (s *FileStore) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("cache directory unavailable: %w", err)
	}
	return nil
}

// Close is a no-op; every write is already flushed to disk
func (s *FileStore) Close() error {
	return nil
}

// Len returns the number of stored keys
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Entries)
}
