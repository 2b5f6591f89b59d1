// Package cache is a file-per-key store for upstream version lookups. Each
// entry is a JSON envelope {data, timestamp} named by the SHA-256 of
// "sourceType:identifier:operation"; expiry is lazy, checked on read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logger "github.com/sirupsen/logrus"
)

// Store persists cache entries under a single directory.
type Store struct {
	dir string
}

// NewStore places the cache under the user cache directory.
func NewStore() (*Store, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return NewStoreAt(filepath.Join(base, "treeupdt"))
}

// NewStoreAt places the cache under an explicit directory.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s *Store) path(sourceType, identifier, operation string) string {
	sum := sha256.Sum256([]byte(sourceType + ":" + identifier + ":" + operation))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// Get loads a cached value into out. Returns false on miss, decode failure
// or expiry; expired entries are removed on the spot.
func (s *Store) Get(sourceType, identifier, operation string, ttl time.Duration, out any) bool {
	path := s.path(sourceType, identifier, operation)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Debugf("[cache] dropping unreadable entry %s: %v", path, err)
		_ = os.Remove(path)
		return false
	}

	if time.Since(env.Timestamp) > ttl {
		_ = os.Remove(path)
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		logger.Debugf("[cache] dropping mismatched entry %s: %v", path, err)
		_ = os.Remove(path)
		return false
	}
	return true
}

// Set stores a value. Failures are non-fatal for callers: a cache that
// cannot write only costs extra fetches.
func (s *Store) Set(sourceType, identifier, operation string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	env := envelope{Data: data, Timestamp: time.Now()}
	encoded, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache envelope: %w", err)
	}
	path := s.path(sourceType, identifier, operation)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry in the store.
func (s *Store) Clear() error {
	entries, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	for _, entry := range entries {
		if err := os.Remove(entry); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry, err)
		}
	}
	logger.Infof("[cache] cleared %d entries from %s", len(entries), s.dir)
	return nil
}
