package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketAuth    = []byte("auth")
	bucketQueries = []byte("queries")
)

// snapshot is the persisted form of a query result
type snapshot struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt int64           `json:"updatedAt"`
}

// Store implements domain.CredentialStore and domain.SnapshotStore using BoltDB.
// An empty data directory selects memory-only mode (used by tests and --no-persist).
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the store for the given API. Each API base URL gets its own
// database so switching backends never mixes credentials.
func Open(dataDir, baseURL string) (*Store, error) {
	if dataDir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	dir := dataDir
	if baseURL != "" {
		dir = filepath.Join(dataDir, hashBaseURL(baseURL))
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "medbook.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAuth, bucketQueries} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

// NewMemory returns a store that never touches disk
func NewMemory() *Store {
	return &Store{cache: make(map[string][]byte)}
}

func hashBaseURL(baseURL string) string {
	normalized := strings.TrimRight(strings.ToLower(baseURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string) ([]byte, bool) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, true
}

func (s *Store) set(bucket []byte, key string, data []byte) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.cache, string(bucket)+":"+key)
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) deletePrefix(bucket []byte, prefix string) error {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		// Deleting under a cursor skips the following key, so collect first
		var doomed [][]byte
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			doomed = append(doomed, append([]byte(nil), k...))
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Credentials ===

func (s *Store) GetCredential(key string) (string, bool) {
	data, ok := s.get(bucketAuth, key)
	if !ok || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (s *Store) SetCredential(key, value string) error {
	return s.set(bucketAuth, key, []byte(value))
}

func (s *Store) DeleteCredentials(keys ...string) error {
	return s.delete(bucketAuth, keys...)
}

// === Query snapshots ===

func (s *Store) LoadSnapshot(key string) ([]byte, int64, bool) {
	data, ok := s.get(bucketQueries, key)
	if !ok {
		return nil, 0, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil || len(snap.Data) == 0 {
		return nil, 0, false
	}
	return snap.Data, snap.UpdatedAt, true
}

func (s *Store) SaveSnapshot(key string, data []byte, updatedAt int64) error {
	encoded, err := json.Marshal(snapshot{Data: data, UpdatedAt: updatedAt})
	if err != nil {
		return err
	}
	return s.set(bucketQueries, key, encoded)
}

func (s *Store) DeleteSnapshots(prefix string) error {
	return s.deletePrefix(bucketQueries, prefix)
}

func (s *Store) ClearSnapshots() error {
	s.mu.Lock()
	cachePrefix := string(bucketQueries) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketQueries); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketQueries)
		return err
	})
}
