package metacache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/utils"
)

// DownloadMetadata describes one file a recipe downloaded. The JSON
// field names match what earlier tooling wrote, so existing cache
// files keep working unchanged.
type DownloadMetadata struct {
	ETag         string `json:"etag,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// RecipeCache is the cache entry for a single recipe: when it was
// written and the metadata of everything that run downloaded.
type RecipeCache struct {
	Timestamp string             `json:"timestamp"`
	Metadata  []DownloadMetadata `json:"metadata"`
}

// Cache maps recipe names to their cached download metadata.
type Cache map[string]RecipeCache

const timestampLayout = "2006-01-02 15:04:05.000000"

func NewRecipeCache(metadata []DownloadMetadata) RecipeCache {
	return RecipeCache{
		Timestamp: time.Now().Format(timestampLayout),
		Metadata:  metadata,
	}
}

// Store persists a Cache as a single JSON document. Writers first take
// a sidecar flock, then re-read, modify and atomically replace the
// file, so concurrent invocations never lose each other's entries.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the whole cache. A missing file is created holding an
// empty document; unparsable contents are a *errs.CorruptCacheError.
func (s *Store) Load() (Cache, error) {
	logger.Debug("Loading metadata cache from %s", s.path)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Warn("%s does not exist. Creating...", s.path)
		if err := s.ensureDir(); err != nil {
			return nil, err
		}
		if err := os.WriteFile(s.path, []byte("{}"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to create metadata cache %s: %w", s.path, err)
		}
		return Cache{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata cache %s: %w", s.path, err)
	}

	return decode(s.path, data)
}

func decode(path string, data []byte) (Cache, error) {
	cache := Cache{}
	if len(bytes.TrimSpace(data)) == 0 {
		return cache, nil
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, &errs.CorruptCacheError{Path: path, Err: err}
	}
	return cache, nil
}

// Save upserts one recipe's entry. The full document is re-read under
// the lock so entries written by sibling processes since our Load are
// preserved.
func (s *Store) Save(recipe string, entry RecipeCache) error {
	return s.update(func(cache Cache) {
		cache[recipe] = entry
	})
}

// Delete drops the named recipes and reports how many were present.
func (s *Store) Delete(recipes ...string) (int, error) {
	removed := 0
	err := s.update(func(cache Cache) {
		for _, name := range recipes {
			if _, ok := cache[name]; ok {
				delete(cache, name)
				removed++
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear resets the cache to an empty document.
func (s *Store) Clear() error {
	return s.update(func(cache Cache) {
		for name := range cache {
			delete(cache, name)
		}
	})
}

func (s *Store) update(mutate func(Cache)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The sidecar lock file needs the directory to exist too.
	if err := s.ensureDir(); err != nil {
		return err
	}

	// The lock lives beside the data file: atomic renames swap the
	// data file's inode, which would defeat a lock taken on it.
	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock metadata cache %s: %w", s.path, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to unlock metadata cache %s: %v", s.path, err)
		}
	}()

	cache, err := s.Load()
	if err != nil {
		return err
	}

	mutate(cache)

	return s.write(cache)
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) write(cache Cache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata cache: %w", err)
	}
	data = append(data, '\n')

	// Temp file plus rename so readers never observe a partial write.
	tmp := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	return utils.WriteFileAtomic(tmp, s.path, bytes.NewReader(data))
}
