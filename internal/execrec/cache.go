package execrec

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// увеличивать при изменении формата cachedVerdict
const cacheSchemaVersion uint16 = 1

// Cache stores scan verdicts on disk, one msgpack file per key.
// Safe for concurrent use; a nil *Cache is a disabled cache.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

type cachedVerdict struct {
	Schema    uint16
	Related   bool
	Hits      int
	Trees     int
	Truncated int
}

// OpenCache opens the cache under $XDG_CACHE_HOME/<app>/verdicts
// (or ~/.cache when XDG_CACHE_HOME is unset).
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenCacheAt(filepath.Join(base, app, "verdicts"))
}

// OpenCacheAt opens a cache rooted at dir.
func OpenCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, key.String()+".mp")
}

// Put stores the verdict fields that do not depend on where the record lives.
func (c *Cache) Put(key Digest, v Verdict) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного Rename временного файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload := cachedVerdict{
		Schema:    cacheSchemaVersion,
		Related:   v.Related,
		Hits:      v.Hits,
		Trees:     v.Trees,
		Truncated: v.Truncated,
	}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), c.pathFor(key))
}

// Get fills the cached fields of v. A missing entry or an entry written by an
// older schema is a miss.
func (c *Cache) Get(key Digest, v *Verdict) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var payload cachedVerdict
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return false, nil
	}
	v.Related = payload.Related
	v.Hits = payload.Hits
	v.Trees = payload.Trees
	v.Truncated = payload.Truncated
	return true, nil
}

// DropAll removes every cached verdict.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
