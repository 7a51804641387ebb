package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"martianoff/delegen/internal/logger"
)

// Increment when Entry changes shape; older entries are then ignored.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores expansion output on disk keyed by input fingerprint.
// A nil *DiskCache is a valid, always-missing cache.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Entry is one cached expansion.
type Entry struct {
	Schema      uint16
	Fingerprint string
	Interfaces  []string
	Output      []byte
}

// DefaultDir returns $XDG_CACHE_HOME/app, falling back to ~/.cache/app.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "locate home directory")
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open returns a cache rooted at dir, creating the directory.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create cache directory %s", dir)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return filepath.Join(c.dir, "expansions", hex.EncodeToString(sum[:])+".mp")
}

// Put writes an entry atomically.
func (c *DiskCache) Put(entry *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(entry.Fingerprint)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return errors.Wrap(err, "create cache file")
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warnw("failed to remove temp cache file", "path", f.Name(), "error", rmErr)
		}
	}()

	stored := *entry
	stored.Schema = diskCacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "encode cache entry")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close cache file")
	}
	return errors.Wrap(os.Rename(f.Name(), p), "commit cache entry")
}

// Get reads the entry for fingerprint. It reports false when the entry is
// absent or was written by an incompatible version.
func (c *DiskCache) Get(fingerprint string) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(fingerprint))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "open cache entry")
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, errors.Wrap(err, "decode cache entry")
	}
	if entry.Schema != diskCacheSchemaVersion || entry.Fingerprint != fingerprint {
		return nil, false, nil
	}
	logger.Debugw("cache hit", "fingerprint", fingerprint)
	return &entry, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrap(os.RemoveAll(filepath.Join(c.dir, "expansions")), "drop cache")
}
