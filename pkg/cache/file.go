package cache

import (
	"context"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores entries as files under a directory, sharded by the
// first hash byte so one run with many distinct recipes does not pile
// thousands of files into a single dir. Each entry is the raw payload
// prefixed with an 8-byte expiry stamp; artifact bundles are zip blobs
// and an envelope encoding would only inflate them.
type FileCache struct {
	dir string
}

// entryHeaderSize is the expiry stamp: unix nanoseconds, big-endian,
// zero meaning no expiry.
const entryHeaderSize = 8

// NewFileCache creates a file-based cache in the given directory,
// creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Get retrieves a value from the cache. Corrupt or expired entries
// count as a miss and are removed.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(raw) < entryHeaderSize {
		_ = os.Remove(path)
		return nil, false, nil
	}

	expiry := int64(binary.BigEndian.Uint64(raw[:entryHeaderSize]))
	if expiry != 0 && time.Now().UnixNano() > expiry {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return raw[entryHeaderSize:], true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiry int64
	if ttl > 0 {
		expiry = time.Now().Add(ttl).UnixNano()
	}

	raw := make([]byte, entryHeaderSize+len(data))
	binary.BigEndian.PutUint64(raw[:entryHeaderSize], uint64(expiry))
	copy(raw[entryHeaderSize:], data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file cache.
func (c *FileCache) Close() error {
	return nil
}

// Clear removes every entry. The directory itself stays.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Usage describes what the cache currently holds.
type Usage struct {
	Entries int
	Bytes   int64
}

// Usage walks the cache directory and reports entry count and size.
func (c *FileCache) Usage() (Usage, error) {
	var u Usage
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		u.Entries++
		u.Bytes += info.Size()
		return nil
	})
	return u, err
}

// path shards a cache key into the directory by its hash.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:])
}

var _ Cache = (*FileCache)(nil)
