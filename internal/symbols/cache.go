package symbols

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const cacheSchemaVersion = "v1"

type CacheOptions struct {
	Dir      string
	ReadOnly bool
}

type CacheStats struct {
	Hits          int
	Misses        int
	Writes        int
	Invalidations int
}

type cachedImports struct {
	Schema  string         `json:"schema"`
	Imports []ImportRecord `json:"imports"`
}

// Cache memoises an Introspector on disk, keyed by module content and the
// inner introspector's fingerprint. Safe for concurrent use.
type Cache struct {
	inner       Introspector
	fingerprint string
	options     CacheOptions
	logger      *log.Logger

	mu    sync.Mutex
	stats CacheStats
}

func NewCache(inner Introspector, fingerprint string, options CacheOptions, logger *log.Logger) (*Cache, error) {
	options.Dir = strings.TrimSpace(options.Dir)
	if options.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(filepath.Join(options.Dir, "objects"), 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{inner: inner, fingerprint: fingerprint, options: options, logger: logger}, nil
}

func (c *Cache) ListImports(ctx context.Context, modulePath string) ([]ImportRecord, error) {
	key, err := c.key(modulePath)
	if err != nil {
		return nil, err
	}
	if records, ok := c.lookup(key); ok {
		if c.logger != nil {
			c.logger.Debug("cache hit", "module", modulePath)
		}
		return records, nil
	}

	records, err := c.inner.ListImports(ctx, modulePath)
	if err != nil {
		return nil, err
	}
	if err := c.store(key, records); err != nil && c.logger != nil {
		c.logger.Warn("cache write failed", "module", modulePath, "err", err)
	}
	return records, nil
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) key(modulePath string) (string, error) {
	file, err := os.Open(modulePath)
	if err != nil {
		return "", fmt.Errorf("hash module %s: %w", modulePath, err)
	}
	defer file.Close()

	hasher := sha256.New()
	_, _ = io.WriteString(hasher, cacheSchemaVersion+"\x00"+c.fingerprint+"\x00")
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash module %s: %w", modulePath, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (c *Cache) objectPath(key string) string {
	return filepath.Join(c.options.Dir, "objects", key+".json")
}

func (c *Cache) lookup(key string) ([]ImportRecord, bool) {
	data, err := os.ReadFile(c.objectPath(key))
	if err != nil {
		c.count(func(s *CacheStats) {
			s.Misses++
			if !errors.Is(err, fs.ErrNotExist) {
				s.Invalidations++
			}
		})
		return nil, false
	}
	var payload cachedImports
	if err := json.Unmarshal(data, &payload); err != nil || payload.Schema != cacheSchemaVersion {
		c.count(func(s *CacheStats) {
			s.Misses++
			s.Invalidations++
		})
		return nil, false
	}
	c.count(func(s *CacheStats) { s.Hits++ })
	if payload.Imports == nil {
		return []ImportRecord{}, true
	}
	return payload.Imports, true
}

func (c *Cache) store(key string, records []ImportRecord) error {
	if c.options.ReadOnly {
		return nil
	}
	// JSON would rewrite invalid UTF-8, so a hit could differ from a fresh run.
	if !validUTF8(records) {
		if c.logger != nil {
			c.logger.Debug("not caching imports with invalid UTF-8", "key", key)
		}
		return nil
	}
	payload, err := json.Marshal(cachedImports{Schema: cacheSchemaVersion, Imports: records})
	if err != nil {
		return err
	}
	if err := writeFileAtomic(c.objectPath(key), payload); err != nil {
		return err
	}
	c.count(func(s *CacheStats) { s.Writes++ })
	return nil
}

func validUTF8(records []ImportRecord) bool {
	for _, record := range records {
		if !utf8.ValidString(record.Name) || !utf8.ValidString(record.Signature) {
			return false
		}
	}
	return true
}

func (c *Cache) count(update func(*CacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if os.Rename(tmpPath, path) == nil {
		return nil
	}
	_ = os.Remove(tmpPath)
	// Windows cannot atomically rename over existing files; fall back to overwrite.
	return os.WriteFile(path, data, 0o600)
}
