// Package geocache is the durable address to coordinate cache.
//
// The cache only grows: Store refuses to replace an existing entry, so a key
// resolved once keeps its coordinates across runs.
package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/storage"
	"golang.org/x/text/unicode/norm"
)

// Key builds the composite cache key for an address.
func Key(zip, city, country string) string {
	parts := []string{zip, city, country}
	for i, p := range parts {
		parts[i] = strings.ToLower(norm.NFC.String(strings.TrimSpace(p)))
	}
	return strings.Join(parts, "|")
}

// Cache is a file-backed AddressCache. It is not safe for concurrent use.
type Cache struct {
	entries map[string]model.CacheEntry
	logger  *slog.Logger
	path    string
	added   int
}

// New returns an empty cache that saves to path.
func New(path string) *Cache {
	return &Cache{
		entries: make(map[string]model.CacheEntry),
		logger:  slog.Default().With("component", "geocache"),
		path:    path,
	}
}

// Load reads the cache at path. It never fails: a missing, unreadable or
// malformed file yields an empty cache and a warning.
func Load(path string) *Cache {
	c := New(path)

	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Could not read geocode cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	var entries map[string]model.CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("Geocode cache is malformed, starting empty", "path", path, "error", err)
		return c
	}
	if entries != nil {
		c.entries = entries
	}

	c.logger.Debug("Loaded geocode cache", "path", path, "entries", len(c.entries))
	return c
}

// Lookup returns the entry stored under key.
func (c *Cache) Lookup(key string) (model.CacheEntry, bool) {
	entry, ok := c.entries[key]
	return entry, ok
}

// Store adds entry under key unless key is already present.
func (c *Cache) Store(key string, entry model.CacheEntry) bool {
	if _, exists := c.entries[key]; exists {
		return false
	}
	c.entries[key] = entry
	c.added++
	return true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Added returns how many entries were stored since the cache was loaded.
func (c *Cache) Added() int {
	return c.added
}

// Keys returns all keys in sorted order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns a copy of the cache contents.
func (c *Cache) Entries() map[string]model.CacheEntry {
	out := make(map[string]model.CacheEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Path returns the file the cache is saved to.
func (c *Cache) Path() string {
	return c.path
}

// Save writes the whole cache atomically. Keys are written in sorted order
// so an unchanged cache produces an identical file.
func (c *Cache) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.WriteJSONAtomic(c.path, c.entries); err != nil {
		return fmt.Errorf("failed to save geocode cache: %w", err)
	}
	c.logger.Debug("Saved geocode cache", "path", c.path, "entries", len(c.entries), "added", c.added)
	return nil
}
