// Package cache implements an on-disk artifact cache for compiled
// components. Entries are keyed by the component source, the compile
// options and the compiler version, so a stale artifact is never reused.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/diag"
)

// ErrNotFound is returned by Get when no usable entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Cache represents a build cache for compiled modules
type Cache struct {
	mu       sync.RWMutex
	saveMu   sync.Mutex
	dir      string
	index    *Index
	maxSize  int64
	maxAge   time.Duration
	strategy EvictionStrategy
	stats    Stats
	log      zerolog.Logger
}

// Index tracks all cached entries
type Index struct {
	// Version is the compiler version that produced the entries.
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Entry represents a single cached artifact
type Entry struct {
	Key          string    `json:"key"`
	Hash         string    `json:"hash"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
	LastAccess   time.Time `json:"last_access"`
	AccessCount  int       `json:"access_count"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// Stats tracks cache performance
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

// EvictionStrategy defines how entries are removed when the cache is full
type EvictionStrategy int

const (
	// LRU removes least recently used entries
	LRU EvictionStrategy = iota
	// LFU removes least frequently used entries
	LFU
	// FIFO removes oldest entries first
	FIFO
)

// ParseStrategy maps a config name to a strategy.
func ParseStrategy(name string) (EvictionStrategy, error) {
	switch name {
	case "", "lru":
		return LRU, nil
	case "lfu":
		return LFU, nil
	case "fifo":
		return FIFO, nil
	}
	return LRU, fmt.Errorf("unknown eviction strategy %q", name)
}

// Config holds cache configuration
type Config struct {
	Dir      string           // Cache directory (default: $HOME/.cache/vuec)
	MaxSize  int64            // Maximum cache size in bytes, 0 for no limit
	MaxAge   time.Duration    // Maximum age for entries, 0 for no expiry
	Strategy EvictionStrategy // Eviction strategy (default: LRU)
	Logger   zerolog.Logger
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Dir:      filepath.Join(homeDir, ".cache", "vuec"),
		MaxSize:  256 << 20, // 256 MB
		MaxAge:   7 * 24 * time.Hour,
		Strategy: LRU,
		Logger:   zerolog.Nop(),
	}
}

// New opens the cache in config.Dir. An index written by another compiler
// version is discarded together with its artifacts.
func New(config Config) (*Cache, error) {
	if config.Dir == "" {
		config.Dir = DefaultConfig().Dir
	}
	if err := os.MkdirAll(filepath.Join(config.Dir, "artifacts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:      config.Dir,
		maxSize:  config.MaxSize,
		maxAge:   config.MaxAge,
		strategy: config.Strategy,
		log:      config.Logger.With().Str("component", "cache").Logger(),
		index:    newIndex(),
	}

	if err := c.loadIndex(); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warn().Err(err).Msg("discarding unreadable cache index")
	}
	if c.index.Version != compiler.Version {
		c.log.Debug().Str("found", c.index.Version).Str("want", compiler.Version).Msg("cache built by another compiler version")
		if err := c.Clear(); err != nil {
			return nil, err
		}
	}
	c.Prune()
	return c, nil
}

func newIndex() *Index {
	return &Index{
		Version: compiler.Version,
		Entries: make(map[string]*Entry),
		Updated: time.Now(),
	}
}

// Key derives the cache key of a compile. Every input that can change the
// output takes part: block contents and positions, options and the
// compiler version.
func Key(in compiler.Input, opts compiler.Options) string {
	h := sha256.New()
	field := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}

	filename := opts.Filename
	if in.Filename != "" {
		filename = in.Filename
	}
	field(compiler.Version)
	field(filename)
	field(strconv.FormatBool(opts.IsProduction))
	field(string(opts.Whitespace))
	field(strconv.FormatBool(opts.HoistStatic))
	field(strconv.FormatBool(opts.SourceMap))
	field(strconv.FormatBool(opts.CacheHandlers))
	field(in.Template)
	field(in.Script)
	field(in.ScriptSetup)
	for _, p := range []diag.Position{in.TemplateStart, in.ScriptStart, in.ScriptSetupStart} {
		field(fmt.Sprintf("%d,%d,%d", p.Offset, p.Line, p.Column))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached artifact
func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.RLock()
	entry, exists := c.index.Entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, ErrNotFound
	}
	if c.isExpired(entry) {
		c.Delete(key)
		c.recordMiss()
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil || c.hash(data) != entry.Hash {
		// Missing or corrupted artifact
		c.Delete(key)
		c.recordMiss()
		return nil, ErrNotFound
	}

	c.mu.Lock()
	entry.LastAccess = time.Now()
	entry.AccessCount++
	c.stats.Hits++
	c.mu.Unlock()
	return data, nil
}

// Put stores an artifact. deps are the files the artifact was built from;
// see InvalidateByDependency.
func (c *Cache) Put(key string, data []byte, deps ...string) error {
	hash := c.hash(data)

	c.mu.RLock()
	if existing, ok := c.index.Entries[key]; ok && existing.Hash == hash {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	size := int64(len(data))
	c.ensureSpace(size)

	path := filepath.Join(c.dir, "artifacts", sanitizeKey(key)+"_"+hash[:8])
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	entry := &Entry{
		Key:          key,
		Hash:         hash,
		Path:         path,
		Size:         size,
		Created:      now,
		LastAccess:   now,
		Dependencies: deps,
	}

	c.mu.Lock()
	if old, ok := c.index.Entries[key]; ok {
		if old.Path != path {
			c.removeFile(old.Path)
		}
		c.stats.TotalSize -= old.Size
	}
	c.index.Entries[key] = entry
	c.index.Updated = now
	c.stats.TotalSize += size
	c.stats.EntryCount = len(c.index.Entries)
	c.mu.Unlock()

	return c.Flush()
}

// GetResult retrieves a cached compile result.
func (c *Cache) GetResult(key string) (*compiler.Result, error) {
	data, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	var res compiler.Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.Delete(key)
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &res, nil
}

// PutResult stores a compile result. Results of failed compiles are not
// cached.
func (c *Cache) PutResult(key string, res *compiler.Result, deps ...string) error {
	if res == nil || res.Code == "" {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.Put(key, data, deps...)
}

// Delete removes an entry from the cache
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[key]
	if !ok {
		return nil
	}
	c.removeEntryNoLock(key, entry)
	return c.saveIndexNoLock()
}

// InvalidateByDependency removes entries built from dep and returns how
// many were removed.
func (c *Cache) InvalidateByDependency(dep string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.index.Entries {
		for _, d := range entry.Dependencies {
			if d == dep {
				c.removeEntryNoLock(key, entry)
				count++
				break
			}
		}
	}
	if count > 0 {
		if err := c.saveIndexNoLock(); err != nil {
			c.log.Warn().Err(err).Msg("failed to save cache index")
		}
	}
	return count
}

// Prune removes expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, entry := range c.index.Entries {
		if c.isExpired(entry) {
			c.removeEntryNoLock(key, entry)
			count++
		}
	}
	if count > 0 {
		c.log.Debug().Int("entries", count).Msg("pruned expired entries")
		if err := c.saveIndexNoLock(); err != nil {
			c.log.Warn().Err(err).Msg("failed to save cache index")
		}
	}
	return count
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	artifactsDir := filepath.Join(c.dir, "artifacts")
	if err := os.RemoveAll(artifactsDir); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	if err := os.MkdirAll(artifactsDir, 0755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	c.index = newIndex()
	c.stats = Stats{}
	return c.saveIndexNoLock()
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index.Entries)
}

// Flush writes the index to disk.
func (c *Cache) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveIndexNoLock()
}

// Close saves the index
func (c *Cache) Close() error {
	return c.Flush()
}

// Private methods

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.dir, "index.json"))
	if err != nil {
		return err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return err
	}
	if index.Entries == nil {
		index.Entries = make(map[string]*Entry)
	}
	c.index = &index

	var totalSize int64
	for _, entry := range c.index.Entries {
		totalSize += entry.Size
	}
	c.stats.TotalSize = totalSize
	c.stats.EntryCount = len(c.index.Entries)
	return nil
}

// saveIndexNoLock saves the index. Caller must hold at least a read lock
func (c *Cache) saveIndexNoLock() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	tmp := filepath.Join(c.dir, "index.json.tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(c.dir, "index.json"))
}

func (c *Cache) removeEntryNoLock(key string, entry *Entry) {
	c.removeFile(entry.Path)
	delete(c.index.Entries, key)
	c.stats.TotalSize -= entry.Size
	c.stats.EntryCount = len(c.index.Entries)
	c.index.Updated = time.Now()
}

func (c *Cache) isExpired(entry *Entry) bool {
	if c.maxAge <= 0 {
		return false
	}
	return time.Since(entry.Created) > c.maxAge
}

func (c *Cache) ensureSpace(needed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize <= 0 {
		return
	}

	for c.stats.TotalSize+needed > c.maxSize && len(c.index.Entries) > 0 {
		key, entry := c.victimNoLock()
		if entry == nil {
			break
		}
		c.removeEntryNoLock(key, entry)
		c.stats.Evictions++
	}
}

// victimNoLock picks the entry the strategy evicts next. Ties are broken
// by key so eviction order is stable.
func (c *Cache) victimNoLock() (string, *Entry) {
	var victimKey string
	var victim *Entry
	for key, entry := range c.index.Entries {
		if victim == nil || c.before(entry, victim) || (!c.before(victim, entry) && key < victimKey) {
			victimKey, victim = key, entry
		}
	}
	return victimKey, victim
}

// before reports whether a is evicted ahead of b.
func (c *Cache) before(a, b *Entry) bool {
	switch c.strategy {
	case LFU:
		return a.AccessCount < b.AccessCount
	case FIFO:
		return a.Created.Before(b.Created)
	default:
		return a.LastAccess.Before(b.LastAccess)
	}
}

// sanitizeKey turns a key into a short file name.
func sanitizeKey(key string) string {
	if len(key) > 16 {
		key = key[:16]
	}
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return '_'
	}, key)
}

func (c *Cache) hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *Cache) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to remove cache file")
	}
}
