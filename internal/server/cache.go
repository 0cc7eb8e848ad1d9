package server

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/recording"
)

// cacheEntry holds a decoded recording with its load time.
type cacheEntry struct {
	steps     []model.RecordedSignature
	timestamp time.Time
}

// RecordingCache keeps decoded recording files for a TTL. Entries are
// dropped early when the file changes on disk.
type RecordingCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	watched map[string]bool
	// gen counts invalidations per key; epoch counts InvalidateAll calls.
	// A read that raced with either is not stored.
	gen     map[string]uint64
	epoch   uint64
	ttl     time.Duration
	now     func() time.Time
	load    func(string) ([]model.RecordedSignature, error)
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewRecordingCache creates a cache. A ttl of 0 disables caching.
func NewRecordingCache(ttl time.Duration, logger *slog.Logger) (*RecordingCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &RecordingCache{
		entries: make(map[string]cacheEntry),
		watched: make(map[string]bool),
		gen:     make(map[string]uint64),
		ttl:     ttl,
		now:     time.Now,
		load:    recording.LoadAll,
		logger:  logger,
	}
	if ttl == 0 {
		return c, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	c.watcher = w
	go c.watch()
	return c, nil
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Load returns the steps of a recording, from cache when fresh. The
// returned slice is a copy.
func (c *RecordingCache) Load(path string) ([]model.RecordedSignature, error) {
	if c.ttl == 0 {
		return c.load(path)
	}
	key := cacheKey(path)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		steps := append([]model.RecordedSignature(nil), entry.steps...)
		c.mu.Unlock()
		return steps, nil
	}
	// Watch before reading so a write during the read is seen.
	c.watchDirLocked(filepath.Dir(key))
	gen, epoch := c.gen[key], c.epoch
	c.mu.Unlock()

	steps, err := c.load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen[key] == gen && c.epoch == epoch {
		c.entries[key] = cacheEntry{steps: steps, timestamp: c.now()}
	}
	c.mu.Unlock()

	return append([]model.RecordedSignature(nil), steps...), nil
}

// watchDirLocked watches the directory holding a cached file. Directories
// are watched instead of files so editors that replace the file on save
// still invalidate.
func (c *RecordingCache) watchDirLocked(dir string) {
	if c.watcher == nil || c.watched[dir] {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.Warn("recording cache: cannot watch directory",
			slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}
	c.watched[dir] = true
}

func (c *RecordingCache) watch() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				c.Invalidate(ev.Name)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("recording cache: watcher error", slog.String("error", err.Error()))
		}
	}
}

// Cached reports whether path currently has a cache entry.
func (c *RecordingCache) Cached(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[cacheKey(path)]
	return ok
}

// Invalidate removes the entry for path.
func (c *RecordingCache) Invalidate(path string) {
	key := cacheKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[key]++
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.logger.Debug("recording cache: invalidated", slog.String("path", key))
	}
}

// InvalidateAll clears the entire cache.
func (c *RecordingCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]cacheEntry)
}

// Close stops watching for file changes.
func (c *RecordingCache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}
