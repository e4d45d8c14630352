package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	cacheVersion   = 1
	defaultTTLDays = 30
	cacheDirName   = "scrollreel"
	framesDirName  = "frames"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// Entry holds one frame rendered to half-block lines at a fixed cell size.
type Entry struct {
	Version   uint8
	Path      string
	ModTime   int64
	Width     int
	Height    int
	Lines     []string
	CreatedAt int64
	ExpiresAt int64
}

type FrameCache struct {
	basePath string
	disabled bool
	ttl      time.Duration
	mu       sync.RWMutex
	memCache map[string]*Entry
}

// New opens the frame cache under the user cache directory. If the directory
// cannot be created the cache keeps working in memory only.
func New() (*FrameCache, error) {
	cacheDir, err := getCacheDirectory()
	if err != nil {
		return memoryOnly(), err
	}
	return NewAt(filepath.Join(cacheDir, framesDirName))
}

func NewAt(dir string) (*FrameCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return memoryOnly(), fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &FrameCache{
		basePath: dir,
		ttl:      defaultTTLDays * 24 * time.Hour,
		memCache: make(map[string]*Entry),
	}, nil
}

// Disabled returns a cache that stores nothing.
func Disabled() *FrameCache {
	return &FrameCache{disabled: true, memCache: make(map[string]*Entry)}
}

func memoryOnly() *FrameCache {
	return &FrameCache{
		ttl:      defaultTTLDays * 24 * time.Hour,
		memCache: make(map[string]*Entry),
	}
}

func getCacheDirectory() (string, error) {
	// xdg cache home takes priority
	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache != "" {
		return filepath.Join(xdgCache, cacheDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".cache", cacheDirName), nil
}

func Key(path string, modTime int64, width int, height int) string {
	raw := fmt.Sprintf("%s|%d|%dx%d", path, modTime, width, height)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:12])
}

func (c *FrameCache) Dir() string   { return c.basePath }
func (c *FrameCache) Enabled() bool { return !c.disabled }

func (c *FrameCache) getFilePath(key string) string {
	if c.basePath == "" {
		return ""
	}
	return filepath.Join(c.basePath, key+".bin")
}

func (c *FrameCache) Get(path string, modTime int64, width int, height int) (*Entry, error) {
	if c.disabled || path == "" {
		return nil, ErrCacheMiss
	}

	key := Key(path, modTime, width, height)

	c.mu.RLock()
	entry, exists := c.memCache[key]
	c.mu.RUnlock()

	if exists {
		if entry.ExpiresAt > time.Now().Unix() {
			return entry, nil
		}
		c.mu.Lock()
		delete(c.memCache, key)
		c.mu.Unlock()
	}

	if c.basePath == "" {
		return nil, ErrCacheMiss
	}

	filePath := c.getFilePath(key)
	entry, err := c.readFromDisk(filePath)
	if err != nil {
		return nil, err
	}

	if entry.ExpiresAt <= time.Now().Unix() {
		_ = os.Remove(filePath)
		return nil, ErrCacheExpired
	}

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()

	return entry, nil
}

// Set stores the entry in memory, then persists it.
func (c *FrameCache) Set(entry *Entry) error {
	if entry == nil || entry.Path == "" {
		return errors.New("invalid cache entry")
	}
	if c.disabled {
		return nil
	}

	key := Key(entry.Path, entry.ModTime, entry.Width, entry.Height)

	now := time.Now()
	entry.Version = cacheVersion
	entry.CreatedAt = now.Unix()
	entry.ExpiresAt = now.Add(c.ttl).Unix()

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}

	return c.writeToDisk(c.getFilePath(key), entry)
}

func (c *FrameCache) readFromDisk(filePath string) (*Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry Entry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCacheCorrupt
	}

	// version mismatch means stale format
	if entry.Version != cacheVersion {
		_ = os.Remove(filePath)
		return nil, ErrCacheCorrupt
	}

	return &entry, nil
}

func (c *FrameCache) writeToDisk(filePath string, entry *Entry) error {
	// write to temp file first, then rename for atomicity
	tmp, err := os.CreateTemp(c.basePath, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(entry); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filePath)
}

func (c *FrameCache) files() ([]os.DirEntry, error) {
	if c.basePath == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".bin") {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *FrameCache) Clear() error {
	c.mu.Lock()
	c.memCache = make(map[string]*Entry)
	c.mu.Unlock()

	entries, err := c.files()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		_ = os.Remove(filepath.Join(c.basePath, entry.Name()))
	}

	return nil
}

// Prune removes expired and unreadable entries from disk.
func (c *FrameCache) Prune() (int, error) {
	entries, err := c.files()
	if err != nil {
		return 0, err
	}

	pruned := 0
	now := time.Now().Unix()

	for _, dirEntry := range entries {
		filePath := filepath.Join(c.basePath, dirEntry.Name())
		entry, err := c.readFromDisk(filePath)
		if err != nil || entry.ExpiresAt <= now {
			_ = os.Remove(filePath)
			pruned++
		}
	}

	return pruned, nil
}

func (c *FrameCache) Stats() (count int, sizeBytes int64, err error) {
	entries, err := c.files()
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		count++
		sizeBytes += info.Size()
	}

	return count, sizeBytes, nil
}

func (c *FrameCache) Delete(path string, modTime int64, width int, height int) error {
	if path == "" {
		return errors.New("invalid frame path")
	}

	key := Key(path, modTime, width, height)

	c.mu.Lock()
	delete(c.memCache, key)
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}

	err := os.Remove(c.getFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
