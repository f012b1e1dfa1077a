// Package cache implements the two-tier embedding cache: a bounded in-memory LRU
// backed by a best-effort per-key file on disk.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/pkg/vsutil"
)

// Key returns the sha256(utf8(text)) hex digest used to address both tiers.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	key   string
	value []float32
}

// Cache is the two-tier embedding cache. Memory tier is a bounded LRU; file tier is a
// directory of <hex>.json files written with durable replace, consulted on a memory
// miss and used to repopulate the memory tier.
type Cache struct {
	capacity int
	dir      string
	logger   *zap.Logger

	mu    sync.Mutex
	byKey map[string]*list.Element
	lru   *list.List
}

// New returns a cache with the given memory capacity, persisting its file tier under
// dir. dir is created lazily on first write.
func New(capacity int, dir string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = vsutil.NopLogger()
	}
	return &Cache{
		capacity: capacity,
		dir:      dir,
		logger:   logger,
		byKey:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the embedding for text, checking memory first and then the file tier,
// promoting a file hit back into memory.
func (c *Cache) Get(text string) ([]float32, bool) {
	key := Key(text)

	c.mu.Lock()
	if elem, ok := c.byKey[key]; ok {
		c.lru.MoveToFront(elem)
		v := elem.Value.(*entry).value
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	v, ok := c.readFile(key)
	if !ok {
		return nil, false
	}
	c.promote(key, v)
	return v, true
}

// Set stores the embedding for text in both tiers. The file write is best-effort: a
// failure is logged but never returned to the caller.
func (c *Cache) Set(text string, value []float32) {
	key := Key(text)
	c.promote(key, value)
	if err := c.writeFile(key, value); err != nil {
		c.logger.Warn("embedding cache file write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) promote(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byKey[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*entry).value = value
		return
	}
	elem := c.lru.PushFront(&entry{key: key, value: value})
	c.byKey[key] = elem
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.byKey, oldest.Value.(*entry).key)
		}
	}
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) readFile(key string) ([]float32, bool) {
	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (c *Cache) writeFile(key string, value []float32) error {
	if c.dir == "" {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return vsutil.DurableWriteFile(c.filePath(key), data, 0644)
}
