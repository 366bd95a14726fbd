package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock 取得目前時間；測試可注入假時鐘
type Clock func() time.Time

// entry 單一快取條目
type entry struct {
	value      interface{}
	expireTime time.Time
}

// TTLCache 執行緒安全的記憶體快取
// 只做惰性過期：逾期條目在下次讀取時視同不存在，由新值覆寫，
// 不做背景清理也不主動失效
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	clock      Clock

	hitCount  int64
	missCount int64
}

// NewTTLCache 建立快取；clock 為 nil 時使用系統時鐘
func NewTTLCache(defaultTTL time.Duration, clock Clock) *TTLCache {
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		clock:      clock,
	}
}

// Get 取快取值；不存在或已逾期回傳 (nil, false)
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || e.expireTime.Before(c.clock()) {
		atomic.AddInt64(&c.missCount, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hitCount, 1)
	return e.value, true
}

// Set 寫入快取；ttl <= 0 時使用預設 TTL
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:      value,
		expireTime: c.clock().Add(ttl),
	}
}

// Len 目前條目數（含尚未被覆寫的逾期條目）
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats 命中統計
func (c *TTLCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hitCount), atomic.LoadInt64(&c.missCount)
}
