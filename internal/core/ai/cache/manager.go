package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"souschef/internal/pkg/common"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Store 快取介面，未命中時返回 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Key 由命名空間與內容產生固定長度的快取鍵
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// NormalizePrompt 合併連續空白，讓排版不同的相同提示共用快取
func NormalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(prompt), " ")
}

// CacheManager 行程內快取，容量滿時淘汰最久未使用的條目
type CacheManager struct {
	lru    *expirable.LRU[string, string]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewManager 創建新的緩存管理器
func NewManager(maxSize int, ttl time.Duration) *CacheManager {
	m := &CacheManager{
		lru: expirable.NewLRU[string, string](maxSize, nil, ttl),
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("max_size", maxSize),
		zap.Duration("ttl", ttl),
	)
	return m
}

// Get 獲取緩存值
func (m *CacheManager) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.lru.Get(key); ok {
		m.hits.Add(1)
		common.LogCacheHit("memory")
		return v, nil
	}
	m.misses.Add(1)
	common.LogCacheMiss("memory")
	return "", common.ErrCacheMiss
}

// Set 設置緩存值
func (m *CacheManager) Set(ctx context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

// GetStats 獲取緩存統計
func (m *CacheManager) GetStats() map[string]interface{} {
	hits := m.hits.Load()
	misses := m.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return map[string]interface{}{
		"size":     m.lru.Len(),
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	}
}

// Close 清空緩存
func (m *CacheManager) Close() error {
	m.lru.Purge()
	return nil
}
