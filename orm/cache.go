package orm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// APICache stores responses from external services keyed by request
type APICache struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// GetCacheEntry retrieves a cache entry that has not expired
func GetCacheEntry(db *gorm.DB, key string) (*APICache, error) {
	var entry APICache
	err := db.Where("key = ? AND expires_at > ?", key, time.Now()).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetCacheEntry upserts a cache entry with the given TTL
func SetCacheEntry(db *gorm.DB, key string, value []byte, ttl time.Duration) error {
	entry := APICache{
		Key:       key,
		Value:     value,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	return db.Save(&entry).Error
}

// CleanupCache removes expired entries
func CleanupCache(db *gorm.DB) error {
	return db.Where("expires_at < ?", time.Now()).Delete(&APICache{}).Error
}

// travelBackend is the slice of the routing client the cache wraps
type travelBackend interface {
	MatrixMinutes(ctx context.Context, coords [][2]float64) [][]int
	Available(ctx context.Context) bool
	Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) float64
}

// CachedTravel memoizes pairwise driving distances in the database so
// repeated plans for the same destination skip the routing backend.
// Matrix calls pass through; their keys are too large to be worth it.
type CachedTravel struct {
	inner travelBackend
	db    *gorm.DB
	ttl   time.Duration
}

// NewCachedTravel wraps a routing backend with a distance cache
func NewCachedTravel(inner travelBackend, db *gorm.DB, ttl time.Duration) *CachedTravel {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedTravel{inner: inner, db: db, ttl: ttl}
}

func (c *CachedTravel) MatrixMinutes(ctx context.Context, coords [][2]float64) [][]int {
	return c.inner.MatrixMinutes(ctx, coords)
}

func (c *CachedTravel) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

func (c *CachedTravel) Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) float64 {
	key := fmt.Sprintf("dist:%.5f,%.5f;%.5f,%.5f", lat1, lon1, lat2, lon2)
	if entry, err := GetCacheEntry(c.db, key); err == nil {
		var km float64
		if json.Unmarshal(entry.Value, &km) == nil {
			return km
		}
	}
	km := c.inner.Distance(ctx, lat1, lon1, lat2, lon2)
	if buf, err := json.Marshal(km); err == nil {
		_ = SetCacheEntry(c.db, key, buf, c.ttl)
	}
	return km
}
