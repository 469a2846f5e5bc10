package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/handymanapp/handyman-backend/internal/pricing"
)

// Source отдаёт текущую погоду для точки.
type Source interface {
	Current(ctx context.Context, lat, lon float64) (*pricing.Weather, error)
}

// CachedSource кэширует ответы погодного API в памяти с TTL.
// Координаты округляются до двух знаков, соседние адреса делят одну запись.
type CachedSource struct {
	source Source
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	conditions *pricing.Weather
	expiresAt  time.Time
}

// NewCachedSource оборачивает источник погоды кэшем.
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	cs := &CachedSource{
		source: source,
		ttl:    ttl,
		cache:  make(map[string]*cacheEntry),
	}

	go cs.cleanup()

	return cs
}

// Current возвращает погоду из кэша или запрашивает источник.
func (cs *CachedSource) Current(ctx context.Context, lat, lon float64) (*pricing.Weather, error) {
	key := cacheKey(lat, lon)

	cs.mu.RLock()
	entry, exists := cs.cache[key]
	cs.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return entry.conditions, nil
	}

	conditions, err := cs.source.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	cs.cache[key] = &cacheEntry{
		conditions: conditions,
		expiresAt:  time.Now().Add(cs.ttl),
	}
	cs.mu.Unlock()

	return conditions, nil
}

// cleanup периодически удаляет протухшие записи.
func (cs *CachedSource) cleanup() {
	ticker := time.NewTicker(cs.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		cs.mu.Lock()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", lat, lon)
}
