package scrape

import (
	"sync"
	"time"

	"github.com/powderlines/powder-tracker/internal/models"
)

// ConditionsCache is the explicit last-known-good cache handed to the
// Orchestrator. Entries expire after the configured TTL; an expired entry is
// treated as absent rather than served stale.
type ConditionsCache struct {
	mu  sync.RWMutex
	ttl time.Duration

	entries map[string]cacheEntry
}

type cacheEntry struct {
	conditions models.Conditions
	storedAt   time.Time
}

func NewConditionsCache(ttl time.Duration) *ConditionsCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &ConditionsCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Put stores the latest conditions for a resort.
func (c *ConditionsCache) Put(cond models.Conditions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cond.ResortID] = cacheEntry{conditions: cond, storedAt: time.Now()}
}

// Get returns the cached conditions for a resort if they are within TTL.
func (c *ConditionsCache) Get(resortID string) (models.Conditions, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[resortID]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return models.Conditions{}, false
	}
	return entry.conditions, true
}

// Backfill copies fields from cached into fresh when the field is missing and
// its cached provenance names one of the failed sources. Backfilled fields
// are marked "cache:<source>" so consumers can see they are carried forward,
// and the cached source's original freshness timestamp is retained.
func Backfill(fresh *models.Conditions, cached models.Conditions, failed map[string]bool) {
	if len(failed) == 0 {
		return
	}

	fill := func(dst **float64, field string) {
		src, ok := cached.Provenance[field]
		if *dst != nil || !ok || !failed[src] {
			return
		}
		v := floatField(cached, field)
		if v == nil {
			return
		}
		value := *v
		*dst = &value
		fresh.Provenance[field] = "cache:" + src
		if ts, ok := cached.FetchedAt[src]; ok {
			if _, have := fresh.FetchedAt[src]; !have {
				fresh.FetchedAt[src] = ts
			}
		}
	}

	fill(&fresh.SnowfallIn24h, "snowfall_in_24h")
	fill(&fresh.SnowfallIn48h, "snowfall_in_48h")
	fill(&fresh.SnowfallIn7d, "snowfall_in_7d")
	fill(&fresh.BaseDepthIn, "base_depth_in")
	fill(&fresh.SnowWaterIn, "snow_water_in")
	fill(&fresh.PrecipAccumIn, "precip_accum_in")
	fill(&fresh.TemperatureF, "temperature_f")
	fill(&fresh.WindSpeedMph, "wind_speed_mph")
	fill(&fresh.WindGustMph, "wind_gust_mph")
	fill(&fresh.HumidityPct, "humidity_pct")
	fill(&fresh.SkyCover, "sky_cover")
	fill(&fresh.FreezingLevelFt, "freezing_level_ft")
}

func floatField(c models.Conditions, field string) *float64 {
	switch field {
	case "snowfall_in_24h":
		return c.SnowfallIn24h
	case "snowfall_in_48h":
		return c.SnowfallIn48h
	case "snowfall_in_7d":
		return c.SnowfallIn7d
	case "base_depth_in":
		return c.BaseDepthIn
	case "snow_water_in":
		return c.SnowWaterIn
	case "precip_accum_in":
		return c.PrecipAccumIn
	case "temperature_f":
		return c.TemperatureF
	case "wind_speed_mph":
		return c.WindSpeedMph
	case "wind_gust_mph":
		return c.WindGustMph
	case "humidity_pct":
		return c.HumidityPct
	case "sky_cover":
		return c.SkyCover
	case "freezing_level_ft":
		return c.FreezingLevelFt
	default:
		return nil
	}
}
