package models

import (
	"time"
)

// Source identifiers used in provenance and freshness maps.
const (
	SourceSnotel        = "snotel"
	SourceForecast      = "forecast"
	SourcePage          = "page"
	SourceFreezingLevel = "freezing_level"
)

// Conditions is the canonical, normalized snapshot of a resort's current
// snow and weather state. Every numeric field is a pointer: nil means the
// value was not measured this cycle, which is distinct from a measured zero.
type Conditions struct {
	ResortID string `json:"resort_id"`

	SnowfallIn24h *float64 `json:"snowfall_in_24h"`
	SnowfallIn48h *float64 `json:"snowfall_in_48h"`
	SnowfallIn7d  *float64 `json:"snowfall_in_7d"`
	BaseDepthIn   *float64 `json:"base_depth_in"`
	SnowWaterIn   *float64 `json:"snow_water_in"`   // snow-water equivalent
	PrecipAccumIn *float64 `json:"precip_accum_in"` // water-year precipitation accumulation
	TemperatureF  *float64 `json:"temperature_f"`
	WindSpeedMph  *float64 `json:"wind_speed_mph"`
	WindGustMph   *float64 `json:"wind_gust_mph"`
	HumidityPct   *float64 `json:"humidity_pct"`
	SkyCover      *float64 `json:"sky_cover"` // fraction, 0..1

	FreezingLevelFt *float64 `json:"freezing_level_ft"`

	LiftsOpen  *int `json:"lifts_open"`
	LiftsTotal *int `json:"lifts_total"`
	RunsOpen   *int `json:"runs_open"`
	RunsTotal  *int `json:"runs_total"`

	StatusText    string   `json:"status_text,omitempty"`
	ShortForecast string   `json:"short_forecast,omitempty"`
	Alerts        []string `json:"alerts,omitempty"`

	// Provenance maps each populated canonical field to the source that
	// supplied it ("snotel", "forecast", "page", "freezing_level", or
	// "cache:<source>" when backfilled from a previous cycle).
	Provenance map[string]string `json:"provenance,omitempty"`

	// FetchedAt holds one freshness timestamp per contributing source.
	FetchedAt map[string]time.Time `json:"fetched_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SourceAvailability flags which major sources contributed to a snapshot.
type SourceAvailability struct {
	Snotel        bool `json:"snotel"`
	Forecast      bool `json:"forecast"`
	Page          bool `json:"page"`
	FreezingLevel bool `json:"freezing_level"`
}

// Available reports which sources contributed data to this snapshot.
func (c *Conditions) Available() SourceAvailability {
	_, snotel := c.FetchedAt[SourceSnotel]
	_, forecast := c.FetchedAt[SourceForecast]
	_, page := c.FetchedAt[SourcePage]
	_, fl := c.FetchedAt[SourceFreezingLevel]
	return SourceAvailability{
		Snotel:        snotel,
		Forecast:      forecast,
		Page:          page,
		FreezingLevel: fl,
	}
}

// ScraperRun is the append-only record of one orchestrator batch.
type ScraperRun struct {
	RunID       string     `json:"run_id"`
	Trigger     string     `json:"trigger"` // "scheduled", "manual", "cli"
	Expected    int        `json:"expected"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Status      string     `json:"status"` // running, completed, completed_with_errors, incomplete
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  *int64     `json:"duration_ms,omitempty"`
}

// Float returns a pointer to v. Convenience for building Conditions literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
