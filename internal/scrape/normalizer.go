package scrape

import (
	"time"

	"github.com/powderlines/powder-tracker/internal/models"
)

// Normalize maps the raw per-source results for one resort onto the
// canonical Conditions record. It is a pure mapping: no I/O, no clock reads
// beyond the supplied now.
//
// Field precedence when two sources report the same logical value:
// telemetry owns snow depth and snowfall, the forecast service owns
// temperature/wind/sky-cover/humidity, the resort page owns lift and run
// counts. The secondary source fills a field only when the primary is
// absent, and provenance records which source actually populated it.
// Mismatched sources are never averaged.
func Normalize(resortID string, raw RawResults, now time.Time) models.Conditions {
	c := models.Conditions{
		ResortID:   resortID,
		Provenance: make(map[string]string),
		FetchedAt:  make(map[string]time.Time),
		UpdatedAt:  now,
	}

	if raw.Snotel != nil {
		c.FetchedAt[models.SourceSnotel] = raw.Snotel.FetchedAt
		applySnotel(&c, raw.Snotel)
	}
	if raw.Forecast != nil {
		c.FetchedAt[models.SourceForecast] = raw.Forecast.FetchedAt
		applyForecast(&c, raw.Forecast)
	}
	if raw.Snotel != nil {
		// Station-observed temperature is only a fallback; the forecast
		// reading reflects the current hour, not yesterday's observation.
		if latest, ok := raw.Snotel.Latest(elemObservedTemp); ok {
			setFloat(&c, &c.TemperatureF, "temperature_f", latest.Value, models.SourceSnotel)
		}
	}
	if raw.Page != nil {
		c.FetchedAt[models.SourcePage] = raw.Page.FetchedAt
		applyPage(&c, raw.Page)
	}
	if raw.FreezingLevel != nil {
		c.FetchedAt[models.SourceFreezingLevel] = raw.FreezingLevel.FetchedAt
		fl := raw.FreezingLevel.FreezingLevelFt
		setFloat(&c, &c.FreezingLevelFt, "freezing_level_ft", &fl, models.SourceFreezingLevel)
	}

	return c
}

func applySnotel(c *models.Conditions, s *SnotelSeries) {
	depth := s.Elements[elemSnowDepth]

	if latest, ok := s.Latest(elemSnowDepth); ok {
		setFloat(c, &c.BaseDepthIn, "base_depth_in", latest.Value, models.SourceSnotel)
	}
	if latest, ok := s.Latest(elemSnowWater); ok {
		setFloat(c, &c.SnowWaterIn, "snow_water_in", latest.Value, models.SourceSnotel)
	}
	if latest, ok := s.Latest(elemPrecipAccum); ok {
		setFloat(c, &c.PrecipAccumIn, "precip_accum_in", latest.Value, models.SourceSnotel)
	}

	setFloat(c, &c.SnowfallIn24h, "snowfall_in_24h", snowfallFromDepth(depth, 1), models.SourceSnotel)
	setFloat(c, &c.SnowfallIn48h, "snowfall_in_48h", snowfallFromDepth(depth, 2), models.SourceSnotel)
	setFloat(c, &c.SnowfallIn7d, "snowfall_in_7d", snowfallFromDepth(depth, 7), models.SourceSnotel)
}

func applyForecast(c *models.Conditions, f *ForecastBundle) {
	setFloat(c, &c.TemperatureF, "temperature_f", f.TemperatureF, models.SourceForecast)
	setFloat(c, &c.WindSpeedMph, "wind_speed_mph", f.WindSpeedMph, models.SourceForecast)
	setFloat(c, &c.WindGustMph, "wind_gust_mph", f.WindGustMph, models.SourceForecast)
	setFloat(c, &c.HumidityPct, "humidity_pct", f.HumidityPct, models.SourceForecast)
	setFloat(c, &c.SkyCover, "sky_cover", f.SkyCover, models.SourceForecast)
	if f.ShortForecast != "" && c.ShortForecast == "" {
		c.ShortForecast = f.ShortForecast
	}
	if len(f.Alerts) > 0 {
		c.Alerts = append([]string(nil), f.Alerts...)
	}
}

func applyPage(c *models.Conditions, p *PageConditions) {
	setInt(c, &c.LiftsOpen, "lifts_open", p.LiftsOpen, models.SourcePage)
	setInt(c, &c.LiftsTotal, "lifts_total", p.LiftsTotal, models.SourcePage)
	setInt(c, &c.RunsOpen, "runs_open", p.RunsOpen, models.SourcePage)
	setInt(c, &c.RunsTotal, "runs_total", p.RunsTotal, models.SourcePage)
	setFloat(c, &c.SnowfallIn24h, "snowfall_in_24h", p.SnowfallIn24h, models.SourcePage)
	setFloat(c, &c.SnowfallIn48h, "snowfall_in_48h", p.SnowfallIn48h, models.SourcePage)
	setFloat(c, &c.BaseDepthIn, "base_depth_in", p.BaseDepthIn, models.SourcePage)
	if p.Status != "" && c.StatusText == "" {
		c.StatusText = p.Status
		c.Provenance["status_text"] = models.SourcePage
	}
}

// setFloat fills dst only when it is still unset, recording provenance.
// Precedence is therefore the order in which sources are applied.
func setFloat(c *models.Conditions, dst **float64, field string, v *float64, source string) {
	if v == nil || *dst != nil {
		return
	}
	value := *v
	*dst = &value
	c.Provenance[field] = source
}

func setInt(c *models.Conditions, dst **int, field string, v *int, source string) {
	if v == nil || *dst != nil {
		return
	}
	value := *v
	*dst = &value
	c.Provenance[field] = source
}

// snowfallFromDepth sums the positive day-over-day snow-depth deltas over the
// last `days` intervals. Settlement and melt produce negative deltas, which
// are clamped to zero rather than subtracted: accumulated new snow is what
// the score cares about. Returns nil when the series has no usable interval.
func snowfallFromDepth(series []DatedValue, days int) *float64 {
	if len(series) < 2 {
		return nil
	}

	intervals := 0
	total := 0.0
	usable := false

	for i := len(series) - 1; i > 0 && intervals < days; i-- {
		cur, prev := series[i], series[i-1]
		intervals++
		if cur.Value == nil || prev.Value == nil {
			continue
		}
		usable = true
		if delta := *cur.Value - *prev.Value; delta > 0 {
			total += delta
		}
	}

	if !usable {
		return nil
	}
	return &total
}
