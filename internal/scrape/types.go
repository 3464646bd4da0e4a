package scrape

import (
	"errors"
	"fmt"
	"time"
)

// ErrorClass groups adapter failures so operators can tell "upstream is
// down" from "our extraction broke" in the run record.
type ErrorClass string

const (
	ErrClassUpstream ErrorClass = "upstream_unavailable" // network error, timeout, non-2xx
	ErrClassNoData   ErrorClass = "no_data"              // upstream reachable but payload empty
	ErrClassParse    ErrorClass = "parse_failure"        // payload shape matched no extraction strategy
)

// AdapterError wraps a source fetch/parse failure with its class.
type AdapterError struct {
	Source string
	Class  ErrorClass
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Class, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

func upstreamErr(source string, err error) *AdapterError {
	return &AdapterError{Source: source, Class: ErrClassUpstream, Err: err}
}

func noDataErr(source string, format string, args ...interface{}) *AdapterError {
	return &AdapterError{Source: source, Class: ErrClassNoData, Err: fmt.Errorf(format, args...)}
}

func parseErr(source string, err error) *AdapterError {
	return &AdapterError{Source: source, Class: ErrClassParse, Err: err}
}

// ClassOf extracts the error class from an adapter error chain.
// Unclassified errors (including context timeouts) count as upstream failures.
func ClassOf(err error) ErrorClass {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Class
	}
	return ErrClassUpstream
}

// DatedValue is one sample in a telemetry time series.
type DatedValue struct {
	Date  time.Time
	Value *float64 // nil when the station reported no reading for the day
}

// SnotelSeries is the raw telemetry response: one daily series per element.
type SnotelSeries struct {
	StationTriplet string
	Elements       map[string][]DatedValue // keyed by element code (SNWD, WTEQ, TOBS)
	FetchedAt      time.Time
}

// Latest returns the most recent non-nil sample for an element.
func (s *SnotelSeries) Latest(element string) (DatedValue, bool) {
	series := s.Elements[element]
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Value != nil {
			return series[i], true
		}
	}
	return DatedValue{}, false
}

// ForecastBundle is the raw gridded-forecast response reduced to the fields
// the normalizer consumes.
type ForecastBundle struct {
	TemperatureF  *float64
	WindSpeedMph  *float64
	WindGustMph   *float64
	HumidityPct   *float64
	SkyCover      *float64 // fraction, 0..1
	ShortForecast string
	Alerts        []string
	FetchedAt     time.Time
}

// FreezingLevelSample is the single-value auxiliary reading used by the
// rain-risk check.
type FreezingLevelSample struct {
	FreezingLevelFt float64
	FetchedAt       time.Time
}

// PageConditions is the raw structured data extracted from a resort page.
type PageConditions struct {
	LiftsOpen     *int
	LiftsTotal    *int
	RunsOpen      *int
	RunsTotal     *int
	SnowfallIn24h *float64
	SnowfallIn48h *float64
	BaseDepthIn   *float64
	Status        string
	FetchedAt     time.Time
}

// RawResults collects everything the adapters produced for one resort in one
// cycle. A nil field with no matching entry in Errors means the resort is not
// configured for that source.
type RawResults struct {
	Snotel        *SnotelSeries
	Forecast      *ForecastBundle
	FreezingLevel *FreezingLevelSample
	Page          *PageConditions
	Errors        map[string]*AdapterError // keyed by source id
}

// Succeeded reports whether at least one adapter returned data.
func (r *RawResults) Succeeded() bool {
	return r.Snotel != nil || r.Forecast != nil || r.FreezingLevel != nil || r.Page != nil
}
