package scrape

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/resorts.yaml
var resortsYAML embed.FS

// Registry holds the static configuration for all tracked resorts.
type Registry struct {
	Resorts []ResortConfig `yaml:"resorts"`
}

// ResortConfig is the static, externally supplied description of one resort:
// identity, coordinates, and provider-specific addressing. Immutable for the
// process lifetime. Any subset of the three sources may be configured.
type ResortConfig struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Region   string  `yaml:"region"` // state or province
	Lat      float64 `yaml:"lat"`
	Lng      float64 `yaml:"lng"`
	BaseFt   float64 `yaml:"base_ft"`
	SummitFt float64 `yaml:"summit_ft"`
	Timezone string  `yaml:"timezone,omitempty"` // IANA name, default America/Los_Angeles

	Snotel   *SnotelConfig   `yaml:"snotel,omitempty"`
	Forecast *ForecastConfig `yaml:"forecast,omitempty"`
	Page     *PageConfig     `yaml:"page,omitempty"`
}

// SnotelConfig addresses a telemetry station.
type SnotelConfig struct {
	StationTriplet string `yaml:"station_triplet"` // e.g. "910:WA:SNTL"
}

// ForecastConfig addresses a gridded-forecast cell.
type ForecastConfig struct {
	Office string `yaml:"office"` // e.g. "SEW"
	GridX  int    `yaml:"grid_x"`
	GridY  int    `yaml:"grid_y"`
}

// PageConfig describes a scrapeable resort page and its ordered extraction
// strategies. Strategies are tried in sequence; adding a new page shape is a
// configuration change, not a code change.
type PageConfig struct {
	URL        string           `yaml:"url"`
	Strategies []StrategyConfig `yaml:"strategies"`
}

// StrategyConfig configures one extraction strategy.
type StrategyConfig struct {
	// Type is "embedded_json" or "selectors".
	Type string `yaml:"type"`

	// Anchor locates the embedded JSON block: a CSS id selector
	// (e.g. "#conditions-data") or, when Marker is set instead, a string
	// marker preceding an inline JSON object (e.g. "window.__CONDITIONS__").
	Anchor string `yaml:"anchor,omitempty"`
	Marker string `yaml:"marker,omitempty"`

	// Selectors drive the structural fallback strategy.
	Selectors PageSelectors `yaml:"selectors,omitempty"`
}

// PageSelectors maps canonical page fields to CSS selectors.
type PageSelectors struct {
	LiftsOpen   string `yaml:"lifts_open,omitempty"`
	LiftsTotal  string `yaml:"lifts_total,omitempty"`
	RunsOpen    string `yaml:"runs_open,omitempty"`
	RunsTotal   string `yaml:"runs_total,omitempty"`
	Snowfall24h string `yaml:"snowfall_24h,omitempty"`
	Snowfall48h string `yaml:"snowfall_48h,omitempty"`
	BaseDepth   string `yaml:"base_depth,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

// LoadRegistry reads the resort registry. An empty path uses the embedded
// resorts.yaml; a non-empty path reads from the filesystem instead, for
// local development against a modified registry.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = resortsYAML.ReadFile("config/resorts.yaml")
	}
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	seen := make(map[string]bool, len(r.Resorts))
	for _, resort := range r.Resorts {
		if resort.ID == "" {
			return fmt.Errorf("resort with empty id (name=%q)", resort.Name)
		}
		if seen[resort.ID] {
			return fmt.Errorf("duplicate resort id %q", resort.ID)
		}
		seen[resort.ID] = true
		if resort.Snotel == nil && resort.Forecast == nil && resort.Page == nil {
			return fmt.Errorf("resort %q has no sources configured", resort.ID)
		}
		if resort.Page != nil && len(resort.Page.Strategies) == 0 {
			return fmt.Errorf("resort %q page config has no extraction strategies", resort.ID)
		}
	}
	return nil
}

// Find returns the config for a resort id.
func (r *Registry) Find(id string) (*ResortConfig, bool) {
	for i := range r.Resorts {
		if r.Resorts[i].ID == id {
			return &r.Resorts[i], true
		}
	}
	return nil, false
}

// Location returns the resort's IANA timezone name, defaulting to Pacific.
func (c *ResortConfig) Location() string {
	if c.Timezone != "" {
		return c.Timezone
	}
	return "America/Los_Angeles"
}
