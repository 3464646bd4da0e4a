package score

import (
	"math"
	"time"

	"github.com/powderlines/powder-tracker/internal/models"
)

type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierTertiary  Tier = "tertiary"
)

// Factor is one sub-score in the breakdown. Weight is the effective overall
// weight (tier weight times the renormalized within-tier weight), so the sum
// of Contribution across factors equals the pre-modifier score.
type Factor struct {
	Name         string  `json:"name"`
	Tier         Tier    `json:"tier"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Available    bool    `json:"available"`
	Estimated    bool    `json:"estimated,omitempty"`
}

type ModifierKind string

const (
	ModifierBonus   ModifierKind = "bonus"
	ModifierPenalty ModifierKind = "penalty"
	ModifierCap     ModifierKind = "cap"
)

// Modifier records one triggered post-hoc adjustment. Value is the delta for
// bonuses and penalties, the ceiling for caps.
type Modifier struct {
	Name  string       `json:"name"`
	Kind  ModifierKind `json:"kind"`
	Value float64      `json:"value"`
}

// Result is the full scoring output for one resort snapshot. Overall keeps
// full float precision for ranking; Display is rounded to one decimal.
type Result struct {
	ResortID      string                    `json:"resort_id"`
	Overall       float64                   `json:"overall"`
	Display       float64                   `json:"display"`
	PreModifier   float64                   `json:"pre_modifier"`
	Factors       []Factor                  `json:"factors"`
	Modifiers     []Modifier                `json:"modifiers"`
	Verdict       string                    `json:"verdict"`
	DataAvailable models.SourceAvailability `json:"data_available"`
	ScoredAt      time.Time                 `json:"scored_at"`
}

// Context carries the transient facts a score depends on beyond the
// conditions themselves. Now must already be in the resort's local time zone
// so the crowd heuristic sees the right hour and weekday. SummitFt feeds the
// rain-risk check; zero means the summit elevation is unknown and the check
// is skipped.
type Context struct {
	Now      time.Time
	SummitFt float64
}

const (
	highWindThresholdMph = 25.0
	highWindPenalty      = 1.5
	stormCycleThresholdIn = 18.0
	stormCycleBonus       = 1.0
	zeroSnowCap           = 3.0
	rainRiskCap           = 2.0
)

// tier weights and within-tier factor weights.
var (
	tierWeights = map[Tier]float64{
		TierPrimary:   0.60,
		TierSecondary: 0.25,
		TierTertiary:  0.15,
	}
)

// Score derives a powder quality rating from a conditions snapshot. It is a
// pure function: no I/O, no mutable state, identical inputs give identical
// output.
func Score(cond *models.Conditions, ctx Context) Result {
	s24, s48, s7d := snowfallWindows(cond)

	primary := []Factor{
		factorFrom("snowfall_24h", TierPrimary, 0.40, cond.SnowfallIn24h != nil, false, func() float64 {
			return snowfallScore(*cond.SnowfallIn24h)
		}),
		factorFrom("density", TierPrimary, 0.30, cond.TemperatureF != nil, true, func() float64 {
			return densityScore(*cond.TemperatureF, cond.HumidityPct)
		}),
		factorFrom("freshness", TierPrimary, 0.30, cond.SnowfallIn24h != nil, true, func() float64 {
			return freshnessScore(s24, s48, s7d)
		}),
	}

	windAvailable := cond.WindSpeedMph != nil || cond.WindGustMph != nil
	secondary := []Factor{
		factorFrom("wind", TierSecondary, 0.40, windAvailable, false, func() float64 {
			return windScore(effectiveWind(cond))
		}),
		factorFrom("temperature", TierSecondary, 0.35, cond.TemperatureF != nil, false, func() float64 {
			return temperatureScore(*cond.TemperatureF)
		}),
		factorFrom("aspect", TierSecondary, 0.25, true, true, func() float64 {
			return neutralAspectScore
		}),
	}

	tertiary := []Factor{
		factorFrom("base_depth", TierTertiary, 0.30, cond.BaseDepthIn != nil, false, func() float64 {
			return baseDepthScore(*cond.BaseDepthIn)
		}),
		factorFrom("sky_cover", TierTertiary, 0.35, cond.SkyCover != nil, false, func() float64 {
			return skyCoverScore(*cond.SkyCover)
		}),
		factorFrom("crowd", TierTertiary, 0.35, true, true, func() float64 {
			return crowdScore(ctx.Now)
		}),
	}

	var factors []Factor
	var preModifier float64
	for _, group := range [][]Factor{primary, secondary, tertiary} {
		tierValue, weighted := combineTier(group)
		preModifier += tierValue * tierWeights[group[0].Tier]
		factors = append(factors, weighted...)
	}

	modifiers, overall := applyModifiers(cond, ctx, preModifier, s24, s48)

	return Result{
		ResortID:      cond.ResortID,
		Overall:       overall,
		Display:       math.Round(overall*10) / 10,
		PreModifier:   preModifier,
		Factors:       factors,
		Modifiers:     modifiers,
		Verdict:       verdict(overall),
		DataAvailable: cond.Available(),
		ScoredAt:      ctx.Now,
	}
}

func factorFrom(name string, tier Tier, weight float64, available, estimated bool, compute func() float64) Factor {
	f := Factor{Name: name, Tier: tier, Weight: weight, Available: available, Estimated: available && estimated}
	if available {
		f.Value = compute()
	}
	return f
}

// combineTier renormalizes the within-tier weights over the available factors
// and rewrites each factor's Weight to its effective overall share. A tier
// with nothing available contributes zero.
func combineTier(group []Factor) (float64, []Factor) {
	var availableWeight float64
	for _, f := range group {
		if f.Available {
			availableWeight += f.Weight
		}
	}
	tierWeight := tierWeights[group[0].Tier]

	var tierValue float64
	out := make([]Factor, len(group))
	for i, f := range group {
		if !f.Available || availableWeight == 0 {
			f.Weight = 0
			f.Contribution = 0
			out[i] = f
			continue
		}
		share := f.Weight / availableWeight
		tierValue += f.Value * share
		f.Weight = tierWeight * share
		f.Contribution = f.Value * f.Weight
		out[i] = f
	}
	return tierValue, out
}

// effectiveWind prefers the gust, discounted, over the sustained speed.
func effectiveWind(cond *models.Conditions) float64 {
	if cond.WindGustMph != nil {
		return *cond.WindGustMph * gustDiscount
	}
	if cond.WindSpeedMph != nil {
		return *cond.WindSpeedMph
	}
	return 0
}

// snowfallWindows resolves the three accumulation windows, substituting the
// 24h figure when the 48h one is missing (a lower bound, never an invention
// of extra snow) and zero when the 7d figure is missing.
func snowfallWindows(cond *models.Conditions) (s24, s48, s7d float64) {
	if cond.SnowfallIn24h != nil {
		s24 = *cond.SnowfallIn24h
	}
	s48 = s24
	if cond.SnowfallIn48h != nil {
		s48 = *cond.SnowfallIn48h
	}
	if cond.SnowfallIn7d != nil {
		s7d = *cond.SnowfallIn7d
	}
	return s24, s48, s7d
}

// applyModifiers evaluates the post-hoc adjustments against raw conditions.
// Additive modifiers land first; caps are applied after and always win, so a
// bonus can never push a capped score back up.
func applyModifiers(cond *models.Conditions, ctx Context, base, s24, s48 float64) ([]Modifier, float64) {
	modifiers := []Modifier{}
	score := base

	if cond.WindSpeedMph != nil && *cond.WindSpeedMph > highWindThresholdMph {
		modifiers = append(modifiers, Modifier{Name: "high_wind", Kind: ModifierPenalty, Value: -highWindPenalty})
		score -= highWindPenalty
	}
	if cond.SnowfallIn48h != nil && s48 >= stormCycleThresholdIn {
		modifiers = append(modifiers, Modifier{Name: "storm_cycle", Kind: ModifierBonus, Value: stormCycleBonus})
		score += stormCycleBonus
	}

	if cond.SnowfallIn24h != nil && s24 == 0 && s48 == 0 {
		modifiers = append(modifiers, Modifier{Name: "no_recent_snow", Kind: ModifierCap, Value: zeroSnowCap})
		score = math.Min(score, zeroSnowCap)
	}
	if cond.FreezingLevelFt != nil && ctx.SummitFt > 0 && *cond.FreezingLevelFt >= ctx.SummitFt {
		modifiers = append(modifiers, Modifier{Name: "rain_risk", Kind: ModifierCap, Value: rainRiskCap})
		score = math.Min(score, rainRiskCap)
	}

	return modifiers, clamp(score, 0, 10)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func verdict(overall float64) string {
	switch {
	case overall >= 9.5:
		return "all-time"
	case overall >= 8.5:
		return "epic"
	case overall >= 7:
		return "excellent"
	case overall >= 5.5:
		return "good"
	case overall >= 4:
		return "fair"
	case overall >= 2.5:
		return "marginal"
	default:
		return "poor"
	}
}
