package score

import "time"

// neutralAspectScore stands in for a real slope-aspect sub-score. Computing
// aspect properly needs wind direction relative to each resort's dominant
// slope orientation, which no current source provides.
// TODO: replace with a real aspect computation once wind-direction data is wired in.
const neutralAspectScore = 5.0

// gustDiscount scales a reported gust down before it is compared against the
// band table, since gusts overstate sustained loading on the snowpack.
const gustDiscount = 0.75

// snowfallBreakpoints defines the piecewise-linear snowfall curve. Values
// between adjacent breakpoints are interpolated; above the last one the score
// is clamped to its value.
var snowfallBreakpoints = []struct {
	inches float64
	score  float64
}{
	{0, 0},
	{3, 4},
	{6, 6},
	{12, 8},
	{18, 10},
}

func snowfallScore(inches float64) float64 {
	if inches <= 0 {
		return 0
	}
	last := snowfallBreakpoints[len(snowfallBreakpoints)-1]
	if inches >= last.inches {
		return last.score
	}
	for i := 1; i < len(snowfallBreakpoints); i++ {
		lo, hi := snowfallBreakpoints[i-1], snowfallBreakpoints[i]
		if inches <= hi.inches {
			frac := (inches - lo.inches) / (hi.inches - lo.inches)
			return lo.score + frac*(hi.score-lo.score)
		}
	}
	return last.score
}

// densityScore estimates how light the snow is from temperature and humidity
// bands. Cold and dry reads high (blower), warm and wet reads low (cement).
// Humidity is optional; when absent the middle band is assumed.
func densityScore(tempF float64, humidityPct *float64) float64 {
	col := 1
	if humidityPct != nil {
		switch {
		case *humidityPct < 40:
			col = 0
		case *humidityPct <= 70:
			col = 1
		default:
			col = 2
		}
	}
	var row [3]float64
	switch {
	case tempF <= 10:
		row = [3]float64{10, 10, 8}
	case tempF <= 22:
		row = [3]float64{10, 10, 7}
	case tempF <= 28:
		row = [3]float64{9, 8, 6}
	case tempF <= 32:
		row = [3]float64{7, 6, 4}
	default:
		row = [3]float64{4, 3, 1}
	}
	return row[col]
}

// freshnessScore estimates how recently the snow fell from the ratio of 24h
// snowfall to the preceding 24h (48h minus 24h). A high ratio means the storm
// is concentrated in the most recent window.
func freshnessScore(s24, s48, s7d float64) float64 {
	if s24 <= 0 {
		switch {
		case s48 > 0:
			return 4
		case s7d > 0:
			return 2
		default:
			return 0
		}
	}
	prior := s48 - s24
	if prior <= 0 {
		// All the accumulation landed inside the last 24h.
		return 10
	}
	ratio := s24 / prior
	switch {
	case ratio >= 3:
		return 10
	case ratio >= 1:
		return 8
	default:
		return 6
	}
}

func windScore(mph float64) float64 {
	switch {
	case mph <= 10:
		return 10
	case mph <= 15:
		return 8
	case mph <= 20:
		return 6
	case mph <= 25:
		return 4
	case mph <= 35:
		return 2
	default:
		return 0
	}
}

func temperatureScore(tempF float64) float64 {
	switch {
	case tempF < 5:
		return 6
	case tempF <= 15:
		return 10
	case tempF <= 25:
		return 8
	case tempF <= 32:
		return 5
	case tempF <= 40:
		return 3
	default:
		return 1
	}
}

func baseDepthScore(inches float64) float64 {
	switch {
	case inches < 20:
		return 2
	case inches < 40:
		return 4
	case inches < 60:
		return 6
	case inches < 80:
		return 8
	case inches < 100:
		return 9
	default:
		return 10
	}
}

func skyCoverScore(fraction float64) float64 {
	switch {
	case fraction < 0.25:
		return 5
	case fraction < 0.5:
		return 6
	case fraction < 0.75:
		return 8
	default:
		return 10
	}
}

// crowdScore is a day/time-of-week heuristic: early weekday mornings are the
// emptiest, midday weekends the most tracked out.
func crowdScore(now time.Time) float64 {
	hour := now.Hour()
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		if hour >= 10 && hour < 14 {
			return 2
		}
		return 4
	default:
		switch {
		case hour < 9:
			return 10
		case hour < 14:
			return 7
		default:
			return 8
		}
	}
}
