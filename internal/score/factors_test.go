package score

import (
	"testing"
	"time"
)

func TestSnowfallScore_Breakpoints(t *testing.T) {
	cases := []struct {
		inches float64
		want   float64
	}{
		{0, 0},
		{3, 4},
		{6, 6},
		{12, 8},
		{18, 10},
		{30, 10},
	}
	for _, tc := range cases {
		if got := snowfallScore(tc.inches); got != tc.want {
			t.Errorf("snowfallScore(%v) = %v, want %v", tc.inches, got, tc.want)
		}
	}
}

func TestSnowfallScore_LinearBetweenBreakpoints(t *testing.T) {
	cases := []struct {
		inches float64
		want   float64
	}{
		{1.5, 2},   // midpoint of 0..3
		{4.5, 5},   // midpoint of 3..6
		{9, 7},     // midpoint of 6..12
		{15, 9},    // midpoint of 12..18
	}
	for _, tc := range cases {
		got := snowfallScore(tc.inches)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("snowfallScore(%v) = %v, want %v", tc.inches, got, tc.want)
		}
	}
}

func TestSnowfallScore_Monotonic(t *testing.T) {
	prev := snowfallScore(0)
	for s := 0.1; s <= 25; s += 0.1 {
		got := snowfallScore(s)
		if got < prev {
			t.Fatalf("snowfallScore decreased at %v: %v < %v", s, got, prev)
		}
		prev = got
	}
}

func TestDensityScore_Bands(t *testing.T) {
	cases := []struct {
		tempF    float64
		humidity *float64
		want     float64
	}{
		{5, fptr(30), 10},
		{20, fptr(55), 10},
		{20, fptr(85), 7},
		{25, fptr(55), 8},
		{30, fptr(90), 4},
		{36, fptr(90), 1},
		{20, nil, 10}, // missing humidity assumes middle band
	}
	for _, tc := range cases {
		if got := densityScore(tc.tempF, tc.humidity); got != tc.want {
			t.Errorf("densityScore(%v, %v) = %v, want %v", tc.tempF, tc.humidity, got, tc.want)
		}
	}
}

func TestFreshnessScore(t *testing.T) {
	cases := []struct {
		name          string
		s24, s48, s7d float64
		want          float64
	}{
		{"no snow at all", 0, 0, 0, 0},
		{"old snow this week", 0, 0, 6, 2},
		{"snow yesterday only", 0, 8, 12, 4},
		{"slow trickle", 2, 8, 10, 6},
		{"steady storm", 6, 10, 14, 8},
		{"concentrated burst", 12, 15, 20, 10},
		{"all in last day", 10, 10, 10, 10},
	}
	for _, tc := range cases {
		if got := freshnessScore(tc.s24, tc.s48, tc.s7d); got != tc.want {
			t.Errorf("%s: freshnessScore(%v, %v, %v) = %v, want %v", tc.name, tc.s24, tc.s48, tc.s7d, got, tc.want)
		}
	}
}

func TestWindScore_Bands(t *testing.T) {
	cases := []struct {
		mph  float64
		want float64
	}{
		{0, 10}, {10, 10}, {12, 8}, {18, 6}, {25, 4}, {30, 2}, {50, 0},
	}
	for _, tc := range cases {
		if got := windScore(tc.mph); got != tc.want {
			t.Errorf("windScore(%v) = %v, want %v", tc.mph, got, tc.want)
		}
	}
}

func TestCrowdScore(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"weekday early", time.Date(2026, 1, 13, 7, 0, 0, 0, time.UTC), 10},
		{"weekday midday", time.Date(2026, 1, 13, 11, 0, 0, 0, time.UTC), 7},
		{"weekday afternoon", time.Date(2026, 1, 13, 15, 0, 0, 0, time.UTC), 8},
		{"weekend midday", time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC), 2},
		{"weekend early", time.Date(2026, 1, 17, 7, 0, 0, 0, time.UTC), 4},
	}
	for _, tc := range cases {
		if got := crowdScore(tc.at); got != tc.want {
			t.Errorf("%s: crowdScore = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func fptr(v float64) *float64 { return &v }
