package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

func fmtFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func fmtLifts(open, total *int) string {
	if open == nil {
		return "-"
	}
	if total == nil {
		return fmt.Sprintf("%d", *open)
	}
	return fmt.Sprintf("%d/%d", *open, *total)
}

func sourceList(fetchedAt map[string]time.Time) string {
	sources := make([]string, 0, len(fetchedAt))
	for src := range fetchedAt {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return strings.Join(sources, ",")
}
