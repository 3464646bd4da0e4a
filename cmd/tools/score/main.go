package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/powderlines/powder-tracker/internal/db"
	"github.com/powderlines/powder-tracker/internal/score"
	"github.com/powderlines/powder-tracker/internal/scrape"
)

// Recomputes powder scores from the stored latest conditions without
// touching any upstream source. Useful after tuning resort metadata
// (summit elevation, timezone) or when inspecting why a resort scored
// the way it did.
func main() {
	resortID := flag.String("resort", "", "score only this resort id")
	registryPath := flag.String("registry", "", "path to a resort registry file (default: embedded registry)")
	asJSON := flag.Bool("json", false, "emit full score breakdowns as JSON")
	flag.Parse()

	_ = godotenv.Load()

	registry, err := scrape.LoadRegistry(*registryPath)
	if err != nil {
		log.Fatalf("load registry: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	latest, err := store.AllLatestConditions(ctx)
	if err != nil {
		log.Fatalf("load conditions: %v", err)
	}

	var results []score.Result
	for _, cfg := range registry.Resorts {
		if *resortID != "" && cfg.ID != *resortID {
			continue
		}
		cond, ok := latest[cfg.ID]
		if !ok {
			continue
		}

		now := time.Now()
		if loc, err := time.LoadLocation(cfg.Location()); err == nil {
			now = now.In(loc)
		}
		results = append(results, score.Score(cond, score.Context{Now: now, SummitFt: cfg.SummitFt}))
	}

	if len(results) == 0 {
		fmt.Println("No stored conditions to score. Run a scrape first.")
		return
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Resort", "Score", "Verdict", "Pre-Modifier", "Modifiers"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.ResortID,
			fmt.Sprintf("%.1f", r.Display),
			r.Verdict,
			fmt.Sprintf("%.2f", r.PreModifier),
			modifierSummary(r.Modifiers),
		})
	}
	t.Render()
}

func modifierSummary(mods []score.Modifier) string {
	if len(mods) == 0 {
		return "-"
	}
	out := ""
	for i, m := range mods {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s(%s %.1f)", m.Name, m.Kind, m.Value)
	}
	return out
}
