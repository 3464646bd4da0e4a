package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/powderlines/powder-tracker/internal/db"
	"github.com/powderlines/powder-tracker/internal/scrape"
)

// One-shot scrape batch. With -dry the results are printed but nothing is
// persisted, which is handy when testing adapter or selector changes.
func main() {
	dry := flag.Bool("dry", false, "fetch and print without persisting")
	resortID := flag.String("resort", "", "limit the batch to one resort id")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found, using environment variables")
	}

	registry, err := scrape.LoadRegistry("")
	if err != nil {
		log.Fatalf("Failed to load resort registry: %v", err)
	}

	configs := registry.Resorts
	if *resortID != "" {
		cfg, ok := registry.Find(*resortID)
		if !ok {
			log.Fatalf("Unknown resort %q", *resortID)
		}
		configs = []scrape.ResortConfig{*cfg}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	var store scrape.RunStore
	if !*dry {
		pool, err := db.Connect(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		store = db.NewStore(pool)
	}

	orch := scrape.NewOrchestrator(store, scrape.NewConditionsCache(0))
	report, err := orch.RunBatch(ctx, configs, "cli")
	if err != nil {
		log.Fatalf("Batch failed: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Resort", "Result", "24h", "Base", "Temp", "Wind", "Lifts", "Sources"})

	for _, outcome := range report.Outcomes {
		if outcome.Conditions == nil {
			t.AppendRow(table.Row{outcome.ResortID, string(outcome.ErrClass), "", "", "", "", "", outcome.Err})
			continue
		}
		c := outcome.Conditions
		t.AppendRow(table.Row{
			outcome.ResortID, "ok",
			fmtFloat(c.SnowfallIn24h, `%.1f"`),
			fmtFloat(c.BaseDepthIn, `%.0f"`),
			fmtFloat(c.TemperatureF, "%.0fF"),
			fmtFloat(c.WindSpeedMph, "%.0fmph"),
			fmtLifts(c.LiftsOpen, c.LiftsTotal),
			sourceList(c.FetchedAt),
		})
	}
	t.Render()

	log.Printf("Batch %s: %d/%d succeeded in %s", report.RunID, report.Succeeded, report.Total, report.Duration.Round(time.Second))
}
