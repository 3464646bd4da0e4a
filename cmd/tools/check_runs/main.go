package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/powderlines/powder-tracker/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found, using environment variables")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := db.NewStore(pool).RecentRuns(ctx, 10)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Run", "Trigger", "Status", "Expected", "Succeeded", "Failed", "Duration", "Started At"})

	for _, run := range runs {
		duration := "Running..."
		if run.DurationMs != nil {
			duration = (time.Duration(*run.DurationMs) * time.Millisecond).Round(time.Second).String()
		}
		t.AppendRow(table.Row{
			run.RunID[:8], run.Trigger, run.Status,
			run.Expected, run.Succeeded, run.Failed,
			duration, run.StartedAt.Format("Jan 02 15:04:05"),
		})
	}
	t.Render()
}
