package scrape

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler periodically runs a full scrape batch over the registry.
type Scheduler struct {
	scheduler *gocron.Scheduler
	orch      *Orchestrator
	registry  *Registry
	interval  time.Duration
}

func NewScheduler(orch *Orchestrator, registry *Registry, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		orch:      orch,
		registry:  registry,
		interval:  interval,
	}
}

// Start schedules the periodic batch and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.registry.Resorts) == 0 {
		log.Print("[scheduler] no resorts configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		report, err := s.orch.RunBatch(ctx, s.registry.Resorts, "scheduled")
		if err != nil {
			log.Printf("[scheduler] batch failed: %v", err)
			return
		}
		log.Printf("[scheduler] batch %s completed: %d succeeded, %d failed in %s",
			report.RunID, report.Succeeded, report.Failed, report.Duration.Round(time.Second))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
