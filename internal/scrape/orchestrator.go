package scrape

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/powderlines/powder-tracker/internal/models"
)

// RunStore is the persistence contract the orchestrator needs: append-only
// run history plus a latest-conditions table. A nil store is allowed (CLI
// dry runs, tests); run bookkeeping is then skipped.
type RunStore interface {
	StartRun(ctx context.Context, expected int, trigger string) (string, error)
	CompleteRun(ctx context.Context, runID string, succeeded, failed int, durationMs int64) error
	SaveConditions(ctx context.Context, cond models.Conditions) error
}

// ResortOutcome is one resort's result within a batch.
type ResortOutcome struct {
	ResortID   string             `json:"resort_id"`
	Conditions *models.Conditions `json:"conditions,omitempty"`
	Err        string             `json:"error,omitempty"`
	ErrClass   ErrorClass         `json:"error_class,omitempty"`

	// SourceErrors records per-adapter failures even when the resort as a
	// whole produced partial conditions.
	SourceErrors map[string]ErrorClass `json:"source_errors,omitempty"`
}

// BatchReport summarizes one orchestrator batch.
type BatchReport struct {
	RunID     string          `json:"run_id,omitempty"`
	Trigger   string          `json:"trigger"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Outcomes  []ResortOutcome `json:"outcomes"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Total     int             `json:"total"`
}

// Orchestrator runs one fetch/normalize job per resort across all applicable
// adapters. Jobs across resorts and adapters within a resort run concurrently
// and independently; one failure never blocks or fails another. Each adapter
// result lands in its own slot and is merged only after the job settles, so
// there is no shared mutable state between jobs.
type Orchestrator struct {
	Snotel        *SnotelClient
	Forecast      *NWSClient
	FreezingLevel *FreezingLevelClient
	Pages         *PageScraper

	Store RunStore
	Cache *ConditionsCache

	// JobTimeout bounds each adapter fetch so one slow upstream cannot
	// stall the batch.
	JobTimeout  time.Duration
	Concurrency int
}

func NewOrchestrator(store RunStore, cache *ConditionsCache) *Orchestrator {
	timeout := 8 * time.Second
	return &Orchestrator{
		Snotel:        NewSnotelClient(timeout),
		Forecast:      NewNWSClient(timeout),
		FreezingLevel: NewFreezingLevelClient(timeout),
		Pages:         NewPageScraper(timeout),
		Store:         store,
		Cache:         cache,
		JobTimeout:    timeout,
		Concurrency:   8,
	}
}

// RunBatch executes one fetch cycle across the given resorts. The run record
// is opened before any job starts and closed in a defer, so an interrupted
// batch still records whatever completed instead of leaving the run open.
func (o *Orchestrator) RunBatch(ctx context.Context, configs []ResortConfig, trigger string) (*BatchReport, error) {
	start := time.Now()

	report := &BatchReport{
		Trigger:   trigger,
		StartedAt: start,
		Total:     len(configs),
		Outcomes:  make([]ResortOutcome, len(configs)),
	}

	var runID string
	if o.Store != nil {
		id, err := o.Store.StartRun(ctx, len(configs), trigger)
		if err != nil {
			log.Printf("[orchestrator] failed to create scraper run: %v", err)
		} else {
			runID = id
			report.RunID = runID
		}
	}

	defer func() {
		report.Duration = time.Since(start)
		for _, outcome := range report.Outcomes {
			if outcome.ResortID == "" {
				continue // job never settled (batch cancelled)
			}
			if outcome.Conditions != nil {
				report.Succeeded++
			} else {
				report.Failed++
			}
		}
		if o.Store != nil && runID != "" {
			// Close the run with a context detached from the (possibly
			// cancelled) batch context.
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := o.Store.CompleteRun(closeCtx, runID, report.Succeeded, report.Failed, report.Duration.Milliseconds()); err != nil {
				log.Printf("[orchestrator] failed to close scraper run %s: %v", runID, err)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	limit := o.Concurrency
	if limit <= 0 {
		limit = 8
	}
	g.SetLimit(limit)

	for i := range configs {
		i := i
		cfg := configs[i]
		g.Go(func() error {
			report.Outcomes[i] = o.fetchResort(gctx, cfg)
			return nil
		})
	}

	// Jobs never return errors, so Wait only propagates ctx cancellation
	// raced through gctx. The deferred close still records the run.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if o.Store != nil {
		for i := range report.Outcomes {
			cond := report.Outcomes[i].Conditions
			if cond == nil {
				continue
			}
			if err := o.Store.SaveConditions(ctx, *cond); err != nil {
				log.Printf("[orchestrator] failed to save conditions for %s: %v", cond.ResortID, err)
			}
		}
	}

	return report, nil
}

// fetchResort issues every applicable adapter fetch for one resort in
// parallel, each against its own timeout and into its own result slot.
func (o *Orchestrator) fetchResort(ctx context.Context, cfg ResortConfig) ResortOutcome {
	type slots struct {
		snotel    *SnotelSeries
		snotelErr error

		forecast    *ForecastBundle
		forecastErr error

		fl    *FreezingLevelSample
		flErr error

		page    *PageConditions
		pageErr error
	}

	var s slots
	var g errgroup.Group

	if cfg.Snotel != nil {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.JobTimeout)
			defer cancel()
			s.snotel, s.snotelErr = o.Snotel.Fetch(fetchCtx, *cfg.Snotel)
			return nil
		})
	}
	if cfg.Forecast != nil {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.JobTimeout)
			defer cancel()
			s.forecast, s.forecastErr = o.Forecast.FetchBundle(fetchCtx, *cfg.Forecast, cfg.Lat, cfg.Lng)
			return nil
		})
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.JobTimeout)
			defer cancel()
			s.fl, s.flErr = o.FreezingLevel.Fetch(fetchCtx, cfg.Lat, cfg.Lng)
			return nil
		})
	}
	if cfg.Page != nil {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, o.JobTimeout)
			defer cancel()
			s.page, s.pageErr = o.Pages.Fetch(fetchCtx, *cfg.Page)
			return nil
		})
	}

	_ = g.Wait()

	raw := RawResults{
		Snotel:        s.snotel,
		Forecast:      s.forecast,
		FreezingLevel: s.fl,
		Page:          s.page,
		Errors:        make(map[string]*AdapterError),
	}
	recordErr(raw.Errors, models.SourceSnotel, s.snotelErr)
	recordErr(raw.Errors, models.SourceForecast, s.forecastErr)
	recordErr(raw.Errors, models.SourceFreezingLevel, s.flErr)
	recordErr(raw.Errors, models.SourcePage, s.pageErr)

	outcome := ResortOutcome{ResortID: cfg.ID}
	if len(raw.Errors) > 0 {
		outcome.SourceErrors = make(map[string]ErrorClass, len(raw.Errors))
		for source, err := range raw.Errors {
			outcome.SourceErrors[source] = err.Class
			log.Printf("[orchestrator] %s/%s: %v", cfg.ID, source, err)
		}
	}

	if !raw.Succeeded() {
		outcome.Err = joinAdapterErrors(raw.Errors)
		outcome.ErrClass = worstClass(raw.Errors)
		return outcome
	}

	cond := Normalize(cfg.ID, raw, time.Now().UTC())

	if o.Cache != nil {
		if len(raw.Errors) > 0 {
			failed := make(map[string]bool, len(raw.Errors))
			for source := range raw.Errors {
				failed[source] = true
			}
			if cached, ok := o.Cache.Get(cfg.ID); ok {
				Backfill(&cond, cached, failed)
			}
		}
		o.Cache.Put(cond)
	}

	outcome.Conditions = &cond
	return outcome
}

func recordErr(errs map[string]*AdapterError, source string, err error) {
	if err == nil {
		return
	}
	if ae, ok := err.(*AdapterError); ok {
		errs[source] = ae
		return
	}
	errs[source] = &AdapterError{Source: source, Class: ClassOf(err), Err: err}
}

func joinAdapterErrors(errs map[string]*AdapterError) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// worstClass picks the error class recorded for a fully failed resort.
// Parse failures win: they mean our extraction broke and need a human,
// whereas upstream blips heal on the next scheduled batch.
func worstClass(errs map[string]*AdapterError) ErrorClass {
	class := ErrClassUpstream
	sawNoData := false
	for _, err := range errs {
		switch err.Class {
		case ErrClassParse:
			return ErrClassParse
		case ErrClassNoData:
			sawNoData = true
		}
	}
	if sawNoData {
		return ErrClassNoData
	}
	return class
}
