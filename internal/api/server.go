package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/powderlines/powder-tracker/internal/db"
	"github.com/powderlines/powder-tracker/internal/models"
	"github.com/powderlines/powder-tracker/internal/score"
	"github.com/powderlines/powder-tracker/internal/scrape"
)

// ConditionsStore is the read side the API needs beyond the orchestrator's
// RunStore contract.
type ConditionsStore interface {
	GetLatestConditions(ctx context.Context, resortID string) (*models.Conditions, error)
	AllLatestConditions(ctx context.Context) (map[string]*models.Conditions, error)
	RecentRuns(ctx context.Context, limit int) ([]models.ScraperRun, error)
}

type Server struct {
	Store        ConditionsStore
	Registry     *scrape.Registry
	Orchestrator *scrape.Orchestrator
	Echo         *echo.Echo

	// Background job tracking
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed, cancelled
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(store ConditionsStore, registry *scrape.Registry, orch *scrape.Orchestrator) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Admin-Secret"},
	}))

	s := &Server{
		Store:        store,
		Registry:     registry,
		Orchestrator: orch,
		Echo:         e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/resorts", s.handleListResorts)
	api.GET("/resorts/:id/conditions", s.handleGetConditions)
	api.GET("/resorts/:id/score", s.handleGetScore)
	api.GET("/runs", s.handleListRuns)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/scrape", s.handleTriggerScrape)
	admin.GET("/job/:id", s.handleJobStatus)
	admin.POST("/job/:id/cancel", s.handleCancelJob)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// resortSummary is one row of the ranked resort listing.
type resortSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Region    string     `json:"region"`
	SummitFt  float64    `json:"summit_ft"`
	Score     *float64   `json:"score,omitempty"`
	Display   *float64   `json:"display,omitempty"`
	Verdict   string     `json:"verdict,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (s *Server) handleListResorts(c echo.Context) error {
	latest, err := s.Store.AllLatestConditions(c.Request().Context())
	if err != nil {
		log.Printf("[api] failed to load latest conditions: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load conditions"})
	}

	summaries := make([]resortSummary, 0, len(s.Registry.Resorts))
	for i := range s.Registry.Resorts {
		cfg := &s.Registry.Resorts[i]
		row := resortSummary{ID: cfg.ID, Name: cfg.Name, Region: cfg.Region, SummitFt: cfg.SummitFt}
		if cond, ok := latest[cfg.ID]; ok {
			result := score.Score(cond, s.scoreContext(cfg))
			row.Score = &result.Overall
			row.Display = &result.Display
			row.Verdict = result.Verdict
			row.UpdatedAt = &cond.UpdatedAt
		}
		summaries = append(summaries, row)
	}

	// Rank by the unrounded score so near-ties order deterministically;
	// resorts without data sink to the bottom.
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].Score, summaries[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	return c.JSON(http.StatusOK, map[string]any{"resorts": summaries, "total": len(summaries)})
}

func (s *Server) handleGetConditions(c echo.Context) error {
	cfg, ok := s.Registry.Find(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown resort"})
	}

	cond, err := s.Store.GetLatestConditions(c.Request().Context(), cfg.ID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no conditions recorded yet"})
	}
	if err != nil {
		log.Printf("[api] failed to load conditions for %s: %v", cfg.ID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load conditions"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"resort":     map[string]any{"id": cfg.ID, "name": cfg.Name, "region": cfg.Region},
		"conditions": cond,
		"available":  cond.Available(),
	})
}

func (s *Server) handleGetScore(c echo.Context) error {
	cfg, ok := s.Registry.Find(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown resort"})
	}

	cond, err := s.Store.GetLatestConditions(c.Request().Context(), cfg.ID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no conditions recorded yet"})
	}
	if err != nil {
		log.Printf("[api] failed to load conditions for %s: %v", cfg.ID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load conditions"})
	}

	result := score.Score(cond, s.scoreContext(cfg))
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 20
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	runs, err := s.Store.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		log.Printf("[api] failed to load runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load runs"})
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs, "total": len(runs)})
}

func (s *Server) handleTriggerScrape(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{
			"error":  "A scrape job is already running",
			"job_id": job.ID,
		})
	}

	configs := s.Registry.Resorts
	if only := strings.TrimSpace(c.QueryParam("resort")); only != "" {
		cfg, ok := s.Registry.Find(only)
		if !ok {
			s.jobMu.Unlock()
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown resort"})
		}
		configs = []scrape.ResortConfig{*cfg}
	}

	// Detach from the HTTP request lifecycle; the batch carries its own
	// timeout.
	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 15*time.Minute,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer jobCancel()

		report, err := s.Orchestrator.RunBatch(jobCtx, configs, "manual")
		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				job.Status = "cancelled"
			} else {
				job.Status = "failed"
			}
			job.Error = err.Error()
			if report != nil {
				job.Result = report
			}
			log.Printf("[scrape-job %s] ended: %v", jobID, err)
			return
		}
		job.Status = "completed"
		job.Result = report
		log.Printf("[scrape-job %s] completed: %d/%d resorts", jobID, report.Succeeded, report.Total)
	}()

	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "Scrape job started",
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCancelJob(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if job.Status != "running" {
		return c.JSON(http.StatusConflict, map[string]string{"error": "job is not running"})
	}
	job.Cancel()
	return c.JSON(http.StatusAccepted, map[string]string{"message": "cancellation requested"})
}

// scoreContext builds the transient scoring facts for a resort: local clock
// for the crowd heuristic and summit elevation for the rain-risk check.
func (s *Server) scoreContext(cfg *scrape.ResortConfig) score.Context {
	now := time.Now()
	if loc, err := time.LoadLocation(cfg.Location()); err == nil {
		now = now.In(loc)
	}
	return score.Context{Now: now, SummitFt: cfg.SummitFt}
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
