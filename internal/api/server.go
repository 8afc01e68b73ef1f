// Package api exposes the planner over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"konbini-planner/internal/auth"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/planner"
	"konbini-planner/internal/progress"
)

const (
	userIDKey        = "userID"
	defaultPlanLimit = 5
	maxPlanLimit     = 50
)

// Server holds the HTTP routes and their collaborators.
type Server struct {
	planner   *planner.Planner
	issuer    *auth.Issuer
	collector *metrics.Collector
	dataPath  string
	router    *gin.Engine
	logger    zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAuth requires bearer tokens on /plan and /api/v1/plans.
func WithAuth(issuer *auth.Issuer) Option {
	return func(s *Server) { s.issuer = issuer }
}

// WithCollector serves the Prometheus registry on /metrics.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Server) { s.collector = c }
}

// WithDataPath sets the directory reported by /health.
func WithDataPath(path string) Option {
	return func(s *Server) { s.dataPath = path }
}

// NewServer wires the routes.
func NewServer(p *planner.Planner, opts ...Option) *Server {
	s := &Server{
		planner: p,
		logger:  log.With().Str("component", "api").Logger(),
	}
	for _, o := range opts {
		o(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	if s.collector != nil {
		r.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}
	r.POST("/plan", s.authenticate(), s.handlePlan)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/stores", s.handleStores)
		v1.GET("/catalog", s.handleCatalog)
		v1.GET("/progress", s.handleProgress)
		v1.GET("/plans", s.authenticate(), s.handlePlans)
	}

	s.router = r
	return s
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// authenticate is a no-op when no issuer is configured.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.issuer == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		userID, err := s.issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) handlePlan(c *gin.Context) {
	var req planner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.UserID = c.GetString(userIDKey)

	res, err := s.planner.Plan(c.Request.Context(), req)
	if err != nil {
		status, body := planError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, res)
}

func planError(err error) (int, gin.H) {
	var ve *planner.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "field": ve.Field}
	case errors.Is(err, planner.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, planner.ErrInfeasibleCatalog), errors.Is(err, planner.ErrNoFeasiblePlan):
		return http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"hint":  "raise the daily budget or choose a store with more items",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{"error": "plan computation timed out"}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func (s *Server) handleStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stores": s.planner.Catalog().Stores()})
}

func (s *Server) handleCatalog(c *gin.Context) {
	cat := s.planner.Catalog()
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusOK, gin.H{"items": cat.Items()})
		return
	}
	if !cat.HasStore(store) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown store " + strconv.Quote(store)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cat.ForStore(store)})
}

func (s *Server) handlePlans(c *gin.Context) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit := defaultPlanLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxPlanLimit)
	}

	plans, err := s.planner.History(c.Request.Context(), userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if plans == nil {
		plans = []planner.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) handleProgress(c *gin.Context) {
	values := make(map[string]float64, 3)
	for _, key := range []string{"start", "goal", "current"} {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a number"})
			return
		}
		values[key] = v
	}

	p := progress.Percent(values["start"], values["goal"], values["current"])
	level := progress.Level(p)
	c.JSON(http.StatusOK, gin.H{
		"percent": p,
		"level":   level,
		"caption": progress.Caption(level),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	cat := s.planner.Catalog()
	body := gin.H{
		"status":        "ok",
		"catalog_items": cat.Len(),
		"stores":        cat.Stores(),
	}
	if s.dataPath != "" {
		body["system"] = metrics.GetSysHealth(s.dataPath)
	}
	c.JSON(http.StatusOK, body)
}
