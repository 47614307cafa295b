// Package rest serves the decision corpus over HTTP.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
	"github.com/custodia-labs/cassation/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server holds the state for the REST API server.
type Server struct {
	query  driving.QueryService
	router *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(query driving.QueryService) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	s := &Server{query: query, router: r}
	s.setupRoutes()
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/decisions", s.handleDecisions)
	s.router.GET("/decisions/:text_id", s.handleDecision)
}

func (s *Server) healthCheck(c *gin.Context) {
	n, err := s.query.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "decisions": n})
}

// decisionSummary is a listing row; the body is served by /decisions/:text_id.
type decisionSummary struct {
	TextID       string     `json:"text_id"`
	Titre        string     `json:"titre"`
	Chambre      string     `json:"chambre"`
	DateDecision *time.Time `json:"date_decision,omitempty"`
	Score        *float64   `json:"score,omitempty"`
}

// handleDecisions lists, filters or searches decisions.
func (s *Server) handleDecisions(c *gin.Context) {
	q := domain.DecisionQuery{
		Search: c.Query("search"),
	}
	if chambre, ok := c.GetQuery("chambre"); ok {
		q.Chambre = &chambre
	}

	var err error
	if q.Limit, err = intParam(c, "limit"); err != nil {
		handleError(c, err)
		return
	}
	if q.Offset, err = intParam(c, "offset"); err != nil {
		handleError(c, err)
		return
	}

	results, err := s.query.Query(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}

	rows := make([]decisionSummary, 0, len(results))
	for i := range results {
		d := results[i].Decision
		row := decisionSummary{
			TextID:       d.TextID,
			Titre:        d.Titre,
			Chambre:      d.Chambre,
			DateDecision: d.DateDecision,
		}
		if q.Search != "" {
			score := results[i].Score
			row.Score = &score
		}
		rows = append(rows, row)
	}
	c.JSON(http.StatusOK, rows)
}

// handleDecision returns one decision with its body.
func (s *Server) handleDecision(c *gin.Context) {
	d, err := s.query.Get(c.Request.Context(), c.Param("text_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewAppError(http.StatusBadRequest, name+" must be an integer", err)
	}
	return n, nil
}

func handleError(c *gin.Context, err error) {
	appErr := MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}
