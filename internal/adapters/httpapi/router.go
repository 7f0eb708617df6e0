package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/railctl/internal/app"
	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/ports/primary"
)

// EngineStatus reports the aggregation cycle counters.
type EngineStatus interface {
	Stats() app.EngineStats
}

// Server holds the services the HTTP handlers call.
type Server struct {
	ingestion primary.IngestionService
	advisory  primary.AdvisoryService
	query     primary.QueryService
	config    *config.Store
	engine    EngineStatus
}

// NewServer creates a new Server.
func NewServer(
	ingestion primary.IngestionService,
	advisory primary.AdvisoryService,
	query primary.QueryService,
	cfg *config.Store,
	engine EngineStatus,
) *Server {
	return &Server{
		ingestion: ingestion,
		advisory:  advisory,
		query:     query,
		config:    cfg,
		engine:    engine,
	}
}

// Router builds the gin engine with every route under /api/v1.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/snapshot", s.getSnapshot)
		api.GET("/aggregates", s.getAggregates)
		api.GET("/kpis", s.getKPIs)
		api.GET("/status", s.getStatus)
		api.GET("/config", s.getConfig)
		api.GET("/audit", s.listAudit)

		trains := api.Group("/trains")
		{
			trains.GET("/near", s.nearbyTrains)
			trains.GET("/archived", s.archivedTrains)
		}

		// Feeds write entity state and need the same token as operator commands.
		ingest := api.Group("/ingest", Auth(s.jwtSecret))
		{
			ingest.POST("/trains/:id", s.ingestTrain)
			ingest.POST("/sections/:id", s.ingestSection)
			ingest.POST("/batch", s.ingestBatch)
			ingest.POST("/kpis", s.injectKPI)
		}

		recs := api.Group("/recommendations")
		{
			recs.GET("", s.listRecommendations)
			recs.GET("/counts", s.recommendationCounts)
			recs.GET("/:id", s.getRecommendation)
		}

		decs := api.Group("/decisions")
		{
			decs.GET("", s.listDecisions)
			decs.GET("/:id", s.getDecision)
		}

		commands := api.Group("", Auth(s.jwtSecret))
		{
			commands.POST("/recommendations/:id/review", s.recommendationCommand(s.advisory.ReviewRecommendation))
			commands.POST("/recommendations/:id/implement", s.recommendationCommand(s.advisory.ImplementRecommendation))
			commands.POST("/recommendations/:id/complete", s.recommendationCommand(s.advisory.CompleteRecommendation))
			commands.POST("/decisions/:id/approve", s.decisionCommand(s.advisory.ApproveDecision))
			commands.POST("/decisions/:id/override", s.decisionCommand(s.advisory.OverrideDecision))
			commands.POST("/config/reload", s.reloadConfig)
		}
	}

	return r
}

func (s *Server) jwtSecret() string {
	return s.config.Current().Server.JWTSecret
}

// ListenAndServe serves the router on addr until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
