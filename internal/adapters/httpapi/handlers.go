package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
)

// getSnapshot handles GET /api/v1/snapshot
func (s *Server) getSnapshot(c *gin.Context) {
	Success(c, s.query.GetSnapshot(c.Request.Context()))
}

// getAggregates handles GET /api/v1/aggregates
func (s *Server) getAggregates(c *gin.Context) {
	Success(c, s.query.GetAggregates(c.Request.Context()))
}

// getKPIs handles GET /api/v1/kpis
func (s *Server) getKPIs(c *gin.Context) {
	Success(c, s.query.GetSnapshot(c.Request.Context()).KPIs)
}

// getStatus handles GET /api/v1/status
func (s *Server) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	snap := s.query.GetSnapshot(ctx)
	counts, err := s.query.RecommendationCounts(ctx)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"engine":           s.engine.Stats(),
		"snapshot_id":      snap.ID,
		"snapshot_version": snap.Version,
		"trains":           len(snap.Trains),
		"sections":         len(snap.Sections),
		"recommendations":  counts,
	})
}

type configView struct {
	Source                  string  `json:"source,omitempty"`
	CycleInterval           string  `json:"cycle_interval"`
	TrendBucket             string  `json:"trend_bucket"`
	TrendWindow             string  `json:"trend_window"`
	NormalMaxUtilization    float64 `json:"normal_max_utilization"`
	CongestedMaxUtilization float64 `json:"congested_max_utilization"`
	SevereDelayMinutes      int     `json:"severe_delay_minutes"`
	AutoConfidenceThreshold float64 `json:"auto_confidence_threshold"`
	MaxDelayMinutes         int     `json:"max_delay_minutes"`
	CapacityAlertPercent    float64 `json:"capacity_alert_percent"`
	Sections                int     `json:"sections"`
	AuthEnabled             bool    `json:"auth_enabled"`
}

func newConfigView(source string, cfg *config.Config) configView {
	return configView{
		Source:                  source,
		CycleInterval:           cfg.Engine.CycleInterval.String(),
		TrendBucket:             cfg.Engine.TrendBucket.String(),
		TrendWindow:             cfg.Engine.TrendWindow.String(),
		NormalMaxUtilization:    cfg.Classifier.NormalMaxUtilization,
		CongestedMaxUtilization: cfg.Classifier.CongestedMaxUtilization,
		SevereDelayMinutes:      cfg.Classifier.SevereDelayMinutes,
		AutoConfidenceThreshold: cfg.Advisory.AutoConfidenceThreshold,
		MaxDelayMinutes:         cfg.Advisory.MaxDelayMinutes,
		CapacityAlertPercent:    cfg.Advisory.CapacityAlertPercent,
		Sections:                len(cfg.Topology.Sections),
		AuthEnabled:             cfg.Server.JWTSecret != "",
	}
}

// getConfig handles GET /api/v1/config
func (s *Server) getConfig(c *gin.Context) {
	Success(c, newConfigView(s.config.Path(), s.config.Current()))
}

// reloadConfig handles POST /api/v1/config/reload
func (s *Server) reloadConfig(c *gin.Context) {
	if err := s.config.Reload(); err != nil {
		Fail(c, err)
		return
	}
	Success(c, newConfigView(s.config.Path(), s.config.Current()))
}

type auditQuery struct {
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	ActorID    string `form:"actor_id"`
	Action     string `form:"action"`
	Limit      int    `form:"limit"`
}

// listAudit handles GET /api/v1/audit
func (s *Server) listAudit(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	entries, err := s.query.ListAuditLog(c.Request.Context(), primary.AuditLogFilters{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		ActorID:    q.ActorID,
		Action:     q.Action,
		Limit:      q.Limit,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entries)
}

type nearbyQuery struct {
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	RadiusKm *float64 `form:"radius_km"`
}

// nearbyTrains handles GET /api/v1/trains/near
func (s *Server) nearbyTrains(c *gin.Context) {
	var q nearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if q.Lat == nil || q.Lng == nil || q.RadiusKm == nil {
		BadRequest(c, "lat, lng and radius_km are required")
		return
	}
	trains, err := s.query.NearbyTrains(c.Request.Context(), models.Position{Lat: *q.Lat, Lng: *q.Lng}, *q.RadiusKm)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, trains)
}

// archivedTrains handles GET /api/v1/trains/archived
func (s *Server) archivedTrains(c *gin.Context) {
	Success(c, s.query.ArchivedTrains(c.Request.Context()))
}

// ingestTrain handles POST /api/v1/ingest/trains/:id
func (s *Server) ingestTrain(c *gin.Context) {
	var delta models.TrainDelta
	if err := c.ShouldBindJSON(&delta); err != nil {
		BadRequest(c, "invalid train delta: "+err.Error())
		return
	}
	train, err := s.ingestion.ApplyTrainUpdate(c.Request.Context(), c.Param("id"), delta)
	if err != nil {
		Fail(c, err)
		return
	}
	// nil when the delta retired the train
	Success(c, train)
}

// ingestSection handles POST /api/v1/ingest/sections/:id
func (s *Server) ingestSection(c *gin.Context) {
	var delta models.SectionDelta
	if err := c.ShouldBindJSON(&delta); err != nil {
		BadRequest(c, "invalid section delta: "+err.Error())
		return
	}
	section, err := s.ingestion.ApplySectionUpdate(c.Request.Context(), c.Param("id"), delta)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, section)
}

type recordFailure struct {
	Index    int               `json:"index"`
	Kind     models.UpdateKind `json:"kind"`
	EntityID string            `json:"entity_id"`
	Status   int               `json:"status"`
	Error    string            `json:"error"`
}

type batchResponse struct {
	Applied int             `json:"applied"`
	Failed  []recordFailure `json:"failed"`
}

// ingestBatch handles POST /api/v1/ingest/batch. A batch with rejected
// records still succeeds; each rejection is listed with its status.
func (s *Server) ingestBatch(c *gin.Context) {
	var records []models.UpdateRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		BadRequest(c, "invalid batch: "+err.Error())
		return
	}
	result := s.ingestion.ApplyBatch(c.Request.Context(), records)

	resp := batchResponse{Applied: result.Applied, Failed: make([]recordFailure, len(result.Failed))}
	for i, f := range result.Failed {
		resp.Failed[i] = recordFailure{
			Index:    f.Index,
			Kind:     f.Kind,
			EntityID: f.EntityID,
			Status:   StatusFor(f.Err),
			Error:    f.Err.Error(),
		}
	}
	Success(c, resp)
}

// injectKPI handles POST /api/v1/ingest/kpis
func (s *Server) injectKPI(c *gin.Context) {
	var k models.KPI
	if err := c.ShouldBindJSON(&k); err != nil {
		BadRequest(c, "invalid kpi: "+err.Error())
		return
	}
	out, err := s.ingestion.InjectKPI(c.Request.Context(), k)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, out)
}

type recommendationQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Category string `form:"category"`
	EntityID string `form:"entity_id"`
	Limit    int    `form:"limit"`
}

// listRecommendations handles GET /api/v1/recommendations
func (s *Server) listRecommendations(c *gin.Context) {
	var q recommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	recs, err := s.query.ListRecommendations(c.Request.Context(), primary.RecommendationFilters{
		Status:   models.RecommendationStatus(q.Status),
		Priority: models.Priority(q.Priority),
		Category: models.Category(q.Category),
		EntityID: q.EntityID,
		Limit:    q.Limit,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, recs)
}

// recommendationCounts handles GET /api/v1/recommendations/counts
func (s *Server) recommendationCounts(c *gin.Context) {
	counts, err := s.query.RecommendationCounts(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, counts)
}

// getRecommendation handles GET /api/v1/recommendations/:id
func (s *Server) getRecommendation(c *gin.Context) {
	rec, err := s.query.GetRecommendation(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rec)
}

type decisionQuery struct {
	Mode    string `form:"mode"`
	TrainID string `form:"train_id"`
	Kind    string `form:"kind"`
	Limit   int    `form:"limit"`
}

// listDecisions handles GET /api/v1/decisions
func (s *Server) listDecisions(c *gin.Context) {
	var q decisionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	decs, err := s.query.ListDecisions(c.Request.Context(), primary.DecisionFilters{
		Mode:    models.ImplementationMode(q.Mode),
		TrainID: q.TrainID,
		Kind:    models.DecisionKind(q.Kind),
		Limit:   q.Limit,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, decs)
}

// getDecision handles GET /api/v1/decisions/:id
func (s *Server) getDecision(c *gin.Context) {
	dec, err := s.query.GetDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, dec)
}

type recommendationAction func(ctx context.Context, id string) (*models.Recommendation, error)

type decisionAction func(ctx context.Context, id string) (*models.AIDecision, error)

// recommendationCommand handles POST /api/v1/recommendations/:id/{review,implement,complete}
func (s *Server) recommendationCommand(action recommendationAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := action(c.Request.Context(), c.Param("id"))
		if err != nil {
			Fail(c, err)
			return
		}
		Success(c, rec)
	}
}

// decisionCommand handles POST /api/v1/decisions/:id/{approve,override}
func (s *Server) decisionCommand(action decisionAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		dec, err := action(c.Request.Context(), c.Param("id"))
		if err != nil {
			Fail(c, err)
			return
		}
		Success(c, dec)
	}
}
