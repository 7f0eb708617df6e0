package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/ctxutil"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/secondary"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

// Ensure mocks implement the interfaces
var (
	_ secondary.RecommendationRepository = (*mockRecommendationRepository)(nil)
	_ secondary.DecisionRepository       = (*mockDecisionRepository)(nil)
	_ secondary.ConditionRepository      = (*mockConditionRepository)(nil)
	_ secondary.AuditLogRepository       = (*mockAuditLogRepository)(nil)
	_ secondary.LogWriter                = (*mockLogWriter)(nil)
)

// mockRecommendationRepository implements secondary.RecommendationRepository for testing.
type mockRecommendationRepository struct {
	mu        sync.Mutex
	recs      map[string]*secondary.RecommendationRecord
	nextID    int
	createErr error
}

func newMockRecommendationRepository() *mockRecommendationRepository {
	return &mockRecommendationRepository{
		recs:   make(map[string]*secondary.RecommendationRecord),
		nextID: 1,
	}
}

func (m *mockRecommendationRepository) Create(ctx context.Context, rec *secondary.RecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.recs[rec.ID]; ok {
		return fmt.Errorf("duplicate id %s", rec.ID)
	}
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *mockRecommendationRepository) GetByID(ctx context.Context, id string) (*secondary.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, errs.NotFound("recommendation", id)
}

func (m *mockRecommendationRepository) List(ctx context.Context, filters secondary.RecommendationFilters) ([]*secondary.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.RecommendationRecord
	for _, r := range m.recs {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.Priority != "" && r.Priority != filters.Priority {
			continue
		}
		if filters.Category != "" && r.Category != filters.Category {
			continue
		}
		if filters.EntityID != "" && r.EntityID != filters.EntityID {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockRecommendationRepository) UpdateStatus(ctx context.Context, id, from, to string, updatedAt time.Time, completedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = updatedAt
	if completedAt != nil {
		r.CompletedAt = completedAt
	}
	return true, nil
}

func (m *mockRecommendationRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("REC-%03d", id), nil
}

func (m *mockRecommendationRepository) Counts(ctx context.Context) (*secondary.RecommendationCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &secondary.RecommendationCounts{Total: len(m.recs)}
	for _, r := range m.recs {
		switch r.Status {
		case "New":
			c.New++
		case "InProgress":
			c.InProgress++
		case "Completed":
			c.Completed++
		}
		if r.Priority == "High" {
			c.HighPriority++
		}
	}
	return c, nil
}

// byEntity returns the recommendations raised for an entity.
func (m *mockRecommendationRepository) byEntity(entityID string) []*secondary.RecommendationRecord {
	recs, _ := m.List(context.Background(), secondary.RecommendationFilters{EntityID: entityID})
	return recs
}

// mockDecisionRepository implements secondary.DecisionRepository for testing.
type mockDecisionRepository struct {
	mu        sync.Mutex
	decs      map[string]*secondary.DecisionRecord
	nextID    int
	createErr error
}

func newMockDecisionRepository() *mockDecisionRepository {
	return &mockDecisionRepository{
		decs:   make(map[string]*secondary.DecisionRecord),
		nextID: 1,
	}
}

func (m *mockDecisionRepository) Create(ctx context.Context, dec *secondary.DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *dec
	m.decs[dec.ID] = &cp
	return nil
}

func (m *mockDecisionRepository) GetByID(ctx context.Context, id string) (*secondary.DecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.decs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, errs.NotFound("decision", id)
}

func (m *mockDecisionRepository) List(ctx context.Context, filters secondary.DecisionFilters) ([]*secondary.DecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.DecisionRecord
	for _, d := range m.decs {
		if filters.Mode != "" && d.Mode != filters.Mode {
			continue
		}
		if filters.TrainID != "" && d.TrainID != filters.TrainID {
			continue
		}
		if filters.Kind != "" && d.Kind != filters.Kind {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockDecisionRepository) UpdateMode(ctx context.Context, id, from, to string, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decs[id]
	if !ok || d.Mode != from {
		return false, nil
	}
	d.Mode = to
	d.UpdatedAt = updatedAt
	return true, nil
}

func (m *mockDecisionRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("AID-%03d", id), nil
}

// mockConditionRepository implements secondary.ConditionRepository for testing.
type mockConditionRepository struct {
	mu    sync.Mutex
	conds map[[2]string]*secondary.ConditionRecord
}

func newMockConditionRepository() *mockConditionRepository {
	return &mockConditionRepository{conds: make(map[[2]string]*secondary.ConditionRecord)}
}

func (m *mockConditionRepository) ListOpen(ctx context.Context) ([]*secondary.ConditionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.ConditionRecord
	for _, c := range m.conds {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityID+out[i].RuleID < out[j].EntityID+out[j].RuleID
	})
	return out, nil
}

func (m *mockConditionRepository) Open(ctx context.Context, cond *secondary.ConditionRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{cond.EntityID, cond.RuleID}
	if _, ok := m.conds[key]; ok {
		return false, nil
	}
	cp := *cond
	m.conds[key] = &cp
	return true, nil
}

func (m *mockConditionRepository) SetRecommendation(ctx context.Context, entityID, ruleID, recommendationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conds[[2]string{entityID, ruleID}]; ok {
		c.RecommendationID = recommendationID
	}
	return nil
}

func (m *mockConditionRepository) SetDecisionPending(ctx context.Context, entityID, ruleID string, pending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conds[[2]string{entityID, ruleID}]; ok {
		c.DecisionPending = pending
	}
	return nil
}

func (m *mockConditionRepository) Clear(ctx context.Context, entityID, ruleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conds, [2]string{entityID, ruleID})
	return nil
}

func (m *mockConditionRepository) isOpen(entityID, ruleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conds[[2]string{entityID, ruleID}]
	return ok
}

// mockAuditLogRepository implements secondary.AuditLogRepository for testing.
type mockAuditLogRepository struct {
	mu   sync.Mutex
	logs []*secondary.AuditLogRecord
}

func (m *mockAuditLogRepository) Create(ctx context.Context, log *secondary.AuditLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.AuditLogRecord
	for _, l := range m.logs {
		if filters.EntityID != "" && l.EntityID != filters.EntityID {
			continue
		}
		if filters.Action != "" && l.Action != filters.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *mockAuditLogRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("AUD-%04d", len(m.logs)+1), nil
}

// mockLogWriter records audit calls for testing.
type mockLogWriter struct {
	mu      sync.Mutex
	entries []logEntry
	err     error
}

type logEntry struct {
	action, entityType, entityID, field, oldValue, newValue, actor string
}

func (m *mockLogWriter) record(ctx context.Context, e logEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.actor = ctxutil.ActorFromContext(ctx)
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLogWriter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return m.record(ctx, logEntry{action: "create", entityType: entityType, entityID: entityID})
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return m.record(ctx, logEntry{action: "update", entityType: entityType, entityID: entityID, field: fieldName, oldValue: oldValue, newValue: newValue})
}

func (m *mockLogWriter) LogReview(ctx context.Context, entityType, entityID string) error {
	return m.record(ctx, logEntry{action: "review", entityType: entityType, entityID: entityID})
}

func (m *mockLogWriter) count(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.action == action {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

// testHarness wires the app services over in-memory mocks.
type testHarness struct {
	store     *EntityStore
	cfgStore  *config.Store
	advisory  *AdvisoryServiceImpl
	ingestion *IngestionServiceImpl
	engine    *Engine
	query     *QueryServiceImpl
	recRepo   *mockRecommendationRepository
	decRepo   *mockDecisionRepository
	condRepo  *mockConditionRepository
	auditRepo *mockAuditLogRepository
	logWriter *mockLogWriter
}

func newTestHarness(cfg *config.Config) *testHarness {
	if cfg == nil {
		cfg = config.Default()
	}
	h := &testHarness{
		cfgStore:  config.NewStaticStore(cfg),
		recRepo:   newMockRecommendationRepository(),
		decRepo:   newMockDecisionRepository(),
		condRepo:  newMockConditionRepository(),
		auditRepo: &mockAuditLogRepository{},
		logWriter: &mockLogWriter{},
	}
	h.store = NewEntityStore(cfg.Bands())
	h.store.now = fixedClock()
	h.advisory = NewAdvisoryService(h.recRepo, h.decRepo, h.condRepo, h.logWriter)
	h.advisory.now = fixedClock()
	h.ingestion = NewIngestionService(h.store)
	h.engine = NewEngine(h.store, h.advisory, h.cfgStore)
	h.engine.now = fixedClock()
	h.query = NewQueryService(h.engine, h.store, h.cfgStore, h.recRepo, h.decRepo, h.auditRepo)
	return h
}

// sampleTopology is the five-section demonstration network.
func sampleTopology() []models.SectionSpec {
	return []models.SectionSpec{
		{ID: "SEC001", Name: "Delhi-Ghaziabad", LengthKm: 32, Capacity: 8},
		{ID: "SEC002", Name: "Ghaziabad-Aligarh", LengthKm: 82, Capacity: 12},
		{ID: "SEC003", Name: "Delhi-Gurgaon", LengthKm: 28, Capacity: 6},
		{ID: "SEC004", Name: "Gurgaon-Palwal", LengthKm: 45, Capacity: 10},
		{ID: "SEC005", Name: "Palwal-Mathura", LengthKm: 58, Capacity: 15},
	}
}

func (h *testHarness) configureTopology() {
	for _, spec := range sampleTopology() {
		if _, err := h.store.ConfigureSection(context.Background(), spec); err != nil {
			panic(err)
		}
	}
}

// Delta helpers

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func floatPtr(f float64) *float64 {
	return &f
}
func statusPtr(s models.TrainStatus) *models.TrainStatus { return &s }
func flagPtr(f models.SectionFlag) *models.SectionFlag     { return &f }

// newTrainDelta returns a complete first delta for an on-time express train.
func newTrainDelta(name string) models.TrainDelta {
	kind := models.KindExpress
	prio := models.PriorityHigh
	return models.TrainDelta{
		Name:            strPtr(name),
		Kind:            &kind,
		CurrentLocation: strPtr("Delhi Junction"),
		Destination:     strPtr("Mathura"),
		Status:          statusPtr(models.TrainOnTime),
		DelayMinutes:    intPtr(0),
		SpeedKmh:        floatPtr(90),
		Priority:        &prio,
		Position:        &models.Position{Lat: 28.6139, Lng: 77.2090},
	}
}
