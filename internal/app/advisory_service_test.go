package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/railctl/internal/core/rules"
	"github.com/example/railctl/internal/ctxutil"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/secondary"
)

func newTestAdvisoryService() (*AdvisoryServiceImpl, *mockRecommendationRepository, *mockDecisionRepository, *mockConditionRepository, *mockLogWriter) {
	recRepo := newMockRecommendationRepository()
	decRepo := newMockDecisionRepository()
	condRepo := newMockConditionRepository()
	logWriter := &mockLogWriter{}
	service := NewAdvisoryService(recRepo, decRepo, condRepo, logWriter)
	service.now = fixedClock()
	return service, recRepo, decRepo, condRepo, logWriter
}

func seedRec(repo *mockRecommendationRepository, id string, status models.RecommendationStatus) {
	repo.recs[id] = &secondary.RecommendationRecord{
		ID:        id,
		Priority:  "High",
		Category:  "Timing",
		Title:     "Test",
		Status:    string(status),
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func seedDec(repo *mockDecisionRepository, id string, mode models.ImplementationMode) {
	repo.decs[id] = &secondary.DecisionRecord{
		ID:             id,
		TrainID:        "T005",
		Kind:           "routing",
		Recommendation: "Reroute",
		Confidence:     90,
		Mode:           string(mode),
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
}

func TestAdvisoryService_RecommendationTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       models.RecommendationStatus
		action     func(*AdvisoryServiceImpl, context.Context, string) (*models.Recommendation, error)
		wantStatus models.RecommendationStatus
		wantErr    bool
	}{
		{"implement New", models.RecommendationNew, (*AdvisoryServiceImpl).ImplementRecommendation, models.RecommendationInProgress, false},
		{"complete InProgress", models.RecommendationInProgress, (*AdvisoryServiceImpl).CompleteRecommendation, models.RecommendationCompleted, false},
		{"complete New skips ahead", models.RecommendationNew, (*AdvisoryServiceImpl).CompleteRecommendation, models.RecommendationNew, true},
		{"implement InProgress again", models.RecommendationInProgress, (*AdvisoryServiceImpl).ImplementRecommendation, models.RecommendationInProgress, true},
		{"implement Completed", models.RecommendationCompleted, (*AdvisoryServiceImpl).ImplementRecommendation, models.RecommendationCompleted, true},
		{"complete Completed", models.RecommendationCompleted, (*AdvisoryServiceImpl).CompleteRecommendation, models.RecommendationCompleted, true},
		{"review New", models.RecommendationNew, (*AdvisoryServiceImpl).ReviewRecommendation, models.RecommendationNew, false},
		{"review InProgress", models.RecommendationInProgress, (*AdvisoryServiceImpl).ReviewRecommendation, models.RecommendationInProgress, true},
		{"review Completed", models.RecommendationCompleted, (*AdvisoryServiceImpl).ReviewRecommendation, models.RecommendationCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, recRepo, _, _, _ := newTestAdvisoryService()
			seedRec(recRepo, "REC-001", tt.from)

			got, err := tt.action(service, context.Background(), "REC-001")
			if tt.wantErr {
				var ite *errs.InvalidTransitionError
				if !errors.As(err, &ite) {
					t.Fatalf("expected InvalidTransitionError, got %v", err)
				}
				if ite.From != string(tt.from) {
					t.Errorf("From = %q, want %q", ite.From, tt.from)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Status != tt.wantStatus {
					t.Errorf("returned status = %s, want %s", got.Status, tt.wantStatus)
				}
			}

			stored, _ := recRepo.GetByID(context.Background(), "REC-001")
			if stored.Status != string(tt.wantStatus) {
				t.Errorf("stored status = %s, want %s", stored.Status, tt.wantStatus)
			}
		})
	}
}

func TestAdvisoryService_CompleteSetsCompletedAt(t *testing.T) {
	service, recRepo, _, _, logWriter := newTestAdvisoryService()
	seedRec(recRepo, "REC-001", models.RecommendationInProgress)
	ctx := ctxutil.WithActorID(context.Background(), "op-7")

	got, err := service.CompleteRecommendation(ctx, "REC-001")
	if err != nil {
		t.Fatalf("CompleteRecommendation failed: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(testNow) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, testNow)
	}

	if len(logWriter.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(logWriter.entries))
	}
	e := logWriter.entries[0]
	if e.action != "update" || e.oldValue != "InProgress" || e.newValue != "Completed" || e.actor != "op-7" {
		t.Errorf("audit entry = %+v", e)
	}
}

func TestAdvisoryService_ReviewIsAudited(t *testing.T) {
	service, recRepo, _, _, logWriter := newTestAdvisoryService()
	seedRec(recRepo, "REC-001", models.RecommendationNew)

	if _, err := service.ReviewRecommendation(context.Background(), "REC-001"); err != nil {
		t.Fatalf("ReviewRecommendation failed: %v", err)
	}
	if logWriter.count("review") != 1 {
		t.Errorf("review entries = %d, want 1", logWriter.count("review"))
	}

	logWriter.err = errBoom
	if _, err := service.ReviewRecommendation(context.Background(), "REC-001"); err == nil {
		t.Error("expected error when the review cannot be recorded")
	}
}

func TestAdvisoryService_ReviewRejectedIsNotAudited(t *testing.T) {
	for _, status := range []models.RecommendationStatus{models.RecommendationInProgress, models.RecommendationCompleted} {
		t.Run(string(status), func(t *testing.T) {
			service, recRepo, _, _, logWriter := newTestAdvisoryService()
			seedRec(recRepo, "REC-001", status)

			_, err := service.ReviewRecommendation(context.Background(), "REC-001")
			var ite *errs.InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
			if logWriter.count("review") != 0 {
				t.Errorf("review entries = %d, want 0", logWriter.count("review"))
			}
		})
	}
}

func TestAdvisoryService_NotFound(t *testing.T) {
	service, _, _, _, _ := newTestAdvisoryService()
	ctx := context.Background()

	_, err := service.ImplementRecommendation(ctx, "REC-404")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("recommendation: expected NotFoundError, got %v", err)
	}
	_, err = service.OverrideDecision(ctx, "AID-404")
	if !errors.As(err, &nf) {
		t.Errorf("decision: expected NotFoundError, got %v", err)
	}
}

func TestAdvisoryService_DecisionTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     models.ImplementationMode
		action   func(*AdvisoryServiceImpl, context.Context, string) (*models.AIDecision, error)
		wantMode models.ImplementationMode
		wantErr  bool
	}{
		{"approve pending", models.ModePending, (*AdvisoryServiceImpl).ApproveDecision, models.ModeAuto, false},
		{"approve auto", models.ModeAuto, (*AdvisoryServiceImpl).ApproveDecision, models.ModeAuto, true},
		{"override pending", models.ModePending, (*AdvisoryServiceImpl).OverrideDecision, models.ModeManualOverride, false},
		{"override auto", models.ModeAuto, (*AdvisoryServiceImpl).OverrideDecision, models.ModeManualOverride, false},
		{"override overridden", models.ModeManualOverride, (*AdvisoryServiceImpl).OverrideDecision, models.ModeManualOverride, true},
		{"approve overridden", models.ModeManualOverride, (*AdvisoryServiceImpl).ApproveDecision, models.ModeManualOverride, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, decRepo, _, _ := newTestAdvisoryService()
			seedDec(decRepo, "AID-001", tt.from)

			got, err := tt.action(service, context.Background(), "AID-001")
			if tt.wantErr {
				var ite *errs.InvalidTransitionError
				if !errors.As(err, &ite) {
					t.Fatalf("expected InvalidTransitionError, got %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Mode != tt.wantMode {
					t.Errorf("returned mode = %s, want %s", got.Mode, tt.wantMode)
				}
			}

			stored, _ := decRepo.GetByID(context.Background(), "AID-001")
			if stored.Mode != string(tt.wantMode) {
				t.Errorf("stored mode = %s, want %s", stored.Mode, tt.wantMode)
			}
		})
	}
}

func TestAdvisoryService_CreateDecision_ConfidenceGate(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		threshold  float64
		wantMode   models.ImplementationMode
	}{
		{"above threshold", 98, 95, models.ModeAuto},
		{"at threshold", 95, 95, models.ModeAuto},
		{"below threshold", 94.9, 95, models.ModePending},
		{"lower threshold", 86, 85, models.ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, _, _, _ := newTestAdvisoryService()
			got, err := service.CreateDecision(context.Background(), rules.DecisionDraft{
				TrainID:        "T005",
				Kind:           models.DecisionRouting,
				Recommendation: "Reroute via Agra bypass",
				Confidence:     tt.confidence,
			}, "", tt.threshold)
			if err != nil {
				t.Fatalf("CreateDecision failed: %v", err)
			}
			if got.Mode != tt.wantMode {
				t.Errorf("Mode = %s, want %s", got.Mode, tt.wantMode)
			}
		})
	}

	t.Run("confidence out of range", func(t *testing.T) {
		service, _, _, _, _ := newTestAdvisoryService()
		_, err := service.CreateDecision(context.Background(), rules.DecisionDraft{
			TrainID: "T005", Kind: models.DecisionRouting, Confidence: 120,
		}, "", 95)
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestAdvisoryService_AutoThenOverrideThenApprove(t *testing.T) {
	service, _, _, _, _ := newTestAdvisoryService()
	ctx := context.Background()

	dec, err := service.CreateDecision(ctx, rules.DecisionDraft{
		TrainID:        "T005",
		Kind:           models.DecisionRouting,
		Recommendation: "Reroute via Agra bypass",
		Confidence:     98,
	}, "", 95)
	if err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}
	if dec.Mode != models.ModeAuto {
		t.Fatalf("Mode = %s, want auto", dec.Mode)
	}

	dec, err = service.OverrideDecision(ctx, dec.ID)
	if err != nil {
		t.Fatalf("OverrideDecision failed: %v", err)
	}
	if dec.Mode != models.ModeManualOverride {
		t.Fatalf("Mode = %s, want manual_override", dec.Mode)
	}

	_, err = service.ApproveDecision(ctx, dec.ID)
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestAdvisoryService_ConcurrentCommandsSingleWinner(t *testing.T) {
	service, recRepo, _, _, logWriter := newTestAdvisoryService()
	seedRec(recRepo, "REC-001", models.RecommendationNew)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.ImplementRecommendation(context.Background(), "REC-001"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d implement calls succeeded, want 1", wins)
	}
	if logWriter.count("update") != 1 {
		t.Errorf("update entries = %d, want 1", logWriter.count("update"))
	}
	if n := service.locks.size(); n != 0 {
		t.Errorf("%d record locks left behind", n)
	}
}

func blockedCondition(sectionID string) rules.Condition {
	return rules.Condition{
		Key: rules.Key{EntityID: sectionID, RuleID: rules.RuleSectionBlocked},
		Recommendation: rules.RecommendationDraft{
			Priority: models.PriorityHigh,
			Category: models.CategoryTiming,
			Title:    "Hold traffic entering " + sectionID,
		},
	}
}

func delayCondition(trainID string, confidence float64) rules.Condition {
	return rules.Condition{
		Key: rules.Key{EntityID: trainID, RuleID: rules.RuleTrainDelay},
		Recommendation: rules.RecommendationDraft{
			Priority: models.PriorityHigh,
			Category: models.CategoryRouting,
			Title:    "Reroute " + trainID,
		},
		Decision: &rules.DecisionDraft{
			TrainID:        trainID,
			Kind:           models.DecisionRouting,
			Recommendation: "Route via alternate path",
			Confidence:     confidence,
		},
	}
}

func TestAdvisoryService_Reconcile_SuppressesDuplicates(t *testing.T) {
	service, recRepo, _, condRepo, _ := newTestAdvisoryService()
	ctx := context.Background()
	active := []rules.Condition{blockedCondition("SEC005")}

	for cycle := 1; cycle <= 5; cycle++ {
		result, err := service.Reconcile(ctx, active, 95)
		if err != nil {
			t.Fatalf("cycle %d: Reconcile failed: %v", cycle, err)
		}
		wantRaised := 0
		if cycle == 1 {
			wantRaised = 1
		}
		if len(result.Raised) != wantRaised {
			t.Errorf("cycle %d: raised %d, want %d", cycle, len(result.Raised), wantRaised)
		}
	}

	recs := recRepo.byEntity("SEC005")
	if len(recs) != 1 {
		t.Fatalf("recommendations for SEC005 = %d, want 1", len(recs))
	}
	if recs[0].Category != "Timing" || recs[0].RuleID != rules.RuleSectionBlocked || recs[0].Status != "New" {
		t.Errorf("recommendation = %+v", recs[0])
	}
	if c := condRepo.conds[[2]string{"SEC005", rules.RuleSectionBlocked}]; c == nil || c.RecommendationID != recs[0].ID {
		t.Errorf("condition not linked to %s: %+v", recs[0].ID, c)
	}
}

func TestAdvisoryService_Reconcile_RefiresAfterClear(t *testing.T) {
	service, recRepo, _, condRepo, _ := newTestAdvisoryService()
	ctx := context.Background()
	active := []rules.Condition{blockedCondition("SEC005")}

	service.Reconcile(ctx, active, 95)

	result, err := service.Reconcile(ctx, nil, 95)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Cleared) != 1 || condRepo.isOpen("SEC005", rules.RuleSectionBlocked) {
		t.Fatalf("condition not cleared: %+v", result.Cleared)
	}
	// Clearing leaves the recommendation alone.
	if recs := recRepo.byEntity("SEC005"); len(recs) != 1 || recs[0].Status != "New" {
		t.Errorf("recommendation changed on clear: %+v", recs)
	}

	service.Reconcile(ctx, active, 95)
	if n := len(recRepo.byEntity("SEC005")); n != 2 {
		t.Errorf("recommendations after re-fire = %d, want 2", n)
	}
}

func TestAdvisoryService_Reconcile_RaisesDecisionWithRecommendation(t *testing.T) {
	service, recRepo, decRepo, _, logWriter := newTestAdvisoryService()

	result, err := service.Reconcile(context.Background(), []rules.Condition{
		delayCondition("T005", 83),
		delayCondition("T009", 99),
	}, 95)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Raised) != 2 || len(result.Decisions) != 2 {
		t.Fatalf("raised %d recommendations and %d decisions, want 2 and 2", len(result.Raised), len(result.Decisions))
	}

	decs, _ := decRepo.List(context.Background(), secondary.DecisionFilters{TrainID: "T005"})
	if len(decs) != 1 || decs[0].Mode != "pending" {
		t.Fatalf("T005 decisions = %+v", decs)
	}
	rec, _ := recRepo.GetByID(context.Background(), decs[0].RecommendationID)
	if rec == nil || rec.EntityID != "T005" {
		t.Errorf("decision not linked to the T005 recommendation: %+v", decs[0])
	}

	decs, _ = decRepo.List(context.Background(), secondary.DecisionFilters{TrainID: "T009"})
	if len(decs) != 1 || decs[0].Mode != "auto" {
		t.Errorf("T009 decisions = %+v", decs)
	}

	for _, e := range logWriter.entries {
		if e.actor != ctxutil.EngineActor {
			t.Errorf("engine-raised %s %s audited as %q", e.entityType, e.entityID, e.actor)
		}
	}
	if logWriter.count("create") != 4 {
		t.Errorf("create entries = %d, want 4", logWriter.count("create"))
	}
}

func TestAdvisoryService_Reconcile_FailureReleasesCondition(t *testing.T) {
	service, recRepo, _, condRepo, _ := newTestAdvisoryService()
	ctx := context.Background()
	active := []rules.Condition{blockedCondition("SEC002")}

	recRepo.createErr = errBoom
	result, err := service.Reconcile(ctx, active, 95)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], errBoom) {
		t.Fatalf("Errors = %v, want one wrapping errBoom", result.Errors)
	}
	if condRepo.isOpen("SEC002", rules.RuleSectionBlocked) {
		t.Fatal("condition left open after failed creation")
	}

	recRepo.createErr = nil
	result, _ = service.Reconcile(ctx, active, 95)
	if len(result.Raised) != 1 {
		t.Errorf("retry raised %d, want 1", len(result.Raised))
	}
}

func TestAdvisoryService_Reconcile_RetriesFailedDecision(t *testing.T) {
	service, recRepo, decRepo, condRepo, _ := newTestAdvisoryService()
	ctx := context.Background()
	active := []rules.Condition{delayCondition("T005", 83)}

	decRepo.createErr = errBoom
	result, err := service.Reconcile(ctx, active, 95)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Raised) != 1 || len(result.Decisions) != 0 {
		t.Fatalf("raised %d recommendations and %d decisions, want 1 and 0", len(result.Raised), len(result.Decisions))
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], errBoom) {
		t.Fatalf("Errors = %v, want one wrapping errBoom", result.Errors)
	}
	if c := condRepo.conds[[2]string{"T005", rules.RuleTrainDelay}]; c == nil || !c.DecisionPending {
		t.Fatalf("condition should stay open owing its decision: %+v", c)
	}

	decRepo.createErr = nil
	result, err = service.Reconcile(ctx, active, 95)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Raised) != 0 || len(result.Decisions) != 1 {
		t.Fatalf("retry raised %d recommendations and %d decisions, want 0 and 1", len(result.Raised), len(result.Decisions))
	}
	recs := recRepo.byEntity("T005")
	if len(recs) != 1 || result.Decisions[0].RecommendationID != recs[0].ID {
		t.Errorf("decision %+v not linked to the single T005 recommendation %+v", result.Decisions[0], recs)
	}
	if condRepo.conds[[2]string{"T005", rules.RuleTrainDelay}].DecisionPending {
		t.Error("pending flag not settled after the retry")
	}

	result, _ = service.Reconcile(ctx, active, 95)
	if len(result.Decisions) != 0 {
		t.Errorf("settled condition raised %d more decisions", len(result.Decisions))
	}
}

func TestAdvisoryService_Reconcile_PendingDecisionDroppedOnClear(t *testing.T) {
	service, _, decRepo, condRepo, _ := newTestAdvisoryService()
	ctx := context.Background()

	decRepo.createErr = errBoom
	service.Reconcile(ctx, []rules.Condition{delayCondition("T005", 83)}, 95)
	decRepo.createErr = nil

	result, _ := service.Reconcile(ctx, nil, 95)
	if len(result.Cleared) != 1 || len(result.Decisions) != 0 {
		t.Fatalf("cleared %d, decisions %d, want 1 and 0", len(result.Cleared), len(result.Decisions))
	}
	if condRepo.isOpen("T005", rules.RuleTrainDelay) {
		t.Error("condition still open")
	}
}
