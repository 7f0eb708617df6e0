package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/railctl/internal/core/decision"
	"github.com/example/railctl/internal/core/recommendation"
	"github.com/example/railctl/internal/core/rules"
	"github.com/example/railctl/internal/ctxutil"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/ports/secondary"
)

// AdvisoryServiceImpl owns the Recommendation and AIDecision lifecycles.
// Operator commands lock only the targeted record; advisories are raised by
// the aggregation cycle through Reconcile.
type AdvisoryServiceImpl struct {
	recRepo   secondary.RecommendationRepository
	decRepo   secondary.DecisionRepository
	condRepo  secondary.ConditionRepository
	logWriter secondary.LogWriter
	now       func() time.Time

	locks *keyedMutex

	// Serializes ID allocation and insert of new advisories.
	createMu sync.Mutex
}

// NewAdvisoryService creates a new AdvisoryService with injected dependencies.
func NewAdvisoryService(
	recRepo secondary.RecommendationRepository,
	decRepo secondary.DecisionRepository,
	condRepo secondary.ConditionRepository,
	logWriter secondary.LogWriter,
) *AdvisoryServiceImpl {
	return &AdvisoryServiceImpl{
		recRepo:   recRepo,
		decRepo:   decRepo,
		condRepo:  condRepo,
		logWriter: logWriter,
		now:       func() time.Time { return time.Now().UTC() },
		locks:     newKeyedMutex(),
	}
}

// ReviewRecommendation records an operator review. Status is unchanged.
func (s *AdvisoryServiceImpl) ReviewRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	return s.transitionRecommendation(ctx, id, recommendation.ActionReview)
}

// ImplementRecommendation moves a New recommendation to InProgress.
func (s *AdvisoryServiceImpl) ImplementRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	return s.transitionRecommendation(ctx, id, recommendation.ActionImplement)
}

// CompleteRecommendation moves an InProgress recommendation to Completed.
func (s *AdvisoryServiceImpl) CompleteRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	return s.transitionRecommendation(ctx, id, recommendation.ActionComplete)
}

func (s *AdvisoryServiceImpl) transitionRecommendation(ctx context.Context, id, action string) (*models.Recommendation, error) {
	unlock := s.locks.Lock("rec:" + id)
	defer unlock()

	record, err := s.recRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	guardCtx := recommendation.TransitionContext{
		RecommendationID: id,
		CurrentStatus:    models.RecommendationStatus(record.Status),
		Action:           action,
	}
	if result := recommendation.Evaluate(guardCtx); !result.Allowed {
		return nil, result.Error(guardCtx)
	}

	if action == recommendation.ActionReview {
		if err := s.logWriter.LogReview(ctx, "recommendation", id); err != nil {
			return nil, fmt.Errorf("failed to record review: %w", err)
		}
		return recordToRecommendation(record), nil
	}

	now := s.now()
	target := recommendation.TargetStatus(guardCtx.CurrentStatus, action)
	transition := recommendation.ApplyStatusTransition(target, now)

	ok, err := s.recRepo.UpdateStatus(ctx, id, record.Status, string(transition.NewStatus), now, transition.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update recommendation status: %w", err)
	}
	if !ok {
		// Changed by another process between read and write.
		return nil, &errs.InvalidTransitionError{
			Kind:   "recommendation",
			ID:     id,
			From:   record.Status,
			Action: action,
			Reason: "status changed concurrently",
		}
	}

	if err := s.logWriter.LogUpdate(ctx, "recommendation", id, "status", record.Status, string(transition.NewStatus)); err != nil {
		log.Printf("[advisory] failed to audit %s on %s: %v", action, id, err)
	}

	record.Status = string(transition.NewStatus)
	record.UpdatedAt = now
	if transition.CompletedAt != nil {
		record.CompletedAt = transition.CompletedAt
	}
	return recordToRecommendation(record), nil
}

// ApproveDecision moves a pending decision to auto.
func (s *AdvisoryServiceImpl) ApproveDecision(ctx context.Context, id string) (*models.AIDecision, error) {
	return s.transitionDecision(ctx, id, decision.ActionApprove)
}

// OverrideDecision moves a pending or auto decision to manual_override.
func (s *AdvisoryServiceImpl) OverrideDecision(ctx context.Context, id string) (*models.AIDecision, error) {
	return s.transitionDecision(ctx, id, decision.ActionOverride)
}

func (s *AdvisoryServiceImpl) transitionDecision(ctx context.Context, id, action string) (*models.AIDecision, error) {
	unlock := s.locks.Lock("dec:" + id)
	defer unlock()

	record, err := s.decRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	guardCtx := decision.TransitionContext{
		DecisionID:  id,
		CurrentMode: models.ImplementationMode(record.Mode),
		Action:      action,
	}
	if result := decision.Evaluate(guardCtx); !result.Allowed {
		return nil, result.Error(guardCtx)
	}

	now := s.now()
	target := string(decision.TargetMode(action))
	ok, err := s.decRepo.UpdateMode(ctx, id, record.Mode, target, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update decision mode: %w", err)
	}
	if !ok {
		return nil, &errs.InvalidTransitionError{
			Kind:   "decision",
			ID:     id,
			From:   record.Mode,
			Action: action,
			Reason: "mode changed concurrently",
		}
	}

	if err := s.logWriter.LogUpdate(ctx, "decision", id, "mode", record.Mode, target); err != nil {
		log.Printf("[advisory] failed to audit %s on %s: %v", action, id, err)
	}

	record.Mode = target
	record.UpdatedAt = now
	return recordToDecision(record), nil
}

// CreateRecommendation raises a New recommendation for the condition key.
func (s *AdvisoryServiceImpl) CreateRecommendation(ctx context.Context, key rules.Key, draft rules.RecommendationDraft) (*models.Recommendation, error) {
	if !models.ValidPriority(draft.Priority) || !models.ValidCategory(draft.Category) || draft.Title == "" {
		return nil, errs.Validation("recommendation", "", "priority, category and title are required")
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	id, err := s.recRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate recommendation id: %w", err)
	}
	now := s.now()
	record := &secondary.RecommendationRecord{
		ID:              id,
		Priority:        string(draft.Priority),
		Category:        string(draft.Category),
		Title:           draft.Title,
		Description:     draft.Description,
		EstimatedImpact: draft.EstimatedImpact,
		Status:          string(models.RecommendationNew),
		EntityID:        key.EntityID,
		RuleID:          key.RuleID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.recRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}

	if err := s.logWriter.LogCreate(ctx, "recommendation", id); err != nil {
		log.Printf("[advisory] failed to audit create of %s: %v", id, err)
	}
	return recordToRecommendation(record), nil
}

// CreateDecision raises a decision in auto when its confidence reaches
// threshold and in pending otherwise. recommendationID may be empty.
func (s *AdvisoryServiceImpl) CreateDecision(ctx context.Context, draft rules.DecisionDraft, recommendationID string, threshold float64) (*models.AIDecision, error) {
	if result := decision.CanCreate(decision.CreateContext{
		TrainID:    draft.TrainID,
		Kind:       draft.Kind,
		Confidence: draft.Confidence,
	}); !result.Allowed {
		return nil, errs.Validation("decision", "", "%s", result.Reason)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	id, err := s.decRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate decision id: %w", err)
	}
	now := s.now()
	record := &secondary.DecisionRecord{
		ID:               id,
		TrainID:          draft.TrainID,
		Kind:             string(draft.Kind),
		Recommendation:   draft.Recommendation,
		Confidence:       draft.Confidence,
		Mode:             string(decision.InitialMode(draft.Confidence, threshold)),
		Impact:           draft.Impact,
		RecommendationID: recommendationID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.decRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create decision: %w", err)
	}

	if err := s.logWriter.LogCreate(ctx, "decision", id); err != nil {
		log.Printf("[advisory] failed to audit create of %s: %v", id, err)
	}
	return recordToDecision(record), nil
}

// ReconcileResult reports what one rule evaluation changed.
type ReconcileResult struct {
	Raised    []*models.Recommendation
	Decisions []*models.AIDecision
	Cleared   []rules.Key
	Errors    []error
}

// Reconcile raises advisories for conditions that are not open yet and clears
// open conditions that no longer hold. A condition stays open, and suppresses
// further advisories, until it clears. Clearing never completes a
// recommendation. An open condition whose decision failed to store retries
// the decision on every cycle it still holds.
func (s *AdvisoryServiceImpl) Reconcile(ctx context.Context, active []rules.Condition, threshold float64) (*ReconcileResult, error) {
	ctx = ctxutil.WithActorID(ctx, ctxutil.EngineActor)

	open, err := s.condRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open conditions: %w", err)
	}
	keys := make([]rules.Key, len(open))
	owing := make(map[rules.Key]*secondary.ConditionRecord)
	for i, c := range open {
		keys[i] = rules.Key{EntityID: c.EntityID, RuleID: c.RuleID}
		if c.DecisionPending {
			owing[keys[i]] = c
		}
	}

	fire, cleared := rules.Plan(keys, active)
	result := &ReconcileResult{}

	for _, k := range cleared {
		if err := s.condRepo.Clear(ctx, k.EntityID, k.RuleID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("clear %s: %w", k, err))
			continue
		}
		result.Cleared = append(result.Cleared, k)
	}

	for _, c := range active {
		cond, ok := owing[c.Key]
		if !ok || c.Decision == nil {
			continue
		}
		delete(owing, c.Key)
		if err := s.raiseDecision(ctx, c, cond.RecommendationID, threshold, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("raise decision %s: %w", c.Key, err))
		}
	}

	for _, c := range fire {
		if err := s.raise(ctx, c, threshold, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("raise %s: %w", c.Key, err))
		}
	}

	return result, nil
}

func (s *AdvisoryServiceImpl) raise(ctx context.Context, c rules.Condition, threshold float64, result *ReconcileResult) error {
	opened, err := s.condRepo.Open(ctx, &secondary.ConditionRecord{
		EntityID:        c.EntityID,
		RuleID:          c.RuleID,
		DecisionPending: c.Decision != nil,
		OpenedAt:        s.now(),
	})
	if err != nil {
		return err
	}
	if !opened {
		return nil
	}

	rec, err := s.CreateRecommendation(ctx, c.Key, c.Recommendation)
	if err != nil {
		// Leave the condition closed so the next cycle retries.
		if clearErr := s.condRepo.Clear(ctx, c.EntityID, c.RuleID); clearErr != nil {
			log.Printf("[advisory] failed to release condition %s: %v", c.Key, clearErr)
		}
		return err
	}
	result.Raised = append(result.Raised, rec)

	if err := s.condRepo.SetRecommendation(ctx, c.EntityID, c.RuleID, rec.ID); err != nil {
		log.Printf("[advisory] failed to link condition %s to %s: %v", c.Key, rec.ID, err)
	}

	if c.Decision != nil {
		return s.raiseDecision(ctx, c, rec.ID, threshold, result)
	}
	return nil
}

// raiseDecision stores the decision of an open condition and settles its
// pending flag. On failure the flag stays set and the next cycle retries.
func (s *AdvisoryServiceImpl) raiseDecision(ctx context.Context, c rules.Condition, recommendationID string, threshold float64, result *ReconcileResult) error {
	dec, err := s.CreateDecision(ctx, *c.Decision, recommendationID, threshold)
	if err != nil {
		return err
	}
	result.Decisions = append(result.Decisions, dec)

	if err := s.condRepo.SetDecisionPending(ctx, c.EntityID, c.RuleID, false); err != nil {
		log.Printf("[advisory] failed to settle decision %s for %s: %v", dec.ID, c.Key, err)
	}
	return nil
}

// Helper methods

func recordToRecommendation(r *secondary.RecommendationRecord) *models.Recommendation {
	return &models.Recommendation{
		ID:              r.ID,
		Priority:        models.Priority(r.Priority),
		Category:        models.Category(r.Category),
		Title:           r.Title,
		Description:     r.Description,
		EstimatedImpact: r.EstimatedImpact,
		Status:          models.RecommendationStatus(r.Status),
		EntityID:        r.EntityID,
		RuleID:          r.RuleID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		CompletedAt:     r.CompletedAt,
	}
}

func recordToDecision(r *secondary.DecisionRecord) *models.AIDecision {
	return &models.AIDecision{
		ID:               r.ID,
		TrainID:          r.TrainID,
		Kind:             models.DecisionKind(r.Kind),
		Recommendation:   r.Recommendation,
		Confidence:       r.Confidence,
		Mode:             models.ImplementationMode(r.Mode),
		Impact:           r.Impact,
		RecommendationID: r.RecommendationID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// Ensure AdvisoryServiceImpl implements the interface
var _ primary.AdvisoryService = (*AdvisoryServiceImpl)(nil)
