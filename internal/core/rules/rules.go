// Package rules turns a classified snapshot into advisory conditions and
// plans which of them should raise new advisories.
// This is part of the Functional Core - no I/O, only pure functions.
package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/example/railctl/internal/models"
)

// Rule identifiers. Together with an entity id they key an open condition.
const (
	RuleTrainDelay         = "train-delay"
	RuleSectionBlocked     = "section-blocked"
	RuleSectionMaintenance = "section-maintenance"
	RuleSectionCongested   = "section-congested"
)

// Policy carries the tunables the rules depend on. The zero value of
// Suspended and Disabled leaves every rule on.
type Policy struct {
	MaxDelayMinutes      int
	CapacityAlertPercent float64

	// Suspended turns off advisory generation entirely.
	Suspended bool
	// Disabled holds rule IDs that must not fire.
	Disabled map[string]bool
}

func (p Policy) enabled(ruleID string) bool {
	return !p.Suspended && !p.Disabled[ruleID]
}

// Key identifies an open condition.
type Key struct {
	EntityID string
	RuleID   string
}

func (k Key) String() string {
	return k.RuleID + "/" + k.EntityID
}

// RecommendationDraft is the content of a recommendation to be raised.
type RecommendationDraft struct {
	Priority        models.Priority
	Category        models.Category
	Title           string
	Description     string
	EstimatedImpact string
}

// DecisionDraft is the content of a decision to be raised. Mode is chosen
// at creation from Confidence and the configured threshold.
type DecisionDraft struct {
	TrainID        string
	Kind           models.DecisionKind
	Recommendation string
	Confidence     float64
	Impact         string
}

// Condition is one rule holding for one entity in a snapshot.
type Condition struct {
	Key
	Recommendation RecommendationDraft
	Decision       *DecisionDraft
}

// Evaluate returns every condition that holds in snap, trains first, each
// group in snapshot order. A disabled rule never holds, so its open
// conditions clear on the next Plan.
func Evaluate(snap models.Snapshot, p Policy) []Condition {
	var out []Condition
	if p.enabled(RuleTrainDelay) {
		for _, t := range snap.Trains {
			if c, ok := trainDelay(t, p); ok {
				out = append(out, c)
			}
		}
	}
	for _, s := range snap.Sections {
		switch {
		case s.Status == models.SectionBlocked:
			if p.enabled(RuleSectionBlocked) {
				out = append(out, sectionBlocked(s))
			}
		case s.Status == models.SectionMaintenance:
			if p.enabled(RuleSectionMaintenance) {
				out = append(out, sectionMaintenance(s))
			}
		case p.CapacityAlertPercent > 0 && s.Utilization >= p.CapacityAlertPercent:
			if p.enabled(RuleSectionCongested) {
				out = append(out, sectionCongested(s, p))
			}
		}
	}
	return out
}

// Plan compares the conditions holding now with the open ones.
// Rules:
// - a holding condition that is not open fires (raises advisories, becomes open)
// - a holding condition that is already open is suppressed
// - an open condition that no longer holds is cleared
func Plan(open []Key, active []Condition) (fire []Condition, cleared []Key) {
	isOpen := make(map[Key]bool, len(open))
	for _, k := range open {
		isOpen[k] = true
	}
	holding := make(map[Key]bool, len(active))
	for _, c := range active {
		if holding[c.Key] {
			continue
		}
		holding[c.Key] = true
		if !isOpen[c.Key] {
			fire = append(fire, c)
		}
	}
	for _, k := range open {
		if !holding[k] {
			cleared = append(cleared, k)
		}
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i].String() < cleared[j].String() })
	return fire, cleared
}

func trainDelay(t models.Train, p Policy) (Condition, bool) {
	if t.DelayMinutes <= p.MaxDelayMinutes {
		return Condition{}, false
	}
	excess := t.DelayMinutes - p.MaxDelayMinutes
	where := t.CurrentLocation
	if where == "" {
		where = "its current position"
	}
	rec := RecommendationDraft{
		Priority: models.PriorityHigh,
		Category: models.CategoryRouting,
		Title:    fmt.Sprintf("Reroute %s %s", t.ID, t.Name),
		Description: fmt.Sprintf("%s is running %d min late at %s, %d min over the %d min limit. Consider an alternative route to %s.",
			t.ID, t.DelayMinutes, where, excess, p.MaxDelayMinutes, destination(t)),
		EstimatedImpact: fmt.Sprintf("Recover up to %d min", recoverable(excess)),
	}
	dec := &DecisionDraft{
		TrainID:        t.ID,
		Kind:           models.DecisionRouting,
		Recommendation: fmt.Sprintf("Route %s via the alternate path to %s", t.ID, destination(t)),
		Confidence:     DelayConfidence(t.DelayMinutes, p.MaxDelayMinutes),
		Impact:         fmt.Sprintf("Reduce delay by up to %d min", recoverable(excess)),
	}
	return Condition{
		Key:            Key{EntityID: t.ID, RuleID: RuleTrainDelay},
		Recommendation: rec,
		Decision:       dec,
	}, true
}

func sectionBlocked(s models.Section) Condition {
	reason := fmt.Sprintf("at %d of %d trains (%.0f%% utilization)", s.CurrentTrains, s.Capacity, s.Utilization)
	if s.Flag == models.FlagBlocked {
		reason = "flagged as blocked"
	}
	return Condition{
		Key: Key{EntityID: s.ID, RuleID: RuleSectionBlocked},
		Recommendation: RecommendationDraft{
			Priority:        models.PriorityHigh,
			Category:        models.CategoryTiming,
			Title:           fmt.Sprintf("Hold traffic entering %s %s", s.ID, s.Name),
			Description:     fmt.Sprintf("Section %s is blocked, %s. Adjust departure times of trains scheduled into it.", s.ID, reason),
			EstimatedImpact: "Prevent cascading delays",
		},
	}
}

func sectionMaintenance(s models.Section) Condition {
	return Condition{
		Key: Key{EntityID: s.ID, RuleID: RuleSectionMaintenance},
		Recommendation: RecommendationDraft{
			Priority:        models.PriorityLow,
			Category:        models.CategoryMaintenance,
			Title:           fmt.Sprintf("Coordinate maintenance on %s %s", s.ID, s.Name),
			Description:     fmt.Sprintf("Section %s is under maintenance. Confirm the work window and divert scheduled traffic.", s.ID),
			EstimatedImpact: "Keep maintenance within its window",
		},
	}
}

func sectionCongested(s models.Section, p Policy) Condition {
	return Condition{
		Key: Key{EntityID: s.ID, RuleID: RuleSectionCongested},
		Recommendation: RecommendationDraft{
			Priority: models.PriorityMedium,
			Category: models.CategoryTiming,
			Title:    fmt.Sprintf("Space out trains on %s %s", s.ID, s.Name),
			Description: fmt.Sprintf("Section %s is at %.0f%% utilization, above the %.0f%% alert level. Stagger entries to keep headway.",
				s.ID, s.Utilization, p.CapacityAlertPercent),
			EstimatedImpact: "Improve section throughput",
		},
	}
}

// DelayConfidence scores a delay-driven routing decision in 0..100.
// It grows linearly from 75 at the limit to 99 at three times the limit.
func DelayConfidence(delayMinutes, maxDelayMinutes int) float64 {
	if maxDelayMinutes <= 0 {
		return 99
	}
	ratio := float64(delayMinutes-maxDelayMinutes) / float64(2*maxDelayMinutes)
	ratio = math.Max(0, math.Min(1, ratio))
	return math.Round((75+24*ratio)*10) / 10
}

func recoverable(excess int) int {
	if excess < 5 {
		return excess
	}
	return excess * 2 / 3
}

func destination(t models.Train) string {
	if t.Destination == "" {
		return "its destination"
	}
	return t.Destination
}
