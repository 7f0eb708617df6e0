package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with a demonstration set of advisories
// for the sample network. Timestamps are relative to now.
func SeedFixtures(database *sql.DB, now time.Time) error {
	ago := func(minutes int) time.Time { return now.Add(-time.Duration(minutes) * time.Minute) }

	recs := []struct {
		id, priority, category, title, description, impact, status, entityID string
		age                                                                  int
	}{
		{"REC-001", "High", "Routing", "Reroute Duronto Express T005 via Agra bypass",
			"Simulation shows a 15 minute recovery via the Agra-Mathura bypass.",
			"Reduce delay by 15 minutes, prevent cascading delays", "New", "T005", 3},
		{"REC-002", "High", "Timing", "Shorten signal intervals on SEC001 Delhi-Gurgaon",
			"Congestion pattern detected. Reduce signal intervals by 25 seconds with express priority.",
			"Increase throughput by 18%, reduce express delays by 4 minutes", "InProgress", "SEC001", 8},
		{"REC-003", "Medium", "Platform", "Reassign Platform 2 at Delhi Junction",
			"Assign Platform 2 to the incoming Shatabdi Express to cut turnaround time.",
			"Reduce platform occupancy time by 3 minutes", "New", "T002", 12},
		{"REC-004", "High", "Routing", "Enforce express priority for T002 Shatabdi",
			"Express trains take precedence over freight. Clear SIG_B1_02 and hold freight.",
			"Restore express schedule adherence", "New", "T002", 5},
		{"REC-005", "Low", "Maintenance", "Schedule preventive maintenance on SEC005",
			"Low-traffic window identified between 02:00 and 04:00.",
			"Prevent a potential 3-hour service disruption", "Completed", "SEC005", 45},
		{"REC-006", "Medium", "Timing", "Balance freight load across alternate routes",
			"Distribute freight traffic across alternate routes during peak hours.",
			"Improve passenger punctuality by 6%", "InProgress", "", 20},
	}
	for _, r := range recs {
		created := ago(r.age)
		var completedAt any
		if r.status == "Completed" {
			completedAt = now
		}
		var entityID any
		if r.entityID != "" {
			entityID = r.entityID
		}
		if _, err := database.Exec(
			`INSERT INTO recommendations (id, priority, category, title, description, estimated_impact, status, entity_id, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.priority, r.category, r.title, r.description, r.impact, r.status, entityID, created, created, completedAt,
		); err != nil {
			return fmt.Errorf("seed recommendations: %w", err)
		}
	}

	decisions := []struct {
		id, trainID, kind, text, mode, impact, recID string
		confidence                                   float64
		age                                          int
	}{
		{"AID-001", "T005", "routing", "Reroute via Agra bypass, 15 min recovery possible", "pending",
			"High - prevents cascading delays for 3 downstream trains", "REC-001", 94, 2},
		{"AID-002", "T002", "priority", "Grant immediate signal clearance over freight T004", "auto",
			"Medium - maintains express priority", "REC-004", 98, 5},
		{"AID-003", "T003", "timing", "Hold at platform for 2 minutes to allow express overtaking", "auto",
			"Low - improves network efficiency by 3%", "", 91, 8},
		{"AID-004", "T001", "platform", "Switch to Platform 3 for faster departure clearance", "manual_override",
			"Medium - reduces dwell time by 90 seconds", "", 87, 12},
	}
	for _, d := range decisions {
		created := ago(d.age)
		var recID any
		if d.recID != "" {
			recID = d.recID
		}
		if _, err := database.Exec(
			`INSERT INTO ai_decisions (id, train_id, kind, recommendation, confidence, mode, impact, recommendation_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.id, d.trainID, d.kind, d.text, d.confidence, d.mode, d.impact, recID, created, created,
		); err != nil {
			return fmt.Errorf("seed ai_decisions: %w", err)
		}
	}

	return nil
}
