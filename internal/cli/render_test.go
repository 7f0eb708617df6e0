package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/railctl/internal/models"
)

func TestPrintSections(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printSections(&buf, []models.Section{
		{ID: "SEC001", Name: "Delhi-Ghaziabad", Capacity: 8, CurrentTrains: 6, Utilization: 75, Status: models.SectionCongested},
		{ID: "SEC005", Name: "Palwal-Mathura", Capacity: 15, CurrentTrains: 15, Utilization: 100, Status: models.SectionBlocked},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "75.0%") || !strings.HasSuffix(lines[2], "Congested") {
		t.Errorf("unexpected SEC001 row %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "Blocked") {
		t.Errorf("unexpected SEC005 row %q", lines[3])
	}
}

func TestPrintKPIs(t *testing.T) {
	color.NoColor = true
	target := 90.0

	tests := []struct {
		name string
		kpis []models.KPI
		want []string
	}{
		{
			name: "before first cycle",
			want: []string{"No KPIs yet"},
		},
		{
			name: "with and without target",
			kpis: []models.KPI{
				{Name: "On-Time Performance", Value: 50, Unit: "%", Target: &target, Trend: models.TrendDown, Status: models.KPICritical},
				{Name: "Freight Tonnage", Value: 1200, Unit: "t", Trend: models.TrendStable, Status: models.KPIGood, External: true},
			},
			want: []string{"On-Time Performance", "90.0 %", "critical", "Freight Tonnage", "1200.0 t", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printKPIs(&buf, tt.kpis)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}
