package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/railctl/internal/models"
)

// printSections writes the section table. Status is last so its color codes
// do not shift the tabwriter columns.
func printSections(out io.Writer, sections []models.Section) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRAINS\tCAP\tUTIL\tSTATUS")
	fmt.Fprintln(w, "--\t----\t------\t---\t----\t------")
	for _, s := range sections {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			s.ID, s.Name, s.CurrentTrains, s.Capacity, s.Utilization, sectionStatusLabel(s.Status))
	}
	w.Flush()
}

// printKPIs writes the KPI table.
func printKPIs(out io.Writer, kpis []models.KPI) {
	if len(kpis) == 0 {
		fmt.Fprintln(out, "No KPIs yet (no cycle has run)")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KPI\tVALUE\tTARGET\tTREND\tSTATUS")
	fmt.Fprintln(w, "---\t-----\t------\t-----\t------")
	for _, k := range kpis {
		target := "-"
		if k.Target != nil {
			target = fmt.Sprintf("%.1f %s", *k.Target, k.Unit)
		}
		fmt.Fprintf(w, "%s\t%.1f %s\t%s\t%s\t%s\n",
			k.Name, k.Value, k.Unit, target, k.Trend, kpiStatusLabel(k.Status))
	}
	w.Flush()
}

func sectionStatusLabel(s models.SectionStatus) string {
	switch s {
	case models.SectionBlocked:
		return color.New(color.FgRed).Sprint(s)
	case models.SectionCongested:
		return color.New(color.FgYellow).Sprint(s)
	case models.SectionMaintenance:
		return color.New(color.FgCyan).Sprint(s)
	}
	return color.New(color.FgGreen).Sprint(s)
}

func kpiStatusLabel(s models.KPIStatus) string {
	switch s {
	case models.KPICritical:
		return color.New(color.FgRed).Sprint(s)
	case models.KPIWarning:
		return color.New(color.FgYellow).Sprint(s)
	}
	return color.New(color.FgGreen).Sprint(s)
}
