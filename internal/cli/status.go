package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured network and open advisories",
		Long: `Display the configured sections, the active tunables and the
recommendation and decision counters stored in the database.

Live train state is held by the serving process; query it with
GET /api/v1/status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			store := wire.Config()
			cfg := store.Current()

			source := store.Path()
			if source == "" {
				source = "(defaults)"
			}
			fmt.Printf("railctl status - config %s\n\n", source)

			snap := wire.QueryService().GetSnapshot(ctx)
			if len(snap.Sections) == 0 {
				fmt.Println("No sections configured. Run `railctl config init` to write a sample network.")
			} else {
				printSections(os.Stdout, snap.Sections)
			}
			fmt.Println()

			fmt.Printf("Cycle every %s, trends %s over %s\n",
				cfg.Engine.CycleInterval, cfg.Engine.TrendBucket, cfg.Engine.TrendWindow)
			fmt.Printf("Bands: normal <= %.0f%%, congested <= %.0f%%; auto threshold %.0f%%\n",
				cfg.Classifier.NormalMaxUtilization, cfg.Classifier.CongestedMaxUtilization, cfg.Advisory.AutoConfidenceThreshold)
			if policy := cfg.Policy(); policy.Suspended {
				fmt.Println(color.New(color.FgYellow).Sprint("Advisory generation is off"))
			} else if len(policy.Disabled) > 0 {
				off := make([]string, 0, len(policy.Disabled))
				for id := range policy.Disabled {
					off = append(off, id)
				}
				sort.Strings(off)
				fmt.Printf("Rules off: %s\n", strings.Join(off, ", "))
			}
			fmt.Println()

			counts, err := wire.QueryService().RecommendationCounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to count recommendations: %w", err)
			}
			fmt.Printf("Recommendations: %d total, %s, %s, %d in progress, %d completed\n",
				counts.Total,
				color.New(color.FgYellow).Sprintf("%d new", counts.New),
				color.New(color.FgRed).Sprintf("%d high priority", counts.HighPriority),
				counts.InProgress,
				counts.Completed,
			)

			pending, err := wire.QueryService().ListDecisions(ctx, primary.DecisionFilters{Mode: models.ModePending})
			if err != nil {
				return fmt.Errorf("failed to list decisions: %w", err)
			}
			if len(pending) > 0 {
				fmt.Printf("Decisions awaiting approval: %s\n", color.New(color.FgYellow).Sprint(len(pending)))
				for _, d := range pending {
					fmt.Printf("  - %s %s %s (%.1f%%)\n", d.ID, d.TrainID, d.Kind, d.Confidence)
				}
			} else {
				fmt.Println("Decisions awaiting approval: 0")
			}

			return nil
		},
	}
}
