package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/adapters/feed"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/wire"
)

// ReplayCmd returns the replay command
func ReplayCmd() *cobra.Command {
	var cycles int

	cmd := &cobra.Command{
		Use:   "replay [feed.csv]",
		Short: "Apply a CSV update feed and run aggregation cycles over it",
		Long: `Replay decodes a CSV feed of train and section updates, applies it to the
configured network in order, then runs the aggregation cycle so advisories
are raised exactly as a running server would raise them.

Rejected rows are reported and skipped; they never stop the replay.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open feed: %w", err)
			}
			defer f.Close()

			records, rowErrs, err := feed.Decode(f)
			if err != nil {
				return err
			}
			for _, rerr := range rowErrs {
				fmt.Printf("  skipped %v\n", rerr)
			}

			ctx := NewContext()
			result := wire.IngestionService().ApplyBatch(ctx, records)
			fmt.Printf("✓ Applied %d of %d records from %s\n", result.Applied, len(records)+len(rowErrs), args[0])
			for _, rej := range result.Failed {
				fmt.Printf("  rejected #%d %s %s (%s): %v\n", rej.Index, rej.Kind, rej.EntityID, errs.KindOf(rej.Err), rej.Err)
			}

			engine := wire.Engine()
			for i := 0; i < cycles; i++ {
				if _, err := engine.RunCycle(ctx); err != nil {
					return fmt.Errorf("cycle %d failed: %w", i+1, err)
				}
			}
			stats := engine.Stats()
			fmt.Printf("✓ Ran %d cycle(s), raised %d recommendation(s)\n\n", stats.Cycles, stats.Raised)

			snap := wire.QueryService().GetSnapshot(ctx)
			printSections(os.Stdout, snap.Sections)
			fmt.Println()
			printKPIs(os.Stdout, snap.KPIs)

			return wire.AdvisoryAdapter().ListRecommendations(ctx, primary.RecommendationFilters{
				Status: models.RecommendationNew,
			})
		},
	}

	cmd.Flags().IntVar(&cycles, "cycles", 1, "Number of aggregation cycles to run after applying the feed")

	return cmd
}
