package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/wire"
)

var recommendationCmd = &cobra.Command{
	Use:     "recommendation",
	Aliases: []string{"rec"},
	Short:   "Manage recommendations",
	Long:    "List, review and progress the recommendations raised by the aggregation cycle",
}

var recommendationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		priority, _ := cmd.Flags().GetString("priority")
		category, _ := cmd.Flags().GetString("category")
		entity, _ := cmd.Flags().GetString("entity")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.AdvisoryAdapter().ListRecommendations(NewContext(), primary.RecommendationFilters{
			Status:   models.RecommendationStatus(status),
			Priority: models.Priority(priority),
			Category: models.Category(category),
			EntityID: entity,
			Limit:    limit,
		})
	},
}

var recommendationShowCmd = &cobra.Command{
	Use:   "show [recommendation-id]",
	Short: "Show recommendation details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.AdvisoryAdapter().ShowRecommendation(NewContext(), args[0])
		return err
	},
}

var recommendationCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show recommendation summary counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().Counts(NewContext())
	},
}

var recommendationReviewCmd = &cobra.Command{
	Use:   "review [recommendation-id]",
	Short: "Record a review of a recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().ReviewRecommendation(NewContext(), args[0])
	},
}

var recommendationImplementCmd = &cobra.Command{
	Use:   "implement [recommendation-id]",
	Short: "Start implementing a New recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().ImplementRecommendation(NewContext(), args[0])
	},
}

var recommendationCompleteCmd = &cobra.Command{
	Use:   "complete [recommendation-id]",
	Short: "Mark an InProgress recommendation as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().CompleteRecommendation(NewContext(), args[0])
	},
}

func init() {
	// recommendation list flags
	recommendationListCmd.Flags().StringP("status", "s", "", "Filter by status (New|InProgress|Completed)")
	recommendationListCmd.Flags().StringP("priority", "p", "", "Filter by priority (High|Medium|Low)")
	recommendationListCmd.Flags().String("category", "", "Filter by category (Routing|Timing|Platform|Maintenance)")
	recommendationListCmd.Flags().String("entity", "", "Filter by the train or section that raised it")
	recommendationListCmd.Flags().IntP("limit", "n", 0, "Maximum number of results")

	// Register subcommands
	recommendationCmd.AddCommand(recommendationListCmd)
	recommendationCmd.AddCommand(recommendationShowCmd)
	recommendationCmd.AddCommand(recommendationCountsCmd)
	recommendationCmd.AddCommand(recommendationReviewCmd)
	recommendationCmd.AddCommand(recommendationImplementCmd)
	recommendationCmd.AddCommand(recommendationCompleteCmd)
}

// RecommendationCmd returns the recommendation command
func RecommendationCmd() *cobra.Command {
	return recommendationCmd
}
