package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/models"
	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/wire"
)

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Manage automated decisions",
	Long:  "List, approve and override automated train decisions",
}

var decisionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		train, _ := cmd.Flags().GetString("train")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.AdvisoryAdapter().ListDecisions(NewContext(), primary.DecisionFilters{
			Mode:    models.ImplementationMode(mode),
			TrainID: train,
			Kind:    models.DecisionKind(kind),
			Limit:   limit,
		})
	},
}

var decisionShowCmd = &cobra.Command{
	Use:   "show [decision-id]",
	Short: "Show decision details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.AdvisoryAdapter().ShowDecision(NewContext(), args[0])
		return err
	},
}

var decisionApproveCmd = &cobra.Command{
	Use:   "approve [decision-id]",
	Short: "Approve a pending decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().ApproveDecision(NewContext(), args[0])
	},
}

var decisionOverrideCmd = &cobra.Command{
	Use:   "override [decision-id]",
	Short: "Take manual control of a decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.AdvisoryAdapter().OverrideDecision(NewContext(), args[0])
	},
}

func init() {
	// decision list flags
	decisionListCmd.Flags().StringP("mode", "m", "", "Filter by mode (auto|pending|manual_override)")
	decisionListCmd.Flags().StringP("train", "t", "", "Filter by train ID")
	decisionListCmd.Flags().String("kind", "", "Filter by kind (routing|priority|timing|platform)")
	decisionListCmd.Flags().IntP("limit", "n", 0, "Maximum number of results")

	// Register subcommands
	decisionCmd.AddCommand(decisionListCmd)
	decisionCmd.AddCommand(decisionShowCmd)
	decisionCmd.AddCommand(decisionApproveCmd)
	decisionCmd.AddCommand(decisionOverrideCmd)
}

// DecisionCmd returns the decision command
func DecisionCmd() *cobra.Command {
	return decisionCmd
}
