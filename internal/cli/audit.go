package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/ports/primary"
	"github.com/example/railctl/internal/wire"
)

// AuditCmd returns the audit command
func AuditCmd() *cobra.Command {
	var filters primary.AuditLogFilters

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List advisory audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := wire.QueryService().ListAuditLog(NewContext(), filters)
			if err != nil {
				return fmt.Errorf("failed to list audit log: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No audit entries found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tACTOR\tENTITY\tACTION\tCHANGE")
			fmt.Fprintln(w, "--\t----\t-----\t------\t------\t------")
			for _, e := range entries {
				actor := e.ActorID
				if actor == "" {
					actor = "-"
				}
				change := "-"
				if e.FieldName != "" {
					change = fmt.Sprintf("%s: %s → %s", e.FieldName, e.OldValue, e.NewValue)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
					e.ID,
					e.Timestamp.Format(time.DateTime),
					actor,
					e.EntityType,
					e.EntityID,
					e.Action,
					change,
				)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&filters.EntityType, "entity-type", "", "Filter by entity type (recommendation|decision)")
	cmd.Flags().StringVar(&filters.EntityID, "entity", "", "Filter by entity ID")
	cmd.Flags().StringVar(&filters.ActorID, "actor", "", "Filter by actor ID")
	cmd.Flags().StringVar(&filters.Action, "action", "", "Filter by action (create|update)")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 50, "Maximum number of entries")

	return cmd
}
