package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/db"
	"github.com/example/railctl/internal/wire"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the advisory database",
}

var dbPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the database file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		wire.Config()
		fmt.Println(db.GetDBPath())
		return nil
	},
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demonstration recommendations and decisions",
	Long: `Seed inserts six recommendations and four decisions for the sample
network, timestamped relative to now. Seeding twice fails on the
duplicate IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wire.Config()
		database, err := db.GetDB()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.SeedFixtures(database, time.Now().UTC()); err != nil {
			return err
		}

		fmt.Printf("✓ Seeded %s\n", db.GetDBPath())
		return nil
	},
}

func init() {
	// Register subcommands
	dbCmd.AddCommand(dbPathCmd)
	dbCmd.AddCommand(dbSeedCmd)
}

// DBCmd returns the db command
func DBCmd() *cobra.Command {
	return dbCmd
}
