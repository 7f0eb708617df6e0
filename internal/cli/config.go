package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/wire"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the railctl config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the sample network",
	Long: `Write the default tunables and the five-section demonstration network to
the config file (--config, default railctl.yaml). An existing file is kept
unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(configFlag); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFlag)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config: %w", err)
		}

		cfg := config.Sample()
		if err := config.SaveConfig(configFlag, cfg); err != nil {
			return err
		}

		fmt.Printf("✓ Wrote %s with %d sections\n", configFlag, len(cfg.Topology.Sections))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	Long:  "Print the configuration after defaults and RAILCTL_* overrides are applied. The JWT secret is masked.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *wire.Config().Current()
		if cfg.Server.JWTSecret != "" {
			cfg.Server.JWTSecret = "********"
		}

		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a config file without applying it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFlag
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}

		fmt.Printf("✓ %s is valid (%d sections, cycle every %s)\n", path, len(cfg.Topology.Sections), cfg.Engine.CycleInterval)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")

	// Register subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	return configCmd
}
