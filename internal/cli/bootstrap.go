// Package cli provides CLI commands for railctl.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/ctxutil"
	"github.com/example/railctl/internal/wire"
)

// globalActorID stores the operator ID for the current CLI invocation.
// Set once at startup by DetectAndStoreActor().
var globalActorID string

var (
	configFlag   string
	operatorFlag string
)

// AddGlobalFlags registers --config and --operator on the root command and
// applies them before any subcommand runs.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", config.DefaultPath, "Path to the railctl config file")
	root.PersistentFlags().StringVar(&operatorFlag, "operator", "", "Operator ID recorded in the audit log (default $RAILCTL_OPERATOR, then $USER)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		wire.SetConfigPath(configFlag)
		DetectAndStoreActor(operatorFlag)
	}
}

// DetectAndStoreActor resolves the operator identity and stores it globally.
// Should be called once at CLI startup in PersistentPreRun.
func DetectAndStoreActor(explicit string) {
	switch {
	case explicit != "":
		globalActorID = explicit
	case os.Getenv("RAILCTL_OPERATOR") != "":
		globalActorID = os.Getenv("RAILCTL_OPERATOR")
	default:
		globalActorID = os.Getenv("USER")
	}
}

// GetActorID returns the stored actor ID from CLI startup.
// Returns empty string if DetectAndStoreActor() was not called.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}
