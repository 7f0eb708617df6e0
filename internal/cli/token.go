package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/adapters/httpapi"
	"github.com/example/railctl/internal/wire"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP command endpoints",
		Long: `Issue an HS256 token signed with server.jwt_secret. The token subject is the
operator ID (--operator, $RAILCTL_OPERATOR or $USER) and is recorded as the
actor of every command made with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := wire.Config().Current().Server.JWTSecret
			token, err := httpapi.IssueToken(secret, GetActorID(), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")

	return cmd
}
