package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quizzera/internal/config"
	transport "quizzera/internal/transport/http"
)

// NewTokenCmd issues a bearer token signed with the configured secret, for
// local testing against a running server.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwtSecret not configured")
			}
			switch role {
			case transport.RoleStudent, transport.RoleInstructor, transport.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			auth := transport.NewAuthenticator(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			token, err := auth.IssueToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	cmd.Flags().StringVar(&role, "role", transport.RoleStudent, "student, instructor or admin")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
