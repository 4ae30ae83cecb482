package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/rachana-boutique/internal/auth"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var userID, email, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return NewExitError(ExitCommandError, "token needs --user")
			}
			if secret == "" {
				return NewExitError(ExitCommandError, "token needs --secret or JWT_SECRET")
			}

			token, expiresAt, err := auth.NewJWTService(secret, ttl).GenerateAccessToken(userID, email)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to sign token", err)
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(map[string]any{"token": token, "expires_at": expiresAt}, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
