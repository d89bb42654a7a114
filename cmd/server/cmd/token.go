package cmd

import (
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *globalOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Log in and print a bearer session token",
		Long: `Exchange credentials for a session token, exactly as POST /api/login does.
Useful for scripting against the API:

  TOKEN=$(server token alice@example.com --password 's3cret')
  curl -H "Authorization: Bearer $TOKEN" localhost:8080/api/me`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdminApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.users.Login(cmd.Context(), users.LoginParams{Email: args[0], Password: password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", result.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
