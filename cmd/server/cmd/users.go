package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newUsersCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersCreateCommand(opts))
	cmd.AddCommand(newUsersListCommand(opts))
	return cmd
}

func newUsersCreateCommand(opts *globalOptions) *cobra.Command {
	var firstname, lastname, password string

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Register a user",
		Long: `Register a user with the same validation as POST /api/register.

Example:
  server users create alice@example.com --firstname Alice --lastname Martin --password 's3cret'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdminApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.Register(cmd.Context(), users.RegisterParams{
				Firstname: firstname,
				Lastname:  lastname,
				Email:     args[0],
				Password:  password,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&firstname, "firstname", "", "first name (required)")
	cmd.Flags().StringVar(&lastname, "lastname", "", "last name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("firstname")
	_ = cmd.MarkFlagRequired("lastname")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersListCommand(opts *globalOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAdminApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.users.List(cmd.Context(), limit, offset)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
			for _, u := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Email, u.CreatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of users")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of users to skip")
	return cmd
}

// openAdminApp wires services for one-shot commands. Logs go to stderr so
// command output stays clean.
func openAdminApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn().Msg("memory store selected; changes will not outlive this command")
	}
	return newApp(cmd.Context(), cfg, logger)
}
