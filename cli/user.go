package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/utils"
)

func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long: `Create a staff account. Dashboard access is granted separately,
by listing the email in ADMIN_EMAILS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.authService(utils.NewTokenBlacklist()).CreateUser(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", user.ID, user.Email)
			if !services.IsAdminEmail(user.Email, a.cfg.AdminEmails) {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: this email is not in ADMIN_EMAILS and cannot open the dashboard")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
