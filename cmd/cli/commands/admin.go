package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/admingate"
)

// AdminCmd creates the admin command group
func AdminCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin session management",
	}
	cmd.AddCommand(adminLoginCmd(app))
	return cmd
}

func adminLoginCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange the admin password for a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Gate == nil {
				return admingate.ErrNotConfigured
			}

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Admin password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}

			token, session, err := app.Gate.Login(password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Admin session started (expires %s)\n\n", session.ExpiresAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "export ADMIN_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().String("password", "", "Admin password (prompted when omitted)")
	return cmd
}

// withAdmin guards every runnable command under group with the admin session check
func withAdmin(app *AppContext, group *cobra.Command) *cobra.Command {
	for _, sub := range group.Commands() {
		withAdmin(app, sub)
	}

	if group.RunE == nil {
		return group
	}

	run := group.RunE
	group.RunE = func(cmd *cobra.Command, args []string) error {
		if err := requireAdmin(app); err != nil {
			return err
		}
		return run(cmd, args)
	}
	return group
}

func requireAdmin(app *AppContext) error {
	if app.Gate == nil {
		return admingate.ErrNotConfigured
	}

	token := app.AdminToken
	if token == "" {
		token = os.Getenv("ADMIN_TOKEN")
	}

	session, err := app.Gate.Verify(token)
	if err != nil {
		if errors.Is(err, admingate.ErrSessionExpired) {
			return fmt.Errorf("%w: run `admin login` again", err)
		}
		return fmt.Errorf("%w: run `admin login` and pass the token with --admin-token or ADMIN_TOKEN", err)
	}

	app.Logger.Debug("Admin session verified", zap.String("session", session.ID))
	return nil
}
