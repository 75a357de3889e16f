package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
)

// SignupCmd creates the public signup command
func SignupCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register as a volunteer for one or more services",
		Long: `Register as a volunteer. Pass --service once per service, optionally with the dates chosen:

  signup --name "Arun" --email arun@example.com --service 1:2024-06-01,2024-06-08 --service 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			committed, _ := cmd.Flags().GetBool("committed-weekly")
			rawServices, _ := cmd.Flags().GetStringArray("service")

			input := services.SignupInput{
				Name:            name,
				Email:           email,
				Phone:           phone,
				CommittedWeekly: committed,
			}
			for _, raw := range rawServices {
				sel, err := parseServiceSelection(raw)
				if err != nil {
					return err
				}
				input.Services = append(input.Services, sel)
			}

			result, err := services.Signup(app.Ctx, app.Database, app.Notifier, app.Logger, input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Thank you %s, you are registered (volunteer #%d)\n", result.Volunteer.Name, result.Volunteer.ID)
			if result.Notified {
				fmt.Fprintf(out, "A confirmation email has been sent to %s\n", result.Volunteer.Email)
			} else {
				fmt.Fprintln(out, "No confirmation email could be sent")
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().Bool("committed-weekly", false, "Can commit weekly")
	cmd.Flags().StringArray("service", nil, "<service_id>[:<date>,<date>...] (repeatable)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

// DatesCmd creates the public command listing services and their dates
func DatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the services available for signup and their dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := services.ListServices(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No services yet.")
				return nil
			}

			for _, s := range list {
				dates, err := services.ListServiceDates(app.Ctx, app.Database, app.Logger, s.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d. %s\n", s.ID, s.Name)
				if len(dates) == 0 {
					fmt.Fprintln(out, "   (no dates)")
					continue
				}
				fmt.Fprintf(out, "   %s\n", strings.Join(dates, ", "))
			}
			return nil
		},
	}
}
