package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/schedule"
	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
	"github.com/jakechorley/tamilschool-volunteers/pkg/export"
)

// VolunteerCmd creates the admin volunteer command group
func VolunteerCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volunteer",
		Short: "Manage volunteers",
	}

	cmd.AddCommand(
		volunteerListCmd(app),
		volunteerFindCmd(app),
		volunteerAddCmd(app),
		volunteerReassignCmd(app),
		volunteerUpdateCmd(app),
		volunteerDeleteCmd(app),
		volunteerForDateCmd(app),
		volunteerReportCmd(app),
	)
	return withAdmin(app, cmd)
}

func volunteerListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all volunteers, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteers, err := services.ListVolunteers(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}
			return emitVolunteers(app, cmd, volunteers)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func volunteerFindCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "find <email>",
		Short: "Show a volunteer by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := services.FindVolunteerByEmail(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("no volunteer with email %s", args[0])
			}
			return emitVolunteers(app, cmd, []db.Volunteer{*v})
		},
	}
}

func volunteerAddCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a volunteer without dates or a confirmation email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			committed, _ := cmd.Flags().GetBool("committed-weekly")

			v, err := services.RegisterVolunteer(app.Ctx, app.Database, app.Logger, services.VolunteerInput{
				Name:            name,
				Email:           email,
				Phone:           phone,
				CommittedWeekly: committed,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Volunteer #%d created\n", v.ID)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().Bool("committed-weekly", false, "Can commit weekly")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func volunteerReassignCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reassign <email> <service_id> [date...]",
		Short: "Replace a volunteer's dates for one service (no dates clears the service)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceID, err := parseID("service_id", args[1])
			if err != nil {
				return err
			}
			committed, _ := cmd.Flags().GetBool("committed-weekly")

			found, err := services.ReassignVolunteer(app.Ctx, app.Database, app.Logger, args[0], serviceID, args[2:], committed)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no volunteer with email %s", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ %s now has %d date(s) for service %d\n", args[0], len(args)-2, serviceID)
			return nil
		},
	}

	cmd.Flags().Bool("committed-weekly", false, "Can commit weekly")
	return cmd
}

func volunteerUpdateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <email>",
		Short: "Update a volunteer's details, keeping their dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := services.FindVolunteerByEmail(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("no volunteer with email %s", args[0])
			}

			input := services.VolunteerInput{
				Name:            v.Name,
				Email:           v.Email,
				Phone:           v.Phone,
				AssignedDates:   v.AssignedDates,
				CommittedWeekly: v.CommittedWeekly,
			}
			if cmd.Flags().Changed("name") {
				input.Name, _ = cmd.Flags().GetString("name")
			}
			if cmd.Flags().Changed("new-email") {
				input.Email, _ = cmd.Flags().GetString("new-email")
			}
			if cmd.Flags().Changed("phone") {
				input.Phone, _ = cmd.Flags().GetString("phone")
			}
			if cmd.Flags().Changed("committed-weekly") {
				input.CommittedWeekly, _ = cmd.Flags().GetBool("committed-weekly")
			}

			if _, err := services.UpdateVolunteer(app.Ctx, app.Database, app.Logger, v.ID, input); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Volunteer #%d updated\n", v.ID)
			return nil
		},
	}

	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("new-email", "", "New email address")
	cmd.Flags().String("phone", "", "New phone number")
	cmd.Flags().Bool("committed-weekly", false, "Can commit weekly")
	return cmd
}

func volunteerDeleteCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete a volunteer and their assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := services.FindVolunteerByEmail(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("no volunteer with email %s", args[0])
			}

			if _, err := services.DeleteVolunteer(app.Ctx, app.Database, app.Logger, v.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Volunteer #%d deleted\n", v.ID)
			return nil
		},
	}
}

func volunteerForDateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "for-date <date>",
		Short: "List volunteers who selected a date, by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteers, err := services.ListVolunteersForDate(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}
			return emitVolunteers(app, cmd, volunteers)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func volunteerReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Volunteers registered in a period, optionally for one service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter services.VolunteerReportFilter

			if cmd.Flags().Changed("service") {
				serviceID, _ := cmd.Flags().GetInt64("service")
				filter.ServiceID = &serviceID
			}

			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			var err error
			if filter.Start, err = createdBound(from, false); err != nil {
				return err
			}
			if filter.End, err = createdBound(to, true); err != nil {
				return err
			}

			volunteers, err := services.ReportVolunteers(app.Ctx, app.Database, app.Logger, filter)
			if err != nil {
				return err
			}
			return emitVolunteers(app, cmd, volunteers)
		},
	}

	cmd.Flags().Int64("service", 0, "Only volunteers with dates for this service")
	cmd.Flags().String("from", "", "Registered on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Registered on or before this date (YYYY-MM-DD)")
	addOutputFlags(cmd)
	return cmd
}

// createdBound turns a calendar date into an inclusive created_at bound
func createdBound(date string, endOfDay bool) (string, error) {
	if date == "" {
		return "", nil
	}
	t, err := schedule.ParseDate(date)
	if err != nil {
		return "", err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t.UTC().Format(db.TimestampLayout), nil
}

func emitVolunteers(app *AppContext, cmd *cobra.Command, volunteers []db.Volunteer) error {
	list, err := services.ListServices(app.Ctx, app.Database, app.Logger)
	if err != nil {
		return err
	}
	return emitTable(app, cmd, export.Volunteers(volunteers, services.ServiceNames(list)))
}
