package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/export"
)

// ServiceCmd creates the admin service command group
func ServiceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage services and their Saturday dates",
	}

	cmd.AddCommand(
		serviceCreateCmd(app),
		serviceUpdateCmd(app),
		serviceDeleteCmd(app),
		serviceListCmd(app),
		serviceDatesCmd(app),
		serviceForDateCmd(app),
	)
	return withAdmin(app, cmd)
}

func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Service name")
	cmd.Flags().Int("max-capacity", 0, "Maximum number of volunteers (0 for no limit)")
	cmd.Flags().String("start", "", "First date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last date (YYYY-MM-DD)")
}

func serviceInput(cmd *cobra.Command) services.ServiceInput {
	name, _ := cmd.Flags().GetString("name")
	maxCapacity, _ := cmd.Flags().GetInt("max-capacity")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	return services.ServiceInput{Name: name, MaxCapacity: maxCapacity, StartDate: start, EndDate: end}
}

func serviceCreateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a service; with --start and --end every Saturday between them becomes a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := services.CreateService(app.Ctx, app.Database, app.Logger, serviceInput(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Service #%d created\n", created.ID)
			if created.DateRangeErr != nil {
				fmt.Fprintf(out, "⚠️  No dates generated: %v\n", created.DateRangeErr)
				return nil
			}
			if len(created.Dates) > 0 {
				fmt.Fprintf(out, "\nDates (%d):\n", len(created.Dates))
				for i, d := range created.Dates {
					fmt.Fprintf(out, "  %2d. %s\n", i+1, d)
				}
			}
			return nil
		},
	}
	addServiceFlags(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func serviceUpdateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <service_id>",
		Short: "Update a service (its generated dates are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("service_id", args[0])
			if err != nil {
				return err
			}

			updated, err := services.UpdateService(app.Ctx, app.Database, app.Logger, id, serviceInput(cmd))
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("no service #%d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Service #%d updated\n", id)
			return nil
		},
	}
	addServiceFlags(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func serviceDeleteCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <service_id>",
		Short: "Delete a service with its dates, sub-services and their assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("service_id", args[0])
			if err != nil {
				return err
			}

			deleted, err := services.DeleteService(app.Ctx, app.Database, app.Logger, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no service #%d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Service #%d deleted\n", id)
			return nil
		},
	}
}

func serviceListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := services.ListServices(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			table := export.Table{Header: []string{"id", "name", "max_capacity", "start_date", "end_date", "created_at"}}
			for _, s := range list {
				table.Rows = append(table.Rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Name,
					strconv.Itoa(s.MaxCapacity),
					s.StartDate,
					s.EndDate,
					s.CreatedAt,
				})
			}
			return emitTable(app, cmd, table)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func serviceDatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dates [service_id]",
		Short: "List a service's dates, or every distinct date when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dates []string
			if len(args) == 1 {
				id, err := parseID("service_id", args[0])
				if err != nil {
					return err
				}
				if dates, err = services.ListServiceDates(app.Ctx, app.Database, app.Logger, id); err != nil {
					return err
				}
			} else {
				var err error
				if dates, err = services.ListAllDates(app.Ctx, app.Database, app.Logger); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, "No dates.")
				return nil
			}
			fmt.Fprintln(out, strings.Join(dates, "\n"))
			return nil
		},
	}
}

func serviceForDateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "for-date <date>",
		Short: "List services running on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := services.ServicesForDate(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(refs) == 0 {
				fmt.Fprintf(out, "No services on %s.\n", args[0])
				return nil
			}
			for _, r := range refs {
				fmt.Fprintf(out, "%d. %s\n", r.ID, r.Name)
			}
			return nil
		},
	}
}

// SubserviceCmd creates the admin sub-service command group
func SubserviceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subservice",
		Short: "Manage sub-services",
	}

	cmd.AddCommand(
		subserviceCreateCmd(app),
		subserviceUpdateCmd(app),
		subserviceDeleteCmd(app),
		subserviceListCmd(app),
	)
	return withAdmin(app, cmd)
}

func subserviceInput(cmd *cobra.Command) services.SubserviceInput {
	name, _ := cmd.Flags().GetString("name")
	maxCapacity, _ := cmd.Flags().GetInt("max-capacity")
	return services.SubserviceInput{Name: name, MaxCapacity: maxCapacity}
}

func subserviceCreateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <service_id>",
		Short: "Create a sub-service under a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceID, err := parseID("service_id", args[0])
			if err != nil {
				return err
			}

			id, err := services.CreateSubservice(app.Ctx, app.Database, app.Logger, serviceID, subserviceInput(cmd))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Sub-service #%d created\n", id)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Sub-service name")
	cmd.Flags().Int("max-capacity", 0, "Maximum number of volunteers (0 for no limit)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func subserviceUpdateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <subservice_id>",
		Short: "Update a sub-service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("subservice_id", args[0])
			if err != nil {
				return err
			}

			updated, err := services.UpdateSubservice(app.Ctx, app.Database, app.Logger, id, subserviceInput(cmd))
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("no sub-service #%d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Sub-service #%d updated\n", id)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Sub-service name")
	cmd.Flags().Int("max-capacity", 0, "Maximum number of volunteers (0 for no limit)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func subserviceDeleteCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subservice_id>",
		Short: "Delete a sub-service and its assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("subservice_id", args[0])
			if err != nil {
				return err
			}

			deleted, err := services.DeleteSubservice(app.Ctx, app.Database, app.Logger, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no sub-service #%d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Sub-service #%d deleted\n", id)
			return nil
		},
	}
}

func subserviceListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sub-services by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var serviceID *int64
			if cmd.Flags().Changed("service") {
				id, _ := cmd.Flags().GetInt64("service")
				serviceID = &id
			}

			list, err := services.ListSubservices(app.Ctx, app.Database, app.Logger, serviceID)
			if err != nil {
				return err
			}

			table := export.Table{Header: []string{"id", "service_id", "name", "max_capacity"}}
			for _, s := range list {
				table.Rows = append(table.Rows, []string{
					strconv.FormatInt(s.ID, 10),
					strconv.FormatInt(s.ServiceID, 10),
					s.Name,
					strconv.Itoa(s.MaxCapacity),
				})
			}
			return emitTable(app, cmd, table)
		},
	}
	cmd.Flags().Int64("service", 0, "Only sub-services of this service")
	addOutputFlags(cmd)
	return cmd
}
