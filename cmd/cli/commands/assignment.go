package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/db"
	"github.com/jakechorley/tamilschool-volunteers/pkg/export"
)

// AssignmentCmd creates the admin assignment command group
func AssignmentCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Assign volunteers to sub-services",
	}

	cmd.AddCommand(
		assignmentAssignCmd(app),
		assignmentCompleteCmd(app),
		assignmentListCmd(app),
		assignmentSaveDateCmd(app),
	)
	return withAdmin(app, cmd)
}

func assignmentAssignCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <subservice_id> <date> [volunteer_id...]",
		Short: "Replace the volunteers assigned to a sub-service on a date",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subserviceID, err := parseID("subservice_id", args[0])
			if err != nil {
				return err
			}
			volunteerIDs, err := parseIDs("volunteer_id", args[2:])
			if err != nil {
				return err
			}

			inserted, err := services.AssignSubservice(app.Ctx, app.Database, app.Logger, subserviceID, args[1], volunteerIDs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ %d volunteer(s) assigned to sub-service #%d on %s\n", inserted, subserviceID, args[1])
			return nil
		},
	}
}

func assignmentCompleteCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <assignment_id>",
		Short: "Mark an assignment as completed (--undo to clear)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("assignment_id", args[0])
			if err != nil {
				return err
			}
			undo, _ := cmd.Flags().GetBool("undo")

			found, err := services.MarkCompleted(app.Ctx, app.Database, app.Logger, id, !undo)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no assignment #%d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Assignment #%d completed=%t\n", id, !undo)
			return nil
		},
	}
	cmd.Flags().Bool("undo", false, "Clear the completed flag")
	return cmd
}

func assignmentListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments by date and volunteer name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter db.AssignmentFilter
			filter.Date, _ = cmd.Flags().GetString("date")
			filter.SubserviceID, _ = cmd.Flags().GetInt64("subservice")

			assignments, err := services.ListAssignments(app.Ctx, app.Database, app.Logger, filter)
			if err != nil {
				return err
			}

			table := export.Table{Header: []string{"id", "date", "subservice_id", "volunteer_id", "name", "email", "completed"}}
			for _, a := range assignments {
				table.Rows = append(table.Rows, []string{
					strconv.FormatInt(a.ID, 10),
					a.Date,
					strconv.FormatInt(a.SubserviceID, 10),
					strconv.FormatInt(a.VolunteerID, 10),
					a.VolunteerName,
					a.VolunteerEmail,
					strconv.FormatBool(a.Completed),
				})
			}
			return emitTable(app, cmd, table)
		},
	}
	cmd.Flags().String("date", "", "Only this date")
	cmd.Flags().Int64("subservice", 0, "Only this sub-service")
	addOutputFlags(cmd)
	return cmd
}

func assignmentSaveDateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save-date <date>",
		Short: "Save the sub-service chosen for each volunteer on a date",
		Long: `Save one sub-service per volunteer for a date and sync completion flags.
Each --select is <volunteer_id>=<subservice_id>, with :done to mark it completed:

  assignment save-date 2024-06-01 --select 3=10:done --select 4=11`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawSelections, _ := cmd.Flags().GetStringArray("select")
			selections := make(map[int64]services.Selection, len(rawSelections))
			for _, raw := range rawSelections {
				volunteerID, sel, err := parseDateSelection(raw)
				if err != nil {
					return err
				}
				selections[volunteerID] = sel
			}

			result, err := services.SaveDateAssignments(app.Ctx, app.Database, app.Logger, args[0], selections)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Saved %s: %d assignment(s) written, %d completion flag(s) updated\n",
				args[0], result.Inserted, result.Updated)
			return nil
		},
	}
	cmd.Flags().StringArray("select", nil, "<volunteer_id>=<subservice_id>[:done] (repeatable)")
	return cmd
}
