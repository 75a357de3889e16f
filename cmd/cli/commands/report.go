package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
	"github.com/jakechorley/tamilschool-volunteers/pkg/export"
)

// ReportCmd creates the admin report command group
func ReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rosters and eligibility reports",
	}

	cmd.AddCommand(reportRosterCmd(app), reportEligibilityCmd(app))
	return withAdmin(app, cmd)
}

func reportRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster <date>",
		Short: "Volunteers for a date with their services, sub-services and completions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := services.RosterForDate(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			if len(roster) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No volunteers for %s.\n", args[0])
				return nil
			}
			return emitTable(app, cmd, export.Roster(roster))
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func reportEligibilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Volunteers by distinct sub-services served and fee-return eligibility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := services.EligibilityReport(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			eligible := 0
			for _, r := range rows {
				if r.Eligible {
					eligible++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Total volunteers: %d (eligible: %d)\n\n", len(rows), eligible)
			return emitTable(app, cmd, export.Eligibility(rows))
		},
	}
	addOutputFlags(cmd)
	return cmd
}
