package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/tamilschool-volunteers/pkg/export"
)

// addOutputFlags registers --csv and --sheet on a command that produces a table
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("csv", "", "Write the table to this CSV file")
	cmd.Flags().String("sheet", "", "Publish the table to a new tab with this title in the report spreadsheet")
}

// emitTable prints the table, and also writes it to CSV and/or a sheet when requested
func emitTable(app *AppContext, cmd *cobra.Command, table export.Table) error {
	out := cmd.OutOrStdout()
	printTable(out, table)

	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath != "" {
		if err := writeCSVFile(csvPath, table); err != nil {
			return err
		}
		app.Logger.Info("Table written to CSV", zap.String("path", csvPath), zap.Int("rows", len(table.Rows)))
		fmt.Fprintf(out, "\n✓ Written to %s\n", csvPath)
	}

	sheetTitle, _ := cmd.Flags().GetString("sheet")
	if sheetTitle != "" {
		if err := publishTable(app, sheetTitle, table); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Published to tab %q\n", sheetTitle)
	}

	return nil
}

func writeCSVFile(path string, table export.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func publishTable(app *AppContext, title string, table export.Table) error {
	if app.Cfg == nil || app.Cfg.ReportSheetID == "" {
		return fmt.Errorf("reportSheetID is not configured")
	}
	if app.NewPublisher == nil {
		return fmt.Errorf("sheet publishing is not available")
	}

	publisher, err := app.NewPublisher()
	if err != nil {
		return fmt.Errorf("failed to connect to sheets: %w", err)
	}

	sheetID, err := publisher.PublishTable(app.Cfg.ReportSheetID, title, table.Records())
	if err != nil {
		return err
	}

	app.Logger.Info("Table published",
		zap.String("title", title),
		zap.Int64("sheet_id", sheetID),
		zap.Int("rows", len(table.Rows)))
	return nil
}

func printTable(w io.Writer, table export.Table) {
	if len(table.Rows) == 0 {
		fmt.Fprintln(w, "No rows.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
