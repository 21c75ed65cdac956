package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/export"
	"bridgee/internal/usecase/review"
)

const cliTimeLayout = "2006-01-02 15:04"

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "Inspect and review stored applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications, newest first",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		status, err := statusFlag(cmd)
		if err != nil {
			return err
		}
		jobTitle, _ := cmd.Flags().GetString("job")

		records := app.Reviews.All(cmd.Context(), status, jobTitle)
		if len(records) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "no applications found")
			return err
		}
		return writeRecordTable(cmd.OutOrStdout(), records, app.Reviews.Identifiers())
	}),
}

var applicationsActCmd = &cobra.Command{
	Use:   "act <correlation-id> <action>",
	Short: "Apply a workflow action to one application",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		args := cmd.Flags().Args()

		action, err := application.ParseAction(args[1])
		if err != nil {
			return errs.Wrap(err, "parse action")
		}
		actorName, _ := cmd.Flags().GetString("actor")

		result, err := app.Reviews.Act(ctx, 0, args[0], action, application.Actor{ID: "cli", Name: actorName})
		switch {
		case errors.Is(err, application.ErrRecordNotFound):
			return fmt.Errorf("application %q not found", args[0])
		case errors.Is(err, application.ErrInvalidAction):
			return fmt.Errorf("action %q is not available for this application's current status", action)
		case err != nil:
			return errs.Wrap(err, "apply action")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n",
			args[0], result.From.DisplayName(), result.Record.Status.DisplayName())
		return err
	}),
}

var applicationsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count applications per status",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STATUS\tCOUNT")
		total := 0
		for _, row := range app.Reviews.Counts(cmd.Context()) {
			fmt.Fprintf(tw, "%s\t%d\n", row.Status.DisplayName(), row.Count)
			total += row.Count
		}
		fmt.Fprintf(tw, "Total\t%d\n", total)
		return tw.Flush()
	}),
}

var applicationsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applications as json, yaml or toml",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		status, err := statusFlag(cmd)
		if err != nil {
			return err
		}
		jobTitle, _ := cmd.Flags().GetString("job")

		rows := export.Rows(app.Reviews.All(cmd.Context(), status, jobTitle), app.Reviews.Identifiers())

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			file, err := os.Create(path)
			if err != nil {
				return errs.Wrapf(err, "create %s", path)
			}
			defer file.Close()
			out = file
		}
		return export.Write(out, format, rows)
	}),
}

var applicationsHistoryCmd = &cobra.Command{
	Use:   "history <correlation-id>",
	Short: "Show the recorded status changes of one application",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		id := cmd.Flags().Arg(0)
		record, events, err := app.Reviews.History(cmd.Context(), id)
		if errors.Is(err, application.ErrRecordNotFound) {
			return fmt.Errorf("application %q not found", id)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, review.Card(record, app.Reviews.Identifiers()))
		fmt.Fprintln(out)
		if len(events) == 0 {
			_, err := fmt.Fprintln(out, "no recorded transitions")
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN (UTC)\tACTION\tFROM\tTO\tBY")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.UTC().Format(cliTimeLayout), e.Action,
				application.Status(e.FromStatus).DisplayName(),
				application.Status(e.ToStatus).DisplayName(),
				e.ActorName)
		}
		return tw.Flush()
	}),
}

func statusFlag(cmd *cobra.Command) (application.Status, error) {
	raw, _ := cmd.Flags().GetString("status")
	if raw == "" || raw == "all" {
		return "", nil
	}
	status, err := application.ParseStatus(raw)
	if err != nil {
		return "", errs.Wrap(err, "parse --status")
	}
	return status, nil
}

func writeRecordTable(w io.Writer, records []application.Record, ids application.IdentifierScheme) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBMITTED\tSTATUS\tNAME\tEMAIL\tJOB TITLE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ids.CorrelationID(r.ArtifactName),
			r.SubmittedAt.Local().Format(cliTimeLayout),
			r.Status.DisplayName(),
			r.FullName, r.Email, r.JobTitle)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(applicationsCmd)
	applicationsCmd.AddCommand(
		applicationsListCmd,
		applicationsActCmd,
		applicationsStatsCmd,
		applicationsExportCmd,
		applicationsHistoryCmd,
	)

	for _, c := range []*cobra.Command{applicationsListCmd, applicationsExportCmd} {
		c.Flags().String("status", "", "Status filter: value, code or display name (default: all)")
		c.Flags().String("job", "", "Job title filter")
	}
	applicationsActCmd.Flags().String("actor", "CLI Operator", "Reviewer name recorded on the change")
	applicationsExportCmd.Flags().String("format", "json", "Output format (json|yaml|toml)")
	applicationsExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
}
