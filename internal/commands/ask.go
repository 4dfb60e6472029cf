package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/report"
)

type askOptions struct {
	profile string
	dryRun  bool
	timeout int
	output  string
	email   bool
	subject string
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question and print the report table",
		Example: `  # Loan amount in crores per SPOC with a grand total
  querydesk ask "total loan amount by spoc"

  # Only show the generated SQL
  querydesk ask --dry-run "how many loans were disbursed this month"

  # Pivot by classification and mail the result
  querydesk ask --profile classification_pivot --email "loan breakdown by spoc"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			req := models.AskRequest{
				Question: strings.Join(args, " "),
				DryRun:   opts.dryRun,
				Timeout:  opts.timeout,
			}
			if opts.profile != "" {
				req.Profile = &opts.profile
			}

			resp, err := a.Pipeline.Handle(cmd.Context(), &req, "cli")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			if err := printAnswer(out, resp); err != nil {
				return err
			}

			if opts.email && resp.Status == models.StatusSuccess {
				if a.Reporter == nil {
					return errors.New("email is not configured (set SENDER_EMAIL, SENDER_PASSWORD and RECIPIENT_EMAIL)")
				}
				subject := opts.subject
				if subject == "" {
					subject = req.Question
				}
				to, err := a.Reporter.SendReport(cmd.Context(), subject, agent.Table(resp.Result))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "\nMailed to %s\n", strings.Join(to, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Report profile (default: route by keywords)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the SQL without executing it")
	cmd.Flags().IntVar(&opts.timeout, "timeout", 0, "Generation timeout in seconds")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&opts.email, "email", false, "Mail the result to RECIPIENT_EMAIL")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Email subject (default: the question)")

	return cmd
}

func printAnswer(w io.Writer, resp *models.AskResponse) error {
	_, _ = fmt.Fprintf(w, "Profile: %s\n", resp.Profile)
	if resp.GeneratedSQL != "" {
		_, _ = fmt.Fprintf(w, "SQL:\n  %s\n\n", resp.GeneratedSQL)
	}

	switch resp.Status {
	case models.StatusSuccess:
		return printTable(w, agent.Table(resp.Result))
	case models.StatusDryRun:
		_, _ = fmt.Fprintln(w, "Dry run: the query was not executed.")
	default:
		_, _ = fmt.Fprintf(w, "Error (%s): %s\n", resp.Status, resp.Error)
	}
	return nil
}

// printTable writes t as aligned text columns.
func printTable(w io.Writer, t report.Table) error {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "The query returned no rows.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = report.FormatCell(row[i])
			}
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
