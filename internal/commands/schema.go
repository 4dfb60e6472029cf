package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type schemaOptions struct {
	tables bool
}

func newSchemaCmd() *cobra.Command {
	opts := &schemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if opts.tables {
				tables, err := a.DB.ListTables(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tTYPE\tROWS")
				for _, t := range tables {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t~%d\n", t.Name, t.Type, t.NumRows)
				}
				return tw.Flush()
			}

			desc, err := a.Describer.Describe(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, desc.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.tables, "tables", false, "List physical tables with approximate row counts instead")

	return cmd
}
