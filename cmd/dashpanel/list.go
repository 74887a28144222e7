package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored panels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			panels, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MONOGRAM\tTYPE\tVIEW\tEDIT\tPHID\tNAME")
			for _, p := range panels {
				fmt.Fprintf(tw, "W%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Type, p.ViewPolicy, p.EditPolicy, p.PHID, p.Name)
			}
			return tw.Flush()
		},
	}
}
