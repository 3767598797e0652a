package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances [trip-id]",
		Short: "Print member balances of a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := parseID(args[0], "trip ID")
			if err != nil {
				return err
			}
			balances, err := svcs.Balances.Balances(cmd.Context(), tripID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), balances)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "USER\tPAID\tOWED\tREMAINING\tSETTLED\tNET\t")
			for _, b := range balances {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
					b.UserID, b.TotalPaid, b.TotalOwed, b.RemainingOwed, b.SettledCredit, b.NetBalance)
			}
			return tw.Flush()
		},
	}
}
