package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkhayef/tripsplit/internal/settlement"
)

func planCmd() *cobra.Command {
	var algorithm string
	cmd := &cobra.Command{
		Use:   "plan [trip-id]",
		Short: "Print the transfers that would clear a trip's debts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := parseID(args[0], "trip ID")
			if err != nil {
				return err
			}
			alg, err := settlement.ParseAlgorithm(algorithm, svcs.Settlements.DefaultAlgorithm())
			if err != nil {
				return err
			}
			plan, err := svcs.Settlements.PlanTrip(cmd.Context(), tripID, alg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), settlement.PlanResponse{
					Algorithm: alg,
					Total:     settlement.Total(plan),
					Transfers: plan,
				})
			}

			out := cmd.OutOrStdout()
			if len(plan) == 0 {
				fmt.Fprintln(out, "Nothing to settle")
				return nil
			}
			for _, c := range plan {
				fmt.Fprintf(out, "user %d pays user %d %s %s\n", c.FromUserID, c.ToUserID, c.Amount, c.Currency)
			}
			fmt.Fprintf(out, "%d transfers (%s)\n", len(plan), alg)
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "pairwise or minimal (default from SETTLEMENT_ALGORITHM)")
	return cmd
}
