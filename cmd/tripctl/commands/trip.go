package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Manage trips and their members",
	}
	cmd.AddCommand(tripCreateCmd(), tripAddMemberCmd())
	return cmd
}

func tripCreateCmd() *cobra.Command {
	var organizer int64
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a trip; the organizer becomes its first member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := svcs.Admin.CreateTrip(cmd.Context(), args[0], organizer)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created trip %d %q organized by user %d\n", t.ID, t.Name, organizer)
			return nil
		},
	}
	cmd.Flags().Int64Var(&organizer, "organizer", 0, "user ID of the organizer")
	_ = cmd.MarkFlagRequired("organizer")
	return cmd
}

func tripAddMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-member [trip-id] [user-id]",
		Short: "Add a user to a trip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := parseID(args[0], "trip ID")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user ID")
			if err != nil {
				return err
			}
			m, err := svcs.Admin.AddMember(cmd.Context(), tripID, userID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m.ToResponse())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added user %d to trip %d\n", m.UserID, m.TripID)
			return nil
		},
	}
}
